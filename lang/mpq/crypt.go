// Package mpq implements the encrypted archive wrapper the map container
// lives inside (spec.md §4.5): a header, an encrypted hash table mapping
// filenames to block-table slots, an encrypted block table describing each
// file's on-disk location and compression, and per-file block encryption.
//
// Grounded on original_source/src/libmpq/MpqCrypt.cpp, MpqHashTable.cpp,
// MpqBlockTable.cpp, and SFmpqapi.cpp; the algorithm is the well-known
// StormLib MoPaQ cipher, as the teacher's original comments note.
package mpq

import (
	"fmt"
	"sync"

	"github.com/mna/umscript/lang/diag"
)

func containerErr(format string, args ...interface{}) error {
	return &diag.Error{Kind: diag.Container, Msg: fmt.Sprintf(format, args...)}
}

// Hash types passed to HashString, selecting which of the three hashes
// (or the decryption key) to compute.
const (
	HashTableOffset = 0
	HashNameA       = 1
	HashNameB       = 2
	HashFileKey     = 3
)

var (
	cryptTableOnce sync.Once
	cryptTable     [0x500]uint32
)

// initCryptTable lazily builds the 0x500-entry crypt table used by every
// hash and block cipher operation in this package. It is read-only after
// first use (spec.md §9's note on the original's global mutable state).
func initCryptTable() {
	cryptTableOnce.Do(func() {
		seed := uint32(0x00100001)
		for index1 := uint32(0); index1 < 0x100; index1++ {
			index2 := index1
			for i := 0; i < 5; i++ {
				seed = (seed*125 + 3) % 0x2AAAAB
				temp1 := (seed & 0xFFFF) << 0x10

				seed = (seed*125 + 3) % 0x2AAAAB
				temp2 := seed & 0xFFFF

				cryptTable[index2] = temp1 | temp2
				index2 += 0x100
			}
		}
	})
}

// HashString computes one of the MoPaQ hashes of s (case-insensitive,
// backslash-stripped for HashFileKey) selected by hashType.
func HashString(s string, hashType uint32) uint32 {
	initCryptTable()

	if hashType == HashFileKey {
		if i := lastBackslash(s); i >= 0 {
			s = s[i+1:]
		}
	}

	var seed1 uint32 = 0x7FED7FED
	var seed2 uint32 = 0xEEEEEEEE

	for i := 0; i < len(s); i++ {
		ch := uint32(toUpperASCII(s[i]))
		seed1 = cryptTable[(hashType<<8)+ch] ^ (seed1 + seed2)
		seed2 = ch + seed1 + seed2 + (seed2 << 5) + 3
	}
	return seed1
}

func lastBackslash(s string) int {
	idx := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			idx = i
		}
	}
	return idx
}

func toUpperASCII(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// DecryptData decrypts buf in place (length must be a multiple of 4) under
// key, using the MoPaQ stream cipher.
func DecryptData(buf []byte, key uint32) {
	initCryptTable()

	seed := uint32(0xEEEEEEEE)
	for i := 0; i+4 <= len(buf); i += 4 {
		seed += cryptTable[0x400+(key&0xFF)]
		v := leUint32(buf[i:]) ^ (key + seed)

		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = v + seed + (seed << 5) + 3

		putLeUint32(buf[i:], v)
	}
}

// EncryptData encrypts buf in place (length must be a multiple of 4) under
// key, the inverse of DecryptData.
func EncryptData(buf []byte, key uint32) {
	initCryptTable()

	seed := uint32(0xEEEEEEEE)
	for i := 0; i+4 <= len(buf); i += 4 {
		seed += cryptTable[0x400+(key&0xFF)]
		plain := leUint32(buf[i:])
		ch := plain ^ (key + seed)

		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3

		putLeUint32(buf[i:], ch)
	}
}

// DetectFileKey recovers the per-file decryption key by a known-plaintext
// attack against the first two DWORDs of a file's block-offset table: the
// first decrypted DWORD is always known ((blockCount+1)*4, the size of the
// table itself), and the second is bounded by the uncompressed block size.
// Used when umscript reads an archive member whose filename (and therefore
// whose filename-derived key) is not known to the caller.
func DetectFileKey(block []uint32, decryptedFirst uint32, blockSize uint32) (uint32, bool) {
	initCryptTable()

	temp := block[0]^decryptedFirst - 0xEEEEEEEE
	for i := uint32(0); i < 0x100; i++ {
		seed1 := temp - cryptTable[0x400+i]
		seed2 := uint32(0xEEEEEEEE) + cryptTable[0x400+(seed1&0xFF)]
		ch := block[0] ^ (seed1 + seed2)
		if ch != decryptedFirst {
			continue
		}

		saveSeed1 := seed1 + 1

		seed1 = ((^seed1 << 0x15) + 0x11111111) | (seed1 >> 0x0B)
		seed2 = ch + seed2 + (seed2 << 5) + 3
		seed2 += cryptTable[0x400+(seed1&0xFF)]
		ch = block[1] ^ (seed1 + seed2)

		if ch <= decryptedFirst+blockSize {
			return saveSeed1, true
		}
	}
	return 0, false
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func putLeUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
