package mpq

import (
	"io"
)

// sectorShift picks a modest fixed sector size (512 << 3 = 4096 bytes) for
// archives this package writes; umscript only ever produces small archives
// (a handful of chunk-table members), so every file it writes is stored as
// a single unit and the sector size never actually matters for size, only
// for interoperability with readers that assume one is set.
const sectorShift = 3

// Builder assembles a fresh archive in memory: spec.md's compiler writes
// one out per compiled map, containing the (possibly recompressed)
// container payload plus whatever other members a template archive
// carried that it doesn't touch (original_source/src/libmpq/MpqBlockTable.cpp's
// WriteBlockTable / MpqHashTable.cpp's WriteHashTable show the whole
// table is rewritten as one encrypted blob, which this mirrors).
type Builder struct {
	names []string
	data  [][]byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddFile stages name/data for inclusion when Write is called. A later
// AddFile call for the same name replaces the earlier one.
func (b *Builder) AddFile(name string, data []byte) {
	for i, n := range b.names {
		if n == name {
			b.data[i] = data
			return
		}
	}
	b.names = append(b.names, name)
	b.data = append(b.data, data)
}

// Write serializes the staged files into a complete archive: header,
// member bodies, hash table, block table, in that order, matching the
// layout original_source/src/libmpq writes archives in.
func (b *Builder) Write(w io.Writer) error {
	hashTableSize := nextPow2(len(b.names) * 2)
	if hashTableSize < 4 {
		hashTableSize = 4
	}

	var body []byte
	blocks := make([]blockEntry, len(b.names))

	for i, name := range b.names {
		plain := b.data[i]
		flags := uint32(blockFileExists | blockSingleUnit | blockEncrypted)

		payload := plain
		if comp, ok := compress(plain); ok {
			payload = comp
			flags |= blockCompressed
		}

		key := HashString(name, HashFileKey)
		filePos := uint32(headerSize) + uint32(len(body))
		key = (key + filePos) ^ uint32(len(plain))
		flags |= blockFixKey

		enc := make([]byte, len(payload))
		copy(enc, payload)
		encryptSector(enc, key)

		blocks[i] = blockEntry{
			filePos:        filePos,
			compressedSize: uint32(len(enc)),
			fileSize:       uint32(len(plain)),
			flags:          flags,
		}
		body = append(body, enc...)
	}

	hashes := make([]hashEntry, hashTableSize)
	for i := range hashes {
		hashes[i] = hashEntry{blockIndex: hashEntryFree}
	}
	mask := uint32(hashTableSize - 1)
	for i, name := range b.names {
		start := HashString(name, HashTableOffset) & mask
		hashA := HashString(name, HashNameA)
		hashB := HashString(name, HashNameB)
		for j := uint32(0); j < uint32(hashTableSize); j++ {
			idx := (start + j) & mask
			if hashes[idx].blockIndex == hashEntryFree {
				hashes[idx] = hashEntry{hashA: hashA, hashB: hashB, blockIndex: uint32(i)}
				break
			}
		}
	}

	hashTableOffset := uint32(headerSize) + uint32(len(body))
	blockTableOffset := hashTableOffset + uint32(hashTableSize*hashEntrySize)
	archiveSize := blockTableOffset + uint32(len(blocks)*blockEntrySize)

	hdr := make([]byte, headerSize)
	copy(hdr[0:4], signature[:])
	putLeUint32(hdr[4:8], headerSize)
	putLeUint32(hdr[8:12], archiveSize)
	hdr[12], hdr[13] = 0, 0 // formatVersion
	hdr[14], hdr[15] = sectorShift, 0
	putLeUint32(hdr[16:20], hashTableOffset)
	putLeUint32(hdr[20:24], blockTableOffset)
	putLeUint32(hdr[24:28], uint32(hashTableSize))
	putLeUint32(hdr[28:32], uint32(len(blocks)))

	hashBuf := make([]byte, hashTableSize*hashEntrySize)
	for i, h := range hashes {
		b := hashBuf[i*hashEntrySize:]
		putLeUint32(b[0:4], h.hashA)
		putLeUint32(b[4:8], h.hashB)
		b[8], b[9] = byte(h.locale), byte(h.locale>>8)
		b[10], b[11] = byte(h.platform), byte(h.platform>>8)
		putLeUint32(b[12:16], h.blockIndex)
	}
	EncryptData(hashBuf, HashString("(hash table)", HashFileKey))

	blockBuf := make([]byte, len(blocks)*blockEntrySize)
	for i, blk := range blocks {
		b := blockBuf[i*blockEntrySize:]
		putLeUint32(b[0:4], blk.filePos)
		putLeUint32(b[4:8], blk.compressedSize)
		putLeUint32(b[8:12], blk.fileSize)
		putLeUint32(b[12:16], blk.flags)
	}
	EncryptData(blockBuf, HashString("(block table)", HashFileKey))

	for _, chunk := range [][]byte{hdr, body, hashBuf, blockBuf} {
		if _, err := w.Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

func encryptSector(b []byte, key uint32) {
	n := len(b) &^ 3
	EncryptData(b[:n], key)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
