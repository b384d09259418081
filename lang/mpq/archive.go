package mpq

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Block-table flags, grounded on original_source/src/libmpq/MpqBlockTable.cpp
// and the community-documented MoPaQ format the rest of the map-editing
// tool ecosystem builds against (the same tier of grounding §4.5 already
// leans on for the trigger action/condition tables).
const (
	blockFileExists  = 0x80000000
	blockSingleUnit  = 0x01000000
	blockFixKey      = 0x00020000
	blockEncrypted   = 0x00010000
	blockCompressed  = 0x00000200
)

const (
	hashEntrySize  = 16
	blockEntrySize = 16
	headerSize     = 32
)

var signature = [4]byte{'M', 'P', 'Q', 0x1A}

const (
	hashEntryFree    = 0xFFFFFFFF
	hashEntryDeleted = 0xFFFFFFFE
)

type header struct {
	headerSize       uint32
	archiveSize      uint32
	formatVersion    uint16
	sectorSizeShift  uint16
	hashTableOffset  uint32
	blockTableOffset uint32
	hashTableEntries uint32
	blockTableEntries uint32
}

type hashEntry struct {
	hashA, hashB   uint32
	locale         uint16
	platform       uint16
	blockIndex     uint32
}

type blockEntry struct {
	filePos        uint32
	compressedSize uint32
	fileSize       uint32
	flags          uint32
}

// Archive is a read handle on a container archive: a header, a hash table
// resolving filenames to block-table slots, and a block table describing
// each member's position, size, and compression (spec.md §4.5).
type Archive struct {
	r      io.ReaderAt
	base   int64
	hdr    header
	hashes []hashEntry
	blocks []blockEntry
}

// Open scans r for a MoPaQ header (searched at 512-byte aligned offsets,
// since the format allows an arbitrary prefix such as an executable
// launcher stub ahead of the archive proper) and parses its hash and block
// tables.
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	base, err := findHeader(r, size)
	if err != nil {
		return nil, err
	}

	var hb [headerSize]byte
	if _, err := r.ReadAt(hb[:], base); err != nil {
		return nil, fmt.Errorf("mpq: read header: %w", err)
	}
	h := header{
		headerSize:        leUint32(hb[4:8]),
		archiveSize:        leUint32(hb[8:12]),
		formatVersion:      uint16(hb[12]) | uint16(hb[13])<<8,
		sectorSizeShift:    uint16(hb[14]) | uint16(hb[15])<<8,
		hashTableOffset:    leUint32(hb[16:20]),
		blockTableOffset:   leUint32(hb[20:24]),
		hashTableEntries:   leUint32(hb[24:28]),
		blockTableEntries:  leUint32(hb[28:32]),
	}

	a := &Archive{r: r, base: base, hdr: h}

	hashBuf := make([]byte, int(h.hashTableEntries)*hashEntrySize)
	if _, err := r.ReadAt(hashBuf, base+int64(h.hashTableOffset)); err != nil {
		return nil, fmt.Errorf("mpq: read hash table: %w", err)
	}
	DecryptData(hashBuf, HashString("(hash table)", HashFileKey))
	a.hashes = make([]hashEntry, h.hashTableEntries)
	for i := range a.hashes {
		b := hashBuf[i*hashEntrySize:]
		a.hashes[i] = hashEntry{
			hashA:      leUint32(b[0:4]),
			hashB:      leUint32(b[4:8]),
			locale:     uint16(b[8]) | uint16(b[9])<<8,
			platform:   uint16(b[10]) | uint16(b[11])<<8,
			blockIndex: leUint32(b[12:16]),
		}
	}

	blockBuf := make([]byte, int(h.blockTableEntries)*blockEntrySize)
	if _, err := r.ReadAt(blockBuf, base+int64(h.blockTableOffset)); err != nil {
		return nil, fmt.Errorf("mpq: read block table: %w", err)
	}
	DecryptData(blockBuf, HashString("(block table)", HashFileKey))
	a.blocks = make([]blockEntry, h.blockTableEntries)
	for i := range a.blocks {
		b := blockBuf[i*blockEntrySize:]
		a.blocks[i] = blockEntry{
			filePos:        leUint32(b[0:4]),
			compressedSize: leUint32(b[4:8]),
			fileSize:       leUint32(b[8:12]),
			flags:          leUint32(b[12:16]),
		}
	}

	return a, nil
}

func findHeader(r io.ReaderAt, size int64) (int64, error) {
	var probe [4]byte
	for off := int64(0); off+headerSize <= size; off += 512 {
		if _, err := r.ReadAt(probe[:], off); err != nil {
			break
		}
		if probe == signature {
			return off, nil
		}
	}
	return 0, containerErr("no MPQ header signature found")
}

// mmapCloser is shared in shape with lang/chk's; kept separate since the
// two packages stay decoupled (chk parses the container payload, mpq
// parses the archive it lives inside).
type mmapCloser struct {
	m mmap.MMap
	f *os.File
}

func (c *mmapCloser) Close() error {
	if err := c.m.Unmap(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}

type readerAtBytes []byte

func (b readerAtBytes) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b)) {
		return 0, io.EOF
	}
	n := copy(p, b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// OpenFile memory-maps path and opens it as an Archive. The returned
// io.Closer must be closed once the Archive and any bytes read from it are
// no longer needed.
func OpenFile(path string) (*Archive, io.Closer, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	fi, err := osf.Stat()
	if err != nil {
		osf.Close()
		return nil, nil, err
	}

	if m, err := mmap.Map(osf, mmap.RDONLY, 0); err == nil {
		a, err := Open(readerAtBytes(m), fi.Size())
		if err != nil {
			m.Unmap()
			osf.Close()
			return nil, nil, err
		}
		return a, &mmapCloser{m: m, f: osf}, nil
	}

	buf, err := io.ReadAll(osf)
	if err != nil {
		osf.Close()
		return nil, nil, err
	}
	a, err := Open(readerAtBytes(buf), int64(len(buf)))
	if err != nil {
		osf.Close()
		return nil, nil, err
	}
	return a, osf, nil
}

func (a *Archive) findBlock(name string) (*blockEntry, bool) {
	if len(a.hashes) == 0 {
		return nil, false
	}
	mask := uint32(len(a.hashes) - 1)
	start := HashString(name, HashTableOffset) & mask
	hashA := HashString(name, HashNameA)
	hashB := HashString(name, HashNameB)

	for i := uint32(0); i < uint32(len(a.hashes)); i++ {
		idx := (start + i) & mask
		h := a.hashes[idx]
		if h.blockIndex == hashEntryFree {
			return nil, false
		}
		if h.blockIndex == hashEntryDeleted {
			continue
		}
		if h.hashA == hashA && h.hashB == hashB {
			if int(h.blockIndex) >= len(a.blocks) {
				return nil, false
			}
			return &a.blocks[h.blockIndex], true
		}
	}
	return nil, false
}

// FileExists reports whether the archive contains a member named name.
func (a *Archive) FileExists(name string) bool {
	_, ok := a.findBlock(name)
	return ok
}

// ReadFile reads and decompresses the archive member named name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	blk, ok := a.findBlock(name)
	if !ok {
		return nil, fmt.Errorf("mpq: file %q not found", name)
	}
	if blk.flags&blockFileExists == 0 {
		return nil, fmt.Errorf("mpq: file %q not found", name)
	}

	raw := make([]byte, blk.compressedSize)
	if _, err := a.r.ReadAt(raw, a.base+int64(blk.filePos)); err != nil {
		return nil, fmt.Errorf("mpq: read %q: %w", name, err)
	}

	var key uint32
	if blk.flags&blockEncrypted != 0 {
		key = HashString(name, HashFileKey)
		if blk.flags&blockFixKey != 0 {
			key = (key + blk.filePos) ^ blk.fileSize
		}
	}

	if blk.flags&blockSingleUnit != 0 {
		return a.readSingleUnit(raw, key, blk)
	}
	return a.readSectored(raw, key, blk)
}

func (a *Archive) readSingleUnit(raw []byte, key uint32, blk *blockEntry) ([]byte, error) {
	if blk.flags&blockEncrypted != 0 {
		decryptSector(raw, key)
	}
	if blk.flags&blockCompressed != 0 && blk.compressedSize < blk.fileSize {
		out, err := decompress(raw, int(blk.fileSize))
		if err != nil && !errors.Is(err, ErrUnsupportedCompression) {
			return nil, err
		}
		return out, nil
	}
	return raw, nil
}

// readSectored reads a multi-sector file: a leading little-endian uint32
// sector-offset table (sectorCount+1 entries, the last marking the end of
// the compressed data), followed by the sectors themselves, each
// independently encrypted (with key+sector index) and compressed.
func (a *Archive) readSectored(raw []byte, key uint32, blk *blockEntry) ([]byte, error) {
	sectorSize := 512 << uint(a.hdr.sectorSizeShift)
	sectorCount := (int(blk.fileSize) + sectorSize - 1) / sectorSize
	tableLen := (sectorCount + 1) * 4

	if len(raw) < tableLen {
		return nil, containerErr("mpq: truncated sector table")
	}
	table := make([]byte, tableLen)
	copy(table, raw[:tableLen])
	if blk.flags&blockEncrypted != 0 {
		decryptSector(table, key-1)
	}

	offsets := make([]uint32, sectorCount+1)
	for i := range offsets {
		offsets[i] = leUint32(table[i*4:])
	}

	out := make([]byte, 0, blk.fileSize)
	for i := 0; i < sectorCount; i++ {
		start, end := offsets[i], offsets[i+1]
		if int(end) > len(raw) || start > end {
			return nil, containerErr("mpq: sector %d out of range", i)
		}
		sector := make([]byte, end-start)
		copy(sector, raw[start:end])
		if blk.flags&blockEncrypted != 0 {
			decryptSector(sector, key+uint32(i))
		}

		want := sectorSize
		if i == sectorCount-1 {
			if rem := int(blk.fileSize) % sectorSize; rem != 0 {
				want = rem
			}
		}
		if blk.flags&blockCompressed != 0 && len(sector) < want {
			dec, err := decompress(sector, want)
			if err != nil && !errors.Is(err, ErrUnsupportedCompression) {
				return nil, err
			}
			sector = dec
		}
		out = append(out, sector...)
	}
	return out, nil
}

func decryptSector(b []byte, key uint32) {
	n := len(b) &^ 3
	DecryptData(b[:n], key)
}
