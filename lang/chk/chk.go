// Package chk implements the map container codec (spec.md §3 "Map
// container", §4.5, C5): a sequence of four-byte-tag/length/payload chunks,
// with field-level accessors for the chunks the compiler understands and
// verbatim round-trip preservation for everything else.
//
// The split into one file per chunk kind (verchunk.go, stringschunk.go, ...)
// mirrors original_source/src/libchk's one-header-per-chunk layout.
package chk

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/mna/umscript/lang/diag"
)

// containerErr builds a diag.Error of Kind Container: these carry no AST
// node or source position, since they describe a problem with the binary
// container itself, not with the script being compiled.
func containerErr(format string, args ...interface{}) error {
	return &diag.Error{Kind: diag.Container, Msg: fmt.Sprintf(format, args...)}
}

// capacityErr builds a diag.Error of Kind Capacity: a fixed engine limit
// (CUWP slots, WAV slots, trigger records, location slots) was exceeded.
func capacityErr(format string, args ...interface{}) error {
	return &diag.Error{Kind: diag.Capacity, Msg: fmt.Sprintf(format, args...)}
}

// Tag identifies a chunk by its four-byte on-disk marker, e.g. "VER ",
// "STR ", "TRIG". Tags shorter than four bytes are padded with spaces on
// disk, matching the host engine's own chunk headers.
type Tag string

// Recognized chunk tags (original_source/src/libchk/chk.cpp's dispatch).
const (
	TagVersion    Tag = "VER "
	TagStrings    Tag = "STR "
	TagTriggers   Tag = "TRIG"
	TagLocations  Tag = "MRGN"
	TagOwners     Tag = "OWNR"
	TagIOwners    Tag = "IOWN"
	TagDimensions Tag = "DIM "
	TagCUWP       Tag = "UPRP"
	TagCUWPUsed   Tag = "UPUS"
	TagWAV        Tag = "WAV "
	TagTileset    Tag = "ERA "
)

// chunk is one tag+payload record, kept in on-disk order so Serialize can
// reproduce byte-identical output for any chunk the caller never mutates.
type chunk struct {
	tag  Tag
	data []byte
}

// File is an open map container: an ordered list of chunks, some of which
// this package knows how to interpret. Chunks are never reordered or
// dropped; unrecognized tags are carried through untouched.
type File struct {
	readOnly bool
	chunks   []chunk
}

// Open parses a map container from r, which must expose exactly size bytes
// starting at offset 0. The returned File is read-only: mutating accessors
// (SetFirstChunk and the typed Set* methods on individual chunk kinds)
// return an error.
func Open(r io.ReaderAt, size int64) (*File, error) {
	f, err := parse(r, size)
	if err != nil {
		return nil, err
	}
	f.readOnly = true
	return f, nil
}

// Create parses a map container the same way Open does, but returns a
// writable File: a session that intends to mutate and re-serialize the
// container (spec.md §4.5's "read-write" open mode).
func Create(r io.ReaderAt, size int64) (*File, error) {
	return parse(r, size)
}

// OpenFile opens the map container at path. If the file is a regular,
// seekable OS file it is memory-mapped with github.com/edsrzf/mmap-go;
// otherwise (e.g. a pipe) its full contents are read into memory. writable
// selects between Open and Create semantics.
func OpenFile(path string, writable bool) (*File, io.Closer, error) {
	osf, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("chk: open %s: %w", path, err)
	}

	info, err := osf.Stat()
	if err != nil || !info.Mode().IsRegular() {
		defer osf.Close()
		data, err := io.ReadAll(osf)
		if err != nil {
			return nil, nil, fmt.Errorf("chk: read %s: %w", path, err)
		}
		br := readerAtBytes(data)
		f, err := openOrCreate(br, int64(len(data)), writable)
		return f, io.NopCloser(nil), err
	}

	m, err := mmap.Map(osf, mmap.RDONLY, 0)
	if err != nil {
		osf.Close()
		return nil, nil, fmt.Errorf("chk: mmap %s: %w", path, err)
	}
	f, err := openOrCreate(readerAtBytes(m), int64(len(m)), writable)
	if err != nil {
		m.Unmap()
		osf.Close()
		return nil, nil, err
	}
	return f, &mmapCloser{m: m, f: osf}, nil
}

type mmapCloser struct {
	m mmap.MMap
	f *os.File
}

func (c *mmapCloser) Close() error {
	uerr := c.m.Unmap()
	cerr := c.f.Close()
	if uerr != nil {
		return uerr
	}
	return cerr
}

func openOrCreate(r io.ReaderAt, size int64, writable bool) (*File, error) {
	if writable {
		return Create(r, size)
	}
	return Open(r, size)
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

// parse reads size bytes from r and splits them into a chunk list. A
// truncated tag/length header or a payload that runs past the end of the
// buffer is a Container-class failure (spec.md §7).
func parse(r io.ReaderAt, size int64) (*File, error) {
	buf := make([]byte, size)
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, containerErr("read container: %v", err)
	}

	f := &File{}
	i := 0
	for i < len(buf) {
		if i+8 > len(buf) {
			return nil, containerErr("truncated chunk header at offset %d", i)
		}
		tag := Tag(buf[i : i+4])
		length := binary.LittleEndian.Uint32(buf[i+4 : i+8])
		i += 8

		if i+int(length) > len(buf) {
			return nil, containerErr("chunk %q declares length %d past end of container", tag, length)
		}
		data := make([]byte, length)
		copy(data, buf[i:i+int(length)])
		i += int(length)

		f.chunks = append(f.chunks, chunk{tag: tag, data: data})
	}
	return f, nil
}

// Serialize re-encodes every chunk, in original order, as tag+length+
// payload. Chunks never touched by a Set* call are written back byte-for-
// byte (spec.md §8's container round-trip property).
func (f *File) Serialize() []byte {
	size := 0
	for _, c := range f.chunks {
		size += 8 + len(c.data)
	}

	out := make([]byte, 0, size)
	for _, c := range f.chunks {
		var tagBytes [4]byte
		copy(tagBytes[:], c.tag)
		for i := len(c.tag); i < 4; i++ {
			tagBytes[i] = ' '
		}
		out = append(out, tagBytes[:]...)

		var lenBytes [4]byte
		binary.LittleEndian.PutUint32(lenBytes[:], uint32(len(c.data)))
		out = append(out, lenBytes[:]...)
		out = append(out, c.data...)
	}
	return out
}

// HasChunk reports whether at least one chunk with the given tag exists.
func (f *File) HasChunk(tag Tag) bool {
	for _, c := range f.chunks {
		if c.tag == tag {
			return true
		}
	}
	return false
}

// ChunkCount returns the total number of chunks, recognized or not.
func (f *File) ChunkCount() int {
	return len(f.chunks)
}

// ChunkTags returns the set of distinct tags present, in first-seen order.
func (f *File) ChunkTags() []Tag {
	seen := make(map[Tag]bool, len(f.chunks))
	var tags []Tag
	for _, c := range f.chunks {
		if !seen[c.tag] {
			seen[c.tag] = true
			tags = append(tags, c.tag)
		}
	}
	return tags
}

// FirstChunk returns the payload of the first chunk with the given tag.
func (f *File) FirstChunk(tag Tag) ([]byte, bool) {
	for _, c := range f.chunks {
		if c.tag == tag {
			return c.data, true
		}
	}
	return nil, false
}

// Chunks returns the payloads of every chunk with the given tag, in order.
func (f *File) Chunks(tag Tag) [][]byte {
	var out [][]byte
	for _, c := range f.chunks {
		if c.tag == tag {
			out = append(out, c.data)
		}
	}
	return out
}

// SetFirstChunk replaces the payload of the first chunk with the given tag,
// or appends a new chunk if none exists yet. It fails on a read-only File.
func (f *File) SetFirstChunk(tag Tag, data []byte) error {
	if f.readOnly {
		return fmt.Errorf("chk: %q is read-only", tag)
	}
	for i := range f.chunks {
		if f.chunks[i].tag == tag {
			f.chunks[i].data = data
			return nil
		}
	}
	f.chunks = append(f.chunks, chunk{tag: tag, data: data})
	return nil
}
