package chk

import "encoding/binary"

// The strings chunk is a uint16 count, that many uint16 offsets (absolute
// from the start of the chunk payload), then a blob of null-terminated
// strings. original_source/src/libchk/stringschunk.cpp's InsertString
// mutates m_Offsets with a raw operator[] past its current size, which is
// undefined behavior in the original; this package rebuilds the header and
// every offset from scratch on insert instead of reproducing that bug.

// StringCount returns the number of offset slots in the string table.
func (f *File) StringCount() int {
	data, ok := f.FirstChunk(TagStrings)
	if !ok || len(data) < 2 {
		return 0
	}
	return int(binary.LittleEndian.Uint16(data))
}

func (f *File) stringOffsets(data []byte) []uint16 {
	if len(data) < 2 {
		return nil
	}
	n := int(binary.LittleEndian.Uint16(data))
	offs := make([]uint16, 0, n)
	for i := 0; i < n; i++ {
		p := 2 + i*2
		if p+2 > len(data) {
			break
		}
		offs = append(offs, binary.LittleEndian.Uint16(data[p:p+2]))
	}
	return offs
}

// String returns the string at index, or ("", false) if index is out of
// range or its offset runs past the end of the chunk.
func (f *File) String(index int) (string, bool) {
	data, ok := f.FirstChunk(TagStrings)
	if !ok {
		return "", false
	}
	offs := f.stringOffsets(data)
	if index < 0 || index >= len(offs) {
		return "", false
	}
	off := int(offs[index])
	if off > len(data) {
		return "", false
	}
	end := off
	for end < len(data) && data[end] != 0 {
		end++
	}
	return string(data[off:end]), true
}

// FindString returns the index of s in the string table, or (0, false) if
// absent.
func (f *File) FindString(s string) (int, bool) {
	n := f.StringCount()
	for i := 0; i < n; i++ {
		if v, ok := f.String(i); ok && v == s {
			return i, true
		}
	}
	return 0, false
}

// InsertString returns the index of s in the string table, inserting it
// (deduplicated against an exact match) if not already present.
func (f *File) InsertString(s string) (int, error) {
	if idx, ok := f.FindString(s); ok {
		return idx, nil
	}

	data, _ := f.FirstChunk(TagStrings)
	offs := f.stringOffsets(data)

	oldHeaderSize := 2 + 2*len(offs)
	var blob []byte
	if len(data) > oldHeaderSize {
		blob = append(blob, data[oldHeaderSize:]...)
	}

	newCount := len(offs) + 1
	newHeaderSize := 2 + 2*newCount

	out := make([]byte, newHeaderSize)
	binary.LittleEndian.PutUint16(out, uint16(newCount))
	for i, off := range offs {
		binary.LittleEndian.PutUint16(out[2+2*i:], off+uint16(newHeaderSize-oldHeaderSize))
	}
	newOffset := newHeaderSize + len(blob)
	binary.LittleEndian.PutUint16(out[2+2*len(offs):], uint16(newOffset))

	out = append(out, blob...)
	out = append(out, []byte(s)...)
	out = append(out, 0)

	if err := f.SetFirstChunk(TagStrings, out); err != nil {
		return 0, err
	}
	return newCount - 1, nil
}
