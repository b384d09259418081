package chk

import "encoding/binary"

// Version returns the format-version chunk's value and true, or (0, false)
// if the container has none.
func (f *File) Version() (uint16, bool) {
	data, ok := f.FirstChunk(TagVersion)
	if !ok || len(data) < 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(data), true
}

// SetVersion writes the format-version chunk.
func (f *File) SetVersion(v uint16) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, v)
	return f.SetFirstChunk(TagVersion, buf)
}
