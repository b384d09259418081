package chk

import "encoding/binary"

// Dimensions returns the map's (width, height) in tiles, or (0, 0, false)
// if the container has no DIM chunk.
func (f *File) Dimensions() (width, height uint16, ok bool) {
	data, present := f.FirstChunk(TagDimensions)
	if !present || len(data) < 4 {
		return 0, 0, false
	}
	return binary.LittleEndian.Uint16(data[0:2]), binary.LittleEndian.Uint16(data[2:4]), true
}

// SetDimensions writes the map's (width, height) in tiles.
func (f *File) SetDimensions(width, height uint16) error {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], width)
	binary.LittleEndian.PutUint16(buf[2:4], height)
	return f.SetFirstChunk(TagDimensions, buf)
}
