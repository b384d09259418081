package chk

import "encoding/binary"

// AnywhereLocation is the reserved slot index meaning "anywhere on the
// map" rather than a user-defined location.
const AnywhereLocation = 64

// LocationsCount is the fixed number of location slots the chunk carries.
const LocationsCount = 255

const locationRecordSize = 20 // 4*uint32 + 2*uint16

// Elevation flag bits for Location.Elevation.
const (
	ElevationLow = 1 << iota
	ElevationMedium
	ElevationHigh
	ElevationLowAir
	ElevationMediumAir
	ElevationHighAir
)

// Location is one fixed-size record of the locations ("MRGN") chunk.
type Location struct {
	Left, Top, Right, Bottom uint32
	StringIndex              uint16
	Elevation                uint16
}

func decodeLocation(b []byte) Location {
	return Location{
		Left:         binary.LittleEndian.Uint32(b[0:4]),
		Top:          binary.LittleEndian.Uint32(b[4:8]),
		Right:        binary.LittleEndian.Uint32(b[8:12]),
		Bottom:       binary.LittleEndian.Uint32(b[12:16]),
		StringIndex:  binary.LittleEndian.Uint16(b[16:18]),
		Elevation:    binary.LittleEndian.Uint16(b[18:20]),
	}
}

func encodeLocation(l Location, b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], l.Left)
	binary.LittleEndian.PutUint32(b[4:8], l.Top)
	binary.LittleEndian.PutUint32(b[8:12], l.Right)
	binary.LittleEndian.PutUint32(b[12:16], l.Bottom)
	binary.LittleEndian.PutUint16(b[16:18], l.StringIndex)
	binary.LittleEndian.PutUint16(b[18:20], l.Elevation)
}

// Location returns the slot-index'th location record. index ==
// AnywhereLocation and out-of-range indices return (Location{}, false).
func (f *File) Location(index int) (Location, bool) {
	if index < 0 || index >= LocationsCount || index == AnywhereLocation {
		return Location{}, false
	}
	data, ok := f.FirstChunk(TagLocations)
	if !ok {
		return Location{}, false
	}
	start := index * locationRecordSize
	if start+locationRecordSize > len(data) {
		return Location{}, false
	}
	return decodeLocation(data[start : start+locationRecordSize]), true
}

// SetLocation writes the slot-index'th location record, growing the chunk
// if it is shorter than LocationsCount records.
func (f *File) SetLocation(index int, loc Location) error {
	if index < 0 || index >= LocationsCount || index == AnywhereLocation {
		return capacityErr("location index %d out of range", index)
	}
	data, _ := f.FirstChunk(TagLocations)
	want := LocationsCount * locationRecordSize
	if len(data) < want {
		grown := make([]byte, want)
		copy(grown, data)
		data = grown
	}
	start := index * locationRecordSize
	encodeLocation(loc, data[start:start+locationRecordSize])
	return f.SetFirstChunk(TagLocations, data)
}

// FindLocation returns the index of the first location whose StringIndex
// matches stringIndex, or (0, false) if none does.
func (f *File) FindLocation(stringIndex uint16) (int, bool) {
	for i := 0; i < LocationsCount; i++ {
		loc, ok := f.Location(i)
		if ok && loc.StringIndex == stringIndex {
			return i, true
		}
	}
	return 0, false
}
