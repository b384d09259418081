package chk

import "encoding/binary"

// WAVSlotCount is the fixed number of string-index slots the WAV chunk
// carries; 0 in a slot means free.
const WAVSlotCount = 512

// WAVStringIndex returns the string-table index stored in WAV slot index,
// or (0, false) if index is out of range.
func (f *File) WAVStringIndex(index int) (uint32, bool) {
	if index < 0 || index >= WAVSlotCount {
		return 0, false
	}
	data, ok := f.FirstChunk(TagWAV)
	start := index * 4
	if !ok || start+4 > len(data) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(data[start : start+4]), true
}

// SetWAVStringIndex writes the string-table index for WAV slot index.
func (f *File) SetWAVStringIndex(index int, stringIndex uint32) error {
	if index < 0 || index >= WAVSlotCount {
		return capacityErr("WAV slot %d out of range", index)
	}
	data, _ := f.FirstChunk(TagWAV)
	want := WAVSlotCount * 4
	if len(data) < want {
		grown := make([]byte, want)
		copy(grown, data)
		data = grown
	}
	start := index * 4
	binary.LittleEndian.PutUint32(data[start:start+4], stringIndex)
	return f.SetFirstChunk(TagWAV, data)
}

// FindFreeWAVSlot returns the index of the first WAV slot whose string
// index is 0 (free), or (0, false) if all WAVSlotCount slots are taken.
func (f *File) FindFreeWAVSlot() (int, bool) {
	for i := 0; i < WAVSlotCount; i++ {
		if v, ok := f.WAVStringIndex(i); ok && v == 0 {
			return i, true
		}
	}
	return 0, false
}
