package chk

import "encoding/binary"

// CUWPSlotCount is the fixed number of "create unit with properties" slots
// (original_source/src/libchk/cuwpchunk.h / cuwpusedchunk.h).
const CUWPSlotCount = 64

const cuwpSlotSize = 20

// CUWP special-property validity bits for CUWPSlot.ValidSpecialProperties.
const (
	CUWPCloakValid        = 1 << 0
	CUWPBurrowValid       = 1 << 1
	CUWPInTransitValid    = 1 << 2
	CUWPHallucinatedValid = 1 << 3
	CUWPInvincibleValid   = 1 << 4
)

// CUWP data-element validity bits for CUWPSlot.ValidDataElements.
const (
	CUWPOwnerValid          = 1 << 0
	CUWPHitPointsValid      = 1 << 1
	CUWPShieldPointsValid   = 1 << 2
	CUWPEnergyValid         = 1 << 3
	CUWPResourceAmountValid = 1 << 4
	CUWPHangarCountValid    = 1 << 5
)

// CUWP state bits for CUWPSlot.Flags.
const (
	CUWPCloaked      = 1 << 0
	CUWPBurrowed     = 1 << 1
	CUWPInTransit    = 1 << 2
	CUWPHallucinated = 1 << 3
	CUWPInvincible   = 1 << 4
)

// CUWPSlot is one 20-byte entry of the CUWP ("UPRP") chunk: a 16-byte
// header plus a trailing 4-byte unused field the original format reserves
// (original_source/src/libchk/cuwpchunk.h's CUWPSlot::m_Unused). The unit
// type itself is not part of the slot; it travels with the create-unit
// action that references the slot.
type CUWPSlot struct {
	ValidSpecialProperties uint16
	ValidDataElements      uint16
	OwnerID                uint8
	HitPoints              uint8
	ShieldPoints           uint8
	Energy                 uint8
	ResourceAmount         uint32
	HangarCount            uint16
	Flags                  uint16
}

func decodeCUWPSlot(b []byte) CUWPSlot {
	return CUWPSlot{
		ValidSpecialProperties: binary.LittleEndian.Uint16(b[0:2]),
		ValidDataElements:      binary.LittleEndian.Uint16(b[2:4]),
		OwnerID:                b[4],
		HitPoints:              b[5],
		ShieldPoints:           b[6],
		Energy:                 b[7],
		ResourceAmount:         binary.LittleEndian.Uint32(b[8:12]),
		HangarCount:            binary.LittleEndian.Uint16(b[12:14]),
		Flags:                  binary.LittleEndian.Uint16(b[14:16]),
		// b[16:20] unused trailer
	}
}

func encodeCUWPSlot(s CUWPSlot, b []byte) {
	binary.LittleEndian.PutUint16(b[0:2], s.ValidSpecialProperties)
	binary.LittleEndian.PutUint16(b[2:4], s.ValidDataElements)
	b[4] = s.OwnerID
	b[5] = s.HitPoints
	b[6] = s.ShieldPoints
	b[7] = s.Energy
	binary.LittleEndian.PutUint32(b[8:12], s.ResourceAmount)
	binary.LittleEndian.PutUint16(b[12:14], s.HangarCount)
	binary.LittleEndian.PutUint16(b[14:16], s.Flags)
}

// CUWPSlot returns the index'th CUWP slot.
func (f *File) CUWPSlot(index int) (CUWPSlot, bool) {
	if index < 0 || index >= CUWPSlotCount {
		return CUWPSlot{}, false
	}
	data, ok := f.FirstChunk(TagCUWP)
	start := index * cuwpSlotSize
	if !ok || start+cuwpSlotSize > len(data) {
		return CUWPSlot{}, false
	}
	return decodeCUWPSlot(data[start : start+cuwpSlotSize]), true
}

// SetCUWPSlot writes the index'th CUWP slot, growing the chunk to
// CUWPSlotCount slots if it is currently shorter.
func (f *File) SetCUWPSlot(index int, s CUWPSlot) error {
	if index < 0 || index >= CUWPSlotCount {
		return capacityErr("CUWP slot %d out of range", index)
	}
	data, _ := f.FirstChunk(TagCUWP)
	want := CUWPSlotCount * cuwpSlotSize
	if len(data) < want {
		grown := make([]byte, want)
		copy(grown, data)
		data = grown
	}
	start := index * cuwpSlotSize
	encodeCUWPSlot(s, data[start:start+cuwpSlotSize])
	return f.SetFirstChunk(TagCUWP, data)
}

// CUWPUsed reports whether CUWP slot index is marked used in the parallel
// used-slot bitmap ("UPUS" chunk). A missing chunk or out-of-range index
// is treated as used, matching
// original_source/src/libchk/cuwpusedchunk.h's IsUsed.
func (f *File) CUWPUsed(index int) bool {
	if index < 0 || index >= CUWPSlotCount {
		return true
	}
	data, ok := f.FirstChunk(TagCUWPUsed)
	if !ok || index >= len(data) {
		return true
	}
	return data[index] != 0
}

// SetCUWPUsed marks CUWP slot index used or free in the used-slot bitmap.
func (f *File) SetCUWPUsed(index int, used bool) error {
	if index < 0 || index >= CUWPSlotCount {
		return capacityErr("CUWP slot %d out of range", index)
	}
	data, _ := f.FirstChunk(TagCUWPUsed)
	if len(data) < CUWPSlotCount {
		grown := make([]byte, CUWPSlotCount)
		copy(grown, data)
		data = grown
	}
	if used {
		data[index] = 1
	} else {
		data[index] = 0
	}
	return f.SetFirstChunk(TagCUWPUsed, data)
}

// FindFreeCUWPSlot returns the index of the first unused CUWP slot, or
// (0, false) if all CUWPSlotCount slots are used (spec.md §7's Capacity
// failure class).
func (f *File) FindFreeCUWPSlot() (int, bool) {
	for i := 0; i < CUWPSlotCount; i++ {
		if !f.CUWPUsed(i) {
			return i, true
		}
	}
	return 0, false
}
