package chk

import "encoding/binary"

// Tileset identifies the map's terrain set.
type Tileset uint16

const (
	TilesetBadlands Tileset = iota
	TilesetSpacePlatform
	TilesetInstallation
	TilesetAshworld
	TilesetJungle
	TilesetDesert
	TilesetArctic
	TilesetTwilight
)

func (t Tileset) String() string {
	switch t {
	case TilesetBadlands:
		return "Badlands"
	case TilesetSpacePlatform:
		return "SpacePlatform"
	case TilesetInstallation:
		return "Installation"
	case TilesetAshworld:
		return "Ashworld"
	case TilesetJungle:
		return "Jungle"
	case TilesetDesert:
		return "Desert"
	case TilesetArctic:
		return "Arctic"
	case TilesetTwilight:
		return "Twilight"
	default:
		return "UnknownTileset"
	}
}

// TilesetType returns the map's tileset, or (0, false) if the container has
// no ERA chunk. The on-disk value's upper bits are reserved/unused; only
// the low 3 bits select the tileset.
func (f *File) TilesetType() (Tileset, bool) {
	data, ok := f.FirstChunk(TagTileset)
	if !ok || len(data) < 2 {
		return 0, false
	}
	return Tileset(binary.LittleEndian.Uint16(data) & 7), true
}

// SetTilesetType writes the map's tileset.
func (f *File) SetTilesetType(t Tileset) error {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(t)&7)
	return f.SetFirstChunk(TagTileset, buf)
}
