package chk_test

import (
	"testing"

	"github.com/mna/umscript/lang/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWAVSlotRoundTrips(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetWAVStringIndex(10, 42))
	v, ok := f.WAVStringIndex(10)
	require.True(t, ok)
	assert.Equal(t, uint32(42), v)
}

func TestFindFreeWAVSlotSkipsTaken(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetWAVStringIndex(0, 1))
	idx, ok := f.FindFreeWAVSlot()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestDimensionsRoundTrip(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetDimensions(128, 96))
	w, h, ok := f.Dimensions()
	require.True(t, ok)
	assert.Equal(t, uint16(128), w)
	assert.Equal(t, uint16(96), h)
}

func TestTilesetTypeRoundTrips(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetTilesetType(chk.TilesetJungle))
	ts, ok := f.TilesetType()
	require.True(t, ok)
	assert.Equal(t, chk.TilesetJungle, ts)
	assert.Equal(t, "Jungle", ts.String())
}
