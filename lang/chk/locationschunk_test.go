package chk_test

import (
	"testing"

	"github.com/mna/umscript/lang/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetLocationRoundTrips(t *testing.T) {
	f := emptyFile(t)
	loc := chk.Location{Left: 10, Top: 20, Right: 30, Bottom: 40, StringIndex: 3, Elevation: chk.ElevationHigh}
	require.NoError(t, f.SetLocation(5, loc))

	got, ok := f.Location(5)
	require.True(t, ok)
	assert.Equal(t, loc, got)
}

func TestAnywhereLocationIsUnaddressable(t *testing.T) {
	f := emptyFile(t)
	_, ok := f.Location(chk.AnywhereLocation)
	assert.False(t, ok)
	assert.Error(t, f.SetLocation(chk.AnywhereLocation, chk.Location{}))
}

func TestFindLocationByStringIndex(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetLocation(2, chk.Location{StringIndex: 7}))
	idx, ok := f.FindLocation(7)
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = f.FindLocation(99)
	assert.False(t, ok)
}
