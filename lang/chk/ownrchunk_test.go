package chk_test

import (
	"testing"

	"github.com/mna/umscript/lang/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetOwnerTypeRoundTrips(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetOwnerType(0, chk.PlayerHuman))
	require.NoError(t, f.SetOwnerType(1, chk.PlayerComputer))

	p0, ok := f.OwnerType(0)
	require.True(t, ok)
	assert.Equal(t, chk.PlayerHuman, p0)

	p1, ok := f.OwnerType(1)
	require.True(t, ok)
	assert.Equal(t, chk.PlayerComputer, p1)
}

func TestSetOwnerTypeRejectsOutOfRangePlayer(t *testing.T) {
	f := emptyFile(t)
	assert.Error(t, f.SetOwnerType(chk.PlayerCount, chk.PlayerHuman))
}

func TestInitialOwnerTypeIndependentOfOwnerType(t *testing.T) {
	f := emptyFile(t)
	require.NoError(t, f.SetOwnerType(0, chk.PlayerHuman))
	require.NoError(t, f.SetInitialOwnerType(0, chk.PlayerNeutral))

	owner, _ := f.OwnerType(0)
	initial, _ := f.InitialOwnerType(0)
	assert.Equal(t, chk.PlayerHuman, owner)
	assert.Equal(t, chk.PlayerNeutral, initial)
}
