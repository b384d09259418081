package chk

import "fmt"

// PlayerCount is the fixed number of player-type slots in the owners
// chunks (OWNR: current owners; IOWN: initial/original owners).
const PlayerCount = 12

// PlayerType is one player's slot state, matching
// original_source/src/libchk/ownrchunk.h's enum.
type PlayerType uint8

const (
	PlayerInactive      PlayerType = 0
	PlayerRescuePassive PlayerType = 3
	PlayerUnused        PlayerType = 4
	PlayerComputer      PlayerType = 5
	PlayerHuman         PlayerType = 6
	PlayerNeutral       PlayerType = 7
)

func (f *File) playerType(tag Tag, playerID int) (PlayerType, bool) {
	if playerID < 0 || playerID >= PlayerCount {
		return 0, false
	}
	data, ok := f.FirstChunk(tag)
	if !ok || playerID >= len(data) {
		return 0, false
	}
	return PlayerType(data[playerID]), true
}

func (f *File) setPlayerType(tag Tag, playerID int, t PlayerType) error {
	if playerID < 0 || playerID >= PlayerCount {
		return fmt.Errorf("chk: player id %d out of range", playerID)
	}
	data, _ := f.FirstChunk(tag)
	if len(data) < PlayerCount {
		grown := make([]byte, PlayerCount)
		copy(grown, data)
		data = grown
	}
	data[playerID] = byte(t)
	return f.SetFirstChunk(tag, data)
}

// OwnerType returns the current (OWNR) player-type slot for playerID.
func (f *File) OwnerType(playerID int) (PlayerType, bool) {
	return f.playerType(TagOwners, playerID)
}

// SetOwnerType sets the current (OWNR) player-type slot for playerID.
func (f *File) SetOwnerType(playerID int, t PlayerType) error {
	return f.setPlayerType(TagOwners, playerID, t)
}

// InitialOwnerType returns the initial (IOWN) player-type slot for
// playerID.
func (f *File) InitialOwnerType(playerID int) (PlayerType, bool) {
	return f.playerType(TagIOwners, playerID)
}

// SetInitialOwnerType sets the initial (IOWN) player-type slot for
// playerID.
func (f *File) SetInitialOwnerType(playerID int, t PlayerType) error {
	return f.setPlayerType(TagIOwners, playerID, t)
}
