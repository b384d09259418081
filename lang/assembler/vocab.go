package assembler

import "github.com/mna/umscript/lang/ir"

// Numeric-id vocabulary for the fixed identifier sets spec.md §6
// describes, mirroring lang/lower/vocab.go's name sets but assigning each
// name the numeric id the host engine's TRIG chunk actually expects,
// instead of lower's plain validity check. Grounded at the same
// community-documented-format tier as lang/chk/triggerschunk.go's
// condition/action tables, since the defining enums.h is not present in
// the retrieval pack; the group/class sentinel ids noted below as
// "approximate" are a deliberate, explicitly-flagged placeholder
// assignment (see DESIGN.md).

// playerIDs maps lower's playerNames set to the engine's 0-based player
// slots (Player1..Player12 -> 0..11) plus the well-known special group
// ids used by conditions/actions that accept a player-group argument.
var playerIDs = map[string]int{
	"Player1": 0, "Player2": 1, "Player3": 2, "Player4": 3,
	"Player5": 4, "Player6": 5, "Player7": 6, "Player8": 7,
	"Player9": 8, "Player10": 9, "Player11": 10, "Player12": 11,

	"CurrentPlayer":  13,
	"Foes":           14,
	"Allies":         15,
	"NeutralPlayers": 18,
	"AllPlayers":     17,
}

// PlayerSlots is the number of real (non-group) player slots.
const PlayerSlots = 12

// unitTypeIDs maps lower's unitTypeNames set to unit-type ids. The
// per-race combat/worker units use the widely-documented StarCraft unit
// id values; the group sentinels (Men, Women, Buildings, Factories,
// None) are assigned placeholder ids in the unused block above the real
// unit range, since their exact original constants are not in the
// retrieval pack (documented in DESIGN.md).
var unitTypeIDs = map[string]int{
	"TerranMarine":    0,
	"TerranGhost":     1,
	"TerranSiegeTank": 5,
	"TerranSCV":       7,

	"ZergZergling":  37,
	"ZergHydralisk": 38,
	"ZergDrone":     41,
	"ZergOverlord":  42,

	"ProtossZealot":   65,
	"ProtossDragoon":  66,
	"ProtossProbe":    64,
	"ProtossCarrier":  72,

	"Men":       200,
	"Women":     201,
	"Buildings": 202,
	"Factories": 203,
	"None":      204,
}

// unitTypeCount bounds the register-backing (player, unit-type) space;
// see registers.go.
const unitTypeCount = 256

var resourceKindIDs = map[string]uint8{
	"Ore":       0,
	"Gas":       1,
	"OreAndGas": 2,
}

var scoreKindIDs = map[string]uint16{
	"Total":             0,
	"Units":             1,
	"Buildings":         2,
	"UnitsAndBuildings": 3,
	"Kills":             4,
	"Razings":           5,
	"KillsAndRazings":   6,
	"Custom":            7,
}

var allianceStatusIDs = map[string]uint16{
	"Enemy":         0,
	"Ally":          1,
	"AlliedVictory": 2,
}

// leaderboardKindIDs map lower's leaderboardKinds to the control-type
// sub-code carried in a leaderboard action's Arg1. "Resources" has no
// direct documented leaderboard action, so it is folded into the
// general-purpose control leaderboard with a distinct sub-code; this is
// flagged as an approximation in DESIGN.md.
var leaderboardKindIDs = map[string]uint16{
	"Points":          0,
	"Kills":           1,
	"Resources":       2,
	"KillsAndRazings": 3,
	"Custom":          4,
	"Greed":           5,
}

// comparisonKeywords maps every accepted spelling of an event condition's
// comparison argument (lang/lower/vocab.go's comparisonSynonyms, stored
// verbatim rather than normalized) to the ir.Comparison it denotes.
var comparisonKeywords = map[string]ir.Comparison{
	"AtLeast": ir.CmpAtLeast, "GreaterOrEquals": ir.CmpAtLeast,
	"AtMost": ir.CmpAtMost, "LessOrEquals": ir.CmpAtMost,
	"Exactly": ir.CmpExactly, "Equals": ir.CmpExactly,
}

func lookupPlayer(name string) (int, bool) {
	id, ok := playerIDs[name]
	return id, ok
}

func lookupUnitType(name string) (int, bool) {
	id, ok := unitTypeIDs[name]
	return id, ok
}
