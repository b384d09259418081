package lower

import "strings"

// Fixed identifier sets (spec.md §6): player names, unit-type names,
// comparison keywords (with accepted synonyms), resource/score/alliance/
// end-game/leaderboard/modify-target keywords. These are intentionally
// small, representative tables rather than the host engine's full
// thousand-entry unit/AI-script catalogs, since the lowerer only needs to
// reject obviously-wrong identifiers at the boundary; the closed-set shape
// itself is what spec.md calls out as a contract, not the table's size.
var playerNames = stringSet(
	"Player1", "Player2", "Player3", "Player4", "Player5", "Player6",
	"Player7", "Player8", "Player9", "Player10", "Player11", "Player12",
	"CurrentPlayer", "Foes", "Allies", "NeutralPlayers", "AllPlayers",
)

var unitTypeNames = stringSet(
	"TerranMarine", "TerranGhost", "TerranSiegeTank", "TerranSCV",
	"ZergZergling", "ZergHydralisk", "ZergDrone", "ZergOverlord",
	"ProtossZealot", "ProtossDragoon", "ProtossProbe", "ProtossCarrier",
	"Men", "Women", "Buildings", "Factories", "None",
)

var resourceKinds = stringSet("Ore", "Gas", "OreAndGas")

var scoreKinds = stringSet(
	"Total", "Units", "Buildings", "UnitsAndBuildings", "Kills", "Razings",
	"KillsAndRazings", "Custom",
)

var allianceKinds = stringSet("Ally", "AlliedVictory", "Enemy")

var endGameKinds = stringSet("Victory", "Defeat", "Draw")

var leaderboardKinds = stringSet(
	"Points", "Kills", "Resources", "KillsAndRazings", "Custom", "Greed",
)

var modifyTargets = stringSet("HealthShields", "Energy", "Hangar", "Resources")

func stringSet(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

// comparisonSynonyms maps every accepted spelling (spec.md §6:
// "AtLeast"/"GreaterOrEquals" etc.) to the canonical ir.Comparison value.
// Declared in this package (rather than lang/ir) because the synonym table
// is a parsing/lowering concern, not part of the IR's own vocabulary.
var comparisonSynonyms = map[string]int{
	"AtLeast": 0, "GreaterOrEquals": 0,
	"AtMost": 1, "LessOrEquals": 1,
	"Exactly": 2, "Equals": 2,
}

func isValidIdent(set map[string]bool, name string) bool {
	return set[strings.TrimSpace(name)]
}
