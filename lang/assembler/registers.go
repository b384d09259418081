package assembler

import (
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

// DriverPlayer is the fixed player slot every compiler-internal trigger is
// scoped to (spec.md §9: "instructions global to the script run on a
// driver player"). The exact slot is arbitrary; 0 (Player1) is chosen for
// no reason beyond consistency.
const DriverPlayer = 0

// Execution-mask byte values: 2 marks a player slot active for a trigger,
// 0 inactive, the documented TRIG execution-mask convention.
const (
	executionMaskActive   = 2
	executionMaskInactive = 0
)

// Numeric-modifier byte values for actions that carry a "Number Modifier"
// (SetDeaths, SetScore, SetResources, ...), the documented TRIG action
// modifier enumeration.
const (
	ModSetTo    = 7
	ModAdd      = 8
	ModSubtract = 9
)

// Switch-state byte values for ActionSetSwitch's Modifier, including the
// documented "randomize" state real maps use to fake randomness in the
// absence of a native RNG condition.
const (
	SwitchStateSet       = 1
	SwitchStateClear     = 2
	SwitchStateToggle    = 3
	SwitchStateRandomize = 4
)

// regUnit maps an IR register id to the (player, unit-type) pair whose
// death count backs it (spec.md §4.4/§9: "arithmetic is realized using
// modify deaths of a sentinel unit for a sentinel player"). This shadows
// the real death-count semantics of these (player, unit-type) pairs for
// the whole unit-type range 0..unitTypeCount-1, the same constraint real
// trigger-compiled scripts accept (see DESIGN.md).
func regUnit(id int) (player, unitType int) {
	if id < 0 {
		id = 0
	}
	return id % PlayerSlots, id / PlayerSlots
}

func deathsCondition(player, unitType int, cmp chk.ComparisonType, qty int64) chk.TriggerCondition {
	if qty < 0 {
		qty = 0
	}
	return chk.TriggerCondition{
		Group:      uint32(player),
		UnitID:     uint16(unitType),
		Quantity:   uint32(qty),
		Comparison: cmp,
		Condition:  chk.ConditionDeaths,
	}
}

func setDeathsAction(player, unitType int, modifier uint8, amount int64) chk.TriggerAction {
	if amount < 0 {
		amount = 0
	}
	return chk.TriggerAction{
		Group:      uint32(player),
		Arg1:       uint16(unitType),
		Modifier:   modifier,
		Arg0:       uint32(amount),
		ActionType: chk.ActionSetDeaths,
	}
}

// Switch-condition test states, carried in TriggerCondition.Comparison
// when Condition is ConditionSwitch (the same byte the numeric-comparison
// enum uses for quantity conditions, repurposed per
// original_source/src/libchk/triggerschunk.h's "numeric comparison,
// switch state" comment).
const (
	switchConditionSet     chk.ComparisonType = 2
	switchConditionCleared chk.ComparisonType = 3
)

func switchCondition(sw int, set bool) chk.TriggerCondition {
	c := chk.TriggerCondition{Condition: chk.ConditionSwitch, Arg0: uint8(sw)}
	if set {
		c.Comparison = switchConditionSet
	} else {
		c.Comparison = switchConditionCleared
	}
	return c
}

func setSwitchAction(sw int, state uint8) chk.TriggerAction {
	return chk.TriggerAction{Arg0: uint32(sw), Modifier: state, ActionType: chk.ActionSetSwitch}
}

// stackSlotReg is the register id backing operand-stack slot sp
// (0..ir.StackSize-1).
func stackSlotReg(sp int) int {
	return ir.StackBase + sp
}
