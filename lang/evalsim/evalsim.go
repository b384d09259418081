// Package evalsim implements a small round-robin evaluator of a compiled
// chk.Trigger table, test-only infrastructure adapted from the teacher's
// lang/machine package: the same "fetch the current dispatchable unit of
// work, apply it, repeat until nothing changes or a runaway guard trips"
// shape as lang/machine.run's fetch-decode-dispatch loop
// (th.steps/th.maxSteps), except the unit of work here is a full pass over
// a trigger table instead of a single bytecode instruction, since a
// StarCraft-like map engine evaluates every active trigger once per game
// second rather than one instruction at a time.
//
// evalsim exists so lang/assembler's tests can check the fixpoint and
// control-flow properties of an assembled program (does the IC-backed
// register sequence of trigger firings implement the intended
// instruction stream, does a drain loop actually reach zero, does a
// switch toggle) without running the Go toolchain against a real map
// engine. It is not a game: it understands exactly the condition/action
// shapes lang/assembler emits, nothing about pathing, combat or any other
// game rule.
package evalsim

import (
	"fmt"

	"github.com/mna/umscript/lang/chk"
)

// unitKey identifies a (player, unit type) pair, the same granularity
// lang/assembler's regUnit uses to back a register with a death count.
type unitKey struct {
	Player, UnitType int
}

// resourceKey identifies a (player, resource kind) counter.
type resourceKey struct {
	Player int
	Kind   uint16
}

// scoreKey identifies a (player, score kind) counter.
type scoreKey struct {
	Player int
	Kind   uint16
}

// condKey identifies one of the non-deaths, non-switch event condition
// kinds lang/assembler/events.go emits (ConditionElapsedTime,
// ConditionScore, ConditionAccumulate, ConditionKills, ConditionCommand,
// ConditionBring, ...). evalsim does not model any of their underlying
// game semantics; it treats each as an opaque named counter a test seeds
// directly through Machine.Counters, compared the same numeric way the
// real condition would be (Comparison against Quantity).
type condKey struct {
	Kind             chk.ConditionType
	Location         uint32
	Group            uint32
	UnitID           uint16
}

// Machine is a round-robin evaluator of a fixed trigger table: every Run
// tick walks the table once, in order, running the actions of every
// trigger whose conditions currently hold. Actions apply immediately, so
// a trigger later in the same tick observes state changes made by an
// earlier one in the same tick, matching a real engine's single-pass,
// unbuffered trigger processing.
type Machine struct {
	Triggers []chk.Trigger

	// Deaths backs every arithmetic register, the operand stack and the
	// instruction counter itself (lang/assembler/registers.go: every one
	// of those is realized as the death count of a sentinel unit for a
	// sentinel player).
	Deaths map[unitKey]int64
	// Switches backs every boolean switch (lang/assembler/switches.go).
	Switches map[int]bool
	// Resources and Score back the corresponding counter intrinsics
	// (lang/assembler/intrinsics.go's assembleResource/assembleScore).
	Resources map[resourceKey]int64
	Score     map[scoreKey]int64
	// Countdown backs the countdown-timer counter intrinsics
	// (assembleCountdown); it is global, not keyed by player.
	Countdown int64
	// Counters backs every other (opaque, test-seeded) event condition; see
	// condKey.
	Counters map[condKey]int64

	// Ended is set once a trigger runs a victory/defeat action; EndAction
	// records which one. A real engine would also stop processing the
	// losing/winning player's remaining triggers, but since every trigger
	// this compiler emits is scoped to the single driver player, ending the
	// run entirely is equivalent.
	Ended     bool
	EndAction chk.ActionType

	// Log records every action actually executed, in execution order,
	// across every tick, for tests that want to assert on an action this
	// Machine does not otherwise interpret (e.g. CreateUnit, KillUnitAt).
	Log []chk.TriggerAction

	// MaxTicks bounds Run the way lang/machine's Thread.maxSteps bounds a
	// single function's execution: a compiled program that never reaches
	// quiescence (a drain loop that never reaches zero because of an
	// assembler bug) would otherwise hang the test forever.
	MaxTicks int

	ticks int
}

// New returns a Machine ready to run triggers, with MaxTicks defaulted to
// a generous but finite bound.
func New(triggers []chk.Trigger) *Machine {
	return &Machine{
		Triggers:  triggers,
		Deaths:    map[unitKey]int64{},
		Switches:  map[int]bool{},
		Resources: map[resourceKey]int64{},
		Score:     map[scoreKey]int64{},
		Counters:  map[condKey]int64{},
		MaxTicks:  1 << 20,
	}
}

// DeathsOf returns the current death count backing (player, unitType),
// the same pair a test derives from an IR register id the way
// lang/assembler/registers.go's regUnit does.
func (m *Machine) DeathsOf(player, unitType int) int64 {
	return m.Deaths[unitKey{player, unitType}]
}

// SetDeathsOf seeds the death count backing (player, unitType) before a
// Run, e.g. to place an initial value in a register or operand-stack
// slot.
func (m *Machine) SetDeathsOf(player, unitType int, v int64) {
	m.Deaths[unitKey{player, unitType}] = v
}

// Ticks reports how many passes over the full trigger table Run
// performed.
func (m *Machine) Ticks() int { return m.ticks }

// Run executes ticks until no trigger's conditions hold in an entire pass
// (quiescence: the program has parked on an IC value nothing advances
// from, either because it finished or because it is legitimately waiting
// on an external event this Machine does not simulate), a victory/defeat
// action runs, or MaxTicks elapses.
func (m *Machine) Run() error {
	for {
		if m.Ended {
			return nil
		}
		m.ticks++
		if m.ticks > m.MaxTicks {
			return fmt.Errorf("evalsim: exceeded %d ticks without reaching quiescence", m.MaxTicks)
		}

		fired := false
		for i := range m.Triggers {
			t := &m.Triggers[i]
			if !m.conditionsHold(t) {
				continue
			}
			fired = true
			m.runActions(t)
			if m.Ended {
				return nil
			}
		}
		if !fired {
			return nil
		}
	}
}

// Step runs exactly one tick (one pass over the trigger table) and
// reports whether any trigger fired, for tests that want to inspect
// intermediate state between rounds instead of running to quiescence.
func (m *Machine) Step() (fired bool, err error) {
	if m.Ended {
		return false, nil
	}
	m.ticks++
	if m.ticks > m.MaxTicks {
		return false, fmt.Errorf("evalsim: exceeded %d ticks without reaching quiescence", m.MaxTicks)
	}
	for i := range m.Triggers {
		t := &m.Triggers[i]
		if !m.conditionsHold(t) {
			continue
		}
		fired = true
		m.runActions(t)
		if m.Ended {
			return fired, nil
		}
	}
	return fired, nil
}

func (m *Machine) conditionsHold(t *chk.Trigger) bool {
	for _, c := range t.Conditions {
		if c.Condition == chk.ConditionNone {
			continue
		}
		if !m.conditionHolds(c) {
			return false
		}
	}
	return true
}

func compare(cmp chk.ComparisonType, got, want int64) bool {
	switch cmp {
	case chk.ComparisonAtMost:
		return got <= want
	case chk.ComparisonExactly:
		return got == want
	default: // ComparisonAtLeast, and the zero value
		return got >= want
	}
}

// switchConditionSet/switchConditionCleared mirror
// lang/assembler/registers.go's repurposing of the numeric-comparison
// byte to carry switch test state when Condition is ConditionSwitch.
const (
	switchConditionSet     chk.ComparisonType = 2
	switchConditionCleared chk.ComparisonType = 3
)

func (m *Machine) conditionHolds(c chk.TriggerCondition) bool {
	switch c.Condition {
	case chk.ConditionAlways:
		return true
	case chk.ConditionNever:
		return false
	case chk.ConditionDeaths:
		got := m.DeathsOf(int(c.Group), int(c.UnitID))
		return compare(c.Comparison, got, int64(c.Quantity))
	case chk.ConditionSwitch:
		set := m.Switches[int(c.Arg0)]
		if c.Comparison == switchConditionCleared {
			return !set
		}
		return set
	default:
		key := condKey{Kind: c.Condition, Location: c.Location, Group: c.Group, UnitID: c.UnitID}
		return compare(c.Comparison, m.Counters[key], int64(c.Quantity))
	}
}

func (m *Machine) runActions(t *chk.Trigger) {
	for _, a := range t.Actions {
		if a.ActionType == chk.ActionNone {
			continue
		}
		m.Log = append(m.Log, a)
		m.runAction(a)
	}
}

func (m *Machine) runAction(a chk.TriggerAction) {
	switch a.ActionType {
	case chk.ActionPreserveTrigger:
		// no-op: every tick re-evaluates every trigger's conditions anyway.
	case chk.ActionSetDeaths:
		applyModifier(m.Deaths, unitKey{int(a.Group), int(a.Arg1)}, a.Modifier, int64(a.Arg0))
	case chk.ActionSetSwitch:
		sw := int(a.Arg0)
		switch a.Modifier {
		case 1: // set
			m.Switches[sw] = true
		case 2: // clear
			m.Switches[sw] = false
		case 3: // toggle
			m.Switches[sw] = !m.Switches[sw]
		case 4: // randomize: deterministic for test purposes
			m.Switches[sw] = true
		}
	case chk.ActionSetResources:
		applyModifier(m.Resources, resourceKey{int(a.Group), a.Arg1}, a.Modifier, int64(a.Arg0))
	case chk.ActionSetScore:
		applyModifier(m.Score, scoreKey{int(a.Group), a.Arg1}, a.Modifier, int64(a.Arg0))
	case chk.ActionSetCountdownTimer:
		switch a.Modifier {
		case 7: // ModSetTo
			m.Countdown = int64(a.Arg0)
		case 9: // ModSubtract
			m.Countdown -= int64(a.Arg0)
		default: // ModAdd
			m.Countdown += int64(a.Arg0)
		}
	case chk.ActionVictory, chk.ActionDefeat:
		m.Ended = true
		m.EndAction = a.ActionType
	default:
		// Every other action (CreateUnit, KillUnitAt, MoveUnit, DisplayTextMessage,
		// ...) has no register-observable effect evalsim tracks; it is still
		// recorded in Log for tests that assert on its exact fields.
	}
}

func applyModifier[K comparable](m map[K]int64, key K, modifier uint8, amount int64) {
	switch modifier {
	case 7: // ModSetTo
		m[key] = amount
	case 9: // ModSubtract
		v := m[key] - amount
		if v < 0 {
			v = 0
		}
		m[key] = v
	default: // ModAdd
		m[key] += amount
	}
}
