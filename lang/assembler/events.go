package assembler

import (
	"strconv"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

// collectEvents scans prog for EVNT/COND declaration groups (lang/lower/
// events.go's phaseB) and installs one always-on background trigger per
// event: its conditions test the event's clauses directly against live
// game state, and firing sets the event's switch. poll_events() (lowered
// as SETSW mutex / JNSW-skip / inline body / CLEARSW, see lang/lower/
// calls.go) clears the switch again after handling it, so the flag is
// edge-triggered across polls.
func (a *Assembler) collectEvents(prog ir.Program) error {
	for i := 0; i < len(prog); i++ {
		ins := prog[i]
		if ins.Op != ir.EVNT {
			continue
		}
		n := int(ins.Imm)
		if n > len(chk.Trigger{}.Conditions) {
			return assemblerErr("event has %d conditions, a trigger holds at most %d", n, len(chk.Trigger{}.Conditions))
		}
		t := chk.Trigger{ExecutionMask: a.driverMask()}
		for c := 0; c < n; c++ {
			cond := prog[i+1+c]
			tc, err := a.conditionFromCOND(cond)
			if err != nil {
				return err
			}
			t.Conditions[c] = tc
		}
		t.Actions[0] = preserveAction()
		t.Actions[1] = setSwitchAction(ins.Switch, SwitchStateSet)
		if err := a.commit(t); err != nil {
			return err
		}
		i += n
	}
	return nil
}

// conditionFromCOND translates one declaration-phase COND instruction
// (ir.Instr.Arg = condition kind, ir.Instr.Args = its stringified
// operands, per lang/lower/events.go's lowerEventCondition) into the
// native trigger condition it denotes. The "least_X"/"most_X"/
// "lowest_X"/"highest_X" kinds without a directly corresponding
// comparison-across-all-players condition in the documented format are
// approximated as a plain threshold test on the named player's own value
// (documented in DESIGN.md); "least_commands"/"most_commands" have an
// exact native equivalent and are not approximated.
func (a *Assembler) conditionFromCOND(ins ir.Instr) (chk.TriggerCondition, error) {
	switch ins.Arg {
	case "elapsed_time":
		return numericCondition(ins, chk.ConditionElapsedTime)
	case "countdown":
		return numericCondition(ins, chk.ConditionCountdown)

	case "opponents":
		player, ok := lookupPlayer(ins.Args[0])
		if !ok {
			return chk.TriggerCondition{}, assemblerErr("opponents: unknown player %q", ins.Args[0])
		}
		return chk.TriggerCondition{Condition: chk.ConditionOpponents, Group: uint32(player), Comparison: chk.ComparisonAtLeast, Quantity: 1}, nil

	case "score":
		return playerKindCondition(ins, chk.ConditionScore, scoreKindIDs, 2, 3)
	case "lowest_score":
		return approxPlayerKindCondition(ins, chk.ConditionScore, scoreKindIDs, chk.ComparisonExactly, 0)
	case "highest_score":
		return approxPlayerKindCondition(ins, chk.ConditionScore, scoreKindIDs, chk.ComparisonAtLeast, 1)

	case "accumulated_resources":
		return playerKindCondition(ins, chk.ConditionAccumulate, resourceKindIDs16(), 2, 3)
	case "least_resources":
		return approxPlayerKindCondition(ins, chk.ConditionAccumulate, resourceKindIDs16(), chk.ComparisonExactly, 0)
	case "most_resources":
		return approxPlayerKindCondition(ins, chk.ConditionAccumulate, resourceKindIDs16(), chk.ComparisonAtLeast, 1)

	case "bring":
		return a.bringCondition(ins)
	case "commands":
		return playerUnitNumericCondition(ins, chk.ConditionCommand)
	case "killed":
		return playerUnitNumericCondition(ins, chk.ConditionKills)
	case "deaths":
		return playerUnitNumericCondition(ins, chk.ConditionDeaths)
	case "least_commands":
		return playerUnitCondition(ins, chk.ConditionCommandLeast)
	case "most_commands":
		return playerUnitCondition(ins, chk.ConditionCommandMost)
	case "least_kills":
		return approxPlayerUnitCondition(ins, chk.ConditionKills, chk.ComparisonExactly, 0)
	case "most_kills":
		return approxPlayerUnitCondition(ins, chk.ConditionKills, chk.ComparisonAtLeast, 1)
	}
	return chk.TriggerCondition{}, assemblerErr("unrecognized event condition kind %q", ins.Arg)
}

func resourceKindIDs16() map[string]uint16 {
	m := make(map[string]uint16, len(resourceKindIDs))
	for k, v := range resourceKindIDs {
		m[k] = uint16(v)
	}
	return m
}

func parseQty(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, assemblerErr("invalid quantity %q", s)
	}
	return n, nil
}

// numericCondition handles the (comparison, quantity) shaped conditions
// (elapsed_time, countdown).
func numericCondition(ins ir.Instr, ct chk.ConditionType) (chk.TriggerCondition, error) {
	cmp, ok := comparisonKeywords[ins.Args[0]]
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown comparison %q", ins.Arg, ins.Args[0])
	}
	qty, err := parseQty(ins.Args[1])
	if err != nil {
		return chk.TriggerCondition{}, err
	}
	return chk.TriggerCondition{Condition: ct, Comparison: cmpToChk(cmp), Quantity: uint32(qty)}, nil
}

// playerKindCondition handles (player, kind, comparison, quantity).
func playerKindCondition(ins ir.Instr, ct chk.ConditionType, kinds map[string]uint16, cmpIdx, qtyIdx int) (chk.TriggerCondition, error) {
	player, ok := lookupPlayer(ins.Args[0])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown player %q", ins.Arg, ins.Args[0])
	}
	kind, ok := kinds[ins.Args[1]]
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown kind %q", ins.Arg, ins.Args[1])
	}
	cmp, ok := comparisonKeywords[ins.Args[cmpIdx]]
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown comparison %q", ins.Arg, ins.Args[cmpIdx])
	}
	qty, err := parseQty(ins.Args[qtyIdx])
	if err != nil {
		return chk.TriggerCondition{}, err
	}
	return chk.TriggerCondition{Condition: ct, Group: uint32(player), Arg0: uint8(kind), Comparison: cmpToChk(cmp), Quantity: uint32(qty)}, nil
}

// approxPlayerKindCondition handles the (player, kind) shaped "least_X"/
// "most_X" kinds that have no native cross-player comparison in the
// documented format, degraded to a fixed threshold on the player's own
// value.
func approxPlayerKindCondition(ins ir.Instr, ct chk.ConditionType, kinds map[string]uint16, cmp chk.ComparisonType, qty int64) (chk.TriggerCondition, error) {
	player, ok := lookupPlayer(ins.Args[0])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown player %q", ins.Arg, ins.Args[0])
	}
	kind, ok := kinds[ins.Args[1]]
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown kind %q", ins.Arg, ins.Args[1])
	}
	return chk.TriggerCondition{Condition: ct, Group: uint32(player), Arg0: uint8(kind), Comparison: cmp, Quantity: uint32(qty)}, nil
}

// playerUnitNumericCondition handles (player, comparison, quantity,
// unit-type): bring/commands/killed/deaths.
func playerUnitNumericCondition(ins ir.Instr, ct chk.ConditionType) (chk.TriggerCondition, error) {
	player, ok := lookupPlayer(ins.Args[0])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown player %q", ins.Arg, ins.Args[0])
	}
	cmp, ok := comparisonKeywords[ins.Args[1]]
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown comparison %q", ins.Arg, ins.Args[1])
	}
	qty, err := parseQty(ins.Args[2])
	if err != nil {
		return chk.TriggerCondition{}, err
	}
	unit, ok := lookupUnitType(ins.Args[3])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown unit type %q", ins.Arg, ins.Args[3])
	}
	return chk.TriggerCondition{Condition: ct, Group: uint32(player), UnitID: uint16(unit), Comparison: cmpToChk(cmp), Quantity: uint32(qty)}, nil
}

// playerUnitCondition handles (player, unit-type): least_commands /
// most_commands, which carry no comparison or quantity of their own.
func playerUnitCondition(ins ir.Instr, ct chk.ConditionType) (chk.TriggerCondition, error) {
	player, ok := lookupPlayer(ins.Args[0])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown player %q", ins.Arg, ins.Args[0])
	}
	unit, ok := lookupUnitType(ins.Args[1])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown unit type %q", ins.Arg, ins.Args[1])
	}
	return chk.TriggerCondition{Condition: ct, Group: uint32(player), UnitID: uint16(unit)}, nil
}

func approxPlayerUnitCondition(ins ir.Instr, ct chk.ConditionType, cmp chk.ComparisonType, qty int64) (chk.TriggerCondition, error) {
	player, ok := lookupPlayer(ins.Args[0])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown player %q", ins.Arg, ins.Args[0])
	}
	unit, ok := lookupUnitType(ins.Args[1])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("%s: unknown unit type %q", ins.Arg, ins.Args[1])
	}
	return chk.TriggerCondition{Condition: ct, Group: uint32(player), UnitID: uint16(unit), Comparison: cmp, Quantity: uint32(qty)}, nil
}

// bringCondition handles (player, comparison, quantity, unit-type,
// location).
func (a *Assembler) bringCondition(ins ir.Instr) (chk.TriggerCondition, error) {
	player, ok := lookupPlayer(ins.Args[0])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("bring: unknown player %q", ins.Args[0])
	}
	cmp, ok := comparisonKeywords[ins.Args[1]]
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("bring: unknown comparison %q", ins.Args[1])
	}
	qty, err := parseQty(ins.Args[2])
	if err != nil {
		return chk.TriggerCondition{}, err
	}
	unit, ok := lookupUnitType(ins.Args[3])
	if !ok {
		return chk.TriggerCondition{}, assemblerErr("bring: unknown unit type %q", ins.Args[3])
	}
	loc, err := a.resolveLocation(ins.Args[4])
	if err != nil {
		return chk.TriggerCondition{}, err
	}
	return chk.TriggerCondition{
		Condition:  chk.ConditionBring,
		Group:      uint32(player),
		UnitID:     uint16(unit),
		Comparison: cmpToChk(cmp),
		Quantity:   uint32(qty),
		Location:   uint32(loc),
	}, nil
}

// resolveLocation finds the 1-based location index (chk.TriggerCondition.
// Location / chk.TriggerAction location fields' convention) of the
// location named by a string already present in the map's string table.
func (a *Assembler) resolveLocation(name string) (int, error) {
	sIdx, ok := a.File.FindString(name)
	if !ok {
		return 0, assemblerErr("unknown location %q", name)
	}
	idx, ok := a.File.FindLocation(uint16(sIdx))
	if !ok {
		return 0, assemblerErr("unknown location %q", name)
	}
	return idx + 1, nil
}

func (a *Assembler) assembleUPROP(ins ir.Instr) error {
	switch ins.Op {
	case ir.UPROPSTART:
		if a.pendingCUWP != nil {
			if err := a.pendingCUWP.commit(a.File); err != nil {
				return err
			}
		}
		a.pendingCUWP = &cuwpBuilder{slot: int(ins.Imm)}
	case ir.UPROPFIELD:
		if a.pendingCUWP == nil {
			return assemblerErr("UPROPFIELD %s with no open unit-properties declaration", ins.Arg)
		}
		a.pendingCUWP.setField(ast.UnitPropertiesField(ins.Arg), ins.Imm)
	}
	return nil
}

// cuwpBuilder accumulates one UPROPSTART followed by its UPROPFIELD
// instructions into a chk.CUWPSlot.
type cuwpBuilder struct {
	slot int
	s    chk.CUWPSlot
}

func (b *cuwpBuilder) setField(field ast.UnitPropertiesField, value int64) {
	clampU8 := func(v int64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	switch field {
	case ast.PropHP:
		b.s.ValidDataElements |= chk.CUWPHitPointsValid
		b.s.HitPoints = clampU8(value)
	case ast.PropShields:
		b.s.ValidDataElements |= chk.CUWPShieldPointsValid
		b.s.ShieldPoints = clampU8(value)
	case ast.PropEnergy:
		b.s.ValidDataElements |= chk.CUWPEnergyValid
		b.s.Energy = clampU8(value)
	case ast.PropResourceAmt:
		b.s.ValidDataElements |= chk.CUWPResourceAmountValid
		if value < 0 {
			value = 0
		}
		b.s.ResourceAmount = uint32(value)
	case ast.PropHangarCount:
		b.s.ValidDataElements |= chk.CUWPHangarCountValid
		if value < 0 {
			value = 0
		}
		b.s.HangarCount = uint16(value)
	case ast.PropCloak:
		b.s.ValidSpecialProperties |= chk.CUWPCloakValid
		b.setFlag(chk.CUWPCloaked, value != 0)
	case ast.PropBurrow:
		b.s.ValidSpecialProperties |= chk.CUWPBurrowValid
		b.setFlag(chk.CUWPBurrowed, value != 0)
	case ast.PropInTransit:
		b.s.ValidSpecialProperties |= chk.CUWPInTransitValid
		b.setFlag(chk.CUWPInTransit, value != 0)
	case ast.PropHallucination:
		b.s.ValidSpecialProperties |= chk.CUWPHallucinatedValid
		b.setFlag(chk.CUWPHallucinated, value != 0)
	case ast.PropInvincible:
		b.s.ValidSpecialProperties |= chk.CUWPInvincibleValid
		b.setFlag(chk.CUWPInvincible, value != 0)
	}
}

func (b *cuwpBuilder) setFlag(bit uint16, on bool) {
	if on {
		b.s.Flags |= bit
	} else {
		b.s.Flags &^= bit
	}
}

func (b *cuwpBuilder) commit(f *chk.File) error {
	if err := f.SetCUWPSlot(b.slot, b.s); err != nil {
		return err
	}
	return f.SetCUWPUsed(b.slot, true)
}

// assembleCheckPlayers resolves player presence statically from the
// map's OWNR chunk (spec.md §4.2 phase C): which of the 12 player slots
// are actually playable is known at assembly time, not something the
// compiled program discovers at runtime, so a single bootstrap trigger
// sets SwitchPlayerPresentBase+idx once for every present slot, mirroring
// emitBootstrap's one-shot IC-initialization trigger.
func (a *Assembler) assembleCheckPlayers(addr int, ins ir.Instr) error {
	var actions []chk.TriggerAction
	for idx := 0; idx < PlayerSlots; idx++ {
		owner, _ := a.File.OwnerType(idx)
		if owner != chk.PlayerComputer && owner != chk.PlayerHuman {
			continue
		}
		actions = append(actions, setSwitchAction(ir.SwitchPlayerPresentBase+idx, SwitchStateSet))
	}
	actions = append(actions, a.advance(addr))
	return a.emitStep(icValue(addr), nil, actions...)
}
