package assembler

import (
	"strconv"

	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

func (a *Assembler) mustPlayer(name string) (int, error) {
	id, ok := lookupPlayer(name)
	if !ok {
		return 0, assemblerErr("unrecognized player %q", name)
	}
	return id, nil
}

func (a *Assembler) mustUnitType(name string) (int, error) {
	id, ok := lookupUnitType(name)
	if !ok {
		return 0, assemblerErr("unrecognized unit type %q", name)
	}
	return id, nil
}

// assembleIntrinsic realizes one of the closed set of engine intrinsic
// actions (spec.md §4.2, lang/lower/calls.go's intrinsics table) as a
// single IC-gated trigger. Most carry a reg-or-imm operand (the lowerer's
// regOrImmArg, spec.md §4.2): ins.Reg == 0 means the literal ins.Imm,
// otherwise the value lives, at runtime, in the always-disposable
// ir.RegScratch1.
func (a *Assembler) assembleIntrinsic(addr int, ins ir.Instr) error {
	switch ins.Op {
	case ir.SPAWN:
		return a.assembleSpawn(addr, ins)
	case ir.KILL:
		return a.assembleKillRemove(addr, ins, chk.ActionKillUnitAt)
	case ir.REMOVE:
		return a.assembleKillRemove(addr, ins, chk.ActionRemoveUnitAt)
	case ir.MOVE:
		return a.assembleMove(addr, ins)
	case ir.ORDER:
		return a.assembleOrder(addr, ins)
	case ir.MODIFY:
		return a.assembleModify(addr, ins)
	case ir.GIVE:
		return a.assembleGive(addr, ins)
	case ir.MOVELOC:
		return a.assembleMoveLoc(addr, ins)
	case ir.PLAYSOUND:
		return a.assemblePlaySound(addr, ins)
	case ir.DISPLAYMSG:
		return a.assembleDisplayMsg(addr, ins)
	case ir.CENTERVIEW:
		return a.assemblePlayerLocation(addr, ins, chk.ActionCenterView)
	case ir.PING:
		return a.assemblePlayerLocation(addr, ins, chk.ActionMinimapPing)
	case ir.SLEEP:
		return a.assembleByteField(addr, ins.Reg, ins.Imm, func(v uint8) chk.TriggerAction {
			return chk.TriggerAction{ActionType: chk.ActionWait, Milliseconds: uint32(v)}
		})
	case ir.SETVISION:
		return a.assembleSetVision(addr, ins)
	case ir.END:
		return a.assembleEnd(addr, ins)

	case ir.SETRESOURCE, ir.ADDRESOURCE, ir.TAKERESOURCE:
		return a.assembleResource(addr, ins)
	case ir.SETSCORE, ir.ADDSCORE, ir.SUBSCORE:
		return a.assembleScore(addr, ins)
	case ir.SETCOUNTDOWN, ir.ADDCOUNTDOWN, ir.SUBCOUNTDOWN:
		return a.assembleCountdown(addr, ins)
	case ir.PAUSECOUNTDOWN, ir.UNPAUSECOUNTDOWN:
		// No native "pause the countdown timer" action is documented in the
		// retrieval pack's TRIG catalog; realized as a no-op advance only.
		return a.emitStep(icValue(addr), nil, a.advance(addr))

	case ir.MUTEUNITSPEECH:
		return a.emitStep(icValue(addr), nil, chk.TriggerAction{ActionType: chk.ActionMuteUnitSpeech}, a.advance(addr))
	case ir.UNMUTEUNITSPEECH:
		return a.emitStep(icValue(addr), nil, chk.TriggerAction{ActionType: chk.ActionUnmuteUnitSpeech}, a.advance(addr))

	case ir.SETDEATHS, ir.ADDDEATHS, ir.REMOVEDEATHS:
		return a.assembleDeathsAction(addr, ins)

	case ir.TALKINGPORTRAIT:
		return a.assembleTalkingPortrait(addr, ins)
	case ir.SETDOODAD:
		return a.assembleUnitToggle(addr, ins, chk.ActionSetDoodadState)
	case ir.SETINVINCIBILITY:
		return a.assembleUnitToggle(addr, ins, chk.ActionSetInvincibility)

	case ir.RUNAISCRIPT:
		return a.assembleRunAIScript(addr, ins)
	case ir.SETALLIANCE:
		return a.assembleSetAlliance(addr, ins)
	case ir.SETMISSIONOBJ:
		return a.assembleStringAction(addr, ins, chk.ActionSetMissionObjectives)
	case ir.PAUSEGAME:
		return a.emitStep(icValue(addr), nil, chk.TriggerAction{ActionType: chk.ActionPauseGame}, a.advance(addr))
	case ir.UNPAUSEGAME:
		return a.emitStep(icValue(addr), nil, chk.TriggerAction{ActionType: chk.ActionUnpauseGame}, a.advance(addr))
	case ir.SETNEXTSCENARIO:
		return a.assembleStringAction(addr, ins, chk.ActionSetNextScenario)

	case ir.SHOWLEADERBOARD:
		return a.assembleLeaderboard(addr, ins, chk.ActionLeaderboardControl)
	case ir.SHOWLEADERBOARDGOAL:
		return a.assembleLeaderboard(addr, ins, chk.ActionLeaderboardGoal)
	case ir.LEADERBOARDSHOWCPU:
		return a.assembleLeaderboardShowCPU(addr, ins)
	}
	return assemblerErr("instruction %s has no trigger realization", ins.Mnemonic())
}

// assembleByteField realizes a reg-or-imm operand that backs a single
// engine byte field with no additive Number Modifier of its own (a unit
// count, a duration, a goal threshold): the literal case is one trigger;
// the register case enumerates the 256 values a byte can hold, one
// trigger per value, the same enumerate-every-combination technique
// assembleRND256 uses for its switch-bit combinations (arithmetic.go).
// Register-valued fields of this kind are therefore capped to 0..255 at
// runtime, a deliberate, documented limitation (DESIGN.md).
func (a *Assembler) assembleByteField(addr int, reg int, imm int64, build func(v uint8) chk.TriggerAction) error {
	v := icValue(addr)
	if reg == 0 {
		return a.emitStep(v, nil, build(uint8(imm)), a.advance(addr))
	}
	p, u := regUnit(reg)
	for n := 0; n < 256; n++ {
		extra := []chk.TriggerCondition{deathsCondition(p, u, chk.ComparisonExactly, int64(n))}
		if err := a.emitStep(v, extra, build(uint8(n)), a.advance(addr)); err != nil {
			return err
		}
	}
	return nil
}

// assembleCounterOp realizes a set/add/subtract-style action whose engine
// action carries a Number Modifier (SetResources, SetScore,
// SetCountdownTimer, SetDeaths): the literal case is one trigger; the
// register case drains ins.Reg (always disposable, see
// lang/lower/calls.go's regOrImmArg) to 0 one unit at a time, applying one
// unit of mod to the target each round, the same destructive
// counting-loop technique arithmetic.go's drainAdd uses. A ModSetTo
// register case first zeroes the target once, then continues as a
// ModAdd drain, since "set to the register's value" is "zero, then add
// it all".
func (a *Assembler) assembleCounterOp(addr int, ins ir.Instr, mod uint8, build func(mod uint8, qty int64) chk.TriggerAction) error {
	v := icValue(addr)
	if ins.Reg == 0 {
		return a.emitStep(v, nil, build(mod, ins.Imm), a.advance(addr))
	}

	p, u := regUnit(ins.Reg)
	start := v
	if mod == ModSetTo {
		if err := a.emitStep(v, nil, build(ModSetTo, 0), a.icAdvanceAction(v+1)); err != nil {
			return err
		}
		start = v + 1
		mod = ModAdd
	}
	zero := deathsCondition(p, u, chk.ComparisonExactly, 0)
	loop := deathsCondition(p, u, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(start, []chk.TriggerCondition{zero}, a.advance(addr)); err != nil {
		return err
	}
	return a.emitStep(start, []chk.TriggerCondition{loop},
		build(mod, 1), setDeathsAction(p, u, ModSubtract, 1), a.icAdvanceAction(start))
}

func counterModifier(op ir.Opcode, set, add, sub ir.Opcode) uint8 {
	switch op {
	case set:
		return ModSetTo
	case sub:
		return ModSubtract
	default:
		return ModAdd
	}
}

func (a *Assembler) assembleResource(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	kind, ok := resourceKindIDs[ins.Resource]
	if !ok {
		return assemblerErr("unrecognized resource kind %q", ins.Resource)
	}
	mod := counterModifier(ins.Op, ir.SETRESOURCE, ir.ADDRESOURCE, ir.TAKERESOURCE)
	return a.assembleCounterOp(addr, ins, mod, func(mod uint8, qty int64) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: chk.ActionSetResources,
			Group:      uint32(player),
			Arg1:       uint16(kind),
			Arg0:       uint32(qty),
			Modifier:   mod,
		}
	})
}

func (a *Assembler) assembleScore(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	kind, ok := scoreKindIDs[ins.Score]
	if !ok {
		return assemblerErr("unrecognized score kind %q", ins.Score)
	}
	mod := counterModifier(ins.Op, ir.SETSCORE, ir.ADDSCORE, ir.SUBSCORE)
	return a.assembleCounterOp(addr, ins, mod, func(mod uint8, qty int64) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: chk.ActionSetScore,
			Group:      uint32(player),
			Arg1:       kind,
			Arg0:       uint32(qty),
			Modifier:   mod,
		}
	})
}

func (a *Assembler) assembleCountdown(addr int, ins ir.Instr) error {
	mod := counterModifier(ins.Op, ir.SETCOUNTDOWN, ir.ADDCOUNTDOWN, ir.SUBCOUNTDOWN)
	return a.assembleCounterOp(addr, ins, mod, func(mod uint8, qty int64) chk.TriggerAction {
		return chk.TriggerAction{ActionType: chk.ActionSetCountdownTimer, Arg0: uint32(qty), Modifier: mod}
	})
}

func (a *Assembler) assembleDeathsAction(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	mod := counterModifier(ins.Op, ir.SETDEATHS, ir.ADDDEATHS, ir.REMOVEDEATHS)
	return a.assembleCounterOp(addr, ins, mod, func(mod uint8, qty int64) chk.TriggerAction {
		return setDeathsAction(player, unit, mod, qty)
	})
}

func (a *Assembler) assembleSpawn(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	var cuwp uint32
	if ins.Reg2 >= 0 {
		cuwp = uint32(ins.Reg2) + 1
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(qty uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: chk.ActionCreateUnit,
			Group:      uint32(player),
			Arg1:       uint16(unit),
			Source:     uint32(loc),
			Arg0:       cuwp,
			Modifier:   qty,
		}
	})
}

func (a *Assembler) assembleKillRemove(addr int, ins ir.Instr, action chk.ActionType) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(qty uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: action,
			Group:      uint32(player),
			Arg1:       uint16(unit),
			Source:     uint32(loc),
			Modifier:   qty,
		}
	})
}

func (a *Assembler) assembleMove(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	src, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	dst, err := a.resolveLocation(ins.Arg)
	if err != nil {
		return err
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(qty uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: chk.ActionMoveUnit,
			Group:      uint32(player),
			Arg1:       uint16(unit),
			Source:     uint32(src),
			Arg0:       uint32(dst),
			Modifier:   qty,
		}
	})
}

// assembleOrder realizes order(player, unitType, src, dst): the source
// language has no order-kind argument (Attack/Patrol/...), so Modifier is
// fixed to 0 ("Move"), a documented approximation (DESIGN.md).
func (a *Assembler) assembleOrder(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	src, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	dst, err := a.resolveLocation(ins.Arg)
	if err != nil {
		return err
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType: chk.ActionOrder,
		Group:      uint32(player),
		Arg1:       uint16(unit),
		Source:     uint32(src),
		Arg0:       uint32(dst),
	}, a.advance(addr))
}

// assembleModify realizes modify(player, unitType, qty, location, target,
// amount): target selects which of the four ModifyX action types runs;
// "HealthShields" folds onto ActionModifyHitPoints since the source
// language has no separate shields target, a documented approximation
// (DESIGN.md). amount is always a compile-time constant (lowerCall
// rejects anything else), stashed by the lowerer as decimal text in
// ins.Score since Instr has only one Reg/Imm pair and qty already claims
// it; it is carried here in Arg0, the only remaining free 32-bit slot.
func (a *Assembler) assembleModify(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	amount, err := strconv.ParseInt(ins.Score, 10, 64)
	if err != nil {
		return assemblerErr("modify: invalid amount %q", ins.Score)
	}
	var action chk.ActionType
	switch ins.ModifyTarget {
	case "HealthShields":
		action = chk.ActionModifyHitPoints
	case "Energy":
		action = chk.ActionModifyEnergy
	case "Hangar":
		action = chk.ActionModifyHangarCount
	case "Resources":
		action = chk.ActionModifyResourceAmount
	default:
		return assemblerErr("unrecognized modify target %q", ins.ModifyTarget)
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(qty uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: action,
			Group:      uint32(player),
			Arg1:       uint16(unit),
			Source:     uint32(loc),
			Arg0:       uint32(amount),
			Modifier:   qty,
		}
	})
}

func (a *Assembler) assembleGive(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	newOwner, err := a.mustPlayer(ins.Arg)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(qty uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: chk.ActionGiveUnits,
			Group:      uint32(player),
			Arg0:       uint32(newOwner),
			Arg1:       uint16(unit),
			Source:     uint32(loc),
			Modifier:   qty,
		}
	})
}

func (a *Assembler) assembleMoveLoc(addr int, ins ir.Instr) error {
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	src, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	dst, err := a.resolveLocation(ins.Arg)
	if err != nil {
		return err
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType: chk.ActionMoveLocation,
		Group:      uint32(player),
		Arg1:       uint16(unit),
		Source:     uint32(src),
		Arg0:       uint32(dst),
	}, a.advance(addr))
}

// assemblePlaySound preserves the lowerer's documented defect (spec.md
// §9's open question, lang/lower/calls.go's actionPlaySound): when a
// duration is given, the player argument is the wav name string again,
// not a real player identifier. lookupPlayer predictably fails on it;
// Group is then left 0 (the Player1 id), the observable effect of the
// original defect rather than a compile error.
func (a *Assembler) assemblePlaySound(addr int, ins ir.Instr) error {
	wav, err := a.File.InsertString(ins.Arg)
	if err != nil {
		return err
	}
	if ins.Player == "" {
		return a.emitStep(icValue(addr), nil, chk.TriggerAction{
			ActionType:     chk.ActionPlayWAV,
			WAVStringIndex: uint32(wav),
		}, a.advance(addr))
	}
	player, _ := lookupPlayer(ins.Player)
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(ms uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType:     chk.ActionPlayWAV,
			WAVStringIndex: uint32(wav),
			Group:          uint32(player),
			Milliseconds:   uint32(ms),
		}
	})
}

func (a *Assembler) assembleDisplayMsg(addr int, ins ir.Instr) error {
	idx, err := a.File.InsertString(ins.Arg)
	if err != nil {
		return err
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType:  chk.ActionDisplayTextMessage,
		TriggerText: uint32(idx),
	}, a.advance(addr))
}

func (a *Assembler) assembleStringAction(addr int, ins ir.Instr, action chk.ActionType) error {
	idx, err := a.File.InsertString(ins.Arg)
	if err != nil {
		return err
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType:  action,
		TriggerText: uint32(idx),
	}, a.advance(addr))
}

func (a *Assembler) assemblePlayerLocation(addr int, ins ir.Instr, action chk.ActionType) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType: action,
		Group:      uint32(player),
		Source:     uint32(loc),
	}, a.advance(addr))
}

// assembleSetVision approximates set_vision(player, on) via Set Alliance
// Status, since the retrieval pack's TRIG catalog has no dedicated vision
// action: "on" shares vision the way an ally would, "off" reverts to the
// enemy default. Documented as an approximation in DESIGN.md.
func (a *Assembler) assembleSetVision(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	on := allianceStatusIDs["Ally"]
	off := allianceStatusIDs["Enemy"]
	build := func(status uint16) chk.TriggerAction {
		return chk.TriggerAction{ActionType: chk.ActionSetAllianceStatus, Group: uint32(player), Arg1: status}
	}
	if ins.Reg == 0 {
		status := off
		if ins.Imm != 0 {
			status = on
		}
		return a.emitStep(icValue(addr), nil, build(status), a.advance(addr))
	}
	v := icValue(addr)
	p, u := regUnit(ins.Reg)
	zero := deathsCondition(p, u, chk.ComparisonExactly, 0)
	nonzero := deathsCondition(p, u, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(v, []chk.TriggerCondition{zero}, build(off), a.advance(addr)); err != nil {
		return err
	}
	return a.emitStep(v, []chk.TriggerCondition{nonzero}, build(on), a.advance(addr))
}

func (a *Assembler) assembleEnd(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	var action chk.ActionType
	switch ins.EndGame {
	case "Victory":
		action = chk.ActionVictory
	case "Defeat", "Draw":
		// "Draw" has no dedicated native action in the retrieval pack's
		// catalog; approximated as Defeat (DESIGN.md).
		action = chk.ActionDefeat
	default:
		return assemblerErr("unrecognized end-game disposition %q", ins.EndGame)
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{ActionType: action, Group: uint32(player)}, a.advance(addr))
}

func (a *Assembler) assembleTalkingPortrait(addr int, ins ir.Instr) error {
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(ms uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType:   chk.ActionTalkingPortrait,
			Arg1:         uint16(unit),
			Milliseconds: uint32(ms),
		}
	})
}

// assembleUnitToggle realizes set_doodad/set_invincibility(player,
// unitType, location, on): the on/off state shares the 1/2
// set/clear convention registers.go's switch-state constants use for
// every other binary toggle in this trigger format.
func (a *Assembler) assembleUnitToggle(addr int, ins ir.Instr, action chk.ActionType) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	unit, err := a.mustUnitType(ins.UnitType)
	if err != nil {
		return err
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	build := func(state uint8) chk.TriggerAction {
		return chk.TriggerAction{
			ActionType: action,
			Group:      uint32(player),
			Arg1:       uint16(unit),
			Source:     uint32(loc),
			Modifier:   state,
		}
	}
	if ins.Reg == 0 {
		state := uint8(SwitchStateClear)
		if ins.Imm != 0 {
			state = SwitchStateSet
		}
		return a.emitStep(icValue(addr), nil, build(state), a.advance(addr))
	}
	v := icValue(addr)
	p, u := regUnit(ins.Reg)
	zero := deathsCondition(p, u, chk.ComparisonExactly, 0)
	nonzero := deathsCondition(p, u, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(v, []chk.TriggerCondition{zero}, build(SwitchStateClear), a.advance(addr)); err != nil {
		return err
	}
	return a.emitStep(v, []chk.TriggerCondition{nonzero}, build(SwitchStateSet), a.advance(addr))
}

// packAIScript encodes a 4-character AI script id as the little-endian
// uint32 the host engine's Arg0 expects, padding short names with zero
// bytes and truncating long ones (the documented 4-character id format).
func packAIScript(s string) uint32 {
	var b [4]byte
	copy(b[:], s)
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func (a *Assembler) assembleRunAIScript(addr int, ins ir.Instr) error {
	script := packAIScript(ins.Arg)
	if ins.Location == "" {
		return a.emitStep(icValue(addr), nil, chk.TriggerAction{
			ActionType: chk.ActionRunAIScript,
			Arg0:       script,
		}, a.advance(addr))
	}
	loc, err := a.resolveLocation(ins.Location)
	if err != nil {
		return err
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType: chk.ActionRunAIScriptAt,
		Arg0:       script,
		Source:     uint32(loc),
	}, a.advance(addr))
}

func (a *Assembler) assembleSetAlliance(addr int, ins ir.Instr) error {
	player, err := a.mustPlayer(ins.Player)
	if err != nil {
		return err
	}
	status, ok := allianceStatusIDs[ins.Alliance]
	if !ok {
		return assemblerErr("unrecognized alliance kind %q", ins.Alliance)
	}
	return a.emitStep(icValue(addr), nil, chk.TriggerAction{
		ActionType: chk.ActionSetAllianceStatus,
		Group:      uint32(player),
		Arg1:       status,
	}, a.advance(addr))
}

// assembleLeaderboard realizes show_leaderboard/show_leaderboard_goal:
// Arg1 carries leaderboardKindIDs' control sub-code (vocab.go's
// documented approximation), Arg0 the optional goal/threshold operand.
func (a *Assembler) assembleLeaderboard(addr int, ins ir.Instr, action chk.ActionType) error {
	kind, ok := leaderboardKindIDs[ins.Leaderboard]
	if !ok {
		return assemblerErr("unrecognized leaderboard kind %q", ins.Leaderboard)
	}
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(qty uint8) chk.TriggerAction {
		return chk.TriggerAction{ActionType: action, Arg1: kind, Arg0: uint32(qty)}
	})
}

func (a *Assembler) assembleLeaderboardShowCPU(addr int, ins ir.Instr) error {
	return a.assembleByteField(addr, ins.Reg, ins.Imm, func(v uint8) chk.TriggerAction {
		state := uint8(SwitchStateClear)
		if v != 0 {
			state = SwitchStateSet
		}
		return chk.TriggerAction{ActionType: chk.ActionLeaderboardControl, Modifier: state}
	})
}
