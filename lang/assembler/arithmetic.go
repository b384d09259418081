package assembler

import (
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

// drainAdd realizes dst += src (or dst -= src when negate) by repeatedly
// moving one unit at a time from src to dst (spec.md §4.2/§9: the lowerer
// always stages both operands of ADD/SUB into disposable scratch
// registers before emitting the instruction, so src is safe to consume
// here). Shares v with any sibling call at the same instruction address:
// the loop and its exit are distinguished by src's own value, not by a
// separate IC sub-step.
func (a *Assembler) drainAdd(v int64, extra []chk.TriggerCondition, dst, src int, negate bool, done ...chk.TriggerAction) error {
	dp, du := regUnit(dst)
	sp, su := regUnit(src)
	mod := ModAdd
	if negate {
		mod = ModSubtract
	}
	loopCond := deathsCondition(sp, su, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(v, cloneConds(extra, loopCond),
		setDeathsAction(dp, du, uint8(mod), 1),
		setDeathsAction(sp, su, ModSubtract, 1),
	); err != nil {
		return err
	}
	doneCond := deathsCondition(sp, su, chk.ComparisonExactly, 0)
	return a.emitStep(v, cloneConds(extra, doneCond), done...)
}

// copyPreserveSrc realizes dst = src without consuming src, using temp as
// scratch space (assumed zero on entry, restored to zero on exit): zero
// dst, drain src into dst and temp together, then drain temp back into
// src. Occupies two IC sub-values (base, base+1), shared across every
// caller at the same base; callers distinguish their own variant, if any,
// with extra conditions.
func (a *Assembler) copyPreserveSrc(base int64, extra []chk.TriggerCondition, dst, src, temp int, done ...chk.TriggerAction) error {
	dp, du := regUnit(dst)
	sp, su := regUnit(src)
	tp, tu := regUnit(temp)

	zeroV, loopV := base, base+1
	if err := a.emitStep(zeroV, extra, setDeathsAction(dp, du, ModSetTo, 0), a.icAdvanceAction(loopV)); err != nil {
		return err
	}

	drainCond := deathsCondition(sp, su, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(loopV, cloneConds(extra, drainCond),
		setDeathsAction(dp, du, ModAdd, 1),
		setDeathsAction(tp, tu, ModAdd, 1),
		setDeathsAction(sp, su, ModSubtract, 1),
	); err != nil {
		return err
	}

	restoreConds := cloneConds(extra,
		deathsCondition(sp, su, chk.ComparisonExactly, 0),
		deathsCondition(tp, tu, chk.ComparisonAtLeast, 1),
	)
	if err := a.emitStep(loopV, restoreConds,
		setDeathsAction(sp, su, ModAdd, 1),
		setDeathsAction(tp, tu, ModSubtract, 1),
	); err != nil {
		return err
	}

	doneConds := cloneConds(extra,
		deathsCondition(sp, su, chk.ComparisonExactly, 0),
		deathsCondition(tp, tu, chk.ComparisonExactly, 0),
	)
	return a.emitStep(loopV, doneConds, done...)
}

func (a *Assembler) assembleArithmetic(addr int, ins ir.Instr) error {
	v := icValue(addr)
	switch ins.Op {
	case ir.SETREG:
		p, u := regUnit(ins.Reg)
		return a.emitStep(v, nil, setDeathsAction(p, u, ModSetTo, ins.Imm), a.advance(addr))

	case ir.INC:
		p, u := regUnit(ins.Reg)
		return a.emitStep(v, nil, setDeathsAction(p, u, ModAdd, 1), a.advance(addr))

	case ir.DEC:
		p, u := regUnit(ins.Reg)
		return a.emitStep(v, nil, setDeathsAction(p, u, ModSubtract, 1), a.advance(addr))

	case ir.NOT:
		p, u := regUnit(ins.Reg)
		zero := deathsCondition(p, u, chk.ComparisonExactly, 0)
		nonzero := deathsCondition(p, u, chk.ComparisonAtLeast, 1)
		if err := a.emitStep(v, []chk.TriggerCondition{zero}, setDeathsAction(p, u, ModSetTo, 1), a.advance(addr)); err != nil {
			return err
		}
		return a.emitStep(v, []chk.TriggerCondition{nonzero}, setDeathsAction(p, u, ModSetTo, 0), a.advance(addr))

	case ir.MOVREG:
		// Dead in practice (lowerAssignment always uses POP instead), kept
		// for hand-assembled programs: a plain register-to-register copy
		// must not disturb the source.
		return a.copyPreserveSrc(v, nil, ins.Reg, ins.Reg2, ir.RegMultiplier, a.advance(addr))

	case ir.ADD, ir.SUB:
		negate := ins.Op == ir.SUB
		if ins.Reg2 == 0 && ins.Reg != 0 {
			// Immediate form: Reg += Imm (or -= Imm), one trigger. Register
			// id 0 is the instruction counter, never a real lowerAddSub
			// operand, so it unambiguously marks "no second register".
			p, u := regUnit(ins.Reg)
			mod := uint8(ModAdd)
			if negate {
				mod = ModSubtract
			}
			return a.emitStep(v, nil, setDeathsAction(p, u, mod, ins.Imm), a.advance(addr))
		}
		if ins.Reg == ins.Reg2 {
			// The one case where ADD's two operands are the same register
			// (lowerMul's self-add for multiplying by 2): drainAdd can't
			// consume a register while also reading it, so fan the value
			// into two accumulators first, then fold them back.
			return a.assembleSelfAdd(addr, ins.Reg)
		}
		return a.drainAdd(v, nil, ins.Reg, ins.Reg2, negate, a.advance(addr))

	case ir.MUL:
		if ins.Reg2 == 0 {
			return a.assembleMulConst(addr, ins)
		}
		return a.assembleMulReg(addr, ins)

	case ir.DIVSTART:
		return a.assembleDivision(addr, ins)
	}
	return nil
}

// assembleSelfAdd realizes dst += dst (MUL by 2): dst's current value is
// fanned out into RegMultiplier and RegScratch2 as it drains to zero, then
// both accumulators are folded back into dst.
func (a *Assembler) assembleSelfAdd(addr int, dst int) error {
	v := icValue(addr)
	dp, du := regUnit(dst)
	mp, mu := regUnit(ir.RegMultiplier)
	sp, su := regUnit(ir.RegScratch2)

	fanV, foldV := v, v+1
	drainDst := deathsCondition(dp, du, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(fanV, []chk.TriggerCondition{drainDst},
		setDeathsAction(mp, mu, ModAdd, 1),
		setDeathsAction(sp, su, ModAdd, 1),
		setDeathsAction(dp, du, ModSubtract, 1),
	); err != nil {
		return err
	}
	dstZero := deathsCondition(dp, du, chk.ComparisonExactly, 0)
	if err := a.emitStep(fanV, []chk.TriggerCondition{dstZero}, a.icAdvanceAction(foldV)); err != nil {
		return err
	}

	foldCond := deathsCondition(sp, su, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(foldV, []chk.TriggerCondition{foldCond},
		setDeathsAction(mp, mu, ModAdd, 1),
		setDeathsAction(sp, su, ModSubtract, 1),
	); err != nil {
		return err
	}
	scratchZero := deathsCondition(sp, su, chk.ComparisonExactly, 0)
	return a.drainAdd(foldV, []chk.TriggerCondition{scratchZero}, dst, ir.RegMultiplier, false, a.advance(addr))
}

// assembleMulConst realizes dst *= n for a compile-time constant n
// (lowerMul folds 0 and 1 away entirely and routes 2 through the self-add
// path, so n here is 3 or more, or a negative literal; any n <= 0 sets dst
// to 0): move dst's operand out to a preserved accumulator, then add a
// fresh disposable copy of it back into dst n times.
func (a *Assembler) assembleMulConst(addr int, ins ir.Instr) error {
	v := icValue(addr)
	if ins.Imm <= 0 {
		p, u := regUnit(ins.Reg)
		return a.emitStep(v, nil, setDeathsAction(p, u, ModSetTo, 0), a.advance(addr))
	}

	dp, du := regUnit(ins.Reg)
	mp, mu := regUnit(ir.RegMultiplier)

	fanV := v
	drainCond := deathsCondition(dp, du, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(fanV, []chk.TriggerCondition{drainCond},
		setDeathsAction(mp, mu, ModAdd, 1),
		setDeathsAction(dp, du, ModSubtract, 1),
	); err != nil {
		return err
	}
	dstZero := deathsCondition(dp, du, chk.ComparisonExactly, 0)
	if err := a.emitStep(fanV, []chk.TriggerCondition{dstZero}, a.icAdvanceAction(v+1)); err != nil {
		return err
	}

	// dst is 0, RegMultiplier holds the original operand. Add a fresh,
	// disposable copy of it into dst Imm times; each round uses 3 IC
	// sub-values (copyPreserveSrc's base/base+1, then the drain itself).
	cur := v + 1
	for i := int64(0); i < ins.Imm; i++ {
		doneAction := a.icAdvanceAction(cur + 3)
		if i == ins.Imm-1 {
			doneAction = a.advance(addr)
		}
		if err := a.copyPreserveSrc(cur, nil, ir.RegScratch2, ir.RegMultiplier, ir.RegDivQuotient, a.icAdvanceAction(cur+2)); err != nil {
			return err
		}
		if err := a.drainAdd(cur+2, nil, ins.Reg, ir.RegScratch2, false, doneAction); err != nil {
			return err
		}
		cur += 3
	}
	return nil
}

// assembleMulReg realizes dst *= mult for a runtime multiplier (neither
// operand constant-folded, lowerMulReg's case): dst's initial value is
// fanned into the stable RegMultiplier accumulator exactly as
// assembleMulConst does, but since the round count isn't known at compile
// time the rounds aren't unrolled — instead the IC loops back to the same
// trigger addresses, once per unit of mult, until mult itself (disposable,
// drained in place) reaches 0. Repeated addition standing in for
// assembleDivision's repeated subtraction. Each round's disposable copy of
// the multiplicand lands in RegMulWork rather than RegScratch2: the
// lowerer always stages MUL's own two operands into RegScratch1/
// RegScratch2, and mult (ins.Reg2) stays alive, counting down, for the
// whole loop, so the round's own scratch space must not alias it.
func (a *Assembler) assembleMulReg(addr int, ins ir.Instr) error {
	v := icValue(addr)
	dp, du := regUnit(ins.Reg)
	mp, mu := regUnit(ir.RegMultiplier)

	fanV := v
	drainCond := deathsCondition(dp, du, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(fanV, []chk.TriggerCondition{drainCond},
		setDeathsAction(mp, mu, ModAdd, 1),
		setDeathsAction(dp, du, ModSubtract, 1),
	); err != nil {
		return err
	}
	dstZero := deathsCondition(dp, du, chk.ComparisonExactly, 0)
	if err := a.emitStep(fanV, []chk.TriggerCondition{dstZero}, a.icAdvanceAction(v+1)); err != nil {
		return err
	}

	// dst is 0, RegMultiplier holds the multiplicand. checkV tests whether
	// any rounds remain; roundStart adds one fresh disposable copy of the
	// multiplicand into dst and drains one unit from the runtime
	// multiplier, then jumps back to checkV.
	multP, multU := regUnit(ins.Reg2)
	checkV, roundStart := v+1, v+2

	moreCond := deathsCondition(multP, multU, chk.ComparisonAtLeast, 1)
	if err := a.emitStep(checkV, []chk.TriggerCondition{moreCond}, a.icAdvanceAction(roundStart)); err != nil {
		return err
	}
	doneCond := deathsCondition(multP, multU, chk.ComparisonExactly, 0)
	if err := a.emitStep(checkV, []chk.TriggerCondition{doneCond}, a.advance(addr)); err != nil {
		return err
	}

	if err := a.copyPreserveSrc(roundStart, nil, ir.RegMulWork, ir.RegMultiplier, ir.RegDivQuotient, a.icAdvanceAction(roundStart+2)); err != nil {
		return err
	}
	return a.drainAdd(roundStart+2, nil, ins.Reg, ir.RegMulWork, false,
		setDeathsAction(multP, multU, ModSubtract, 1),
		a.icAdvanceAction(checkV),
	)
}

// assembleDivision realizes truncating integer division into
// RegDivQuotient by repeated subtraction (spec.md §9). lowerDiv always
// stages the dividend into a disposable scratch register, so it is
// consumed directly. An immediate divisor subtracts itself in bulk each
// round; a register divisor is first drained into a stable accumulator
// (RegMultiplier) since the original register is itself disposable, then
// a fresh disposable copy of that accumulator is subtracted, one unit at
// a time synchronized against the dividend, every round.
func (a *Assembler) assembleDivision(addr int, ins ir.Instr) error {
	v := icValue(addr)
	dvdP, dvdU := regUnit(ins.Reg)
	qP, qU := regUnit(ir.RegDivQuotient)

	if err := a.emitStep(v, nil, setDeathsAction(qP, qU, ModSetTo, 0), a.icAdvanceAction(v+1)); err != nil {
		return err
	}

	if ins.Reg2 == 0 {
		if ins.Imm <= 0 {
			return assemblerErr("division by zero divisor at instruction %d", addr)
		}
		loopV := v + 1
		loopCond := deathsCondition(dvdP, dvdU, chk.ComparisonAtLeast, ins.Imm)
		if err := a.emitStep(loopV, []chk.TriggerCondition{loopCond},
			setDeathsAction(dvdP, dvdU, ModSubtract, ins.Imm),
			setDeathsAction(qP, qU, ModAdd, 1),
		); err != nil {
			return err
		}
		doneCond := deathsCondition(dvdP, dvdU, chk.ComparisonAtMost, ins.Imm-1)
		return a.emitStep(loopV, []chk.TriggerCondition{doneCond}, a.advance(addr))
	}

	mp, mu := regUnit(ir.RegMultiplier)
	workP, workU := regUnit(ir.RegScratch2)

	zeroMultV := v + 1
	if err := a.emitStep(zeroMultV, nil, setDeathsAction(mp, mu, ModSetTo, 0), a.icAdvanceAction(v+2)); err != nil {
		return err
	}
	if err := a.drainAdd(v+2, nil, ir.RegMultiplier, ins.Reg2, false, a.icAdvanceAction(v+3)); err != nil {
		return err
	}

	refillV := v + 3 // occupies v+3, v+4
	subV := v + 5
	if err := a.copyPreserveSrc(refillV, nil, ir.RegScratch2, ir.RegMultiplier, ir.RegScratch1, a.icAdvanceAction(subV)); err != nil {
		return err
	}

	both := []chk.TriggerCondition{
		deathsCondition(dvdP, dvdU, chk.ComparisonAtLeast, 1),
		deathsCondition(workP, workU, chk.ComparisonAtLeast, 1),
	}
	if err := a.emitStep(subV, both,
		setDeathsAction(dvdP, dvdU, ModSubtract, 1),
		setDeathsAction(workP, workU, ModSubtract, 1),
	); err != nil {
		return err
	}

	exactMultiple := []chk.TriggerCondition{
		deathsCondition(dvdP, dvdU, chk.ComparisonExactly, 0),
		deathsCondition(workP, workU, chk.ComparisonExactly, 0),
	}
	if err := a.emitStep(subV, exactMultiple, setDeathsAction(qP, qU, ModAdd, 1), a.advance(addr)); err != nil {
		return err
	}

	remainder := []chk.TriggerCondition{
		deathsCondition(dvdP, dvdU, chk.ComparisonExactly, 0),
		deathsCondition(workP, workU, chk.ComparisonAtLeast, 1),
	}
	if err := a.emitStep(subV, remainder, a.advance(addr)); err != nil {
		return err
	}

	anotherRound := []chk.TriggerCondition{
		deathsCondition(dvdP, dvdU, chk.ComparisonAtLeast, 1),
		deathsCondition(workP, workU, chk.ComparisonExactly, 0),
	}
	return a.emitStep(subV, anotherRound, setDeathsAction(qP, qU, ModAdd, 1), a.icAdvanceAction(refillV))
}

func (a *Assembler) assembleRND256(addr int, ins ir.Instr) error {
	v := icValue(addr)
	p, u := regUnit(ins.Reg)
	for n := 0; n < 256; n++ {
		conds := make([]chk.TriggerCondition, 0, 8)
		for bit := 0; bit < 8; bit++ {
			set := n&(1<<bit) != 0
			conds = append(conds, switchCondition(ir.SwitchRandomBitBase+bit, set))
		}
		if err := a.emitStep(v, conds, setDeathsAction(p, u, ModSetTo, int64(n)), a.advance(addr)); err != nil {
			return err
		}
	}
	return nil
}

// emitRandomToggles installs the always-on background triggers that keep
// the 8 one-bit switches backing RND256 randomized every round, the
// documented "randomize switch" action real maps use in place of a native
// RNG condition.
func (a *Assembler) emitRandomToggles() error {
	for bit := 0; bit < 8; bit++ {
		t := chk.Trigger{ExecutionMask: a.driverMask()}
		t.Conditions[0] = deathsCondition(0, 0, chk.ComparisonAtLeast, 0)
		t.Actions[0] = preserveAction()
		t.Actions[1] = setSwitchAction(ir.SwitchRandomBitBase+bit, SwitchStateRandomize)
		if err := a.commit(t); err != nil {
			return err
		}
	}
	return nil
}
