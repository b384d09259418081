package assembler

import (
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

// spCondition gates a stack-op variant on the current stack pointer value,
// the way assembleRND256 gates each of its 256 variants on a switch
// combination: every sp variant shares the same pair of IC sub-values,
// and the real stack pointer's single value picks out which one actually
// fires each round.
func spCondition(sp int) chk.TriggerCondition {
	p, u := regUnit(ir.RegStackPointer)
	return deathsCondition(p, u, chk.ComparisonExactly, int64(sp))
}

func spDelta(mod uint8, amount int64) chk.TriggerAction {
	p, u := regUnit(ir.RegStackPointer)
	return setDeathsAction(p, u, mod, amount)
}

func (a *Assembler) assembleStack(addr int, ins ir.Instr) error {
	switch ins.Op {
	case ir.PUSH:
		return a.assemblePush(addr, ins)
	case ir.POP:
		return a.assemblePop(addr, ins)
	case ir.DUP:
		return a.assembleDup(addr, ins)
	case ir.SETSTACKTOP:
		return a.assembleSetStackTop(addr, ins)
	}
	return nil
}

// assemblePush realizes pushing ins.Reg (or, if it is the sentinel 0, the
// literal ins.Imm) onto the operand stack, for every possible stack depth
// 0..StackSize-1. Pushing a register must not disturb it: spec.md's
// expression lowering pushes the same variable more than once within a
// single expression (e.g. both operands of an operator derived from the
// same identifier).
func (a *Assembler) assemblePush(addr int, ins ir.Instr) error {
	v := icValue(addr)
	for sp := 0; sp < ir.StackSize; sp++ {
		extra := []chk.TriggerCondition{spCondition(sp)}
		dst := stackSlotReg(sp)
		if ins.Reg == 0 {
			dp, du := regUnit(dst)
			if err := a.emitStep(v, extra, setDeathsAction(dp, du, ModSetTo, ins.Imm), spDelta(ModAdd, 1), a.advance(addr)); err != nil {
				return err
			}
			continue
		}
		if err := a.copyPreserveSrc(v, extra, dst, ins.Reg, ir.RegMultiplier, spDelta(ModAdd, 1), a.advance(addr)); err != nil {
			return err
		}
	}
	return nil
}

// assemblePop realizes popping the operand stack's top value into
// ins.Reg, for every possible stack depth 1..StackSize. The popped slot
// is consumed (it is discarded once read, ordinary stack discipline), so
// a plain destructive drain suffices; ins.Reg itself is zeroed first
// since it may hold a stale value from earlier in the program.
func (a *Assembler) assemblePop(addr int, ins ir.Instr) error {
	v := icValue(addr)
	dp, du := regUnit(ins.Reg)
	for sp := 0; sp < ir.StackSize; sp++ {
		extra := []chk.TriggerCondition{spCondition(sp + 1)}
		src := stackSlotReg(sp)

		zeroV, loopV := v, v+1
		if err := a.emitStep(zeroV, extra, setDeathsAction(dp, du, ModSetTo, 0), a.icAdvanceAction(loopV)); err != nil {
			return err
		}
		if err := a.drainAdd(loopV, extra, ins.Reg, src, false, spDelta(ModSubtract, 1), a.advance(addr)); err != nil {
			return err
		}
	}
	return nil
}

// assembleDup realizes copying the operand stack's top value into ins.Reg
// without consuming it, for every possible stack depth 1..StackSize.
func (a *Assembler) assembleDup(addr int, ins ir.Instr) error {
	v := icValue(addr)
	for sp := 1; sp <= ir.StackSize; sp++ {
		extra := []chk.TriggerCondition{spCondition(sp)}
		src := stackSlotReg(sp - 1)
		if err := a.copyPreserveSrc(v, extra, ins.Reg, src, ir.RegMultiplier, a.advance(addr)); err != nil {
			return err
		}
	}
	return nil
}

// assembleSetStackTop overwrites the operand stack's top slot with the
// literal ins.Imm in place, for every possible stack depth 1..StackSize.
func (a *Assembler) assembleSetStackTop(addr int, ins ir.Instr) error {
	v := icValue(addr)
	for sp := 1; sp <= ir.StackSize; sp++ {
		extra := []chk.TriggerCondition{spCondition(sp)}
		dst := stackSlotReg(sp - 1)
		dp, du := regUnit(dst)
		if err := a.emitStep(v, extra, setDeathsAction(dp, du, ModSetTo, ins.Imm), a.advance(addr)); err != nil {
			return err
		}
	}
	return nil
}
