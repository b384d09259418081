// Package assembler implements the trigger assembler (spec.md §4.4, C6):
// it walks a lowered ir.Program and emits chk.Trigger records realizing
// each instruction's effect on the host engine's state, the way the
// teacher's lang/machine package walks a bytecode program and dispatches
// one handler per opcode family, except dispatch here produces trigger
// records instead of interpreting them directly.
//
// Every IR instruction address addr occupies the integer range
// [addr*icStride, addr*icStride+icStride) of "instruction counter" (IC)
// values backed by the deaths of a sentinel unit for a sentinel player
// (registers.go). Instructions whose realization needs more than one
// trigger round (a drain loop, a multi-variant stack access) use the
// extra headroom within their own stride instead of borrowing the next
// instruction's address, so jump targets always land exactly on
// icValue(target).
package assembler

import (
	"fmt"

	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
)

// icStride is the number of IC sub-values reserved per IR instruction
// address, generous headroom for the widest expansion (PUSH/POP's
// per-stack-slot non-destructive copy, spec.md §9).
const icStride = 1024

func icValue(addr int) int64 { return int64(addr) * icStride }

// Assembler holds the map container being built and the bookkeeping a
// single Assemble pass needs.
type Assembler struct {
	File   *chk.File
	Driver int

	pendingCUWP *cuwpBuilder
}

// New returns an Assembler writing triggers and CUWP slots into f.
func New(f *chk.File) *Assembler {
	return &Assembler{File: f, Driver: DriverPlayer}
}

func assemblerErr(format string, args ...interface{}) error {
	return &diag.Error{Kind: diag.Capacity, Msg: fmt.Sprintf(format, args...)}
}

// Assemble realizes prog as triggers (and static CUWP slots) in a.File.
func (a *Assembler) Assemble(prog ir.Program) error {
	start := 0
	for i, ins := range prog {
		if ins.Op == ir.CHECKPLAYERS {
			start = i
			break
		}
	}
	if err := a.emitBootstrap(start); err != nil {
		return err
	}
	if err := a.emitRandomToggles(); err != nil {
		return err
	}
	if err := a.collectEvents(prog); err != nil {
		return err
	}

	for addr, ins := range prog {
		if err := a.dispatch(addr, prog, ins); err != nil {
			return fmt.Errorf("instruction %d (%s): %w", addr, ins.Mnemonic(), err)
		}
	}
	if a.pendingCUWP != nil {
		if err := a.pendingCUWP.commit(a.File); err != nil {
			return err
		}
		a.pendingCUWP = nil
	}
	return nil
}

// emitBootstrap sets the IC register to the program's real entry point
// the first time the map's triggers ever run: the IC backing register
// reads 0 until anything sets it, and address 0 is typically an event or
// CUWP declaration, never something meant to execute.
func (a *Assembler) emitBootstrap(start int) error {
	p, u := regUnit(ir.RegInstructionCounter)
	t := chk.Trigger{ExecutionMask: a.driverMask()}
	t.Conditions[0] = deathsCondition(p, u, chk.ComparisonExactly, 0)
	t.Actions[0] = setDeathsAction(p, u, ModSetTo, icValue(start))
	return a.commit(t)
}

func (a *Assembler) driverMask() [28]byte {
	var m [28]byte
	m[a.Driver] = executionMaskActive
	return m
}

func (a *Assembler) icCondition(v int64) chk.TriggerCondition {
	p, u := regUnit(ir.RegInstructionCounter)
	return deathsCondition(p, u, chk.ComparisonExactly, v)
}

func (a *Assembler) icAdvanceAction(v int64) chk.TriggerAction {
	p, u := regUnit(ir.RegInstructionCounter)
	return setDeathsAction(p, u, ModSetTo, v)
}

func preserveAction() chk.TriggerAction {
	return chk.TriggerAction{ActionType: chk.ActionPreserveTrigger}
}

// newStep builds a one-round trigger gated by IC==v and any extra
// conditions, always preserved and scoped to the driver player.
func (a *Assembler) newStep(v int64, extra []chk.TriggerCondition) (chk.Trigger, error) {
	var t chk.Trigger
	t.ExecutionMask = a.driverMask()
	t.Conditions[0] = a.icCondition(v)
	t.Actions[0] = preserveAction()
	n := 1
	for _, c := range extra {
		if n >= len(t.Conditions) {
			return t, assemblerErr("instruction at IC %d needs more than %d conditions", v, len(t.Conditions))
		}
		t.Conditions[n] = c
		n++
	}
	return t, nil
}

func (a *Assembler) commit(t chk.Trigger) error {
	_, err := a.File.AppendTrigger(t)
	return err
}

// emitStep is the common case: one trigger, IC==v plus extra conditions,
// running actions in order starting right after the Preserve Trigger
// action.
func (a *Assembler) emitStep(v int64, extra []chk.TriggerCondition, actions ...chk.TriggerAction) error {
	t, err := a.newStep(v, extra)
	if err != nil {
		return err
	}
	n := 1
	for _, ac := range actions {
		if n >= len(t.Actions) {
			return assemblerErr("instruction at IC %d needs more than %d actions", v, len(t.Actions))
		}
		t.Actions[n] = ac
		n++
	}
	return a.commit(t)
}

func cloneConds(extra []chk.TriggerCondition, more ...chk.TriggerCondition) []chk.TriggerCondition {
	out := make([]chk.TriggerCondition, 0, len(extra)+len(more))
	out = append(out, extra...)
	out = append(out, more...)
	return out
}

// advance is the final step of a simple (non-looping) instruction: jump
// to the next IR address in program order.
func (a *Assembler) advance(addr int) chk.TriggerAction {
	return a.icAdvanceAction(icValue(addr + 1))
}

// jumpTo renders a control-flow target as its IC value.
func jumpTo(target int) int64 { return icValue(target) }

// dispatch routes one IR instruction to its family handler. Declaration
// opcodes (EVNT/COND, UPROPSTART/UPROPFIELD) are handled entirely by
// collectEvents/the CUWP accumulator before this loop runs and are
// skipped here.
func (a *Assembler) dispatch(addr int, prog ir.Program, ins ir.Instr) error {
	switch ins.Op {
	case ir.EVNT, ir.COND:
		return nil
	case ir.UPROPSTART, ir.UPROPFIELD:
		return a.assembleUPROP(ins)
	case ir.NOP, ir.FUNCSTART:
		return a.emitStep(icValue(addr), nil, a.advance(addr))
	case ir.CHECKPLAYERS:
		return a.assembleCheckPlayers(addr, ins)

	case ir.SETREG, ir.MOVREG, ir.ADD, ir.SUB, ir.MUL, ir.INC, ir.DEC, ir.NOT, ir.DIVSTART:
		return a.assembleArithmetic(addr, ins)
	case ir.RND256:
		return a.assembleRND256(addr, ins)

	case ir.JMP, ir.JZ, ir.JNZ, ir.JCMP:
		return a.assembleControl(addr, ins)

	case ir.SETSW, ir.CLEARSW, ir.JSW, ir.JNSW:
		return a.assembleSwitch(addr, ins)

	case ir.PUSH, ir.POP, ir.DUP, ir.SETSTACKTOP:
		return a.assembleStack(addr, ins)

	default:
		return a.assembleIntrinsic(addr, ins)
	}
}
