package assembler

import (
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

// cmpToChk maps the three IR comparison keywords directly onto the
// engine's Deaths-condition comparison byte; both enumerations express
// the same "quantity at least/at most/exactly N" semantics, so the
// mapping is the identity up to naming.
func cmpToChk(cmp ir.Comparison) chk.ComparisonType {
	switch cmp {
	case ir.CmpAtMost:
		return chk.ComparisonAtMost
	case ir.CmpExactly:
		return chk.ComparisonExactly
	default:
		return chk.ComparisonAtLeast
	}
}

// negatedConds returns the condition(s) under which "reg cmp qty" is
// false, as a set of (player,unitType,comparison,quantity) deaths
// conditions any one of which being true means the comparison failed
// (multiple triggers at the same IC value already behave as an OR across
// the program, see assembler.go's doc comment).
func negatedConds(p, u int, cmp ir.Comparison, qty int64) []chk.TriggerCondition {
	switch cmp {
	case ir.CmpAtLeast:
		if qty <= 0 {
			return nil // "< 0" never happens, no fallthrough trigger needed
		}
		return []chk.TriggerCondition{deathsCondition(p, u, chk.ComparisonAtMost, qty-1)}
	case ir.CmpAtMost:
		return []chk.TriggerCondition{deathsCondition(p, u, chk.ComparisonAtLeast, qty+1)}
	default: // ir.CmpExactly
		out := []chk.TriggerCondition{deathsCondition(p, u, chk.ComparisonAtLeast, qty+1)}
		if qty > 0 {
			out = append(out, deathsCondition(p, u, chk.ComparisonAtMost, qty-1))
		}
		return out
	}
}

func (a *Assembler) assembleControl(addr int, ins ir.Instr) error {
	v := icValue(addr)
	switch ins.Op {
	case ir.JMP:
		return a.emitStep(v, nil, a.icAdvanceAction(jumpTo(ins.Jump)))

	case ir.JZ:
		p, u := regUnit(ins.Reg)
		zero := deathsCondition(p, u, chk.ComparisonExactly, 0)
		nonzero := deathsCondition(p, u, chk.ComparisonAtLeast, 1)
		if err := a.emitStep(v, []chk.TriggerCondition{zero}, a.icAdvanceAction(jumpTo(ins.Jump))); err != nil {
			return err
		}
		return a.emitStep(v, []chk.TriggerCondition{nonzero}, a.advance(addr))

	case ir.JNZ:
		p, u := regUnit(ins.Reg)
		zero := deathsCondition(p, u, chk.ComparisonExactly, 0)
		nonzero := deathsCondition(p, u, chk.ComparisonAtLeast, 1)
		if err := a.emitStep(v, []chk.TriggerCondition{nonzero}, a.icAdvanceAction(jumpTo(ins.Jump))); err != nil {
			return err
		}
		return a.emitStep(v, []chk.TriggerCondition{zero}, a.advance(addr))

	case ir.JCMP:
		return a.assembleJCmp(addr, ins)
	}
	return nil
}

func (a *Assembler) assembleJCmp(addr int, ins ir.Instr) error {
	v := icValue(addr)
	p, u := regUnit(ins.Reg)

	if ins.Reg2 == 0 {
		chkCmp := cmpToChk(ins.Cmp)
		trueCond := deathsCondition(p, u, chkCmp, ins.Imm)
		if err := a.emitStep(v, []chk.TriggerCondition{trueCond}, a.icAdvanceAction(jumpTo(ins.Jump))); err != nil {
			return err
		}
		for _, c := range negatedConds(p, u, ins.Cmp, ins.Imm) {
			if err := a.emitStep(v, []chk.TriggerCondition{c}, a.advance(addr)); err != nil {
				return err
			}
		}
		return nil
	}

	// Register-vs-register form: no native way to compare two dynamic
	// trigger-backed values, so decrement both synchronously, one unit at
	// a time, until one (or both) reaches zero, landing in exactly one of
	// three mutually exclusive terminal states.
	rp, ru := regUnit(ins.Reg2)
	both := []chk.TriggerCondition{
		deathsCondition(p, u, chk.ComparisonAtLeast, 1),
		deathsCondition(rp, ru, chk.ComparisonAtLeast, 1),
	}
	if err := a.emitStep(v, both,
		setDeathsAction(p, u, ModSubtract, 1),
		setDeathsAction(rp, ru, ModSubtract, 1),
	); err != nil {
		return err
	}

	equal := []chk.TriggerCondition{
		deathsCondition(p, u, chk.ComparisonExactly, 0),
		deathsCondition(rp, ru, chk.ComparisonExactly, 0),
	}
	// Equal satisfies AtLeast, AtMost and Exactly alike: always jump.
	if err := a.emitStep(v, equal, a.icAdvanceAction(jumpTo(ins.Jump))); err != nil {
		return err
	}

	leftLess := []chk.TriggerCondition{
		deathsCondition(p, u, chk.ComparisonExactly, 0),
		deathsCondition(rp, ru, chk.ComparisonAtLeast, 1),
	}
	leftLessAction := a.advance(addr)
	if ins.Cmp == ir.CmpAtMost {
		leftLessAction = a.icAdvanceAction(jumpTo(ins.Jump))
	}
	if err := a.emitStep(v, leftLess, leftLessAction); err != nil {
		return err
	}

	leftMore := []chk.TriggerCondition{
		deathsCondition(p, u, chk.ComparisonAtLeast, 1),
		deathsCondition(rp, ru, chk.ComparisonExactly, 0),
	}
	leftMoreAction := a.advance(addr)
	if ins.Cmp == ir.CmpAtLeast {
		leftMoreAction = a.icAdvanceAction(jumpTo(ins.Jump))
	}
	return a.emitStep(v, leftMore, leftMoreAction)
}
