package assembler

import (
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/ir"
)

func (a *Assembler) assembleSwitch(addr int, ins ir.Instr) error {
	v := icValue(addr)
	switch ins.Op {
	case ir.SETSW:
		return a.emitStep(v, nil, setSwitchAction(ins.Switch, SwitchStateSet), a.advance(addr))

	case ir.CLEARSW:
		return a.emitStep(v, nil, setSwitchAction(ins.Switch, SwitchStateClear), a.advance(addr))

	case ir.JSW:
		set := switchCondition(ins.Switch, true)
		cleared := switchCondition(ins.Switch, false)
		if err := a.emitStep(v, []chk.TriggerCondition{set}, a.icAdvanceAction(jumpTo(ins.Jump))); err != nil {
			return err
		}
		return a.emitStep(v, []chk.TriggerCondition{cleared}, a.advance(addr))

	case ir.JNSW:
		set := switchCondition(ins.Switch, true)
		cleared := switchCondition(ins.Switch, false)
		if err := a.emitStep(v, []chk.TriggerCondition{cleared}, a.icAdvanceAction(jumpTo(ins.Jump))); err != nil {
			return err
		}
		return a.emitStep(v, []chk.TriggerCondition{set}, a.advance(addr))
	}
	return nil
}
