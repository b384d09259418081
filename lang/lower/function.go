package lower

import (
	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
)

// phaseA implements spec.md §4.2 phase A: register global variables,
// assign CUWP slots for unit-properties declarations, and index function
// declarations by name. Nothing is emitted for function bodies yet; only
// global state and CUWP markers are.
func (l *Lowerer) phaseA(unit *ast.Unit) error {
	for _, decl := range unit.Decls {
		switch d := decl.(type) {
		case *ast.VarDecl:
			if !d.Global {
				continue
			}
			if err := l.lowerGlobalVarDecl(d); err != nil {
				return err
			}
		case *ast.UnitPropertiesDecl:
			if err := l.lowerUnitProperties(d); err != nil {
				return err
			}
		case *ast.FuncDecl:
			if _, dup := l.funcs[d.Name]; dup {
				return l.fail(diag.Semantic, d, "duplicate function declaration %q", d.Name)
			}
			l.funcs[d.Name] = d
			l.funcOrder = append(l.funcOrder, d.Name)
			// Parameters live in the function's own scope for the whole
			// lowering of its body, regardless of how many call sites inline
			// it, since every inlined copy addresses the same registers (the
			// source contract: functions are not reentrant).
			for _, p := range d.Params {
				l.Regs.Allocate(p, 1, d)
			}
		case *ast.EventDecl:
			// indexed in phase B
		default:
			return l.fail(diag.Structural, decl, "unexpected top-level declaration")
		}
	}
	return nil
}

func (l *Lowerer) lowerGlobalVarDecl(d *ast.VarDecl) error {
	ids := l.Regs.Allocate(d.Name, d.ArraySize, d)
	if len(d.Init) == 0 {
		return nil
	}
	if len(d.Init) != d.ArraySize {
		return l.fail(diag.Semantic, d, "global %q: %d initializers for %d elements", d.Name, len(d.Init), d.ArraySize)
	}
	for i, init := range d.Init {
		lit, ok := init.(*ast.NumberLit)
		if !ok {
			return l.fail(diag.Semantic, d, "global %q: non-literal initializer is not allowed", d.Name)
		}
		l.emit(ir.Instr{Op: ir.SETREG, Reg: realReg(ids[i]), Imm: lit.Value, Node: d})
	}
	return nil
}

func (l *Lowerer) lowerUnitProperties(d *ast.UnitPropertiesDecl) error {
	if l.nextCUWPSlot >= l.Limits.MaxCUWPSlots {
		return l.fail(diag.Capacity, d, "CUWP slots exhausted (limit %d)", l.Limits.MaxCUWPSlots)
	}
	slot := l.nextCUWPSlot
	l.nextCUWPSlot++

	l.emit(ir.Instr{Op: ir.UPROPSTART, Imm: int64(slot), UnitType: d.UnitType, Node: d})
	for i, field := range d.FieldNames {
		lit, ok := d.FieldVals[i].(*ast.NumberLit)
		if !ok {
			return l.fail(diag.Semantic, d, "unit-properties %q field %q: value must be a compile-time constant", d.Name, field)
		}
		l.emit(ir.Instr{Op: ir.UPROPFIELD, Arg: string(field), Imm: lit.Value, Node: d})
	}
	return nil
}
