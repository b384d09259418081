package lower

import (
	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
)

// phaseC implements spec.md §4.2 phase C: emit the check-players marker,
// then lower main's body; if main's last instruction is not a jump, a
// jump back to the program start closes the engine's tick loop. A
// top-level return in main (original_source/src/compiler/ir.cpp's
// EmitFunction patches this for every function including the entry point)
// jumps to that loop-closing instruction, the same "fall through to the
// end of the body" epilogue lowerUserCall patches returns to for an
// inlined function, rather than re-entering at address 0 and re-running
// whatever preamble (global initializers, unit-properties groups) phase A
// emitted before CHECKPLAYERS.
func (l *Lowerer) phaseC(main *ast.FuncDecl) error {
	l.emit(ir.Instr{Op: ir.CHECKPLAYERS})
	start := l.here()

	savedPatches := l.returnPatches
	l.returnPatches = nil

	if err := l.lowerBlock(main.Body); err != nil {
		return err
	}

	// A pending return forces a dedicated closing jump rather than reusing
	// whatever jump the body's last statement happens to end on (e.g. a
	// while loop's own back-edge, which targets the loop's condition, not
	// the tick's start): returns need an unambiguous "resume the tick"
	// target.
	var loopBack int
	if n := l.here(); len(l.returnPatches) == 0 && n > 0 && ir.IsJump(l.prog[n-1].Op) {
		loopBack = n - 1
	} else {
		loopBack = l.emit(ir.Instr{Op: ir.JMP, Jump: start})
	}

	for _, idx := range l.returnPatches {
		l.patch(idx, loopBack)
	}
	l.returnPatches = savedPatches

	return nil
}

// lowerBlock hoists local declarations to block entry (allocating all
// local names in a first pass) before emitting statements, including
// initializers, in a second pass (spec.md §4.2 "Statements").
func (l *Lowerer) lowerBlock(b *ast.Block) error {
	if b == nil || len(b.Stmts) == 0 {
		return nil
	}
	for _, s := range b.Stmts {
		if vd, ok := s.(*ast.VarDecl); ok && !vd.Global {
			l.Regs.Allocate(vd.Name, vd.ArraySize, vd)
		}
	}
	for _, s := range b.Stmts {
		if err := l.lowerStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowerer) lowerStmt(n ast.Node) error {
	switch v := n.(type) {
	case *ast.VarDecl:
		return l.lowerLocalVarDecl(v)
	case *ast.Assignment:
		return l.lowerAssignment(v)
	case *ast.IfStmt:
		return l.lowerIf(v)
	case *ast.WhileStmt:
		return l.lowerWhile(v)
	case *ast.ReturnStmt:
		return l.lowerReturn(v)
	case *ast.ExprStmt:
		return l.lowerExprStmt(v)
	case *ast.RepeatTemplate:
		return l.lowerRepeat(v)
	case *ast.Block:
		return l.lowerBlock(v)
	default:
		return l.fail(diag.Structural, n, "unexpected statement node")
	}
}

func (l *Lowerer) lowerLocalVarDecl(v *ast.VarDecl) error {
	if len(v.Init) == 0 {
		return nil
	}
	if len(v.Init) != v.ArraySize {
		return l.fail(diag.Semantic, v, "%q: %d initializers for %d elements", v.Name, len(v.Init), v.ArraySize)
	}
	for i, init := range v.Init {
		id, err := l.Regs.GetAlias(v.Name, i, v)
		if err != nil {
			return l.fail(diag.Semantic, v, "%s: %v", v.Name, err)
		}
		if err := l.lowerExpr(init); err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.POP, Reg: realReg(id), Node: v})
	}
	return nil
}

func (l *Lowerer) lowerAssignment(v *ast.Assignment) error {
	switch v.Left.(type) {
	case *ast.Ident, *ast.ArrayExpr:
	default:
		return l.fail(diag.Structural, v, "assignment target must be an identifier or array element")
	}
	reg, err := l.resolveLValue(v.Left)
	if err != nil {
		return err
	}
	if err := l.lowerExpr(v.Right); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.POP, Reg: reg, Node: v})
	return nil
}

func (l *Lowerer) lowerIf(v *ast.IfStmt) error {
	if v.Then == nil || len(v.Then.Stmts) == 0 {
		return l.fail(diag.Semantic, v, "if body must not be empty")
	}
	if err := l.lowerExpr(v.Cond); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.POP, Reg: ir.RegScratch1})
	branch := l.emit(ir.Instr{Op: ir.JZ, Reg: ir.RegScratch1})
	if err := l.lowerBlock(v.Then); err != nil {
		return err
	}
	if v.Else != nil {
		if len(v.Else.Stmts) == 0 {
			return l.fail(diag.Semantic, v, "else body must not be empty")
		}
		skipElse := l.emit(ir.Instr{Op: ir.JMP})
		l.patch(branch, l.here())
		if err := l.lowerBlock(v.Else); err != nil {
			return err
		}
		l.patch(skipElse, l.here())
	} else {
		l.patch(branch, l.here())
	}
	return nil
}

func (l *Lowerer) lowerWhile(v *ast.WhileStmt) error {
	if v.Body == nil || len(v.Body.Stmts) == 0 {
		return l.fail(diag.Semantic, v, "while body must not be empty")
	}
	loopStart := l.here()
	if err := l.lowerExpr(v.Cond); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.POP, Reg: ir.RegScratch1})
	exit := l.emit(ir.Instr{Op: ir.JZ, Reg: ir.RegScratch1})
	if err := l.lowerBlock(v.Body); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.JMP, Jump: loopStart})
	l.patch(exit, l.here())
	return nil
}

// lowerReturn evaluates an optional return value, leaving it pushed on the
// stack, then emits a jump whose target is a sentinel to be patched once
// the enclosing inlined function body's epilogue address is known (see
// calls.go's lowerUserCall).
func (l *Lowerer) lowerReturn(v *ast.ReturnStmt) error {
	if v.Value != nil {
		if err := l.lowerExpr(v.Value); err != nil {
			return err
		}
	}
	idx := l.emit(ir.Instr{Op: ir.JMP, Node: v})
	l.returnPatches = append(l.returnPatches, idx)
	return nil
}

func (l *Lowerer) lowerExprStmt(v *ast.ExprStmt) error {
	call, ok := v.Expr.(*ast.CallExpr)
	if !ok {
		return l.fail(diag.Structural, v, "expression statement must be a function call")
	}
	return l.lowerCall(call, true)
}

// lowerRepeat unrolls a compile-time repetition template Count times,
// lowering the body fresh on each iteration so that any locally declared
// names are reallocated each pass (spec.md's repeat-template is a
// source-level convenience the parser expands into one node per
// occurrence, not pre-unrolled statements).
func (l *Lowerer) lowerRepeat(v *ast.RepeatTemplate) error {
	if v.Count < 0 {
		return l.fail(diag.Semantic, v, "repeat count must not be negative")
	}
	for i := 0; i < v.Count; i++ {
		if err := l.lowerBlock(v.Body); err != nil {
			return err
		}
	}
	return nil
}
