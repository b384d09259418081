package lower

import (
	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
)

// lowerExpr lowers n and leaves its value on the logical operand stack
// (spec.md §4.2 "Expressions": "pushes operands onto a logical operand
// stack, then emits the operator"). Callers that need the value in a
// register follow up with a POP.
func (l *Lowerer) lowerExpr(n ast.Node) error {
	switch v := n.(type) {
	case *ast.NumberLit:
		l.emit(ir.Instr{Op: ir.PUSH, Imm: v.Value, Node: v})
		return nil

	case *ast.Ident:
		reg, err := l.resolveLValue(v)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.PUSH, Reg: reg, Node: v})
		return nil

	case *ast.ArrayExpr:
		reg, err := l.resolveLValue(v)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.PUSH, Reg: reg, Node: v})
		return nil

	case *ast.StringLit:
		return l.fail(diag.Structural, v, "string literal is not valid in an arithmetic expression context")

	case *ast.UnaryExpr:
		return l.lowerUnary(v)

	case *ast.BinaryExpr:
		return l.lowerBinary(v)

	case *ast.CallExpr:
		return l.lowerCall(v, false)

	default:
		return l.fail(diag.Structural, n, "unexpected node in expression context")
	}
}

// popInto lowers expr and pops its pushed result into a fixed scratch
// register, returning that register's id.
func (l *Lowerer) popInto(expr ast.Node, scratch int) (int, error) {
	if err := l.lowerExpr(expr); err != nil {
		return 0, err
	}
	l.emit(ir.Instr{Op: ir.POP, Reg: scratch})
	return scratch, nil
}

func (l *Lowerer) lowerUnary(v *ast.UnaryExpr) error {
	switch v.Op {
	case "!":
		left, err := l.popInto(v.Operand, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.PUSH, Imm: 1})
		skip := l.emit(ir.Instr{Op: ir.JZ, Reg: left})
		l.emit(ir.Instr{Op: ir.SETSTACKTOP, Imm: 0})
		l.patch(skip, l.here())
		return nil

	case "-":
		left, err := l.popInto(v.Operand, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.SETREG, Reg: ir.RegScratch2, Imm: 0})
		l.emit(ir.Instr{Op: ir.SUB, Reg: ir.RegScratch2, Reg2: left})
		l.emit(ir.Instr{Op: ir.PUSH, Reg: ir.RegScratch2})
		return nil

	case "+":
		return l.lowerExpr(v.Operand)

	case "++", "--":
		reg, err := l.resolveLValue(v.Operand)
		if err != nil {
			return err
		}
		op := ir.INC
		if v.Op == "--" {
			op = ir.DEC
		}
		if v.Prefix {
			l.emit(ir.Instr{Op: op, Reg: reg, Node: v})
			l.emit(ir.Instr{Op: ir.PUSH, Reg: reg})
		} else {
			l.emit(ir.Instr{Op: ir.PUSH, Reg: reg})
			l.emit(ir.Instr{Op: op, Reg: reg, Node: v})
		}
		return nil

	default:
		return l.fail(diag.Structural, v, "unrecognized unary operator %q", v.Op)
	}
}

func (l *Lowerer) lowerBinary(v *ast.BinaryExpr) error {
	switch v.Op {
	case "&&":
		return l.lowerShortCircuit(v, true)
	case "||":
		return l.lowerShortCircuit(v, false)
	case "==", "!=", "<", "<=", ">", ">=":
		return l.lowerComparison(v)
	case "*":
		return l.lowerMul(v)
	case "/":
		return l.lowerDiv(v)
	case "+", "-":
		return l.lowerAddSub(v)
	default:
		return l.fail(diag.Structural, v, "unrecognized binary operator %q", v.Op)
	}
}

// lowerShortCircuit implements && (wantTrueToContinue=true) and ||
// (wantTrueToContinue=false) via the DUP/jump/pop layout spec.md §4.2
// calls for ("emit-expression / jump-if-zero / set-stack-top / jump
// layouts" — DUP here plays the role of peeking the left operand without
// consuming it, so the short-circuited branch can leave it as the final
// stack result unmodified).
func (l *Lowerer) lowerShortCircuit(v *ast.BinaryExpr, isAnd bool) error {
	if err := l.lowerExpr(v.Left); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.DUP, Reg: ir.RegScratch1})
	var shortCircuit int
	if isAnd {
		shortCircuit = l.emit(ir.Instr{Op: ir.JZ, Reg: ir.RegScratch1})
	} else {
		shortCircuit = l.emit(ir.Instr{Op: ir.JNZ, Reg: ir.RegScratch1})
	}
	l.emit(ir.Instr{Op: ir.POP, Reg: ir.RegScratch1})
	if err := l.lowerExpr(v.Right); err != nil {
		return err
	}
	done := l.emit(ir.Instr{Op: ir.JMP})
	l.patch(shortCircuit, l.here())
	l.patch(done, l.here())
	return nil
}

func (l *Lowerer) lowerComparison(v *ast.BinaryExpr) error {
	left, err := l.popInto(v.Left, ir.RegScratch1)
	if err != nil {
		return err
	}
	var reg2 int
	var imm int64
	if lit, ok := v.Right.(*ast.NumberLit); ok {
		imm = lit.Value
	} else {
		reg2, err = l.popInto(v.Right, ir.RegScratch2)
		if err != nil {
			return err
		}
	}

	trueFirst, cmp := comparisonPlan(v.Op)
	l.emit(ir.Instr{Op: ir.PUSH, Imm: boolImm(trueFirst)})
	jmp := l.emit(ir.Instr{Op: ir.JCMP, Reg: left, Reg2: reg2, Imm: imm, Cmp: cmp})
	l.emit(ir.Instr{Op: ir.SETSTACKTOP, Imm: boolImm(!trueFirst)})
	l.patch(jmp, l.here())
	return nil
}

// comparisonPlan returns, for each comparison operator, whether the stack
// should default to "true" before testing the branch condition, and which
// ir.Comparison the fast-path JCMP should test for the branch to mean
// "keep the default".
func comparisonPlan(op string) (defaultTrue bool, cmp ir.Comparison) {
	switch op {
	case "==":
		return true, ir.CmpExactly
	case "!=":
		return false, ir.CmpExactly
	case "<":
		return false, ir.CmpAtLeast
	case "<=":
		return true, ir.CmpAtMost
	case ">":
		return false, ir.CmpAtMost
	case ">=":
		return true, ir.CmpAtLeast
	default:
		return true, ir.CmpExactly
	}
}

func boolImm(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (l *Lowerer) lowerAddSub(v *ast.BinaryExpr) error {
	left, err := l.popInto(v.Left, ir.RegScratch1)
	if err != nil {
		return err
	}
	op := ir.ADD
	if v.Op == "-" {
		op = ir.SUB
	}
	if lit, ok := v.Right.(*ast.NumberLit); ok {
		l.emit(ir.Instr{Op: op, Reg: left, Imm: lit.Value})
	} else {
		right, err := l.popInto(v.Right, ir.RegScratch2)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Reg: left, Reg2: right})
	}
	l.emit(ir.Instr{Op: ir.PUSH, Reg: left})
	return nil
}

// lowerDiv implements spec.md §9's division contract: the IR carries a
// single DIVSTART instruction naming dividend/divisor; the assembler
// (lang/assembler/arithmetic.go) is the one that realizes the countdown-
// subtraction loop as a trigger round-robin sequence, so the IR layer does
// not need to model the loop itself, only the truncating-integer-division
// contract (division by a literal zero is rejected as a semantic error,
// since the source loop would never terminate).
func (l *Lowerer) lowerDiv(v *ast.BinaryExpr) error {
	left, err := l.popInto(v.Left, ir.RegScratch1)
	if err != nil {
		return err
	}
	if lit, ok := v.Right.(*ast.NumberLit); ok {
		if lit.Value == 0 {
			return l.fail(diag.Semantic, v, "division by the constant 0")
		}
		l.emit(ir.Instr{Op: ir.DIVSTART, Reg: left, Imm: lit.Value})
	} else {
		right, err := l.popInto(v.Right, ir.RegScratch2)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.DIVSTART, Reg: left, Reg2: right})
	}
	l.emit(ir.Instr{Op: ir.PUSH, Reg: ir.RegDivQuotient})
	return nil
}

// lowerMul implements spec.md §4.2's multiplication, mirroring
// original_source/src/compiler/ir.cpp's EmitBinaryExpression/Multiply
// branch: a literal operand on either side constant-folds by 0 (push 0,
// the other operand is never materialized, end-to-end scenario 5), by 1
// (identity), by 2 (copy+add), or by any other compile-time constant via
// the MUL opcode's immediate form. When neither operand folds to a
// constant, both are evaluated at runtime and MUL's register form is
// emitted (assembler-realized as a repeated-addition loop, the
// multiplication analogue of DIVSTART's repeated-subtraction loop).
func (l *Lowerer) lowerMul(v *ast.BinaryExpr) error {
	if lit, ok := v.Left.(*ast.NumberLit); ok {
		if _, ok := v.Right.(*ast.NumberLit); !ok {
			return l.lowerMulConst(v.Right, lit, v)
		}
	}
	if lit, ok := v.Right.(*ast.NumberLit); ok {
		return l.lowerMulConst(v.Left, lit, v)
	}
	return l.lowerMulReg(v)
}

// lowerMulConst folds operand * lit, where lit is the compile-time
// constant side of a multiplication and operand is the other (possibly
// also constant, in which case the left-literal path above never reaches
// here — see lowerMul) side.
func (l *Lowerer) lowerMulConst(operand ast.Node, lit *ast.NumberLit, v *ast.BinaryExpr) error {
	switch lit.Value {
	case 0:
		l.emit(ir.Instr{Op: ir.PUSH, Imm: 0, Node: v})
		return nil
	case 1:
		return l.lowerExpr(operand)
	case 2:
		reg, err := l.popInto(operand, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.ADD, Reg: reg, Reg2: reg})
		l.emit(ir.Instr{Op: ir.PUSH, Reg: reg})
		return nil
	default:
		reg, err := l.popInto(operand, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.MUL, Reg: reg, Imm: lit.Value})
		l.emit(ir.Instr{Op: ir.PUSH, Reg: reg})
		return nil
	}
}

// lowerMulReg handles a multiplication where neither operand folds to a
// compile-time constant: both sides are staged into disposable scratch
// registers and MUL's register form is emitted.
func (l *Lowerer) lowerMulReg(v *ast.BinaryExpr) error {
	left, err := l.popInto(v.Left, ir.RegScratch1)
	if err != nil {
		return err
	}
	right, err := l.popInto(v.Right, ir.RegScratch2)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.MUL, Reg: left, Reg2: right})
	l.emit(ir.Instr{Op: ir.PUSH, Reg: left})
	return nil
}
