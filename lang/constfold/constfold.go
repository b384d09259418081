// Package constfold implements the constant evaluator (C7): a recursive
// rewrite over the AST that reduces BinaryExpr/UnaryExpr nodes with
// literal operands to literal nodes in place, the way the teacher's own
// lang/resolver package recursively rewrites an AST into resolved bindings
// without a separate IR for the intermediate pass.
package constfold

import (
	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/token"
)

// Fold returns a structurally-folded copy of n: every BinaryExpr or
// UnaryExpr node whose operands are (after folding) literal NumberLit or
// StringLit nodes is replaced by the literal result, recursively, bottom
// up. Non-expression nodes (statements, declarations) are rebuilt with
// their folded children; nodes with no foldable content are returned
// unchanged.
//
// Fold is idempotent: folding its own output a second time is a no-op,
// since a fully-folded tree contains no BinaryExpr/UnaryExpr over literals
// for Fold to find.
func Fold(n ast.Node) ast.Node {
	if n == nil {
		return nil
	}
	switch v := n.(type) {
	case *ast.Unit:
		return ast.NewUnit(v.Offset(), foldAll(v.Decls))
	case *ast.FuncDecl:
		return ast.NewFuncDecl(v.Offset(), v.Name, v.Params, foldBlock(v.Body))
	case *ast.Block:
		return foldBlock(v)
	case *ast.Assignment:
		return ast.NewAssignment(v.Offset(), Fold(v.Left), Fold(v.Right))
	case *ast.VarDecl:
		return ast.NewVarDecl(v.Offset(), v.Name, v.ArraySize, foldAll(v.Init), v.Global)
	case *ast.IfStmt:
		return ast.NewIfStmt(v.Offset(), Fold(v.Cond), foldBlock(v.Then), foldBlock(v.Else))
	case *ast.WhileStmt:
		return ast.NewWhileStmt(v.Offset(), Fold(v.Cond), foldBlock(v.Body))
	case *ast.ReturnStmt:
		return ast.NewReturnStmt(v.Offset(), Fold(v.Value))
	case *ast.ExprStmt:
		return ast.NewExprStmt(v.Offset(), Fold(v.Expr))
	case *ast.ArrayExpr:
		return ast.NewArrayExpr(v.Offset(), v.Name, Fold(v.Index))
	case *ast.CallExpr:
		return ast.NewCallExpr(v.Offset(), v.Callee, foldAll(v.Args))
	case *ast.UnaryExpr:
		return foldUnary(v)
	case *ast.BinaryExpr:
		return foldBinary(v)
	default:
		// Ident, NumberLit, StringLit, and any other leaf carry nothing to
		// fold.
		return n
	}
}

func foldBlock(b *ast.Block) *ast.Block {
	if b == nil {
		return nil
	}
	return ast.NewBlock(b.Offset(), foldAll(b.Stmts))
}

func foldAll(ns []ast.Node) []ast.Node {
	if ns == nil {
		return nil
	}
	out := make([]ast.Node, len(ns))
	for i, n := range ns {
		out[i] = Fold(n)
	}
	return out
}

func foldUnary(v *ast.UnaryExpr) ast.Node {
	operand := Fold(v.Operand)
	num, ok := operand.(*ast.NumberLit)
	if !ok {
		return ast.NewUnaryExpr(v.Offset(), v.Op, operand, v.Prefix)
	}
	switch v.Op {
	case "!":
		return ast.NewNumberLit(v.Offset(), boolToInt(num.Value == 0))
	case "-":
		return ast.NewNumberLit(v.Offset(), -num.Value)
	case "+":
		return ast.NewNumberLit(v.Offset(), num.Value)
	default:
		// ++/-- mutate a storage location; they are never purely constant
		// (the lowerer needs the resolved register regardless), so they pass
		// through unfolded.
		return ast.NewUnaryExpr(v.Offset(), v.Op, operand, v.Prefix)
	}
}

func foldBinary(v *ast.BinaryExpr) ast.Node {
	left := Fold(v.Left)
	right := Fold(v.Right)

	if ls, lok := left.(*ast.StringLit); lok {
		if rs, rok := right.(*ast.StringLit); rok && v.Op == "+" {
			// Right side first, preserving the source compiler's ordering
			// (spec.md §4.6).
			return ast.NewStringLit(v.Offset(), rs.Value+ls.Value)
		}
	}

	ln, lok := left.(*ast.NumberLit)
	rn, rok := right.(*ast.NumberLit)
	if !lok || !rok {
		return ast.NewBinaryExpr(v.Offset(), v.Op, left, right)
	}
	return foldNumericBinary(v.Offset(), v.Op, ln.Value, rn.Value)
}

func foldNumericBinary(pos token.Pos, op string, l, r int64) ast.Node {
	switch op {
	case "+":
		return ast.NewNumberLit(pos, l+r)
	case "-":
		return ast.NewNumberLit(pos, l-r)
	case "*":
		return ast.NewNumberLit(pos, l*r)
	case "/":
		if r == 0 {
			return ast.NewNumberLit(pos, 0)
		}
		return ast.NewNumberLit(pos, l/r) // Go integer division already truncates toward zero
	case "%":
		if r == 0 {
			return ast.NewNumberLit(pos, 0)
		}
		return ast.NewNumberLit(pos, l%r)
	case "==":
		return ast.NewNumberLit(pos, boolToInt(l == r))
	case "!=":
		return ast.NewNumberLit(pos, boolToInt(l != r))
	case "<":
		return ast.NewNumberLit(pos, boolToInt(l < r))
	case "<=":
		return ast.NewNumberLit(pos, boolToInt(l <= r))
	case ">":
		return ast.NewNumberLit(pos, boolToInt(l > r))
	case ">=":
		return ast.NewNumberLit(pos, boolToInt(l >= r))
	case "&&":
		return ast.NewNumberLit(pos, boolToInt(l != 0 && r != 0))
	case "||":
		return ast.NewNumberLit(pos, boolToInt(l != 0 || r != 0))
	default:
		return ast.NewBinaryExpr(pos, op, ast.NewNumberLit(pos, l), ast.NewNumberLit(pos, r))
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
