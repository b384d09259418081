package constfold_test

import (
	"testing"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/constfold"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoldArithmetic(t *testing.T) {
	expr := ast.NewBinaryExpr(0, "+",
		ast.NewNumberLit(0, 2),
		ast.NewBinaryExpr(0, "*", ast.NewNumberLit(0, 3), ast.NewNumberLit(0, 4)))
	got := constfold.Fold(expr)
	num, ok := got.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, int64(14), num.Value)
}

func TestFoldDivisionTruncatesTowardZero(t *testing.T) {
	expr := ast.NewBinaryExpr(0, "/", ast.NewNumberLit(0, -7), ast.NewNumberLit(0, 2))
	got := constfold.Fold(expr).(*ast.NumberLit)
	assert.Equal(t, int64(-3), got.Value)
}

func TestFoldComparisonYieldsZeroOrOne(t *testing.T) {
	eq := constfold.Fold(ast.NewBinaryExpr(0, "==", ast.NewNumberLit(0, 1), ast.NewNumberLit(0, 1))).(*ast.NumberLit)
	assert.Equal(t, int64(1), eq.Value)

	ne := constfold.Fold(ast.NewBinaryExpr(0, "==", ast.NewNumberLit(0, 1), ast.NewNumberLit(0, 2))).(*ast.NumberLit)
	assert.Equal(t, int64(0), ne.Value)
}

func TestFoldLogicalTreatsNonzeroAsTrue(t *testing.T) {
	got := constfold.Fold(ast.NewBinaryExpr(0, "&&", ast.NewNumberLit(0, 5), ast.NewNumberLit(0, 1))).(*ast.NumberLit)
	assert.Equal(t, int64(1), got.Value)
}

func TestFoldStringConcatRightSideFirst(t *testing.T) {
	expr := ast.NewBinaryExpr(0, "+", ast.NewStringLit(0, "world"), ast.NewStringLit(0, "hello "))
	got := constfold.Fold(expr).(*ast.StringLit)
	assert.Equal(t, "hello world", got.Value)
}

func TestFoldUnaryNegateAndNot(t *testing.T) {
	neg := constfold.Fold(ast.NewUnaryExpr(0, "-", ast.NewNumberLit(0, 5), true)).(*ast.NumberLit)
	assert.Equal(t, int64(-5), neg.Value)

	not := constfold.Fold(ast.NewUnaryExpr(0, "!", ast.NewNumberLit(0, 0), true)).(*ast.NumberLit)
	assert.Equal(t, int64(1), not.Value)
}

func TestFoldLeavesNonLiteralOperandsAlone(t *testing.T) {
	expr := ast.NewBinaryExpr(0, "+", ast.NewIdent(0, "x"), ast.NewNumberLit(0, 1))
	got := constfold.Fold(expr)
	bin, ok := got.(*ast.BinaryExpr)
	require.True(t, ok)
	_, identOK := bin.Left.(*ast.Ident)
	assert.True(t, identOK)
}

func TestFoldIfConditionAllowsUnconditionalEmission(t *testing.T) {
	// mirrors the end-to-end scenario: `if (1 == 1) { ... }` reduces the
	// condition to the literal 1.
	cond := ast.NewBinaryExpr(0, "==", ast.NewNumberLit(0, 1), ast.NewNumberLit(0, 1))
	body := ast.NewBlock(0, []ast.Node{ast.NewExprStmt(0, ast.NewCallExpr(0, "print", []ast.Node{ast.NewStringLit(0, "hi")}))})
	ifStmt := ast.NewIfStmt(0, cond, body, nil)

	got := constfold.Fold(ifStmt).(*ast.IfStmt)
	num, ok := got.Cond.(*ast.NumberLit)
	require.True(t, ok)
	assert.Equal(t, int64(1), num.Value)
	assert.Nil(t, got.Else)
}

func TestFoldIsIdempotent(t *testing.T) {
	expr := ast.NewBinaryExpr(0, "+", ast.NewNumberLit(0, 2), ast.NewNumberLit(0, 3))
	once := constfold.Fold(expr)
	twice := constfold.Fold(once)
	assert.Equal(t, once, twice)
}

func TestFoldPostfixIncDecPassesThroughUnfolded(t *testing.T) {
	expr := ast.NewUnaryExpr(0, "++", ast.NewIdent(0, "x"), false)
	got := constfold.Fold(expr).(*ast.UnaryExpr)
	assert.Equal(t, "++", got.Op)
	assert.False(t, got.Prefix)
}
