package lower_test

import (
	"testing"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/ir"
	"github.com/mna/umscript/lang/lower"
	"github.com/mna/umscript/lang/regalloc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mainOnly(stmts ...ast.Node) *ast.Unit {
	body := ast.NewBlock(0, stmts)
	main := ast.NewFuncDecl(0, "main", nil, body)
	return ast.NewUnit(0, []ast.Node{main})
}

func newLowerer() *lower.Lowerer {
	return lower.New(regalloc.New(), lower.DefaultLimits, nil)
}

func TestLowerMissingMainFails(t *testing.T) {
	unit := ast.NewUnit(0, nil)
	_, err := newLowerer().Lower(unit)
	require.Error(t, err)
}

func TestLowerEmptyMainEndsWithJumpToStart(t *testing.T) {
	unit := mainOnly()
	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)
	require.NotEmpty(t, prog)
	last := prog[len(prog)-1]
	assert.Equal(t, ir.JMP, last.Op)
	assert.True(t, last.Jump < len(prog))
}

func TestLowerGlobalVarDeclEmitsSetreg(t *testing.T) {
	g := ast.NewVarDecl(0, "score", 1, []ast.Node{ast.NewNumberLit(0, 42)}, true)
	unit := ast.NewUnit(0, []ast.Node{g, ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil))})
	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)
	require.NotEmpty(t, prog)
	assert.Equal(t, ir.SETREG, prog[0].Op)
	assert.Equal(t, int64(42), prog[0].Imm)
	assert.True(t, prog[0].Reg >= ir.UserRegisterBase)
}

func TestLowerLocalVarDeclAssignsAndReads(t *testing.T) {
	decl := ast.NewVarDecl(0, "x", 1, []ast.Node{ast.NewNumberLit(0, 7)}, false)
	assign := ast.NewAssignment(0, ast.NewIdent(0, "x"), ast.NewNumberLit(0, 9))
	unit := mainOnly(decl, assign)
	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)

	var sawInitPop, sawAssignPop bool
	for _, ins := range prog {
		if ins.Op == ir.POP && ins.Reg >= ir.UserRegisterBase {
			if !sawInitPop {
				sawInitPop = true
			} else {
				sawAssignPop = true
			}
		}
	}
	assert.True(t, sawInitPop, "expected a POP for the declaration initializer")
	assert.True(t, sawAssignPop, "expected a POP for the assignment")
}

func TestLowerReturnInMainJumpsToLoopClose(t *testing.T) {
	unit := mainOnly(ast.NewReturnStmt(0, nil))
	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)
	require.NotEmpty(t, prog)

	last := len(prog) - 1
	require.Equal(t, ir.JMP, prog[last].Op, "the tick loop must still close with a jump to its start")

	var sawReturnJump bool
	for i, ins := range prog[:last] {
		if ins.Op == ir.JMP {
			sawReturnJump = true
			assert.Equal(t, last, ins.Jump, "return's jump must land on the loop-closing JMP, index %d", i)
		}
	}
	assert.True(t, sawReturnJump, "expected the return statement to emit a JMP")
}

func TestLowerReturnInMainDoesNotReenterGlobalPreamble(t *testing.T) {
	// A global initializer is lowered in phase A, before CHECKPLAYERS: if a
	// top-level return in main ever jumped back to address 0 instead of the
	// loop-closing JMP, it would re-execute this SETREG every time it fires.
	g := ast.NewVarDecl(0, "score", 1, []ast.Node{ast.NewNumberLit(0, 1)}, true)
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{ast.NewReturnStmt(0, nil)}))
	unit := ast.NewUnit(0, []ast.Node{g, main})

	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)
	require.NotEmpty(t, prog)
	require.Equal(t, ir.SETREG, prog[0].Op, "global initializer must still be the first instruction")

	last := len(prog) - 1
	require.Equal(t, ir.JMP, prog[last].Op)
	for _, ins := range prog[:last] {
		if ins.Op == ir.JMP {
			assert.Equal(t, last, ins.Jump)
			assert.NotEqual(t, 0, ins.Jump, "return must not jump back to the global preamble")
		}
	}
}

func TestLowerArrayAssignmentRequiresConstantIndex(t *testing.T) {
	decl := ast.NewVarDecl(0, "arr", 3, nil, false)
	dynamicIndex := ast.NewIdent(0, "arr") // not a NumberLit, stands in for a runtime expression
	assign := ast.NewAssignment(0, ast.NewArrayExpr(0, "arr", dynamicIndex), ast.NewNumberLit(0, 1))
	unit := mainOnly(decl, assign)
	_, err := newLowerer().Lower(unit)
	require.Error(t, err)
}

func TestLowerArrayAssignmentWithConstantIndex(t *testing.T) {
	decl := ast.NewVarDecl(0, "arr", 3, nil, false)
	assign := ast.NewAssignment(0, ast.NewArrayExpr(0, "arr", ast.NewNumberLit(0, 1)), ast.NewNumberLit(0, 5))
	unit := mainOnly(decl, assign)
	_, err := newLowerer().Lower(unit)
	require.NoError(t, err)
}

func TestLowerRawRegisterBypassesAliasStore(t *testing.T) {
	assign := ast.NewAssignment(0, ast.NewIdent(0, "r3"), ast.NewNumberLit(0, 1))
	unit := mainOnly(assign)
	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)
	var found bool
	for _, ins := range prog {
		if ins.Op == ir.POP && ins.Reg == 3 {
			found = true
		}
	}
	assert.True(t, found, "r3 should address register id 3 directly")
}

func TestLowerIfEmptyBodyFails(t *testing.T) {
	ifs := ast.NewIfStmt(0, ast.NewNumberLit(0, 1), ast.NewBlock(0, nil), nil)
	_, err := newLowerer().Lower(mainOnly(ifs))
	require.Error(t, err)
}

func TestLowerIfElseBranchesBothReachable(t *testing.T) {
	then := ast.NewBlock(0, []ast.Node{ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1))})
	els := ast.NewBlock(0, []ast.Node{ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 2))})
	ifs := ast.NewIfStmt(0, ast.NewNumberLit(0, 1), then, els)
	prog, err := newLowerer().Lower(mainOnly(ifs))
	require.NoError(t, err)

	var jz, jmpBeforeElse bool
	for _, ins := range prog {
		if ins.Op == ir.JZ {
			jz = true
		}
		if ins.Op == ir.JMP && ins.Jump > 0 {
			jmpBeforeElse = true
		}
	}
	assert.True(t, jz)
	assert.True(t, jmpBeforeElse)
}

func TestLowerWhileLoopsBackToCondition(t *testing.T) {
	body := ast.NewBlock(0, []ast.Node{ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1))})
	ws := ast.NewWhileStmt(0, ast.NewNumberLit(0, 1), body)
	prog, err := newLowerer().Lower(mainOnly(ws))
	require.NoError(t, err)

	var backEdge bool
	for i, ins := range prog {
		if ins.Op == ir.JMP && ins.Jump < i {
			backEdge = true
		}
	}
	assert.True(t, backEdge, "while must close with a backward jump")
}

func TestLowerRepeatUnrollsBodyNTimes(t *testing.T) {
	body := ast.NewBlock(0, []ast.Node{ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1))})
	rep := ast.NewRepeatTemplate(0, 3, body)
	prog, err := newLowerer().Lower(mainOnly(rep))
	require.NoError(t, err)

	count := 0
	for _, ins := range prog {
		if ins.Op == ir.POP && ins.Reg == 1 {
			count++
		}
	}
	assert.Equal(t, 3, count)
}

func TestLowerRepeatNegativeCountFails(t *testing.T) {
	rep := ast.NewRepeatTemplate(0, -1, ast.NewBlock(0, nil))
	_, err := newLowerer().Lower(mainOnly(rep))
	require.Error(t, err)
}

func TestLowerUnitPropertiesEmitsUpropStartAndFields(t *testing.T) {
	d := ast.NewUnitPropertiesDecl(0, "marine1", "TerranMarine",
		[]ast.UnitPropertiesField{ast.PropHP, ast.PropShields},
		[]ast.Node{ast.NewNumberLit(0, 40), ast.NewNumberLit(0, 0)})
	unit := ast.NewUnit(0, []ast.Node{d, ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil))})
	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)
	require.True(t, len(prog) >= 3)
	assert.Equal(t, ir.UPROPSTART, prog[0].Op)
	assert.Equal(t, "TerranMarine", prog[0].UnitType)
	assert.Equal(t, ir.UPROPFIELD, prog[1].Op)
	assert.Equal(t, "hp", prog[1].Arg)
	assert.Equal(t, int64(40), prog[1].Imm)
}

func TestLowerUnitPropertiesExhaustsSlots(t *testing.T) {
	l := lower.New(regalloc.New(), lower.Limits{MaxEventConditions: 16, MaxCUWPSlots: 1}, nil)
	decls := []ast.Node{
		ast.NewUnitPropertiesDecl(0, "a", "TerranMarine", nil, nil),
		ast.NewUnitPropertiesDecl(0, "b", "TerranMarine", nil, nil),
		ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil)),
	}
	_, err := l.Lower(ast.NewUnit(0, decls))
	require.Error(t, err)
}

func TestLowerDuplicateFunctionNameFails(t *testing.T) {
	f1 := ast.NewFuncDecl(0, "helper", nil, ast.NewBlock(0, nil))
	f2 := ast.NewFuncDecl(0, "helper", nil, ast.NewBlock(0, nil))
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil))
	_, err := newLowerer().Lower(ast.NewUnit(0, []ast.Node{f1, f2, main}))
	require.Error(t, err)
}

func TestLowerEventAssignsUniqueSwitchIDs(t *testing.T) {
	newCond := func() *ast.EventCondition {
		return ast.NewEventCondition(0, "opponents", []ast.Node{ast.NewIdent(0, "Player1")})
	}
	e1 := ast.NewEventDecl(0, []*ast.EventCondition{newCond()}, ast.NewBlock(0, []ast.Node{
		ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1)),
	}))
	e2 := ast.NewEventDecl(0, []*ast.EventCondition{newCond()}, ast.NewBlock(0, []ast.Node{
		ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 2)),
	}))
	poll := ast.NewExprStmt(0, ast.NewCallExpr(0, "poll_events", nil))
	unit := ast.NewUnit(0, []ast.Node{e1, e2, ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{poll}))})

	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)

	var switches []int
	for _, ins := range prog {
		if ins.Op == ir.EVNT {
			switches = append(switches, ins.Switch)
		}
	}
	require.Len(t, switches, 2)
	assert.NotEqual(t, switches[0], switches[1])
}

func TestLowerEventTooManyConditionsFails(t *testing.T) {
	l := lower.New(regalloc.New(), lower.Limits{MaxEventConditions: 1, MaxCUWPSlots: 64}, nil)
	c1 := ast.NewEventCondition(0, "opponents", []ast.Node{ast.NewIdent(0, "Player1")})
	c2 := ast.NewEventCondition(0, "opponents", []ast.Node{ast.NewIdent(0, "Player2")})
	e := ast.NewEventDecl(0, []*ast.EventCondition{c1, c2}, ast.NewBlock(0, []ast.Node{
		ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1)),
	}))
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil))
	_, err := l.Lower(ast.NewUnit(0, []ast.Node{e, main}))
	require.Error(t, err)
}

func TestLowerEventUnrecognizedConditionFails(t *testing.T) {
	c := ast.NewEventCondition(0, "not_a_real_condition", nil)
	e := ast.NewEventDecl(0, []*ast.EventCondition{c}, ast.NewBlock(0, []ast.Node{
		ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1)),
	}))
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil))
	_, err := newLowerer().Lower(ast.NewUnit(0, []ast.Node{e, main}))
	require.Error(t, err)
}

func TestLowerPollEventsGuardsEachEventWithItsSwitch(t *testing.T) {
	cond := ast.NewEventCondition(0, "opponents", []ast.Node{ast.NewIdent(0, "Player1")})
	e := ast.NewEventDecl(0, []*ast.EventCondition{cond}, ast.NewBlock(0, []ast.Node{
		ast.NewAssignment(0, ast.NewIdent(0, "r1"), ast.NewNumberLit(0, 1)),
	}))
	poll := ast.NewExprStmt(0, ast.NewCallExpr(0, "poll_events", nil))
	unit := ast.NewUnit(0, []ast.Node{e, ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{poll}))})

	prog, err := newLowerer().Lower(unit)
	require.NoError(t, err)

	var sawMutexSet, sawMutexClear, sawJNSW, sawEventClear bool
	for _, ins := range prog {
		switch {
		case ins.Op == ir.SETSW && ins.Switch == ir.SwitchEventsMutex:
			sawMutexSet = true
		case ins.Op == ir.CLEARSW && ins.Switch == ir.SwitchEventsMutex:
			sawMutexClear = true
		case ins.Op == ir.JNSW:
			sawJNSW = true
		case ins.Op == ir.CLEARSW && ins.Switch != ir.SwitchEventsMutex:
			sawEventClear = true
		}
	}
	assert.True(t, sawMutexSet)
	assert.True(t, sawMutexClear)
	assert.True(t, sawJNSW)
	assert.True(t, sawEventClear)
}

func TestLowerExpressionStatementRequiresCall(t *testing.T) {
	stmt := ast.NewExprStmt(0, ast.NewNumberLit(0, 1))
	_, err := newLowerer().Lower(mainOnly(stmt))
	require.Error(t, err)
}

func TestLowerUnrecognizedCallFails(t *testing.T) {
	call := ast.NewExprStmt(0, ast.NewCallExpr(0, "not_a_real_intrinsic", nil))
	_, err := newLowerer().Lower(mainOnly(call))
	require.Error(t, err)
}
