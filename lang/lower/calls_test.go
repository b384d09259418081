package lower_test

import (
	"testing"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func num(v int64) *ast.NumberLit { return ast.NewNumberLit(0, v) }
func id(name string) *ast.Ident  { return ast.NewIdent(0, name) }
func str(v string) *ast.StringLit { return ast.NewStringLit(0, v) }

func TestLowerIntrinsicSpawn(t *testing.T) {
	call := ast.NewCallExpr(0, "spawn", []ast.Node{
		id("Player1"), id("TerranMarine"), num(5), str("MyLocation"),
	})
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)

	var ins *ir.Instr
	for i := range prog {
		if prog[i].Op == ir.SPAWN {
			ins = &prog[i]
		}
	}
	require.NotNil(t, ins)
	assert.Equal(t, "Player1", ins.Player)
	assert.Equal(t, "TerranMarine", ins.UnitType)
	assert.Equal(t, int64(5), ins.Imm)
	assert.Equal(t, "MyLocation", ins.Location)
	assert.Equal(t, -1, ins.Reg2)
}

func TestLowerIntrinsicSpawnWithSlot(t *testing.T) {
	call := ast.NewCallExpr(0, "spawn", []ast.Node{
		id("Player1"), id("TerranMarine"), num(1), str("MyLocation"), num(3),
	})
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)
	var ins *ir.Instr
	for i := range prog {
		if prog[i].Op == ir.SPAWN {
			ins = &prog[i]
		}
	}
	require.NotNil(t, ins)
	assert.Equal(t, 3, ins.Reg2)
}

func TestLowerIntrinsicUnrecognizedPlayerFails(t *testing.T) {
	call := ast.NewCallExpr(0, "spawn", []ast.Node{
		id("NotAPlayer"), id("TerranMarine"), num(1), str("Loc"),
	})
	_, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.Error(t, err)
}

func TestLowerIntrinsicWrongArgCountFails(t *testing.T) {
	call := ast.NewCallExpr(0, "spawn", []ast.Node{id("Player1")})
	_, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.Error(t, err)
}

func TestLowerIntrinsicSetScore(t *testing.T) {
	call := ast.NewCallExpr(0, "set_score", []ast.Node{id("Player1"), id("Total"), num(100)})
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)
	var found bool
	for _, ins := range prog {
		if ins.Op == ir.SETSCORE {
			found = true
			assert.Equal(t, "Player1", ins.Player)
			assert.Equal(t, "Total", ins.Score)
			assert.Equal(t, int64(100), ins.Imm)
		}
	}
	assert.True(t, found)
}

func TestLowerIntrinsicNoArgActions(t *testing.T) {
	for _, name := range []string{"pause_game", "unpause_game", "pause_countdown", "mute_unit_speech"} {
		call := ast.NewCallExpr(0, name, nil)
		_, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
		assert.NoError(t, err, name)
	}
}

func TestLowerIntrinsicPrint(t *testing.T) {
	call := ast.NewCallExpr(0, "print", []ast.Node{str("hello")})
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)
	var found bool
	for _, ins := range prog {
		if ins.Op == ir.DISPLAYMSG {
			found = true
			assert.Equal(t, "hello", ins.Arg)
		}
	}
	assert.True(t, found)
}

func TestLowerIntrinsicPrintRejectsNonLiteral(t *testing.T) {
	call := ast.NewCallExpr(0, "print", []ast.Node{id("r1")})
	_, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.Error(t, err)
}

func TestLowerIntrinsicPlaySoundDuplicatesArgZero(t *testing.T) {
	call := ast.NewCallExpr(0, "play_sound", []ast.Node{str("boom.wav"), num(50)})
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)
	var ins *ir.Instr
	for i := range prog {
		if prog[i].Op == ir.PLAYSOUND {
			ins = &prog[i]
		}
	}
	require.NotNil(t, ins)
	assert.Equal(t, "boom.wav", ins.Arg)
	assert.Equal(t, "boom.wav", ins.Player)
}

func TestLowerIntrinsicIsPresentPushesBoolean(t *testing.T) {
	decl := ast.NewVarDecl(0, "x", 1, nil, false)
	call := ast.NewCallExpr(0, "is_present", []ast.Node{id("Player1")})
	assign := ast.NewAssignment(0, ast.NewIdent(0, "x"), call)
	prog, err := newLowerer().Lower(mainOnly(decl, assign))
	require.NoError(t, err)
	var sawJNSW bool
	for _, ins := range prog {
		if ins.Op == ir.JNSW {
			sawJNSW = true
		}
	}
	assert.True(t, sawJNSW)
}

func TestLowerIntrinsicRandomPushesRnd256(t *testing.T) {
	decl := ast.NewVarDecl(0, "x", 1, nil, false)
	call := ast.NewCallExpr(0, "rnd256", nil)
	assign := ast.NewAssignment(0, ast.NewIdent(0, "x"), call)
	prog, err := newLowerer().Lower(mainOnly(decl, assign))
	require.NoError(t, err)
	var found bool
	for _, ins := range prog {
		if ins.Op == ir.RND256 {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLowerIntrinsicModifyStashesConstantAmount(t *testing.T) {
	call := ast.NewCallExpr(0, "modify", []ast.Node{
		id("Player1"), id("TerranMarine"), num(1), str("Loc"), id("HealthShields"), num(50),
	})
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)
	var ins *ir.Instr
	for i := range prog {
		if prog[i].Op == ir.MODIFY {
			ins = &prog[i]
		}
	}
	require.NotNil(t, ins)
	assert.Equal(t, "HealthShields", ins.ModifyTarget)
	assert.Equal(t, "50", ins.Score)
}

func TestLowerIntrinsicModifyRejectsNonConstantAmount(t *testing.T) {
	call := ast.NewCallExpr(0, "modify", []ast.Node{
		id("Player1"), id("TerranMarine"), num(1), str("Loc"), id("HealthShields"), id("r1"),
	})
	_, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.Error(t, err)
}

func TestLowerDebuggerCallIsNoop(t *testing.T) {
	call := ast.NewCallExpr(0, "debugger", nil)
	prog, err := newLowerer().Lower(mainOnly(ast.NewExprStmt(0, call)))
	require.NoError(t, err)
	var found bool
	for _, ins := range prog {
		if ins.Op == ir.NOP {
			found = true
		}
	}
	assert.True(t, found)
}

// --- user-defined function inlining ---

func TestLowerUserFunctionInlinesBodyAndPatchesReturn(t *testing.T) {
	fnBody := ast.NewBlock(0, []ast.Node{
		ast.NewReturnStmt(0, ast.NewBinaryExpr(0, "+", id("p"), num(1))),
	})
	fn := ast.NewFuncDecl(0, "inc", []string{"p"}, fnBody)

	decl := ast.NewVarDecl(0, "x", 1, nil, false)
	call := ast.NewCallExpr(0, "inc", []ast.Node{num(41)})
	assign := ast.NewAssignment(0, ast.NewIdent(0, "x"), call)
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{decl, assign}))

	prog, err := newLowerer().Lower(ast.NewUnit(0, []ast.Node{fn, main}))
	require.NoError(t, err)

	var sawFuncstart bool
	for _, ins := range prog {
		if ins.Op == ir.FUNCSTART {
			sawFuncstart = true
		}
	}
	assert.True(t, sawFuncstart, "inlined function body must start with FUNCSTART")

	// Every JMP produced by a return statement must target an address
	// strictly inside the program (the patched epilogue), not the
	// zero-value sentinel.
	for i, ins := range prog {
		if ins.Op == ir.JMP {
			assert.True(t, ins.Jump > 0 && ins.Jump < len(prog), "jmp at %d has unpatched target %d", i, ins.Jump)
		}
	}
}

func TestLowerUserFunctionCallAsStatementDiscardsReturnValue(t *testing.T) {
	fnBody := ast.NewBlock(0, []ast.Node{
		ast.NewReturnStmt(0, num(1)),
	})
	fn := ast.NewFuncDecl(0, "one", nil, fnBody)
	call := ast.NewExprStmt(0, ast.NewCallExpr(0, "one", nil))
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{call}))

	prog, err := newLowerer().Lower(ast.NewUnit(0, []ast.Node{fn, main}))
	require.NoError(t, err)

	var sawDiscardPop bool
	for _, ins := range prog {
		if ins.Op == ir.POP && ins.Reg == ir.RegScratch1 {
			sawDiscardPop = true
		}
	}
	assert.True(t, sawDiscardPop, "a statement-context call to a value-returning function must pop and discard")
}

func TestLowerUserFunctionWrongArgCountFails(t *testing.T) {
	fn := ast.NewFuncDecl(0, "needsOne", []string{"p"}, ast.NewBlock(0, []ast.Node{
		ast.NewReturnStmt(0, id("p")),
	}))
	call := ast.NewExprStmt(0, ast.NewCallExpr(0, "needsOne", nil))
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{call}))
	_, err := newLowerer().Lower(ast.NewUnit(0, []ast.Node{fn, main}))
	require.Error(t, err)
}

func TestLowerNestedUserFunctionCallsRestorePatchList(t *testing.T) {
	inner := ast.NewFuncDecl(0, "inner", nil, ast.NewBlock(0, []ast.Node{
		ast.NewReturnStmt(0, num(1)),
	}))
	outerBody := ast.NewBlock(0, []ast.Node{
		ast.NewReturnStmt(0, ast.NewCallExpr(0, "inner", nil)),
	})
	outer := ast.NewFuncDecl(0, "outer", nil, outerBody)

	decl := ast.NewVarDecl(0, "x", 1, nil, false)
	assign := ast.NewAssignment(0, ast.NewIdent(0, "x"), ast.NewCallExpr(0, "outer", nil))
	main := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, []ast.Node{decl, assign}))

	prog, err := newLowerer().Lower(ast.NewUnit(0, []ast.Node{inner, outer, main}))
	require.NoError(t, err)
	for i, ins := range prog {
		if ins.Op == ir.JMP {
			assert.True(t, ins.Jump > 0 && ins.Jump < len(prog), "jmp at %d left unpatched", i)
		}
	}
}
