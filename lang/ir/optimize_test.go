package ir_test

import (
	"testing"

	"github.com/mna/umscript/lang/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeCollapsesPushPop(t *testing.T) {
	p := ir.Program{
		{Op: ir.SETREG, Reg: 80, Imm: 1},
		{Op: ir.PUSH, Reg: 80},
		{Op: ir.POP, Reg: 80},
		{Op: ir.ADD, Reg: 80, Reg2: 80},
	}
	got := ir.Optimize(p)
	assert.Equal(t, ir.NOP, got[1].Op)
	assert.Equal(t, ir.NOP, got[2].Op)
	assert.Equal(t, ir.SETREG, got[0].Op)
	assert.Equal(t, ir.ADD, got[3].Op)
}

func TestOptimizeLeavesMismatchedRegisters(t *testing.T) {
	p := ir.Program{
		{Op: ir.PUSH, Reg: 80},
		{Op: ir.POP, Reg: 81},
	}
	got := ir.Optimize(p)
	assert.Equal(t, ir.PUSH, got[0].Op)
	assert.Equal(t, ir.POP, got[1].Op)
}

func TestOptimizeIgnoresStackTopSentinel(t *testing.T) {
	p := ir.Program{
		{Op: ir.PUSH, Reg: ir.StackTop},
		{Op: ir.POP, Reg: ir.StackTop},
	}
	got := ir.Optimize(p)
	assert.Equal(t, ir.PUSH, got[0].Op)
	assert.Equal(t, ir.POP, got[1].Op)
}

func TestOptimizeFixpointCascades(t *testing.T) {
	// push a; push a; pop a; pop a -- collapsing the inner pair leaves the
	// outer pair adjacent across the new NOPs, so nested matching pairs
	// must all collapse within one Optimize call since it iterates to a
	// fixpoint.
	p := ir.Program{
		{Op: ir.PUSH, Reg: 80},
		{Op: ir.PUSH, Reg: 80},
		{Op: ir.POP, Reg: 80},
		{Op: ir.POP, Reg: 80},
	}
	got := ir.Optimize(p)
	for i, ins := range got {
		assert.Equalf(t, ir.NOP, ins.Op, "instruction %d", i)
	}
}

func TestOptimizeIdempotent(t *testing.T) {
	p := ir.Program{
		{Op: ir.PUSH, Reg: 80},
		{Op: ir.POP, Reg: 80},
		{Op: ir.JMP, Jump: 0},
	}
	once := ir.Optimize(append(ir.Program{}, p...))
	twice := ir.Optimize(append(ir.Program{}, once...))
	assert.Equal(t, once, twice)
}

func TestStripRepatchesJumps(t *testing.T) {
	p := ir.Program{
		{Op: ir.PUSH, Reg: 80},
		{Op: ir.POP, Reg: 80},
		{Op: ir.SETREG, Reg: 81, Imm: 2},
		{Op: ir.JMP, Jump: 0},
	}
	p = ir.Optimize(p)
	require.Equal(t, ir.NOP, p[0].Op)
	require.Equal(t, ir.NOP, p[1].Op)

	stripped := ir.Strip(p)
	require.Len(t, stripped, 2)
	assert.Equal(t, ir.SETREG, stripped[0].Op)
	assert.Equal(t, ir.JMP, stripped[1].Op)
	// jump target 0 pointed at a NOP; after stripping it must follow the
	// remap forward to the first surviving instruction.
	assert.Equal(t, 0, stripped[1].Jump)
}

func TestStripJumpPastTrailingNops(t *testing.T) {
	p := ir.Program{
		{Op: ir.JMP, Jump: 2},
		{Op: ir.NOP},
		{Op: ir.NOP},
		{Op: ir.SETREG, Reg: 80, Imm: 1},
	}
	stripped := ir.Strip(p)
	require.Len(t, stripped, 2)
	assert.Equal(t, ir.SETREG, stripped[1].Op)
	assert.Equal(t, 1, stripped[0].Jump)
}
