package ir_test

import (
	"testing"

	"github.com/mna/umscript/lang/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeStringRoundTrip(t *testing.T) {
	for op := ir.Opcode(0); op <= ir.OpcodeMax; op++ {
		s := op.String()
		if s == "" {
			continue
		}
		got, ok := ir.ParseOpcode(s)
		require.Truef(t, ok, "ParseOpcode(%q) failed", s)
		assert.Equal(t, op, got)
	}
}

func TestParseOpcodeUnknown(t *testing.T) {
	_, ok := ir.ParseOpcode("not-a-real-opcode")
	assert.False(t, ok)
}

func TestIsJump(t *testing.T) {
	assert.True(t, ir.IsJump(ir.JMP))
	assert.True(t, ir.IsJump(ir.JCMP))
	assert.False(t, ir.IsJump(ir.PUSH))
	assert.False(t, ir.IsJump(ir.NOP))
}
