package chk_test

import (
	"testing"

	"github.com/mna/umscript/lang/chk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendTriggerThenReadBack(t *testing.T) {
	f := emptyFile(t)
	var trig chk.Trigger
	trig.Conditions[0] = chk.TriggerCondition{Condition: chk.ConditionAlways}
	trig.Actions[0] = chk.TriggerAction{ActionType: chk.ActionSetSwitch, Arg0: 3}
	trig.ExecutionFlags = 0xDEADBEEF

	idx, err := f.AppendTrigger(trig)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 1, f.TriggerCount())

	got, ok := f.Trigger(0)
	require.True(t, ok)
	assert.Equal(t, chk.ConditionAlways, got.Conditions[0].Condition)
	assert.Equal(t, chk.ActionSetSwitch, got.Actions[0].ActionType)
	assert.Equal(t, uint32(3), got.Actions[0].Arg0)
	assert.Equal(t, uint32(0xDEADBEEF), got.ExecutionFlags)
}

func TestTriggerRecordSizeIs2400Bytes(t *testing.T) {
	assert.Equal(t, 2400, chk.TriggerSize)
}

func TestAppendTriggerPacksRecordsContiguously(t *testing.T) {
	f := emptyFile(t)
	_, err := f.AppendTrigger(chk.Trigger{})
	require.NoError(t, err)
	idx, err := f.AppendTrigger(chk.Trigger{ExecutionFlags: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 2, f.TriggerCount())

	got, ok := f.Trigger(1)
	require.True(t, ok)
	assert.Equal(t, uint32(1), got.ExecutionFlags)
}

func TestSetTriggerRejectsOutOfRangeIndex(t *testing.T) {
	f := emptyFile(t)
	assert.Error(t, f.SetTrigger(0, chk.Trigger{}))
}
