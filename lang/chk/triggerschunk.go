package chk

import "encoding/binary"

// Fixed sizes from original_source/src/libchk/triggerschunk.h: a
// TriggerCondition is 20 bytes, a TriggerAction is 32 bytes, and a full
// Trigger record (16 conditions + 64 actions + a 4-byte execution-flags
// word + a 28-byte execution mask) is exactly 2400 bytes.
const (
	conditionSize  = 20
	actionSize     = 32
	conditionCount = 16
	actionCount    = 64
	TriggerSize    = conditionCount*conditionSize + actionCount*actionSize + 4 + 28
)

// ComparisonType is the numeric-comparison operator a TriggerCondition
// tests its quantity against.
type ComparisonType uint8

const (
	ComparisonAtLeast ComparisonType = 0
	ComparisonAtMost  ComparisonType = 1
	ComparisonExactly ComparisonType = 10
)

// ConditionType identifies what a TriggerCondition tests, mirroring the
// host engine's documented TRIG condition table.
type ConditionType uint8

const (
	ConditionNone          ConditionType = 0
	ConditionCountdown     ConditionType = 1
	ConditionCommand       ConditionType = 2
	ConditionBring         ConditionType = 3
	ConditionAccumulate    ConditionType = 4
	ConditionKills         ConditionType = 5
	ConditionCommandMost   ConditionType = 6
	ConditionCommandLeast  ConditionType = 7
	ConditionScore         ConditionType = 12
	ConditionSwitch        ConditionType = 17
	ConditionElapsedTime   ConditionType = 18
	ConditionOpponents     ConditionType = 19
	ConditionDeaths        ConditionType = 20
	ConditionAlways        ConditionType = 22
	ConditionNever         ConditionType = 23
)

// ActionType identifies what a TriggerAction does, mirroring the host
// engine's documented TRIG action table.
type ActionType uint8

const (
	ActionNone                 ActionType = 0
	ActionVictory              ActionType = 1
	ActionDefeat               ActionType = 2
	ActionPreserveTrigger      ActionType = 3
	ActionWait                 ActionType = 4
	ActionPauseGame            ActionType = 5
	ActionUnpauseGame          ActionType = 6
	ActionTransmission         ActionType = 7
	ActionPlayWAV              ActionType = 8
	ActionDisplayTextMessage   ActionType = 9
	ActionCenterView           ActionType = 10
	ActionCreateUnitProperties ActionType = 11
	ActionSetMissionObjectives ActionType = 12
	ActionSetSwitch            ActionType = 13
	ActionSetCountdownTimer    ActionType = 14
	ActionRunAIScript          ActionType = 15
	ActionRunAIScriptAt        ActionType = 16
	ActionLeaderboardControl   ActionType = 17
	ActionLeaderboardGoal      ActionType = 33
	ActionLeaderboardKills     ActionType = 20
	ActionLeaderboardPoints    ActionType = 21
	ActionKillUnit             ActionType = 22
	ActionKillUnitAt           ActionType = 23
	ActionRemoveUnit           ActionType = 24
	ActionRemoveUnitAt         ActionType = 25
	ActionSetResources         ActionType = 26
	ActionSetScore             ActionType = 27
	ActionMinimapPing          ActionType = 28
	ActionTalkingPortrait      ActionType = 29
	ActionMuteUnitSpeech       ActionType = 30
	ActionUnmuteUnitSpeech     ActionType = 31
	ActionMoveLocation         ActionType = 38
	ActionMoveUnit             ActionType = 39
	ActionSetNextScenario      ActionType = 41
	ActionSetDoodadState       ActionType = 42
	ActionSetInvincibility     ActionType = 43
	ActionCreateUnit           ActionType = 44
	ActionSetDeaths            ActionType = 45
	ActionOrder                ActionType = 46
	ActionComment              ActionType = 47
	ActionGiveUnits            ActionType = 48
	ActionModifyHitPoints      ActionType = 49
	ActionModifyEnergy         ActionType = 50
	ActionModifyShieldPoints   ActionType = 51
	ActionModifyResourceAmount ActionType = 52
	ActionModifyHangarCount    ActionType = 53
	ActionSetAllianceStatus    ActionType = 57
	ActionDisableDebugMode     ActionType = 58
	ActionEnableDebugMode      ActionType = 59
)

// TriggerCondition is one 20-byte condition slot.
type TriggerCondition struct {
	Location   uint32 // 1-based, 0 = no location
	Group      uint32
	Quantity   uint32
	UnitID     uint16
	Comparison ComparisonType
	Condition  ConditionType
	Arg0       uint8 // resource type, score type, or switch number (0-based)
	Flags      uint8
}

// TriggerAction is one 32-byte action slot.
type TriggerAction struct {
	Source         uint32 // source, or the only location (1-based, 0 = none)
	TriggerText    uint32 // string index, 0 = none
	WAVStringIndex uint32 // string index, 0 = none
	Milliseconds   uint32
	Group          uint32 // player or unit group affected
	Arg0           uint32 // second group, destination location, CUWP slot, AI script id, or switch (0-based)
	Arg1           uint16 // unit type, score type, resource type, or alliance status
	ActionType     ActionType
	Modifier       uint8 // unit count (0 = all), action state, order, or numeric modifier
	Flags          uint8
}

// Trigger is one fixed 2400-byte trigger record.
type Trigger struct {
	Conditions     [conditionCount]TriggerCondition
	Actions        [actionCount]TriggerAction
	ExecutionFlags uint32
	ExecutionMask  [28]byte
}

func decodeCondition(b []byte) TriggerCondition {
	return TriggerCondition{
		Location:   binary.LittleEndian.Uint32(b[0:4]),
		Group:      binary.LittleEndian.Uint32(b[4:8]),
		Quantity:   binary.LittleEndian.Uint32(b[8:12]),
		UnitID:     binary.LittleEndian.Uint16(b[12:14]),
		Comparison: ComparisonType(b[14]),
		Condition:  ConditionType(b[15]),
		Arg0:       b[16],
		Flags:      b[17],
		// b[18:20] unused padding
	}
}

func encodeCondition(c TriggerCondition, b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], c.Location)
	binary.LittleEndian.PutUint32(b[4:8], c.Group)
	binary.LittleEndian.PutUint32(b[8:12], c.Quantity)
	binary.LittleEndian.PutUint16(b[12:14], c.UnitID)
	b[14] = byte(c.Comparison)
	b[15] = byte(c.Condition)
	b[16] = c.Arg0
	b[17] = c.Flags
}

func decodeAction(b []byte) TriggerAction {
	return TriggerAction{
		Source:         binary.LittleEndian.Uint32(b[0:4]),
		TriggerText:    binary.LittleEndian.Uint32(b[4:8]),
		WAVStringIndex: binary.LittleEndian.Uint32(b[8:12]),
		Milliseconds:   binary.LittleEndian.Uint32(b[12:16]),
		Group:          binary.LittleEndian.Uint32(b[16:20]),
		Arg0:           binary.LittleEndian.Uint32(b[20:24]),
		Arg1:           binary.LittleEndian.Uint16(b[24:26]),
		ActionType:     ActionType(b[26]),
		Modifier:       b[27],
		Flags:          b[28],
		// b[29:32] unused padding
	}
}

func encodeAction(a TriggerAction, b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], a.Source)
	binary.LittleEndian.PutUint32(b[4:8], a.TriggerText)
	binary.LittleEndian.PutUint32(b[8:12], a.WAVStringIndex)
	binary.LittleEndian.PutUint32(b[12:16], a.Milliseconds)
	binary.LittleEndian.PutUint32(b[16:20], a.Group)
	binary.LittleEndian.PutUint32(b[20:24], a.Arg0)
	binary.LittleEndian.PutUint16(b[24:26], a.Arg1)
	b[26] = byte(a.ActionType)
	b[27] = a.Modifier
	b[28] = a.Flags
}

func decodeTrigger(b []byte) Trigger {
	var t Trigger
	off := 0
	for i := 0; i < conditionCount; i++ {
		t.Conditions[i] = decodeCondition(b[off : off+conditionSize])
		off += conditionSize
	}
	for i := 0; i < actionCount; i++ {
		t.Actions[i] = decodeAction(b[off : off+actionSize])
		off += actionSize
	}
	t.ExecutionFlags = binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	copy(t.ExecutionMask[:], b[off:off+28])
	return t
}

func encodeTrigger(t Trigger, b []byte) {
	off := 0
	for i := 0; i < conditionCount; i++ {
		encodeCondition(t.Conditions[i], b[off:off+conditionSize])
		off += conditionSize
	}
	for i := 0; i < actionCount; i++ {
		encodeAction(t.Actions[i], b[off:off+actionSize])
		off += actionSize
	}
	binary.LittleEndian.PutUint32(b[off:off+4], t.ExecutionFlags)
	off += 4
	copy(b[off:off+28], t.ExecutionMask[:])
}

// TriggerCount returns the number of whole 2400-byte trigger records the
// trigger chunk currently holds.
func (f *File) TriggerCount() int {
	data, ok := f.FirstChunk(TagTriggers)
	if !ok {
		return 0
	}
	return len(data) / TriggerSize
}

// Trigger returns the index'th trigger record.
func (f *File) Trigger(index int) (Trigger, bool) {
	data, ok := f.FirstChunk(TagTriggers)
	if !ok {
		return Trigger{}, false
	}
	start := index * TriggerSize
	if index < 0 || start+TriggerSize > len(data) {
		return Trigger{}, false
	}
	return decodeTrigger(data[start : start+TriggerSize]), true
}

// AppendTrigger appends t as a new record at the end of the trigger chunk
// and returns its index.
func (f *File) AppendTrigger(t Trigger) (int, error) {
	data, _ := f.FirstChunk(TagTriggers)
	index := len(data) / TriggerSize
	buf := make([]byte, TriggerSize)
	encodeTrigger(t, buf)
	if err := f.SetFirstChunk(TagTriggers, append(data, buf...)); err != nil {
		return 0, err
	}
	return index, nil
}

// SetTrigger overwrites the index'th trigger record.
func (f *File) SetTrigger(index int, t Trigger) error {
	data, _ := f.FirstChunk(TagTriggers)
	start := index * TriggerSize
	if index < 0 || start+TriggerSize > len(data) {
		return capacityErr("trigger index %d out of range", index)
	}
	encodeTrigger(t, data[start:start+TriggerSize])
	return f.SetFirstChunk(TagTriggers, data)
}
