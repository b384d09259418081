package assembler_test

import (
	"bytes"
	"testing"

	"github.com/mna/umscript/lang/assembler"
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/evalsim"
	"github.com/mna/umscript/lang/ir"
	"github.com/stretchr/testify/require"
)

// playerSlots mirrors assembler.PlayerSlots; kept local since tests stay
// black-box and assert only on evalsim-observable state.
const playerSlots = assembler.PlayerSlots

// regUnit mirrors registers.go's (player, unitType) backing convention, so
// a test can read back the death count backing a given register id the
// same way the assembler itself computed it.
func regUnit(id int) (player, unitType int) {
	if id < 0 {
		id = 0
	}
	return id % playerSlots, id / playerSlots
}

func newFile(t *testing.T) *chk.File {
	t.Helper()
	f, err := chk.Create(bytes.NewReader(nil), 0)
	require.NoError(t, err)
	require.NoError(t, f.SetOwnerType(0, chk.PlayerHuman))
	return f
}

// assemble runs prog through a fresh Assembler and returns every trigger
// it produced, in table order.
func assemble(t *testing.T, f *chk.File, prog ir.Program) []chk.Trigger {
	t.Helper()
	a := assembler.New(f)
	require.NoError(t, a.Assemble(prog))
	n := f.TriggerCount()
	triggers := make([]chk.Trigger, n)
	for i := 0; i < n; i++ {
		trig, ok := f.Trigger(i)
		require.True(t, ok)
		triggers[i] = trig
	}
	return triggers
}

// run assembles prog, evaluates it with evalsim to quiescence (or an
// end-game action) and returns the resulting Machine for assertions.
func run(t *testing.T, prog ir.Program) *evalsim.Machine {
	t.Helper()
	f := newFile(t)
	triggers := assemble(t, f, prog)
	m := evalsim.New(triggers)
	require.NoError(t, m.Run())
	return m
}

func endVictory() ir.Instr {
	return ir.Instr{Op: ir.END, Player: "Player1", EndGame: "Victory"}
}

func TestBootstrapEntersAtAddressZero(t *testing.T) {
	// No CHECKPLAYERS instruction present: bootstrap must still park the IC
	// at address 0 and run the program starting there.
	const reg = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETREG, Reg: reg, Imm: 42},
		endVictory(),
	}
	m := run(t, prog)
	require.True(t, m.Ended)
	require.Equal(t, chk.ActionVictory, m.EndAction)
	p, u := regUnit(reg)
	require.EqualValues(t, 42, m.DeathsOf(p, u))
}

func TestCheckPlayersSetsPresenceSwitches(t *testing.T) {
	f := newFile(t)
	require.NoError(t, f.SetOwnerType(1, chk.PlayerComputer))
	prog := ir.Program{
		{Op: ir.CHECKPLAYERS},
		endVictory(),
	}
	triggers := assemble(t, f, prog)
	m := evalsim.New(triggers)
	require.NoError(t, m.Run())
	require.True(t, m.Switches[ir.SwitchPlayerPresentBase+0])
	require.True(t, m.Switches[ir.SwitchPlayerPresentBase+1])
	require.False(t, m.Switches[ir.SwitchPlayerPresentBase+2])
}

func TestArithmeticAddAndMul(t *testing.T) {
	const a, b = ir.UserRegisterBase, ir.UserRegisterBase + 1
	prog := ir.Program{
		{Op: ir.SETREG, Reg: a, Imm: 3},
		{Op: ir.SETREG, Reg: b, Imm: 4},
		{Op: ir.ADD, Reg: a, Reg2: b},  // a = 7
		{Op: ir.MUL, Reg: a, Imm: 5},   // a = 35
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(a)
	require.EqualValues(t, 35, m.DeathsOf(p, u))
}

func TestArithmeticMulOfTwoRegisters(t *testing.T) {
	const a, b = ir.UserRegisterBase, ir.UserRegisterBase + 1
	prog := ir.Program{
		{Op: ir.SETREG, Reg: a, Imm: 6},
		{Op: ir.SETREG, Reg: b, Imm: 7},
		{Op: ir.MUL, Reg: a, Reg2: b}, // a = 42
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(a)
	require.EqualValues(t, 42, m.DeathsOf(p, u))
}

func TestArithmeticMulByRuntimeZero(t *testing.T) {
	const a, b = ir.UserRegisterBase, ir.UserRegisterBase + 1
	prog := ir.Program{
		{Op: ir.SETREG, Reg: a, Imm: 9},
		{Op: ir.SETREG, Reg: b, Imm: 0},
		{Op: ir.MUL, Reg: a, Reg2: b}, // a = 0
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(a)
	require.EqualValues(t, 0, m.DeathsOf(p, u))
}

func TestArithmeticSubClampsAtZero(t *testing.T) {
	// The engine's death counter cannot go negative: subtracting past zero
	// clamps, it does not wrap or raise any flag at the assembler level.
	const r = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETREG, Reg: r, Imm: 2},
		{Op: ir.SUB, Reg: r, Imm: 5},
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(r)
	require.EqualValues(t, 0, m.DeathsOf(p, u))
}

func TestDivision(t *testing.T) {
	const dividend = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETREG, Reg: dividend, Imm: 17},
		{Op: ir.DIVSTART, Reg: dividend, Imm: 5},
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(ir.RegDivQuotient)
	require.EqualValues(t, 3, m.DeathsOf(p, u))
	rp, ru := regUnit(dividend)
	require.EqualValues(t, 2, m.DeathsOf(rp, ru))
}

func TestStackPushPopRoundTrip(t *testing.T) {
	const r = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETREG, Reg: r, Imm: 9},
		{Op: ir.PUSH, Reg: r},
		{Op: ir.SETREG, Reg: r, Imm: 0},
		{Op: ir.POP, Reg: r},
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(r)
	require.EqualValues(t, 9, m.DeathsOf(p, u))
	sp, su := regUnit(ir.RegStackPointer)
	require.EqualValues(t, 0, m.DeathsOf(sp, su))
}

func TestStackDupDoesNotConsume(t *testing.T) {
	const src, dst = ir.UserRegisterBase, ir.UserRegisterBase + 1
	prog := ir.Program{
		{Op: ir.SETREG, Reg: src, Imm: 11},
		{Op: ir.PUSH, Reg: src},
		{Op: ir.DUP, Reg: dst},
		endVictory(),
	}
	m := run(t, prog)
	sp, su := regUnit(ir.RegStackPointer)
	require.EqualValues(t, 1, m.DeathsOf(sp, su))
	dp, du := regUnit(dst)
	require.EqualValues(t, 11, m.DeathsOf(dp, du))
}

func TestJumpIfZeroTaken(t *testing.T) {
	const r = ir.UserRegisterBase
	const marker = ir.UserRegisterBase + 1
	prog := ir.Program{
		{Op: ir.SETREG, Reg: r, Imm: 0},
		{Op: ir.JZ, Reg: r, Jump: 4},
		{Op: ir.SETREG, Reg: marker, Imm: 1}, // skipped
		{Op: ir.JMP, Jump: 5},
		{Op: ir.SETREG, Reg: marker, Imm: 2}, // taken
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(marker)
	require.EqualValues(t, 2, m.DeathsOf(p, u))
}

func TestJCmpLiteral(t *testing.T) {
	const r, marker = ir.UserRegisterBase, ir.UserRegisterBase+1
	prog := ir.Program{
		{Op: ir.SETREG, Reg: r, Imm: 10},
		{Op: ir.JCMP, Reg: r, Cmp: ir.CmpAtLeast, Imm: 5, Jump: 4},
		{Op: ir.SETREG, Reg: marker, Imm: 1}, // skipped
		{Op: ir.JMP, Jump: 5},
		{Op: ir.SETREG, Reg: marker, Imm: 2}, // taken, since 10 >= 5
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(marker)
	require.EqualValues(t, 2, m.DeathsOf(p, u))
}

func TestJCmpRegisterToRegister(t *testing.T) {
	const left, right, marker = ir.UserRegisterBase, ir.UserRegisterBase+1, ir.UserRegisterBase+2
	prog := ir.Program{
		{Op: ir.SETREG, Reg: left, Imm: 3},
		{Op: ir.SETREG, Reg: right, Imm: 7},
		{Op: ir.JCMP, Reg: left, Cmp: ir.CmpAtMost, Reg2: right, Jump: 5},
		{Op: ir.SETREG, Reg: marker, Imm: 1}, // skipped, left < right satisfies AtMost
		endVictory(),
		{Op: ir.SETREG, Reg: marker, Imm: 2}, // taken
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(marker)
	require.EqualValues(t, 2, m.DeathsOf(p, u))
	// both operands drain to completion: left (3) fully consumed, right
	// left over at 7-3=4.
	lp, lu := regUnit(left)
	require.EqualValues(t, 0, m.DeathsOf(lp, lu))
	rp, ru := regUnit(right)
	require.EqualValues(t, 4, m.DeathsOf(rp, ru))
}

func TestSwitchSetClearAndJumps(t *testing.T) {
	const marker = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETSW, Switch: ir.ReservedSwitchCount},
		{Op: ir.JSW, Switch: ir.ReservedSwitchCount, Jump: 3},
		{Op: ir.SETREG, Reg: marker, Imm: 1}, // skipped
		{Op: ir.CLEARSW, Switch: ir.ReservedSwitchCount},
		{Op: ir.JNSW, Switch: ir.ReservedSwitchCount, Jump: 6},
		{Op: ir.SETREG, Reg: marker, Imm: 2}, // skipped
		endVictory(),
	}
	m := run(t, prog)
	p, u := regUnit(marker)
	require.EqualValues(t, 0, m.DeathsOf(p, u))
	require.False(t, m.Switches[ir.ReservedSwitchCount])
}

func TestResourceCounterLiteralAndRegister(t *testing.T) {
	const amount = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETRESOURCE, Player: "Player1", Resource: "Ore", Imm: 50},
		{Op: ir.SETREG, Reg: amount, Imm: 20},
		{Op: ir.ADDRESOURCE, Player: "Player1", Resource: "Ore", Reg: amount},
		endVictory(),
	}
	m := run(t, prog)
	require.EqualValues(t, 70, m.Resources[struct {
		Player int
		Kind   uint16
	}{0, 0}])
}

func TestDeathsCounterDrainLoop(t *testing.T) {
	// Player1/TerranMarine backs register 0 (the instruction counter), so the
	// counter under test uses a unit type no register in this program maps to.
	const amount = ir.UserRegisterBase
	prog := ir.Program{
		{Op: ir.SETDEATHS, Player: "Player1", UnitType: "ZergZergling", Imm: 5},
		{Op: ir.SETREG, Reg: amount, Imm: 3},
		{Op: ir.ADDDEATHS, Player: "Player1", UnitType: "ZergZergling", Reg: amount},
		endVictory(),
	}
	m := run(t, prog)
	require.EqualValues(t, 8, m.DeathsOf(0, 37))
}

func TestEndDefeatAndDraw(t *testing.T) {
	for _, kind := range []string{"Defeat", "Draw"} {
		prog := ir.Program{
			{Op: ir.END, Player: "Player1", EndGame: kind},
		}
		m := run(t, prog)
		require.Equal(t, chk.ActionDefeat, m.EndAction)
	}
}

func TestMuteUnitSpeechIsLogged(t *testing.T) {
	prog := ir.Program{
		{Op: ir.MUTEUNITSPEECH},
		endVictory(),
	}
	m := run(t, prog)
	var sawMute, sawVictory bool
	for _, a := range m.Log {
		switch a.ActionType {
		case chk.ActionMuteUnitSpeech:
			sawMute = true
		case chk.ActionVictory:
			sawVictory = true
		}
	}
	require.True(t, sawMute)
	require.True(t, sawVictory)
}
