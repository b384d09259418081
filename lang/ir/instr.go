package ir

import (
	"fmt"
	"strings"

	"github.com/mna/umscript/lang/ast"
)

// Comparison is one of the three ordering keywords spec.md §4.2 documents,
// with accepted synonyms (§6 "Fixed identifier sets").
type Comparison uint8

const (
	CmpAtLeast Comparison = iota
	CmpAtMost
	CmpExactly
)

func (c Comparison) String() string {
	switch c {
	case CmpAtLeast:
		return "AtLeast"
	case CmpAtMost:
		return "AtMost"
	case CmpExactly:
		return "Exactly"
	default:
		return "?"
	}
}

// VarFrame is one entry of the debug stack-frame vector snapshotted on
// every emitted instruction (spec.md §4.2 "Debug metadata").
type VarFrame struct {
	Function string            // enclosing function name, "" for top-level
	Vars     map[string][]int  // visible name -> register ids at this point
}

// Instr is a single IR micro-instruction. It is a flat tagged-variant
// struct rather than one Go type per opcode: spec.md's "tagged variant
// identifying the operation and carrying operands" is realized here as one
// Opcode field selecting which of the operand fields below are meaningful,
// matching the field-carrying-struct idiom the teacher's own bytecode
// "insn" type uses (opcode + generic arg), generalized to the richer
// operand shapes this instruction set needs.
type Instr struct {
	Op Opcode

	Reg  int   // primary register operand (or StackTop)
	Reg2 int   // secondary register operand (or StackTop)
	Imm  int64 // immediate value
	Jump int   // instruction index (pre-patch) or absolute address (post-patch)
	Switch int // switch id

	Cmp         Comparison
	Player      string // identifier from the fixed player-name set, or ""
	UnitType    string
	Location    string
	Resource    string
	Score       string
	EndGame     string
	Alliance    string
	Leaderboard string
	ModifyTarget string
	Arg         string   // generic string operand (AI script name, field name, ...)
	Args        []string // generic extra string operands (condition-kind specific)

	Node   ast.Node // originating AST node, for diagnostics
	Frames []VarFrame
}

// Program is a linear sequence of Instr, the output of the lowerer and
// input to the peephole optimizer and trigger assembler.
type Program []Instr

// String renders p as the --dump-ir textual form: one mnemonic per line,
// numbered.
func (p Program) String() string {
	var sb strings.Builder
	for i, ins := range p {
		fmt.Fprintf(&sb, "%4d: %s\n", i, ins.Mnemonic())
	}
	return sb.String()
}

// Mnemonic renders a single instruction following the convention of
// spec.md §6: `PUSH <reg-or-immediate>`, `JMP <address>`,
// `SETSW <switch-id> <0|1>`, `SPAWN <player> <unit> <qty-or-reg> <location>
// [SLOT <n>]`, etc.
func (ins Instr) Mnemonic() string {
	op := strings.ToUpper(ins.Op.String())
	switch ins.Op {
	case PUSH:
		return fmt.Sprintf("%s %s", op, regOrImm(ins))
	case POP, DUP, NOT, INC, DEC, RND256:
		return fmt.Sprintf("%s %s", op, regName(ins.Reg))
	case SETREG:
		return fmt.Sprintf("%s %s %d", op, regName(ins.Reg), ins.Imm)
	case MOVREG:
		return fmt.Sprintf("%s %s %s", op, regName(ins.Reg), regName(ins.Reg2))
	case ADD, SUB, MUL:
		return fmt.Sprintf("%s %s %s", op, regName(ins.Reg), regOrImm2(ins))
	case SETSTACKTOP:
		return fmt.Sprintf("%s %d", op, ins.Imm)
	case JMP:
		return fmt.Sprintf("JMP %d", ins.Jump)
	case JZ, JNZ:
		return fmt.Sprintf("%s %s %d", op, regName(ins.Reg), ins.Jump)
	case JCMP:
		return fmt.Sprintf("%s %s %s %s %d", op, regName(ins.Reg), ins.Cmp, regOrImm2(ins), ins.Jump)
	case SETSW:
		return fmt.Sprintf("SETSW %d 1", ins.Switch)
	case CLEARSW:
		return fmt.Sprintf("SETSW %d 0", ins.Switch)
	case JSW, JNSW:
		return fmt.Sprintf("%s %d %d", op, ins.Switch, ins.Jump)
	case EVNT:
		return fmt.Sprintf("EVNT %d %d", ins.Switch, ins.Imm)
	case COND:
		return fmt.Sprintf("COND %s %s", ins.Arg, strings.Join(ins.Args, " "))
	case SPAWN:
		s := fmt.Sprintf("SPAWN %s %s %s %s", ins.Player, ins.UnitType, regOrImm(ins), ins.Location)
		if ins.Reg2 >= 0 {
			s += fmt.Sprintf(" SLOT %d", ins.Reg2)
		}
		return s
	case UPROPSTART:
		return fmt.Sprintf("UPROPSTART %d %s", ins.Imm, ins.UnitType)
	case UPROPFIELD:
		return fmt.Sprintf("UPROPFIELD %s %d", ins.Arg, ins.Imm)
	case DISPLAYMSG:
		return fmt.Sprintf("DISPLAYMSG %q", ins.Arg)
	case PLAYSOUND:
		return fmt.Sprintf("PLAYSOUND %q %d", ins.Arg, ins.Imm)
	case NOP, FUNCSTART, CHECKPLAYERS, DIVSTART, DIVSTEP:
		return op
	default:
		return fmt.Sprintf("%s %s", op, genericArgs(ins))
	}
}

func regName(id int) string {
	if id == StackTop {
		return "TOS"
	}
	return fmt.Sprintf("r%d", id)
}

func regOrImm(ins Instr) string {
	if ins.Reg != 0 || ins.Imm == 0 {
		return regName(ins.Reg)
	}
	return fmt.Sprintf("%d", ins.Imm)
}

func regOrImm2(ins Instr) string {
	if ins.Reg2 != 0 {
		return regName(ins.Reg2)
	}
	return fmt.Sprintf("%d", ins.Imm)
}

func genericArgs(ins Instr) string {
	parts := []string{}
	if ins.Player != "" {
		parts = append(parts, ins.Player)
	}
	if ins.UnitType != "" {
		parts = append(parts, ins.UnitType)
	}
	if ins.Location != "" {
		parts = append(parts, ins.Location)
	}
	if ins.Arg != "" {
		parts = append(parts, ins.Arg)
	}
	if ins.Imm != 0 {
		parts = append(parts, fmt.Sprintf("%d", ins.Imm))
	}
	return strings.Join(parts, " ")
}
