package ir

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// Disassemble renders p in the same textual mnemonic form as --dump-ir,
// one instruction per line, without the leading index (spec.md §6's
// "textual dump... optionally numbered").
func Disassemble(p Program) string {
	var sb strings.Builder
	for _, ins := range p {
		sb.WriteString(ins.Mnemonic())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Assemble parses the textual mnemonic form back into a Program. It exists
// to support testing lang/assembler and lang/ir without going through
// lang/lower, mirroring the role the teacher toolchain's own
// lang/compiler/asm.go plays for its machine package: a human-writable
// fixture format, not a production input path (the --dump-ir output is
// specified as "informational only", spec.md §6).
//
// Assemble supports the instruction subset exercised by this module's
// tests: stack/arithmetic/control-flow/switch opcodes and a representative
// sample of engine actions. Unsupported opcodes report a parse error
// rather than silently losing operands.
func Assemble(src string) (Program, error) {
	var p Program
	sc := bufio.NewScanner(strings.NewReader(src))
	for lineNo := 1; sc.Scan(); lineNo++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		ins, err := parseLine(fields)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		p = append(p, ins)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseLine(f []string) (Instr, error) {
	if len(f) == 0 {
		return Instr{}, fmt.Errorf("empty instruction")
	}
	op, ok := ParseOpcode(strings.ToLower(f[0]))
	if !ok {
		return Instr{}, fmt.Errorf("unknown opcode %q", f[0])
	}
	args := f[1:]
	ins := Instr{Op: op}

	switch op {
	case NOP, FUNCSTART, CHECKPLAYERS, DIVSTART, DIVSTEP, END:
		// no operands

	case PUSH:
		reg, imm, err := parseRegOrImm(arg(args, 0))
		if err != nil {
			return ins, err
		}
		ins.Reg, ins.Imm = reg, imm

	case POP, DUP, NOT, INC, DEC, RND256:
		ins.Reg = parseReg(arg(args, 0))

	case SETREG:
		ins.Reg = parseReg(arg(args, 0))
		ins.Imm = mustInt(arg(args, 1))

	case MOVREG:
		ins.Reg = parseReg(arg(args, 0))
		ins.Reg2 = parseReg(arg(args, 1))

	case ADD, SUB, MUL:
		ins.Reg = parseReg(arg(args, 0))
		reg, imm, err := parseRegOrImm(arg(args, 1))
		if err != nil {
			return ins, err
		}
		ins.Reg2, ins.Imm = reg, imm

	case SETSTACKTOP:
		ins.Imm = mustInt(arg(args, 0))

	case JMP:
		ins.Jump = int(mustInt(arg(args, 0)))

	case JZ, JNZ:
		ins.Reg = parseReg(arg(args, 0))
		ins.Jump = int(mustInt(arg(args, 1)))

	case JCMP:
		ins.Reg = parseReg(arg(args, 0))
		ins.Cmp = parseCmp(arg(args, 1))
		reg, imm, err := parseRegOrImm(arg(args, 2))
		if err != nil {
			return ins, err
		}
		ins.Reg2, ins.Imm = reg, imm
		ins.Jump = int(mustInt(arg(args, 3)))

	case SETSW:
		ins.Switch = int(mustInt(arg(args, 0)))
		if len(args) > 1 && arg(args, 1) == "0" {
			ins.Op = CLEARSW
		}

	case JSW, JNSW:
		ins.Switch = int(mustInt(arg(args, 0)))
		ins.Jump = int(mustInt(arg(args, 1)))

	case EVNT:
		ins.Switch = int(mustInt(arg(args, 0)))
		ins.Imm = mustInt(arg(args, 1))

	case COND:
		ins.Arg = arg(args, 0)
		ins.Args = append([]string(nil), args[min(1, len(args)):]...)

	case SPAWN:
		ins.Player = arg(args, 0)
		ins.UnitType = arg(args, 1)
		reg, imm, err := parseRegOrImm(arg(args, 2))
		if err != nil {
			return ins, err
		}
		ins.Reg, ins.Imm = reg, imm
		ins.Location = arg(args, 3)
		ins.Reg2 = -1
		if len(args) >= 6 && strings.EqualFold(args[4], "SLOT") {
			ins.Reg2 = int(mustInt(args[5]))
		}

	case DISPLAYMSG:
		ins.Arg = strings.Trim(strings.Join(args, " "), `"`)

	case PLAYSOUND:
		if len(args) > 0 {
			ins.Arg = strings.Trim(args[0], `"`)
		}
		if len(args) > 1 {
			ins.Imm = mustInt(args[1])
		}

	case UPROPSTART:
		ins.Imm = mustInt(arg(args, 0))
		ins.UnitType = arg(args, 1)

	case UPROPFIELD:
		ins.Arg = arg(args, 0)
		ins.Imm = mustInt(arg(args, 1))

	default:
		return ins, fmt.Errorf("opcode %s not supported by the textual assembler", op)
	}
	return ins, nil
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func mustInt(s string) int64 {
	if s == "" {
		return 0
	}
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseReg(s string) int {
	if s == "TOS" {
		return StackTop
	}
	if strings.HasPrefix(s, "r") {
		v, err := strconv.Atoi(s[1:])
		if err == nil {
			return v
		}
	}
	return 0
}

func parseRegOrImm(s string) (reg int, imm int64, err error) {
	if s == "" {
		return 0, 0, nil
	}
	if s == "TOS" || strings.HasPrefix(s, "r") {
		return parseReg(s), 0, nil
	}
	v, convErr := strconv.ParseInt(s, 10, 64)
	if convErr != nil {
		return 0, 0, fmt.Errorf("invalid register or immediate %q", s)
	}
	return 0, v, nil
}

func parseCmp(s string) Comparison {
	switch s {
	case "AtLeast", "GreaterOrEquals":
		return CmpAtLeast
	case "AtMost", "LessOrEquals":
		return CmpAtMost
	default:
		return CmpExactly
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
