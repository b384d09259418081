// Package lower implements the IR lowerer (C3): given a folded AST and a
// register alias store, it produces a linear lang/ir.Program realizing the
// program, in the three phases spec.md §4.2 describes (globals/functions/
// unit-properties, events, code). It is split across files the way the
// teacher splits its own lang/resolver package by concern: function.go is
// phase A, events.go is phase B, stmt.go and expr.go are phase C's
// statement and expression lowering, calls.go is the intrinsic table and
// user-function inlining.
package lower

import (
	"fmt"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
	"github.com/mna/umscript/lang/regalloc"
	"github.com/mna/umscript/lang/token"
)

// Limits are the compile-time capacity ceilings spec.md §4.2/§4.4 call out
// as fatal-if-exceeded. They arrive through lang/compiler's Config, which
// the CLI (internal/maincmd) fills from internal/config, so that lang/lower
// stays free of a dependency on the CLI configuration layer.
type Limits struct {
	MaxEventConditions int
	MaxCUWPSlots       int
}

// DefaultLimits mirrors the host engine's own trigger/CUWP ceilings.
var DefaultLimits = Limits{
	MaxEventConditions: 16,
	MaxCUWPSlots:       64,
}

// Lowerer holds one compile's worth of lowering state. It is the teacher's
// own fcomp/pcomp state-holder split, specialized to this domain: one
// Lowerer per compile session (the "whole-program" state), reused across
// all three phases.
type Lowerer struct {
	Regs   *regalloc.Store
	Limits Limits
	FSet   *token.FileSet

	prog Program

	funcs map[string]*ast.FuncDecl
	funcOrder []string

	events       []*ast.EventDecl
	eventSwitch  map[*ast.EventDecl]int
	nextSwitch   int

	cuwp        []*ast.UnitPropertiesDecl
	nextCUWPSlot int

	// inlining state, reset per user-function call
	returnPatches []int
}

// Program is a type alias kept local so lower's exported surface reads
// naturally; it is exactly ir.Program.
type Program = ir.Program

// New creates a Lowerer ready to lower a single Unit.
func New(regs *regalloc.Store, limits Limits, fset *token.FileSet) *Lowerer {
	return &Lowerer{
		Regs:        regs,
		Limits:      limits,
		FSet:        fset,
		funcs:       make(map[string]*ast.FuncDecl),
		eventSwitch: make(map[*ast.EventDecl]int),
		nextSwitch:  ir.ReservedSwitchCount,
	}
}

// Lower runs all three phases over unit, returning the finished IR program
// or the first diagnostic encountered. unit must already be constant-
// folded (lang/constfold.Fold); lowering does not fold.
func (l *Lowerer) Lower(unit *ast.Unit) (Program, error) {
	if err := l.phaseA(unit); err != nil {
		return nil, err
	}
	if err := l.phaseB(unit); err != nil {
		return nil, err
	}
	main, ok := l.funcs["main"]
	if !ok {
		return nil, l.fail(diag.Semantic, unit, "missing main function")
	}
	if err := l.phaseC(main); err != nil {
		return nil, err
	}
	return l.prog, nil
}

// emit appends ins to the program and returns its index.
func (l *Lowerer) emit(ins ir.Instr) int {
	idx := len(l.prog)
	l.prog = append(l.prog, ins)
	return idx
}

// patch sets the Jump operand of the instruction at idx to target.
func (l *Lowerer) patch(idx, target int) {
	l.prog[idx].Jump = target
}

// here returns the index the next emitted instruction will occupy.
func (l *Lowerer) here() int { return len(l.prog) }

// realReg maps a regalloc-local id (0-based) to the absolute register id
// the IR and assembler address, by adding the reserved-register offset
// (spec.md §4.1: "the caller adds a small reserved offset").
func realReg(id int) int { return id + ir.UserRegisterBase }

func (l *Lowerer) fail(kind diag.Kind, node ast.Node, format string, args ...interface{}) error {
	var pos token.Pos
	if node != nil {
		pos = node.Offset()
	}
	e := &diag.Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	if l.FSet != nil {
		e.Pos = l.FSet.Position(pos)
	}
	e.Node = node
	return e
}

// resolveLValue returns the absolute register id that node (an *ast.Ident
// or *ast.ArrayExpr) addresses, honoring raw register identifiers
// (r<digits>, spec.md §4.2) which bypass the alias store entirely.
func (l *Lowerer) resolveLValue(node ast.Node) (int, error) {
	switch v := node.(type) {
	case *ast.Ident:
		if raw, ok := v.RawRegister(); ok {
			return raw, nil
		}
		id, err := l.Regs.GetAlias(v.Name, 0, v)
		if err != nil {
			return 0, l.fail(diag.Semantic, v, "undeclared identifier %q: %v", v.Name, err)
		}
		return realReg(id), nil
	case *ast.ArrayExpr:
		idx, ok := constIndex(v.Index)
		if !ok {
			return 0, l.fail(diag.Semantic, v, "array index of %q must be a compile-time constant", v.Name)
		}
		id, err := l.Regs.GetAlias(v.Name, idx, v)
		if err != nil {
			return 0, l.fail(diag.Semantic, v, "%s[%d]: %v", v.Name, idx, err)
		}
		return realReg(id), nil
	default:
		return 0, l.fail(diag.Structural, node, "assignment target must be an identifier or array element")
	}
}

// constIndex reports whether n is a literal integer index, after folding.
func constIndex(n ast.Node) (int, bool) {
	num, ok := n.(*ast.NumberLit)
	if !ok {
		return 0, false
	}
	return int(num.Value), true
}
