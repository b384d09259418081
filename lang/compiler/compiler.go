// Package compiler orchestrates one compile session end to end: constant
// folding, lowering, optional peephole optimization, trigger assembly, and
// writing the result back into a map archive. It mirrors the teacher's own
// lang/compiler.CompileFiles: a pure function from an already-parsed AST
// (plus configuration) to a finished result, with no shared mutable
// package state across calls, matching spec.md §5's single-threaded,
// synchronous, exclusive-ownership resource model — one Compile call owns
// its container for its whole duration, the way CompileFiles owns a
// *pcomp for the duration of one file's compilation.
package compiler

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mna/umscript/lang/assembler"
	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/chk"
	"github.com/mna/umscript/lang/constfold"
	"github.com/mna/umscript/lang/ir"
	"github.com/mna/umscript/lang/lower"
	"github.com/mna/umscript/lang/mpq"
	"github.com/mna/umscript/lang/regalloc"
	"github.com/mna/umscript/lang/token"
)

// scenarioChkMember is the well-known member name the host engine expects
// to find the trigger-bearing map container under, inside the map's MPQ
// archive.
const scenarioChkMember = `staredit\scenario.chk`

// listfileMember is the optional, non-standard member some archives carry
// listing every other member's name in plain text, one per line: MPQ hash
// tables are one-way (a name can be tested for presence or read, but the
// table cannot be enumerated), so this is the only way umscript can learn
// what else to carry forward into the rewritten archive.
const listfileMember = `(listfile)`

// Config holds the per-compile knobs spec.md §6's CLI surface exposes.
type Config struct {
	// FSet registers the source file(s) the AST was built from, for
	// diagnostic position resolution; the caller (internal/maincmd)
	// populates it during parsing, out of scope here (SPEC_FULL.md's
	// Non-goals: the real lexer/parser).
	FSet *token.FileSet
	// Limits are the compile-time capacity ceilings; the zero value means
	// lower.DefaultLimits.
	Limits lower.Limits
	// Optimize runs the IR peephole optimizer (spec.md §6 --optimize).
	Optimize bool
	// Driver overrides the assembler's driver player slot; 0 (the
	// assembler package's own default) unless set.
	Driver int
}

// Result is everything one Compile call produces.
type Result struct {
	// IR is the final lowered (and, if requested, optimized) program, for
	// --dump-ir.
	IR ir.Program
	// Output is the finished map archive, serialized and ready to write to
	// the output path.
	Output []byte
}

// Compile runs one compile session: unit must already be resolved and
// ready for constant folding (lang/constfold.Fold is run here, lowering
// never folds itself); container is the input map's raw MPQ archive
// bytes. An AST that would have failed an earlier resolve phase should
// never reach Compile, the teacher's own CompileFiles doc comment's same
// caveat, since folding and lowering assume a structurally valid unit.
func Compile(ctx context.Context, unit *ast.Unit, container []byte, cfg Config) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	folded, ok := constfold.Fold(unit).(*ast.Unit)
	if !ok {
		return Result{}, fmt.Errorf("compiler: constant folding did not return a Unit")
	}

	limits := cfg.Limits
	if limits == (lower.Limits{}) {
		limits = lower.DefaultLimits
	}
	fset := cfg.FSet
	if fset == nil {
		fset = &token.FileSet{}
	}

	lw := lower.New(regalloc.New(), limits, fset)
	prog, err := lw.Lower(folded)
	if err != nil {
		return Result{}, err
	}
	if cfg.Optimize {
		prog = ir.Optimize(prog)
	}

	out, err := writeContainer(container, prog, cfg.Driver)
	if err != nil {
		return Result{}, err
	}
	return Result{IR: prog, Output: out}, nil
}

// writeContainer reads the input archive's scenario.chk member, assembles
// prog's triggers into it, and serializes a fresh archive carrying the
// updated member plus every other member the input's listfile (if any)
// names.
func writeContainer(container []byte, prog ir.Program, driver int) ([]byte, error) {
	arc, err := mpq.Open(bytes.NewReader(container), int64(len(container)))
	if err != nil {
		return nil, fmt.Errorf("compiler: open input archive: %w", err)
	}

	raw, err := arc.ReadFile(scenarioChkMember)
	if err != nil {
		return nil, fmt.Errorf("compiler: read %s: %w", scenarioChkMember, err)
	}
	f, err := chk.Open(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("compiler: parse %s: %w", scenarioChkMember, err)
	}

	asm := assembler.New(f)
	if driver != 0 {
		asm.Driver = driver
	}
	if err := asm.Assemble(prog); err != nil {
		return nil, fmt.Errorf("compiler: assemble triggers: %w", err)
	}

	b := mpq.NewBuilder()
	for _, name := range carriedMembers(arc) {
		if name == scenarioChkMember {
			continue
		}
		data, err := arc.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("compiler: read %s: %w", name, err)
		}
		b.AddFile(name, data)
	}
	b.AddFile(scenarioChkMember, f.Serialize())

	var out bytes.Buffer
	if err := b.Write(&out); err != nil {
		return nil, fmt.Errorf("compiler: write output archive: %w", err)
	}
	return out.Bytes(), nil
}

// carriedMembers returns every member name, other than scenario.chk, that
// the input archive's optional listfile names and that still exists in
// the archive. Archives without a listfile carry forward nothing but the
// rewritten scenario.chk: the hash table cannot be enumerated without one
// (documented limitation, DESIGN.md).
func carriedMembers(arc *mpq.Archive) []string {
	if !arc.FileExists(listfileMember) {
		return nil
	}
	raw, err := arc.ReadFile(listfileMember)
	if err != nil {
		return nil
	}
	var names []string
	for _, line := range bytes.Split(raw, []byte("\n")) {
		name := string(bytes.TrimRight(line, "\r"))
		if name == "" || name == scenarioChkMember {
			continue
		}
		if arc.FileExists(name) {
			names = append(names, name)
		}
	}
	// The listfile itself is always worth carrying forward if present.
	names = append(names, listfileMember)
	return names
}
