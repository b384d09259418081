// Package diag implements the compiler's error taxonomy (spec.md §7): every
// compile failure carries a Kind, a source position, and (when available)
// the offending AST node. The shape mirrors the well-known go/scanner.
// ErrorList idiom that the teacher toolchain's own resolver package
// documents itself as following.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/umscript/lang/token"
)

// Kind identifies which of the four error taxonomies of spec.md §7 an
// Error belongs to.
type Kind uint8

const (
	// Structural errors: an AST node of the wrong variant appears where a
	// specific variant is required (e.g. an if-body that isn't a Block).
	Structural Kind = iota
	// Semantic errors: duplicate/undeclared names, bad argument counts or
	// kinds, out-of-bounds array access, missing main, and similar.
	Semantic
	// Capacity errors: a fixed engine limit was exceeded (event conditions,
	// CUWP slots, trigger chunk capacity, hash table slots).
	Capacity
	// Container errors: the map container or its encrypted archive wrapper
	// is malformed, or a required chunk is missing.
	Container
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural"
	case Semantic:
		return "semantic"
	case Capacity:
		return "capacity"
	case Container:
		return "container"
	default:
		return "unknown"
	}
}

// Node is the minimal surface diag needs from an AST node: enough to report
// a position. lang/ast.Node satisfies this.
type Node interface {
	Offset() token.Pos
}

// Error is a single compile diagnostic.
type Error struct {
	Kind Kind
	Pos  token.Position
	Msg  string
	Node Node // offending node, may be nil
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// ErrorList is a list of *Error, itself satisfying the error interface.
// Compilation is not resumable (spec.md §7): lowering and assembly abort on
// the first error, so in practice an ErrorList built by this package holds
// exactly one Error, but the type supports accumulating several for
// passes (like the container codec) that may want to report more than one
// problem before giving up.
type ErrorList []*Error

// Add appends a new Error built from pos/node/format/args.
func (l *ErrorList) Add(kind Kind, fset *token.FileSet, pos token.Pos, node Node, format string, args ...interface{}) {
	var p token.Position
	if fset != nil {
		p = fset.Position(pos)
	}
	*l = append(*l, &Error{Kind: kind, Pos: p, Msg: fmt.Sprintf(format, args...), Node: node})
}

// Sort orders the list by position, matching go/scanner.ErrorList.Sort.
func (l ErrorList) Sort() {
	sort.Slice(l, func(i, j int) bool {
		pi, pj := l[i].Pos, l[j].Pos
		if pi.Filename != pj.Filename {
			return pi.Filename < pj.Filename
		}
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Column < pj.Column
	})
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more error)", l[0], len(l)-1)
	return sb.String()
}

// Err returns nil if the list is empty, else the list itself as an error.
func (l ErrorList) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}
