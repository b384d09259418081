package ast

import (
	"fmt"
	"io"
	"strings"

	"github.com/mna/umscript/lang/token"
)

// Printer pretty-prints an AST for the --dump-ast CLI output, indenting
// each node under its parent and optionally annotating it with its
// resolved source position.
type Printer struct {
	Output    io.Writer
	WithPos   bool
	FileSet   *token.FileSet
}

// Print writes a depth-indented dump of n (and its descendants) to
// p.Output.
func (p *Printer) Print(n Node) error {
	return p.print(n, 0)
}

func (p *Printer) print(n Node, depth int) error {
	if n == nil {
		return nil
	}
	prefix := strings.Repeat(". ", depth)
	line := prefix + n.String()
	if p.WithPos && p.FileSet != nil {
		line = fmt.Sprintf("%s[%s] %s", prefix, p.FileSet.Position(n.Offset()), n.String())
	}
	if _, err := fmt.Fprintln(p.Output, line); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := p.print(c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
