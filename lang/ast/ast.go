// Package ast defines the abstract syntax tree produced by the (out of
// scope) parser and consumed by the constant evaluator, the register alias
// store, and the IR lowerer. It is a tagged-variant tree: one Go struct per
// syntactic construct, a closed Node interface, and a non-owning Parent
// back-pointer stamped by AddChild so the lowerer can walk up to an
// enclosing FuncDecl without taking ownership of it.
package ast

import (
	"fmt"

	"github.com/mna/umscript/lang/token"
)

// Node is implemented by every AST node.
type Node interface {
	fmt.Stringer

	// Children returns this node's children in declaration order.
	Children() []Node
	// Parent returns the enclosing node, or nil for the root Unit.
	Parent() Node
	// Offset returns the source byte offset of this node, for diagnostics.
	Offset() token.Pos

	// Walk walks this node's children, in order, with v; the node itself
	// is not visited (the package-level Walk visits it first).
	Walk(v Visitor)

	setParent(Node)
}

// base is embedded by every concrete node to implement the Parent/Offset
// bookkeeping shared by all variants.
type base struct {
	parent Node
	pos    token.Pos
}

func (b *base) Parent() Node      { return b.parent }
func (b *base) Offset() token.Pos { return b.pos }
func (b *base) setParent(p Node)  { b.parent = p }

// AddChild stamps child's parent pointer to owner. It is the only way a
// node's Parent field should be set, so that the owning edge (the
// children slice) and the non-owning back-reference never disagree.
func AddChild(owner, child Node) {
	if child != nil {
		child.setParent(owner)
	}
}

// AddChildren calls AddChild for each non-nil child.
func AddChildren(owner Node, children ...Node) {
	for _, c := range children {
		AddChild(owner, c)
	}
}

// Enclosing walks Parent pointers starting at n (inclusive) until it finds
// a *FuncDecl, returning nil if n is at file scope.
func Enclosing(n Node) *FuncDecl {
	for cur := n; cur != nil; cur = cur.Parent() {
		if fd, ok := cur.(*FuncDecl); ok {
			return fd
		}
	}
	return nil
}
