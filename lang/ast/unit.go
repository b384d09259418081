package ast

import (
	"fmt"
	"strings"

	"github.com/mna/umscript/lang/token"
)

// Unit is the translation-unit root node: the top-level sequence of global
// variable declarations, function declarations, event declarations, and
// unit-properties declarations, in source declaration order.
type Unit struct {
	base
	Decls []Node
}

// NewUnit builds a Unit at pos, stamping parent pointers on decls.
func NewUnit(pos token.Pos, decls []Node) *Unit {
	u := &Unit{base: base{pos: pos}, Decls: decls}
	AddChildren(u, decls...)
	return u
}

func (n *Unit) Children() []Node { return n.Decls }
func (n *Unit) Walk(v Visitor) {
	for _, d := range n.Decls {
		Walk(v, d)
	}
}
func (n *Unit) String() string { return fmt.Sprintf("unit {%d decls}", len(n.Decls)) }

// FuncDecl is a function declaration: fn name(params) { body }.
type FuncDecl struct {
	base
	Name   string
	Params []string
	Body   *Block
}

func NewFuncDecl(pos token.Pos, name string, params []string, body *Block) *FuncDecl {
	n := &FuncDecl{base: base{pos: pos}, Name: name, Params: params, Body: body}
	AddChild(n, body)
	return n
}

func (n *FuncDecl) Children() []Node {
	if n.Body == nil {
		return nil
	}
	return []Node{n.Body}
}
func (n *FuncDecl) Walk(v Visitor) { Walk(v, n.Body) }
func (n *FuncDecl) String() string {
	return fmt.Sprintf("fn %s(%s)", n.Name, strings.Join(n.Params, ", "))
}

// Block is an ordered sequence of statements delimited by { }.
type Block struct {
	base
	Stmts []Node
}

func NewBlock(pos token.Pos, stmts []Node) *Block {
	b := &Block{base: base{pos: pos}, Stmts: stmts}
	AddChildren(b, stmts...)
	return b
}

func (n *Block) Children() []Node { return n.Stmts }
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *Block) String() string { return fmt.Sprintf("block {%d stmts}", len(n.Stmts)) }
