package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/umscript/lang/token"
)

// Ident is a bare identifier reference: a declared variable name, or a raw
// register name matching r<digits> (spec.md §4.2).
type Ident struct {
	base
	Name string
}

func NewIdent(pos token.Pos, name string) *Ident { return &Ident{base: base{pos: pos}, Name: name} }

func (n *Ident) Children() []Node  { return nil }
func (n *Ident) Walk(Visitor)      {}
func (n *Ident) String() string    { return n.Name }

// RawRegister reports whether this identifier denotes a raw register id
// (the pattern r<digits>) and, if so, the parsed register number.
func (n *Ident) RawRegister() (id int, ok bool) {
	if len(n.Name) < 2 || n.Name[0] != 'r' {
		return 0, false
	}
	v, err := strconv.Atoi(n.Name[1:])
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// NumberLit is an integer literal.
type NumberLit struct {
	base
	Value int64
}

func NewNumberLit(pos token.Pos, v int64) *NumberLit { return &NumberLit{base: base{pos: pos}, Value: v} }

func (n *NumberLit) Children() []Node { return nil }
func (n *NumberLit) Walk(Visitor)     {}
func (n *NumberLit) String() string   { return strconv.FormatInt(n.Value, 10) }

// StringLit is a string literal.
type StringLit struct {
	base
	Value string
}

func NewStringLit(pos token.Pos, v string) *StringLit { return &StringLit{base: base{pos: pos}, Value: v} }

func (n *StringLit) Children() []Node { return nil }
func (n *StringLit) Walk(Visitor)     {}
func (n *StringLit) String() string   { return strconv.Quote(n.Value) }

// BinaryExpr is a binary operator expression, e.g. a + b, a == b, a && b.
type BinaryExpr struct {
	base
	Op          string
	Left, Right Node
}

func NewBinaryExpr(pos token.Pos, op string, l, r Node) *BinaryExpr {
	n := &BinaryExpr{base: base{pos: pos}, Op: op, Left: l, Right: r}
	AddChildren(n, l, r)
	return n
}

func (n *BinaryExpr) Children() []Node { return []Node{n.Left, n.Right} }
func (n *BinaryExpr) Walk(v Visitor)   { Walk(v, n.Left); Walk(v, n.Right) }
func (n *BinaryExpr) String() string   { return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right) }

// UnaryExpr is a unary operator expression. Prefix distinguishes ++x/--x/
// !x/-x (Prefix true) from postfix x++/x-- (Prefix false).
type UnaryExpr struct {
	base
	Op      string
	Operand Node
	Prefix  bool
}

func NewUnaryExpr(pos token.Pos, op string, operand Node, prefix bool) *UnaryExpr {
	n := &UnaryExpr{base: base{pos: pos}, Op: op, Operand: operand, Prefix: prefix}
	AddChild(n, operand)
	return n
}

func (n *UnaryExpr) Children() []Node { return []Node{n.Operand} }
func (n *UnaryExpr) Walk(v Visitor)   { Walk(v, n.Operand) }
func (n *UnaryExpr) String() string {
	if n.Prefix {
		return fmt.Sprintf("%s%s", n.Op, n.Operand)
	}
	return fmt.Sprintf("%s%s", n.Operand, n.Op)
}

// ArrayExpr is an array element reference, e.g. arr[i].
type ArrayExpr struct {
	base
	Name  string
	Index Node
}

func NewArrayExpr(pos token.Pos, name string, index Node) *ArrayExpr {
	n := &ArrayExpr{base: base{pos: pos}, Name: name, Index: index}
	AddChild(n, index)
	return n
}

func (n *ArrayExpr) Children() []Node { return []Node{n.Index} }
func (n *ArrayExpr) Walk(v Visitor)   { Walk(v, n.Index) }
func (n *ArrayExpr) String() string   { return fmt.Sprintf("%s[%s]", n.Name, n.Index) }

// CallExpr is a call to an intrinsic or user-defined function. Args is
// stored in source order: Args[0] is the first argument written by the
// user (see DESIGN.md's resolution of spec.md §9's argument-indexing open
// question).
type CallExpr struct {
	base
	Callee string
	Args   []Node
}

func NewCallExpr(pos token.Pos, callee string, args []Node) *CallExpr {
	n := &CallExpr{base: base{pos: pos}, Callee: callee, Args: args}
	AddChildren(n, args...)
	return n
}

func (n *CallExpr) Children() []Node { return n.Args }
func (n *CallExpr) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *CallExpr) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(parts, ", "))
}
