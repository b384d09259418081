package ast

import (
	"fmt"

	"github.com/mna/umscript/lang/token"
)

// Assignment represents `left = right;`, where left must be an *Ident or
// *ArrayExpr (spec.md §4.2, "Assignment requires an identifier or
// array-expression on the left").
type Assignment struct {
	base
	Left  Node
	Right Node
}

func NewAssignment(pos token.Pos, left, right Node) *Assignment {
	n := &Assignment{base: base{pos: pos}, Left: left, Right: right}
	AddChildren(n, left, right)
	return n
}

func (n *Assignment) Children() []Node { return []Node{n.Left, n.Right} }
func (n *Assignment) Walk(v Visitor)   { Walk(v, n.Left); Walk(v, n.Right) }
func (n *Assignment) String() string   { return fmt.Sprintf("%s = %s", n.Left, n.Right) }

// VarDecl is a local or global variable declaration, optionally an array
// (ArraySize > 1) and optionally literal-initialized. Non-literal
// initializers are rejected by the lowerer, per spec.md §4.2 phase A.
type VarDecl struct {
	base
	Name      string
	ArraySize int // 1 for scalars
	Init      []Node
	Global    bool
}

func NewVarDecl(pos token.Pos, name string, arraySize int, init []Node, global bool) *VarDecl {
	n := &VarDecl{base: base{pos: pos}, Name: name, ArraySize: arraySize, Init: init, Global: global}
	AddChildren(n, init...)
	return n
}

func (n *VarDecl) Children() []Node { return n.Init }
func (n *VarDecl) Walk(v Visitor) {
	for _, e := range n.Init {
		Walk(v, e)
	}
}
func (n *VarDecl) String() string {
	kw := "local"
	if n.Global {
		kw = "global"
	}
	if n.ArraySize > 1 {
		return fmt.Sprintf("%s %s[%d]", kw, n.Name, n.ArraySize)
	}
	return fmt.Sprintf("%s %s", kw, n.Name)
}

// IfStmt is `if (cond) { then } [else { else }]`. Both bodies must be
// non-empty blocks (spec.md §7 Semantic: "empty if/while body").
type IfStmt struct {
	base
	Cond Node
	Then *Block
	Else *Block // may be nil
}

func NewIfStmt(pos token.Pos, cond Node, then, els *Block) *IfStmt {
	n := &IfStmt{base: base{pos: pos}, Cond: cond, Then: then, Else: els}
	AddChildren(n, cond, then, els)
	return n
}

func (n *IfStmt) Children() []Node {
	cs := []Node{n.Cond, n.Then}
	if n.Else != nil {
		cs = append(cs, n.Else)
	}
	return cs
}
func (n *IfStmt) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *IfStmt) String() string { return fmt.Sprintf("if (%s)", n.Cond) }

// WhileStmt is `while (cond) { body }`.
type WhileStmt struct {
	base
	Cond Node
	Body *Block
}

func NewWhileStmt(pos token.Pos, cond Node, body *Block) *WhileStmt {
	n := &WhileStmt{base: base{pos: pos}, Cond: cond, Body: body}
	AddChildren(n, cond, body)
	return n
}

func (n *WhileStmt) Children() []Node { return []Node{n.Cond, n.Body} }
func (n *WhileStmt) Walk(v Visitor)   { Walk(v, n.Cond); Walk(v, n.Body) }
func (n *WhileStmt) String() string   { return fmt.Sprintf("while (%s)", n.Cond) }

// ReturnStmt is `return [expr];`.
type ReturnStmt struct {
	base
	Value Node // may be nil
}

func NewReturnStmt(pos token.Pos, value Node) *ReturnStmt {
	n := &ReturnStmt{base: base{pos: pos}, Value: value}
	AddChild(n, value)
	return n
}

func (n *ReturnStmt) Children() []Node {
	if n.Value == nil {
		return nil
	}
	return []Node{n.Value}
}
func (n *ReturnStmt) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *ReturnStmt) String() string {
	if n.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", n.Value)
}

// ExprStmt wraps a CallExpr used as a statement.
type ExprStmt struct {
	base
	Expr Node
}

func NewExprStmt(pos token.Pos, expr Node) *ExprStmt {
	n := &ExprStmt{base: base{pos: pos}, Expr: expr}
	AddChild(n, expr)
	return n
}

func (n *ExprStmt) Children() []Node { return []Node{n.Expr} }
func (n *ExprStmt) Walk(v Visitor)   { Walk(v, n.Expr) }
func (n *ExprStmt) String() string   { return n.Expr.String() }
