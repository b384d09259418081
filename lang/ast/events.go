package ast

import (
	"fmt"
	"strings"

	"github.com/mna/umscript/lang/token"
)

// EventCondition is a single clause of an event declaration, e.g.
// `elapsed_time(AtLeast, 30)`. Kind is the condition keyword; Args holds
// the parsed argument expressions in source order (identifiers for
// player/unit-type/comparison keywords, literals or identifiers for
// quantities and locations).
type EventCondition struct {
	base
	Kind string
	Args []Node
}

func NewEventCondition(pos token.Pos, kind string, args []Node) *EventCondition {
	n := &EventCondition{base: base{pos: pos}, Kind: kind, Args: args}
	AddChildren(n, args...)
	return n
}

func (n *EventCondition) Children() []Node { return n.Args }
func (n *EventCondition) Walk(v Visitor) {
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *EventCondition) String() string {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Kind, strings.Join(parts, ", "))
}

// EventDecl is a top-level `event { conditions... } { body }` declaration.
// Its Body is inlined at every poll_events() call site (spec.md §4.2).
type EventDecl struct {
	base
	Conditions []*EventCondition
	Body       *Block
}

func NewEventDecl(pos token.Pos, conds []*EventCondition, body *Block) *EventDecl {
	n := &EventDecl{base: base{pos: pos}, Conditions: conds, Body: body}
	for _, c := range conds {
		AddChild(n, c)
	}
	AddChild(n, body)
	return n
}

func (n *EventDecl) Children() []Node {
	cs := make([]Node, 0, len(n.Conditions)+1)
	for _, c := range n.Conditions {
		cs = append(cs, c)
	}
	if n.Body != nil {
		cs = append(cs, n.Body)
	}
	return cs
}
func (n *EventDecl) Walk(v Visitor) {
	for _, c := range n.Conditions {
		Walk(v, c)
	}
	Walk(v, n.Body)
}
func (n *EventDecl) String() string { return fmt.Sprintf("event {%d conditions}", len(n.Conditions)) }

// RepeatTemplate is a compile-time repetition template: its Body is
// lowered Count times in sequence. This is a source-level convenience the
// parser expands from a templating construct; the lowerer still sees one
// RepeatTemplate node per occurrence rather than pre-unrolled statements,
// so it is represented in the AST like any other control node.
type RepeatTemplate struct {
	base
	Count int
	Body  *Block
}

func NewRepeatTemplate(pos token.Pos, count int, body *Block) *RepeatTemplate {
	n := &RepeatTemplate{base: base{pos: pos}, Count: count, Body: body}
	AddChild(n, body)
	return n
}

func (n *RepeatTemplate) Children() []Node { return []Node{n.Body} }
func (n *RepeatTemplate) Walk(v Visitor)   { Walk(v, n.Body) }
func (n *RepeatTemplate) String() string   { return fmt.Sprintf("repeat %d", n.Count) }

// UnitPropertiesField names one of the fixed CUWP property fields.
type UnitPropertiesField string

const (
	PropHP            UnitPropertiesField = "hp"
	PropShields       UnitPropertiesField = "shields"
	PropEnergy        UnitPropertiesField = "energy"
	PropResourceAmt   UnitPropertiesField = "resource_amount"
	PropHangarCount   UnitPropertiesField = "hangar_count"
	PropCloak         UnitPropertiesField = "cloak"
	PropBurrow        UnitPropertiesField = "burrow"
	PropInTransit     UnitPropertiesField = "in_transit"
	PropHallucination UnitPropertiesField = "hallucinated"
	PropInvincible    UnitPropertiesField = "invincible"
)

// UnitPropertiesDecl is a top-level `unitproperties NAME { field: value, ... }`
// declaration; it claims the next free CUWP slot during lowering phase A.
type UnitPropertiesDecl struct {
	base
	Name       string
	UnitType   string
	FieldNames []UnitPropertiesField
	FieldVals  []Node
}

func NewUnitPropertiesDecl(pos token.Pos, name, unitType string, names []UnitPropertiesField, vals []Node) *UnitPropertiesDecl {
	n := &UnitPropertiesDecl{base: base{pos: pos}, Name: name, UnitType: unitType, FieldNames: names, FieldVals: vals}
	AddChildren(n, vals...)
	return n
}

func (n *UnitPropertiesDecl) Children() []Node { return n.FieldVals }
func (n *UnitPropertiesDecl) Walk(v Visitor) {
	for _, f := range n.FieldVals {
		Walk(v, f)
	}
}
func (n *UnitPropertiesDecl) String() string {
	return fmt.Sprintf("unitproperties %s : %s", n.Name, n.UnitType)
}
