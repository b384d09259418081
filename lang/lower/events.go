package lower

import (
	"fmt"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
)

// phaseB implements spec.md §4.2 phase B: assign each event declaration a
// fresh switch id and emit its EVNT marker followed by one COND per
// clause. Event bodies are not lowered here; they are inlined at every
// poll_events() call site encountered during phase C (see calls.go).
func (l *Lowerer) phaseB(unit *ast.Unit) error {
	for _, decl := range unit.Decls {
		ed, ok := decl.(*ast.EventDecl)
		if !ok {
			continue
		}
		if len(ed.Conditions) > l.Limits.MaxEventConditions {
			return l.fail(diag.Capacity, ed, "event has %d conditions, limit is %d", len(ed.Conditions), l.Limits.MaxEventConditions)
		}
		sw := l.nextSwitch
		l.nextSwitch++
		l.eventSwitch[ed] = sw
		l.events = append(l.events, ed)

		l.emit(ir.Instr{Op: ir.EVNT, Switch: sw, Imm: int64(len(ed.Conditions)), Node: ed})
		for _, cond := range ed.Conditions {
			ins, err := l.lowerEventCondition(cond)
			if err != nil {
				return err
			}
			l.emit(ins)
		}
	}
	return nil
}

// lowerEventCondition validates one clause's operand shapes per spec.md
// §4.2's condition-kind table and produces a generic COND instruction
// carrying the kind and its stringified operands; the assembler (lang/
// assembler/events.go) interprets Args according to Kind.
func (l *Lowerer) lowerEventCondition(c *ast.EventCondition) (ir.Instr, error) {
	ins := ir.Instr{Op: ir.COND, Arg: c.Kind, Node: c}

	switch c.Kind {
	case "elapsed_time", "countdown":
		// (Comparison, quantity)
		if len(c.Args) != 2 {
			return ins, l.fail(diag.Semantic, c, "%s: expected 2 arguments, got %d", c.Kind, len(c.Args))
		}
		cmp, err := l.argComparison(c, 0)
		if err != nil {
			return ins, err
		}
		qty, err := l.argQuantity(c, 1)
		if err != nil {
			return ins, err
		}
		ins.Args = []string{cmp, qty}

	case "opponents":
		// (player)
		player, err := l.argPlayer(c, 0)
		if err != nil {
			return ins, err
		}
		ins.Args = []string{player}

	case "score", "lowest_score", "highest_score":
		player, err := l.argPlayer(c, 0)
		if err != nil {
			return ins, err
		}
		kind, err := l.argFromSet(c, 1, scoreKinds, "score kind")
		if err != nil {
			return ins, err
		}
		args := []string{player, kind}
		if c.Kind == "score" {
			cmp, err := l.argComparison(c, 2)
			if err != nil {
				return ins, err
			}
			qty, err := l.argQuantity(c, 3)
			if err != nil {
				return ins, err
			}
			args = append(args, cmp, qty)
		}
		ins.Args = args

	case "accumulated_resources", "least_resources", "most_resources":
		player, err := l.argPlayer(c, 0)
		if err != nil {
			return ins, err
		}
		kind, err := l.argFromSet(c, 1, resourceKinds, "resource kind")
		if err != nil {
			return ins, err
		}
		args := []string{player, kind}
		if c.Kind == "accumulated_resources" {
			cmp, err := l.argComparison(c, 2)
			if err != nil {
				return ins, err
			}
			qty, err := l.argQuantity(c, 3)
			if err != nil {
				return ins, err
			}
			args = append(args, cmp, qty)
		}
		ins.Args = args

	case "bring", "commands", "killed", "deaths", "least_commands",
		"most_commands", "least_kills", "most_kills":
		// (player, comparison, quantity, unit-type[, location])
		player, err := l.argPlayer(c, 0)
		if err != nil {
			return ins, err
		}
		args := []string{player}
		next := 1
		if c.Kind != "least_commands" && c.Kind != "most_commands" && c.Kind != "least_kills" && c.Kind != "most_kills" {
			cmp, err := l.argComparison(c, next)
			if err != nil {
				return ins, err
			}
			qty, err := l.argQuantity(c, next+1)
			if err != nil {
				return ins, err
			}
			args = append(args, cmp, qty)
			next += 2
		}
		unit, err := l.argFromSet(c, next, unitTypeNames, "unit type")
		if err != nil {
			return ins, err
		}
		args = append(args, unit)
		if c.Kind == "bring" {
			loc, err := l.argLocation(c, next+1)
			if err != nil {
				return ins, err
			}
			args = append(args, loc)
		}
		ins.Args = args

	default:
		return ins, l.fail(diag.Semantic, c, "unrecognized event condition %q", c.Kind)
	}
	return ins, nil
}

func (l *Lowerer) argPlayer(c *ast.EventCondition, i int) (string, error) {
	return l.argFromSet(c, i, playerNames, "player")
}

func (l *Lowerer) argLocation(c *ast.EventCondition, i int) (string, error) {
	if i >= len(c.Args) {
		return "", l.fail(diag.Semantic, c, "%s: missing location argument", c.Kind)
	}
	switch v := c.Args[i].(type) {
	case *ast.Ident:
		return v.Name, nil
	case *ast.StringLit:
		return v.Value, nil
	default:
		return "", l.fail(diag.Semantic, c.Args[i], "%s: location must be a string or identifier", c.Kind)
	}
}

func (l *Lowerer) argComparison(c *ast.EventCondition, i int) (string, error) {
	if i >= len(c.Args) {
		return "", l.fail(diag.Semantic, c, "%s: missing comparison argument", c.Kind)
	}
	id, ok := c.Args[i].(*ast.Ident)
	if !ok {
		return "", l.fail(diag.Semantic, c.Args[i], "%s: comparison must be an identifier", c.Kind)
	}
	if _, ok := comparisonSynonyms[id.Name]; !ok {
		return "", l.fail(diag.Semantic, c.Args[i], "%s: %q is not a recognized comparison keyword", c.Kind, id.Name)
	}
	return id.Name, nil
}

// argQuantity accepts a number literal, or the identifier "All" (the
// sentinel meaning 0, spec.md §4.2).
func (l *Lowerer) argQuantity(c *ast.EventCondition, i int) (string, error) {
	if i >= len(c.Args) {
		return "", l.fail(diag.Semantic, c, "%s: missing quantity argument", c.Kind)
	}
	switch v := c.Args[i].(type) {
	case *ast.NumberLit:
		return fmt.Sprintf("%d", v.Value), nil
	case *ast.Ident:
		if v.Name == "All" {
			return "0", nil
		}
	}
	return "", l.fail(diag.Semantic, c.Args[i], "%s: quantity must be a number literal or \"All\"", c.Kind)
}

func (l *Lowerer) argFromSet(c *ast.EventCondition, i int, set map[string]bool, what string) (string, error) {
	if i >= len(c.Args) {
		return "", l.fail(diag.Semantic, c, "%s: missing %s argument", c.Kind, what)
	}
	id, ok := c.Args[i].(*ast.Ident)
	if !ok {
		return "", l.fail(diag.Semantic, c.Args[i], "%s: %s must be an identifier", c.Kind, what)
	}
	if !isValidIdent(set, id.Name) {
		return "", l.fail(diag.Semantic, c.Args[i], "%s: %q is not a recognized %s", c.Kind, id.Name, what)
	}
	return id.Name, nil
}
