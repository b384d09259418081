package lower

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/diag"
	"github.com/mna/umscript/lang/ir"
)

// lowerCall dispatches a call expression to either the closed intrinsic
// table or user-function inlining (spec.md §4.2 "Function calls"). When
// asStmt is true the call appears in statement position (lowerExprStmt);
// a value a user function pushes but the caller never consumes is popped
// and discarded.
func (l *Lowerer) lowerCall(call *ast.CallExpr, asStmt bool) error {
	if fd, ok := l.funcs[call.Callee]; ok {
		return l.lowerUserCall(call, fd, asStmt)
	}
	if handler, ok := intrinsics[call.Callee]; ok {
		return handler(l, call, asStmt)
	}
	return l.fail(diag.Semantic, call, "unrecognized intrinsic or function %q (known intrinsics: %s)",
		call.Callee, strings.Join(sortedIntrinsicNames(), ", "))
}

// sortedIntrinsicNames lists every closed-table intrinsic name, sorted, for
// the "unrecognized intrinsic" diagnostic above.
func sortedIntrinsicNames() []string {
	names := maps.Keys(intrinsics)
	sort.Strings(names)
	return names
}

type intrinsicFn func(l *Lowerer, call *ast.CallExpr, asStmt bool) error

// intrinsics is the closed table of spec.md §4.2's engine actions. Every
// name in the spec's enumeration has an entry; none are a representative
// subset.
var intrinsics = map[string]intrinsicFn{
	"poll_events":           (*Lowerer).lowerPollEvents,
	"clear_buffered_events": (*Lowerer).lowerClearBufferedEvents,
	"debugger":              (*Lowerer).lowerDebuggerNoop,
	"is_present":            (*Lowerer).lowerIsPresent,
	"rnd256":                (*Lowerer).lowerRandom,
	"random":                (*Lowerer).lowerRandom,
	"set_vision":            actionPlayerRegOrImm(ir.SETVISION),
	"end":                   actionPlayerEndGame,
	"set_resource":          actionResource(ir.SETRESOURCE),
	"add_resource":          actionResource(ir.ADDRESOURCE),
	"take_resource":         actionResource(ir.TAKERESOURCE),
	"set_score":             actionScore(ir.SETSCORE),
	"add_score":             actionScore(ir.ADDSCORE),
	"subtract_score":        actionScore(ir.SUBSCORE),
	"set_countdown":         actionRegOrImmOnly(ir.SETCOUNTDOWN),
	"add_countdown":         actionRegOrImmOnly(ir.ADDCOUNTDOWN),
	"sub_countdown":         actionRegOrImmOnly(ir.SUBCOUNTDOWN),
	"pause_countdown":       actionNoArgs(ir.PAUSECOUNTDOWN),
	"unpause_countdown":     actionNoArgs(ir.UNPAUSECOUNTDOWN),
	"mute_unit_speech":      actionNoArgs(ir.MUTEUNITSPEECH),
	"unmute_unit_speech":    actionNoArgs(ir.UNMUTEUNITSPEECH),
	"set_deaths":            actionPlayerUnitRegOrImm(ir.SETDEATHS),
	"add_deaths":            actionPlayerUnitRegOrImm(ir.ADDDEATHS),
	"remove_deaths":         actionPlayerUnitRegOrImm(ir.REMOVEDEATHS),
	"talking_portrait":      actionTalkingPortrait,
	"set_doodad":            actionPlayerUnitLocationRegOrImm(ir.SETDOODAD),
	"set_invincibility":     actionPlayerUnitLocationRegOrImm(ir.SETINVINCIBILITY),
	"run_ai_script":         actionRunAIScript,
	"set_alliance":          actionAlliance,
	"set_mission_objectives": actionString(ir.SETMISSIONOBJ),
	"pause_game":            actionNoArgs(ir.PAUSEGAME),
	"unpause_game":          actionNoArgs(ir.UNPAUSEGAME),
	"set_next_scenario":     actionString(ir.SETNEXTSCENARIO),
	"show_leaderboard":      actionLeaderboard(ir.SHOWLEADERBOARD),
	"show_leaderboard_goal": actionLeaderboard(ir.SHOWLEADERBOARDGOAL),
	"leaderboard_show_cpu":  actionRegOrImmOnly(ir.LEADERBOARDSHOWCPU),
	"center_view":           actionPlayerLocation(ir.CENTERVIEW),
	"ping":                  actionPlayerLocation(ir.PING),
	"print":                 actionPrint,
	"sleep":                 actionRegOrImmOnly(ir.SLEEP),
	"spawn":                 actionSpawn,
	"kill":                  actionPlayerUnitRegOrImmLocation(ir.KILL),
	"remove":                actionPlayerUnitRegOrImmLocation(ir.REMOVE),
	"move":                  actionMove,
	"order":                 actionOrder,
	"modify":                actionModify,
	"give":                  actionGive,
	"move_loc":              actionMoveLoc,
	"play_sound":            actionPlaySound,
}

// ---- argument accessors ----

func (l *Lowerer) needArgs(call *ast.CallExpr, n int) error {
	if len(call.Args) != n {
		return l.fail(diag.Semantic, call, "%s: expected %d argument(s), got %d", call.Callee, n, len(call.Args))
	}
	return nil
}

func (l *Lowerer) needArgsRange(call *ast.CallExpr, min, max int) error {
	if len(call.Args) < min || len(call.Args) > max {
		return l.fail(diag.Semantic, call, "%s: expected %d to %d argument(s), got %d", call.Callee, min, max, len(call.Args))
	}
	return nil
}

func (l *Lowerer) identFromSet(call *ast.CallExpr, i int, set map[string]bool, what string) (string, error) {
	id, ok := call.Args[i].(*ast.Ident)
	if !ok {
		return "", l.fail(diag.Semantic, call.Args[i], "%s: argument %d (%s) must be an identifier", call.Callee, i, what)
	}
	if !isValidIdent(set, id.Name) {
		return "", l.fail(diag.Semantic, call.Args[i], "%s: %q is not a recognized %s", call.Callee, id.Name, what)
	}
	return id.Name, nil
}

func (l *Lowerer) stringOrIdentArg(call *ast.CallExpr, i int) (string, error) {
	switch v := call.Args[i].(type) {
	case *ast.StringLit:
		return v.Value, nil
	case *ast.Ident:
		return v.Name, nil
	default:
		return "", l.fail(diag.Semantic, call.Args[i], "%s: argument %d must be a string or identifier", call.Callee, i)
	}
}

func (l *Lowerer) stringArg(call *ast.CallExpr, i int) (string, error) {
	s, ok := call.Args[i].(*ast.StringLit)
	if !ok {
		return "", l.fail(diag.Semantic, call.Args[i], "%s: argument %d must be a string literal", call.Callee, i)
	}
	return s.Value, nil
}

// regOrImmArg lowers an expression argument that may fold to a literal
// (encoded directly as Imm) or otherwise is evaluated at runtime into
// scratch.
func (l *Lowerer) regOrImmArg(call *ast.CallExpr, i, scratch int) (reg int, imm int64, err error) {
	if lit, ok := call.Args[i].(*ast.NumberLit); ok {
		return 0, lit.Value, nil
	}
	reg, err = l.popInto(call.Args[i], scratch)
	return reg, 0, err
}

// ---- intrinsics with bespoke semantics ----

func (l *Lowerer) lowerPollEvents(call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 0); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.SETSW, Switch: ir.SwitchEventsMutex, Node: call})
	for _, ed := range l.events {
		sw := l.eventSwitch[ed]
		skip := l.emit(ir.Instr{Op: ir.JNSW, Switch: sw})
		if err := l.lowerBlock(ed.Body); err != nil {
			return err
		}
		l.emit(ir.Instr{Op: ir.CLEARSW, Switch: sw})
		l.patch(skip, l.here())
	}
	l.emit(ir.Instr{Op: ir.CLEARSW, Switch: ir.SwitchEventsMutex, Node: call})
	return nil
}

func (l *Lowerer) lowerClearBufferedEvents(call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 0); err != nil {
		return err
	}
	for _, ed := range l.events {
		l.emit(ir.Instr{Op: ir.CLEARSW, Switch: l.eventSwitch[ed], Node: call})
	}
	return nil
}

// lowerDebuggerNoop accepts debugger() calls from the source language
// (the debugger collaborator itself is out of core, spec.md §1) without
// producing any trigger-visible effect.
func (l *Lowerer) lowerDebuggerNoop(call *ast.CallExpr, _ bool) error {
	l.emit(ir.Instr{Op: ir.NOP, Node: call})
	return nil
}

func (l *Lowerer) lowerIsPresent(call *ast.CallExpr, asStmt bool) error {
	if err := l.needArgs(call, 1); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	idx, ok := playerIndex(player)
	if !ok {
		return l.fail(diag.Semantic, call, "is_present: %q has no presence switch", player)
	}

	l.emit(ir.Instr{Op: ir.PUSH, Imm: 0})
	jmp := l.emit(ir.Instr{Op: ir.JNSW, Switch: ir.SwitchPlayerPresentBase + idx})
	l.emit(ir.Instr{Op: ir.SETSTACKTOP, Imm: 1})
	l.patch(jmp, l.here())
	if asStmt {
		l.emit(ir.Instr{Op: ir.POP, Reg: ir.RegScratch1})
	}
	return nil
}

func (l *Lowerer) lowerRandom(call *ast.CallExpr, asStmt bool) error {
	if err := l.needArgs(call, 0); err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.RND256, Reg: ir.RegScratch1, Node: call})
	l.emit(ir.Instr{Op: ir.PUSH, Reg: ir.RegScratch1})
	if asStmt {
		l.emit(ir.Instr{Op: ir.POP, Reg: ir.RegScratch1})
	}
	return nil
}

func playerIndex(name string) (int, bool) {
	for i := 1; i <= 12; i++ {
		if name == fmt.Sprintf("Player%d", i) {
			return i - 1, true
		}
	}
	return 0, false
}

// ---- table-driven action builders ----
//
// Each of these returns an intrinsicFn closure that validates arguments
// against a fixed shape and emits a single engine-action Instr; the
// closure form keeps the table above declarative while avoiding one
// hand-written function per nearly-identical action (spec.md §4.2's
// intrinsic table is large but most entries share one of a handful of
// argument shapes).

func actionNoArgs(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 0); err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Node: call})
		return nil
	}
}

func actionRegOrImmOnly(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 1); err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 0, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Reg: reg, Imm: imm, Node: call})
		return nil
	}
}

func actionPlayerRegOrImm(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 2); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 1, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, Reg: reg, Imm: imm, Node: call})
		return nil
	}
}

func actionPlayerEndGame(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 2); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	kind, err := l.identFromSet(call, 1, endGameKinds, "end-game disposition")
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.END, Player: player, EndGame: kind, Node: call})
	return nil
}

func actionResource(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 3); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		kind, err := l.identFromSet(call, 1, resourceKinds, "resource kind")
		if err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, Resource: kind, Reg: reg, Imm: imm, Node: call})
		return nil
	}
}

func actionScore(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 3); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		kind, err := l.identFromSet(call, 1, scoreKinds, "score kind")
		if err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, Score: kind, Reg: reg, Imm: imm, Node: call})
		return nil
	}
}

func actionPlayerUnitRegOrImm(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 3); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
		if err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, UnitType: unit, Reg: reg, Imm: imm, Node: call})
		return nil
	}
}

func actionPlayerUnitRegOrImmLocation(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 4); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
		if err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
		if err != nil {
			return err
		}
		loc, err := l.stringOrIdentArg(call, 3)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, UnitType: unit, Reg: reg, Imm: imm, Location: loc, Node: call})
		return nil
	}
}

func actionTalkingPortrait(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 2); err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 0, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	reg, imm, err := l.regOrImmArg(call, 1, ir.RegScratch1)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.TALKINGPORTRAIT, UnitType: unit, Reg: reg, Imm: imm, Node: call})
	return nil
}

func actionPlayerUnitLocationRegOrImm(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 4); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
		if err != nil {
			return err
		}
		loc, err := l.stringOrIdentArg(call, 2)
		if err != nil {
			return err
		}
		reg, imm, err := l.regOrImmArg(call, 3, ir.RegScratch1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, UnitType: unit, Location: loc, Reg: reg, Imm: imm, Node: call})
		return nil
	}
}

func actionRunAIScript(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgsRange(call, 1, 2); err != nil {
		return err
	}
	script, err := l.stringOrIdentArg(call, 0)
	if err != nil {
		return err
	}
	ins := ir.Instr{Op: ir.RUNAISCRIPT, Arg: script, Node: call}
	if len(call.Args) == 2 {
		loc, err := l.stringOrIdentArg(call, 1)
		if err != nil {
			return err
		}
		ins.Location = loc
	}
	l.emit(ins)
	return nil
}

func actionAlliance(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 2); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	kind, err := l.identFromSet(call, 1, allianceKinds, "alliance kind")
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.SETALLIANCE, Player: player, Alliance: kind, Node: call})
	return nil
}

func actionString(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 1); err != nil {
			return err
		}
		s, err := l.stringArg(call, 0)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Arg: s, Node: call})
		return nil
	}
}

func actionLeaderboard(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgsRange(call, 1, 2); err != nil {
			return err
		}
		kind, err := l.identFromSet(call, 0, leaderboardKinds, "leaderboard kind")
		if err != nil {
			return err
		}
		ins := ir.Instr{Op: op, Leaderboard: kind, Node: call}
		if len(call.Args) == 2 {
			reg, imm, err := l.regOrImmArg(call, 1, ir.RegScratch1)
			if err != nil {
				return err
			}
			ins.Reg, ins.Imm = reg, imm
		}
		l.emit(ins)
		return nil
	}
}

func actionPlayerLocation(op ir.Opcode) intrinsicFn {
	return func(l *Lowerer, call *ast.CallExpr, _ bool) error {
		if err := l.needArgs(call, 2); err != nil {
			return err
		}
		player, err := l.identFromSet(call, 0, playerNames, "player")
		if err != nil {
			return err
		}
		loc, err := l.stringOrIdentArg(call, 1)
		if err != nil {
			return err
		}
		l.emit(ir.Instr{Op: op, Player: player, Location: loc, Node: call})
		return nil
	}
}

func actionPrint(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 1); err != nil {
		return err
	}
	s, err := l.stringArg(call, 0)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.DISPLAYMSG, Arg: s, Node: call})
	return nil
}

func actionSpawn(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgsRange(call, 4, 5); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
	if err != nil {
		return err
	}
	loc, err := l.stringOrIdentArg(call, 3)
	if err != nil {
		return err
	}
	ins := ir.Instr{Op: ir.SPAWN, Player: player, UnitType: unit, Reg: reg, Imm: imm, Location: loc, Reg2: -1, Node: call}
	if len(call.Args) == 5 {
		slot, ok := call.Args[4].(*ast.NumberLit)
		if !ok {
			return l.fail(diag.Semantic, call.Args[4], "spawn: CUWP slot must be a compile-time constant")
		}
		ins.Reg2 = int(slot.Value)
	}
	l.emit(ins)
	return nil
}

func actionMove(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 5); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
	if err != nil {
		return err
	}
	src, err := l.stringOrIdentArg(call, 3)
	if err != nil {
		return err
	}
	dst, err := l.stringOrIdentArg(call, 4)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.MOVE, Player: player, UnitType: unit, Reg: reg, Imm: imm, Location: src, Arg: dst, Node: call})
	return nil
}

func actionOrder(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 4); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	src, err := l.stringOrIdentArg(call, 2)
	if err != nil {
		return err
	}
	dst, err := l.stringOrIdentArg(call, 3)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.ORDER, Player: player, UnitType: unit, Location: src, Arg: dst, Node: call})
	return nil
}

// actionModify handles `modify(player, unitType, qty, location, target,
// amount)`: the amount operand is restricted to a compile-time constant,
// stashed in the otherwise-unused Score field as its decimal text, since
// Instr carries only one Reg/Imm pair and qty already claims it.
func actionModify(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 6); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	reg, imm, err := l.regOrImmArg(call, 2, ir.RegScratch1)
	if err != nil {
		return err
	}
	loc, err := l.stringOrIdentArg(call, 3)
	if err != nil {
		return err
	}
	target, err := l.identFromSet(call, 4, modifyTargets, "modify target")
	if err != nil {
		return err
	}
	amount, ok := call.Args[5].(*ast.NumberLit)
	if !ok {
		return l.fail(diag.Semantic, call.Args[5], "modify: amount must be a compile-time constant")
	}
	l.emit(ir.Instr{
		Op: ir.MODIFY, Player: player, UnitType: unit, Reg: reg, Imm: imm,
		Location: loc, ModifyTarget: target, Score: fmt.Sprintf("%d", amount.Value), Node: call,
	})
	return nil
}

func actionGive(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 5); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	newOwner, err := l.identFromSet(call, 1, playerNames, "player")
	if err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 2, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	reg, imm, err := l.regOrImmArg(call, 3, ir.RegScratch1)
	if err != nil {
		return err
	}
	loc, err := l.stringOrIdentArg(call, 4)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.GIVE, Player: player, Arg: newOwner, UnitType: unit, Reg: reg, Imm: imm, Location: loc, Node: call})
	return nil
}

func actionMoveLoc(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgs(call, 4); err != nil {
		return err
	}
	player, err := l.identFromSet(call, 0, playerNames, "player")
	if err != nil {
		return err
	}
	unit, err := l.identFromSet(call, 1, unitTypeNames, "unit type")
	if err != nil {
		return err
	}
	src, err := l.stringOrIdentArg(call, 2)
	if err != nil {
		return err
	}
	dst, err := l.stringOrIdentArg(call, 3)
	if err != nil {
		return err
	}
	l.emit(ir.Instr{Op: ir.MOVELOC, Player: player, UnitType: unit, Location: src, Arg: dst, Node: call})
	return nil
}

// actionPlaySound preserves the source compiler's documented defect
// (spec.md §9's open question): when a player argument is present,
// argument 0 is used both as the wav file name and as the player id.
func actionPlaySound(l *Lowerer, call *ast.CallExpr, _ bool) error {
	if err := l.needArgsRange(call, 1, 2); err != nil {
		return err
	}
	wav, err := l.stringOrIdentArg(call, 0)
	if err != nil {
		return err
	}
	ins := ir.Instr{Op: ir.PLAYSOUND, Arg: wav, Node: call}
	if len(call.Args) == 2 {
		player, err := l.stringOrIdentArg(call, 0) // argument 0 again, not 1: see above
		if err != nil {
			return err
		}
		ins.Player = player
		reg, imm, err := l.regOrImmArg(call, 1, ir.RegScratch1)
		if err != nil {
			return err
		}
		ins.Reg, ins.Imm = reg, imm
	}
	l.emit(ins)
	return nil
}

// ---- user-defined function inlining ----

// lowerUserCall evaluates each argument left-to-right, pops them into the
// callee's parameter registers, then inlines the function body (spec.md
// §4.2 "For user-defined calls"). Every return site's jump is patched to
// the instruction following the inlined body, matching the function's
// single logical epilogue.
func (l *Lowerer) lowerUserCall(call *ast.CallExpr, fd *ast.FuncDecl, asStmt bool) error {
	if len(call.Args) != len(fd.Params) {
		return l.fail(diag.Semantic, call, "%s: expected %d argument(s), got %d", call.Callee, len(fd.Params), len(call.Args))
	}
	for i, arg := range call.Args {
		if err := l.lowerExpr(arg); err != nil {
			return err
		}
		id, err := l.Regs.GetAlias(fd.Params[i], 0, fd)
		if err != nil {
			return l.fail(diag.Semantic, call, "%s: parameter %q: %v", call.Callee, fd.Params[i], err)
		}
		l.emit(ir.Instr{Op: ir.POP, Reg: realReg(id), Node: call})
	}

	savedPatches := l.returnPatches
	l.returnPatches = nil

	l.emit(ir.Instr{Op: ir.FUNCSTART, Node: fd})
	if err := l.lowerBlock(fd.Body); err != nil {
		return err
	}

	epilogue := l.here()
	for _, idx := range l.returnPatches {
		l.patch(idx, epilogue)
	}
	l.returnPatches = savedPatches

	if asStmt && funcReturnsValue(fd) {
		l.emit(ir.Instr{Op: ir.POP, Reg: ir.RegScratch1})
	}
	return nil
}

// funcReturnsValue reports whether any return statement in fd's body
// carries a value, used to decide whether a statement-context call must
// discard an unused pushed result (spec.md §4.2: "if the caller ignores a
// value returned by a final push, a pop is inserted").
func funcReturnsValue(fd *ast.FuncDecl) bool {
	found := false
	ast.Walk(ast.VisitorFunc(func(n ast.Node) bool {
		if found {
			return false
		}
		if rs, ok := n.(*ast.ReturnStmt); ok && rs.Value != nil {
			found = true
			return false
		}
		return true
	}), fd.Body)
	return found
}
