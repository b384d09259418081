// Package regalloc implements the register alias store (spec.md §4.1, C1):
// a scope-aware allocator mapping named variables to a flat, reusable pool
// of numeric register indices, with free-list reuse on scope exit.
package regalloc

import (
	"fmt"
	"sort"

	"github.com/dolthub/swiss"

	"github.com/mna/umscript/lang/ast"
)

// ErrInvalidRegister and ErrOutOfBounds distinguish the two failure shapes
// spec.md §4.1 calls out for HasAlias/GetAlias.
var (
	ErrInvalidRegister = fmt.Errorf("invalid register name")
	ErrOutOfBounds      = fmt.Errorf("array access out of bounds")
)

// scope is a name -> register ids map, backed by a swiss table rather than
// a builtin map: the same structure the teacher's lang/machine package uses
// for its dynamic Value map, repurposed here to hold compiler-internal
// register bookkeeping instead of interpreted-program values.
type scope = swiss.Map[string, []int]

func newScope() *scope { return swiss.NewMap[string, []int](8) }

// Store is the register alias store. Use New to construct one; the zero
// value is not ready to use (its swiss maps are nil).
type Store struct {
	global *scope
	funcs  map[*ast.FuncDecl]*scope

	freeList []int
	nextID   int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		global: newScope(),
		funcs:  make(map[*ast.FuncDecl]*scope),
	}
}

// scopeFor returns the name->ids map enclosing node: the function scope if
// node is nested in a FuncDecl, else the global scope.
func (s *Store) scopeFor(node ast.Node) *scope {
	if fn := ast.Enclosing(node); fn != nil {
		m, ok := s.funcs[fn]
		if !ok {
			m = newScope()
			s.funcs[fn] = m
		}
		return m
	}
	return s.global
}

// Allocate assigns count fresh register ids to name in the scope enclosing
// node (global if node is not inside a function). If name is already
// allocated in that scope, its existing ids are first returned to the free
// list (overwrite semantics), then count ids are drawn, preferring reuse
// from the free list before incrementing the monotonic counter.
func (s *Store) Allocate(name string, count int, node ast.Node) []int {
	scope := s.scopeFor(node)
	if old, ok := scope.Get(name); ok {
		s.freeList = append(s.freeList, old...)
		scope.Delete(name)
	}

	ids := make([]int, count)
	for i := 0; i < count; i++ {
		ids[i] = s.nextRegister()
	}
	scope.Put(name, ids)
	return ids
}

func (s *Store) nextRegister() int {
	if n := len(s.freeList); n > 0 {
		id := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		return id
	}
	id := s.nextID
	s.nextID++
	return id
}

// Deallocate returns name's ids to the free list and removes the mapping
// from the scope enclosing node.
func (s *Store) Deallocate(name string, node ast.Node) {
	scope := s.scopeFor(node)
	if ids, ok := scope.Get(name); ok {
		s.freeList = append(s.freeList, ids...)
		scope.Delete(name)
	}
}

// resolve looks up name, consulting the function scope enclosing node
// first, then falling back to the global scope. ok is false if name is not
// bound in either scope.
func (s *Store) resolve(name string, node ast.Node) (ids []int, ok bool) {
	if fn := ast.Enclosing(node); fn != nil {
		if m, found := s.funcs[fn]; found {
			if ids, ok = m.Get(name); ok {
				return ids, true
			}
		}
	}
	ids, ok = s.global.Get(name)
	return ids, ok
}

// HasAlias reports whether name is bound (in the scope enclosing node) with
// a valid element at index.
func (s *Store) HasAlias(name string, index int, node ast.Node) bool {
	ids, ok := s.resolve(name, node)
	if !ok {
		return false
	}
	return index >= 0 && index < len(ids)
}

// GetAlias resolves name's register id at index, consulting the enclosing
// function scope first then the global scope. An out-of-range index fails
// with ErrInvalidRegister for a scalar (len==1) binding, or ErrOutOfBounds
// for an array binding (len>1), per spec.md §4.1.
func (s *Store) GetAlias(name string, index int, node ast.Node) (int, error) {
	ids, ok := s.resolve(name, node)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrInvalidRegister, name)
	}
	if index < 0 || index >= len(ids) {
		if len(ids) <= 1 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidRegister, name)
		}
		return 0, fmt.Errorf("%w: %s[%d]", ErrOutOfBounds, name, index)
	}
	return ids[index], nil
}

// Alias pairs a variable name with its register ids, for debug-frame
// snapshots (AliasesInScope).
type Alias struct {
	Name string
	IDs  []int
}

// AliasesInScope enumerates the bindings visible at node: its enclosing
// function scope (if any) followed by the global scope, each in
// deterministic, name-sorted order so that debug-frame snapshots and
// golden-file tests are stable across runs.
func (s *Store) AliasesInScope(node ast.Node) []Alias {
	var out []Alias
	if fn := ast.Enclosing(node); fn != nil {
		if m, ok := s.funcs[fn]; ok {
			out = append(out, sortedAliases(m)...)
		}
	}
	out = append(out, sortedAliases(s.global)...)
	return out
}

func sortedAliases(m *scope) []Alias {
	names := make([]string, 0, m.Count())
	m.Iter(func(k string, _ []int) bool {
		names = append(names, k)
		return false
	})
	sort.Strings(names)

	out := make([]Alias, len(names))
	for i, n := range names {
		ids, _ := m.Get(n)
		out[i] = Alias{Name: n, IDs: append([]int(nil), ids...)}
	}
	return out
}
