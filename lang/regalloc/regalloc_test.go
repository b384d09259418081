package regalloc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/umscript/lang/ast"
	"github.com/mna/umscript/lang/regalloc"
)

func TestAllocateDisjointAndReuse(t *testing.T) {
	s := regalloc.New()
	a := s.Allocate("a", 1, nil)
	b := s.Allocate("b", 2, nil)
	require.NotEqual(t, a[0], b[0])
	require.NotEqual(t, a[0], b[1])

	s.Deallocate("a", nil)
	c := s.Allocate("c", 1, nil)
	require.Equal(t, a[0], c[0], "reallocation should draw from the free list first")
}

func TestFreeListDrawsFromFreedSet(t *testing.T) {
	s := regalloc.New()
	ids := s.Allocate("abc", 3, nil)
	s.Deallocate("abc", nil)

	next := s.Allocate("d", 3, nil)
	require.ElementsMatch(t, ids, next, "next allocation of count<=3 must draw entirely from the freed set")
}

func TestScopeShadowing(t *testing.T) {
	s := regalloc.New()
	s.Allocate("x", 1, nil) // global

	fn := ast.NewFuncDecl(0, "main", nil, ast.NewBlock(0, nil))
	inFn := ast.NewBlock(0, nil)
	ast.AddChild(fn, inFn)

	local := s.Allocate("x", 1, inFn)
	global, err := s.GetAlias("x", 0, nil)
	require.NoError(t, err)

	resolved, err := s.GetAlias("x", 0, inFn)
	require.NoError(t, err)
	require.Equal(t, local[0], resolved)
	require.NotEqual(t, global, resolved)
}

func TestGetAliasErrors(t *testing.T) {
	s := regalloc.New()
	s.Allocate("scalar", 1, nil)
	s.Allocate("arr", 4, nil)

	_, err := s.GetAlias("scalar", 1, nil)
	require.ErrorIs(t, err, regalloc.ErrInvalidRegister)

	_, err = s.GetAlias("arr", 10, nil)
	require.ErrorIs(t, err, regalloc.ErrOutOfBounds)

	_, err = s.GetAlias("missing", 0, nil)
	require.ErrorIs(t, err, regalloc.ErrInvalidRegister)
}

func TestAliasesInScopeDeterministicOrder(t *testing.T) {
	s := regalloc.New()
	s.Allocate("zeta", 1, nil)
	s.Allocate("alpha", 1, nil)

	aliases := s.AliasesInScope(nil)
	require.Len(t, aliases, 2)
	require.Equal(t, "alpha", aliases[0].Name)
	require.Equal(t, "zeta", aliases[1].Name)
}
