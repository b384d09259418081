package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/umscript/lang/token"
)

func TestFilePosition(t *testing.T) {
	src := []byte("global x = 5;\nfn main() {\n  x = x + 1;\n}\n")
	var fset token.FileSet
	f := fset.AddFile("script.ums", src)

	pos := f.Pos(14) // 'f' of "fn main"
	got := fset.Position(pos)
	require.Equal(t, "script.ums", got.Filename)
	require.Equal(t, 2, got.Line)
	require.Equal(t, 1, got.Column)
}

func TestFileSetDisjointRanges(t *testing.T) {
	var fset token.FileSet
	f1 := fset.AddFile("a.ums", []byte("abc\n"))
	f2 := fset.AddFile("b.ums", []byte("xyz\n"))

	require.Same(t, f1, fset.File(f1.Pos(0)))
	require.Same(t, f2, fset.File(f2.Pos(0)))
	require.NotEqual(t, f1.Pos(0), f2.Pos(0))
}
