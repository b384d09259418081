// Package token provides lightweight source-position tracking shared by the
// AST, the diagnostics package, and the compiler. The lexer and parser that
// produce positions are out of scope for this module; token only needs to
// let a stored byte offset be turned back into a line:col pair on demand.
package token

// Pos is a byte offset into the source text of a File. The zero value means
// "no position".
type Pos int

// NoPos is the zero value of Pos, meaning "unknown position".
const NoPos Pos = 0

// IsValid reports whether the position is known.
func (p Pos) IsValid() bool { return p != NoPos }
