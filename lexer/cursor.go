package lexer

import "github.com/gocpp-project/gocpp/token"

// cursor walks a byte slice while tracking source Location and
// transparently splicing "\<spaces><newline>" line-continuation
// sequences out of the logical byte stream.
type cursor struct {
	src  []byte
	pos  int
	loc  token.Location
	file int

	splices []splice // recorded for PORTABILITY_BACKSLASH reporting
}

type splice struct {
	loc      token.Location
	hadSpace bool
}

func newCursor(file int, src []byte) *cursor {
	return &cursor{src: src, loc: token.Location{File: file, Line: 1, Col: 0}, file: file}
}

func (c *cursor) eof() bool { return c.pos >= len(c.src) }

// raw returns the byte at pos+off without splicing or bounds panics.
func (c *cursor) raw(off int) (byte, bool) {
	i := c.pos + off
	if i < 0 || i >= len(c.src) {
		return 0, false
	}
	return c.src[i], true
}

// advanceRaw consumes exactly one raw byte, updating loc, without any
// splice detection. Used internally by trySplice.
func (c *cursor) advanceRaw() byte {
	b := c.src[c.pos]
	c.pos++
	switch b {
	case '\r':
		if c.pos < len(c.src) && c.src[c.pos] == '\n' {
			c.pos++
		}
		c.loc.Line++
		c.loc.Col = 0
	case '\n':
		c.loc.Line++
		c.loc.Col = 0
	default:
		c.loc.Col++
	}
	return b
}

// trySplice consumes one backslash-newline continuation if present at the
// current position (optionally with intervening spaces/tabs), recording
// whether it should raise PORTABILITY_BACKSLASH. Returns true if it
// consumed anything.
func (c *cursor) trySplice() bool {
	if c.eof() || c.src[c.pos] != '\\' {
		return false
	}
	i := c.pos + 1
	hadSpace := false
	for i < len(c.src) && (c.src[i] == ' ' || c.src[i] == '\t') {
		hadSpace = true
		i++
	}
	if i >= len(c.src) {
		return false
	}
	if c.src[i] != '\n' && c.src[i] != '\r' {
		return false
	}
	loc := c.loc
	c.advanceRaw() // the backslash
	for c.pos < i {
		c.advanceRaw() // spaces/tabs
	}
	c.advanceRaw() // the newline (handles \r, \n, and \r\n as one unit)
	c.splices = append(c.splices, splice{loc: loc, hadSpace: hadSpace})
	return true
}

// skipSplices consumes all consecutive splices at the current position.
func (c *cursor) skipSplices() {
	for c.trySplice() {
	}
}

// peek returns the next logical byte (after skipping splices) without
// consuming it, and whether one exists.
func (c *cursor) peek() (byte, bool) {
	c.skipSplices()
	return c.raw(0)
}

// peekAt returns the logical byte n positions ahead of the current one,
// without splice-skipping beyond the current position (adequate for the
// lookahead depths this lexer needs, since splices inside a single token
// are rare and already handled by next() as it walks byte by byte).
func (c *cursor) peekAt(n int) (byte, bool) {
	return c.raw(n)
}

// next consumes and returns the next logical byte.
func (c *cursor) next() (byte, bool) {
	c.skipSplices()
	if c.eof() {
		return 0, false
	}
	return c.advanceRaw(), true
}

// location returns the location of the next logical byte (after
// splicing), i.e. where a token starting here would be placed.
func (c *cursor) location() token.Location {
	c.skipSplices()
	return c.loc
}
