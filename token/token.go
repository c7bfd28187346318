package token

// Token is a single lexical unit. Classification flags (Name, Number,
// Comment, Op) are derived from Str and recomputed atomically whenever Str
// is replaced, per the "replace rather than mutate" discipline: callers
// change a token's text only through SetStr, never by touching a field
// that flags() depends on directly.
type Token struct {
	str string

	// Macro names the macro whose expansion produced this token, or "" if
	// the token came straight from source text.
	Macro string

	Location Location

	Previous *Token
	Next     *Token

	name    bool
	number  bool
	comment bool
	op      byte // single ASCII char when len(str)==1, else 0
}

// New creates a detached token (Previous/Next nil) for str at loc.
func New(str string, loc Location) *Token {
	t := &Token{Location: loc}
	t.SetStr(str)
	return t
}

// Str returns the token's lexeme.
func (t *Token) Str() string { return t.str }

// SetStr replaces the lexeme and recomputes the derived classification
// flags in one step.
func (t *Token) SetStr(s string) {
	t.str = s
	t.name = len(s) > 0 && (s[0] == '_' || isAlpha(s[0]))
	t.number = len(s) > 0 && (isDigit(s[0]) || (s[0] == '-' && len(s) > 1 && isDigit(s[1])))
	t.comment = len(s) > 1 && s[0] == '/' && (s[1] == '/' || s[1] == '*')
	if len(s) == 1 {
		t.op = s[0]
	} else {
		t.op = 0
	}
}

// Name reports whether the token looks like an identifier.
func (t *Token) Name() bool { return t.name }

// Number reports whether the token looks like a preprocessing number
// (optionally negated, per the lexer's absorption of a leading '-').
func (t *Token) Number() bool { return t.number }

// Comment reports whether the token is a // or /* */ comment.
func (t *Token) Comment() bool { return t.comment }

// Op returns the single-character operator this token represents, or 0 if
// the token is not exactly one byte long.
func (t *Token) Op() byte { return t.op }

// Clone returns a detached copy of t sharing no links with the original,
// with Macro cleared unless copyMacro is set.
func (t *Token) Clone(copyMacro bool) *Token {
	c := New(t.str, t.Location)
	if copyMacro {
		c.Macro = t.Macro
	}
	return c
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
