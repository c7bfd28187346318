// Package lexer turns raw source bytes into a token.List: line splicing,
// comments, identifiers, preprocessing numbers, string/char literals
// (including raw strings and encoding prefixes), and canonical operator
// combining.
package lexer

import (
	"fmt"
	"strings"

	"github.com/gocpp-project/gocpp/diag"
	"github.com/gocpp-project/gocpp/token"
)

var multiCharOps = map[string]bool{
	"<=": true, ">=": true, "==": true, "!=": true,
	"&&": true, "||": true, "<<": true, ">>": true,
	"++": true, "--": true, "->": true, "::": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
	"##": true,
}

// Lex tokenizes src, which belongs to file (an index into the driver's
// interned file table). It returns the accumulated non-fatal diagnostics
// alongside the token list; a non-nil error means a fatal SYNTAX_ERROR was
// hit and the partial list has been discarded, per §7's propagation rule.
func Lex(file int, src []byte) (*token.List, []diag.Output, error) {
	src = stripBOM(src)
	c := newCursor(file, src)
	list := &token.List{}
	var diags []diag.Output

	for {
		loc := c.location()
		b, ok := c.peek()
		if !ok {
			break
		}
		switch {
		case b == ' ' || b == '\t' || b == '\f' || b == '\v':
			c.next()
		case b == '\n' || b == '\r':
			c.next()
		case isAlpha(b) || b == '_':
			tok, err := lexIdentOrLiteral(c)
			if err != nil {
				return nil, diags, err
			}
			list.PushBack(tok)
		case isNumberStart(c):
			list.PushBack(lexNumber(c))
		case b == '/' && peekIs(c, 1, '/'):
			list.PushBack(lexLineComment(c))
		case b == '/' && peekIs(c, 1, '*'):
			tok, err := lexBlockComment(c)
			if err != nil {
				return nil, diags, err
			}
			list.PushBack(tok)
		case b == '"' || b == '\'':
			lit, err := lexQuoted(c, b)
			if err != nil {
				return nil, diags, err
			}
			list.PushBack(token.New(lit, loc))
		case b > 127:
			diags = append(diags, diag.Output{Kind: diag.UnhandledChar, Location: loc, Message: fmt.Sprintf("character 0x%02x outside a literal", b)})
			c.next()
		default:
			c.next()
			list.PushBack(token.New(string(b), loc))
		}
	}

	for _, sp := range c.splices {
		if sp.hadSpace {
			diags = append(diags, diag.Output{Kind: diag.PortabilityBackslash, Location: sp.loc, Message: "backslash followed by whitespace before newline"})
		}
	}

	combineOperators(list)

	return list, diags, nil
}

// peekIs reports whether the raw byte n positions ahead of pos equals want,
// without consuming input. It intentionally does not resolve splices,
// which is adequate for the two-byte comment-start lookahead it is used
// for.
func peekIs(c *cursor, n int, want byte) bool {
	b, ok := c.peekAt(n)
	return ok && b == want
}

func isNumberStart(c *cursor) bool {
	b, ok := c.peek()
	if !ok {
		return false
	}
	if isDigit(b) {
		return true
	}
	if b == '.' {
		nb, ok2 := c.peekAt(1)
		return ok2 && isDigit(nb)
	}
	return false
}

func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlnum(b byte) bool { return isAlpha(b) || isDigit(b) }

// lexIdentOrLiteral scans an identifier, then merges it with a directly
// adjacent string/char literal into a prefixed or raw-string literal when
// applicable.
func lexIdentOrLiteral(c *cursor) (*token.Token, error) {
	loc := c.location()
	var sb strings.Builder
	for {
		b, ok := c.peek()
		if !ok || !(isAlnum(b) || b == '_') {
			break
		}
		sb.WriteByte(b)
		c.next()
	}
	ident := sb.String()

	if strings.HasSuffix(ident, "R") {
		prefix := strings.TrimSuffix(ident, "R")
		switch prefix {
		case "", "u8", "u", "U", "L":
			if b, ok := c.peek(); ok && b == '"' {
				body, err := lexRawString(c)
				if err != nil {
					return nil, err
				}
				return token.New(prefix+body, loc), nil
			}
		}
	}

	if b, ok := c.peek(); ok && (b == '"' || b == '\'') {
		lit, err := lexQuoted(c, b)
		if err != nil {
			return nil, err
		}
		return token.New(ident+lit, loc), nil
	}

	return token.New(ident, loc), nil
}

// lexQuoted scans a "..." or '...' literal starting at the opening quote,
// which must be the next logical byte. \X escapes consume two bytes and
// do not terminate the literal.
func lexQuoted(c *cursor, quote byte) (string, error) {
	startLoc := c.location()
	var sb strings.Builder
	open, _ := c.next()
	sb.WriteByte(open)
	for {
		b, ok := c.peek()
		if !ok {
			return "", &diag.Error{Kind: diag.SyntaxError, Location: startLoc, Message: "unterminated literal"}
		}
		if b == '\n' || b == '\r' {
			return "", &diag.Error{Kind: diag.SyntaxError, Location: startLoc, Message: "unterminated literal: newline before closing quote"}
		}
		c.next()
		sb.WriteByte(b)
		if b == '\\' {
			nb, ok2 := c.next()
			if !ok2 {
				return "", &diag.Error{Kind: diag.SyntaxError, Location: startLoc, Message: "unterminated literal"}
			}
			sb.WriteByte(nb)
			continue
		}
		if b == quote {
			break
		}
	}
	return sb.String(), nil
}

// lexRawString scans R"delim(...)delim" starting at the opening quote and
// returns a normalized "..." token body (quotes included) containing the
// raw text literally.
func lexRawString(c *cursor) (string, error) {
	startLoc := c.location()
	c.next() // opening quote
	var delim strings.Builder
	for {
		b, ok := c.peek()
		if !ok {
			return "", &diag.Error{Kind: diag.SyntaxError, Location: startLoc, Message: "unterminated raw string delimiter"}
		}
		if b == '(' {
			c.next()
			break
		}
		if delim.Len() >= 16 {
			return "", &diag.Error{Kind: diag.SyntaxError, Location: startLoc, Message: "raw string delimiter too long"}
		}
		delim.WriteByte(b)
		c.next()
	}
	closing := ")" + delim.String() + "\""
	var body strings.Builder
	for {
		matched := true
		for i := 0; i < len(closing); i++ {
			bb, ok := c.peekAt(i)
			if !ok || bb != closing[i] {
				matched = false
				break
			}
		}
		if matched {
			for i := 0; i < len(closing); i++ {
				c.next()
			}
			break
		}
		b, ok := c.next()
		if !ok {
			return "", &diag.Error{Kind: diag.SyntaxError, Location: startLoc, Message: "unterminated raw string literal"}
		}
		body.WriteByte(b)
	}
	return "\"" + body.String() + "\"", nil
}

func lexNumber(c *cursor) *token.Token {
	loc := c.location()
	var sb strings.Builder
	b, _ := c.next()
	sb.WriteByte(b)
	for {
		nb, ok := c.peek()
		if !ok {
			break
		}
		if isAlnum(nb) || nb == '.' || nb == '_' {
			sb.WriteByte(nb)
			c.next()
			continue
		}
		if nb == '\'' {
			s := sb.String()
			if len(s) > 0 && isDigit(s[len(s)-1]) {
				if nb2, ok2 := c.peekAt(1); ok2 && isDigit(nb2) {
					c.next() // drop the digit-separator quote
					continue
				}
			}
			break
		}
		if nb == '+' || nb == '-' {
			s := sb.String()
			if len(s) > 0 {
				switch s[len(s)-1] {
				case 'e', 'E', 'p', 'P':
					sb.WriteByte(nb)
					c.next()
					continue
				}
			}
		}
		break
	}
	return token.New(sb.String(), loc)
}

func lexLineComment(c *cursor) *token.Token {
	loc := c.location()
	var sb strings.Builder
	for i := 0; i < 2; i++ {
		b, _ := c.next()
		sb.WriteByte(b)
	}
	for {
		b, ok := c.peek()
		if !ok || b == '\n' || b == '\r' {
			break
		}
		c.next()
		sb.WriteByte(b)
	}
	return token.New(sb.String(), loc)
}

func lexBlockComment(c *cursor) (*token.Token, error) {
	loc := c.location()
	var sb strings.Builder
	for i := 0; i < 2; i++ {
		b, _ := c.next()
		sb.WriteByte(b)
	}
	for {
		b, ok := c.next()
		if !ok {
			return nil, &diag.Error{Kind: diag.SyntaxError, Location: loc, Message: "unterminated block comment"}
		}
		sb.WriteByte(b)
		if b == '*' {
			if nb, ok2 := c.peek(); ok2 && nb == '/' {
				c.next()
				sb.WriteByte(nb)
				break
			}
		}
	}
	return token.New(sb.String(), loc), nil
}

// combineOperators merges adjacent single-character punctuators produced
// by the scan loop above into their canonical multi-byte forms, repeating
// until a full pass makes no further change (this also picks up
// three-character compound assignments like "<<=", which form from two
// successive two-character merges).
func combineOperators(l *token.List) {
	for {
		changed := false
		for tok := l.Front(); tok != nil; tok = tok.Next {
			if tok.Next != nil && tok.Next.Next != nil &&
				tok.Str() == "." && tok.Next.Str() == "." && tok.Next.Next.Str() == "." &&
				adjacent(tok, tok.Next) && adjacent(tok.Next, tok.Next.Next) {
				tok.SetStr("...")
				l.DeleteToken(tok.Next)
				l.DeleteToken(tok.Next)
				changed = true
				continue
			}
			if tok.Next == nil || (tok.Op() == 0 && !multiCharOps[tok.Str()]) || tok.Next.Op() == 0 {
				continue
			}
			if !adjacent(tok, tok.Next) {
				continue
			}
			combined := tok.Str() + tok.Next.Str()
			if multiCharOps[combined] {
				tok.SetStr(combined)
				l.DeleteToken(tok.Next)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
}

func adjacent(a, b *token.Token) bool {
	return a.Location.Line == b.Location.Line && a.Location.Col+len(a.Str()) == b.Location.Col
}
