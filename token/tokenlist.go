package token

import (
	"strconv"
	"strings"
)

// List is a doubly-linked, owning token sequence. The zero value is an
// empty list ready to use.
//
// Invariant: head has no Previous, tail has no Next, and for every
// interior token tok, tok.Previous.Next == tok == tok.Next.Previous.
type List struct {
	head *Token
	tail *Token
	n    int
}

// Front returns the first token, or nil if the list is empty.
func (l *List) Front() *Token { return l.head }

// Back returns the last token, or nil if the list is empty.
func (l *List) Back() *Token { return l.tail }

// Len returns the number of tokens currently owned by l.
func (l *List) Len() int { return l.n }

// Empty reports whether the list has no tokens.
func (l *List) Empty() bool { return l.head == nil }

// PushBack appends tok, which must not already belong to a list.
func (l *List) PushBack(tok *Token) {
	tok.Previous = l.tail
	tok.Next = nil
	if l.tail != nil {
		l.tail.Next = tok
	} else {
		l.head = tok
	}
	l.tail = tok
	l.n++
}

// PushBackStr is a convenience for PushBack(New(str, loc)).
func (l *List) PushBackStr(str string, loc Location) *Token {
	tok := New(str, loc)
	l.PushBack(tok)
	return tok
}

// InsertBefore inserts tok immediately before at. If at is nil, tok is
// appended.
func (l *List) InsertBefore(tok, at *Token) {
	if at == nil {
		l.PushBack(tok)
		return
	}
	tok.Previous = at.Previous
	tok.Next = at
	if at.Previous != nil {
		at.Previous.Next = tok
	} else {
		l.head = tok
	}
	at.Previous = tok
	l.n++
}

// DeleteToken removes tok from l and severs its links. tok must belong to
// l; passing nil is a no-op.
func (l *List) DeleteToken(tok *Token) {
	if tok == nil {
		return
	}
	prev, next := tok.Previous, tok.Next
	if prev != nil {
		prev.Next = next
	} else {
		l.head = next
	}
	if next != nil {
		next.Previous = prev
	} else {
		l.tail = prev
	}
	tok.Previous, tok.Next = nil, nil
	l.n--
}

// Clear empties the list.
func (l *List) Clear() {
	l.head, l.tail, l.n = nil, nil, 0
}

// Clone returns a deep copy of l; all tokens are new and independent.
func (l *List) Clone() *List {
	out := &List{}
	for tok := l.head; tok != nil; tok = tok.Next {
		out.PushBack(tok.Clone(true))
	}
	return out
}

// Splice moves the tokens of other, in order, to the end of l and empties
// other. Ownership of every token transfers atomically.
func (l *List) Splice(other *List) {
	if other.head == nil {
		return
	}
	if l.tail != nil {
		l.tail.Next = other.head
	} else {
		l.head = other.head
	}
	other.head.Previous = l.tail
	l.tail = other.tail
	l.n += other.n
	other.head, other.tail, other.n = nil, nil, 0
}

// InsertListBefore splices the tokens of other, in order, immediately
// before at (or at the end, if at is nil), and empties other.
func (l *List) InsertListBefore(other *List, at *Token) {
	if other.head == nil {
		return
	}
	if at == nil {
		l.Splice(other)
		return
	}
	other.tail.Next = at
	other.head.Previous = at.Previous
	if at.Previous != nil {
		at.Previous.Next = other.head
	} else {
		l.head = other.head
	}
	at.Previous = other.tail
	l.n += other.n
	other.head, other.tail, other.n = nil, nil, 0
}

// Stringify renders the list with newlines inserted so that a token whose
// Location.Line is greater than the running line counter starts a new
// (possibly blank-padded) line, and single spaces separate tokens on the
// same line. This is the "pretty" mode described for TokenList
// serialization: it reproduces the source's line layout, not its exact
// column spacing.
func (l *List) Stringify() string {
	var sb strings.Builder
	line := 0
	file := -1
	for tok := l.head; tok != nil; tok = tok.Next {
		if file == -1 {
			file = tok.Location.File
			line = tok.Location.Line
		}
		if tok.Location.File != file {
			file = tok.Location.File
			line = tok.Location.Line
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		} else if tok.Location.Line > line {
			for ; line < tok.Location.Line; line++ {
				sb.WriteByte('\n')
			}
		}
		if sb.Len() > 0 {
			last := sb.String()
			if len(last) > 0 && last[len(last)-1] != '\n' {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(tok.Str())
	}
	return sb.String()
}

// StringifyLineMarkers renders the list like Stringify, but additionally
// emits a "#line <line> \"<path>\"" marker on its own line immediately
// before the first token of any run whose file id differs from the
// previous run's, using fileName to resolve a file id to a path.
func (l *List) StringifyLineMarkers(fileName func(int) string) string {
	var sb strings.Builder
	line := 0
	file := -1
	for tok := l.head; tok != nil; tok = tok.Next {
		if file == -1 {
			file = tok.Location.File
			line = tok.Location.Line
		}
		if tok.Location.File != file {
			file = tok.Location.File
			line = tok.Location.Line
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("#line ")
			sb.WriteString(strconv.Itoa(line))
			sb.WriteString(" \"")
			sb.WriteString(fileName(file))
			sb.WriteString("\"\n")
		} else if tok.Location.Line > line {
			for ; line < tok.Location.Line; line++ {
				sb.WriteByte('\n')
			}
		}
		if sb.Len() > 0 {
			last := sb.String()
			if len(last) > 0 && last[len(last)-1] != '\n' {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(tok.Str())
	}
	return sb.String()
}

// StringifyRaw concatenates tokens with a single space between every pair,
// ignoring source line layout. Used where whitespace fidelity does not
// matter, only token separation (such as the recorded text of an #if
// condition); the # operator builds its string with its own join.
func (l *List) StringifyRaw() string {
	var sb strings.Builder
	for tok := l.head; tok != nil; tok = tok.Next {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Str())
	}
	return sb.String()
}
