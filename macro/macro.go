// Package macro implements object-like and function-like macro
// definitions and their expansion, including stringification (#), token
// pasting (##), and variadic (__VA_ARGS__) parameters.
package macro

import (
	"fmt"
	"strings"

	"github.com/gocpp-project/gocpp/diag"
	"github.com/gocpp-project/gocpp/token"
)

// Definition is one #define. Its Value/End tokens point directly into the
// shared source token stream rather than owning a private copy, mirroring
// how the replacement list is delimited by a change of source line.
type Definition struct {
	NameToken *token.Token
	Params    []string // "__VA_ARGS__" appears as the final entry when Variadic
	Variadic  bool
	FuncLike  bool

	Value *token.Token // first replacement-list token, nil if empty
	End   *token.Token // one past the last replacement-list token
}

// Name returns the macro's identifier.
func (m *Definition) Name() string { return m.NameToken.Str() }

// ParseDefine builds a Definition from the token following "#define" (name
// itself), reading a function-like parameter list and its replacement list
// off the shared token stream. The replacement list ends at the next token
// whose Location.Line differs from name's.
func ParseDefine(name *token.Token) (*Definition, error) {
	if name == nil || !name.Name() {
		return nil, fmt.Errorf("bad macro syntax: expected an identifier")
	}
	d := &Definition{NameToken: name}

	if name.Next != nil && name.Next.Op() == '(' &&
		name.Next.Location.Line == name.Location.Line &&
		name.Next.Location.Col == name.Location.Col+len(name.Str()) {
		d.FuncLike = true
		argTok := name.Next.Next
		for argTok != nil && argTok.Op() != ')' {
			if argTok.Op() != ',' {
				p := argTok.Str()
				if p == "..." {
					d.Variadic = true
					p = "__VA_ARGS__"
				} else if strings.HasSuffix(p, "...") {
					d.Variadic = true
					p = strings.TrimSuffix(p, "...")
				}
				d.Params = append(d.Params, p)
			}
			argTok = argTok.Next
		}
		if argTok == nil {
			return nil, fmt.Errorf("bad macro syntax: unterminated parameter list")
		}
		d.Value = argTok.Next
	} else {
		d.Value = name.Next
	}

	if d.Value != nil && d.Value.Location.Line != name.Location.Line {
		d.Value = nil
	}
	d.End = d.Value
	for d.End != nil && d.End.Location.Line == name.Location.Line {
		d.End = d.End.Next
	}
	return d, nil
}

// Table holds the live set of macro definitions during preprocessing.
type Table struct {
	defs  map[string]*Definition
	usage UsageRecorder
}

// UsageRecorder is notified of every macro expansion a Table performs on
// behalf of another macro's replacement list — an invocation nested inside
// another macro's body, as opposed to the top-level invocation the caller
// passed to Expand, which it is expected to record itself.
type UsageRecorder func(name string, defineLoc, useLoc token.Location)

// NewTable returns an empty macro table.
func NewTable() *Table { return &Table{defs: make(map[string]*Definition)} }

// SetUsageRecorder installs f to be called for every nested macro expansion
// performed while expanding an invocation given to Expand. Pass nil to stop
// recording.
func (t *Table) SetUsageRecorder(f UsageRecorder) { t.usage = f }

// Define installs or replaces a definition.
func (t *Table) Define(d *Definition) { t.defs[d.Name()] = d }

// Undef removes a definition, if present.
func (t *Table) Undef(name string) { delete(t.defs, name) }

// Lookup returns the definition for name, if any.
func (t *Table) Lookup(name string) (*Definition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// Defined reports whether name is currently defined.
func (t *Table) Defined(name string) bool {
	_, ok := t.defs[name]
	return ok
}

// Names returns the currently defined macro names, for MacroUsage/dump
// purposes. Order is unspecified.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.defs))
	for n := range t.defs {
		out = append(out, n)
	}
	return out
}

// Expand appends the expansion of the macro invocation starting at
// nameTok to output and returns the token following the invocation in the
// shared source stream (the next token the driver should resume scanning
// from). active tracks macro names currently being expanded on this call
// stack, guarding against self-reference ("painting blue"); it is not
// mutated in the caller's copy. diags receives a non-fatal SYNTAX_ERROR
// when a function-like invocation has the wrong argument count; in that
// case the macro name and any balanced argument list found after it are
// passed through unexpanded, per the
// recoverable-error policy applied to malformed invocations.
func (t *Table) Expand(output *token.List, loc token.Location, nameTok *token.Token, active map[string]bool, diags *diag.List) *token.Token {
	d, ok := t.defs[nameTok.Str()]
	if !ok {
		output.PushBackStr(nameTok.Str(), loc)
		return nameTok.Next
	}
	return d.expand(output, loc, nameTok, t, active, diags)
}

func cloneActive(active map[string]bool) map[string]bool {
	out := make(map[string]bool, len(active)+1)
	for k := range active {
		out[k] = true
	}
	return out
}

func (d *Definition) expand(output *token.List, loc token.Location, nameTok *token.Token, table *Table, activeOuter map[string]bool, diags *diag.List) *token.Token {
	activeInner := cloneActive(activeOuter)
	activeInner[d.Name()] = true

	if !d.FuncLike {
		mark := output.Back()
		for tok := d.Value; tok != d.End; {
			if sub, ok := table.defs[tok.Str()]; ok && !activeInner[tok.Str()] {
				if table.usage != nil {
					table.usage(sub.Name(), sub.NameToken.Location, tok.Location)
				}
				tok = sub.expand(output, loc, tok, table, activeInner, diags)
				continue
			}
			pushExpanded(output, tok.Str(), d.Name(), loc, false)
			tok = tok.Next
		}
		markExpansionOwner(output, mark, d.Name(), activeOuter)
		return nameTok.Next
	}

	bounds, ok := gatherArguments(nameTok)
	params, ok2 := d.paramBoundaries(bounds, ok)
	if !ok2 {
		if diags != nil {
			diags.Add(diag.SyntaxError, loc, fmt.Sprintf("macro %q used with wrong number of arguments", d.Name()))
		}
		// Pass the invocation through verbatim: the name, and (if a
		// balanced argument list was at least found) its raw tokens too,
		// rather than silently dropping the call site.
		pushExpanded(output, nameTok.Str(), d.Name(), loc, true)
		if !ok {
			return nameTok.Next
		}
		for tok := nameTok.Next; ; tok = tok.Next {
			pushExpanded(output, tok.Str(), d.Name(), loc, true)
			if tok == bounds[len(bounds)-1] {
				return tok.Next
			}
		}
	}

	for tok := d.Value; tok != d.End; {
		switch {
		case tok.Op() == '#' && tok.Next != nil && tok.Next.Str() == "##" &&
			tok.Next.Next != nil && tok.Next.Next.Op() == '#':
			// "# ## #" yields a literal "##" token, per ISO 6.10.3.3: this
			// is the one case where # is not followed by a parameter to
			// stringify.
			pushExpanded(output, "##", d.Name(), loc, false)
			tok = tok.Next.Next.Next

		case tok.Str() == "##":
			// A ## B: paste the already-emitted left operand (pushed raw,
			// unexpanded, by the lookahead in the default case below) with
			// the raw, unexpanded form of B, dropping a preceding trailing
			// comma when B is an empty __VA_ARGS__ substitution (GNU comma
			// elision). Neither operand of ## is macro-expanded before the
			// paste (spec.md §4.3.2 step 3). The lexer has already combined
			// the two '#' characters into one token, so this operator is
			// recognized by its full spelling rather than op=='#' twice.
			pasteRHS := tok.Next
			var rhsBuf token.List
			rest := d.rawOperand(&rhsBuf, loc, pasteRHS, params)
			switch {
			case rhsBuf.Empty() && output.Back() != nil && output.Back().Op() == ',' &&
				pasteRHS != nil && pasteRHS.Str() == "__VA_ARGS__":
				output.DeleteToken(output.Back())
			default:
				left := output.Back()
				if left == nil {
					left = output.PushBackStr("", loc)
				}
				if rhsFront := rhsBuf.Front(); rhsFront != nil {
					left.SetStr(left.Str() + rhsFront.Str())
					rhsBuf.DeleteToken(rhsFront)
				}
				output.InsertListBefore(&rhsBuf, nil)
			}
			tok = rest

		case tok.Op() == '#':
			// #param => "stringified param", using the raw (unexpanded)
			// argument tokens per spec.md §4.3.2 step 3, joined per ISO
			// 6.10.3.2: a space appears between two tokens only where the
			// source argument had one, not between every token pair.
			hashTok := tok.Next
			pushExpanded(output, `"`+escapeStringify(d.stringifyRawOperand(hashTok, params))+`"`, d.Name(), loc, false)
			tok = hashTok.Next

		default:
			if tok.Next != nil && tok.Next.Str() == "##" {
				// Left operand of ##: substitute without macro-expanding,
				// so the paste below combines the raw spellings.
				tok = d.rawOperand(output, loc, tok, params)
			} else {
				tok = d.expandToken(output, loc, tok, table, activeOuter, activeInner, params, diags)
			}
		}
	}

	return params[len(params)-1].Next
}

// escapeStringify backslash-escapes " and \ per the stringification rules
// of the # operator.
func escapeStringify(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			sb.WriteByte('\\')
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// paramBoundaries reduces the raw comma/paren boundary tokens produced by
// gatherArguments to exactly len(d.Params)+1 entries, collapsing every
// argument past the fixed parameters into one span for a variadic
// definition's trailing __VA_ARGS__ slot (so "LOG(f,1,2,3)" gives
// __VA_ARGS__ the span "1,2,3" including its interior commas, rather than
// requiring an exact comma count).
func (d *Definition) paramBoundaries(bounds []*token.Token, ok bool) ([]*token.Token, bool) {
	if !ok {
		return nil, false
	}
	if !d.Variadic {
		if len(bounds) != len(d.Params)+1 {
			return nil, false
		}
		return bounds, true
	}
	numFixed := len(d.Params) - 1
	if len(bounds) < numFixed+1 {
		return nil, false
	}
	out := make([]*token.Token, len(d.Params)+1)
	copy(out, bounds[:numFixed+1])
	out[numFixed+1] = bounds[len(bounds)-1]
	return out, true
}

// gatherArguments walks the invocation "(" ... ")" following nameTok and
// splits it on top-level commas, returning the boundary tokens: element 0
// is the opening "(", the last is the closing ")", and elements in between
// mark the commas. Two consecutive boundary tokens delimit one argument
// (possibly empty). paramBoundaries reduces this raw split down to one
// span per declared parameter.
func gatherArguments(nameTok *token.Token) ([]*token.Token, bool) {
	if nameTok.Next == nil || nameTok.Next.Op() != '(' {
		return nil, false
	}
	bounds := []*token.Token{nameTok.Next}
	depth := 0
	for tok := nameTok.Next.Next; tok != nil; tok = tok.Next {
		switch tok.Op() {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				bounds = append(bounds, tok)
				return bounds, true
			}
			depth--
		case ',':
			if depth == 0 {
				bounds = append(bounds, tok)
			}
		}
	}
	return nil, false
}

// expandToken expands one replacement-list token that is not the operand
// of # or ##: a parameter reference is substituted (with its own argument
// tokens macro-expanded first), a nested macro name is expanded
// recursively, anything else is copied through. Operands of # and ## use
// rawOperand instead, which skips this expansion (spec.md §4.3.2 step 3).
func (d *Definition) expandToken(output *token.List, loc token.Location, tok *token.Token, table *Table, activeOuter, activeInner map[string]bool, params []*token.Token, diags *diag.List) *token.Token {
	if !tok.Name() {
		pushExpanded(output, tok.Str(), d.Name(), loc, false)
		return tok.Next
	}

	if par := d.paramIndex(tok.Str()); par >= 0 {
		endBound := params[par+1]
		for arg := params[par].Next; arg != endBound; {
			if sub, ok := table.defs[arg.Str()]; ok && !activeOuter[arg.Str()] {
				if table.usage != nil {
					table.usage(sub.Name(), sub.NameToken.Location, arg.Location)
				}
				arg = sub.expand(output, loc, arg, table, activeOuter, diags)
				continue
			}
			pushExpanded(output, arg.Str(), d.Name(), loc, len(activeOuter) == 0)
			arg = arg.Next
		}
		return tok.Next
	}

	if sub, ok := table.defs[tok.Str()]; ok && !activeInner[tok.Str()] {
		if table.usage != nil {
			table.usage(sub.Name(), sub.NameToken.Location, tok.Location)
		}
		return sub.expand(output, loc, tok, table, activeInner, diags)
	}
	pushExpanded(output, tok.Str(), d.Name(), loc, false)
	return tok.Next
}

// rawOperand appends the unexpanded form of a body token used as the
// operand of # or ##: a parameter reference substitutes its raw argument
// tokens verbatim, with no macro expansion; anything else is copied
// through as-is. This implements spec.md §4.3.2 step 3's exception to
// argument pre-expansion ("the argument is not expanded when it is the
// operand of # or ##"). Returns the next body token, matching expandToken's
// contract.
func (d *Definition) rawOperand(output *token.List, loc token.Location, tok *token.Token, params []*token.Token) *token.Token {
	if par := d.paramIndex(tok.Str()); par >= 0 {
		endBound := params[par+1]
		for arg := params[par].Next; arg != endBound; arg = arg.Next {
			pushExpanded(output, arg.Str(), d.Name(), loc, false)
		}
		return tok.Next
	}
	pushExpanded(output, tok.Str(), d.Name(), loc, false)
	return tok.Next
}

// stringifyRawOperand renders the # operand's raw argument tokens (or, if
// tok is not a parameter, tok itself) joined per ISO 6.10.3.2: a single
// space appears between two consecutive tokens only when they were not
// immediately adjacent at their original source location, so "a(2+3)"
// stringifies to "2+3" rather than the canonical "2 + 3" token-list join.
func (d *Definition) stringifyRawOperand(tok *token.Token, params []*token.Token) string {
	var sb strings.Builder
	var prev *token.Token
	emit := func(t *token.Token) {
		if prev != nil && !tokensAdjacent(prev, t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Str())
		prev = t
	}
	if par := d.paramIndex(tok.Str()); par >= 0 {
		endBound := params[par+1]
		for arg := params[par].Next; arg != endBound; arg = arg.Next {
			emit(arg)
		}
		return sb.String()
	}
	emit(tok)
	return sb.String()
}

// tokensAdjacent reports whether b immediately follows a in the source
// they were lexed from, with no intervening whitespace or comment.
func tokensAdjacent(a, b *token.Token) bool {
	return a.Location.File == b.Location.File && a.Location.Line == b.Location.Line &&
		a.Location.Col+len(a.Str()) == b.Location.Col
}

func (d *Definition) paramIndex(name string) int {
	for i, p := range d.Params {
		if p == name {
			return i
		}
	}
	return -1
}

func pushExpanded(output *token.List, str, macroName string, loc token.Location, rawCode bool) {
	tok := output.PushBackStr(str, loc)
	if !rawCode {
		tok.Macro = macroName
	}
}

// markExpansionOwner attributes every token produced since mark (exclusive)
// to the outermost macro name, when this call is not itself nested inside
// another macro's expansion.
func markExpansionOwner(output *token.List, mark *token.Token, name string, activeOuter map[string]bool) {
	if len(activeOuter) != 0 {
		return
	}
	start := output.Front()
	if mark != nil {
		start = mark.Next
	}
	for tok := start; tok != nil; tok = tok.Next {
		if tok.Macro != "" {
			tok.Macro = name
		}
	}
}
