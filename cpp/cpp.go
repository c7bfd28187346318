// Package cpp drives the token stream through #define/#undef/#if.../#include
// handling, calling into macro and eval for the parts that don't need
// knowledge of file structure. It performs no file I/O itself: a FileCache
// supplies already-lexed token lists for every #include target the caller
// wants resolvable.
package cpp

import (
	"context"
	"fmt"

	"github.com/gocpp-project/gocpp/diag"
	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/macro"
	"github.com/gocpp-project/gocpp/o11y/trace"
	"github.com/gocpp-project/gocpp/token"
)

const defaultMaxIncludeDepth = 400

// Result is everything one Preprocess call produces beyond the token
// stream itself.
type Result struct {
	Output     *token.List
	Diagnostics *diag.List
	MacroUsage []MacroUsage
	IfConds    []IfCond
}

type preprocessor struct {
	files *Files
	cache FileCache
	dui   DUI
	table *macro.Table
	diags *diag.List

	ifs *ifStack

	fileStack    []string
	returnPoints []*token.Token
	counter      int
	lineOverride *lineOverride

	macroUsage []MacroUsage
	ifConds    []IfCond

	maxDepth int
}

// Preprocess runs the directive driver over rawTokens (already lexed from
// mainFile) and returns the expanded token stream plus diagnostics. ctx is
// checked between top-level lines so a caller can cancel a runaway
// expansion (e.g. a recursive #include cycle the cache happens to permit).
func Preprocess(ctx context.Context, files *Files, mainFile string, rawTokens *token.List, cache FileCache, dui DUI) *Result {
	ctx, span := trace.Start(ctx, "preprocess", map[string]string{"file": mainFile})
	defer span.Done()

	p := &preprocessor{
		files: files,
		cache: cache,
		dui:   dui,
		table: macro.NewTable(),
		diags: &diag.List{},
		ifs:   newIfStack(),
		maxDepth: dui.MaxIncludeDepth,
	}
	if p.maxDepth <= 0 {
		p.maxDepth = defaultMaxIncludeDepth
	}
	p.table.SetUsageRecorder(func(name string, defineLoc, useLoc token.Location) {
		p.macroUsage = append(p.macroUsage, MacroUsage{Name: name, DefineLocation: defineLoc, UseLocation: useLoc})
	})
	p.defineBuiltinsFromDUI()

	work := rawTokens.Clone()
	eof := work.PushBackStr("", token.Location{})

	p.fileStack = []string{mainFile}
	for i := len(dui.Includes) - 1; i >= 0; i-- {
		p.spliceForcedInclude(work, dui.Includes[i], work.Front())
	}

	output := &token.List{}
	cur := work.Front()
	for cur != nil && cur != eof {
		select {
		case <-ctx.Done():
			p.diags.Add(diag.SyntaxError, cur.Location, "preprocessing canceled: "+ctx.Err().Error())
			return p.result(output)
		default:
		}

		for len(p.returnPoints) > 0 && cur == p.returnPoints[len(p.returnPoints)-1] {
			p.returnPoints = p.returnPoints[:len(p.returnPoints)-1]
			p.fileStack = p.fileStack[:len(p.fileStack)-1]
		}

		if p.isDirectiveStart(cur) {
			_, dspan := trace.Start(ctx, "directive", nil)
			next, abort := p.handleDirective(work, output, cur)
			dspan.Done()
			if abort {
				output.Clear()
				return p.result(output)
			}
			cur = next
			continue
		}

		if !p.ifs.active() {
			cur = cur.Next
			continue
		}

		_, mspan := trace.Start(ctx, "macro-expand", nil)
		cur = p.expandOrCopy(output, cur)
		mspan.Done()
	}

	if p.ifs.depth() > 0 {
		p.diags.Add(diag.SyntaxError, lastLocation(output), "unterminated #if")
	}

	return p.result(output)
}

func (p *preprocessor) result(output *token.List) *Result {
	return &Result{
		Output:      output,
		Diagnostics: p.diags,
		MacroUsage:  p.macroUsage,
		IfConds:     p.ifConds,
	}
}

func (p *preprocessor) defineBuiltinsFromDUI() {
	for name, val := range p.dui.Defines {
		src := name
		if val != "" {
			src += " " + val
		} else {
			src += " 1"
		}
		list, _, err := lexer.Lex(0, []byte(src))
		if err != nil {
			continue
		}
		d, err := macro.ParseDefine(list.Front())
		if err != nil {
			continue
		}
		p.table.Define(d)
	}
	for name := range p.dui.Undefined {
		p.table.Undef(name)
	}
}

// isDirectiveStart reports whether tok is a '#' beginning a new source
// line: the previous token (if any) is on a different line or file, or at
// or after tok's column (the tail of a spliced #include of the same file),
// or this is the very first token.
func (p *preprocessor) isDirectiveStart(tok *token.Token) bool {
	if tok.Op() != '#' {
		return false
	}
	prev := tok.Previous
	return prev == nil || prev.Location.Line != tok.Location.Line || prev.Location.File != tok.Location.File ||
		prev.Location.Col >= tok.Location.Col
}

// restOfLine returns the tokens from start (inclusive) up to but not
// including the first token on a later line or a different file, along
// with that following token (nil-safe: it may be the trailing EOF
// sentinel).
func restOfLine(start *token.Token) (toks []*token.Token, next *token.Token) {
	if start == nil {
		return nil, nil
	}
	line, file := start.Location.Line, start.Location.File
	tok := start
	for tok != nil && tok.Location.Line == line && tok.Location.File == file && tok.Str() != "" {
		toks = append(toks, tok)
		tok = tok.Next
	}
	return toks, tok
}

// lineOverride records a "#line declaredLine [\"declaredFile\"]" in effect
// for one physical file: every physical line at or after atLine is
// reported as if numbering resumed from declaredLine of declaredFile.
type lineOverride struct {
	file         int
	atLine       int
	declaredLine int
	declaredFile int
}

// reportLocation returns loc as it should be reported to a caller (in an
// output token's Location, or by __LINE__/__FILE__), applying the current
// #line override if loc falls within its range. The physical loc itself
// is left untouched everywhere else in the driver, which keeps walking
// the real source lines to find directive and line boundaries.
func (p *preprocessor) reportLocation(loc token.Location) token.Location {
	ov := p.lineOverride
	if ov == nil || ov.file != loc.File || loc.Line < ov.atLine {
		return loc
	}
	loc.Line = ov.declaredLine + (loc.Line - ov.atLine)
	loc.File = ov.declaredFile
	return loc
}

// expandOrCopy handles one ordinary (non-directive) token when the current
// scope is active: builtin substitution, macro expansion, or a verbatim
// copy, returning the next token to process.
func (p *preprocessor) expandOrCopy(output *token.List, tok *token.Token) *token.Token {
	loc := p.reportLocation(tok.Location)
	if !tok.Name() {
		if p.dui.RemoveComments && tok.Comment() {
			return tok.Next
		}
		output.PushBackStr(tok.Str(), loc)
		return tok.Next
	}
	if val, ok := p.builtinValue(tok.Str(), loc); ok {
		out := output.PushBackStr(val, loc)
		out.Macro = tok.Str()
		return tok.Next
	}
	if d, ok := p.table.Lookup(tok.Str()); ok {
		p.macroUsage = append(p.macroUsage, MacroUsage{
			Name:           d.Name(),
			DefineLocation: d.NameToken.Location,
			UseLocation:    loc,
		})
		return p.table.Expand(output, loc, tok, nil, p.diags)
	}
	output.PushBackStr(tok.Str(), loc)
	return tok.Next
}

func lastLocation(l *token.List) token.Location {
	if l.Back() != nil {
		return l.Back().Location
	}
	return token.Location{}
}

// diagf is a small formatting convenience so directive handlers read
// linearly instead of building fmt.Sprintf calls inline.
func (p *preprocessor) diagf(kind diag.Kind, loc token.Location, format string, args ...interface{}) {
	p.diags.Add(kind, loc, fmt.Sprintf(format, args...))
}
