package cpp

import (
	"path"
	"strconv"
	"strings"

	"github.com/gocpp-project/gocpp/diag"
	"github.com/gocpp-project/gocpp/eval"
	"github.com/gocpp-project/gocpp/macro"
	"github.com/gocpp-project/gocpp/pathutil"
	"github.com/gocpp-project/gocpp/token"
)

// handleDirective dispatches one "#..." line. It returns the token to
// resume scanning from and whether the whole preprocess run must abort
// (a fatal #error or an include-depth overflow).
func (p *preprocessor) handleDirective(work, output *token.List, hash *token.Token) (*token.Token, bool) {
	kw := hash.Next
	if kw == nil || kw.Location.Line != hash.Location.Line {
		_, next := restOfLine(hash)
		return next, false
	}

	switch kw.Str() {
	case "if":
		return p.handleIf(kw)
	case "ifdef":
		return p.handleIfdef(kw, true)
	case "ifndef":
		return p.handleIfdef(kw, false)
	case "elif":
		return p.handleElif(kw)
	case "else":
		return p.handleElse(kw)
	case "endif":
		return p.handleEndif(kw)
	}

	if !p.ifs.active() {
		_, next := restOfLine(hash)
		return next, false
	}

	switch kw.Str() {
	case "define":
		return p.handleDefine(kw)
	case "undef":
		return p.handleUndef(kw)
	case "include", "include_next":
		return p.handleInclude(work, kw)
	case "error":
		return p.handleError(kw)
	case "warning":
		return p.handleWarning(kw)
	case "line":
		return p.handleLine(kw)
	case "pragma", "ident", "sccs":
		_, next := restOfLine(hash)
		return next, false
	default:
		// An unrecognized directive (a linemarker some other tool emitted,
		// a vendor pragma spelled as a bare directive) is passed through
		// verbatim rather than treated as an error.
		toks, next := restOfLine(hash)
		for _, t := range toks {
			output.PushBackStr(t.Str(), p.reportLocation(t.Location))
		}
		return next, false
	}
}

func (p *preprocessor) handleIf(kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	if len(toks) == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#if with no expression")
		p.ifs.pushIf(false)
		return next, false
	}
	if !p.ifs.active() {
		p.ifs.pushIf(false)
		return next, false
	}
	result, exprText := p.evalCondition(toks, next, kw.Location)
	p.ifConds = append(p.ifConds, IfCond{Location: kw.Location, Expr: exprText, Result: result})
	p.ifs.pushIf(result)
	return next, false
}

func (p *preprocessor) handleIfdef(kw *token.Token, wantDefined bool) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	dirName := "#ifdef"
	if !wantDefined {
		dirName = "#ifndef"
	}
	if len(toks) == 0 || !toks[0].Name() {
		p.diagf(diag.SyntaxError, kw.Location, "%s requires a macro name", dirName)
		p.ifs.pushIf(false)
		return next, false
	}
	if !p.ifs.active() {
		p.ifs.pushIf(false)
		return next, false
	}
	name := toks[0].Str()
	defined := p.table.Defined(name) || p.isBuiltinDefined(name)
	p.ifs.pushIf(defined == wantDefined)
	return next, false
}

func (p *preprocessor) handleElif(kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	if p.ifs.depth() == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#elif without #if")
		return next, false
	}
	if len(toks) == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#elif with no expression")
		p.ifs.elif(false)
		return next, false
	}
	if !p.ifs.elifShouldEval() {
		p.ifs.elif(false)
		return next, false
	}
	result, exprText := p.evalCondition(toks, next, kw.Location)
	p.ifConds = append(p.ifConds, IfCond{Location: kw.Location, Expr: exprText, Result: result})
	p.ifs.elif(result)
	return next, false
}

func (p *preprocessor) handleElse(kw *token.Token) (*token.Token, bool) {
	_, next := restOfLine(kw)
	if p.ifs.depth() == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#else without #if")
		return next, false
	}
	p.ifs.else_()
	return next, false
}

func (p *preprocessor) handleEndif(kw *token.Token) (*token.Token, bool) {
	_, next := restOfLine(kw)
	if p.ifs.depth() == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#endif without #if")
		return next, false
	}
	p.ifs.pop()
	return next, false
}

func (p *preprocessor) handleDefine(kw *token.Token) (*token.Token, bool) {
	nameTok := kw.Next
	_, next := restOfLine(kw)
	if nameTok == nil || !nameTok.Name() || nameTok.Location.Line != kw.Location.Line {
		p.diagf(diag.SyntaxError, kw.Location, "#define requires a macro name")
		return next, false
	}
	if builtinNames[nameTok.Str()] {
		p.diagf(diag.SyntaxError, kw.Location, "%q is a builtin macro and cannot be redefined", nameTok.Str())
		return next, false
	}
	d, err := macro.ParseDefine(nameTok)
	if err != nil {
		p.diagf(diag.SyntaxError, kw.Location, "%v", err)
		return next, false
	}
	p.table.Define(d)
	return next, false
}

func (p *preprocessor) handleUndef(kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	if len(toks) == 0 || !toks[0].Name() {
		p.diagf(diag.SyntaxError, kw.Location, "#undef requires a macro name")
		return next, false
	}
	p.table.Undef(toks[0].Str())
	return next, false
}

func (p *preprocessor) handleError(kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	p.diagf(diag.ERROR, kw.Location, "%s", stringifyTokens(toks))
	return next, true
}

func (p *preprocessor) handleWarning(kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	p.diagf(diag.WARNING, kw.Location, "%s", stringifyTokens(toks))
	return next, false
}

// handleLine implements "#line digit-sequence" and "#line digit-sequence
// \"filename\"", macro-expanding its arguments first as ISO 6.10.4
// requires. It installs an override so every subsequently reported
// Location on this physical file (in output tokens, __LINE__ and
// __FILE__) counts from the declared line/file instead of the physical
// one, until superseded by another #line or a change of file.
func (p *preprocessor) handleLine(kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	if len(toks) == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#line expects a line number")
		return next, false
	}
	expanded := p.expandLineTokens(toks, next)
	if len(expanded) == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#line expects a line number")
		return next, false
	}
	n, err := strconv.Atoi(expanded[0].Str())
	if err != nil {
		p.diagf(diag.SyntaxError, kw.Location, "#line: %q is not a valid line number", expanded[0].Str())
		return next, false
	}

	declaredFile := kw.Location.File
	if len(expanded) > 1 {
		if name := expanded[1].Str(); len(name) >= 2 && name[0] == '"' {
			declaredFile = p.files.Intern(name[1 : len(name)-1])
		}
	}
	p.lineOverride = &lineOverride{
		file:         kw.Location.File,
		atLine:       kw.Location.Line + 1,
		declaredLine: n,
		declaredFile: declaredFile,
	}
	return next, false
}

func (p *preprocessor) handleInclude(work *token.List, kw *token.Token) (*token.Token, bool) {
	toks, next := restOfLine(kw.Next)
	if len(toks) == 0 {
		p.diagf(diag.SyntaxError, kw.Location, "#include expects a header name")
		return next, false
	}

	target, angled, ok := parseHeaderName(toks)
	if !ok {
		target, angled, ok = p.expandForInclude(toks, next, kw.Location)
	}
	if !ok {
		p.diagf(diag.SyntaxError, kw.Location, "malformed #include directive")
		return next, false
	}

	resolved, list, found := p.resolveInclude(target, angled)
	if !found {
		p.diagf(diag.MissingHeader, kw.Location, "%s: No such file or directory", target)
		return next, false
	}
	if p.depthPlusOne() > p.maxDepth {
		p.diagf(diag.IncludeNestedTooDeeply, kw.Location, "#include nested too deeply")
		return next, true
	}
	return p.spliceInclude(work, list, resolved, next), false
}

// expandForInclude handles the "#include MACRO" form: MACRO's expansion is
// re-parsed as a quoted or angle-bracketed header name.
func (p *preprocessor) expandForInclude(toks []*token.Token, end *token.Token, loc token.Location) (string, bool, bool) {
	return parseHeaderName(p.expandLineTokens(toks, end))
}

// expandLineTokens macro-expands the tokens of one directive line (the
// same treatment #if and #include give their own argument tokens) and
// returns the flattened result, for directives such as #line whose
// arguments may themselves come from a macro.
func (p *preprocessor) expandLineTokens(toks []*token.Token, end *token.Token) []*token.Token {
	var built token.List
	cur := toks[0]
	for cur != nil && cur != end {
		if d, ok := p.table.Lookup(cur.Str()); ok {
			p.macroUsage = append(p.macroUsage, MacroUsage{Name: d.Name(), DefineLocation: d.NameToken.Location, UseLocation: cur.Location})
			cur = p.table.Expand(&built, cur.Location, cur, nil, p.diags)
			continue
		}
		built.PushBackStr(cur.Str(), cur.Location)
		cur = cur.Next
	}
	var expanded []*token.Token
	for t := built.Front(); t != nil; t = t.Next {
		expanded = append(expanded, t)
	}
	return expanded
}

// parseHeaderName recognizes "name.h" (a single quoted-string token) or
// <name.h> (a '<' token, arbitrary tokens, a '>' token).
func parseHeaderName(toks []*token.Token) (target string, angled bool, ok bool) {
	if len(toks) == 0 {
		return "", false, false
	}
	first := toks[0]
	if len(first.Str()) >= 2 && first.Str()[0] == '"' && len(toks) == 1 {
		s := first.Str()
		return s[1 : len(s)-1], false, true
	}
	if first.Op() == '<' {
		var sb strings.Builder
		closed := false
		for _, t := range toks[1:] {
			if t.Op() == '>' {
				closed = true
				break
			}
			sb.WriteString(t.Str())
		}
		if closed {
			return sb.String(), true, true
		}
	}
	return "", false, false
}

func stringifyTokens(toks []*token.Token) string {
	var l token.List
	for _, t := range toks {
		l.PushBackStr(t.Str(), t.Location)
	}
	return l.Stringify()
}

// currentFile returns the path of whichever file the driver is lexically
// inside right now.
func (p *preprocessor) currentFile() string {
	if len(p.fileStack) == 0 {
		return ""
	}
	return p.fileStack[len(p.fileStack)-1]
}

func dirOf(p string) string {
	p = pathutil.SimplifyPath(p)
	if idx := strings.LastIndexByte(p, '/'); idx >= 0 {
		return p[:idx]
	}
	return ""
}

// resolveInclude looks target up in the cache, trying the current file's
// directory first for a quoted include, then every -I path, in order.
func (p *preprocessor) resolveInclude(target string, angled bool) (resolved string, list *token.List, found bool) {
	var dirs []string
	if !angled {
		if dir := dirOf(p.currentFile()); dir != "" {
			dirs = append(dirs, dir)
		} else {
			dirs = append(dirs, "")
		}
	}
	dirs = append(dirs, p.dui.IncludePaths...)

	for _, dir := range dirs {
		candidate := target
		if dir != "" {
			candidate = pathutil.SimplifyPath(path.Join(dir, target))
		} else {
			candidate = pathutil.SimplifyPath(target)
		}
		if l, ok := p.cache.Lookup(candidate); ok && l != nil {
			return candidate, l, true
		}
	}
	if l, ok := p.cache.Lookup(target); ok && l != nil {
		return target, l, true
	}
	return "", nil, false
}

func (p *preprocessor) depthPlusOne() int { return len(p.returnPoints) + 1 }

// spliceInclude clones an included file's tokens into work immediately
// before resumeAt, and returns the token to continue scanning from (the
// clone's first token, or resumeAt itself when the header is empty).
func (p *preprocessor) spliceInclude(work *token.List, list *token.List, resolved string, resumeAt *token.Token) *token.Token {
	cloned := list.Clone()
	p.fileStack = append(p.fileStack, resolved)
	p.returnPoints = append(p.returnPoints, resumeAt)
	front := cloned.Front()
	work.InsertListBefore(cloned, resumeAt)
	if front == nil {
		return resumeAt
	}
	return front
}

// spliceForcedInclude implements one DUI.Includes entry ("-include FILE"):
// it is resolved like an angle-bracket include (search path only, no
// current-file-relative lookup) and spliced ahead of insertPoint.
func (p *preprocessor) spliceForcedInclude(work *token.List, name string, insertPoint *token.Token) {
	resolved, list, found := p.resolveInclude(name, true)
	if !found {
		p.diagf(diag.ExplicitIncludeNotFound, token.Location{}, "%s: No such file or directory", name)
		return
	}
	p.spliceInclude(work, list, resolved, insertPoint)
}

// evalCondition substitutes defined(...)/__has_include(...) and expands
// macros across toks (the tokens of a #if/#elif line, up to but excluding
// end), then evaluates the result as a constant expression. It returns the
// boolean outcome and the line's original (pre-substitution) text for
// IfCond bookkeeping.
func (p *preprocessor) evalCondition(toks []*token.Token, end *token.Token, loc token.Location) (bool, string) {
	exprText := stringifyRawTokens(toks)

	var built token.List
	cur := toks[0]
	for cur != nil && cur != end {
		switch {
		case cur.Str() == "defined":
			val, adv := p.substDefined(cur)
			built.PushBackStr(val, cur.Location)
			cur = adv
		case cur.Str() == "__has_include":
			val, adv := p.substHasInclude(cur)
			built.PushBackStr(val, cur.Location)
			cur = adv
		case cur.Name():
			if bval, ok := p.builtinValue(cur.Str(), p.reportLocation(cur.Location)); ok {
				built.PushBackStr(bval, cur.Location)
				cur = cur.Next
			} else if d, ok := p.table.Lookup(cur.Str()); ok {
				p.macroUsage = append(p.macroUsage, MacroUsage{Name: d.Name(), DefineLocation: d.NameToken.Location, UseLocation: cur.Location})
				cur = p.table.Expand(&built, cur.Location, cur, nil, p.diags)
			} else {
				built.PushBackStr(cur.Str(), cur.Location)
				cur = cur.Next
			}
		default:
			built.PushBackStr(cur.Str(), cur.Location)
			cur = cur.Next
		}
	}

	var exprToks []*token.Token
	for t := built.Front(); t != nil; t = t.Next {
		exprToks = append(exprToks, t)
	}
	result, err := eval.Evaluate(exprToks, eval.Options{SizeofOverrides: p.dui.SizeofOverrides})
	if err != nil {
		p.diagf(diag.SyntaxError, loc, "invalid preprocessor expression: %v", err)
		return false, exprText
	}
	return result != 0, exprText
}

func stringifyRawTokens(toks []*token.Token) string {
	var l token.List
	for _, t := range toks {
		l.PushBackStr(t.Str(), t.Location)
	}
	return l.StringifyRaw()
}

// substDefined consumes "defined X" or "defined ( X )" starting at the
// "defined" token and returns "1"/"0" plus the token to resume scanning
// from.
func (p *preprocessor) substDefined(defTok *token.Token) (string, *token.Token) {
	nxt := defTok.Next
	if nxt != nil && nxt.Op() == '(' {
		nameTok := nxt.Next
		if nameTok == nil || !nameTok.Name() {
			return "0", nxt.Next
		}
		closeParen := nameTok.Next
		if closeParen == nil || closeParen.Op() != ')' {
			return "0", nameTok.Next
		}
		return boolStr(p.table.Defined(nameTok.Str()) || p.isBuiltinDefined(nameTok.Str())), closeParen.Next
	}
	if nxt != nil && nxt.Name() {
		return boolStr(p.table.Defined(nxt.Str()) || p.isBuiltinDefined(nxt.Str())), nxt.Next
	}
	return "0", defTok.Next
}

// substHasInclude consumes "__has_include ( header )" and returns "1"/"0"
// plus the resume token.
func (p *preprocessor) substHasInclude(tok *token.Token) (string, *token.Token) {
	nxt := tok.Next
	if nxt == nil || nxt.Op() != '(' {
		return "0", tok.Next
	}
	var inner []*token.Token
	t := nxt.Next
	for t != nil && t.Op() != ')' {
		inner = append(inner, t)
		t = t.Next
	}
	if t == nil {
		return "0", nil
	}
	closeParen := t
	target, angled, ok := parseHeaderName(inner)
	if !ok {
		return "0", closeParen.Next
	}
	_, _, found := p.resolveInclude(target, angled)
	return boolStr(found), closeParen.Next
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
