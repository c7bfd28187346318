// Package scandeps provides a fast, non-expanding pre-scan of a source
// file's #include graph: enough to schedule which headers a build needs to
// fetch or cache before running the real preprocessor, without paying for
// full macro expansion or conditional evaluation.
//
// It only recognizes:
//
//	#include "foo.h"
//	#include <foo.h>
//	#include FOO_H
//
// and, to resolve the last form, single-token object-like #defines whose
// value is itself a header name or another such macro:
//
//	#define FOO_H "foo.h"
//	#define FOO_H <foo.h>
//	#define FOO_H OTHER_FOO_H
//
// Anything else (#if, function-like macros, multi-token replacement lists)
// is out of scope: scandeps trades precision for speed, and a caller that
// needs exact results still runs the cpp package afterward.
package scandeps

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"time"

	log "github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/gocpp-project/gocpp/cpp"
	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/o11y/clog"
	"github.com/gocpp-project/gocpp/token"
)

// Include is one #include directive found during a scan.
type Include struct {
	// Target is the header name without its delimiters.
	Target string
	// Angled is true for <target>, false for "target" or a macro name.
	Angled bool
	// Macro is the raw macro name for #include FOO_H forms, or "" when
	// Target was already a literal header name.
	Macro string
}

// Result is what one Scan call found.
type Result struct {
	Includes []Include
	// Defines maps a single-token macro name to every literal header name
	// (already delimiter-stripped) it might expand to.
	Defines map[string][]string
}

// Scan lexes buf (the contents of name) and extracts its #include graph
// per the package doc, without expanding any macro beyond the single-token
// forms it understands.
func Scan(ctx context.Context, name string, buf []byte) (Result, error) {
	started := time.Now()
	res := Result{Defines: make(map[string][]string)}

	files := cpp.NewFiles()
	list, diags, err := lexer.Lex(files.Intern(name), buf)
	if err != nil {
		return res, err
	}
	for _, d := range diags {
		if log.V(2) {
			clog.Infof(ctx, "scandeps lex diagnostic in %s: %+v", name, d)
		}
	}

	tok := list.Front()
	for tok != nil {
		if tok.Op() != '#' || !atLineStart(tok) {
			tok = tok.Next
			continue
		}
		toks, next := restOfLine(tok.Next)
		if len(toks) == 0 {
			tok = next
			continue
		}
		switch toks[0].Str() {
		case "include", "include_next", "import":
			if inc, ok := parseInclude(toks[1:]); ok {
				res.Includes = append(res.Includes, inc)
			} else if log.V(2) {
				clog.Infof(ctx, "scandeps: unrecognized include in %s at %s", name, toks[0].Location)
			}
		case "define":
			addDefine(res.Defines, toks[1:])
		}
		tok = next
	}

	if dur := time.Since(started); dur > time.Second {
		clog.Infof(ctx, "slow scandeps scan %s: %s", name, dur)
	}
	return res, nil
}

// Files expands every #include FOO_H form in r.Includes to the literal
// header names FOO_H (transitively) resolves to, using r.Defines, and
// returns the flat set of concrete header targets a build should fetch:
// literal "..."/<...> includes plus every resolvable macro expansion.
// Unresolvable macro names (never #defined in this file) are dropped,
// since the definition may come from a command-line -D the scanner never
// saw.
func (r Result) Files() []string {
	var out []string
	seen := make(map[string]bool)
	var expand func(name string)
	expand = func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		for _, v := range r.Defines[name] {
			if _, isMacro := r.Defines[v]; isMacro {
				expand(v)
				continue
			}
			out = append(out, v)
		}
	}
	for _, inc := range r.Includes {
		if inc.Macro == "" {
			out = append(out, inc.Target)
			continue
		}
		expand(inc.Macro)
	}
	return out
}

func atLineStart(tok *token.Token) bool {
	prev := tok.Previous
	return prev == nil || prev.Location.Line != tok.Location.Line || prev.Location.File != tok.Location.File
}

func restOfLine(start *token.Token) (toks []*token.Token, next *token.Token) {
	if start == nil {
		return nil, nil
	}
	line, file := start.Location.Line, start.Location.File
	tok := start
	for tok != nil && tok.Location.Line == line && tok.Location.File == file {
		toks = append(toks, tok)
		tok = tok.Next
	}
	return toks, tok
}

// parseInclude recognizes "foo.h", <foo.h> and a bare macro name as the
// operand of an #include/#include_next/#import directive.
func parseInclude(toks []*token.Token) (Include, bool) {
	if len(toks) == 0 {
		return Include{}, false
	}
	first := toks[0].Str()
	switch {
	case strings.HasPrefix(first, `"`) && strings.HasSuffix(first, `"`) && len(first) >= 2:
		return Include{Target: first[1 : len(first)-1], Angled: false}, true
	case first == "<":
		var sb strings.Builder
		for _, t := range toks[1:] {
			if t.Op() == '>' {
				return Include{Target: sb.String(), Angled: true}, true
			}
			sb.WriteString(t.Str())
		}
		return Include{}, false
	case toks[0].Name():
		return Include{Macro: first}, true
	}
	return Include{}, false
}

// addDefine records macro's value in defines when the replacement list is
// a single literal header name or a single bare identifier (the only
// shapes an #include FOO_H resolution needs).
func addDefine(defines map[string][]string, toks []*token.Token) {
	if len(toks) < 2 || !toks[0].Name() {
		return
	}
	name := toks[0].Str()
	rest := toks[1:]
	switch {
	case len(rest) >= 1 && strings.HasPrefix(rest[0].Str(), `"`) && strings.HasSuffix(rest[0].Str(), `"`):
		v := rest[0].Str()
		defines[name] = append(defines[name], v[1:len(v)-1])
	case len(rest) >= 3 && rest[0].Op() == '<' && rest[len(rest)-1].Op() == '>':
		var sb strings.Builder
		for _, t := range rest[1 : len(rest)-1] {
			sb.WriteString(t.Str())
		}
		defines[name] = append(defines[name], sb.String())
	case len(rest) == 1 && rest[0].Name():
		defines[name] = append(defines[name], rest[0].Str())
	}
}

// ScanAll scans every name in names concurrently, limited to
// runtime.NumCPU() workers, and returns each result keyed by name. read
// supplies the bytes for a given name (typically fileio.FS.ReadFile). A
// read or scan error on one file does not stop the others; ScanAll returns
// the first error encountered alongside whatever results did complete.
func ScanAll(ctx context.Context, names []string, read func(ctx context.Context, name string) ([]byte, error)) (map[string]Result, error) {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.NumCPU())

	var mu sync.Mutex
	results := make(map[string]Result, len(names))
	for _, name := range names {
		name := name
		eg.Go(func() error {
			data, err := read(gctx, name)
			if err != nil {
				return err
			}
			res, err := Scan(gctx, name, data)
			if err != nil {
				return err
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	err := eg.Wait()
	return results, err
}
