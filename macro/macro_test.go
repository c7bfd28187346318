package macro

import (
	"testing"

	"github.com/gocpp-project/gocpp/diag"
	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/token"
)

// buildLine lexes src as a single logical line at line n and links its
// tokens with Previous/Next, matching the shape ParseDefine/Expand expect:
// a chain of tokens carrying real Location.Line values, not a token.List.
func buildLine(t *testing.T, n int, src string) *token.Token {
	t.Helper()
	list, _, err := lexer.Lex(0, []byte(src))
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	var first, prev *token.Token
	for tok := list.Front(); tok != nil; tok = tok.Next {
		tok.Location.Line = n
		if first == nil {
			first = tok
		}
		if prev != nil {
			prev.Next = tok
			tok.Previous = prev
		}
		prev = tok
	}
	return first
}

// chain concatenates several buildLine results into one token stream, each
// retaining its own line number, and returns the head.
func chain(lines ...*token.Token) *token.Token {
	if len(lines) == 0 {
		return nil
	}
	for i := 0; i < len(lines)-1; i++ {
		tail := lines[i]
		for tail.Next != nil {
			tail = tail.Next
		}
		tail.Next = lines[i+1]
		lines[i+1].Previous = tail
	}
	return lines[0]
}

func TestObjectLikeMacroExpansion(t *testing.T) {
	def := buildLine(t, 1, "PI 3 14159")
	use := buildLine(t, 2, "PI")
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatalf("ParseDefine: %v", err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	next := table.Expand(&out, use.Location, use, nil, &diags)
	if next != nil {
		t.Errorf("Expand consumed past the object-like invocation, next=%v", next)
	}
	if got, want := out.StringifyRaw(), "3 14159"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestFunctionLikeMacroExpansion(t *testing.T) {
	def := buildLine(t, 1, "ADD(a,b) a+b")
	use := buildLine(t, 2, "ADD(1,2)")
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatalf("ParseDefine: %v", err)
	}
	if !d.FuncLike {
		t.Fatalf("expected FuncLike macro")
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), "1 + 2"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestStringifyOperator(t *testing.T) {
	def := buildLine(t, 1, `STR(x) #x`)
	use := buildLine(t, 2, `STR(hello world)`)
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), `"hello world"`; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestStringifyOperatorPreservesSourceAdjacency(t *testing.T) {
	def := buildLine(t, 1, `A(x) #x`)
	use := buildLine(t, 2, `A(2+3)`)
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), `"2+3"`; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestTokenPasteOperator(t *testing.T) {
	def := buildLine(t, 1, "CAT(a,b) a##b")
	use := buildLine(t, 2, "CAT(foo,bar)")
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), "foobar"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestStringifyOperandIsNotMacroExpanded(t *testing.T) {
	foo := buildLine(t, 1, "FOO 42")
	str := buildLine(t, 2, "STR(x) #x")
	use := buildLine(t, 3, "STR(FOO)")
	chain(foo, str, use)

	table := NewTable()
	for _, def := range []*token.Token{foo, str} {
		d, err := ParseDefine(def)
		if err != nil {
			t.Fatal(err)
		}
		table.Define(d)
	}

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), `"FOO"`; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestTokenPasteOperandsAreNotMacroExpanded(t *testing.T) {
	foo := buildLine(t, 1, "FOO bar")
	cat := buildLine(t, 2, "CAT(x,y) x##y")
	use := buildLine(t, 3, "CAT(FOO,2)")
	chain(foo, cat, use)

	table := NewTable()
	for _, def := range []*token.Token{foo, cat} {
		d, err := ParseDefine(def)
		if err != nil {
			t.Fatal(err)
		}
		table.Define(d)
	}

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), "FOO2"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestHashHashHashYieldsLiteralHashHash(t *testing.T) {
	def := buildLine(t, 1, "GLUE(x) # ## #")
	use := buildLine(t, 2, "GLUE(ignored)")
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), "##"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestVariadicMacroExpansion(t *testing.T) {
	def := buildLine(t, 1, "LOG(fmt,...) printf(fmt,__VA_ARGS__)")
	use := buildLine(t, 2, `LOG("x=%d",1,2,3)`)
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	if !d.Variadic {
		t.Fatalf("expected variadic macro")
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	got := out.StringifyRaw()
	want := `printf ( "x=%d" , 1 , 2 , 3 )`
	if got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestWrongArgumentCountPassesThrough(t *testing.T) {
	def := buildLine(t, 1, "ADD(a,b) a+b")
	use := buildLine(t, 2, "ADD(1)")
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), "ADD ( 1 )"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
	if len(diags.Entries()) != 1 || diags.Entries()[0].Kind != diag.SyntaxError {
		t.Errorf("diags = %+v, want one SYNTAX_ERROR", diags.Entries())
	}
}

func TestSelfReferenceDoesNotRecurseForever(t *testing.T) {
	def := buildLine(t, 1, "X X+1")
	use := buildLine(t, 2, "X")
	chain(def, use)

	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table := NewTable()
	table.Define(d)

	var out token.List
	var diags diag.List
	table.Expand(&out, use.Location, use, nil, &diags)
	if got, want := out.StringifyRaw(), "X + 1"; got != want {
		t.Errorf("expansion = %q, want %q", got, want)
	}
}

func TestUndef(t *testing.T) {
	table := NewTable()
	def := buildLine(t, 1, "FOO 1")
	d, err := ParseDefine(def)
	if err != nil {
		t.Fatal(err)
	}
	table.Define(d)
	if !table.Defined("FOO") {
		t.Fatal("expected FOO defined")
	}
	table.Undef("FOO")
	if table.Defined("FOO") {
		t.Fatal("expected FOO undefined")
	}
}
