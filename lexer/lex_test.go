package lexer

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lexStrs(t *testing.T, src string) []string {
	t.Helper()
	list, diags, err := Lex(0, []byte(src))
	if err != nil {
		t.Fatalf("Lex(%q) error: %v", src, err)
	}
	if len(diags) != 0 {
		t.Logf("Lex(%q) diags: %+v", src, diags)
	}
	var out []string
	for tok := list.Front(); tok != nil; tok = tok.Next {
		out = append(out, tok.Str())
	}
	return out
}

func TestLexBasic(t *testing.T) {
	for _, tc := range []struct {
		name string
		src  string
		want []string
	}{
		{name: "identifiers-and-numbers", src: "a1 _b 12 0x1F 1.5e+3", want: []string{"a1", "_b", "12", "0x1F", "1.5e+3"}},
		{name: "operators-combine", src: "a<<=1 b->c x...y", want: []string{"a", "<<=", "1", "b", "->", "c", "x", "...", "y"}},
		{name: "line-comment", src: "a // hi\nb", want: []string{"a", "// hi", "b"}},
		{name: "block-comment", src: "a /* hi\nthere */ b", want: []string{"a", "/* hi\nthere */", "b"}},
		{name: "string-literal", src: `"a\"b" 'c'`, want: []string{`"a\"b"`, "'c'"}},
		{name: "prefixed-literal-adjacent", src: `u8"a b"`, want: []string{`u8"a b"`}},
		{name: "prefixed-literal-space-not-merged", src: `u8 "a b"`, want: []string{"u8", `"a b"`}},
		{name: "raw-string", src: `R"(a"b)"`, want: []string{`"a"b"`}},
		{name: "digit-separator-dropped", src: "1'000", want: []string{"1000"}},
		{name: "line-splice", src: "ab\\\ncd", want: []string{"abcd"}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := lexStrs(t, tc.src)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Lex(%q) tokens mismatch (-want +got):\n%s", tc.src, diff)
			}
		})
	}
}

func TestLexUnterminatedLiteralFails(t *testing.T) {
	_, _, err := Lex(0, []byte(`"abc`))
	if err == nil {
		t.Fatal("expected error for unterminated string literal")
	}
}

func TestLexUnterminatedBlockCommentFails(t *testing.T) {
	_, _, err := Lex(0, []byte("/* never closes"))
	if err == nil {
		t.Fatal("expected error for unterminated block comment")
	}
}

func TestLexHighBitByteIsDiagnosedNotFatal(t *testing.T) {
	list, diags, err := Lex(0, []byte("a \x80 b"))
	if err != nil {
		t.Fatalf("unexpected fatal error: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("diags = %v, want exactly one UNHANDLED_CHAR_ERROR", diags)
	}
	var got []string
	for tok := list.Front(); tok != nil; tok = tok.Next {
		got = append(got, tok.Str())
	}
	if want := "a b"; strings.Join(got, " ") != want {
		t.Errorf("tokens = %v, want %q", got, want)
	}
}

func TestCharValue(t *testing.T) {
	for _, tc := range []struct {
		lexeme string
		want   int64
	}{
		{`'a'`, 'a'},
		{`'\n'`, '\n'},
		{`'\x41'`, 0x41},
		{`'\101'`, 0101},
		{`L'é'`, 0xe9},
		{`'ab'`, int64('a')<<8 | int64('b')},
	} {
		got, err := CharValue(tc.lexeme)
		if err != nil {
			t.Errorf("CharValue(%q) error: %v", tc.lexeme, err)
			continue
		}
		if got != tc.want {
			t.Errorf("CharValue(%q) = %d, want %d", tc.lexeme, got, tc.want)
		}
	}
}
