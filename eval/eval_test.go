package eval

import (
	"testing"

	"github.com/gocpp-project/gocpp/lexer"
	"github.com/gocpp-project/gocpp/token"
)

func exprTokens(t *testing.T, src string) []*token.Token {
	t.Helper()
	list, _, err := lexer.Lex(0, []byte(src))
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	var toks []*token.Token
	for tok := list.Front(); tok != nil; tok = tok.Next {
		toks = append(toks, tok)
	}
	return toks
}

func evalStr(t *testing.T, src string) int64 {
	t.Helper()
	v, err := Evaluate(exprTokens(t, src), Options{})
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	return v
}

func TestEvaluateArithmetic(t *testing.T) {
	for _, tc := range []struct {
		expr string
		want int64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 / 3", 3},
		{"10 % 3", 1},
		{"10 / 0", 0},
		{"10 % 0", 0},
		{"1 << 4", 16},
		{"256 >> 4", 16},
		{"1 == 1", 1},
		{"1 != 1", 0},
		{"1 && 0", 0},
		{"1 || 0", 1},
		{"!0", 1},
		{"!5", 0},
		{"~0", -1},
		{"-5 + 3", -2},
		{"1 ? 2 : 3", 2},
		{"0 ? 2 : 3", 3},
		{"1 < 2 && 3 > 2", 1},
		{"0x10", 16},
		{"010", 8},
		{"1 and 1", 1},
		{"1 xor 1", 0},
		{"not 0", 1},
		{"5 bitand 3", 1},
		{"5 bitor 2", 7},
		{"compl 0", -1},
		{"sizeof(int)", 4},
		{"sizeof(char)", 1},
		{"sizeof(long long)", 8},
		{"'a'", int64('a')},
		{"undefined_name", 0},
	} {
		t.Run(tc.expr, func(t *testing.T) {
			if got := evalStr(t, tc.expr); got != tc.want {
				t.Errorf("Evaluate(%q) = %d, want %d", tc.expr, got, tc.want)
			}
		})
	}
}

func TestEvaluateSizeofOverride(t *testing.T) {
	v, err := Evaluate(exprTokens(t, "sizeof(int)"), Options{SizeofOverrides: map[string]int64{"int": 2}})
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Errorf("overridden sizeof(int) = %d, want 2", v)
	}
}

func TestEvaluateOverflowWraps(t *testing.T) {
	got := evalStr(t, "9223372036854775807 + 1")
	if got != -9223372036854775808 {
		t.Errorf("overflow wrap = %d, want min int64", got)
	}
}

func TestEvaluateSyntaxErrors(t *testing.T) {
	for _, expr := range []string{"", "1 +", "(1", "1 2"} {
		toks := exprTokens(t, expr)
		if _, err := Evaluate(toks, Options{}); err == nil {
			t.Errorf("Evaluate(%q) expected error, got none", expr)
		}
	}
}
