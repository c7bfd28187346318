package token

import "testing"

func TestSetStrRecomputesFlags(t *testing.T) {
	for _, tc := range []struct {
		name    string
		str     string
		wantOp  byte
		wantNam bool
		wantNum bool
		wantCom bool
	}{
		{name: "identifier", str: "foo_1", wantNam: true},
		{name: "underscore-start", str: "_x", wantNam: true},
		{name: "number", str: "123", wantNum: true},
		{name: "negative-number", str: "-123", wantNum: true},
		{name: "lone-minus", str: "-", wantOp: '-'},
		{name: "line-comment", str: "//x", wantCom: true},
		{name: "block-comment", str: "/*x*/", wantCom: true},
		{name: "paren", str: "(", wantOp: '('},
		{name: "multichar-op", str: "<=", wantOp: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tok := New(tc.str, Location{})
			if tok.Op() != tc.wantOp {
				t.Errorf("Op() = %q, want %q", tok.Op(), tc.wantOp)
			}
			if tok.Name() != tc.wantNam {
				t.Errorf("Name() = %v, want %v", tok.Name(), tc.wantNam)
			}
			if tok.Number() != tc.wantNum {
				t.Errorf("Number() = %v, want %v", tok.Number(), tc.wantNum)
			}
			if tok.Comment() != tc.wantCom {
				t.Errorf("Comment() = %v, want %v", tok.Comment(), tc.wantCom)
			}
		})
	}
}

func TestSetStrMutationRecomputesInPlace(t *testing.T) {
	tok := New("+", Location{})
	if tok.Op() != '+' {
		t.Fatalf("Op() = %q, want '+'", tok.Op())
	}
	tok.SetStr("x")
	if tok.Op() != 0 || !tok.Name() {
		t.Fatalf("after SetStr(x): op=%q name=%v, want op=0 name=true", tok.Op(), tok.Name())
	}
}

func TestLocationAdjust(t *testing.T) {
	loc := Location{File: 0, Line: 1, Col: 0}
	loc = loc.Adjust("ab\ncd\r\nef\rgh")
	if loc.Line != 4 || loc.Col != 2 {
		t.Fatalf("Adjust() = %+v, want Line=4 Col=2", loc)
	}
}
