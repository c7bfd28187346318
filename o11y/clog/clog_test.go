package clog

import (
	"context"
	"testing"
)

func TestFromContextFallsBackToBaseLogger(t *testing.T) {
	l := FromContext(context.Background())
	if l == nil {
		t.Fatal("FromContext returned nil")
	}
	l.Infof("hello %s", "world")
}

func TestNewSpanCarriesLabels(t *testing.T) {
	ctx := NewSpan(context.Background(), "trace-1", "span-1", map[string]string{"file": "main.c"})
	l := FromContext(ctx)
	if l.trace != "trace-1" || l.spanID != "span-1" {
		t.Errorf("logger = %+v, want trace-1/span-1", l)
	}
	l.Warningf("saw %d includes", 3)
}

func TestVerbosityGating(t *testing.T) {
	SetVerbosity(0)
	base := FromContext(context.Background())
	if base.V(2) {
		t.Error("V(2) = true at verbosity 0, want false")
	}
	SetVerbosity(2)
	verbose := FromContext(context.Background())
	if !verbose.V(2) {
		t.Error("V(2) = false at verbosity 2, want true")
	}
	SetVerbosity(0)
}
