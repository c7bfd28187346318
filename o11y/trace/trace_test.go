package trace

import (
	"context"
	"testing"
)

func TestStartDoneRecordsSpan(t *testing.T) {
	collector := NewCollector()
	ctx := NewContext(context.Background(), collector)

	ctx, parent := Start(ctx, "preprocess", map[string]string{"file": "main.c"})
	_, child := Start(ctx, "lex", nil)
	child.Done()
	parent.Done()

	spans := collector.Spans()
	if len(spans) != 2 {
		t.Fatalf("len(spans) = %d, want 2", len(spans))
	}
	byName := map[string]Span{}
	for _, s := range spans {
		byName[s.Name] = s
	}
	lex, ok := byName["lex"]
	if !ok {
		t.Fatal("missing lex span")
	}
	pre, ok := byName["preprocess"]
	if !ok {
		t.Fatal("missing preprocess span")
	}
	if lex.ParentID != pre.SpanID {
		t.Errorf("lex.ParentID = %q, want %q", lex.ParentID, pre.SpanID)
	}
	if lex.TraceID != pre.TraceID {
		t.Errorf("trace IDs differ: %q vs %q", lex.TraceID, pre.TraceID)
	}
}

func TestStartWithoutContextStillWorks(t *testing.T) {
	_, span := Start(context.Background(), "solo", nil)
	span.Done()
	if span.TraceID == "" || span.SpanID == "" {
		t.Errorf("span = %+v, want non-empty IDs", span)
	}
}
