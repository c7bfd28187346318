// Package trace provides lightweight span tracking for a preprocessing
// run: how long lexing, macro expansion and each #include resolution
// took, threaded through a context.Context the way clog threads its
// logger. It has no exporter of its own; a caller collects finished spans
// and prints or serializes them however it likes.
package trace

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type contextKeyType int

var contextKey contextKeyType

// Span records one named unit of work between Start and its Done call.
type Span struct {
	TraceID  string
	SpanID   string
	ParentID string
	Name     string
	Start    time.Time
	End      time.Time
	Labels   map[string]string

	collector *Collector
}

// Done records End as now and reports the span to its Collector, if any.
func (s *Span) Done() {
	if s == nil {
		return
	}
	s.End = time.Now()
	if s.collector != nil {
		s.collector.record(*s)
	}
}

// Duration returns End.Sub(Start); it is only meaningful after Done.
func (s *Span) Duration() time.Duration {
	if s == nil {
		return 0
	}
	return s.End.Sub(s.Start)
}

// Collector accumulates finished spans for later inspection, e.g. to print
// a summary of where a batch preprocessing run spent its time.
type Collector struct {
	mu    sync.Mutex
	spans []Span
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) record(s Span) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spans = append(c.spans, s)
}

// Spans returns a snapshot of every span recorded so far.
func (c *Collector) Spans() []Span {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Span, len(c.spans))
	copy(out, c.spans)
	return out
}

// NewContext attaches collector and a fresh trace ID to ctx, to be shared
// by every span started from it.
func NewContext(ctx context.Context, collector *Collector) context.Context {
	return context.WithValue(ctx, contextKey, &traceState{
		collector: collector,
		traceID:   uuid.NewString(),
	})
}

type traceState struct {
	collector *Collector
	traceID   string
	spanID    string
}

// Start begins a new span named name as a child of whatever span (if any)
// is active on ctx, returning a context carrying the child span so nested
// work can start its own children in turn.
func Start(ctx context.Context, name string, labels map[string]string) (context.Context, *Span) {
	st, _ := ctx.Value(contextKey).(*traceState)
	traceID := ""
	parentID := ""
	var collector *Collector
	if st != nil {
		traceID = st.traceID
		parentID = st.spanID
		collector = st.collector
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	span := &Span{
		TraceID:   traceID,
		SpanID:    uuid.NewString(),
		ParentID:  parentID,
		Name:      name,
		Start:     time.Now(),
		Labels:    labels,
		collector: collector,
	}
	child := context.WithValue(ctx, contextKey, &traceState{
		collector: collector,
		traceID:   traceID,
		spanID:    span.SpanID,
	})
	return child, span
}
