package iometrics

import "testing"

func TestCounters(t *testing.T) {
	m := New("test")
	m.OpsDone(nil)
	m.ReadDone(10, nil)
	m.WriteDone(5, errTest)
	stats := m.Stats()
	if stats.Ops != 1 || stats.ROps != 1 || stats.RBytes != 10 || stats.WOps != 1 || stats.WBytes != 5 || stats.WErrs != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if got := m.String(); got == "" {
		t.Error("String() is empty")
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *IOMetrics
	m.OpsDone(nil)
	m.ReadDone(1, nil)
	m.WriteDone(1, nil)
	if m.Name() != "<nil>" {
		t.Errorf("Name() = %q", m.Name())
	}
	if got := m.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero value", got)
	}
}

var errTest = errTestType{}

type errTestType struct{}

func (errTestType) Error() string { return "test error" }
