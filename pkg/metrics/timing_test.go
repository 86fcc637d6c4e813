package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("count = %d, want 2", s.Count)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 {
		t.Errorf("unexpected stats %+v", s)
	}

	m.Reset()
	if m.Count() != 0 {
		t.Error("Reset should clear count")
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	m := newTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Record(time.Millisecond)
		}()
	}
	wg.Wait()
	if m.Count() != 50 {
		t.Errorf("count = %d, want 50", m.Count())
	}
}

func TestTimerDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	if m.Count() != 0 {
		t.Error("disabled metrics should not record")
	}
}

func TestAllTimingStatsOnlyWithData(t *testing.T) {
	ResetAll()
	defer ResetAll()

	Timer(Render)()
	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "render" {
		t.Errorf("expected only render stats, got %+v", stats)
	}

	var got time.Duration
	TimerWithCallback(Export, func(d time.Duration) { got = d })()
	if got < 0 || Export.Count() != 1 {
		t.Error("TimerWithCallback should record and call back")
	}
}

func TestTimerWithCallbackDisabled(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	called := false
	TimerWithCallback(m, func(time.Duration) { called = true })()
	if !called {
		t.Error("callback should run with collection disabled")
	}
	if m.Count() != 0 {
		t.Error("nothing should be recorded with collection disabled")
	}
}
