package aggregate

import (
	"math"
	"sync"
	"testing"

	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

func row(ts int64, v float64) types.Row {
	return types.Row{TimeNs: ts, Value: kind.FloatValue(kind.Float64, v), HasValue: true}
}

func TestStreaming_Basic(t *testing.T) {
	agg := New(0)

	if !agg.IsEmpty() {
		t.Error("new aggregate should be empty")
	}

	agg.Add(row(2000, 20))
	agg.Add(row(1000, 10))
	agg.Add(row(3000, 30))

	if agg.IsEmpty() {
		t.Error("aggregate should not be empty")
	}

	s := agg.Summary()

	if s.Rows != 3 || s.Count != 3 {
		t.Errorf("expected rows=3 count=3, got rows=%d count=%d", s.Rows, s.Count)
	}
	if s.Sum != 60.0 {
		t.Errorf("expected sum=60, got %f", s.Sum)
	}
	if s.Min != 10.0 {
		t.Errorf("expected min=10, got %f", s.Min)
	}
	if s.Max != 30.0 {
		t.Errorf("expected max=30, got %f", s.Max)
	}
	if math.Abs(s.Avg-20.0) > 0.001 {
		t.Errorf("expected avg=20, got %f", s.Avg)
	}
	if s.FirstNs != 1000 || s.LastNs != 3000 {
		t.Errorf("expected range [1000, 3000], got [%d, %d]", s.FirstNs, s.LastNs)
	}
	if s.HasPercentiles() {
		t.Error("should not have percentiles")
	}
}

func TestStreaming_IntegerValues(t *testing.T) {
	agg := New(0)
	agg.Add(types.Row{TimeNs: 1, Value: kind.IntValue(kind.Int16, 2), HasValue: true})
	agg.Add(types.Row{TimeNs: 2, Value: kind.IntValue(kind.Int16, 0), HasValue: true})

	s := agg.Summary()
	if s.Min != 0 || s.Max != 2 {
		t.Errorf("expected [0, 2], got [%v, %v]", s.Min, s.Max)
	}
}

func TestStreaming_Markers(t *testing.T) {
	agg := New(0.01)
	agg.AddRows([]types.Row{{TimeNs: 5}, {TimeNs: 9}})

	s := agg.Summary()
	if s.Rows != 2 {
		t.Errorf("expected rows=2, got %d", s.Rows)
	}
	if s.Count != 0 {
		t.Errorf("expected no values, got %d", s.Count)
	}
	if s.Min != 0 || s.Max != 0 || s.Avg != 0 {
		t.Errorf("expected zero statistics, got %+v", s)
	}
	if s.HasPercentiles() {
		t.Error("markers must not produce percentiles")
	}
	if s.FirstNs != 5 || s.LastNs != 9 {
		t.Errorf("expected range [5, 9], got [%d, %d]", s.FirstNs, s.LastNs)
	}
}

func TestStreaming_WithPercentiles(t *testing.T) {
	agg := New(0.01)

	for i := 1; i <= 100; i++ {
		agg.Add(row(int64(i), float64(i)))
	}

	s := agg.Summary()
	if !s.HasPercentiles() {
		t.Fatal("should have percentiles")
	}

	check := func(name string, got *float64, want float64) {
		t.Helper()
		if math.Abs(*got-want) > want*0.02+1 {
			t.Errorf("expected %s≈%v, got %v", name, want, *got)
		}
	}
	check("p50", s.P50, 50)
	check("p90", s.P90, 90)
	check("p99", s.P99, 99)
}

func TestStreaming_Reset(t *testing.T) {
	agg := New(0.01)
	agg.Add(row(1, 10))
	agg.Add(row(2, 20))

	agg.Reset()

	if !agg.IsEmpty() {
		t.Error("aggregate should be empty after reset")
	}

	agg.Add(row(3, 100))
	s := agg.Summary()
	if s.Count != 1 || s.Min != 100 || s.Max != 100 {
		t.Errorf("unexpected summary after reset: %+v", s)
	}
	if s.FirstNs != 3 {
		t.Errorf("expected first=3, got %d", s.FirstNs)
	}
	if !s.HasPercentiles() {
		t.Error("percentiles should survive a reset")
	}
}

func TestStreaming_Merge(t *testing.T) {
	a := New(0.01)
	a.Add(row(100, 10))
	a.Add(row(200, 20))

	b := New(0.01)
	b.Add(row(50, 5))
	b.Add(row(300, 30))

	a.Merge(b)
	a.Merge(nil)
	a.Merge(New(0.01))

	s := a.Summary()
	if s.Count != 4 {
		t.Errorf("expected count=4, got %d", s.Count)
	}
	if s.Sum != 65 {
		t.Errorf("expected sum=65, got %f", s.Sum)
	}
	if s.Min != 5 || s.Max != 30 {
		t.Errorf("expected [5, 30], got [%v, %v]", s.Min, s.Max)
	}
	if s.FirstNs != 50 || s.LastNs != 300 {
		t.Errorf("expected range [50, 300], got [%d, %d]", s.FirstNs, s.LastNs)
	}
}

func TestStreaming_Concurrent(t *testing.T) {
	agg := New(0.01)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				agg.Add(row(int64(g*100+i), float64(i)))
			}
		}(g)
	}
	wg.Wait()

	if n := agg.Rows(); n != 1000 {
		t.Errorf("expected 1000 rows, got %d", n)
	}
}

func TestManager_Basic(t *testing.T) {
	m := NewManager(0)

	m.Process("/self/Health/weight", []types.Row{row(1, 70.5), row(2, 71)})
	m.Process("/self/Health/weight", []types.Row{row(3, 72)})
	m.Process("/self/Fitness/steps", []types.Row{row(1, 1000)})

	if m.ActiveCount() != 2 {
		t.Errorf("expected 2 tables, got %d", m.ActiveCount())
	}

	s, ok := m.Summary("/self/Health/weight")
	if !ok {
		t.Fatal("missing summary")
	}
	if s.Count != 3 || s.Max != 72 {
		t.Errorf("unexpected summary: %+v", s)
	}

	if _, ok := m.Summary("/self/Health/mood"); ok {
		t.Error("unexpected summary for unknown table")
	}

	stats := m.Stats()
	if stats.RowsProcessed != 4 || stats.Batches != 3 || stats.Tables != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestManager_FlushAll(t *testing.T) {
	m := NewManager(0.01)

	m.Process("/self/Health/weight", []types.Row{row(1, 70)})
	m.Process("/self/Fitness/steps", []types.Row{row(1, 1000)})
	m.Process("/self/Health/empty", nil)

	flushed := m.FlushAll()
	if len(flushed) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(flushed))
	}
	if flushed[0].Table != "/self/Fitness/steps" || flushed[1].Table != "/self/Health/weight" {
		t.Errorf("unexpected order: %s, %s", flushed[0].Table, flushed[1].Table)
	}
	if !flushed[1].HasPercentiles() {
		t.Error("expected percentiles")
	}
	if m.ActiveCount() != 0 {
		t.Error("manager should be empty after FlushAll")
	}
}

func BenchmarkStreaming_Add(b *testing.B) {
	agg := New(0)
	r := row(1, 42)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Add(r)
	}
}

func BenchmarkStreaming_AddWithPercentile(b *testing.B) {
	agg := New(0.01)
	r := row(1, 42)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Add(r)
	}
}
