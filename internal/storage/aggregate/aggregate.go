// Package aggregate computes running statistics over table rows.
//
// A Streaming aggregate tracks count, sum, min, max and the first and last
// timestamp of a row stream. When percentiles are enabled it also feeds a
// DDSketch, so quantiles are available with a bounded relative error.
package aggregate

import (
	"math"
	"sync"

	"github.com/DataDog/sketches-go/ddsketch"

	"github.com/xtxerr/ktimport/internal/storage/types"
)

// Streaming maintains running statistics for one table.
type Streaming struct {
	mu sync.Mutex

	rows    int64
	count   int64
	sum     float64
	min     float64
	max     float64
	firstNs int64
	lastNs  int64

	// nil if percentiles are disabled
	sketch   *ddsketch.DDSketch
	accuracy float64
}

// New creates an empty aggregate. A positive accuracy enables percentiles
// with that relative accuracy; zero or less disables them.
func New(accuracy float64) *Streaming {
	a := &Streaming{accuracy: accuracy}
	a.reset()
	return a
}

func (a *Streaming) reset() {
	a.rows = 0
	a.count = 0
	a.sum = 0
	a.min = math.MaxFloat64
	a.max = -math.MaxFloat64
	a.firstNs = 0
	a.lastNs = 0
	a.sketch = nil

	if a.accuracy > 0 {
		// DDSketch has no Clear, so a reset builds a new one.
		sketch, err := ddsketch.NewDefaultDDSketch(a.accuracy)
		if err == nil {
			a.sketch = sketch
		}
	}
}

// Add adds one row. Rows without a value only count towards Rows and the
// time range.
func (a *Streaming) Add(r types.Row) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.add(r)
}

// AddRows adds rows in order.
func (a *Streaming) AddRows(rows []types.Row) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, r := range rows {
		a.add(r)
	}
}

func (a *Streaming) add(r types.Row) {
	if a.rows == 0 || r.TimeNs < a.firstNs {
		a.firstNs = r.TimeNs
	}
	if a.rows == 0 || r.TimeNs > a.lastNs {
		a.lastNs = r.TimeNs
	}
	a.rows++

	if !r.HasValue {
		return
	}

	v := r.Value.Float64()
	a.count++
	a.sum += v
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	if a.sketch != nil {
		a.sketch.Add(v)
	}
}

// Rows returns the number of rows added.
func (a *Streaming) Rows() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rows
}

// IsEmpty returns true if no rows have been added.
func (a *Streaming) IsEmpty() bool {
	return a.Rows() == 0
}

// Summary returns the statistics gathered so far.
func (a *Streaming) Summary() types.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := types.Summary{
		Rows:    a.rows,
		Count:   a.count,
		Sum:     a.sum,
		FirstNs: a.firstNs,
		LastNs:  a.lastNs,
	}

	if a.count > 0 {
		s.Avg = a.sum / float64(a.count)
		s.Min = a.min
		s.Max = a.max
	}

	if a.sketch != nil && a.count > 0 {
		p50, _ := a.sketch.GetValueAtQuantile(0.50)
		p90, _ := a.sketch.GetValueAtQuantile(0.90)
		p99, _ := a.sketch.GetValueAtQuantile(0.99)
		s.SetPercentiles(p50, p90, p99)
	}

	return s
}

// Reset clears all statistics.
func (a *Streaming) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

// Merge folds other into a.
func (a *Streaming) Merge(other *Streaming) {
	if other == nil || other == a {
		return
	}

	other.mu.Lock()
	defer other.mu.Unlock()
	if other.rows == 0 {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.rows == 0 || other.firstNs < a.firstNs {
		a.firstNs = other.firstNs
	}
	if a.rows == 0 || other.lastNs > a.lastNs {
		a.lastNs = other.lastNs
	}
	a.rows += other.rows
	a.count += other.count
	a.sum += other.sum

	if other.min < a.min {
		a.min = other.min
	}
	if other.max > a.max {
		a.max = other.max
	}

	if a.sketch != nil && other.sketch != nil {
		a.sketch.MergeWith(other.sketch)
	}
}
