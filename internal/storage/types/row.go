package types

import (
	"github.com/xtxerr/ktimport/internal/kind"
)

// Row is one stored observation.
type Row struct {
	// TimeNs is nanoseconds since the epoch.
	TimeNs int64

	// TZ is the offset from UTC in 15 minute blocks, positive west.
	TZ int8

	// Value is meaningful only when HasValue is set. Marker rows carry
	// no value.
	Value    kind.Value
	HasValue bool
}

// RowBatch is an ordered collection of rows for one table.
type RowBatch struct {
	Rows []Row
}

// NewRowBatch creates a new batch with the given capacity.
func NewRowBatch(capacity int) *RowBatch {
	return &RowBatch{
		Rows: make([]Row, 0, capacity),
	}
}

// Add appends a row to the batch.
func (b *RowBatch) Add(r Row) {
	b.Rows = append(b.Rows, r)
}

// Len returns the number of rows in the batch.
func (b *RowBatch) Len() int {
	return len(b.Rows)
}

// TimeRange returns the smallest and largest timestamp in the batch.
// ok is false for an empty batch.
func (b *RowBatch) TimeRange() (min, max int64, ok bool) {
	if len(b.Rows) == 0 {
		return 0, 0, false
	}
	min, max = b.Rows[0].TimeNs, b.Rows[0].TimeNs
	for _, r := range b.Rows[1:] {
		if r.TimeNs < min {
			min = r.TimeNs
		}
		if r.TimeNs > max {
			max = r.TimeNs
		}
	}
	return min, max, true
}

// Clear resets the batch for reuse.
func (b *RowBatch) Clear() {
	b.Rows = b.Rows[:0]
}
