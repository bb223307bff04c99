package types

import "time"

// Summary holds statistics over the value column of a table.
type Summary struct {
	Rows int64 // Number of rows, including rows without a value

	// Basic statistics (always present)
	Count int64   // Number of rows with a value
	Sum   float64 // Sum of all values
	Min   float64 // Minimum value
	Max   float64 // Maximum value
	Avg   float64 // Average value (Sum / Count)

	// Percentiles (nil if not computed)
	P50 *float64 // 50th percentile (median)
	P90 *float64 // 90th percentile
	P99 *float64 // 99th percentile

	// Timestamps of the first and last row, in nanoseconds
	FirstNs int64
	LastNs  int64
}

// FirstTime returns the first timestamp as a time.Time.
func (s *Summary) FirstTime() time.Time {
	return time.Unix(0, s.FirstNs)
}

// LastTime returns the last timestamp as a time.Time.
func (s *Summary) LastTime() time.Time {
	return time.Unix(0, s.LastNs)
}

// IsEmpty returns true if no rows were summarized.
func (s *Summary) IsEmpty() bool {
	return s.Rows == 0
}

// HasPercentiles returns true if percentile data is available.
func (s *Summary) HasPercentiles() bool {
	return s.P50 != nil
}

// SetPercentiles sets all percentile values.
func (s *Summary) SetPercentiles(p50, p90, p99 float64) {
	s.P50 = &p50
	s.P90 = &p90
	s.P99 = &p99
}
