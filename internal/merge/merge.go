// Package merge decides which entries of a metric are new relative to what a
// store already holds.
package merge

import (
	"fmt"
)

// RangeSource is a store that can report the stored time range of a table.
type RangeSource interface {
	Exists(owner, category, table string) (bool, error)
	TimeRange(owner, category, table string) (min, max int64, err error)
}

// Cutoff returns the timestamp in nanoseconds at or before which entries
// are already stored: the newest stored timestamp of the table, or 0 when
// src is nil or the table does not exist.
func Cutoff(src RangeSource, owner, category, table string) (int64, error) {
	if src == nil {
		return 0, nil
	}

	ok, err := src.Exists(owner, category, table)
	if err != nil {
		return 0, fmt.Errorf("cutoff /%s/%s/%s: %w", owner, category, table, err)
	}
	if !ok {
		return 0, nil
	}

	_, max, err := src.TimeRange(owner, category, table)
	if err != nil {
		return 0, fmt.Errorf("cutoff /%s/%s/%s: %w", owner, category, table, err)
	}
	return max, nil
}

// After reports whether an entry at timeNs is new relative to cutoff.
func After(timeNs, cutoff int64) bool {
	return timeNs > cutoff
}
