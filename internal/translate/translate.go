// Package translate converts the raw value entries of one metric declaration
// into typed rows for the store.
//
// Entries at or before the cutoff are dropped. Every kept row carries its
// timestamp in nanoseconds and the timezone offset in 15 minute blocks west
// of UTC, adjusted for daylight time when enabled.
package translate

import (
	"fmt"
	"math"
	"time"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/document"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/merge"
	"github.com/xtxerr/ktimport/internal/metric"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

// Options control the translation of a metric.
type Options struct {
	// CutoffNs drops every entry with a timestamp less than or equal to it.
	CutoffNs int64

	// BaseOffset is the standard-time offset in 15 minute blocks west of UTC.
	BaseOffset int8

	// ApplyDST enables the daylight time adjustment.
	ApplyDST bool

	// Location decides whether an instant falls in daylight time.
	// Nil means time.Local.
	Location *time.Location
}

// Batch is the translated form of one metric.
type Batch struct {
	Metric string
	Type   metric.Type
	Schema types.Schema
	Rows   *types.RowBatch

	// Dropped counts entries at or before the cutoff.
	Dropped int

	// Warnings are recoverable problems found in the declaration.
	Warnings []error
}

// Len returns the number of translated rows.
func (b *Batch) Len() int {
	return b.Rows.Len()
}

// Empty reports whether no entry survived the cutoff.
func (b *Batch) Empty() bool {
	return b.Rows.Len() == 0
}

// Translate converts m according to cfg and opts.
//
// An unknown metric type returns an error wrapping
// errors.ErrUnknownMetricType. A NUMBER value that does not parse returns
// *errors.ConversionError and a SET value outside the predefined labels
// returns *errors.UndeclaredLabelError. An entry time that does not fit in
// nanoseconds returns *errors.TimeRangeError. All of these abort the whole
// metric.
func Translate(m *document.Metric, cfg metric.Config, opts Options) (*Batch, error) {
	typ, err := metric.ParseType(m.Type)
	if err != nil {
		return nil, fmt.Errorf("metric %q: %w", m.Name, err)
	}

	b := &Batch{
		Metric: m.Name,
		Type:   typ,
		Rows:   types.NewRowBatch(len(m.Values)),
	}

	switch typ {
	case metric.TypeNumber:
		unit, ok := m.Unit()
		if !ok {
			b.Warnings = append(b.Warnings, fmt.Errorf("metric %q: %w", m.Name, errors.ErrMissingUnits))
		}
		b.Schema = types.NewSchema(cfg.Column, unit)
		err = translateNumbers(b, m, cfg, opts)
	case metric.TypeMarker:
		b.Schema = types.NewSchema(kind.ColumnUnset, "")
		err = translateMarkers(b, m, opts)
	case metric.TypeSet:
		enum, warnings, err := NewEnumeration(m.Predefined)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", m.Name, err)
		}
		for _, w := range warnings {
			b.Warnings = append(b.Warnings, fmt.Errorf("metric %q: %w", m.Name, w))
		}
		setCol, _ := kind.ParseColumn(config.SetColumnKind)
		b.Schema = types.NewSchema(setCol, enum.Unit())
		err = translateSet(b, m, enum, opts)
	}
	if err != nil {
		return nil, err
	}

	return b, nil
}

// Entry times outside this range overflow int64 nanoseconds.
const (
	maxSeconds = math.MaxInt64 / config.NanosPerSecond
	minSeconds = math.MinInt64 / config.NanosPerSecond
)

// each calls fn for every entry after the cutoff with its row time and tz
// already filled in.
func each(b *Batch, m *document.Metric, opts Options, fn func(e document.Entry, row *types.Row) error) error {
	for _, e := range m.Values {
		if e.Time > maxSeconds || e.Time < minSeconds {
			return &errors.TimeRangeError{Metric: m.Name, Time: e.Time}
		}
		row := types.Row{TimeNs: e.Time * config.NanosPerSecond}
		if !merge.After(row.TimeNs, opts.CutoffNs) {
			b.Dropped++
			continue
		}

		tz, err := opts.Offset(e.Time)
		if err != nil {
			return fmt.Errorf("metric %q: %w", m.Name, err)
		}
		row.TZ = tz

		if fn != nil {
			if err := fn(e, &row); err != nil {
				return err
			}
		}
		b.Rows.Add(row)
	}
	return nil
}

func translateNumbers(b *Batch, m *document.Metric, cfg metric.Config, opts Options) error {
	stored := cfg.Column.Numeric()
	return each(b, m, opts, func(e document.Entry, row *types.Row) error {
		v, err := cfg.Numeric.Parse(e.Text)
		if err != nil {
			return &errors.ConversionError{
				Metric: m.Name,
				Text:   e.Text,
				Kind:   cfg.Numeric.String(),
				Err:    err,
			}
		}
		row.Value = v.Convert(stored)
		row.HasValue = true
		return nil
	})
}

func translateMarkers(b *Batch, m *document.Metric, opts Options) error {
	return each(b, m, opts, nil)
}

func translateSet(b *Batch, m *document.Metric, enum *Enumeration, opts Options) error {
	return each(b, m, opts, func(e document.Entry, row *types.Row) error {
		code, ok := enum.Code(e.Text)
		if !ok {
			return &errors.UndeclaredLabelError{
				Metric: m.Name,
				Label:  e.Text,
				TimeNs: row.TimeNs,
			}
		}
		row.Value = kind.IntValue(kind.Int16, int64(code))
		row.HasValue = true
		return nil
	})
}
