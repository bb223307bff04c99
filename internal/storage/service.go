package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtxerr/ktimport/internal/logging"
	"github.com/xtxerr/ktimport/internal/storage/aggregate"
	"github.com/xtxerr/ktimport/internal/storage/config"
	"github.com/xtxerr/ktimport/internal/storage/parquet"
	"github.com/xtxerr/ktimport/internal/storage/query"
	"github.com/xtxerr/ktimport/internal/storage/table"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

// Service ties a table store to its settings and the query engine.
type Service struct {
	mu sync.Mutex

	config *config.Config
	store  *table.Store
	log    *slog.Logger

	// created on first Inspect
	query *query.Service
}

// Open opens the store at root. A nil cfg uses the defaults.
func Open(root string, cfg *config.Config, readOnly bool) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.Component("storage")

	store, err := table.Open(root, table.Options{
		ReadOnly: readOnly,
		Parquet:  parquet.OptionsFromConfig(cfg),
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}

	return &Service{
		config: cfg,
		store:  store,
		log:    log,
	}, nil
}

// Store returns the underlying table store.
func (s *Service) Store() *table.Store {
	return s.store
}

// Config returns the store settings.
func (s *Service) Config() *config.Config {
	return s.config
}

// Close closes the query engine and releases the store.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var qerr error
	if s.query != nil {
		qerr = s.query.Close()
		s.query = nil
	}
	if err := s.store.Close(); err != nil {
		return err
	}
	return qerr
}

func (s *Service) queryService() (*query.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.query == nil {
		q, err := query.New(s.config)
		if err != nil {
			return nil, err
		}
		s.query = q
	}
	return s.query, nil
}

// Window limits the value statistics of a report to [From, To], in
// nanoseconds. The zero Window covers the whole table.
type Window struct {
	From int64
	To   int64
}

// IsZero reports whether w covers the whole table.
func (w Window) IsZero() bool {
	return w == Window{}
}

// Report describes one stored table.
type Report struct {
	Table   string
	Title   string
	Columns []types.Column
	Parts   int
	Bytes   int64

	// From the manifest time index.
	Rows    int64
	MinTime int64
	MaxTime int64

	// From a full scan of the part files.
	Scan query.Scan

	// Value statistics; nil for tables without a value column.
	Summary *types.Summary
	Window  Window

	// Problems lists every disagreement between the index and the scan.
	Problems []string
}

// Consistent reports whether the index matches the stored parts.
func (r *Report) Consistent() bool {
	return len(r.Problems) == 0
}

// Inspect builds the report of one table. The index check always covers the
// whole table; w only restricts the value statistics.
func (s *Service) Inspect(ctx context.Context, owner, category, name string, w Window) (*Report, error) {
	h, err := table.NewHandle(owner, category, name)
	if err != nil {
		return nil, err
	}

	m, err := s.store.Manifest(h)
	if err != nil {
		return nil, err
	}
	paths, err := s.store.PartPaths(h)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Table:   h.String(),
		Title:   m.Title,
		Columns: m.Columns,
		Parts:   len(m.Parts),
		Rows:    m.Rows(),
		Window:  w,
	}
	r.MinTime, r.MaxTime, _ = m.TimeRange()

	for _, p := range paths {
		info, err := parquet.GetFileInfo(p)
		if err != nil {
			return nil, err
		}
		r.Bytes += info.Size
	}

	q, err := s.queryService()
	if err != nil {
		return nil, err
	}

	// The scan and the value statistics read the same parts independently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scan, err := q.ScanParts(gctx, paths)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", h, err)
		}
		r.Scan = scan
		return nil
	})
	if m.Schema().HasValue() {
		g.Go(func() error {
			var rows []types.Row
			var err error
			if w.IsZero() {
				rows, err = s.store.Read(h)
			} else {
				rows, err = s.store.ReadRange(h, w.From, w.To)
			}
			if err != nil {
				return err
			}

			accuracy := 0.0
			if s.config.Percentile.Enabled {
				accuracy = s.config.Percentile.Accuracy
			}
			agg := aggregate.New(accuracy)
			agg.AddRows(rows)
			summary := agg.Summary()
			r.Summary = &summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if r.Scan.Rows != r.Rows {
		r.Problems = append(r.Problems, fmt.Sprintf("index holds %d rows, parts hold %d", r.Rows, r.Scan.Rows))
	}
	if r.Rows > 0 && (r.Scan.MinTime != r.MinTime || r.Scan.MaxTime != r.MaxTime) {
		r.Problems = append(r.Problems, fmt.Sprintf("index range [%d, %d], parts range [%d, %d]",
			r.MinTime, r.MaxTime, r.Scan.MinTime, r.Scan.MaxTime))
	}

	s.log.Debug("table inspected", "table", r.Table, "parts", r.Parts, "consistent", r.Consistent())
	return r, nil
}

// WriteTo prints the report in a human-readable form.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "table:   %s\n", r.Table)
	fmt.Fprintf(&b, "title:   %s\n", r.Title)
	b.WriteString("columns:\n")
	for _, c := range r.Columns {
		fmt.Fprintf(&b, "  %-6s %-11s %s\n", c.Name, c.Kind, c.Unit)
	}
	fmt.Fprintf(&b, "parts:   %d (%s)\n", r.Parts, config.FormatBytes(r.Bytes))
	fmt.Fprintf(&b, "rows:    %d\n", r.Rows)
	if r.Rows > 0 {
		fmt.Fprintf(&b, "first:   %s\n", formatTime(r.MinTime))
		fmt.Fprintf(&b, "last:    %s\n", formatTime(r.MaxTime))
	}

	if !r.Window.IsZero() {
		fmt.Fprintf(&b, "window:  %s .. %s\n", formatTime(r.Window.From), formatTime(r.Window.To))
	}
	if s := r.Summary; s != nil && s.Count > 0 {
		fmt.Fprintf(&b, "values:  count=%d min=%g max=%g avg=%g\n", s.Count, s.Min, s.Max, s.Avg)
		if s.HasPercentiles() {
			fmt.Fprintf(&b, "         p50=%g p90=%g p99=%g\n", *s.P50, *s.P90, *s.P99)
		}
	}

	if r.Consistent() {
		b.WriteString("index:   ok\n")
	} else {
		for _, p := range r.Problems {
			fmt.Fprintf(&b, "index:   %s\n", p)
		}
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func formatTime(ns int64) string {
	return time.Unix(0, ns).UTC().Format(time.RFC3339)
}
