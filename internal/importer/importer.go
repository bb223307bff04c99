// Package importer drives one import run: it reads the input document, resolves
// every metric against the directives, drops what the reference store already
// holds and appends the rest to the output store.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/classifier"
	"github.com/xtxerr/ktimport/internal/directive"
	"github.com/xtxerr/ktimport/internal/document"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/logging"
	"github.com/xtxerr/ktimport/internal/merge"
	"github.com/xtxerr/ktimport/internal/storage"
	"github.com/xtxerr/ktimport/internal/storage/aggregate"
	storeconfig "github.com/xtxerr/ktimport/internal/storage/config"
	"github.com/xtxerr/ktimport/internal/storage/table"
	"github.com/xtxerr/ktimport/internal/translate"
)

// Options configure an import run.
type Options struct {
	// Output is the store that receives the rows.
	Output string

	// Reference is the store consulted for cutoffs. Empty disables
	// incremental import. It may name the output store.
	Reference string

	// Directives is the directive file. Empty uses the built-in defaults.
	Directives string

	// OffsetSeconds is the standard-time offset in seconds west of UTC.
	OffsetSeconds int

	// ApplyDST enables the daylight time adjustment.
	ApplyDST bool

	// Location decides whether an instant falls in daylight time.
	// Nil means time.Local.
	Location *time.Location

	// Owner defaults to config.DefaultOwner.
	Owner string

	// Store configures the output store. Nil uses the defaults.
	Store *storeconfig.Config

	// Logger defaults to the "importer" component logger.
	Logger *slog.Logger
}

// Summary reports the outcome of a run.
type Summary struct {
	Metrics  int
	Imported int
	Skipped  int
	Rows     int64
	Dropped  int64

	// Tables holds the statistics of the rows written per table.
	Tables []aggregate.TableSummary
}

// Importer holds the resources of one run.
type Importer struct {
	opts       Options
	classifier *classifier.Classifier
	baseOffset int8

	output    *storage.Service
	reference *storage.Service
	source    merge.RangeSource

	writer *Writer
	stats  *aggregate.Manager
	log    *slog.Logger
}

// New loads the directives and opens the stores. The caller must Close the
// importer.
func New(opts Options) (*Importer, error) {
	if opts.Owner == "" {
		opts.Owner = config.DefaultOwner
	}
	if opts.Logger == nil {
		opts.Logger = logging.Component("importer")
	}
	if opts.Store == nil {
		opts.Store = storeconfig.DefaultConfig()
	}

	base, err := translate.OffsetBlocks(opts.OffsetSeconds)
	if err != nil {
		return nil, errors.Wrapf(err, "base offset %d s", opts.OffsetSeconds)
	}

	res, err := loadDirectives(opts.Directives)
	if err != nil {
		return nil, err
	}
	res.LogWarnings(opts.Logger)

	im := &Importer{
		opts:       opts,
		classifier: classifier.New(res.Defaults, res.Overrides),
		baseOffset: base,
		log:        opts.Logger,
	}
	im.log.Debug("directives loaded",
		"defaults", im.classifier.Defaults().String(),
		"overrides", len(res.Overrides),
		"base_offset", base,
	)

	im.output, err = storage.Open(opts.Output, opts.Store, false)
	if err != nil {
		return nil, errors.Wrap(err, "open output")
	}

	if opts.Reference != "" {
		if samePath(opts.Reference, opts.Output) {
			im.source = im.output.Store()
		} else {
			im.reference, err = storage.Open(opts.Reference, opts.Store, true)
			if err != nil {
				im.output.Close()
				return nil, errors.Wrap(err, "open reference")
			}
			im.source = im.reference.Store()
		}
	}

	accuracy := 0.0
	if opts.Store.Percentile.Enabled {
		accuracy = opts.Store.Percentile.Accuracy
	}

	im.writer = NewWriter(im.output.Store(), opts.Logger)
	im.stats = aggregate.NewManager(accuracy)
	return im, nil
}

func loadDirectives(path string) (*directive.Result, error) {
	if path == "" {
		return directive.Parse(strings.NewReader(""))
	}
	return directive.Load(path)
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}

// Close releases both stores.
func (im *Importer) Close() error {
	var errs []error
	if im.reference != nil {
		errs = append(errs, im.reference.Close())
	}
	errs = append(errs, im.output.Close())
	return errors.Join(errs...)
}

// Import opens the document at path and imports it.
func (im *Importer) Import(ctx context.Context, path string) (*Summary, error) {
	doc, err := document.Open(path)
	if err != nil {
		return nil, err
	}
	return im.Run(ctx, doc)
}

// Run imports every metric of doc in document order. It stops at the first
// fatal error; metrics written before it stay persisted.
func (im *Importer) Run(ctx context.Context, doc *document.Document) (*Summary, error) {
	sum := &Summary{}

	for i := range doc.Metrics {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		m := &doc.Metrics[i]
		sum.Metrics++

		n, err := im.importMetric(m, sum)
		if err == nil {
			sum.Imported++
			sum.Rows += int64(n)
			continue
		}
		if errors.IsFatal(err) {
			im.log.Error("import aborted", "metric", m.Name, "error", err)
			sum.Tables = im.stats.FlushAll()
			return sum, err
		}
		sum.Skipped++
	}

	sum.Tables = im.stats.FlushAll()
	im.log.Info("import finished",
		"metrics", sum.Metrics,
		"imported", sum.Imported,
		"skipped", sum.Skipped,
		"rows", sum.Rows,
		"dropped", sum.Dropped,
	)
	return sum, nil
}

// importMetric returns the number of rows written. Recoverable errors have
// already been logged when they are returned.
func (im *Importer) importMetric(m *document.Metric, sum *Summary) (int, error) {
	cfg := im.classifier.Resolve(m.Name)
	name := classifier.TableName(m.Name)

	h, err := table.NewHandle(im.opts.Owner, cfg.Category, name)
	if err != nil {
		im.log.Warn("skipping metric", "metric", m.Name, "reason", "invalid table name", "error", err)
		return 0, fmt.Errorf("metric %q: %w: %w", m.Name, errors.ErrInvalidTableName, err)
	}

	cutoff, err := merge.Cutoff(im.source, h.Owner, h.Category, h.Table)
	if err != nil {
		return 0, err
	}

	b, err := translate.Translate(m, cfg, translate.Options{
		CutoffNs:   cutoff,
		BaseOffset: im.baseOffset,
		ApplyDST:   im.opts.ApplyDST,
		Location:   im.opts.Location,
	})
	if err != nil {
		if errors.Is(err, errors.ErrUnknownMetricType) {
			im.log.Warn("skipping metric", "metric", m.Name, "type", m.Type, "reason", "unknown type")
		}
		return 0, err
	}
	for _, w := range b.Warnings {
		im.log.Warn("metric declaration", "metric", m.Name, "warning", w)
	}
	sum.Dropped += int64(b.Dropped)

	if b.Empty() {
		im.log.Info("skipping metric", "metric", m.Name, "reason", "no data", "dropped", b.Dropped)
		return 0, errors.ErrNoData
	}

	im.log.Info("importing metric",
		"metric", m.Name,
		"table", h.String(),
		"rows", b.Len(),
		"config", cfg.String(),
		"override", im.classifier.Overridden(m.Name),
	)

	if err := im.writer.Write(h, b); err != nil {
		return 0, err
	}
	im.stats.Process(h.String(), b.Rows.Rows)
	return b.Len(), nil
}
