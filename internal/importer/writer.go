package importer

import (
	"fmt"
	"log/slog"

	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/metric"
	"github.com/xtxerr/ktimport/internal/storage/table"
	"github.com/xtxerr/ktimport/internal/translate"
)

// Writer persists translated batches into the output store.
type Writer struct {
	store *table.Store
	log   *slog.Logger
}

// NewWriter creates a writer on an open, writable store.
func NewWriter(store *table.Store, log *slog.Logger) *Writer {
	return &Writer{store: store, log: log}
}

// Write appends b to the table at h, creating the table on first write.
//
// An empty batch returns errors.ErrNoData and touches nothing. A batch whose
// columns differ from the existing table returns *errors.SchemaMismatchError;
// for SET metrics a changed label list counts as a different column. A table
// created by a failed Write is removed again.
func (w *Writer) Write(h table.Handle, b *translate.Batch) error {
	if b.Empty() {
		return errors.ErrNoData
	}

	ok, err := w.store.Exists(h.Owner, h.Category, h.Table)
	if err != nil {
		return err
	}

	if !ok {
		if _, err := w.store.Create(h, b.Metric, b.Schema); err != nil {
			return err
		}
	} else if err := w.check(h, b); err != nil {
		return err
	}

	if err := w.store.Append(h, b.Rows.Rows); err != nil {
		if !ok {
			if derr := w.store.Drop(h); derr != nil {
				w.log.Error("failed to remove new table", "table", h.String(), "error", derr)
			}
		}
		return fmt.Errorf("write %s: %w", h, err)
	}
	return w.store.Flush(h)
}

func (w *Writer) check(h table.Handle, b *translate.Batch) error {
	m, err := w.store.Manifest(h)
	if err != nil {
		return err
	}
	stored := m.Schema()
	if !stored.Compatible(b.Schema) {
		return &errors.SchemaMismatchError{
			Path:     h.String(),
			Existing: stored.String(),
			Incoming: b.Schema.String(),
		}
	}

	changed := stored.UnitChanges(b.Schema)
	if len(changed) == 0 {
		return nil
	}

	// A SET table keeps one label list for all of its codes.
	if b.Type == metric.TypeSet {
		old, _ := stored.Value()
		cur, _ := b.Schema.Value()
		return &errors.SchemaMismatchError{
			Path:     h.String(),
			Existing: fmt.Sprintf("labels [%s]", old.Unit),
			Incoming: fmt.Sprintf("labels [%s]", cur.Unit),
		}
	}

	for _, col := range changed {
		w.log.Warn("unit label changed, keeping stored label",
			"table", h.String(), "column", col)
	}
	return nil
}
