package parquet

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

// PartWriter writes the rows of one table part.
//
// Rows go to a temporary file in the target directory; Close renames it to
// its final path so a part is either complete or absent.
type PartWriter struct {
	mu       sync.Mutex
	path     string
	tmp      string
	file     *os.File
	writer   *parquet.Writer
	layout   *layout
	rowCount int64
	closed   bool
}

// NewPartWriter creates a writer for the part at path holding rows of
// schema s.
func NewPartWriter(path string, s types.Schema, opts Options) (*PartWriter, error) {
	ps, err := NewSchema(filepath.Base(filepath.Dir(path)), s)
	if err != nil {
		return nil, err
	}
	l, err := newLayout(ps, s)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, config.DirPerm); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".part-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}

	md := make(map[string]string, len(opts.Metadata)+len(s.Columns))
	for k, v := range opts.Metadata {
		md[k] = v
	}
	for _, c := range s.Columns {
		md[UnitKeyPrefix+c.Name] = c.Unit
	}
	opts.Metadata = md

	writerOpts := append([]parquet.WriterOption{ps}, opts.writerOptions()...)
	writer := parquet.NewWriter(f, writerOpts...)

	return &PartWriter{
		path:   path,
		tmp:    f.Name(),
		file:   f,
		writer: writer,
		layout: l,
	}, nil
}

// Write writes rows to the part.
func (w *PartWriter) Write(rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	out := make([]parquet.Row, len(rows))
	for i := range rows {
		r, err := w.layout.toRow(&rows[i])
		if err != nil {
			return err
		}
		out[i] = r
	}

	n, err := w.writer.WriteRows(out)
	if err != nil {
		return fmt.Errorf("write rows: %w", err)
	}

	w.rowCount += int64(n)
	return nil
}

// Close finishes the file and moves it to its final path.
func (w *PartWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.writer.Close(); err != nil {
		w.discard()
		return fmt.Errorf("close writer: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.discard()
		return fmt.Errorf("sync file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Chmod(w.tmp, config.FilePerm); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("chmod file: %w", err)
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		os.Remove(w.tmp)
		return fmt.Errorf("rename part: %w", err)
	}
	return nil
}

// Abort discards everything written so far.
func (w *PartWriter) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	w.discard()
}

func (w *PartWriter) discard() {
	w.file.Close()
	os.Remove(w.tmp)
}

// RowCount returns the number of rows written.
func (w *PartWriter) RowCount() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Path returns the final file path.
func (w *PartWriter) Path() string {
	return w.path
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = fmt.Errorf("parquet writer is closed")
