// Package table implements the destination store: a directory tree of
// tables addressed as /<owner>/<category>/<table>.
//
// Each table directory holds a manifest (title, columns, unit labels and
// the time index) and one Parquet part file per append. A part is written
// to a temporary file and renamed into place before the manifest that
// references it is replaced, so a crash never leaves a half-written part
// in the index.
package table

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/logging"
	"github.com/xtxerr/ktimport/internal/storage/parquet"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

// Options configures a store.
type Options struct {
	// ReadOnly opens the store with a shared lock and rejects writes.
	ReadOnly bool

	// Parquet configures part files written by Append.
	Parquet parquet.Options

	// Logger defaults to the "store" component logger.
	Logger *slog.Logger
}

// Store is an open destination store.
type Store struct {
	mu     sync.Mutex
	root   string
	opts   Options
	lock   *os.File
	log    *slog.Logger
	closed bool
}

// Open opens the store at root. A writable store is created if missing and
// held with an exclusive lock; a read-only store must exist and is held
// with a shared lock.
func Open(root string, opts Options) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Component("store")
	}

	if opts.ReadOnly {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewNotFound("store", root)
			}
			return nil, fmt.Errorf("stat store: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("store %s is not a directory: %w", root, errors.ErrInvalidName)
		}
	} else if err := os.MkdirAll(root, config.DirPerm); err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}

	lock, err := acquire(root, opts.ReadOnly)
	if err != nil {
		return nil, err
	}

	s := &Store{
		root: root,
		opts: opts,
		lock: lock,
		log:  opts.Logger.With("root", root),
	}
	s.log.Debug("store opened", "read_only", opts.ReadOnly)
	return s, nil
}

func acquire(root string, readOnly bool) (*os.File, error) {
	path := filepath.Join(root, config.LockFile)

	var (
		f   *os.File
		err error
	)
	if readOnly {
		f, err = os.Open(path)
		if os.IsNotExist(err) {
			// A store never opened for writing has nothing to protect.
			return nil, nil
		}
	} else {
		f, err = os.OpenFile(path, os.O_CREATE|os.O_RDWR, config.FilePerm)
	}
	if err != nil {
		return nil, fmt.Errorf("open lock: %w", err)
	}

	if err := lockFile(f, !readOnly); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// ReadOnly reports whether the store rejects writes.
func (s *Store) ReadOnly() bool {
	return s.opts.ReadOnly
}

func (s *Store) check(write bool) error {
	if s.closed {
		return errors.ErrStoreClosed
	}
	if write && s.opts.ReadOnly {
		return errors.ErrReadOnly
	}
	return nil
}

func (s *Store) manifestPath(h Handle) string {
	return filepath.Join(h.dir(s.root), config.ManifestFile)
}

// Exists reports whether the table exists.
func (s *Store) Exists(owner, category, table string) (bool, error) {
	h, err := NewHandle(owner, category, table)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(false); err != nil {
		return false, err
	}
	return s.exists(h)
}

func (s *Store) exists(h Handle) (bool, error) {
	_, err := os.Stat(s.manifestPath(h))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat %s: %w", h, err)
}

// TimeRange returns the smallest and largest stored timestamp of the
// table. A table without rows reports (0, 0).
func (s *Store) TimeRange(owner, category, table string) (min, max int64, err error) {
	h, err := NewHandle(owner, category, table)
	if err != nil {
		return 0, 0, err
	}

	m, err := s.Manifest(h)
	if err != nil {
		return 0, 0, err
	}
	min, max, _ = m.TimeRange()
	return min, max, nil
}

// Manifest returns the manifest of the table.
func (s *Store) Manifest(h Handle) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(false); err != nil {
		return nil, err
	}
	return s.manifest(h)
}

func (s *Store) manifest(h Handle) (*Manifest, error) {
	m, err := readManifest(s.manifestPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", h, errors.ErrTableNotFound)
		}
		return nil, err
	}
	return m, nil
}

// Create creates an empty table with the given title and schema.
func (s *Store) Create(h Handle, title string, schema types.Schema) (*Manifest, error) {
	if _, err := parquet.NewSchema(h.Table, schema); err != nil {
		return nil, fmt.Errorf("create %s: %w", h, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(true); err != nil {
		return nil, err
	}

	ok, err := s.exists(h)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, fmt.Errorf("%s: %w", h, errors.ErrTableExists)
	}

	if err := os.MkdirAll(h.dir(s.root), config.DirPerm); err != nil {
		return nil, fmt.Errorf("create %s: %w", h, err)
	}

	m := &Manifest{
		Title:    title,
		Columns:  schema.Columns,
		NextPart: 1,
	}
	if err := writeManifest(s.manifestPath(h), m); err != nil {
		return nil, fmt.Errorf("create %s: %w", h, err)
	}

	s.log.Info("table created", "table", h.String(), "columns", schema.String())
	return m, nil
}

// Append writes rows as one new part and adds it to the time index. Rows
// are stored in the given order.
func (s *Store) Append(h Handle, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(true); err != nil {
		return err
	}

	m, err := s.manifest(h)
	if err != nil {
		return err
	}

	batch := types.RowBatch{Rows: rows}
	min, max, _ := batch.TimeRange()

	name := fmt.Sprintf(config.PartFilePattern, m.NextPart)
	path := filepath.Join(h.dir(s.root), name)

	opts := s.opts.Parquet
	opts.Metadata = map[string]string{"title": m.Title}

	w, err := parquet.NewPartWriter(path, m.Schema(), opts)
	if err != nil {
		return fmt.Errorf("append %s: %w", h, err)
	}
	if err := w.Write(rows); err != nil {
		w.Abort()
		return fmt.Errorf("append %s: %w", h, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("append %s: %w", h, err)
	}

	m.Parts = append(m.Parts, Part{
		File:    name,
		Rows:    w.RowCount(),
		MinTime: min,
		MaxTime: max,
	})
	m.NextPart++
	m.index()

	if err := writeManifest(s.manifestPath(h), m); err != nil {
		os.Remove(path)
		return fmt.Errorf("append %s: %w", h, err)
	}

	s.log.Debug("part appended", "table", h.String(), "part", name, "rows", len(rows))
	return nil
}

// Drop removes the table and all of its parts. An empty category directory
// left behind is removed too.
func (s *Store) Drop(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(true); err != nil {
		return err
	}

	ok, err := s.exists(h)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", h, errors.ErrTableNotFound)
	}

	if err := os.RemoveAll(h.dir(s.root)); err != nil {
		return fmt.Errorf("drop %s: %w", h, err)
	}
	os.Remove(filepath.Dir(h.dir(s.root)))

	s.log.Info("table dropped", "table", h.String())
	return nil
}

// Flush makes the table's directory entries durable.
func (s *Store) Flush(h Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(true); err != nil {
		return err
	}

	for _, dir := range []string{
		h.dir(s.root),
		filepath.Dir(h.dir(s.root)),
		filepath.Join(s.root, h.Owner),
	} {
		if err := syncDir(dir); err != nil {
			return fmt.Errorf("flush %s: %w", h, err)
		}
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// PartPaths returns the absolute paths of the table's parts in index order.
func (s *Store) PartPaths(h Handle) ([]string, error) {
	m, err := s.Manifest(h)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(m.Parts))
	for i, p := range m.Parts {
		paths[i] = filepath.Join(h.dir(s.root), p.File)
	}
	return paths, nil
}

// Read returns all rows of the table, part by part in index order.
func (s *Store) Read(h Handle) ([]types.Row, error) {
	m, err := s.Manifest(h)
	if err != nil {
		return nil, err
	}
	return s.readParts(h, m, m.Parts)
}

// ReadRange returns the rows with from <= time <= to.
func (s *Store) ReadRange(h Handle, from, to int64) ([]types.Row, error) {
	m, err := s.Manifest(h)
	if err != nil {
		return nil, err
	}

	rows, err := s.readParts(h, m, m.Overlapping(from, to))
	if err != nil {
		return nil, err
	}

	out := rows[:0]
	for _, r := range rows {
		if r.TimeNs >= from && r.TimeNs <= to {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) readParts(h Handle, m *Manifest, parts []Part) ([]types.Row, error) {
	var out []types.Row
	for _, p := range parts {
		r, err := parquet.NewPartReader(filepath.Join(h.dir(s.root), p.File), m.Schema())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", h, err)
		}
		rows, err := r.ReadAll()
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s/%s: %w", h, p.File, err)
		}
		out = append(out, rows...)
	}
	return out, nil
}

// Tables lists every table in the store, sorted by path.
func (s *Store) Tables() ([]Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(false); err != nil {
		return nil, err
	}

	var out []Handle
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != config.ManifestFile {
			return nil
		}
		rel, err := filepath.Rel(s.root, filepath.Dir(path))
		if err != nil {
			return err
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		out = append(out, Handle{Owner: parts[0], Category: parts[1], Table: parts[2]})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Close releases the store lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.lock == nil {
		return nil
	}
	err := unlockFile(s.lock)
	if cerr := s.lock.Close(); err == nil {
		err = cerr
	}
	s.log.Debug("store closed")
	return err
}
