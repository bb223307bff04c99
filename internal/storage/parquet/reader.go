package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/xtxerr/ktimport/internal/storage/types"
)

const readBatch = 1024

// PartReader reads the rows of one table part.
type PartReader struct {
	file   *os.File
	pf     *parquet.File
	layout *layout
	path   string
}

// NewPartReader opens the part at path. The file must hold the columns of s.
func NewPartReader(path string, s types.Schema) (*PartReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	l, err := newLayout(pf.Schema(), s)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &PartReader{
		file:   f,
		pf:     pf,
		layout: l,
		path:   path,
	}, nil
}

// ReadAll reads all rows of the part in file order.
func (r *PartReader) ReadAll() ([]types.Row, error) {
	out := make([]types.Row, 0, r.pf.NumRows())
	buf := make([]parquet.Row, readBatch)

	for _, rg := range r.pf.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				out = append(out, r.layout.fromRow(buf[i]))
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("read rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close rows: %w", err)
		}
	}

	return out, nil
}

// NumRows returns the total number of rows in the file.
func (r *PartReader) NumRows() int64 {
	return r.pf.NumRows()
}

// Units returns the unit labels stored in the file metadata.
func (r *PartReader) Units() map[string]string {
	return units(r.pf)
}

// Close closes the reader.
func (r *PartReader) Close() error {
	return r.file.Close()
}

// Path returns the file path.
func (r *PartReader) Path() string {
	return r.path
}

func units(pf *parquet.File) map[string]string {
	out := make(map[string]string)
	for _, kv := range pf.Metadata().KeyValueMetadata {
		if name, ok := strings.CutPrefix(kv.Key, UnitKeyPrefix); ok {
			out[name] = kv.Value
		}
	}
	return out
}

// FileInfo holds information about a Parquet file.
type FileInfo struct {
	Path     string
	Size     int64
	NumRows  int64
	NumCols  int
	Metadata map[string]string
}

// GetFileInfo returns information about a Parquet file.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}

	info := &FileInfo{
		Path:     path,
		Size:     stat.Size(),
		NumRows:  pf.NumRows(),
		NumCols:  len(pf.Schema().Columns()),
		Metadata: make(map[string]string),
	}
	for _, kv := range pf.Metadata().KeyValueMetadata {
		info.Metadata[kv.Key] = kv.Value
	}

	return info, nil
}
