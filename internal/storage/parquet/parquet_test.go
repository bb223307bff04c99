package parquet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

func writePart(t *testing.T, path string, s types.Schema, opts Options, rows []types.Row) {
	t.Helper()

	w, err := NewPartWriter(path, s, opts)
	if err != nil {
		t.Fatalf("NewPartWriter: %v", err)
	}
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func readPart(t *testing.T, path string, s types.Schema) []types.Row {
	t.Helper()

	r, err := NewPartReader(path, s)
	if err != nil {
		t.Fatalf("NewPartReader: %v", err)
	}
	defer r.Close()

	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	return rows
}

func TestPartWriterBasic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weight", "part-00000001.parquet")

	s := types.NewSchema(kind.Float64Col, "kg")
	rows := []types.Row{
		{TimeNs: 1_000_000_000_000, TZ: 0, Value: kind.FloatValue(kind.Float64, 70.5), HasValue: true},
		{TimeNs: 2_000_000_000_000, TZ: 0, Value: kind.FloatValue(kind.Float64, 71.0), HasValue: true},
	}
	writePart(t, path, s, DefaultOptions(), rows)

	// Verify file exists
	stat, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file should exist: %v", err)
	}
	if stat.Size() == 0 {
		t.Error("file should not be empty")
	}

	// No temporary files are left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the part file, got %d entries", len(entries))
	}

	if diff := cmp.Diff(rows, readPart(t, path, s)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPartWriteAndReadAllKinds(t *testing.T) {
	tests := []struct {
		col   kind.Column
		value kind.Value
	}{
		{kind.Int8Col, kind.IntValue(kind.Int8, -12)},
		{kind.Int16Col, kind.IntValue(kind.Int16, 2)},
		{kind.Int32Col, kind.IntValue(kind.Int32, -70000)},
		{kind.Int64Col, kind.IntValue(kind.Int64, 1 << 40)},
		{kind.UInt8Col, kind.UintValue(kind.Uint8, 250)},
		{kind.UInt16Col, kind.UintValue(kind.Uint16, 65000)},
		{kind.UInt32Col, kind.UintValue(kind.Uint32, 4_000_000_000)},
		{kind.UInt64Col, kind.UintValue(kind.Uint64, 1 << 63)},
		{kind.Float32Col, kind.FloatValue(kind.Float32, 1.5)},
		{kind.Float64Col, kind.FloatValue(kind.Float64, 70.25)},
	}

	for _, tt := range tests {
		t.Run(tt.col.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "part.parquet")
			s := types.NewSchema(tt.col, "unit")
			rows := []types.Row{{TimeNs: 5, TZ: -22, Value: tt.value, HasValue: true}}

			writePart(t, path, s, DefaultOptions(), rows)

			if diff := cmp.Diff(rows, readPart(t, path, s)); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartConvertsToColumnKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.parquet")
	s := types.NewSchema(kind.Int16Col, "")

	rows := []types.Row{{TimeNs: 1, Value: kind.FloatValue(kind.Float64, 42.9), HasValue: true}}
	writePart(t, path, s, DefaultOptions(), rows)

	got := readPart(t, path, s)
	if !got[0].Value.Equal(kind.IntValue(kind.Int16, 42)) {
		t.Errorf("expected int16 42, got %v (%s)", got[0].Value, got[0].Value.Kind())
	}
}

func TestPartMarker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.parquet")
	s := types.NewSchema(kind.ColumnUnset, "")

	rows := []types.Row{{TimeNs: 10, TZ: 32}, {TimeNs: 20, TZ: 28}}
	writePart(t, path, s, DefaultOptions(), rows)

	if diff := cmp.Diff(rows, readPart(t, path, s)); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestPartUnits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.parquet")
	s := types.NewSchema(kind.Int16Col, "0: Low, 1: High")
	writePart(t, path, s, DefaultOptions(), []types.Row{{TimeNs: 1, Value: kind.IntValue(kind.Int16, 1), HasValue: true}})

	r, err := NewPartReader(path, s)
	if err != nil {
		t.Fatalf("NewPartReader: %v", err)
	}
	defer r.Close()

	if diff := cmp.Diff(s.Units(), r.Units()); diff != "" {
		t.Errorf("units mismatch (-want +got):\n%s", diff)
	}
}

func TestPartReaderSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.parquet")
	writePart(t, path, types.NewSchema(kind.Float64Col, ""), DefaultOptions(),
		[]types.Row{{TimeNs: 1, Value: kind.FloatValue(kind.Float64, 1), HasValue: true}})

	for _, s := range []types.Schema{
		types.NewSchema(kind.Int64Col, ""),
		types.NewSchema(kind.ColumnUnset, ""),
	} {
		if _, err := NewPartReader(path, s); !errors.Is(err, errors.ErrSchemaMismatch) {
			t.Errorf("%s: expected ErrSchemaMismatch, got %v", s, err)
		}
	}
}

func TestLargeWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "large.parquet")
	s := types.NewSchema(kind.Float64Col, "")

	opts := DefaultOptions()
	opts.RowGroupSize = 1000

	rows := make([]types.Row, 10000)
	for i := range rows {
		rows[i] = types.Row{
			TimeNs:   int64(i+1) * 1_000_000_000,
			Value:    kind.FloatValue(kind.Float64, float64(i)),
			HasValue: true,
		}
	}
	writePart(t, path, s, opts, rows)

	got := readPart(t, path, s)
	if len(got) != 10000 {
		t.Fatalf("expected 10000 rows, got %d", len(got))
	}
	if got[9999].TimeNs != 10000*1_000_000_000 {
		t.Errorf("rows out of order: last time %d", got[9999].TimeNs)
	}
}

func TestCompressionTypes(t *testing.T) {
	compressions := []struct {
		name  string
		ct    CompressionType
		level int
	}{
		{"none", CompressionNone, 0},
		{"snappy", CompressionSnappy, 0},
		{"zstd", CompressionZstd, 0},
		{"zstd level", CompressionZstd, 9},
		{"lz4", CompressionLZ4, 0},
		{"gzip", CompressionGzip, 0},
		{"gzip level", CompressionGzip, 6},
	}

	for _, tc := range compressions {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.parquet")
			s := types.NewSchema(kind.Float64Col, "")

			opts := DefaultOptions()
			opts.Compression = tc.ct
			opts.CompressionLevel = tc.level

			writePart(t, path, s, opts, []types.Row{
				{TimeNs: 1000, Value: kind.FloatValue(kind.Float64, 50), HasValue: true},
			})

			// Verify can read back
			if got := readPart(t, path, s); len(got) != 1 {
				t.Errorf("expected 1 row, got %d", len(got))
			}
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	tests := []struct {
		input    string
		expected CompressionType
	}{
		{"snappy", CompressionSnappy},
		{"zstd", CompressionZstd},
		{"lz4", CompressionLZ4},
		{"gzip", CompressionGzip},
		{"none", CompressionNone},
		{"", CompressionNone},
		{"invalid", CompressionZstd}, // Default
	}

	for _, tt := range tests {
		result := ParseCompressionType(tt.input)
		if result != tt.expected {
			t.Errorf("ParseCompressionType(%s): expected %d, got %d", tt.input, tt.expected, result)
		}
	}
}

func TestEmptyWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")

	w, err := NewPartWriter(path, types.NewSchema(kind.Float64Col, ""), DefaultOptions())
	if err != nil {
		t.Fatalf("NewPartWriter: %v", err)
	}

	// Empty write should be no-op
	if err := w.Write(nil); err != nil {
		t.Errorf("nil write should succeed: %v", err)
	}
	if err := w.Write([]types.Row{}); err != nil {
		t.Errorf("empty write should succeed: %v", err)
	}

	if w.RowCount() != 0 {
		t.Errorf("expected 0 rows, got %d", w.RowCount())
	}

	w.Abort()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("aborted part must not exist: %v", err)
	}
}

func TestWriteMissingValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "part.parquet")

	w, err := NewPartWriter(path, types.NewSchema(kind.Float64Col, ""), DefaultOptions())
	if err != nil {
		t.Fatalf("NewPartWriter: %v", err)
	}
	defer w.Abort()

	if err := w.Write([]types.Row{{TimeNs: 1}}); !errors.Is(err, errors.ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestWriteToClosedWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.parquet")

	w, err := NewPartWriter(path, types.NewSchema(kind.ColumnUnset, ""), DefaultOptions())
	if err != nil {
		t.Fatalf("NewPartWriter: %v", err)
	}

	w.Close()

	err = w.Write([]types.Row{{TimeNs: 1}})
	if err != ErrWriterClosed {
		t.Errorf("expected ErrWriterClosed, got %v", err)
	}
}

func TestGetFileInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.parquet")
	s := types.NewSchema(kind.Float64Col, "kg")

	rows := make([]types.Row, 100)
	for i := range rows {
		rows[i] = types.Row{TimeNs: int64(i), Value: kind.FloatValue(kind.Float64, float64(i)), HasValue: true}
	}

	opts := DefaultOptions()
	opts.Metadata = map[string]string{"title": "Weight"}
	writePart(t, path, s, opts, rows)

	info, err := GetFileInfo(path)
	if err != nil {
		t.Fatalf("GetFileInfo: %v", err)
	}

	if info.NumRows != 100 {
		t.Errorf("expected 100 rows, got %d", info.NumRows)
	}
	if info.NumCols != 3 {
		t.Errorf("expected 3 columns, got %d", info.NumCols)
	}
	if info.Size <= 0 {
		t.Error("expected positive size")
	}
	if info.Metadata["title"] != "Weight" || info.Metadata["units.value"] != "kg" {
		t.Errorf("unexpected metadata: %v", info.Metadata)
	}
}

func BenchmarkPartWriteBatch1000(b *testing.B) {
	dir := b.TempDir()
	s := types.NewSchema(kind.Float64Col, "")

	batch := make([]types.Row, 1000)
	for i := range batch {
		batch[i] = types.Row{
			TimeNs:   int64(i) * 1_000_000_000,
			Value:    kind.FloatValue(kind.Float64, float64(i)),
			HasValue: true,
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w, err := NewPartWriter(filepath.Join(dir, "bench.parquet"), s, DefaultOptions())
		if err != nil {
			b.Fatalf("NewPartWriter: %v", err)
		}
		w.Write(batch)
		w.Close()
	}
}
