package parquet

import (
	kzstd "github.com/klauspost/compress/zstd"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress"
	"github.com/parquet-go/parquet-go/compress/gzip"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/xtxerr/ktimport/internal/storage/config"
)

// Options configures the Parquet writer.
type Options struct {
	// Compression algorithm
	Compression CompressionType

	// CompressionLevel for algorithms that support it (zstd: 1-22, gzip: 1-9).
	// 0 selects the codec default.
	CompressionLevel int

	// RowGroupSize is the maximum number of rows per row group
	RowGroupSize int

	// PageSize is the target page size in bytes
	PageSize int

	// Metadata is written as file key/value metadata next to the unit labels.
	Metadata map[string]string
}

// CompressionType represents a Parquet compression algorithm.
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionSnappy
	CompressionZstd
	CompressionLZ4
	CompressionGzip
)

func (c CompressionType) String() string {
	switch c {
	case CompressionSnappy:
		return "snappy"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionGzip:
		return "gzip"
	default:
		return "none"
	}
}

// DefaultOptions returns default Parquet options.
func DefaultOptions() Options {
	return Options{
		Compression:      CompressionZstd,
		CompressionLevel: 3,
		RowGroupSize:     100000,
		PageSize:         1024 * 1024, // 1MB
	}
}

// OptionsFromConfig returns the writer options of a store configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Compression:      ParseCompressionType(cfg.Compression.Algorithm),
		CompressionLevel: cfg.Compression.Level,
		RowGroupSize:     cfg.Parquet.RowGroupSize,
		PageSize:         cfg.Parquet.PageSize,
	}
}

// ParseCompressionType parses a compression type string.
func ParseCompressionType(s string) CompressionType {
	switch s {
	case "snappy":
		return CompressionSnappy
	case "zstd":
		return CompressionZstd
	case "lz4":
		return CompressionLZ4
	case "gzip":
		return CompressionGzip
	case "none", "":
		return CompressionNone
	default:
		return CompressionZstd
	}
}

// codec returns the parquet-go compression codec.
func (o Options) codec() compress.Codec {
	switch o.Compression {
	case CompressionSnappy:
		return &parquet.Snappy
	case CompressionZstd:
		if o.CompressionLevel <= 0 {
			return &parquet.Zstd
		}
		return &zstd.Codec{Level: kzstd.EncoderLevelFromZstd(o.CompressionLevel)}
	case CompressionLZ4:
		return &parquet.Lz4Raw
	case CompressionGzip:
		if o.CompressionLevel <= 0 {
			return &parquet.Gzip
		}
		return &gzip.Codec{Level: o.CompressionLevel}
	default:
		return &parquet.Uncompressed
	}
}

func (o Options) writerOptions() []parquet.WriterOption {
	opts := []parquet.WriterOption{
		parquet.Compression(o.codec()),
	}
	if o.PageSize > 0 {
		opts = append(opts, parquet.PageBufferSize(o.PageSize))
	}
	if o.RowGroupSize > 0 {
		opts = append(opts, parquet.MaxRowsPerRowGroup(int64(o.RowGroupSize)))
	}
	for k, v := range o.Metadata {
		opts = append(opts, parquet.KeyValueMetadata(k, v))
	}
	return opts
}
