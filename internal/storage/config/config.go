package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete store configuration.
type Config struct {
	// Compression configures Parquet compression of part files.
	Compression CompressionConfig `yaml:"compression"`

	// Parquet configures the layout of part files.
	Parquet ParquetConfig `yaml:"parquet"`

	// Percentile configures DDSketch quantiles reported by inspect.
	Percentile PercentileConfig `yaml:"percentile"`

	// Query configures the query service.
	Query QueryConfig `yaml:"query"`
}

// CompressionConfig configures Parquet compression.
type CompressionConfig struct {
	// Algorithm is the compression algorithm: snappy, zstd, lz4, gzip, none.
	Algorithm string `yaml:"algorithm"`

	// Level is the compression level (for zstd: 1-22, for gzip: 1-9).
	Level int `yaml:"level"`
}

// ParquetConfig configures the layout of part files.
type ParquetConfig struct {
	// PageSize is the target page buffer size in bytes.
	PageSize int `yaml:"page_size"`

	// RowGroupSize is the maximum number of rows per row group.
	RowGroupSize int `yaml:"row_group_size"`
}

// PercentileConfig configures DDSketch percentile calculation.
type PercentileConfig struct {
	// Enabled enables percentile calculation.
	Enabled bool `yaml:"enabled"`

	// Accuracy is the relative accuracy (0.01 = 1% error).
	Accuracy float64 `yaml:"accuracy"`
}

// QueryConfig configures the query service.
type QueryConfig struct {
	// MemoryLimit is the DuckDB memory limit.
	MemoryLimit string `yaml:"memory_limit"`

	// Threads is the number of DuckDB worker threads. 0 keeps the DuckDB default.
	Threads int `yaml:"threads"`

	// Timeout is the query timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// LoadOrDefault loads the file at path, or returns the defaults when path
// is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	return Load(path)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Compression: CompressionConfig{
			Algorithm: "zstd",
			Level:     3,
		},
		Parquet: ParquetConfig{
			PageSize:     1024 * 1024, // 1MB
			RowGroupSize: 100000,
		},
		Percentile: PercentileConfig{
			Enabled:  true,
			Accuracy: 0.01,
		},
		Query: QueryConfig{
			MemoryLimit: "512MB",
			Timeout:     30 * time.Second,
		},
	}
}
