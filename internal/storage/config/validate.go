package config

import (
	"errors"
	"fmt"
	"regexp"

	kterrors "github.com/xtxerr/ktimport/internal/errors"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	// Compression
	if err := c.Compression.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("compression: %w", err))
	}

	// Parquet
	if err := c.Parquet.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("parquet: %w", err))
	}

	// Percentile
	if err := c.Percentile.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("percentile: %w", err))
	}

	// Query
	if err := c.Query.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("query: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", kterrors.ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Validate checks the compression configuration.
func (c *CompressionConfig) Validate() error {
	var errs []error

	validAlgorithms := map[string]bool{
		"snappy": true,
		"zstd":   true,
		"lz4":    true,
		"gzip":   true,
		"none":   true,
		"":       true, // Empty means none
	}
	if !validAlgorithms[c.Algorithm] {
		errs = append(errs, errors.New("algorithm must be one of: snappy, zstd, lz4, gzip, none"))
	}

	if c.Algorithm == "zstd" && (c.Level < 0 || c.Level > 22) {
		errs = append(errs, errors.New("level for zstd must be between 0 and 22"))
	}
	if c.Algorithm == "gzip" && (c.Level < 0 || c.Level > 9) {
		errs = append(errs, errors.New("level for gzip must be between 0 and 9"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the parquet configuration.
func (c *ParquetConfig) Validate() error {
	var errs []error

	if c.PageSize <= 0 {
		errs = append(errs, errors.New("page_size must be positive"))
	}

	if c.RowGroupSize <= 0 {
		errs = append(errs, errors.New("row_group_size must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the percentile configuration.
func (c *PercentileConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Accuracy <= 0 || c.Accuracy >= 1 {
		return errors.New("accuracy must be between 0 and 1")
	}
	return nil
}

var memoryLimit = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?\s*(B|KB|MB|GB|TB|KiB|MiB|GiB|TiB)$`)

// Validate checks the query configuration.
func (c *QueryConfig) Validate() error {
	var errs []error

	if c.MemoryLimit != "" && !memoryLimit.MatchString(c.MemoryLimit) {
		errs = append(errs, fmt.Errorf("memory_limit %q must look like 512MB or 2GB", c.MemoryLimit))
	}

	if c.Threads < 0 {
		errs = append(errs, errors.New("threads must be non-negative"))
	}

	if c.Timeout <= 0 {
		errs = append(errs, errors.New("timeout must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
