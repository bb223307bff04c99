// Package query runs SQL over table part files with DuckDB.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/xtxerr/ktimport/internal/storage/config"
	"github.com/xtxerr/ktimport/internal/storage/types"
	"github.com/xtxerr/ktimport/internal/validation"
)

// Service provides query capabilities over stored part files.
type Service struct {
	mu sync.RWMutex

	config *config.Config
	db     *sql.DB

	stats Stats
}

// Stats holds query statistics.
type Stats struct {
	QueriesExecuted int64
	RowsReturned    int64
	Errors          int64
}

// Scan is the result of a full scan over a table's parts.
type Scan struct {
	Rows    int64
	MinTime int64
	MaxTime int64
}

// New creates a query service backed by an in-memory DuckDB database.
func New(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	// Settings are per connection.
	db.SetMaxOpenConns(1)

	if cfg.Query.MemoryLimit != "" {
		stmt := "SET memory_limit=" + validation.QuoteSQLString(cfg.Query.MemoryLimit)
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("set memory limit: %w", err)
		}
	}
	if cfg.Query.Threads > 0 {
		if _, err := db.Exec(fmt.Sprintf("SET threads=%d", cfg.Query.Threads)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}

	return &Service{
		config: cfg,
		db:     db,
	}, nil
}

// Close closes the query service.
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.Query.Timeout > 0 {
		return context.WithTimeout(ctx, s.config.Query.Timeout)
	}
	return context.WithCancel(ctx)
}

// parquetSource returns a read_parquet call over files.
func parquetSource(files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = validation.QuoteSQLString(f)
	}
	return "read_parquet([" + strings.Join(quoted, ", ") + "])"
}

// ScanParts counts the rows of files and returns their time range. No
// files scan as empty.
func (s *Service) ScanParts(ctx context.Context, files []string) (Scan, error) {
	if len(files) == 0 {
		return Scan{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT count(*), min(%[1]s), max(%[1]s) FROM %[2]s`,
		types.TimeColumn, parquetSource(files))

	var (
		scan     Scan
		min, max sql.NullInt64
	)
	if err := s.db.QueryRowContext(ctx, query).Scan(&scan.Rows, &min, &max); err != nil {
		s.stats.Errors++
		return Scan{}, fmt.Errorf("scan parts: %w", err)
	}
	scan.MinTime = min.Int64
	scan.MaxTime = max.Int64

	s.stats.QueriesExecuted++
	s.stats.RowsReturned++
	return scan, nil
}

// Stats returns query statistics.
func (s *Service) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
