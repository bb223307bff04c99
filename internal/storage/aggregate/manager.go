package aggregate

import (
	"sort"
	"sync"

	"github.com/xtxerr/ktimport/internal/storage/types"
)

// Manager keeps one streaming aggregate per table path.
type Manager struct {
	mu sync.RWMutex

	accuracy   float64
	aggregates map[string]*Streaming

	stats ManagerStats
}

// ManagerStats holds statistics for the manager.
type ManagerStats struct {
	Tables        int64
	RowsProcessed int64
	Batches       int64
}

// TableSummary is the summary of one table.
type TableSummary struct {
	Table string
	types.Summary
}

// NewManager creates a manager. A positive accuracy enables percentiles.
func NewManager(accuracy float64) *Manager {
	return &Manager{
		accuracy:   accuracy,
		aggregates: make(map[string]*Streaming),
	}
}

// Process adds rows to the aggregate of table.
func (m *Manager) Process(table string, rows []types.Row) {
	m.mu.Lock()
	agg, ok := m.aggregates[table]
	if !ok {
		agg = New(m.accuracy)
		m.aggregates[table] = agg
	}
	m.stats.RowsProcessed += int64(len(rows))
	m.stats.Batches++
	m.mu.Unlock()

	agg.AddRows(rows)
}

// Summary returns the summary of table.
func (m *Manager) Summary(table string) (types.Summary, bool) {
	m.mu.RLock()
	agg, ok := m.aggregates[table]
	m.mu.RUnlock()

	if !ok {
		return types.Summary{}, false
	}
	return agg.Summary(), true
}

// FlushAll returns the summaries of all non-empty tables sorted by path and
// clears the manager.
func (m *Manager) FlushAll() []TableSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]TableSummary, 0, len(m.aggregates))
	for table, agg := range m.aggregates {
		if agg.IsEmpty() {
			continue
		}
		out = append(out, TableSummary{Table: table, Summary: agg.Summary()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })

	m.aggregates = make(map[string]*Streaming)
	return out
}

// Stats returns current statistics.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := m.stats
	stats.Tables = int64(len(m.aggregates))
	return stats
}

// ActiveCount returns the number of tracked tables.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.aggregates)
}
