// Package storage implements the time-series store that imported metrics
// are written to.
//
// Layout:
//
//	<root>/
//	├── LOCK
//	└── <owner>/<category>/<table>/
//	    ├── table.yaml            title, columns, units, time index
//	    ├── part-00000001.parquet
//	    └── part-00000002.parquet
//
// Subpackages:
//   - table: store handle, manifests, locking, append and read
//   - parquet: part files with a schema built from the table columns
//   - query: DuckDB scans over part files
//   - aggregate: running statistics and DDSketch quantiles
//   - config: YAML store settings
//   - types: rows, schemas and summaries shared by all of the above
//
// Service combines a store with its settings and backs the inspect command.
package storage
