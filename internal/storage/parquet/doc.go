// Package parquet implements Parquet part files for table rows.
//
// The package provides:
//   - PartWriter/PartReader for the rows of one table part
//   - A dynamic Parquet schema derived from the table's column kinds
//   - Column unit labels stored as file key/value metadata
//   - Support for multiple compression algorithms (snappy, zstd, lz4, gzip)
package parquet
