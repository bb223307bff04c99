// Package types defines the core data types used throughout the storage system.
//
// Key types:
//   - Row: One stored observation (time, timezone offset, optional value)
//   - Schema: The ordered columns of a table with their kinds and units
//   - Summary: Statistics over the value column of a table
package types
