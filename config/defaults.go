// Package config provides configuration defaults and utilities
// for the ktimport application.
//
// This package defines all configurable constants with documented defaults.
// Users can override most of these values via the directive file, the store
// settings YAML or command line flags.
package config

// =============================================================================
// Classification Defaults
// =============================================================================

const (
	// DefaultCategory is the category used for metrics without a watch directive.
	// Override via directive: set default_category <name>
	DefaultCategory = "Health"

	// DefaultNumericKind is the numeric kind used to parse NUMBER values.
	// Override via directive: set default_numeric_kind <kind>
	DefaultNumericKind = "float64"

	// DefaultColumnKind is the column kind used to store NUMBER values.
	// Override via directive: set default_column_kind <kind>
	DefaultColumnKind = "Float64Col"

	// SetColumnKind is the column kind used for SET enumeration codes.
	SetColumnKind = "Int16Col"

	// MaxDirectiveLine is the longest directive line in bytes. Longer lines
	// are skipped with a warning.
	MaxDirectiveLine = 64 * 1024
)

// =============================================================================
// Store Layout
// =============================================================================

const (
	// DefaultOwner is the first path component of every imported table.
	// Tables are addressed as /<owner>/<category>/<table>.
	DefaultOwner = "self"

	// ManifestFile is the per-table file holding schema, units and the time index.
	ManifestFile = "table.yaml"

	// PartFilePattern is the fmt pattern for part file names.
	PartFilePattern = "part-%08d.parquet"

	// LockFile is the advisory lock file created in the store root.
	LockFile = "LOCK"

	// DirPerm and FilePerm are the permissions for created store entries.
	DirPerm  = 0755
	FilePerm = 0644
)

// =============================================================================
// Column Units
// =============================================================================

const (
	// TimeUnit is the unit label of the time column.
	TimeUnit = "ns since the epoch"

	// TZUnit is the unit label of the tz column.
	TZUnit = "15 min blocks from UTC"
)

// =============================================================================
// Time Zone Handling
// =============================================================================

const (
	// QuarterHourSeconds is the width of one tz column unit.
	QuarterHourSeconds = 15 * 60

	// DSTShift is subtracted from the base offset while daylight time is in effect.
	// The offset counts blocks west of UTC, so one hour of DST is -4.
	DSTShift = 4

	// NanosPerSecond converts input timestamps to the stored resolution.
	NanosPerSecond = 1_000_000_000
)
