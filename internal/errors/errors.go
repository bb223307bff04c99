// Package errors holds the error definitions shared by all ktimport packages.
//
// This file provides:
// - Sentinel errors for all error conditions
// - Typed errors carrying the context of fatal import failures
// - Error category checking functions (fatal vs. recoverable)
// - Error wrapping utilities
package errors

import (
	"errors"
	"fmt"
)

// ============================================================================
// Sentinel errors for common conditions
// ============================================================================

var (
	// Directive errors (recoverable: the line is skipped)
	ErrMalformedDirective = errors.New("malformed directive")
	ErrUnknownCommand     = errors.New("unknown directive command")
	ErrUnknownSetting     = errors.New("unknown setting")
	ErrUnknownKind        = errors.New("unknown type name")
	ErrConfigNotFound     = errors.New("configuration file does not exist")

	// Metric errors (recoverable: the metric is skipped)
	ErrUnknownMetricType = errors.New("unknown metric type")
	ErrNoData            = errors.New("no data after cutoff")
	ErrDuplicateLabel    = errors.New("duplicate predefined label")
	ErrMissingUnits      = errors.New("missing units attribute")
	ErrInvalidTableName  = errors.New("metric name gives no valid table name")

	// Conversion errors (fatal)
	ErrConversion      = errors.New("invalid value")
	ErrUndeclaredLabel = errors.New("undeclared set label")
	ErrOffsetRange     = errors.New("timezone offset out of range")
	ErrTimeRange       = errors.New("timestamp out of range")
	ErrTooManyLabels   = errors.New("too many predefined labels")

	// Store errors
	ErrNotFound       = errors.New("not found")
	ErrTableNotFound  = errors.New("table not found")
	ErrTableExists    = errors.New("table already exists")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrInvalidName    = errors.New("invalid name")
	ErrStoreLocked    = errors.New("store is locked by another process")
	ErrStoreClosed    = errors.New("store is closed")
	ErrReadOnly       = errors.New("store is read-only")
	ErrCorruptIndex   = errors.New("corrupt time index")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Is is a convenience wrapper for errors.Is
var Is = errors.Is

// As is a convenience wrapper for errors.As
var As = errors.As

// Join is a convenience wrapper for errors.Join
var Join = errors.Join

// ============================================================================
// Typed errors
// ============================================================================

// DirectiveError reports a directive line that was skipped.
type DirectiveError struct {
	Line int
	Text string
	Err  error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DirectiveError) Unwrap() error { return e.Err }

// ConversionError reports a NUMBER value whose text does not parse as the
// configured numeric kind.
type ConversionError struct {
	Metric string
	Text   string
	Kind   string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("importing %s: invalid value %q for type %q", e.Metric, e.Text, e.Kind)
}

func (e *ConversionError) Unwrap() []error { return []error{ErrConversion, e.Err} }

// UndeclaredLabelError reports a SET value that is not in the metric's
// predefined label list.
type UndeclaredLabelError struct {
	Metric string
	Label  string
	TimeNs int64
}

func (e *UndeclaredLabelError) Error() string {
	return fmt.Sprintf("importing %s: value %q at %d is not a predefined label", e.Metric, e.Label, e.TimeNs)
}

func (e *UndeclaredLabelError) Unwrap() error { return ErrUndeclaredLabel }

// TimeRangeError reports a value entry whose timestamp cannot be stored in
// nanoseconds.
type TimeRangeError struct {
	Metric string
	Time   int64
}

func (e *TimeRangeError) Error() string {
	return fmt.Sprintf("importing %s: timestamp %d s is out of range", e.Metric, e.Time)
}

func (e *TimeRangeError) Unwrap() error { return ErrTimeRange }

// SchemaMismatchError reports an append whose columns differ from the
// columns the table was created with.
type SchemaMismatchError struct {
	Path     string
	Existing string
	Incoming string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: existing columns (%s) do not match incoming columns (%s)", e.Path, e.Existing, e.Incoming)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }

// ============================================================================
// Helper functions for error checking
// ============================================================================

// IsRecoverable returns true if the error only affects the current directive
// line or metric and the run should continue with the next item.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedDirective) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnknownSetting) ||
		errors.Is(err, ErrUnknownKind) ||
		errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrUnknownMetricType) ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrDuplicateLabel) ||
		errors.Is(err, ErrMissingUnits) ||
		errors.Is(err, ErrInvalidTableName)
}

// IsFatal returns true if the error must abort the whole run.
func IsFatal(err error) bool {
	return err != nil && !IsRecoverable(err)
}

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTableNotFound)
}

// ============================================================================
// Error wrapping utilities
// ============================================================================

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewNotFound creates a not-found error with context.
func NewNotFound(entityType, identifier string) error {
	return fmt.Errorf("%s '%s': %w", entityType, identifier, ErrNotFound)
}
