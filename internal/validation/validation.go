// Package validation provides centralized input validation for ktimport.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xtxerr/ktimport/internal/errors"
)

// =============================================================================
// Name Validation
// =============================================================================

// NameRules defines the validation rules for store path components.
type NameRules struct {
	MinLength int
	MaxLength int

	// Strict limits names to letters, digits, '-' and '_'.
	Strict bool
}

// DefaultNameRules returns the rules for owners and categories.
func DefaultNameRules() NameRules {
	return NameRules{
		MinLength: 1,
		MaxLength: 255,
		Strict:    true,
	}
}

// TableNameRules returns the rules for table names. Table names are derived
// from free-form metric names, so any character that is safe in a single
// path component is allowed.
func TableNameRules() NameRules {
	return NameRules{
		MinLength: 1,
		MaxLength: 255,
		Strict:    false,
	}
}

// ValidateName validates a name according to the given rules.
func ValidateName(name string, rules NameRules) error {
	if len(name) < rules.MinLength {
		return invalid(name, fmt.Sprintf("too short: minimum %d characters required", rules.MinLength))
	}
	if len(name) > rules.MaxLength {
		return invalid(name, fmt.Sprintf("too long: maximum %d characters allowed", rules.MaxLength))
	}

	if name == "." || name == ".." {
		return invalid(name, "cannot be '.' or '..'")
	}

	if strings.HasPrefix(name, ".") {
		return invalid(name, "cannot start with '.'")
	}

	for i, r := range name {
		if r < 32 || r == 127 {
			return invalid(name, fmt.Sprintf("control character at position %d", i))
		}
		if r == '/' || r == '\\' {
			return invalid(name, fmt.Sprintf("path separator at position %d", i))
		}
		if rules.Strict && !isStrictNameChar(r) {
			return invalid(name, fmt.Sprintf("invalid character '%c' at position %d", r, i))
		}
	}

	return nil
}

func isStrictNameChar(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return r == '-' || r == '_'
}

func invalid(name, reason string) error {
	return fmt.Errorf("%q %s: %w", name, reason, errors.ErrInvalidName)
}

// ValidateCategory validates an owner or category name.
func ValidateCategory(name string) error {
	return ValidateName(name, DefaultNameRules())
}

// ValidateTableName validates a derived table name.
func ValidateTableName(name string) error {
	return ValidateName(name, TableNameRules())
}

// =============================================================================
// SQL Literals
// =============================================================================

// QuoteSQLString returns s as a single-quoted SQL string literal.
func QuoteSQLString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
