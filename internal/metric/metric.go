// Package metric defines how a metric is classified: its declared type and
// the category and kinds it is stored with.
package metric

import (
	"fmt"
	"strings"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/kind"
)

// Type is the declared type of a metric in the input document.
type Type int

const (
	TypeUnknown Type = iota
	// TypeNumber carries a numeric value per entry.
	TypeNumber
	// TypeMarker records presence only; entries have no value.
	TypeMarker
	// TypeSet carries one label of a predefined list per entry.
	TypeSet
)

// ParseType maps the document's type attribute to a Type. Matching is
// case-insensitive.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return TypeNumber, nil
	case "marker":
		return TypeMarker, nil
	case "set":
		return TypeSet, nil
	default:
		return TypeUnknown, fmt.Errorf("%q: %w", s, errors.ErrUnknownMetricType)
	}
}

func (t Type) String() string {
	switch t {
	case TypeNumber:
		return "NUMBER"
	case TypeMarker:
		return "MARKER"
	case TypeSet:
		return "SET"
	default:
		return "UNKNOWN"
	}
}

// Config is the resolved storage configuration of one metric.
type Config struct {
	Category string
	Numeric  kind.Numeric
	Column   kind.Column
}

// DefaultConfig returns the built-in global default.
func DefaultConfig() Config {
	n, _ := kind.ParseNumeric(config.DefaultNumericKind)
	c, _ := kind.ParseColumn(config.DefaultColumnKind)
	return Config{
		Category: config.DefaultCategory,
		Numeric:  n,
		Column:   c,
	}
}

func (c Config) String() string {
	return fmt.Sprintf("%s/%s/%s", c.Category, c.Numeric, c.Column)
}

// Override is the watch entry for one metric name. Unset kinds fall back to
// the global default.
type Override struct {
	Category string
	Numeric  kind.Numeric
	Column   kind.Column
}

// Apply resolves o against the default d.
func (o Override) Apply(d Config) Config {
	out := Config{
		Category: o.Category,
		Numeric:  o.Numeric,
		Column:   o.Column,
	}
	if out.Category == "" {
		out.Category = d.Category
	}
	if !out.Numeric.Valid() {
		out.Numeric = d.Numeric
	}
	if !out.Column.Valid() {
		out.Column = d.Column
	}
	return out
}
