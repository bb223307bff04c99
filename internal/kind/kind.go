// Package kind defines the closed set of value kinds a metric can be parsed
// as (Numeric) and stored as (Column), with static name tables for the
// directive language.
package kind

import (
	"fmt"
	"sort"

	"github.com/xtxerr/ktimport/internal/errors"
)

// Numeric is the kind a value's text is parsed as.
type Numeric int

const (
	NumericUnset Numeric = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
)

// Column is the on-disk kind of a table's value column.
type Column int

const (
	ColumnUnset Column = iota
	Int8Col
	Int16Col
	Int32Col
	Int64Col
	UInt8Col
	UInt16Col
	UInt32Col
	UInt64Col
	Float32Col
	Float64Col
)

var numericNames = [...]string{
	NumericUnset: "",
	Int8:         "int8",
	Int16:        "int16",
	Int32:        "int32",
	Int64:        "int64",
	Uint8:        "uint8",
	Uint16:       "uint16",
	Uint32:       "uint32",
	Uint64:       "uint64",
	Float32:      "float32",
	Float64:      "float64",
}

var columnNames = [...]string{
	ColumnUnset: "",
	Int8Col:     "Int8Col",
	Int16Col:    "Int16Col",
	Int32Col:    "Int32Col",
	Int64Col:    "Int64Col",
	UInt8Col:    "UInt8Col",
	UInt16Col:   "UInt16Col",
	UInt32Col:   "UInt32Col",
	UInt64Col:   "UInt64Col",
	Float32Col:  "Float32Col",
	Float64Col:  "Float64Col",
}

var (
	numericByName = make(map[string]Numeric, len(numericNames))
	columnByName  = make(map[string]Column, len(columnNames))
)

func init() {
	for k, name := range numericNames {
		if name != "" {
			numericByName[name] = Numeric(k)
		}
	}
	for k, name := range columnNames {
		if name != "" {
			columnByName[name] = Column(k)
		}
	}
}

// ParseNumeric looks up a numeric kind by its directive name (e.g. "float64").
func ParseNumeric(name string) (Numeric, error) {
	if n, ok := numericByName[name]; ok {
		return n, nil
	}
	return NumericUnset, fmt.Errorf("numeric kind %q: %w", name, errors.ErrUnknownKind)
}

// ParseColumn looks up a column kind by its directive name (e.g. "Float64Col").
func ParseColumn(name string) (Column, error) {
	if c, ok := columnByName[name]; ok {
		return c, nil
	}
	return ColumnUnset, fmt.Errorf("column kind %q: %w", name, errors.ErrUnknownKind)
}

// NumericNames returns all accepted numeric kind names, sorted.
func NumericNames() []string {
	return sortedKeys(numericByName)
}

// ColumnNames returns all accepted column kind names, sorted.
func ColumnNames() []string {
	return sortedKeys(columnByName)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (n Numeric) String() string {
	if n < 0 || int(n) >= len(numericNames) {
		return fmt.Sprintf("Numeric(%d)", int(n))
	}
	return numericNames[n]
}

// Valid reports whether n is a concrete kind.
func (n Numeric) Valid() bool {
	return n > NumericUnset && int(n) < len(numericNames)
}

// IsFloat reports whether n is a floating point kind.
func (n Numeric) IsFloat() bool {
	return n == Float32 || n == Float64
}

// IsUnsigned reports whether n is an unsigned integer kind.
func (n Numeric) IsUnsigned() bool {
	return n >= Uint8 && n <= Uint64
}

// Bits returns the width of n in bits.
func (n Numeric) Bits() int {
	switch n {
	case Int8, Uint8:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float32:
		return 32
	case Int64, Uint64, Float64:
		return 64
	default:
		return 0
	}
}

// Column returns the column kind that stores n without conversion.
func (n Numeric) Column() Column {
	if !n.Valid() {
		return ColumnUnset
	}
	return Column(n)
}

func (c Column) String() string {
	if c < 0 || int(c) >= len(columnNames) {
		return fmt.Sprintf("Column(%d)", int(c))
	}
	return columnNames[c]
}

// Valid reports whether c is a concrete kind.
func (c Column) Valid() bool {
	return c > ColumnUnset && int(c) < len(columnNames)
}

// Numeric returns the numeric kind of the values c holds.
func (c Column) Numeric() Numeric {
	if !c.Valid() {
		return NumericUnset
	}
	return Numeric(c)
}

// MarshalText implements encoding.TextMarshaler.
func (c Column) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("marshal %s: %w", c, errors.ErrUnknownKind)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Column) UnmarshalText(text []byte) error {
	v, err := ParseColumn(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}
