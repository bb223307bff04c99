package types

import (
	"strings"

	"github.com/xtxerr/ktimport/config"
	"github.com/xtxerr/ktimport/internal/kind"
)

// Fixed column names. time and tz are present in every table; value is
// absent for marker tables.
const (
	TimeColumn  = "time"
	TZColumn    = "tz"
	ValueColumn = "value"
)

// Column describes one table column.
type Column struct {
	Name string      `yaml:"name"`
	Kind kind.Column `yaml:"kind"`
	Unit string      `yaml:"unit"`
}

// Schema is the ordered column list of a table.
type Schema struct {
	Columns []Column `yaml:"columns"`
}

// NewSchema builds the schema of a table whose value column has kind value
// and unit label unit. A kind.ColumnUnset value yields a marker table
// without a value column.
func NewSchema(value kind.Column, unit string) Schema {
	s := Schema{
		Columns: []Column{
			{Name: TimeColumn, Kind: kind.Int64Col, Unit: config.TimeUnit},
			{Name: TZColumn, Kind: kind.Int8Col, Unit: config.TZUnit},
		},
	}
	if value.Valid() {
		s.Columns = append(s.Columns, Column{Name: ValueColumn, Kind: value, Unit: unit})
	}
	return s
}

// HasValue reports whether the schema has a value column.
func (s Schema) HasValue() bool {
	_, ok := s.Value()
	return ok
}

// Value returns the value column.
func (s Schema) Value() (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == ValueColumn {
			return c, true
		}
	}
	return Column{}, false
}

// Compatible reports whether s and o have the same column names and kinds
// in the same order. Units are not compared.
func (s Schema) Compatible(o Schema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i].Name != o.Columns[i].Name || s.Columns[i].Kind != o.Columns[i].Kind {
			return false
		}
	}
	return true
}

// UnitChanges returns the names of columns present in both schemas whose
// unit labels differ.
func (s Schema) UnitChanges(o Schema) []string {
	units := make(map[string]string, len(o.Columns))
	for _, c := range o.Columns {
		units[c.Name] = c.Unit
	}
	var changed []string
	for _, c := range s.Columns {
		if u, ok := units[c.Name]; ok && u != c.Unit {
			changed = append(changed, c.Name)
		}
	}
	return changed
}

// Units returns the unit label per column name.
func (s Schema) Units() map[string]string {
	out := make(map[string]string, len(s.Columns))
	for _, c := range s.Columns {
		out[c.Name] = c.Unit
	}
	return out
}

// String returns the columns as "name:Kind" pairs, e.g.
// "time:Int64Col, tz:Int8Col, value:Float64Col".
func (s Schema) String() string {
	parts := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = c.Name + ":" + c.Kind.String()
	}
	return strings.Join(parts, ", ")
}
