package parquet

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/xtxerr/ktimport/internal/errors"
	"github.com/xtxerr/ktimport/internal/kind"
	"github.com/xtxerr/ktimport/internal/storage/types"
)

// UnitKeyPrefix prefixes the key/value metadata entry holding a column's
// unit label, e.g. "units.value".
const UnitKeyPrefix = "units."

// node returns the Parquet leaf that stores values of kind c.
func node(c kind.Column) (parquet.Node, error) {
	switch c {
	case kind.Int8Col:
		return parquet.Int(8), nil
	case kind.Int16Col:
		return parquet.Int(16), nil
	case kind.Int32Col:
		return parquet.Int(32), nil
	case kind.Int64Col:
		return parquet.Int(64), nil
	case kind.UInt8Col:
		return parquet.Uint(8), nil
	case kind.UInt16Col:
		return parquet.Uint(16), nil
	case kind.UInt32Col:
		return parquet.Uint(32), nil
	case kind.UInt64Col:
		return parquet.Uint(64), nil
	case kind.Float32Col:
		return parquet.Leaf(parquet.FloatType), nil
	case kind.Float64Col:
		return parquet.Leaf(parquet.DoubleType), nil
	default:
		return nil, fmt.Errorf("column kind %s: %w", c, errors.ErrUnknownKind)
	}
}

// NewSchema builds the Parquet schema of a table.
func NewSchema(name string, s types.Schema) (*parquet.Schema, error) {
	group := make(parquet.Group, len(s.Columns))
	for _, c := range s.Columns {
		n, err := node(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		group[c.Name] = n
	}
	return parquet.NewSchema(name, group), nil
}

// layout maps table columns to Parquet column indexes.
type layout struct {
	columns []types.Column
	index   []int
}

func newLayout(ps *parquet.Schema, s types.Schema) (*layout, error) {
	l := &layout{
		columns: s.Columns,
		index:   make([]int, len(s.Columns)),
	}
	if len(ps.Columns()) != len(s.Columns) {
		return nil, fmt.Errorf("%d parquet columns for %d table columns: %w", len(ps.Columns()), len(s.Columns), errors.ErrSchemaMismatch)
	}
	for i, c := range s.Columns {
		leaf, ok := ps.Lookup(c.Name)
		if !ok {
			return nil, fmt.Errorf("column %s missing: %w", c.Name, errors.ErrSchemaMismatch)
		}
		want, err := node(c.Kind)
		if err != nil {
			return nil, err
		}
		if leaf.Node.Type().Kind() != want.Type().Kind() {
			return nil, fmt.Errorf("column %s is %s, want %s: %w",
				c.Name, leaf.Node.Type().Kind(), want.Type().Kind(), errors.ErrSchemaMismatch)
		}
		l.index[i] = leaf.ColumnIndex
	}
	return l, nil
}

// toRow converts r into a Parquet row.
func (l *layout) toRow(r *types.Row) (parquet.Row, error) {
	row := make(parquet.Row, len(l.columns))
	for i, c := range l.columns {
		var v parquet.Value
		switch c.Name {
		case types.TimeColumn:
			v = parquet.Int64Value(r.TimeNs)
		case types.TZColumn:
			v = parquet.Int32Value(int32(r.TZ))
		case types.ValueColumn:
			if !r.HasValue {
				return nil, fmt.Errorf("row at %d has no value: %w", r.TimeNs, errors.ErrSchemaMismatch)
			}
			v = toValue(c.Kind, r.Value)
		default:
			return nil, fmt.Errorf("column %s: %w", c.Name, errors.ErrSchemaMismatch)
		}
		row[l.index[i]] = v.Level(0, 0, l.index[i])
	}
	return row, nil
}

// fromRow converts a Parquet row read from a part file.
func (l *layout) fromRow(row parquet.Row) types.Row {
	var r types.Row
	for i, c := range l.columns {
		idx := l.index[i]
		var v parquet.Value
		for _, pv := range row {
			if pv.Column() == idx {
				v = pv
				break
			}
		}
		switch c.Name {
		case types.TimeColumn:
			r.TimeNs = v.Int64()
		case types.TZColumn:
			r.TZ = int8(v.Int32())
		case types.ValueColumn:
			r.Value = fromValue(c.Kind, v)
			r.HasValue = true
		}
	}
	return r
}

func toValue(c kind.Column, v kind.Value) parquet.Value {
	v = v.Convert(c.Numeric())
	switch c {
	case kind.Int8Col, kind.Int16Col, kind.Int32Col:
		return parquet.Int32Value(int32(v.Int64()))
	case kind.UInt8Col, kind.UInt16Col, kind.UInt32Col:
		return parquet.Int32Value(int32(uint32(v.Uint64())))
	case kind.UInt64Col:
		return parquet.Int64Value(int64(v.Uint64()))
	case kind.Float32Col:
		return parquet.FloatValue(float32(v.Float64()))
	case kind.Float64Col:
		return parquet.DoubleValue(v.Float64())
	default:
		return parquet.Int64Value(v.Int64())
	}
}

func fromValue(c kind.Column, v parquet.Value) kind.Value {
	n := c.Numeric()
	switch c {
	case kind.Int8Col, kind.Int16Col, kind.Int32Col:
		return kind.IntValue(n, int64(v.Int32()))
	case kind.Int64Col:
		return kind.IntValue(n, v.Int64())
	case kind.UInt8Col, kind.UInt16Col, kind.UInt32Col:
		return kind.UintValue(n, uint64(v.Uint32()))
	case kind.UInt64Col:
		return kind.UintValue(n, v.Uint64())
	case kind.Float32Col:
		return kind.FloatValue(n, float64(v.Float()))
	default:
		return kind.FloatValue(n, v.Double())
	}
}
