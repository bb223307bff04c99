package kind

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a typed numeric value. Exactly one of the backing fields is
// meaningful, chosen by the kind.
type Value struct {
	kind Numeric
	i    int64
	u    uint64
	f    float64
}

// IntValue returns a signed integer value of kind n.
func IntValue(n Numeric, x int64) Value {
	return Value{kind: n, i: x}
}

// UintValue returns an unsigned integer value of kind n.
func UintValue(n Numeric, x uint64) Value {
	return Value{kind: n, u: x}
}

// FloatValue returns a floating point value of kind n.
func FloatValue(n Numeric, x float64) Value {
	return Value{kind: n, f: x}
}

// Parse converts text to a value of kind n. Surrounding whitespace is ignored.
func (n Numeric) Parse(text string) (Value, error) {
	s := strings.TrimSpace(text)
	switch {
	case n.IsFloat():
		f, err := strconv.ParseFloat(s, n.Bits())
		if err != nil {
			return Value{}, err
		}
		return FloatValue(n, f), nil
	case n.IsUnsigned():
		u, err := strconv.ParseUint(s, 10, n.Bits())
		if err != nil {
			return Value{}, err
		}
		return UintValue(n, u), nil
	case n.Valid():
		i, err := strconv.ParseInt(s, 10, n.Bits())
		if err != nil {
			return Value{}, err
		}
		return IntValue(n, i), nil
	default:
		return Value{}, fmt.Errorf("parse %q: no numeric kind", text)
	}
}

// Kind returns the numeric kind of v.
func (v Value) Kind() Numeric { return v.kind }

// Int64 returns v as a signed integer, truncating floats.
func (v Value) Int64() int64 {
	switch {
	case v.kind.IsFloat():
		return int64(v.f)
	case v.kind.IsUnsigned():
		return int64(v.u)
	default:
		return v.i
	}
}

// Uint64 returns v as an unsigned integer, truncating floats.
func (v Value) Uint64() uint64 {
	switch {
	case v.kind.IsFloat():
		return uint64(v.f)
	case v.kind.IsUnsigned():
		return v.u
	default:
		return uint64(v.i)
	}
}

// Float64 returns v as a float64.
func (v Value) Float64() float64 {
	switch {
	case v.kind.IsFloat():
		return v.f
	case v.kind.IsUnsigned():
		return float64(v.u)
	default:
		return float64(v.i)
	}
}

// Convert returns v cast to kind n with Go conversion semantics
// (integers wrap, floats truncate toward zero).
func (v Value) Convert(n Numeric) Value {
	switch n {
	case Int8:
		return IntValue(n, int64(int8(v.Int64())))
	case Int16:
		return IntValue(n, int64(int16(v.Int64())))
	case Int32:
		return IntValue(n, int64(int32(v.Int64())))
	case Int64:
		return IntValue(n, v.Int64())
	case Uint8:
		return UintValue(n, uint64(uint8(v.Uint64())))
	case Uint16:
		return UintValue(n, uint64(uint16(v.Uint64())))
	case Uint32:
		return UintValue(n, uint64(uint32(v.Uint64())))
	case Uint64:
		return UintValue(n, v.Uint64())
	case Float32:
		return FloatValue(n, float64(float32(v.Float64())))
	case Float64:
		return FloatValue(n, v.Float64())
	default:
		return v
	}
}

// Equal reports whether v and o have the same kind and value.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch {
	case v.kind.IsFloat():
		return v.f == o.f
	case v.kind.IsUnsigned():
		return v.u == o.u
	default:
		return v.i == o.i
	}
}

func (v Value) String() string {
	switch {
	case v.kind.IsFloat():
		return strconv.FormatFloat(v.f, 'g', -1, v.kind.Bits())
	case v.kind.IsUnsigned():
		return strconv.FormatUint(v.u, 10)
	default:
		return strconv.FormatInt(v.i, 10)
	}
}
