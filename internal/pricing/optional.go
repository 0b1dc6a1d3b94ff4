package pricing

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// OptionalDecimal is a numeric field that may be absent. Absent values fall
// through to the next pricing rule instead of raising an error.
type OptionalDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func Some(d decimal.Decimal) OptionalDecimal {
	return OptionalDecimal{Value: d, Valid: true}
}

func None() OptionalDecimal {
	return OptionalDecimal{}
}

func FromPtr(p *decimal.Decimal) OptionalDecimal {
	if p == nil {
		return None()
	}
	return Some(*p)
}

func (o OptionalDecimal) Ptr() *decimal.Decimal {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// Or returns the value, or def when absent.
func (o OptionalDecimal) Or(def decimal.Decimal) decimal.Decimal {
	if !o.Valid {
		return def
	}
	return o.Value
}

func (o OptionalDecimal) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return o.Value.MarshalJSON()
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything that does
// not parse as a finite number becomes absent.
func (o *OptionalDecimal) UnmarshalJSON(b []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*o = ParseOptionalDecimal(raw)
	return nil
}

// ParseOptionalDecimal converts a loosely typed value read at the storage or
// request boundary. NaN, infinities, empty strings and unparseable input all
// map to absent.
func ParseOptionalDecimal(v interface{}) OptionalDecimal {
	switch x := v.(type) {
	case nil:
		return None()
	case OptionalDecimal:
		return x
	case decimal.Decimal:
		return Some(x)
	case *decimal.Decimal:
		return FromPtr(x)
	case float64:
		return fromFloat(x)
	case *float64:
		if x == nil {
			return None()
		}
		return fromFloat(*x)
	case float32:
		return fromFloat(float64(x))
	case int:
		return Some(decimal.NewFromInt(int64(x)))
	case int32:
		return Some(decimal.NewFromInt(int64(x)))
	case int64:
		return Some(decimal.NewFromInt(x))
	case json.Number:
		return fromString(x.String())
	case string:
		return fromString(x)
	case *string:
		if x == nil {
			return None()
		}
		return fromString(*x)
	default:
		return None()
	}
}

func fromFloat(f float64) OptionalDecimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return None()
	}
	return Some(decimal.NewFromFloat(f))
}

func fromString(s string) OptionalDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return None()
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return None()
	}
	return Some(d)
}
