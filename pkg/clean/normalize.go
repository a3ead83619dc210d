package clean

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mchmarny/mobusage/pkg/table"
)

// Normalize casts intCols to integers and floatCols to floats in place.
// Integers that arrive in float notation are truncated toward zero.
// The first value that cannot be cast aborts with a *TypeConversionError
// and leaves the table untouched.
func Normalize(t *table.Table, intCols, floatCols []string) error {
	ints := make(map[string]struct{}, len(intCols))
	for _, n := range intCols {
		ints[n] = struct{}{}
	}
	for _, n := range floatCols {
		if _, ok := ints[n]; ok {
			return fmt.Errorf("%w: %s", ErrOverlappingColumns, n)
		}
	}

	// convert everything first so a failure leaves no half-cast table
	intVals := make(map[*table.Column][]int64, len(intCols))
	for _, n := range intCols {
		c, err := t.Column(n)
		if err != nil {
			return err
		}
		if c.Kind == table.KindInt {
			continue
		}
		vals, err := toInts(t, c)
		if err != nil {
			return err
		}
		intVals[c] = vals
	}

	floatVals := make(map[*table.Column][]float64, len(floatCols))
	for _, n := range floatCols {
		c, err := t.Column(n)
		if err != nil {
			return err
		}
		if c.Kind == table.KindFloat {
			continue
		}
		vals, err := toFloats(t, c)
		if err != nil {
			return err
		}
		floatVals[c] = vals
	}

	for c, v := range intVals {
		c.Kind, c.Ints, c.Strings, c.Floats = table.KindInt, v, nil, nil
	}
	for c, v := range floatVals {
		c.Kind, c.Floats, c.Strings, c.Ints = table.KindFloat, v, nil, nil
	}
	return nil
}

func toInts(t *table.Table, c *table.Column) ([]int64, error) {
	out := make([]int64, c.Len())
	for i := range out {
		raw := c.Format(i)
		v, err := ParseInt(raw)
		if err != nil {
			return nil, &TypeConversionError{Column: c.Name, Line: t.Line(i), Value: raw, Kind: table.KindInt, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func toFloats(t *table.Table, c *table.Column) ([]float64, error) {
	out := make([]float64, c.Len())
	for i := range out {
		raw := c.Format(i)
		v, err := ParseFloat(raw)
		if err != nil {
			return nil, &TypeConversionError{Column: c.Name, Line: t.Line(i), Value: raw, Kind: table.KindFloat, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

// ParseFloat parses a finite float. Empty, NaN and infinite values are rejected.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value")
	}
	return v, nil
}

// ParseInt parses a base-10 integer, falling back to a float parse that is
// truncated toward zero ("3.9" -> 3, "-3.9" -> -3).
func ParseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := ParseFloat(s)
	if err != nil {
		return 0, err
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("value out of int64 range")
	}
	return int64(f), nil
}
