package clean

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mchmarny/mobusage/pkg/table"
)

var (
	ErrTypeConversion     = errors.New("type conversion error")
	ErrRangeViolation     = errors.New("range violation")
	ErrOverlappingColumns = errors.New("column listed as both int and float")
)

// TypeConversionError reports a value that could not be cast to its column kind.
type TypeConversionError struct {
	Column string
	Line   int
	Value  string
	Kind   table.Kind
	Err    error
}

func (e *TypeConversionError) Error() string {
	msg := fmt.Sprintf("%s: column %s line %d: cannot convert %q to %s", ErrTypeConversion, e.Column, e.Line, e.Value, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TypeConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTypeConversion}
	}
	return []error{ErrTypeConversion, e.Err}
}

// Violation is a single out-of-range value.
type Violation struct {
	Line  int     `json:"line" yaml:"line"`
	Value float64 `json:"value" yaml:"value"`
}

// RangeViolationError carries every failed range check of a validation pass.
type RangeViolationError struct {
	Checks []*RangeCheck
}

func (e *RangeViolationError) Error() string {
	parts := make([]string, 0, len(e.Checks))
	for _, c := range e.Checks {
		first := c.Violations[0]
		parts = append(parts, fmt.Sprintf("%s outside [%g, %g] in %d row(s), first at line %d (%g)",
			c.Rule.Column, c.Rule.Lower, c.Rule.Upper, len(c.Violations), first.Line, first.Value))
	}
	return fmt.Sprintf("%s: %s", ErrRangeViolation, strings.Join(parts, "; "))
}

func (e *RangeViolationError) Unwrap() error {
	return ErrRangeViolation
}
