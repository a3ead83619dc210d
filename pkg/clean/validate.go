package clean

import (
	"fmt"
	"math"

	"github.com/mchmarny/mobusage/pkg/table"
)

// RangeRule bounds a float column inclusively.
type RangeRule struct {
	Column string  `yaml:"column" json:"column" validate:"required"`
	Lower  float64 `yaml:"lower" json:"lower"`
	Upper  float64 `yaml:"upper" json:"upper" validate:"gtefield=Lower"`
}

// Contains reports whether v lies within [Lower, Upper]. NaN never does.
func (r RangeRule) Contains(v float64) bool {
	return !math.IsNaN(v) && v >= r.Lower && v <= r.Upper
}

// RangeCheck is the outcome of one rule over one column.
type RangeCheck struct {
	Rule       RangeRule   `json:"rule" yaml:"rule"`
	Checked    int         `json:"checked" yaml:"checked"`
	Violations []Violation `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// OK is true when no value violated the rule.
func (c *RangeCheck) OK() bool {
	return len(c.Violations) == 0
}

// ValidateRange checks every value of a float column against the rule and
// collects all violations. The column must already be normalized to floats.
func ValidateRange(t *table.Table, rule RangeRule) (*RangeCheck, error) {
	c, err := t.Column(rule.Column)
	if err != nil {
		return nil, err
	}
	if c.Kind != table.KindFloat {
		return nil, fmt.Errorf("range check on %s: column is %s, want %s", c.Name, c.Kind, table.KindFloat)
	}

	check := &RangeCheck{Rule: rule, Checked: len(c.Floats)}
	for i, v := range c.Floats {
		if !rule.Contains(v) {
			check.Violations = append(check.Violations, Violation{Line: t.Line(i), Value: v})
		}
	}
	return check, nil
}

// Validation is the combined result of a set of range rules.
type Validation struct {
	Checks []*RangeCheck `json:"checks" yaml:"checks"`
}

// OK is true when every check passed.
func (v *Validation) OK() bool {
	for _, c := range v.Checks {
		if !c.OK() {
			return false
		}
	}
	return true
}

// Err returns a *RangeViolationError listing the failed checks, or nil.
func (v *Validation) Err() error {
	var failed []*RangeCheck
	for _, c := range v.Checks {
		if !c.OK() {
			failed = append(failed, c)
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return &RangeViolationError{Checks: failed}
}

// Validate runs every rule independently. The returned error covers
// structural problems only (unknown or non-float column); range failures are
// reported through the Validation so the caller decides whether to abort.
func Validate(t *table.Table, rules []RangeRule) (*Validation, error) {
	v := &Validation{Checks: make([]*RangeCheck, 0, len(rules))}
	for _, r := range rules {
		c, err := ValidateRange(t, r)
		if err != nil {
			return nil, err
		}
		v.Checks = append(v.Checks, c)
	}
	return v, nil
}
