package score

import (
	"errors"
	"fmt"

	"github.com/mchmarny/mobusage/pkg/table"
)

// Category is a behaviour label, ordered by severity.
type Category string

const (
	Minimal   Category = "Minimal"
	Light     Category = "Light"
	Moderate  Category = "Moderate"
	Heavy     Category = "Heavy"
	Dangerous Category = "Dangerous"
)

// Categories lists every label from least to most severe.
var Categories = []Category{Minimal, Light, Moderate, Heavy, Dangerous}

var ErrThresholdOrder = errors.New("thresholds must be strictly ascending")

// Rank returns the severity of the category (0 for Minimal), or -1 when unknown.
func (c Category) Rank() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return -1
}

// Thresholds are the lower bounds of Light, Moderate, Heavy and Dangerous.
// Each bound belongs to the bucket above it.
type Thresholds struct {
	Light     float64 `yaml:"light" json:"light"`
	Moderate  float64 `yaml:"moderate" json:"moderate"`
	Heavy     float64 `yaml:"heavy" json:"heavy"`
	Dangerous float64 `yaml:"dangerous" json:"dangerous"`
}

// DefaultThresholds returns 2.0, 3.5, 5.0 and 6.5.
func DefaultThresholds() Thresholds {
	return Thresholds{Light: 2.0, Moderate: 3.5, Heavy: 5.0, Dangerous: 6.5}
}

// Validate makes sure the bounds ascend.
func (t Thresholds) Validate() error {
	if t.Light < t.Moderate && t.Moderate < t.Heavy && t.Heavy < t.Dangerous {
		return nil
	}
	return fmt.Errorf("%w: %g, %g, %g, %g", ErrThresholdOrder, t.Light, t.Moderate, t.Heavy, t.Dangerous)
}

// Classify maps a score to its category, testing the bounds in ascending order.
func Classify(s float64, t Thresholds) Category {
	switch {
	case s < t.Light:
		return Minimal
	case s < t.Moderate:
		return Light
	case s < t.Heavy:
		return Moderate
	case s < t.Dangerous:
		return Heavy
	default:
		return Dangerous
	}
}

// ClassifyTable appends the category column computed from the score column.
func ClassifyTable(tbl *table.Table, cols Columns, t Thresholds) error {
	scores, err := typed(tbl, cols.Score, table.KindFloat)
	if err != nil {
		return err
	}

	labels := make([]string, len(scores.Floats))
	for i, s := range scores.Floats {
		labels[i] = string(Classify(s, t))
	}

	if err := tbl.AddColumn(&table.Column{Name: cols.Category, Kind: table.KindString, Strings: labels}); err != nil {
		return fmt.Errorf("adding %s: %w", cols.Category, err)
	}
	return nil
}
