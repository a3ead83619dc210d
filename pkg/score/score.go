// Package score derives the composite usage score and maps it onto the
// behaviour categories.
package score

import (
	"fmt"
	"math"

	"github.com/mchmarny/mobusage/pkg/table"
)

// Places is the number of decimals the usage score is rounded to.
const Places = 2

// Weights are the coefficients of the usage score. AppCountDivisor scales the
// app count before its weight applies.
type Weights struct {
	ScreenTime      float64 `yaml:"screen_time" json:"screen_time" validate:"gte=0"`
	AppCount        float64 `yaml:"app_count" json:"app_count" validate:"gte=0"`
	AppCountDivisor float64 `yaml:"app_count_divisor" json:"app_count_divisor" validate:"gt=0"`
	DailyData       float64 `yaml:"daily_data" json:"daily_data" validate:"gte=0"`
	ChargingFreq    float64 `yaml:"charging_freq" json:"charging_freq" validate:"gte=0"`
}

// DefaultWeights returns 0.4*screen + 0.3*(apps/10) + 0.2*data + 0.1*charging.
func DefaultWeights() Weights {
	return Weights{
		ScreenTime:      0.4,
		AppCount:        0.3,
		AppCountDivisor: 10,
		DailyData:       0.2,
		ChargingFreq:    0.1,
	}
}

// Inputs are the four per-row values the score is built from.
type Inputs struct {
	ScreenTime   float64
	AppCount     int64
	DailyData    float64
	ChargingFreq int64
}

// Score computes the rounded usage score of one row.
func Score(in Inputs, w Weights) float64 {
	// explicit float64 conversions stop the compiler fusing multiply-adds,
	// which would make results differ across architectures
	s := float64(w.ScreenTime * in.ScreenTime)
	s += float64(w.AppCount * (float64(in.AppCount) / w.AppCountDivisor))
	s += float64(w.DailyData * in.DailyData)
	s += float64(w.ChargingFreq * float64(in.ChargingFreq))
	return Round(s, Places)
}

// Round rounds half to even at the given number of decimals, operating on
// v scaled by 10^places, so 0.125 -> 0.12 and 0.375 -> 0.38, while values
// like 2.675 (stored as 2.67499...) go down.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	p := math.Pow10(places)
	return math.RoundToEven(v*p) / p
}

// Columns names the table columns the score reads and writes.
type Columns struct {
	ScreenTime   string `yaml:"screen_time" json:"screen_time" validate:"required"`
	AppCount     string `yaml:"app_count" json:"app_count" validate:"required"`
	DailyData    string `yaml:"daily_data" json:"daily_data" validate:"required"`
	ChargingFreq string `yaml:"charging_freq" json:"charging_freq" validate:"required"`
	Score        string `yaml:"score" json:"score" validate:"required"`
	Category     string `yaml:"category" json:"category" validate:"required"`
}

// DefaultColumns returns the column names of the mobile-usage dataset.
func DefaultColumns() Columns {
	return Columns{
		ScreenTime:   "avg_screen_time_hrs",
		AppCount:     "app_count",
		DailyData:    "daily_data_gb",
		ChargingFreq: "charging_freq",
		Score:        "usage_score",
		Category:     "behaviour_category",
	}
}

// Derive appends the score column to a normalized table.
func Derive(t *table.Table, cols Columns, w Weights) error {
	screen, err := typed(t, cols.ScreenTime, table.KindFloat)
	if err != nil {
		return err
	}
	apps, err := typed(t, cols.AppCount, table.KindInt)
	if err != nil {
		return err
	}
	data, err := typed(t, cols.DailyData, table.KindFloat)
	if err != nil {
		return err
	}
	charging, err := typed(t, cols.ChargingFreq, table.KindInt)
	if err != nil {
		return err
	}

	scores := make([]float64, t.Len())
	for i := range scores {
		scores[i] = Score(Inputs{
			ScreenTime:   screen.Floats[i],
			AppCount:     apps.Ints[i],
			DailyData:    data.Floats[i],
			ChargingFreq: charging.Ints[i],
		}, w)
	}

	if err := t.AddColumn(&table.Column{Name: cols.Score, Kind: table.KindFloat, Floats: scores}); err != nil {
		return fmt.Errorf("adding %s: %w", cols.Score, err)
	}
	return nil
}

func typed(t *table.Table, name string, k table.Kind) (*table.Column, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != k {
		return nil, fmt.Errorf("column %s is %s, want %s", name, c.Kind, k)
	}
	return c, nil
}
