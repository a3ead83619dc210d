package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mchmarny/mobusage/pkg/clean"
	"github.com/mchmarny/mobusage/pkg/score"
	"github.com/mchmarny/mobusage/pkg/table"
	"gopkg.in/yaml.v3"
)

const (
	DefaultInput  = "raw_mobile_usage.csv"
	DefaultOutput = "cleaned_mobile_usage.csv"

	dirMode  = 0700
	fileMode = 0600
)

var ErrInvalidConfig = errors.New("invalid config")

// Config describes how a raw usage file is cleaned and scored.
type Config struct {
	Input      string            `yaml:"input" json:"input" validate:"required"`
	Output     string            `yaml:"output" json:"output" validate:"required,nefield=Input"`
	Key        string            `yaml:"key" json:"key" validate:"required"`
	GroupBy    string            `yaml:"group_by" json:"group_by" validate:"required"`
	IntCols    []string          `yaml:"int_columns" json:"int_columns" validate:"dive,required"`
	FloatCols  []string          `yaml:"float_columns" json:"float_columns" validate:"dive,required"`
	Ranges     []clean.RangeRule `yaml:"ranges" json:"ranges" validate:"dive"`
	Columns    score.Columns     `yaml:"columns" json:"columns"`
	Weights    score.Weights     `yaml:"weights" json:"weights"`
	Thresholds score.Thresholds  `yaml:"thresholds" json:"thresholds"`
}

// Default returns the configuration of the standard mobile-usage dataset.
func Default() *Config {
	return &Config{
		Input:     DefaultInput,
		Output:    DefaultOutput,
		Key:       "user_id",
		GroupBy:   "age_group",
		IntCols:   []string{"age", "app_count", "charging_freq"},
		FloatCols: []string{"avg_screen_time_hrs", "daily_data_gb", "battery_drain_pct"},
		Ranges: []clean.RangeRule{
			{Column: "avg_screen_time_hrs", Lower: 0.8, Upper: 9.0},
			{Column: "daily_data_gb", Lower: 0.5, Upper: 7.0},
			{Column: "battery_drain_pct", Lower: 30, Upper: 95},
		},
		Columns:    score.DefaultColumns(),
		Weights:    score.DefaultWeights(),
		Thresholds: score.DefaultThresholds(),
	}
}

// Schema returns the columns an input file must carry and their kinds.
func (c *Config) Schema() table.Schema {
	s := table.Schema{{Name: c.Key, Kind: table.KindString}}
	for _, n := range c.IntCols {
		s = append(s, table.Field{Name: n, Kind: table.KindInt})
	}
	for _, n := range c.FloatCols {
		s = append(s, table.Field{Name: n, Kind: table.KindFloat})
	}
	return append(s, table.Field{Name: c.GroupBy, Kind: table.KindString})
}

// Validate checks struct constraints plus the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	kinds := make(map[string]table.Kind)
	for _, f := range c.Schema() {
		if k, ok := kinds[f.Name]; ok && k != f.Kind {
			return fmt.Errorf("%w: column %s listed as %s and %s", ErrInvalidConfig, f.Name, k, f.Kind)
		}
		kinds[f.Name] = f.Kind
	}

	for _, r := range c.Ranges {
		if kinds[r.Column] != table.KindFloat {
			return fmt.Errorf("%w: range column %s is not a float column", ErrInvalidConfig, r.Column)
		}
	}

	want := map[string]table.Kind{
		c.Columns.ScreenTime:   table.KindFloat,
		c.Columns.AppCount:     table.KindInt,
		c.Columns.DailyData:    table.KindFloat,
		c.Columns.ChargingFreq: table.KindInt,
	}
	for name, k := range want {
		if kinds[name] != k {
			return fmt.Errorf("%w: score column %s must be a %s column", ErrInvalidConfig, name, k)
		}
	}
	for _, derived := range []string{c.Columns.Score, c.Columns.Category} {
		if _, ok := kinds[derived]; ok {
			return fmt.Errorf("%w: derived column %s collides with an input column", ErrInvalidConfig, derived)
		}
	}
	return nil
}

// Load reads the config file at path. An empty path yields the defaults.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Save writes the config as yaml, creating the parent directory if needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return fmt.Errorf("creating dir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("writing config file %s: %w", path, err)
	}
	return nil
}

// GetOrCreateHomeDir returns ~/.<name>, creating it when missing.
// The created flag is true if the directory did not exist before.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}
	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("getting user home dir: %w", err)
	}

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := os.Mkdir(dir, dirMode); err != nil {
			return "", false, fmt.Errorf("creating dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
