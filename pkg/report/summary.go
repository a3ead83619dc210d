package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Summary describes one completed run.
type Summary struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	Input      string    `json:"input" yaml:"input"`
	Output     string    `json:"output" yaml:"output"`
	Loaded     int       `json:"loaded" yaml:"loaded"`
	Duplicates int       `json:"duplicates" yaml:"duplicates"`
	Rows       int       `json:"rows" yaml:"rows"`
	Columns    int       `json:"columns" yaml:"columns"`
	Duration   string    `json:"duration" yaml:"duration"`
	Aggregates `yaml:",inline"`
}

// Log prints the intermediate summaries of a run at info level.
func (s *Summary) Log(l *slog.Logger) {
	l.Info("duplicate users", "count", s.Duplicates)
	for _, d := range s.Distribution {
		l.Info("behaviour share", "category", d.Category, "percent", fmt.Sprintf("%.2f", d.Percent))
	}
	for _, g := range s.GroupMeans {
		l.Info("mean usage score", "age_group", g.Group, "mean", fmt.Sprintf("%.4f", g.MeanScore))
	}
	l.Info("cleaned dataset saved", "path", s.Output, "rows", s.Rows, "columns", s.Columns)
}

// Encode writes v as indented JSON, or as YAML when format is yaml/yml.
func Encode(w io.Writer, format string, v any) error {
	if format == FormatYAML || format == "yml" {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
