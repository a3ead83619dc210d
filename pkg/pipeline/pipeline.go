// Package pipeline runs the cleaning stages in order over a single table:
// load, deduplicate, cast, validate, derive, classify, aggregate and write.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/mobusage/pkg/clean"
	"github.com/mchmarny/mobusage/pkg/config"
	"github.com/mchmarny/mobusage/pkg/report"
	"github.com/mchmarny/mobusage/pkg/score"
	"github.com/mchmarny/mobusage/pkg/table"
)

var ErrVerification = errors.New("output verification failed")

// Pipeline carries the configuration and logger of a run.
type Pipeline struct {
	cfg *config.Config
	log *slog.Logger
	now func() time.Time
}

// New validates the config and returns a pipeline. A nil logger uses slog.Default.
func New(cfg *config.Config, log *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{cfg: cfg, log: log, now: time.Now}, nil
}

// Prepare loads the input and runs dedup, normalization and validation. A
// range violation is returned as an error together with the table so the
// caller can still inspect it.
func (p *Pipeline) Prepare(ctx context.Context) (*table.Table, int, error) {
	t, err := table.ReadFile(p.cfg.Input, p.cfg.Schema())
	if err != nil {
		return nil, 0, err
	}
	p.log.Info("dataset loaded", "path", p.cfg.Input, "rows", t.Len(), "columns", len(t.Names()))
	for col, n := range t.Missing() {
		if n > 0 {
			p.log.Debug("missing values", "column", col, "count", n)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	dups, err := clean.Deduplicate(t, p.cfg.Key)
	if err != nil {
		return nil, 0, err
	}
	p.log.Debug("deduplicated", "key", p.cfg.Key, "removed", dups)

	if err := ctx.Err(); err != nil {
		return nil, dups, err
	}
	if err := clean.Normalize(t, p.cfg.IntCols, p.cfg.FloatCols); err != nil {
		return nil, dups, err
	}

	if err := ctx.Err(); err != nil {
		return nil, dups, err
	}
	v, err := clean.Validate(t, p.cfg.Ranges)
	if err != nil {
		return nil, dups, err
	}
	for _, c := range v.Checks {
		p.log.Debug("range check", "column", c.Rule.Column, "checked", c.Checked, "violations", len(c.Violations))
	}
	return t, dups, v.Err()
}

// Run executes the full pipeline. Nothing is written unless every stage
// before the writer succeeds.
func (p *Pipeline) Run(ctx context.Context) (*report.Summary, error) {
	start := p.now()

	t, dups, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	loaded := t.Len() + dups

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := score.Derive(t, p.cfg.Columns, p.cfg.Weights); err != nil {
		return nil, fmt.Errorf("deriving score: %w", err)
	}
	if err := score.ClassifyTable(t, p.cfg.Columns, p.cfg.Thresholds); err != nil {
		return nil, fmt.Errorf("classifying: %w", err)
	}

	agg, err := report.Aggregate(t, p.cfg.Columns.Category, p.cfg.GroupBy, p.cfg.Columns.Score)
	if err != nil {
		return nil, fmt.Errorf("aggregating: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := table.WriteFile(p.cfg.Output, t); err != nil {
		return nil, err
	}

	s := &report.Summary{
		RunID:      uuid.NewString(),
		StartedAt:  start.UTC(),
		Input:      p.cfg.Input,
		Output:     p.cfg.Output,
		Loaded:     loaded,
		Duplicates: dups,
		Rows:       t.Len(),
		Columns:    len(t.Names()),
		Aggregates: *agg,
		Duration:   p.now().Sub(start).String(),
	}
	s.Log(p.log)
	return s, nil
}

// Verify re-reads the written output and checks it against the summary: the
// row count must match and every stored score must still map to its stored category.
func (p *Pipeline) Verify(s *report.Summary) error {
	schema := append(p.cfg.Schema(),
		table.Field{Name: p.cfg.Columns.Score, Kind: table.KindFloat},
		table.Field{Name: p.cfg.Columns.Category, Kind: table.KindString},
	)
	t, err := table.ReadFile(s.Output, schema)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}
	if t.Len() != s.Rows {
		return fmt.Errorf("%w: wrote %d rows, read back %d", ErrVerification, s.Rows, t.Len())
	}
	if err := clean.Normalize(t, nil, []string{p.cfg.Columns.Score}); err != nil {
		return fmt.Errorf("%w: %w", ErrVerification, err)
	}

	scores, err := t.Column(p.cfg.Columns.Score)
	if err != nil {
		return err
	}
	cats, err := t.Column(p.cfg.Columns.Category)
	if err != nil {
		return err
	}
	for i, v := range scores.Floats {
		if got := score.Classify(v, p.cfg.Thresholds); string(got) != cats.Strings[i] {
			return fmt.Errorf("%w: line %d score %v is %s, file says %s", ErrVerification, t.Line(i), v, got, cats.Strings[i])
		}
	}
	p.log.Debug("output verified", "path", s.Output, "rows", t.Len())
	return nil
}
