package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mchmarny/mobusage/pkg/clean"
	"github.com/mchmarny/mobusage/pkg/pipeline"
	"github.com/mchmarny/mobusage/pkg/report"
	urfave "github.com/urfave/cli/v3"
)

func newDescribeCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "describe",
		Aliases: []string{"d"},
		Usage:   "Print column info and descriptive statistics of the normalized input without writing anything",
		Flags: []urfave.Flag{
			newInputFlag(),
		},
		Action: cmdDescribe,
	}
}

type describeResult struct {
	Input              string `json:"input" yaml:"input"`
	Duplicates         int    `json:"duplicates" yaml:"duplicates"`
	RangeViolations    int    `json:"range_violations" yaml:"range_violations"`
	report.Description `yaml:",inline"`
}

func cmdDescribe(ctx context.Context, cmd *urfave.Command) error {
	cfg := *getConfig(cmd).Config
	if v := cmd.String(inputFlag); v != "" {
		cfg.Input = v
	}

	p, err := pipeline.New(&cfg, slog.Default())
	if err != nil {
		return err
	}

	res := describeResult{Input: cfg.Input}

	t, dups, err := p.Prepare(ctx)
	var rve *clean.RangeViolationError
	switch {
	case errors.As(err, &rve):
		for _, c := range rve.Checks {
			res.RangeViolations += len(c.Violations)
		}
		slog.Warn("input has range violations", "count", res.RangeViolations)
	case err != nil:
		return fmt.Errorf("preparing %s: %w", cfg.Input, err)
	}
	res.Duplicates = dups

	d, err := report.Describe(t)
	if err != nil {
		return err
	}
	res.Description = *d

	return encode(cmd, res)
}
