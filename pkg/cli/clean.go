package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mchmarny/mobusage/pkg/data"
	"github.com/mchmarny/mobusage/pkg/metrics"
	"github.com/mchmarny/mobusage/pkg/pipeline"
	urfave "github.com/urfave/cli/v3"
)

const (
	inputFlag       = "input"
	outputFlag      = "output"
	metricsFileFlag = "metrics-file"
	noHistoryFlag   = "no-history"
)

func newInputFlag() urfave.Flag {
	return &urfave.StringFlag{
		Name:    inputFlag,
		Aliases: []string{"i"},
		Usage:   "Path to the raw CSV file (overrides config)",
	}
}

func newCleanCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "clean",
		Aliases: []string{"cl"},
		Usage:   "Clean, score and classify the raw dataset and write the result",
		Flags: []urfave.Flag{
			newInputFlag(),
			&urfave.StringFlag{
				Name:    outputFlag,
				Aliases: []string{"o"},
				Usage:   "Path of the cleaned CSV file (overrides config)",
			},
			&urfave.StringFlag{
				Name:  metricsFileFlag,
				Usage: "Write run metrics in prometheus text format to this path (optional)",
			},
			&urfave.BoolFlag{
				Name:  noHistoryFlag,
				Usage: "Do not record the run in the history database",
			},
		},
		Action: cmdClean,
	}
}

func cmdClean(ctx context.Context, cmd *urfave.Command) error {
	ac := getConfig(cmd)

	cfg := *ac.Config
	if v := cmd.String(inputFlag); v != "" {
		cfg.Input = v
	}
	if v := cmd.String(outputFlag); v != "" {
		cfg.Output = v
	}

	p, err := pipeline.New(&cfg, slog.Default())
	if err != nil {
		return err
	}

	start := time.Now()
	s, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", cfg.Input, err)
	}
	if err := p.Verify(s); err != nil {
		return err
	}

	if !cmd.Bool(noHistoryFlag) {
		db, err := ac.openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		if err := data.SaveRun(db, s); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		slog.Debug("run recorded", "id", s.RunID, "db", ac.DBPath)
	}

	if path := cmd.String(metricsFileFlag); path != "" {
		rec := metrics.NewRecorder()
		rec.Observe(s, time.Since(start), time.Now())
		if err := rec.WriteFile(path); err != nil {
			return err
		}
		slog.Debug("metrics written", "path", path)
	}

	return encode(cmd, s)
}
