package cli

import (
	"context"
	"fmt"

	"github.com/mchmarny/mobusage/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

const (
	limitFlag = "limit"
	runIDFlag = "id"
	statsFlag = "stats"
)

func newHistoryCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "history",
		Aliases: []string{"h"},
		Usage:   "List previously recorded cleaning runs",
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  limitFlag,
				Usage: "Maximum number of runs to list (0 lists all)",
				Value: 10,
			},
			&urfave.StringFlag{
				Name:  runIDFlag,
				Usage: "Show a single run with its category distribution and group means",
			},
			&urfave.BoolFlag{
				Name:  statsFlag,
				Usage: "Show totals over all recorded runs",
			},
		},
		Action: cmdHistory,
	}
}

func cmdHistory(_ context.Context, cmd *urfave.Command) error {
	db, err := getConfig(cmd).openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool(statsFlag) {
		state, err := data.GetDataState(db)
		if err != nil {
			return fmt.Errorf("getting history state: %w", err)
		}
		return encode(cmd, state)
	}

	if id := cmd.String(runIDFlag); id != "" {
		run, err := data.GetRun(db, id)
		if err != nil {
			return err
		}
		return encode(cmd, run)
	}

	list, err := data.ListRuns(db, int(cmd.Int(limitFlag)))
	if err != nil {
		return err
	}
	return encode(cmd, list)
}
