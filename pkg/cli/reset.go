package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mchmarny/mobusage/pkg/data"
	urfave "github.com/urfave/cli/v3"
)

const yesFlag = "yes"

func newResetCmd() *urfave.Command {
	return &urfave.Command{
		Name:  "reset",
		Usage: "Delete the run history and start fresh",
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:    yesFlag,
				Aliases: []string{"y"},
				Usage:   "Skip the confirmation prompt",
			},
		},
		Action: cmdReset,
	}
}

func cmdReset(_ context.Context, cmd *urfave.Command) error {
	cfg := getConfig(cmd)
	w := getWriter(cmd)

	if !cmd.Bool(yesFlag) {
		fmt.Fprintf(w, "This will permanently delete all run history in %s\n", cfg.DBPath)
		fmt.Fprint(w, "Are you sure? [y/N]: ")

		var in io.Reader = os.Stdin
		if r := cmd.Root().Reader; r != nil {
			in = r
		}
		answer, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("reading input: %w", err)
		}

		if strings.ToLower(strings.TrimSpace(answer)) != "y" {
			fmt.Fprintln(w, "Aborted.")
			return nil
		}
	}

	if err := os.Remove(cfg.DBPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting database: %w", err)
	}
	slog.Info("database deleted", "path", cfg.DBPath)

	if err := data.Init(cfg.DBPath); err != nil {
		return fmt.Errorf("re-initializing database: %w", err)
	}
	slog.Info("database re-initialized", "path", cfg.DBPath)
	fmt.Fprintln(w, "Reset complete.")
	return nil
}
