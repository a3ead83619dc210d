package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/mobusage/pkg/config"
	urfave "github.com/urfave/cli/v3"
)

const (
	pathFlag = "path"

	defaultConfigFile = "mobusage.yaml"
)

func newConfigCmd() *urfave.Command {
	return &urfave.Command{
		Name:   "config",
		Usage:  "Print the effective configuration",
		Action: cmdConfig,
		Commands: []*urfave.Command{
			{
				Name:  "init",
				Usage: "Write the effective configuration to a yaml file for editing",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  pathFlag,
						Usage: "Path of the config file to write",
						Value: defaultConfigFile,
					},
				},
				Action: cmdConfigInit,
			},
		},
	}
}

func cmdConfig(_ context.Context, cmd *urfave.Command) error {
	return encode(cmd, getConfig(cmd).Config)
}

func cmdConfigInit(_ context.Context, cmd *urfave.Command) error {
	path := cmd.String(pathFlag)
	if err := config.Save(path, getConfig(cmd).Config); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	slog.Info("config saved", "path", path)
	return nil
}
