package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mchmarny/mobusage/pkg/config"
	"github.com/mchmarny/mobusage/pkg/data"
	"github.com/mchmarny/mobusage/pkg/logging"
	"github.com/mchmarny/mobusage/pkg/report"
	urfave "github.com/urfave/cli/v3"
)

const (
	appName      = "mobusage"
	appConfigKey = "app-config"
)

const (
	debugFlag      = "debug"
	dbFilePathFlag = "db"
	formatFlag     = "format"
	configFlag     = "config"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath string
	Debug  bool
	Format string
	Config *config.Config
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

// openDB makes sure the history database exists and opens it. The caller closes it.
func (c *appConfig) openDB() (*sql.DB, error) {
	if err := data.Init(c.DBPath); err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}
	db, err := data.GetDB(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Clean, score and classify mobile-usage records",
		UsageText: `mobusage                                      # clean raw_mobile_usage.csv into cleaned_mobile_usage.csv
   mobusage clean --input raw.csv --output out.csv
   mobusage describe --input raw.csv
   mobusage history --limit 5`,
		Metadata: map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlag,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  dbFilePathFlag,
				Usage: fmt.Sprintf("Path to the run history Sqlite database (default: $HOME/.%s/%s)", appName, data.DataFileName),
			},
			&urfave.StringFlag{
				Name:  formatFlag,
				Usage: "Output format [json, yaml]",
				Value: report.FormatJSON,
			},
			&urfave.StringFlag{
				Name:  configFlag,
				Usage: "Path to a yaml config file (optional, defaults reproduce the standard dataset)",
			},
		},
		Commands: []*urfave.Command{
			newCleanCmd(),
			newDescribeCmd(),
			newHistoryCmd(),
			newConfigCmd(),
			newResetCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			debug := cmd.Bool(debugFlag)
			if debug {
				initLogging(true)
			}

			format := report.FormatJSON
			if f := cmd.String(formatFlag); f == report.FormatYAML || f == "yml" {
				format = report.FormatYAML
			}

			cfg, err := config.Load(cmd.String(configFlag))
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}

			dbPath := cmd.String(dbFilePathFlag)
			if dbPath == "" {
				dbPath = filepath.Join(getHomeDir(), data.DataFileName)
			}

			cmd.Root().Metadata[appConfigKey] = &appConfig{
				DBPath: dbPath,
				Debug:  debug,
				Format: format,
				Config: cfg,
			}
			return ctx, nil
		},
		Action: cmdDefault,
	}
}

// cmdDefault runs clean with the configured paths when no command is given.
func cmdDefault(ctx context.Context, cmd *urfave.Command) error {
	if cmd.Args().Len() > 0 {
		return fmt.Errorf("unknown command: %s", cmd.Args().First())
	}
	return cmdClean(ctx, cmd)
}

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir(appName)
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created dir", "path", dir)
	}
	return dir
}

func getWriter(cmd *urfave.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func encode(cmd *urfave.Command, v any) error {
	return report.Encode(getWriter(cmd), getConfig(cmd).Format, v)
}
