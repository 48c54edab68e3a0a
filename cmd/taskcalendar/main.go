package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"task-calendar/internal/config"
	"task-calendar/internal/logging"
)

var version = "dev"

// flags holds global options shared by every subcommand.
type flags struct {
	LogLevel string
	LogFile  string
	Config   config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCloser func()
	f := &flags{}

	serve := newServeCmd(f)

	app := &cli.Command{
		Name:      "taskcalendar",
		Usage:     "Personal task calendar with a Telegram bot and a JSON API",
		UsageText: "taskcalendar [global options] command [command options]",
		Description: `Tracks recurring and one-off tasks, marks completions per day and reports
progress on a six-week calendar.

Run 'taskcalendar' with no arguments to start the bot and the HTTP API.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Destination: &f.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stdout)",
				Sources:     cli.EnvVars("LOG_FILE"),
				Destination: &f.LogFile,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load()
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if f.LogLevel != "" {
				cfg.LogLevel = f.LogLevel
			}
			if f.LogFile != "" {
				cfg.LogFile = f.LogFile
			}

			logger, closer, err := logging.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			f.Config = cfg
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
		Action: serve.run,
	}

	app = serve.Register(app)
	app = newMigrateCmd(f).Register(app)
	app = newReportCmd(f).Register(app)

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "taskcalendar: %v\n", err)
		os.Exit(1)
	}
}
