package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"task-calendar/internal/api"
	"task-calendar/internal/bot"
	"task-calendar/internal/repository"
	"task-calendar/internal/service"
)

type serveCmd struct {
	flags *flags
}

func newServeCmd(f *flags) *serveCmd {
	return &serveCmd{flags: f}
}

// Register adds the serve command to the application
func (cmd *serveCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the Telegram bot and the HTTP API",
		UsageText: "taskcalendar serve",
		Description: `Starts every enabled transport: the Telegram bot when TELEGRAM_TOKEN is set
and the JSON API when HTTP_ADDR is set. With the bot enabled a daily summary is
sent at REPORT_TIME in TIMEZONE.`,
		Action: cmd.run,
	})
	return app
}

func (cmd *serveCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	userRepo := repository.NewUserRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	skipRepo := repository.NewSkipRepository(db)

	taskSvc := service.NewTaskService(taskRepo, completionRepo, skipRepo)
	calendarSvc := service.NewCalendarService(taskRepo, completionRepo, skipRepo)
	reminderSvc := service.NewReminderService(calendarSvc)

	g, ctx := errgroup.WithContext(ctx)

	if cfg.BotEnabled() {
		telegramBot, err := bot.New(cfg.TelegramToken, userRepo, taskSvc, calendarSvc, reminderSvc, cfg)
		if err != nil {
			return err
		}

		if cfg.ReportTime != "" {
			scheduler := service.NewSchedulerService(cfg.Location)
			id, err := scheduler.ScheduleDaily(cfg.ReportTime, func() {
				jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
				defer cancel()
				if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("daily report")
				}
			})
			if err != nil {
				return fmt.Errorf("schedule reports: %w", err)
			}
			scheduler.Start()
			defer scheduler.Stop()
			log.Info().
				Str("report_time", cfg.ReportTime).
				Str("timezone", cfg.Location.String()).
				Time("next", scheduler.Next(id)).
				Msg("daily report scheduled")
		}

		g.Go(func() error {
			return telegramBot.Start(ctx)
		})
	}

	if cfg.HTTPAddr != "" {
		server := api.New(userRepo, taskSvc, calendarSvc, cfg.Location, time.Now)
		g.Go(func() error {
			return server.Run(ctx, cfg.HTTPAddr)
		})
	}

	log.Info().
		Bool("bot", cfg.BotEnabled()).
		Str("http_addr", cfg.HTTPAddr).
		Str("database", cfg.DatabaseURL).
		Msg("task calendar started")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("shutdown complete")
	return nil
}
