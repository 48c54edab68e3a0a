package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"task-calendar/internal/calendar"
	"task-calendar/internal/repository"
	"task-calendar/internal/service"
)

type reportCmd struct {
	flags *flags

	// flags
	telegramID int64
	date       string
}

func newReportCmd(f *flags) *reportCmd {
	return &reportCmd{flags: f}
}

// Register adds the report command to the application
func (cmd *reportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "report",
		Usage:     "Print the daily summary for one user",
		UsageText: "taskcalendar report --telegram-id <id> [--date YYYY-MM-DD]",
		Description: `Builds the same summary the bot sends every morning and writes it to stdout.
Useful for checking data without a Telegram token.`,
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:        "telegram-id",
				Usage:       "Telegram ID of the user",
				Required:    true,
				Destination: &cmd.telegramID,
			},
			&cli.StringFlag{
				Name:        "date",
				Usage:       "day to report on (defaults to today in TIMEZONE)",
				Destination: &cmd.date,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *reportCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	today := calendar.Today(time.Now(), cfg.Location)
	if cmd.date != "" {
		d, err := calendar.ParseDate(cmd.date)
		if err != nil {
			return err
		}
		today = d
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	user, err := repository.NewUserRepository(db).FindByTelegramID(ctx, cmd.telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user with telegram id %d", cmd.telegramID)
		}
		return err
	}

	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	skipRepo := repository.NewSkipRepository(db)
	reminderSvc := service.NewReminderService(service.NewCalendarService(taskRepo, completionRepo, skipRepo))

	text, err := reminderSvc.DailySummary(ctx, *user, today)
	if err != nil {
		return fmt.Errorf("build summary: %w", err)
	}

	_, err = fmt.Fprintln(os.Stdout, text)
	return err
}
