package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"task-calendar/internal/repository"
)

type migrateCmd struct {
	flags *flags
}

func newMigrateCmd(f *flags) *migrateCmd {
	return &migrateCmd{flags: f}
}

// Register adds the migrate command to the application
func (cmd *migrateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "migrate",
		Usage:     "Create or update the database schema and exit",
		UsageText: "taskcalendar migrate",
		Action:    cmd.run,
	})
	return app
}

func (cmd *migrateCmd) run(ctx context.Context, c *cli.Command) error {
	db, err := repository.NewDB(cmd.flags.Config.DatabaseURL)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	log.Info().Str("database", cmd.flags.Config.DatabaseURL).Msg("schema is up to date")
	return nil
}
