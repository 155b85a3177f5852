package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/google/subcommands"
	"github.com/trogers1052/papertrade/internal/config"
	"github.com/trogers1052/papertrade/internal/database"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "applies pending database migrations" }
func (*migrateCmd) Usage() string {
	return `migrate

Applies all pending schema migrations to the configured PostgreSQL database.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.Load()
	logger := newLogger()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		logger.Error("migration failed", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	logger.Info("migrations applied")
	return subcommands.ExitSuccess
}
