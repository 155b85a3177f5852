package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/trogers1052/papertrade/internal/api"
	"github.com/trogers1052/papertrade/internal/config"
	"github.com/trogers1052/papertrade/internal/database"
	"github.com/trogers1052/papertrade/internal/kafka"
	"github.com/trogers1052/papertrade/internal/metrics"
	"github.com/trogers1052/papertrade/internal/service"
)

type serveCmd struct {
	migrate bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "runs the paper trading HTTP API" }
func (*serveCmd) Usage() string {
	return `serve [-migrate=false]

Serves the JSON API. When KAFKA_ENABLED is set, ledger events are published
and the trade journal consumer runs alongside the server.
`
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.migrate, "migrate", true, "apply pending migrations before serving")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.Load()
	logger := newLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		return subcommands.ExitFailure
	}
	defer db.Close()
	db.SetLogger(logger)

	if c.migrate {
		if err := db.Migrate(); err != nil {
			logger.Error("migration failed", slog.Any("error", err))
			return subcommands.ExitFailure
		}
	}

	quoter, _, closeCache := newQuoter(ctx, cfg, logger)
	defer closeCache()

	collector := metrics.NewCollector(logger)
	svc := service.New(db, quoter, cfg.Ledger.DefaultBalance, cfg.Ledger.Currency, logger)
	svc.SetMetrics(collector)

	consumerDone := make(chan error, 1)
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		svc.SetPublisher(producer)
		svc.SetHistory(db)

		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, db, logger)
		go func() {
			consumerDone <- consumer.Start(ctx)
		}()
	} else {
		consumerDone <- nil
	}

	if cfg.Session.UsingDefaultKey() {
		logger.Warn("SESSION_KEY is not set, session cookies are signed with the built-in development key")
	}
	sessionTTL := time.Duration(cfg.Session.MaxAge) * time.Second
	handler := api.NewHandler(svc, api.NewCookieStore(cfg.Session.Key, cfg.Session.MaxAge), sessionTTL, logger)
	go handler.ExpireSessions(ctx, time.Minute)
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.SetupRoutes(handler, collector.Handler()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	status := subcommands.ExitSuccess
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("HTTP server failed", slog.Any("error", err))
		status = subcommands.ExitFailure
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.Any("error", err))
	}
	if err := <-consumerDone; err != nil {
		logger.Error("kafka consumer stopped with error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return status
}
