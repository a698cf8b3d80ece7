// Command sweeper runs one unlock expiry sweep and one expiry warning pass,
// then exits. It is intended to be invoked by an external cron job in
// deployments that disable the in-process sweep loop.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/praxislog/logbook-backend/internal/adapter/postgres"
	"github.com/praxislog/logbook-backend/internal/adapter/postgres/auditlog"
	logbookrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/logbook"
	"github.com/praxislog/logbook-backend/internal/adapter/postgres/unlockreq"
	"github.com/praxislog/logbook-backend/internal/app"
	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/notify"
	unlocksvc "github.com/praxislog/logbook-backend/internal/service/unlock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := unlocksvc.NewService(
		logger,
		unlockreq.New(pool),
		logbookrepo.New(pool),
		auditlog.New(pool),
		postgres.NewTxManager(pool),
		notify.NewFanout(notify.NewLogSink(logger)),
		cfg.Unlock,
	)

	swept, err := svc.SweepExpired(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	warned, err := svc.WarnExpiring(ctx)
	if err != nil {
		logger.Error("warning pass failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sweep completed",
		slog.Int("relocked", swept),
		slog.Int("warned", warned),
	)
}
