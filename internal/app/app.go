// Package app wires configuration, storage, services, and transport into a
// running process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislog/logbook-backend/internal/adapter/postgres"
	"github.com/praxislog/logbook-backend/internal/adapter/postgres/auditlog"
	commentrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/comment"
	"github.com/praxislog/logbook-backend/internal/adapter/postgres/hourrecord"
	logbookrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/logbook"
	programrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/program"
	"github.com/praxislog/logbook-backend/internal/adapter/postgres/unlockreq"
	userrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/user"
	"github.com/praxislog/logbook-backend/internal/adapter/renderer"
	jwtauth "github.com/praxislog/logbook-backend/internal/auth"
	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/notify"
	auditsvc "github.com/praxislog/logbook-backend/internal/service/audit"
	authsvc "github.com/praxislog/logbook-backend/internal/service/auth"
	commentsvc "github.com/praxislog/logbook-backend/internal/service/comment"
	compliancesvc "github.com/praxislog/logbook-backend/internal/service/compliance"
	hourssvc "github.com/praxislog/logbook-backend/internal/service/hours"
	logbooksvc "github.com/praxislog/logbook-backend/internal/service/logbook"
	programsvc "github.com/praxislog/logbook-backend/internal/service/program"
	unlocksvc "github.com/praxislog/logbook-backend/internal/service/unlock"
	"github.com/praxislog/logbook-backend/internal/transport/middleware"
	"github.com/praxislog/logbook-backend/internal/transport/rest"
)

// Run is the application entry point. It loads configuration, connects to
// PostgreSQL, wires the services, and serves HTTP until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	handler, sweeper, err := Build(pool, cfg, logger)
	if err != nil {
		return err
	}

	// Expiry sweeps run in-process; the standalone cmd/sweeper exists for
	// multi-replica deployments where exactly one sweeper is wanted.
	sweepCtx, stopSweeps := context.WithCancel(ctx)
	defer stopSweeps()
	go runSweepLoop(sweepCtx, sweeper, cfg.Unlock.SweepInterval, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Sweeper is the slice of the unlock service the background loop needs.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
	WarnExpiring(ctx context.Context) (int, error)
}

// Build assembles the HTTP handler and the unlock sweeper from an open pool.
// Separate from Run so tooling can wire against its own pool.
func Build(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (http.Handler, Sweeper, error) {
	tx := postgres.NewTxManager(pool)

	users := userrepo.New(pool)
	logbooks := logbookrepo.New(pool)
	records := hourrecord.New(pool)
	programs := programrepo.New(pool)
	unlocks := unlockreq.New(pool)
	comments := commentrepo.New(pool)
	audit := auditlog.New(pool)

	jwtManager := jwtauth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)
	loginLimiter := middleware.NewRateLimiter(10 * time.Minute)
	notifier := notify.NewFanout(notify.NewLogSink(logger))
	docRenderer := renderer.NewClient(cfg.Renderer, logger)

	complianceSvc, err := compliancesvc.NewService(logger, programs, records, cfg.Compliance)
	if err != nil {
		return nil, nil, err
	}

	logbookSvc := logbooksvc.NewService(logger, logbooks, unlocks, audit, tx, notifier, docRenderer)
	unlockSvc := unlocksvc.NewService(logger, unlocks, logbooks, audit, tx, notifier, cfg.Unlock)
	hoursSvc := hourssvc.NewService(logger, records, logbooks, programs, unlocks, audit, tx, complianceSvc)
	commentSvc := commentsvc.NewService(logger, comments, logbooks, audit, tx, notifier)
	programSvc := programsvc.NewService(logger, programs)
	auditSvc := auditsvc.NewService(logger, logbooks, audit)
	authSvc := authsvc.New(users, jwtManager, logger)

	mux := rest.NewRouter(rest.Handlers{
		Auth:       rest.NewAuthHandler(authSvc, logger),
		Logbook:    rest.NewLogbookHandler(logbookSvc, logger),
		Hours:      rest.NewHoursHandler(hoursSvc, logger),
		Unlock:     rest.NewUnlockHandler(unlockSvc, logger),
		Comment:    rest.NewCommentHandler(commentSvc, logger),
		Compliance: rest.NewComplianceHandler(complianceSvc, logger),
		Program:    rest.NewProgramHandler(programSvc, logger),
		Audit:      rest.NewAuditHandler(auditSvc, logger),
		Health:     rest.NewHealthHandler(pool, BuildVersion()),
		LoginLimit: loginLimiter.Limit(cfg.Auth.LoginRateLimit),
	})

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		middleware.Auth(jwtManager),
	)
	return chain(mux), unlockSvc, nil
}

// runSweepLoop relocks expired unlock windows and warns about ones that are
// about to close, on a fixed interval.
func runSweepLoop(ctx context.Context, sweeper Sweeper, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sweeper.SweepExpired(ctx); err != nil {
				logger.Error("unlock sweep failed", slog.String("error", err.Error()))
			}
			if _, err := sweeper.WarnExpiring(ctx); err != nil {
				logger.Error("expiry warning pass failed", slog.String("error", err.Error()))
			}
		}
	}
}
