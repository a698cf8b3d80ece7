// Command seeder creates the demo accounts and a sample registrar program
// for local development. It is idempotent: accounts that already exist are
// skipped.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/praxislog/logbook-backend/internal/adapter/postgres"
	programrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/program"
	userrepo "github.com/praxislog/logbook-backend/internal/adapter/postgres/user"
	"github.com/praxislog/logbook-backend/internal/app"
	"github.com/praxislog/logbook-backend/internal/config"
	"github.com/praxislog/logbook-backend/internal/domain"
)

type demoAccount struct {
	name     string
	email    string
	role     domain.UserRole
	password string
}

var demoAccounts = []demoAccount{
	{"Dana Trainee", "trainee@praxislog.local", domain.UserRoleTrainee, "trainee-dev-password"},
	{"Sam Supervisor", "supervisor@praxislog.local", domain.UserRoleSupervisor, "supervisor-dev-password"},
	{"Alex Admin", "admin@praxislog.local", domain.UserRoleAdmin, "admin-dev-password"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	users := userrepo.New(pool)
	programs := programrepo.New(pool)

	var traineeID uuid.UUID
	for _, acc := range demoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(acc.password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("hash password", slog.String("error", err.Error()))
			os.Exit(1)
		}

		user := domain.User{
			ID:           uuid.New(),
			Name:         acc.name,
			Email:        acc.email,
			Role:         acc.role,
			PasswordHash: string(hash),
			CreatedAt:    time.Now().UTC(),
		}

		created, err := users.Create(ctx, user)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			existing, err := users.GetByEmail(ctx, acc.email)
			if err != nil {
				logger.Error("load existing user", slog.String("error", err.Error()))
				os.Exit(1)
			}
			logger.Info("user exists, skipping", slog.String("email", acc.email))
			created = existing
		case err != nil:
			logger.Error("create user",
				slog.String("email", acc.email),
				slog.String("error", err.Error()))
			os.Exit(1)
		default:
			logger.Info("user created",
				slog.String("email", acc.email),
				slog.String("role", acc.role.String()))
		}

		if acc.role == domain.UserRoleTrainee {
			traineeID = created.ID
		}
	}

	if err := seedProgram(ctx, programs, traineeID, logger); err != nil {
		logger.Error("seed program", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seeding completed")
}

func seedProgram(ctx context.Context, programs *programrepo.Repo, traineeID uuid.UUID, logger *slog.Logger) error {
	if _, err := programs.GetByTrainee(ctx, traineeID); err == nil {
		logger.Info("program exists, skipping")
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	now := time.Now().UTC()
	prog := domain.RegistrarProgram{
		ID:               uuid.New(),
		TraineeID:        traineeID,
		AoPE:             "clinical",
		Tier:             domain.TierMasters,
		FTEFraction:      1.0,
		StartDate:        now.AddDate(-1, 0, 0),
		ExpectedEndDate:  now.AddDate(1, 0, 0),
		WeeklyCommitment: 30,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := prog.Validate(); err != nil {
		return err
	}

	if _, err := programs.Create(ctx, prog); err != nil {
		return err
	}
	logger.Info("program created", slog.String("trainee_id", traineeID.String()))
	return nil
}
