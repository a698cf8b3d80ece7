// Package auth issues access tokens for password logins. The portal normally
// fronts an external identity provider; this service backs local development
// and the seeded demo accounts.
package auth

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/domain"
)

// userRepo defines the user repository interface needed by the auth service.
type userRepo interface {
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

// tokenIssuer mints signed access tokens.
type tokenIssuer interface {
	GenerateAccessToken(userID uuid.UUID, role domain.UserRole) (string, error)
}

// Service authenticates users by email and password.
type Service struct {
	users  userRepo
	tokens tokenIssuer
	log    *slog.Logger
}

// New creates a new auth service.
func New(users userRepo, tokens tokenIssuer, log *slog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    log.With("service", "auth"),
	}
}
