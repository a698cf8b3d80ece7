package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a portal account. Authentication lives outside this subsystem;
// the table exists for assignment integrity and seeding.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	Role         UserRole
	PasswordHash string
	CreatedAt    time.Time
}
