package actors

import (
	"time"

	"github.com/google/uuid"

	"github.com/bmarket-ims/bmarket/internal/shared"
)

// Employee is an actor that can act on orders, scoped by role.
type Employee struct {
	ID           uuid.UUID
	Role         shared.Role
	FullName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
