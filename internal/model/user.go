package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for credentials.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	// UpdatePasswordHash and UpdateUsername address the row by its immutable id.
	// UpdateUsername also requires the row to still hold oldUsername. Both
	// return ErrNotFound when no row matches.
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateUsername(ctx context.Context, id uuid.UUID, oldUsername, newUsername string) (User, error)
	Count(ctx context.Context) (int64, error)
}

// User represents a stored credential. Username is the token subject.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the resolved principal of a verified token.
type Identity struct {
	UserID   uuid.UUID
	Username string
	TokenID  string
	Expiry   time.Time
}
