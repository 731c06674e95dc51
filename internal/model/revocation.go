package model

import (
	"context"
	"time"
)

// RevocationStore is the ledger of token ids invalidated before their natural expiry.
// Add is idempotent per TokenID. DeleteExpired removes every entry with ExpiresAt <= now
// in a single bulk operation and returns the number of removed entries.
type RevocationStore interface {
	Add(ctx context.Context, entry RevocationEntry) error
	Contains(ctx context.Context, tokenID string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Counts(ctx context.Context, now time.Time) (RevocationStats, error)
}

// RevocationEntry mirrors a revoked token. ExpiresAt always equals the token's exp claim.
type RevocationEntry struct {
	TokenID   string
	Subject   string
	ExpiresAt time.Time
}

// RevocationStats is a point-in-time view of the ledger.
type RevocationStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Expired int64 `json:"expired"`
}
