package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/homestock-server/internal/model"
)

var _ model.RevocationStore = (*RevocationRepository)(nil)

// RevocationRepository keeps the ledger in the jwt_blacklist table.
type RevocationRepository struct {
	db *Connection
}

func NewRevocationRepository(db *Connection) *RevocationRepository {
	return &RevocationRepository{db: db}
}

func (r *RevocationRepository) Add(ctx context.Context, entry model.RevocationEntry) error {
	const query = `
        INSERT INTO jwt_blacklist (jti, subject, expires_at, created_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (jti) DO NOTHING
    `
	if _, err := r.db.Exec(ctx, query, entry.TokenID, entry.Subject, entry.ExpiresAt.UTC()); err != nil {
		return fmt.Errorf("failed to add revocation entry: %w", err)
	}
	return nil
}

func (r *RevocationRepository) Contains(ctx context.Context, tokenID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM jwt_blacklist WHERE jti = $1)`

	var found bool
	if err := r.db.QueryRow(ctx, query, tokenID).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check revocation entry: %w", err)
	}
	return found, nil
}

func (r *RevocationRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM jwt_blacklist WHERE expires_at <= $1`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revocation entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *RevocationRepository) Counts(ctx context.Context, now time.Time) (model.RevocationStats, error) {
	const query = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE expires_at > $1),
               COUNT(*) FILTER (WHERE expires_at <= $1)
        FROM jwt_blacklist
    `
	var stats model.RevocationStats
	if err := r.db.QueryRow(ctx, query, now.UTC()).Scan(&stats.Total, &stats.Active, &stats.Expired); err != nil {
		return model.RevocationStats{}, fmt.Errorf("failed to count revocation entries: %w", err)
	}
	return stats, nil
}
