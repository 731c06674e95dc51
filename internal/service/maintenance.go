package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
)

// Maintenance exposes operator actions on the revocation ledger.
type Maintenance struct {
	ledger       model.RevocationStore
	tokenService *TokenService
	now          func() time.Time
	logger       *logger.Logger
}

func NewMaintenance(ledger model.RevocationStore, tokenService *TokenService, logger *logger.Logger) *Maintenance {
	return &Maintenance{
		ledger:       ledger,
		tokenService: tokenService,
		now:          time.Now,
		logger:       logger,
	}
}

// Cleanup removes every ledger entry whose expiry has passed.
func (m *Maintenance) Cleanup(ctx context.Context) (int64, error) {
	removed, err := m.ledger.DeleteExpired(ctx, m.now())
	if err != nil {
		m.logger.Error("Maintenance service: cleanup failed",
			"error", err.Error())
		return 0, fmt.Errorf("failed to clean up revocation ledger: %w", err)
	}

	m.logger.Info("Maintenance service: cleanup finished",
		"removed", removed)

	return removed, nil
}

func (m *Maintenance) Stats(ctx context.Context) (model.RevocationStats, error) {
	stats, err := m.ledger.Counts(ctx, m.now())
	if err != nil {
		return model.RevocationStats{}, fmt.Errorf("failed to get revocation stats: %w", err)
	}
	return stats, nil
}

// Revoke adds a token presented by an operator to the ledger.
func (m *Maintenance) Revoke(ctx context.Context, raw string) error {
	return m.tokenService.Revoke(ctx, raw)
}

// Run cleans the ledger every interval until ctx is done.
func (m *Maintenance) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("Maintenance service: cleanup scheduled",
		"interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Cleanup(ctx); err != nil {
				continue
			}
			if stats, err := m.Stats(ctx); err == nil {
				m.logger.Debug("Maintenance service: ledger stats",
					"total", stats.Total,
					"active", stats.Active,
					"expired", stats.Expired)
			}
		}
	}
}
