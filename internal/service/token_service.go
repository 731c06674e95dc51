package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/token"
)

// TokenService issues, authenticates and revokes access tokens. Every
// verification failure leaves it as model.ErrUnauthenticated; the reason is
// only logged.
type TokenService struct {
	issuer   *token.Issuer
	verifier *token.Verifier
	ledger   model.RevocationStore
	now      func() time.Time
	logger   *logger.Logger
}

func NewTokenService(issuer *token.Issuer, verifier *token.Verifier, ledger model.RevocationStore, logger *logger.Logger) *TokenService {
	return &TokenService{
		issuer:   issuer,
		verifier: verifier,
		ledger:   ledger,
		now:      time.Now,
		logger:   logger,
	}
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration {
	return s.issuer.TTL()
}

func (s *TokenService) Issue(user model.User) (token.Token, error) {
	tok, err := s.issuer.Issue(user.Username, user.ID, 0)
	if err != nil {
		return token.Token{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return tok, nil
}

func (s *TokenService) Authenticate(ctx context.Context, raw string) (model.Identity, error) {
	if raw == "" {
		return model.Identity{}, model.ErrUnauthenticated
	}

	identity, err := s.verifier.Verify(ctx, raw, s.now())
	if err != nil {
		if kind := token.KindOf(err); kind != 0 {
			s.logger.Info("Token service: token rejected",
				"reason", kind.String())
		} else {
			s.logger.Error("Token service: failed to verify token",
				"error", err.Error())
		}
		return model.Identity{}, model.ErrUnauthenticated
	}

	return identity, nil
}

// Revoke adds the token to the ledger when its signature is valid and it
// has not expired yet. Undecodable tokens yield model.ErrInvalidInput.
func (s *TokenService) Revoke(ctx context.Context, raw string) error {
	claims, err := s.verifier.Inspect(raw)
	if err != nil {
		s.logger.Info("Token service: refusing to revoke token",
			"reason", token.KindOf(err).String())
		return fmt.Errorf("failed to decode token: %w", model.ErrInvalidInput)
	}

	if !s.now().Before(claims.Expiry()) {
		s.logger.Debug("Token service: token already expired",
			"jti", claims.ID)
		return nil
	}

	return s.add(ctx, model.RevocationEntry{
		TokenID:   claims.ID,
		Subject:   claims.Subject,
		ExpiresAt: claims.Expiry(),
	})
}

// RevokeIdentity revokes the token an identity was resolved from.
func (s *TokenService) RevokeIdentity(ctx context.Context, identity model.Identity) error {
	return s.add(ctx, model.RevocationEntry{
		TokenID:   identity.TokenID,
		Subject:   identity.Username,
		ExpiresAt: identity.Expiry,
	})
}

func (s *TokenService) add(ctx context.Context, entry model.RevocationEntry) error {
	if err := s.ledger.Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	s.logger.Info("Token service: token revoked",
		"jti", entry.TokenID,
		"subject", entry.Subject)

	return nil
}
