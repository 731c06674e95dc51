package middleware

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
)

// TokenService resolves the identity behind a bearer token.
type TokenService interface {
	Authenticate(ctx context.Context, raw string) (model.Identity, error)
}

// Authenticate validates bearer tokens and injects the identity into context.
type Authenticate struct {
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewAuthenticate(tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{tokenService: tokenService, contextManager: contextManager, logger: logger}
}

// AuthFunc reads "authorization: Bearer <token>" metadata. Every failure is
// the same Unauthenticated status.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	raw, err := auth.AuthFromMD(ctx, "bearer")
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, model.ErrUnauthenticated.Error())
	}

	identity, err := m.tokenService.Authenticate(ctx, raw)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, model.ErrUnauthenticated.Error())
	}

	return m.contextManager.SetIdentityToContext(ctx, identity), nil
}
