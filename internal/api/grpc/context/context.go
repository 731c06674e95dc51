package context

import (
	"context"

	"github.com/dtroode/homestock-server/internal/model"
)

type identityKey struct{}

// Manager stores the authenticated identity of a call in its context.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a child context carrying identity.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext returns the identity set by the authentication
// interceptor, if any.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	if !ok || identity.Username == "" {
		return model.Identity{}, false
	}
	return identity, true
}
