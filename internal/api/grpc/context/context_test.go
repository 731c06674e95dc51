package context

import (
	stdctx "context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/homestock-server/internal/model"
)

func TestManager_SetAndGetIdentity(t *testing.T) {
	m := NewManager()
	identity := newIdentity()
	ctx := m.SetIdentityToContext(stdctx.Background(), identity)

	got, ok := m.GetIdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, identity, got)
}

func TestManager_GetIdentity_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetIdentityFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_IgnoresClientMetadata(t *testing.T) {
	m := NewManager()
	md := metadata.New(map[string]string{"user_id": uuid.NewString(), "username": "admin"})
	ctx := metadata.NewIncomingContext(stdctx.Background(), md)

	_, ok := m.GetIdentityFromContext(ctx)
	assert.False(t, ok)
}

func newIdentity() model.Identity {
	return model.Identity{
		UserID:   uuid.New(),
		Username: "alice",
		TokenID:  uuid.NewString(),
		Expiry:   time.Now().Add(time.Hour).Truncate(time.Second),
	}
}
