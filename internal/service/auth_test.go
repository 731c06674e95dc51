package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/homestock-server/internal/keys"
	"github.com/dtroode/homestock-server/internal/mocks"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/testutil"
)

func TestAuth_Register(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)

	user := env.register(t, "alice", "correct horse")
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.True(t, strings.HasPrefix(user.PasswordHash, "$argon2id$"))
	assert.NotContains(t, user.PasswordHash, "correct horse")
}

func TestAuth_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	first := env.register(t, "alice", "first-password")

	_, err := env.auth.Register(ctx, "alice", "second-password")
	require.ErrorIs(t, err, model.ErrDuplicateIdentity)

	stored, err := env.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)

	env.login(t, "alice", "first-password")
	_, err = env.auth.Login(ctx, "alice", "second-password")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Register_Validation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "short username", username: "al", password: "password1"},
		{name: "long username", username: strings.Repeat("a", 51), password: "password1"},
		{name: "bad characters", username: "al ice", password: "password1"},
		{name: "short password", username: "alice", password: "1234567"},
		{name: "long password", username: "alice", password: strings.Repeat("p", 101)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.username, tt.password)
			assert.ErrorIs(t, err, model.ErrInvalidInput)
		})
	}

	n, err := env.users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAuth_Register_Closed(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)
	closed := NewAuth(env.users, env.hasher, env.tokens, false, testutil.MakeNoopLogger())

	_, err := closed.Register(context.Background(), "alice", "password1")
	assert.ErrorIs(t, err, model.ErrRegistrationClosed)
}

func TestAuth_Register_StoreError(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)
	store := &mocks.UserStore{}
	store.On("Create", mock.Anything, mock.Anything).Return(model.User{}, assert.AnError).Once()

	a := NewAuth(store, env.hasher, env.tokens, true, testutil.MakeNoopLogger())
	_, err := a.Register(context.Background(), "alice", "password1")
	require.ErrorIs(t, err, assert.AnError)
	store.AssertExpectations(t)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	user := env.register(t, "alice", "password1")

	tok := env.login(t, "alice", "password1")
	assert.Equal(t, "alice", tok.Claims.Subject)
	assert.Equal(t, user.ID.String(), tok.Claims.UserID)

	_, err := env.auth.Login(ctx, "alice", "password2")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_StoreError(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)
	store := &mocks.UserStore{}
	store.On("GetByUsername", mock.Anything, "alice").Return(model.User{}, assert.AnError).Once()

	a := NewAuth(store, env.hasher, env.tokens, true, testutil.MakeNoopLogger())
	_, err := a.Login(context.Background(), "alice", "password1")
	require.ErrorIs(t, err, assert.AnError)
	assert.NotErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Login_CorruptHash(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	_, err := env.users.Create(ctx, model.User{ID: uuid.New(), Username: "alice", PasswordHash: "plaintext"})
	require.NoError(t, err)

	_, err = env.auth.Login(ctx, "alice", "plaintext")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}

func TestAuth_Logout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	env.register(t, "alice", "password1")
	tok := env.login(t, "alice", "password1")
	env.identity(t, tok)

	env.auth.Logout(ctx, tok.Raw)

	_, err := env.tokens.Authenticate(ctx, tok.Raw)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	found, err := env.ledger.Contains(ctx, tok.Claims.ID)
	require.NoError(t, err)
	assert.True(t, found)

	env.auth.Logout(ctx, tok.Raw)
	stats, err := env.ledger.Counts(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total, "logout is idempotent")
}

func TestAuth_Logout_BestEffort(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	env.register(t, "alice", "password1")
	tok := env.login(t, "alice", "password1")

	env.auth.Logout(ctx, "")
	env.auth.Logout(ctx, "not-a-token")
	env.auth.Logout(ctx, tok.Raw[:len(tok.Raw)-4]+"AAAA")

	env.clock.Advance(31 * time.Minute)
	env.auth.Logout(ctx, tok.Raw)

	stats, err := env.ledger.Counts(ctx, env.clock.Now())
	require.NoError(t, err)
	assert.Zero(t, stats.Total, "nothing undecodable or expired is recorded")
}

func TestAuth_Logout_LedgerFailure(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)
	env.register(t, "alice", "password1")
	tok := env.login(t, "alice", "password1")

	ledger := &mocks.RevocationStore{}
	ledger.On("Add", mock.Anything, mock.Anything).Return(assert.AnError).Once()
	tokens := newTestTokenService(t, env.keys, ledger, env.users, env.clock)
	a := NewAuth(env.users, env.hasher, tokens, true, testutil.MakeNoopLogger())

	assert.NotPanics(t, func() { a.Logout(context.Background(), tok.Raw) })
	ledger.AssertExpectations(t)
}

func TestAuth_ChangePassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	env.register(t, "alice", "password1")
	tok := env.login(t, "alice", "password1")
	other := env.login(t, "alice", "password1")
	id := env.identity(t, tok)

	require.NoError(t, env.auth.ChangePassword(ctx, id, "password1", "password2"))

	_, err := env.auth.Login(ctx, "alice", "password1")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
	env.login(t, "alice", "password2")

	_, err = env.tokens.Authenticate(ctx, tok.Raw)
	assert.ErrorIs(t, err, model.ErrUnauthenticated, "presented token is revoked")

	_, err = env.tokens.Authenticate(ctx, other.Raw)
	assert.NoError(t, err, "other sessions run until expiry")
}

func TestAuth_ChangePassword_Rejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	env.register(t, "alice", "password1")
	tok := env.login(t, "alice", "password1")
	id := env.identity(t, tok)

	before, err := env.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, id, "password1", "password1")
	assert.ErrorIs(t, err, model.ErrSamePassword)

	err = env.auth.ChangePassword(ctx, id, "wrong-password", "password2")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	err = env.auth.ChangePassword(ctx, id, "password1", "short")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	after, err := env.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)

	_, err = env.tokens.Authenticate(ctx, tok.Raw)
	assert.NoError(t, err)
}

func TestAuth_ChangePassword_UpdateFailure(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)
	user := env.register(t, "alice", "password1")
	tok := env.login(t, "alice", "password1")
	id := env.identity(t, tok)

	store := &mocks.UserStore{}
	store.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()
	store.On("UpdatePasswordHash", mock.Anything, user.ID, mock.Anything).Return(assert.AnError).Once()

	a := NewAuth(store, env.hasher, env.tokens, true, testutil.MakeNoopLogger())
	err := a.ChangePassword(context.Background(), id, "password1", "password2")
	require.ErrorIs(t, err, assert.AnError)

	_, err = env.tokens.Authenticate(context.Background(), tok.Raw)
	assert.NoError(t, err, "token is not revoked when the update fails")
	store.AssertExpectations(t)
}

// hookHasher runs onHash once, before the first Hash call.
type hookHasher struct {
	model.PasswordHasher
	onHash func()
}

func (h *hookHasher) Hash(password string) (string, error) {
	if h.onHash != nil {
		f := h.onHash
		h.onHash = nil
		f()
	}
	return h.PasswordHasher.Hash(password)
}

func TestAuth_ChangePassword_AccountRenamedMidChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	alice := env.register(t, "alice", "password1")
	id := env.identity(t, env.login(t, "alice", "password1"))

	hasher := &hookHasher{PasswordHasher: env.hasher}
	hasher.onHash = func() {
		_, err := env.users.UpdateUsername(ctx, alice.ID, "alice", "alice2")
		require.NoError(t, err)
		env.register(t, "alice", "mallory-pass")
	}
	a := NewAuth(env.users, hasher, env.tokens, true, testutil.MakeNoopLogger())

	require.NoError(t, a.ChangePassword(ctx, id, "password1", "password2"))

	_, err := env.auth.Login(ctx, "alice", "mallory-pass")
	assert.NoError(t, err, "the new holder of the name keeps its own password")
	_, err = env.auth.Login(ctx, "alice", "password2")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	renamed, err := env.users.GetByUsername(ctx, "alice2")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, renamed.ID)
	env.login(t, "alice2", "password2")
}

func TestAuth_ChangePassword_AccountGone(t *testing.T) {
	env := newTestEnv(t, keys.ModeEd25519)
	user := env.register(t, "alice", "password1")
	id := env.identity(t, env.login(t, "alice", "password1"))

	store := &mocks.UserStore{}
	store.On("GetByUsername", mock.Anything, "alice").Return(user, nil).Once()
	store.On("UpdatePasswordHash", mock.Anything, user.ID, mock.Anything).Return(model.ErrNotFound).Once()

	a := NewAuth(store, env.hasher, env.tokens, true, testutil.MakeNoopLogger())
	err := a.ChangePassword(context.Background(), id, "password1", "password2")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	store.AssertExpectations(t)
}

func TestAuth_ChangeUsername_StaleIdentity(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	alice := env.register(t, "alice", "password1")
	id := env.identity(t, env.login(t, "alice", "password1"))

	_, err := env.users.UpdateUsername(ctx, alice.ID, "alice", "alice2")
	require.NoError(t, err)
	other := env.register(t, "alice", "mallory-pass")

	_, _, err = env.auth.ChangeUsername(ctx, id, "carol")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	got, err := env.users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
	_, err = env.users.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAuth_ChangeUsername(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	alice := env.register(t, "alice", "password1")
	env.register(t, "bob", "password1")
	tok := env.login(t, "alice", "password1")
	id := env.identity(t, tok)

	_, _, err := env.auth.ChangeUsername(ctx, id, "alice")
	assert.ErrorIs(t, err, model.ErrSameUsername)

	_, _, err = env.auth.ChangeUsername(ctx, id, "bob")
	assert.ErrorIs(t, err, model.ErrDuplicateIdentity)

	_, _, err = env.auth.ChangeUsername(ctx, id, "x")
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	user, fresh, err := env.auth.ChangeUsername(ctx, id, "alicia")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, user.ID)
	assert.Equal(t, "alicia", fresh.Claims.Subject)

	newID := env.identity(t, fresh)
	assert.Equal(t, alice.ID, newID.UserID)

	_, err = env.tokens.Authenticate(ctx, tok.Raw)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	// Another account taking the old name must not inherit old tokens.
	env.register(t, "alice", "password9")
	_, err = env.tokens.Authenticate(ctx, tok.Raw)
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}

func TestAuth_Me(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, keys.ModeEd25519)
	alice := env.register(t, "alice", "password1")
	id := env.identity(t, env.login(t, "alice", "password1"))

	me, err := env.auth.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, me.ID)

	_, err = env.auth.Me(ctx, model.Identity{UserID: uuid.New(), Username: "alice"})
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
}
