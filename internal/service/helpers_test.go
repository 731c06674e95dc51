package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dtroode/homestock-server/internal/keys"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/password"
	"github.com/dtroode/homestock-server/internal/repository/memory"
	"github.com/dtroode/homestock-server/internal/testutil"
	"github.com/dtroode/homestock-server/internal/token"
)

const (
	testIssuer   = "homestock-api"
	testAudience = "homestock-client"
)

type testEnv struct {
	clock  *testutil.Clock
	users  *memory.UserRepository
	ledger *memory.RevocationRepository
	hasher *password.Argon2
	keys   *keys.Manager
	tokens *TokenService
	auth   *Auth
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Params{Memory: 64, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	return h
}

func newTestTokenService(t *testing.T, km *keys.Manager, ledger model.RevocationStore, users token.SubjectResolver, clock *testutil.Clock) *TokenService {
	t.Helper()
	issuer := token.NewIssuer(km, token.Options{Issuer: testIssuer, Audience: testAudience, Now: clock.Now})
	verifier := token.NewVerifier(km, ledger, users, testIssuer, testAudience)
	svc := NewTokenService(issuer, verifier, ledger, testutil.MakeNoopLogger())
	svc.now = clock.Now
	return svc
}

func newTestEnv(t *testing.T, mode keys.Mode) *testEnv {
	t.Helper()
	km, err := keys.Generate(mode, nil)
	require.NoError(t, err)

	env := &testEnv{
		clock:  testutil.NewClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)),
		users:  memory.NewUserRepository(),
		ledger: memory.NewRevocationRepository(),
		hasher: newTestHasher(t),
		keys:   km,
	}
	env.tokens = newTestTokenService(t, km, env.ledger, env.users, env.clock)
	env.auth = NewAuth(env.users, env.hasher, env.tokens, true, testutil.MakeNoopLogger())
	return env
}

func (e *testEnv) register(t *testing.T, username, pw string) model.User {
	t.Helper()
	user, err := e.auth.Register(t.Context(), username, pw)
	require.NoError(t, err)
	return user
}

func (e *testEnv) login(t *testing.T, username, pw string) token.Token {
	t.Helper()
	tok, err := e.auth.Login(t.Context(), username, pw)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) identity(t *testing.T, tok token.Token) model.Identity {
	t.Helper()
	id, err := e.tokens.Authenticate(t.Context(), tok.Raw)
	require.NoError(t, err)
	return id
}
