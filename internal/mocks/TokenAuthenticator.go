package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/homestock-server/internal/model"
)

// TokenAuthenticator is a testify mock of the transport-facing token check.
type TokenAuthenticator struct {
	mock.Mock
}

func (m *TokenAuthenticator) Authenticate(ctx context.Context, raw string) (model.Identity, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(model.Identity), args.Error(1)
}

// NewTokenAuthenticator creates a mock that asserts its expectations on cleanup.
func NewTokenAuthenticator(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenAuthenticator {
	m := &TokenAuthenticator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
