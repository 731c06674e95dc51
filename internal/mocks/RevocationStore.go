package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/homestock-server/internal/model"
)

// RevocationStore is a testify mock of model.RevocationStore.
type RevocationStore struct {
	mock.Mock
}

var _ model.RevocationStore = (*RevocationStore)(nil)

func (m *RevocationStore) Add(ctx context.Context, entry model.RevocationEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *RevocationStore) Contains(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *RevocationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RevocationStore) Counts(ctx context.Context, now time.Time) (model.RevocationStats, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(model.RevocationStats), args.Error(1)
}
