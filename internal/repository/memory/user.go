// Package memory provides process-local stores for development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/homestock-server/internal/model"
)

var _ model.UserStore = (*UserRepository)(nil)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
	names map[string]uuid.UUID
	now   func() time.Time
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[uuid.UUID]model.User),
		names: make(map[string]uuid.UUID),
		now:   time.Now,
	}
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.names[username]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return r.users[id], nil
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.names[user.Username]; ok {
		return model.User{}, model.ErrDuplicateIdentity
	}
	if _, ok := r.users[user.ID]; ok {
		return model.User{}, model.ErrDuplicateIdentity
	}
	r.users[user.ID] = user
	r.names[user.Username] = user.ID
	return user, nil
}

func (r *UserRepository) UpdatePasswordHash(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return model.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.UpdatedAt = r.now()
	r.users[id] = user
	return nil
}

func (r *UserRepository) UpdateUsername(_ context.Context, id uuid.UUID, oldUsername, newUsername string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.Username != oldUsername {
		return model.User{}, model.ErrNotFound
	}
	if _, taken := r.names[newUsername]; taken {
		return model.User{}, model.ErrDuplicateIdentity
	}

	delete(r.names, oldUsername)
	user.Username = newUsername
	user.UpdatedAt = r.now()
	r.users[id] = user
	r.names[newUsername] = id
	return user, nil
}

func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}
