package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
)

const (
	generatedPasswordLength = 20

	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()_-=+"
)

// Bootstrap creates the initial account of an empty deployment.
type Bootstrap struct {
	userStore model.UserStore
	hasher    model.PasswordHasher
	username  string
	random    io.Reader
	logger    *logger.Logger
}

func NewBootstrap(userStore model.UserStore, hasher model.PasswordHasher, username string, logger *logger.Logger) *Bootstrap {
	return &Bootstrap{
		userStore: userStore,
		hasher:    hasher,
		username:  username,
		random:    rand.Reader,
		logger:    logger,
	}
}

// EnsureDefaultUser creates the default user with a random password when
// no users exist. The password is logged once at Warn level.
func (b *Bootstrap) EnsureDefaultUser(ctx context.Context) (bool, error) {
	count, err := b.userStore.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		b.logger.Info("Bootstrap: users already exist, skipping default user creation")
		return false, nil
	}

	password, err := generatePassword(b.random, generatedPasswordLength)
	if err != nil {
		return false, fmt.Errorf("failed to generate password: %w", err)
	}
	hash, err := b.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	_, err = b.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     b.username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrDuplicateIdentity) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create default user: %w", err)
	}

	b.logger.Warn("Bootstrap: no users found, created default user; save this password, it will not be shown again",
		"username", b.username,
		"password", password)

	return true, nil
}

// generatePassword returns a password with at least one character of each class.
func generatePassword(random io.Reader, length int) (string, error) {
	classes := []string{lowerChars, upperChars, digitChars, symbolChars}
	if length < len(classes) {
		return "", fmt.Errorf("password length %d is too short", length)
	}
	alphabet := lowerChars + upperChars + digitChars + symbolChars

	out := make([]byte, 0, length)
	for _, class := range classes {
		c, err := pick(random, class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < length {
		c, err := pick(random, alphabet)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}

	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(random, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}

	return string(out), nil
}

func pick(random io.Reader, set string) (byte, error) {
	n, err := rand.Int(random, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
