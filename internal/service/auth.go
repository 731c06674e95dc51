package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/token"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 100
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,50}$`)

// Auth implements the account lifecycle: registration, login, logout and
// credential changes.
type Auth struct {
	userStore           model.UserStore
	hasher              model.PasswordHasher
	tokenService        *TokenService
	registrationEnabled bool
	logger              *logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuth(
	userStore model.UserStore,
	hasher model.PasswordHasher,
	tokenService *TokenService,
	registrationEnabled bool,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		userStore:           userStore,
		hasher:              hasher,
		tokenService:        tokenService,
		registrationEnabled: registrationEnabled,
		logger:              logger,
	}
}

func (a *Auth) Register(ctx context.Context, username, password string) (model.User, error) {
	a.logger.Debug("Auth service: starting user registration",
		"username", username)

	if !a.registrationEnabled {
		return model.User{}, model.ErrRegistrationClosed
	}
	if err := validateUsername(username); err != nil {
		return model.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return model.User{}, err
	}

	hash, err := a.hasher.Hash(password)
	if err != nil {
		a.logger.Error("Auth service: failed to hash password",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrDuplicateIdentity) {
		a.logger.Info("Auth service: username already exists",
			"username", username)
		return model.User{}, model.ErrDuplicateIdentity
	}
	if err != nil {
		a.logger.Error("Auth service: failed to create user",
			"username", username,
			"error", err.Error())
		return model.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Auth service: user registration completed successfully",
		"username", username,
		"user_id", user.ID)

	return user, nil
}

// Login returns a fresh token. Unknown usernames and wrong passwords both
// yield model.ErrInvalidCredentials after the same hashing work.
func (a *Auth) Login(ctx context.Context, username, password string) (token.Token, error) {
	a.logger.Debug("Auth service: starting user login",
		"username", username)

	user, err := a.userStore.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		a.burnVerify(password)
		a.logger.Info("Auth service: login failed",
			"username", username)
		return token.Token{}, model.ErrInvalidCredentials
	}
	if err != nil {
		a.logger.Error("Auth service: failed to get user by username",
			"username", username,
			"error", err.Error())
		return token.Token{}, fmt.Errorf("failed to get user by username: %w", err)
	}

	ok, err := a.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		a.logger.Error("Auth service: stored password hash is unreadable",
			"username", username,
			"error", err.Error())
		return token.Token{}, model.ErrInvalidCredentials
	}
	if !ok {
		a.logger.Info("Auth service: login failed",
			"username", username)
		return token.Token{}, model.ErrInvalidCredentials
	}

	tok, err := a.tokenService.Issue(user)
	if err != nil {
		a.logger.Error("Auth service: failed to issue token",
			"username", username,
			"error", err.Error())
		return token.Token{}, err
	}

	a.logger.Info("Auth service: user logged in successfully",
		"username", username,
		"jti", tok.Claims.ID)

	return tok, nil
}

// Logout revokes raw when possible. It never fails: the caller clears the
// client session regardless.
func (a *Auth) Logout(ctx context.Context, raw string) {
	if raw == "" {
		return
	}
	if err := a.tokenService.Revoke(ctx, raw); err != nil {
		a.logger.Warn("Auth service: logout did not revoke token",
			"error", err.Error())
	}
}

// ChangePassword replaces the password of the authenticated user and
// revokes the token the request was made with. Other tokens of the user
// remain valid until they expire.
func (a *Auth) ChangePassword(ctx context.Context, identity model.Identity, current, next string) error {
	a.logger.Debug("Auth service: starting password change",
		"username", identity.Username)

	if err := validatePassword(next); err != nil {
		return err
	}

	user, err := a.currentUser(ctx, identity)
	if err != nil {
		return err
	}

	ok, err := a.hasher.Verify(current, user.PasswordHash)
	if err != nil || !ok {
		a.logger.Info("Auth service: password change rejected",
			"username", identity.Username)
		return model.ErrInvalidCredentials
	}
	if current == next {
		return model.ErrSamePassword
	}

	hash, err := a.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	err = a.userStore.UpdatePasswordHash(ctx, user.ID, hash)
	if errors.Is(err, model.ErrNotFound) {
		return model.ErrUnauthenticated
	}
	if err != nil {
		a.logger.Error("Auth service: failed to update password",
			"username", identity.Username,
			"error", err.Error())
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := a.tokenService.RevokeIdentity(ctx, identity); err != nil {
		a.logger.Warn("Auth service: failed to revoke token after password change",
			"username", identity.Username,
			"error", err.Error())
	}

	a.logger.Info("Auth service: password changed successfully",
		"username", identity.Username)

	return nil
}

// ChangeUsername renames the authenticated user and returns a token for
// the new name. Tokens naming the old username no longer resolve.
func (a *Auth) ChangeUsername(ctx context.Context, identity model.Identity, newUsername string) (model.User, token.Token, error) {
	a.logger.Debug("Auth service: starting username change",
		"username", identity.Username,
		"new_username", newUsername)

	if err := validateUsername(newUsername); err != nil {
		return model.User{}, token.Token{}, err
	}
	if newUsername == identity.Username {
		return model.User{}, token.Token{}, model.ErrSameUsername
	}

	user, err := a.userStore.UpdateUsername(ctx, identity.UserID, identity.Username, newUsername)
	switch {
	case errors.Is(err, model.ErrDuplicateIdentity):
		return model.User{}, token.Token{}, model.ErrDuplicateIdentity
	case errors.Is(err, model.ErrNotFound):
		return model.User{}, token.Token{}, model.ErrUnauthenticated
	case err != nil:
		a.logger.Error("Auth service: failed to update username",
			"username", identity.Username,
			"error", err.Error())
		return model.User{}, token.Token{}, fmt.Errorf("failed to update username: %w", err)
	}

	tok, err := a.tokenService.Issue(user)
	if err != nil {
		return model.User{}, token.Token{}, err
	}

	a.logger.Info("Auth service: username changed successfully",
		"old_username", identity.Username,
		"username", user.Username)

	return user, tok, nil
}

func (a *Auth) Me(ctx context.Context, identity model.Identity) (model.User, error) {
	return a.currentUser(ctx, identity)
}

func (a *Auth) currentUser(ctx context.Context, identity model.Identity) (model.User, error) {
	user, err := a.userStore.GetByUsername(ctx, identity.Username)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user by username: %w", err)
	}
	if user.ID != identity.UserID {
		return model.User{}, model.ErrUnauthenticated
	}
	return user, nil
}

// burnVerify spends the cost of one password verification.
func (a *Auth) burnVerify(password string) {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("homestock-login-placeholder")
		if err != nil {
			a.logger.Error("Auth service: failed to prepare placeholder hash",
				"error", err.Error())
			return
		}
		a.dummyHash = hash
	})
	if a.dummyHash != "" {
		_, _ = a.hasher.Verify(password, a.dummyHash)
	}
}

func validateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-50 characters of letters, digits, '_' or '-'", model.ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return fmt.Errorf("%w: password must be %d-%d bytes", model.ErrInvalidInput, minPasswordLength, maxPasswordLength)
	}
	return nil
}
