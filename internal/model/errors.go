package model

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrDuplicateIdentity  = errors.New("username already exists")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrSamePassword       = errors.New("new password must differ from the current password")
	ErrSameUsername       = errors.New("new username must differ from the current username")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRegistrationClosed = errors.New("registration is disabled")
)
