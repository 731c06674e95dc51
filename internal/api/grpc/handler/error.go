package handler

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/homestock-server/internal/model"
)

func handleError(err error) error {
	switch {
	case errors.Is(err, model.ErrUnauthenticated), errors.Is(err, model.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, model.ErrUnauthenticated.Error())
	case errors.Is(err, model.ErrDuplicateIdentity):
		return status.Error(codes.AlreadyExists, model.ErrDuplicateIdentity.Error())
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrSamePassword),
		errors.Is(err, model.ErrSameUsername):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, model.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}
