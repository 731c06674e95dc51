package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/homestock-server/internal/model"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func abortUnauthenticated(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Detail: model.ErrUnauthenticated.Error()})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnauthenticated):
		abortUnauthenticated(c)
	case errors.Is(err, model.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Detail: model.ErrInvalidCredentials.Error()})
	case errors.Is(err, model.ErrDuplicateIdentity):
		c.AbortWithStatusJSON(http.StatusConflict, errorResponse{Detail: model.ErrDuplicateIdentity.Error()})
	case errors.Is(err, model.ErrRegistrationClosed):
		c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Detail: model.ErrRegistrationClosed.Error()})
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrSamePassword),
		errors.Is(err, model.ErrSameUsername):
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}
