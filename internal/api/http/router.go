package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/token"
)

// AuthService is the account lifecycle consumed by the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, username, password string) (model.User, error)
	Login(ctx context.Context, username, password string) (token.Token, error)
	Logout(ctx context.Context, raw string)
	ChangePassword(ctx context.Context, identity model.Identity, current, next string) error
	ChangeUsername(ctx context.Context, identity model.Identity, newUsername string) (model.User, token.Token, error)
	Me(ctx context.Context, identity model.Identity) (model.User, error)
}

// TokenAuthenticator resolves a raw token to an identity. Every failure is
// model.ErrUnauthenticated.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, raw string) (model.Identity, error)
}

// CookieOptions shape the session cookie. MaxAge matches the token TTL.
type CookieOptions struct {
	Name     string
	Path     string
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// Router wires the public authentication API.
type Router struct {
	auth   AuthService
	tokens TokenAuthenticator
	cookie CookieOptions
	logger *logger.Logger
}

func NewRouter(auth AuthService, tokens TokenAuthenticator, cookie CookieOptions, logger *logger.Logger) *Router {
	return &Router{
		auth:   auth,
		tokens: tokens,
		cookie: cookie,
		logger: logger,
	}
}

// Register builds the gin engine with every route under /api.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(r.logger))

	h := newHandler(r.auth, r.cookie, r.logger)
	requireAuth := authMiddleware(r.tokens, r.cookie.Name)

	api := engine.Group("/api")
	api.GET("/healthz", h.healthz)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/token", h.login)
		auth.POST("/logout", h.logout)
		auth.GET("/me", requireAuth, h.me)
		auth.POST("/change-password", requireAuth, h.changePassword)
		auth.POST("/change-username", requireAuth, h.changeUsername)
	}

	return engine
}
