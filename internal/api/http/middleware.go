package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
)

const identityKey = "identity"

// rawTokens returns the session cookie and the "Authorization: Bearer"
// header value, in that order, skipping whichever is absent.
func rawTokens(c *gin.Context, cookieName string) []string {
	var tokens []string
	if v, err := c.Cookie(cookieName); err == nil && v != "" {
		tokens = append(tokens, v)
	}
	scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if ok && strings.EqualFold(scheme, "bearer") {
		if v := strings.TrimSpace(value); v != "" {
			tokens = append(tokens, v)
		}
	}
	return tokens
}

// authMiddleware accepts the first candidate token that authenticates, so a
// stale cookie does not mask a valid header.
func authMiddleware(tokens TokenAuthenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, raw := range rawTokens(c, cookieName) {
			identity, err := tokens.Authenticate(c.Request.Context(), raw)
			if err != nil {
				continue
			}
			c.Set(identityKey, identity)
			c.Next()
			return
		}
		abortUnauthenticated(c)
	}
}

func identityFrom(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok
}

// requestLogger never logs query strings, cookies or headers.
func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if identity, ok := identityFrom(c); ok {
			attrs = append(attrs, "user", identity.Username)
		}

		if c.Writer.Status() >= 500 {
			log.Error("HTTP request failed", attrs...)
			return
		}
		log.Info("HTTP request completed", attrs...)
	}
}
