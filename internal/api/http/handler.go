package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/homestock-server/internal/logger"
	"github.com/dtroode/homestock-server/internal/model"
	"github.com/dtroode/homestock-server/internal/token"
)

type credentialsRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type changeUsernameRequest struct {
	NewUsername string `json:"new_username" binding:"required"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type changeUsernameResponse struct {
	userResponse
	tokenResponse
}

type messageResponse struct {
	Message string `json:"message"`
}

type handler struct {
	auth   AuthService
	cookie CookieOptions
	logger *logger.Logger
}

func newHandler(auth AuthService, cookie CookieOptions, logger *logger.Logger) *handler {
	return &handler{auth: auth, cookie: cookie, logger: logger}
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: username and password are required", model.ErrInvalidInput))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// login accepts an OAuth2 password form or a JSON body.
func (h *handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: username and password are required", model.ErrInvalidInput))
		return
	}

	tok, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, tok)
	c.JSON(http.StatusOK, toTokenResponse(tok))
}

func (h *handler) me(c *gin.Context) {
	identity, _ := identityFrom(c)

	user, err := h.auth.Me(c.Request.Context(), identity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// logout always succeeds and clears the cookie. Both the cookie and the
// header token are revoked when present.
func (h *handler) logout(c *gin.Context) {
	for _, raw := range rawTokens(c, h.cookie.Name) {
		h.auth.Logout(c.Request.Context(), raw)
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *handler) changePassword(c *gin.Context) {
	identity, _ := identityFrom(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: current_password and new_password are required", model.ErrInvalidInput))
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), identity, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully, please log in again"})
}

func (h *handler) changeUsername(c *gin.Context) {
	identity, _ := identityFrom(c)

	var req changeUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: new_username is required", model.ErrInvalidInput))
		return
	}

	user, tok, err := h.auth.ChangeUsername(c.Request.Context(), identity, req.NewUsername)
	if err != nil {
		writeError(c, err)
		return
	}

	h.setSessionCookie(c, tok)
	c.JSON(http.StatusOK, changeUsernameResponse{
		userResponse:  toUserResponse(user),
		tokenResponse: toTokenResponse(tok),
	})
}

func (h *handler) setSessionCookie(c *gin.Context, tok token.Token) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    tok.Raw,
		Path:     h.cookie.Path,
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: h.cookie.SameSite,
	})
}

func (h *handler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     h.cookie.Path,
		MaxAge:   -1,
		Secure:   h.cookie.Secure,
		HttpOnly: true,
		SameSite: h.cookie.SameSite,
	})
}

func toUserResponse(user model.User) userResponse {
	return userResponse{ID: user.ID.String(), Username: user.Username}
}

func toTokenResponse(tok token.Token) tokenResponse {
	return tokenResponse{AccessToken: tok.Raw, TokenType: "bearer"}
}
