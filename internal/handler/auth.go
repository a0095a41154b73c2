package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/middleware"
	"github.com/iliyamo/storefront-api/internal/service"
)

// Authenticator is the part of service.Authenticator the handlers use.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (service.SessionResult, error)
	Logout(ctx context.Context, token string) error
}

// AuthHandler serves admin login, logout and /me.
type AuthHandler struct {
	Auth Authenticator
	Log  *slog.Logger
}

func NewAuthHandler(a Authenticator, log *slog.Logger) *AuthHandler {
	return &AuthHandler{Auth: a, Log: log}
}

type loginReq struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=256"`
}

// Login: verify credentials and open a session.  Unknown user, inactive
// admin and wrong password all answer the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bindStrict(c, &req); err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Auth.Authenticate(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrAdminNotFound),
		errors.Is(err, service.ErrAdminInactive),
		errors.Is(err, service.ErrBadCredential):
		h.Log.Warn("admin login rejected", "username", req.Username, "reason", err.Error(), "remote_ip", c.RealIP())
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case err != nil:
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Logout revokes the session of the presented bearer token.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Auth.Logout(ctx, middleware.BearerToken(c)); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated admin.
func (h *AuthHandler) Me(c echo.Context) error {
	a, ok := middleware.AdminFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	return c.JSON(http.StatusOK, echo.Map{"admin": a})
}

