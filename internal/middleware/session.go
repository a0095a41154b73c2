package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/model"
	"github.com/iliyamo/storefront-api/internal/service"
)

// SessionResolver is satisfied by *service.Authenticator.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (model.AdminIdentity, error)
}

// BearerToken extracts the token of an "Authorization: Bearer" header.
// It returns "" when the header is missing or malformed.
func BearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	tok = strings.TrimSpace(tok)
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return ""
	}
	return tok
}

// SessionAuth rejects requests without a live admin session.  The token is
// resolved against the store on every request, so logout and deactivation
// take effect immediately.
func SessionAuth(sessions SessionResolver, log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := BearerToken(c)
			if tok == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			admin, err := sessions.ResolveSession(c.Request().Context(), tok)
			if errors.Is(err, service.ErrUnauthenticated) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired session"})
			}
			if err != nil {
				log.Error("session lookup failed", "err", err)
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			c.Set(adminKey, admin)
			return next(c)
		}
	}
}
