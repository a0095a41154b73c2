package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/repository"
	"github.com/iliyamo/storefront-api/internal/service"
)

// httpError is an error already mapped to a client response.
type httpError struct {
	status int
	msg    string
	fields map[string]string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(msg string) *httpError {
	return &httpError{status: http.StatusBadRequest, msg: msg}
}

func notFound(msg string) *httpError {
	return &httpError{status: http.StatusNotFound, msg: msg}
}

// respondError writes the JSON body for err.  Anything not recognized is a
// 500 whose cause is logged and not shown to the client.
func respondError(c echo.Context, log *slog.Logger, err error) error {
	var he *httpError
	var verr *service.ValidationError
	switch {
	case errors.As(err, &he):
		return writeError(c, he.status, he.msg, he.fields)
	case errors.As(err, &verr):
		return writeError(c, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, service.ErrPromoNotFound):
		return writeError(c, http.StatusNotFound, err.Error(), nil)
	case service.IsPromoRejection(err):
		return writeError(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrOrderNotFound):
		return writeError(c, http.StatusNotFound, "order not found", nil)
	case errors.Is(err, repository.ErrNotFound):
		return writeError(c, http.StatusNotFound, "not found", nil)
	case errors.Is(err, service.ErrInvalidTransition):
		return writeError(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrPromoCodeExists):
		return writeError(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicate):
		return writeError(c, http.StatusConflict, "already exists", nil)
	case errors.Is(err, service.ErrUnauthenticated):
		return writeError(c, http.StatusUnauthorized, "unauthenticated", nil)
	}
	log.Error("request failed", "method", c.Request().Method, "route", c.Path(), "err", err)
	return writeError(c, http.StatusInternalServerError, "internal error", nil)
}

func writeError(c echo.Context, status int, msg string, fields map[string]string) error {
	body := echo.Map{"error": msg}
	if len(fields) > 0 {
		body["fields"] = fields
	}
	return c.JSON(status, body)
}
