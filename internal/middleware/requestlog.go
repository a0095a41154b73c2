package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLog writes one line per request.  Query strings are left out
// because tracking lookups carry emails and tokens there.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := c.Response().Status
			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"route", c.Path(),
				"status", status,
				"bytes", c.Response().Size,
				"remote_ip", c.RealIP(),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if a, ok := AdminFrom(c); ok {
				attrs = append(attrs, "admin_id", a.ID)
			}
			log.Log(c.Request().Context(), levelForStatus(status), "http request", attrs...)
			return nil
		}
	}
}

func levelForStatus(code int) slog.Level {
	if code >= 500 {
		return slog.LevelError
	}
	if code >= 400 {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
