package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/model"
)

// adminKey is where SessionAuth stores the resolved admin.
const adminKey = "admin"

// AdminFrom returns the admin SessionAuth attached to the request.
func AdminFrom(c echo.Context) (model.AdminIdentity, bool) {
	a, ok := c.Get(adminKey).(model.AdminIdentity)
	return a, ok
}

// actorID identifies the caller for rate-limit keys: the admin id when
// authenticated, otherwise "anon".
func actorID(c echo.Context) string {
	if a, ok := AdminFrom(c); ok && a.ID != "" {
		return a.ID
	}
	return "anon"
}
