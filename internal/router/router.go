// Package router wires handlers and middleware onto echo routes.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/storefront-api/internal/handler"
)

// Deps is everything route registration needs.  Nil middlewares are
// treated as pass-throughs.
type Deps struct {
	DB handler.Pinger

	Auth     *handler.AuthHandler
	Catalog  *handler.CatalogHandler
	Orders   *handler.OrderHandler
	Promos   *handler.PromoHandler
	Payments *handler.PaymentHandler

	RateLimit      echo.MiddlewareFunc // public writes
	LoginRateLimit echo.MiddlewareFunc // admin login only
	CatalogCache   echo.MiddlewareFunc // public catalog reads
}

func orPass(m echo.MiddlewareFunc) echo.MiddlewareFunc {
	if m == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return m
}

// RegisterRoutes registers every route of the API.  adminAuth guards the
// back-office routes; production passes middleware.SessionAuth.
func RegisterRoutes(e *echo.Echo, d Deps, adminAuth echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health(d.DB))
	RegisterPublic(e, d)
	RegisterAdmin(e, d, adminAuth)
	RegisterPayments(e, d)
}

// RegisterPublic registers the storefront routes that need no session.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := orPass(d.CatalogCache)
	limit := orPass(d.RateLimit)

	g := e.Group("/api")
	g.GET("/products", d.Catalog.ListProducts, cache)
	g.GET("/products/:id", d.Catalog.GetProduct, cache)
	g.GET("/sellers", d.Catalog.ListSellers, cache)

	g.POST("/orders", d.Orders.Create, limit)
	g.GET("/track-order", d.Orders.Track, limit)
	g.GET("/promo-codes/:code", d.Promos.Validate, limit)

	g.POST("/admin/login", d.Auth.Login, orPass(d.LoginRateLimit))
}
