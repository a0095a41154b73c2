package router

import (
	"github.com/labstack/echo/v4"
)

// RegisterAdmin registers back-office endpoints.  Every route, including
// the order routes outside /api/admin, sits behind adminAuth.
func RegisterAdmin(e *echo.Echo, d Deps, adminAuth echo.MiddlewareFunc) {
	g := e.Group("/api/admin", adminAuth)

	g.POST("/logout", d.Auth.Logout)
	g.GET("/me", d.Auth.Me)

	// ---- Catalog ----
	g.GET("/sellers", d.Catalog.ListAllSellers)
	g.POST("/sellers", d.Catalog.CreateSeller)
	g.PATCH("/sellers/:id", d.Catalog.UpdateSeller)
	g.POST("/products", d.Catalog.CreateProduct)
	g.PATCH("/products/:id", d.Catalog.UpdateProduct)

	// ---- Orders ----
	g.GET("/orders", d.Orders.List)
	g.GET("/orders/:id", d.Orders.Get)
	g.PATCH("/orders/:id", d.Orders.Update)
	g.GET("/stats", d.Orders.Stats)

	orders := e.Group("/api/orders", adminAuth)
	orders.GET("/:id", d.Orders.Get)
	orders.PATCH("/:id", d.Orders.Update)

	// ---- Promo codes ----
	g.GET("/promo-codes", d.Promos.List)
	g.POST("/promo-codes", d.Promos.Create)
	g.PUT("/promo-codes/:id", d.Promos.Update)
	g.DELETE("/promo-codes/:id", d.Promos.Delete)
}
