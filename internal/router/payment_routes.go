package router

import "github.com/labstack/echo/v4"

// RegisterPayments registers the NOWPayments proxy and its webhook.  The
// webhook authenticates callers by IPN signature, not by session.
func RegisterPayments(e *echo.Echo, d Deps) {
	limit := orPass(d.RateLimit)

	g := e.Group("/api/nowpayments")
	g.GET("/status", d.Payments.Status)
	g.GET("/currencies", d.Payments.Currencies)
	g.GET("/estimate", d.Payments.Estimate, limit)
	g.POST("/payment", d.Payments.CreatePayment, limit)
	g.GET("/payment/:id", d.Payments.GetPayment, limit)
	g.POST("/webhook", d.Payments.Webhook)
}
