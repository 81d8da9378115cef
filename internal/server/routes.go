package server

import (
	"net/http"

	appmw "storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg APIConfig) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	limit := cfg.GuestLimiter
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	auth := appmw.AuthJWT(cfg.Verifier)

	cfg.Session.RegisterRoutes(e, limit)
	cfg.Products.RegisterRoutes(e)
	cfg.Cart.RegisterRoutes(e, auth)
	cfg.Orders.RegisterRoutes(e, auth)
	cfg.AdminProduct.RegisterRoutes(e, auth)
	cfg.AdminOrder.RegisterRoutes(e, auth)
	cfg.AdminAudit.RegisterRoutes(e, auth)
}
