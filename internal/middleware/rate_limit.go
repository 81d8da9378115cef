package middleware

import (
	"net/http"

	"storefront/internal/rate"

	"github.com/labstack/echo/v4"
)

// RateLimitByIP は接続元IPごとに制限する
func RateLimitByIP(l *rate.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Check(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, errorJSON("too many requests"))
			}
			return next(c)
		}
	}
}
