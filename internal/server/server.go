package server

import (
	"net/http"
	"strings"

	"storefront/internal/handler"
	appmw "storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

// APIConfig はルーター作成に必要な部品
type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger

	Verifier     appmw.TokenVerifier
	GuestLimiter echo.MiddlewareFunc

	Session      *handler.SessionHandler
	Products     *handler.ProductHandler
	Cart         *handler.CartHandler
	Orders       *handler.OrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminAudit   *handler.AdminAuditHandler
}

// New は共通ミドルウェアとルートを登録したechoを返す
func New(cfg APIConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(appmw.Logger(cfg.Log))

	if origin := strings.TrimSpace(cfg.CorsOrigin); origin != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: strings.Split(origin, ","),
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "X-Idempotency-Key"},
		}))
	}

	RegisterRoutes(e, cfg)
	return e
}
