package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /sessions/guest
type SessionHandler struct {
	uc *usecase.SessionUsecase
}

func NewSessionHandler(uc *usecase.SessionUsecase) *SessionHandler {
	return &SessionHandler{uc: uc}
}

// limitはIPごとのレート制限
func (h *SessionHandler) RegisterRoutes(e *echo.Echo, limit echo.MiddlewareFunc) {
	e.POST("/sessions/guest", h.startGuest, limit)
}

func (h *SessionHandler) startGuest(c echo.Context) error {
	out, err := h.uc.StartGuest(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}
