package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /cartのHTTP
type CartHandler struct {
	carts    *usecase.CartUsecase
	products *usecase.ProductUsecase

	// SSEのハートビート間隔
	heartbeat time.Duration
}

// DI
func NewCartHandler(carts *usecase.CartUsecase, products *usecase.ProductUsecase) *CartHandler {
	return &CartHandler{carts: carts, products: products, heartbeat: 25 * time.Second}
}

type AddCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// CartResponse は明細と合計
type CartResponse struct {
	Items      []model.CartLine `json:"items"`
	TotalItems int64            `json:"total_items"`
	TotalPrice decimal.Decimal  `json:"total_price"`
}

type CartItemStatusResponse struct {
	ProductID string `json:"product_id"`
	InCart    bool   `json:"in_cart"`
	Quantity  int64  `json:"quantity"`
}

func newCartResponse(lines []model.CartLine) CartResponse {
	if lines == nil {
		lines = []model.CartLine{}
	}
	return CartResponse{
		Items:      lines,
		TotalItems: model.TotalItems(lines),
		TotalPrice: model.TotalPrice(lines),
	}
}

// /cart, /cart/items/:product_id, /cart/stream を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	g := e.Group("/cart")
	g.Use(auth)

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.DELETE("", h.clearCart)
	g.GET("/stream", h.stream)
	g.GET("/items/:product_id", h.getItem)
	g.PATCH("/items/:product_id", h.patchItem)
	g.DELETE("/items/:product_id", h.deleteItem)
}

func (h *CartHandler) store(c echo.Context) (*usecase.CartStore, bool) {
	owner := middleware.OwnerKey(c)
	if owner == "" {
		return nil, false
	}
	return h.carts.ForOwner(owner), true
}

// 更新後のカートを返す
func (h *CartHandler) respondCart(c echo.Context, s *usecase.CartStore) error {
	lines, err := s.Lines(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return c.JSON(http.StatusOK, newCartResponse(lines))
}

func (h *CartHandler) getCart(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return h.respondCart(c, s)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid quantity"})
	}

	//商品情報はカタログから取る（クライアントの値は信用しない）
	snap, err := h.products.GetSnapshot(c.Request().Context(), req.ProductID)
	if err != nil {
		return writeError(c, err)
	}

	if !s.AddToCart(c.Request().Context(), snap, req.Quantity) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return h.respondCart(c, s)
}

func (h *CartHandler) getItem(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	pid := c.Param("product_id")
	qty := s.GetProductQuantity(c.Request().Context(), pid)
	return c.JSON(http.StatusOK, CartItemStatusResponse{
		ProductID: pid,
		InCart:    qty > 0,
		Quantity:  qty,
	})
}

func (h *CartHandler) patchItem(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//0以下は削除扱い
	if !s.UpdateQuantity(c.Request().Context(), c.Param("product_id"), req.Quantity) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return h.respondCart(c, s)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if !s.RemoveFromCart(c.Request().Context(), c.Param("product_id")) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return h.respondCart(c, s)
}

func (h *CartHandler) clearCart(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if !s.ClearCart(c.Request().Context()) {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}
	return h.respondCart(c, s)
}

// stream はカートの変更をServer-Sent Eventsで流す。
// 接続直後に現在の内容を1回送る。
func (h *CartHandler) stream(c echo.Context) error {
	s, ok := h.store(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	ctx := c.Request().Context()

	//先に購読してから初回を読む（間の更新を取りこぼさない）
	updates, cancel := s.Subscribe()
	defer cancel()

	lines, err := s.Lines(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "db error"})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeCartEvent(res, lines); err != nil {
		return nil
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case lines, ok := <-updates:
			if !ok {
				return nil
			}
			if err := writeCartEvent(res, lines); err != nil {
				return nil
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

func writeCartEvent(res *echo.Response, lines []model.CartLine) error {
	b, err := json.Marshal(newCartResponse(lines))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: cart\ndata: %s\n\n", b); err != nil {
		return err
	}
	res.Flush()
	return nil
}
