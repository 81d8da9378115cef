package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/validator"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type OrderUsecase struct {
	tx    repo.TransactionManager
	carts *CartUsecase
	ids   IDGenerator
	clock Clock
	log   logrus.FieldLogger
}

func NewOrderUsecase(tx repo.TransactionManager, carts *CartUsecase, ids IDGenerator, clock Clock, log logrus.FieldLogger) *OrderUsecase {
	return &OrderUsecase{tx: tx, carts: carts, ids: ids, clock: clock, log: log}
}

type PlaceOrderInput struct {
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	PaymentMethod   model.PaymentMethod   `json:"payment_method"`
	IdempotencyKey  string                `json:"-"`
}

type OrderItemOutput struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	PackAmount int64           `json:"pack_amount"`
	PackUnit   string          `json:"pack_unit"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
}

type OrderOutput struct {
	ID              string                `json:"id"`
	Status          model.OrderStatus     `json:"status"`
	PaymentMethod   model.PaymentMethod   `json:"payment_method"`
	PaymentStatus   model.PaymentStatus   `json:"payment_status"`
	ShippingAddress model.ShippingAddress `json:"shipping_address"`
	TotalAmount     decimal.Decimal       `json:"total_amount"`
	CreatedAt       time.Time             `json:"created_at"`
	Items           []OrderItemOutput     `json:"items"`
}

// 同じ冪等キーの注文が同時に作られた
var errIdempotencyRace = errors.New("idempotency key race")

// PlaceOrder はカートの中身から注文を作り、注文に入った明細を同じTxで消す。
// 同じ冪等キーなら既存の注文をそのまま返す（カートには触れない）。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, ownerKey string, in PlaceOrderInput) (OrderOutput, error) {
	ownerKey = model.NormalizeOwnerKey(ownerKey)
	if err := validator.CheckOwnerKey(ownerKey); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	switch in.PaymentMethod {
	case model.PaymentMethodStripe, model.PaymentMethodCashOnDelivery:
	default:
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	if err := validator.Check(in.ShippingAddress); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	//カート側の更新と直列化する（読んだ明細と消す明細を一致させる）
	unlock := u.carts.locks.lock(ownerKey)
	defer unlock()

	out, created, err := u.placeInTx(ctx, ownerKey, key, in)
	if errors.Is(err, errIdempotencyRace) {
		//もう一回やれば既存注文が見つかる
		out, created, err = u.placeInTx(ctx, ownerKey, key, in)
	}
	if errors.Is(err, errIdempotencyRace) {
		return OrderOutput{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
	}
	if err != nil {
		return OrderOutput{}, err
	}

	if created {
		u.log.WithFields(logrus.Fields{
			"owner_key": ownerKey,
			"order_id":  out.ID,
			"items":     len(out.Items),
		}).Info("order placed")

		//commit後に購読者へ空になったカートを配る
		u.carts.ForOwner(ownerKey).publish(ctx)
	}
	return out, nil
}

func (u *OrderUsecase) placeInTx(ctx context.Context, ownerKey string, key string, in PlaceOrderInput) (OrderOutput, bool, error) {
	var (
		out     OrderOutput
		created bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, ownerKey, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.Orders().ListItems(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		lines, err := r.CartLines().ListByOwner(ctx, ownerKey)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		now := u.clock.Now()
		order := model.Order{
			ID:              u.ids.NewID(),
			OwnerKey:        ownerKey,
			TotalAmount:     model.TotalPrice(lines),
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   model.PaymentStatusUnpaid,
			ShippingAddress: in.ShippingAddress,
			Status:          model.OrderStatusPending,
			IdempotencyKey:  key,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		//明細は追加時点のスナップショットをそのまま使う
		items := make([]model.OrderItem, 0, len(lines))
		for _, l := range lines {
			items = append(items, model.OrderItemFromCartLine(u.ids.NewID(), order.ID, l, now))
		}

		if err := r.Orders().Create(ctx, order); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return errIdempotencyRace
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.Orders().CreateItems(ctx, order.ID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//注文に入れた明細だけ消す
		lineIDs := make([]string, 0, len(lines))
		for _, l := range lines {
			lineIDs = append(lineIDs, l.ID)
		}
		if _, err := r.CartLines().DeleteByOwnerAndIDs(ctx, ownerKey, lineIDs); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(order, items)
		created = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, false, err
	}
	return out, created, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, ownerKey string, page int, limit int) ([]OrderOutput, error) {
	ownerKey = model.NormalizeOwnerKey(ownerKey)
	if err := validator.CheckOwnerKey(ownerKey); err != nil {
		return []OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	var outs []OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, _, err := r.Orders().ListByOwner(ctx, ownerKey, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs = make([]OrderOutput, 0, len(orders))
		for _, o := range orders {
			items, err := r.Orders().ListItems(ctx, o.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			outs = append(outs, toOrderOutput(o, items))
		}
		return nil
	})

	if err != nil {
		return []OrderOutput{}, err
	}
	return outs, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, ownerKey string, orderID string) (OrderOutput, error) {
	ownerKey = model.NormalizeOwnerKey(ownerKey)
	if err := validator.CheckOwnerKey(ownerKey); err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(orderID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.OwnerKey != ownerKey {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.Orders().ListItems(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID:  it.ProductID,
			Name:       it.NameSnapshot,
			Image:      it.ImageSnapshot,
			PackAmount: it.PackAmount,
			PackUnit:   it.PackUnit,
			Price:      it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		PaymentStatus:   o.PaymentStatus,
		ShippingAddress: o.ShippingAddress,
		TotalAmount:     o.TotalAmount,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}
