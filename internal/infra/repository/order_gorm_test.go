package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db/dbtest"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(id, owner, key string, at time.Time) model.Order {
	return model.Order{
		ID:            id,
		OwnerKey:      owner,
		TotalAmount:   decimal.RequireFromString("10"),
		PaymentMethod: model.PaymentMethodCashOnDelivery,
		PaymentStatus: model.PaymentStatusUnpaid,
		ShippingAddress: model.ShippingAddress{
			Street: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		},
		Status:         model.OrderStatusPending,
		IdempotencyKey: key,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

func TestOrderGorm_CreateAndIdempotency(t *testing.T) {
	ctx := context.Background()
	r := NewOrderGormRepository(dbtest.New(t))

	require.NoError(t, r.Create(ctx, newOrder("o1", "a@x.io", "k1", t0)))

	got, found, err := r.FindByIdempotencyKey(ctx, "a@x.io", "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "o1", got.ID)
	assert.Equal(t, "Springfield", got.ShippingAddress.City)

	_, found, err = r.FindByIdempotencyKey(ctx, "b@x.io", "k1")
	require.NoError(t, err)
	assert.False(t, found)

	err = r.Create(ctx, newOrder("o2", "a@x.io", "k1", t0))
	assert.ErrorIs(t, err, repo.ErrDuplicate)

	//同じキーでも別オーナーならよい
	assert.NoError(t, r.Create(ctx, newOrder("o3", "b@x.io", "k1", t0)))
}

func TestOrderGorm_ItemsAndStatus(t *testing.T) {
	ctx := context.Background()
	r := NewOrderGormRepository(dbtest.New(t))

	require.NoError(t, r.Create(ctx, newOrder("o1", "a@x.io", "k1", t0)))
	require.NoError(t, r.CreateItems(ctx, "o1", []model.OrderItem{
		{ID: "i1", ProductID: "p1", NameSnapshot: "A", UnitPriceSnapshot: decimal.RequireFromString("2.5"), Quantity: 2, CreatedAt: t0},
		{ID: "i2", ProductID: "p2", NameSnapshot: "B", UnitPriceSnapshot: decimal.RequireFromString("5"), Quantity: 1, CreatedAt: t0},
	}))

	items, err := r.ListItems(ctx, "o1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "o1", items[0].OrderID)

	require.NoError(t, r.UpdateStatus(ctx, "o1", model.OrderStatusProcessing, t0.Add(time.Hour)))
	o, err := r.FindByID(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, o.Status)

	assert.ErrorIs(t, r.UpdateStatus(ctx, "nope", model.OrderStatusShipped, t0), repo.ErrNotFound)
}

func TestOrderGorm_ListByOwnerAndAdmin(t *testing.T) {
	ctx := context.Background()
	r := NewOrderGormRepository(dbtest.New(t))

	require.NoError(t, r.Create(ctx, newOrder("o1", "a@x.io", "k1", t0)))
	require.NoError(t, r.Create(ctx, newOrder("o2", "a@x.io", "k2", t0.Add(time.Minute))))
	require.NoError(t, r.Create(ctx, newOrder("o3", "b@x.io", "k1", t0.Add(2*time.Minute))))
	require.NoError(t, r.UpdateStatus(ctx, "o3", model.OrderStatusCancelled, t0))

	mine, total, err := r.ListByOwner(ctx, "a@x.io", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, mine, 2)
	assert.Equal(t, "o2", mine[0].ID)

	all, total, err := r.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	cancelled, _, err := r.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, "o3", cancelled[0].ID)

	byOwner, _, err := r.ListAdmin(ctx, repo.AdminOrderListFilter{Page: 1, Limit: 10, OwnerKey: "b@x.io"})
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)
}

func TestAuditLogGorm_CreateAndList(t *testing.T) {
	ctx := context.Background()
	r := NewAuditLogGormRepository(dbtest.New(t))

	require.NoError(t, r.Create(ctx, model.AuditLog{
		Actor: "admin-1", Action: model.AuditActionUpdateProduct, ResourceType: model.AuditResourceProduct,
		ResourceID: "p1", CreatedAt: t0,
	}))
	require.NoError(t, r.Create(ctx, model.AuditLog{
		Actor: "admin-2", Action: model.AuditActionUpdateOrderStatus, ResourceType: model.AuditResourceOrder,
		ResourceID: "o1", BeforeJSON: `{"status":"pending"}`, AfterJSON: `{"status":"processing"}`, CreatedAt: t0,
	}))

	all, err := r.List(ctx, repo.AuditLogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	//新しい順
	assert.Equal(t, "o1", all[0].ResourceID)

	action := model.AuditActionUpdateProduct
	onlyProducts, err := r.List(ctx, repo.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, onlyProducts, 1)
	assert.Equal(t, "admin-1", onlyProducts[0].Actor)
}

func TestTxManagerGorm_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	tm := NewTxManagerGorm(gdb)
	lines := NewCartLineGormRepository(gdb)

	boom := errors.New("boom")
	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		require.NoError(t, r.CartLines().Create(ctx, newLine("l1", "a@x.io", "p1", 1, t0)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := lines.ListByOwner(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, tm.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.CartLines().Create(ctx, newLine("l1", "a@x.io", "p1", 1, t0))
	}))
	got, err = lines.ListByOwner(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
