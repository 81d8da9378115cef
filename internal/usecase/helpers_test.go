package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db/dbtest"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// =====================
// 固定ID・固定時刻
// =====================

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string {
	return fmt.Sprintf("id-%04d", g.n.Add(1))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

// 呼ばれるたびに1ms進む（作成順が一意になる）
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// =====================
// sqliteで組み立てたusecase一式
// =====================

type fixture struct {
	db       *gorm.DB
	ids      *seqIDs
	clock    *fakeClock
	carts    *usecase.CartUsecase
	products *usecase.ProductUsecase
	orders   *usecase.OrderUsecase
	admin    *usecase.AdminOrderUsecase
	audit    repo.AuditLogRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gdb := dbtest.New(t)
	ids := &seqIDs{}
	clock := newFakeClock()
	log := quietLogger()
	txm := infraRepo.NewTxManagerGorm(gdb)

	carts := usecase.NewCartUsecase(infraRepo.NewCartLineGormRepository(gdb), txm, ids, clock, log, nil)

	return &fixture{
		db:       gdb,
		ids:      ids,
		clock:    clock,
		carts:    carts,
		products: usecase.NewProductUsecase(infraRepo.NewProductGormRepository(gdb), txm, ids, clock),
		orders:   usecase.NewOrderUsecase(txm, carts, ids, clock, log),
		admin:    usecase.NewAdminOrderUsecase(txm, clock),
		audit:    infraRepo.NewAuditLogGormRepository(gdb),
	}
}

func snapshot(id string, price string) model.ProductSnapshot {
	return model.ProductSnapshot{
		ID:    id,
		Name:  "Product " + id,
		Image: "https://img.example/" + id + ".png",
		Price: model.NewPrice(decimal.RequireFromString(price)),
		Quantity: model.PackSize{
			Amount: 1,
			Unit:   "pc",
		},
	}
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func assertHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	he, ok := usecase.AsHTTPError(err)
	if !assert.True(t, ok, "expected HTTPError, got %v", err) {
		return
	}
	assert.Equal(t, status, he.Status)
	if msg != "" {
		assert.Contains(t, he.Message, msg)
	}
}

// =====================
// Mocks
// =====================

// 失敗するストレージ（WithinTxがエラーを返す）
type TxManagerMock struct{ mock.Mock }

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type CartLineRepoMock struct{ mock.Mock }

func (m *CartLineRepoMock) ListByOwner(ctx context.Context, ownerKey string) ([]model.CartLine, error) {
	args := m.Called(ctx, ownerKey)
	lines, _ := args.Get(0).([]model.CartLine)
	return lines, args.Error(1)
}

func (m *CartLineRepoMock) FindByOwnerAndProduct(ctx context.Context, ownerKey string, productID string, forUpdate bool) (model.CartLine, error) {
	args := m.Called(ctx, ownerKey, productID, forUpdate)
	l, _ := args.Get(0).(model.CartLine)
	return l, args.Error(1)
}

func (m *CartLineRepoMock) Create(ctx context.Context, line model.CartLine) error {
	panic("not used")
}

func (m *CartLineRepoMock) UpdateQuantity(ctx context.Context, lineID string, qty int64, updatedAt time.Time) error {
	panic("not used")
}

func (m *CartLineRepoMock) DeleteByOwnerAndProduct(ctx context.Context, ownerKey string, productID string) (int64, error) {
	panic("not used")
}

func (m *CartLineRepoMock) DeleteByOwnerAndIDs(ctx context.Context, ownerKey string, ids []string) (int64, error) {
	panic("not used")
}

func (m *CartLineRepoMock) DeleteAllByOwner(ctx context.Context, ownerKey string) (int64, error) {
	panic("not used")
}

var errStorage = errors.New("disk I/O error")
