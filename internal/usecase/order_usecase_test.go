package usecase_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func address() model.ShippingAddress {
	return model.ShippingAddress{
		Street:  "1-2-3 Chuo",
		City:    "Chiyoda",
		State:   "Tokyo",
		ZipCode: "100-0001",
		Country: "JP",
	}
}

func placeInput(key string) usecase.PlaceOrderInput {
	return usecase.PlaceOrderInput{
		ShippingAddress: address(),
		PaymentMethod:   model.PaymentMethodCashOnDelivery,
		IdempotencyKey:  key,
	}
}

func TestPlaceOrder_CopiesCartAndClearsIt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cart := f.carts.ForOwner("a@x.com")

	require.True(t, cart.AddToCart(ctx, snapshot("p1", "9.99"), 2))
	require.True(t, cart.AddToCart(ctx, snapshot("p2", "0.50"), 3))

	out, err := f.orders.PlaceOrder(ctx, "A@X.com", placeInput("k-1"))
	require.NoError(t, err)

	assert.NotEmpty(t, out.ID)
	assert.Equal(t, model.OrderStatusPending, out.Status)
	assert.Equal(t, model.PaymentStatusUnpaid, out.PaymentStatus)
	assertDecimal(t, "21.48", out.TotalAmount)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "p1", out.Items[0].ProductID)
	assert.Equal(t, "Product p1", out.Items[0].Name)
	assert.Equal(t, int64(2), out.Items[0].Quantity)
	assertDecimal(t, "9.99", out.Items[0].Price)

	//注文後はカートが空
	assert.Equal(t, int64(0), cart.GetTotalItems(ctx))
}

func TestPlaceOrder_SameKeyReturnsSameOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cart := f.carts.ForOwner("a@x.com")

	require.True(t, cart.AddToCart(ctx, snapshot("p1", "5"), 1))

	first, err := f.orders.PlaceOrder(ctx, "a@x.com", placeInput("k-1"))
	require.NoError(t, err)

	//カートが空になっていても同じ注文が返る
	second, err := f.orders.PlaceOrder(ctx, "a@x.com", placeInput("k-1"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assertDecimal(t, "5", second.TotalAmount)
	assert.Len(t, second.Items, 1)

	//その後に入れた商品は消されない
	require.True(t, cart.AddToCart(ctx, snapshot("p2", "1"), 1))
	_, err = f.orders.PlaceOrder(ctx, "a@x.com", placeInput("k-1"))
	require.NoError(t, err)
	assert.True(t, cart.IsInCart(ctx, "p2"))

	mine, err := f.orders.ListMyOrders(ctx, "a@x.com", 1, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestPlaceOrder_KeyIsPerOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.True(t, f.carts.ForOwner("a@x.com").AddToCart(ctx, snapshot("p1", "1"), 1))
	require.True(t, f.carts.ForOwner("b@y.com").AddToCart(ctx, snapshot("p1", "1"), 1))

	a, err := f.orders.PlaceOrder(ctx, "a@x.com", placeInput("same"))
	require.NoError(t, err)
	b, err := f.orders.PlaceOrder(ctx, "b@y.com", placeInput("same"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.orders.PlaceOrder(context.Background(), "a@x.com", placeInput("k-1"))
	assertHTTPError(t, err, http.StatusBadRequest, "cart empty")
}

func TestPlaceOrder_InvalidInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.True(t, f.carts.ForOwner("a@x.com").AddToCart(ctx, snapshot("p1", "1"), 1))

	noStreet := placeInput("k")
	noStreet.ShippingAddress.Street = ""

	badPayment := placeInput("k")
	badPayment.PaymentMethod = "bitcoin"

	cases := []struct {
		name   string
		owner  string
		in     usecase.PlaceOrderInput
		status int
		msg    string
	}{
		{"owner not email", "not-an-email", placeInput("k"), http.StatusUnauthorized, "unauthorized"},
		{"missing key", "a@x.com", placeInput(" "), http.StatusBadRequest, "idempotency_key"},
		{"key too long", "a@x.com", placeInput(strings.Repeat("k", 256)), http.StatusBadRequest, "idempotency_key"},
		{"payment method", "a@x.com", badPayment, http.StatusBadRequest, "payment_method"},
		{"address", "a@x.com", noStreet, http.StatusBadRequest, "Street"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.PlaceOrder(ctx, tc.owner, tc.in)
			assertHTTPError(t, err, tc.status, tc.msg)
		})
	}

	//何も作られずカートも残る
	assert.True(t, f.carts.ForOwner("a@x.com").IsInCart(ctx, "p1"))
}

func TestGetMyOrderDetail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	require.True(t, f.carts.ForOwner("a@x.com").AddToCart(ctx, snapshot("p1", "3"), 1))

	placed, err := f.orders.PlaceOrder(ctx, "a@x.com", placeInput("k-1"))
	require.NoError(t, err)

	t.Run("owner", func(t *testing.T) {
		got, err := f.orders.GetMyOrderDetail(ctx, "a@x.com", placed.ID)
		require.NoError(t, err)
		assert.Equal(t, placed.ID, got.ID)
		assert.Equal(t, address(), got.ShippingAddress)
	})

	t.Run("other owner sees not found", func(t *testing.T) {
		_, err := f.orders.GetMyOrderDetail(ctx, "b@y.com", placed.ID)
		assertHTTPError(t, err, http.StatusNotFound, "not found")
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.orders.GetMyOrderDetail(ctx, "a@x.com", "missing")
		assertHTTPError(t, err, http.StatusNotFound, "not found")
	})

	t.Run("blank id", func(t *testing.T) {
		_, err := f.orders.GetMyOrderDetail(ctx, "a@x.com", " ")
		assertHTTPError(t, err, http.StatusBadRequest, "invalid id")
	})
}

func TestListMyOrders_OnlyOwn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, key := range []string{"k-1", "k-2"} {
		require.True(t, f.carts.ForOwner("a@x.com").AddToCart(ctx, snapshot("p1", "1"), 1))
		_, err := f.orders.PlaceOrder(ctx, "a@x.com", placeInput(key))
		require.NoError(t, err)
	}
	require.True(t, f.carts.ForOwner("b@y.com").AddToCart(ctx, snapshot("p1", "1"), 1))
	_, err := f.orders.PlaceOrder(ctx, "b@y.com", placeInput("k-1"))
	require.NoError(t, err)

	mine, err := f.orders.ListMyOrders(ctx, "a@x.com", 0, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	others, err := f.orders.ListMyOrders(ctx, "c@z.com", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, others)
}

// commitしてから呼び出し元へ戻るまでの間にafterCommitを差し込む
type interleavingTx struct {
	inner       repo.TransactionManager
	once        sync.Once
	afterCommit func()
}

func (x *interleavingTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := x.inner.WithinTx(ctx, fn); err != nil {
		return err
	}
	x.once.Do(x.afterCommit)
	return nil
}

func TestPlaceOrder_KeepsLinesAddedDuringCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cart := f.carts.ForOwner("a@x.com")

	require.True(t, cart.AddToCart(ctx, snapshot("p1", "4"), 1))

	added := make(chan bool, 1)
	tx := &interleavingTx{
		inner: infraRepo.NewTxManagerGorm(f.db),
		afterCommit: func() {
			//別の画面から同じオーナーのカートに追加される
			go func() { added <- f.carts.ForOwner("a@x.com").AddToCart(ctx, snapshot("p2", "1"), 1) }()
			select {
			case ok := <-added:
				added <- ok
			case <-time.After(50 * time.Millisecond):
			}
		},
	}
	orders := usecase.NewOrderUsecase(tx, f.carts, f.ids, f.clock, quietLogger())

	out, err := orders.PlaceOrder(ctx, "a@x.com", placeInput("k-1"))
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "p1", out.Items[0].ProductID)

	select {
	case ok := <-added:
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("add during checkout never finished")
	}

	//注文に入っていない商品はカートに残る
	assert.False(t, cart.IsInCart(ctx, "p1"))
	assert.Equal(t, int64(1), cart.GetProductQuantity(ctx, "p2"))
}

func TestPlaceOrder_PublishesEmptiedCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	cart := f.carts.ForOwner("a@x.com")

	require.True(t, cart.AddToCart(ctx, snapshot("p1", "1"), 2))

	updates, cancel := cart.Subscribe()
	defer cancel()

	_, err := f.orders.PlaceOrder(ctx, "a@x.com", placeInput("k-1"))
	require.NoError(t, err)

	assert.Empty(t, receive(t, updates))
}
