package usecase_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"edushop/internal/domain/model"
	repo "edushop/internal/repository"
	"edushop/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// =====================
// In-memory ledger fake
// =====================

// fakeLedger はTxのcommit/rollbackを含めて注文ストアを再現する。
// fnがエラーを返したらスナップショットへ戻すので、
// 「途中失敗で部分的な行が見える」状態をテストで検出できる。
type fakeLedger struct {
	nextOrderID int64
	nextItemID  int64
	orders      map[int64]model.Order
	items       map[int64][]model.OrderItem
	buyers      map[int64]string

	txCalls   int
	failItems bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		orders: map[int64]model.Order{},
		items:  map[int64][]model.OrderItem{},
		buyers: map[int64]string{},
	}
}

func (l *fakeLedger) snapshot() (map[int64]model.Order, map[int64][]model.OrderItem, int64, int64) {
	orders := make(map[int64]model.Order, len(l.orders))
	for k, v := range l.orders {
		orders[k] = v
	}
	items := make(map[int64][]model.OrderItem, len(l.items))
	for k, v := range l.items {
		cp := make([]model.OrderItem, len(v))
		copy(cp, v)
		items[k] = cp
	}
	return orders, items, l.nextOrderID, l.nextItemID
}

func (l *fakeLedger) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	l.txCalls++

	orders, items, nextOrder, nextItem := l.snapshot()

	if err := fn(&fakeTxRepos{l: l}); err != nil {
		// rollback
		l.orders = orders
		l.items = items
		l.nextOrderID = nextOrder
		l.nextItemID = nextItem
		return err
	}
	return nil
}

type fakeTxRepos struct{ l *fakeLedger }

func (r *fakeTxRepos) Orders() repo.OrderRepository         { return &fakeOrderRepo{l: r.l} }
func (r *fakeTxRepos) OrderItems() repo.OrderItemRepository { return &fakeOrderItemRepo{l: r.l} }

type fakeOrderRepo struct{ l *fakeLedger }

func (r *fakeOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := r.l.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	for _, o := range r.l.orders {
		if o.IdempotencyKey == order.IdempotencyKey {
			return 0, errors.New("duplicate key")
		}
	}
	r.l.nextOrderID++
	order.ID = r.l.nextOrderID
	r.l.orders[order.ID] = order
	return order.ID, nil
}

func (r *fakeOrderRepo) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	for _, o := range r.l.orders {
		if o.UserID == userID && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r *fakeOrderRepo) ListAllWithBuyer(ctx context.Context) ([]repo.OrderWithBuyer, error) {
	out := make([]repo.OrderWithBuyer, 0, len(r.l.orders))
	for _, o := range r.l.orders {
		out = append(out, repo.OrderWithBuyer{Order: o, UserName: r.l.buyers[o.UserID]})
	}
	// 新しい順
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeOrderItemRepo struct{ l *fakeLedger }

func (r *fakeOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if r.l.failItems {
		return errors.New("insert failed")
	}
	for i := range items {
		r.l.nextItemID++
		items[i].ID = r.l.nextItemID
		items[i].OrderID = orderID
	}
	r.l.items[orderID] = append(r.l.items[orderID], items...)
	return nil
}

func (r *fakeOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return r.l.items[orderID], nil
}

// =====================
// Helpers
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("decimal %q: %v", s, err)
	}
	return d
}

func validCart(t *testing.T) []usecase.CartLineInput {
	t.Helper()
	return []usecase.CartLineInput{
		{ProductID: 1, Name: "Curso de Go", UnitPrice: dec(t, "17.99"), Quantity: 2},
		{ProductID: 2, Name: "Libro de Algoritmos", UnitPrice: dec(t, "59.99"), Quantity: 1},
	}
}

// =====================
// PlaceOrder tests
// =====================

func TestPlaceOrder_TotalIsExactDecimalSum(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	out, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:          validCart(t),
		PaymentMethod:  "card",
		IdempotencyKey: "k-1",
	})

	assert.NoError(t, err)
	// 17.99*2 + 59.99 = 95.97（floatなら崩れる計算）
	assert.True(t, out.Total.Equal(dec(t, "95.97")), "total=%s", out.Total)

	stored := ledger.orders[out.OrderID]
	assert.True(t, stored.Total.Equal(dec(t, "95.97")))
	assert.Equal(t, model.OrderStatusPaid, stored.Status)
	assert.Equal(t, model.PaymentMethodCard, stored.PaymentMethod)
}

func TestPlaceOrder_PersistsOneLinePerCartLine(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	cart := validCart(t)
	out, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:          cart,
		PaymentMethod:  "plin",
		IdempotencyKey: "k-2",
	})
	assert.NoError(t, err)

	items := ledger.items[out.OrderID]
	assert.Equal(t, len(cart), len(items))
	for i, it := range items {
		assert.Equal(t, out.OrderID, it.OrderID)
		assert.Equal(t, cart[i].ProductID, it.ProductID)
		assert.Equal(t, cart[i].Quantity, it.Quantity)
		assert.True(t, it.UnitPrice.Equal(cart[i].UnitPrice))
	}
}

func TestPlaceOrder_UnauthenticatedActorRejected(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	for _, userID := range []int64{0, -1} {
		_, err := uc.PlaceOrder(context.Background(), userID, usecase.PlaceOrderInput{
			Items:          validCart(t),
			PaymentMethod:  "card",
			IdempotencyKey: "k-3",
		})
		assertErrContains(t, err, "unauthorized")
	}

	// Txすら開かない。何も書かれない
	assert.Equal(t, 0, ledger.txCalls)
	assert.Equal(t, 0, len(ledger.orders))
}

func TestPlaceOrder_EmptyCartRejected(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:          nil,
		PaymentMethod:  "card",
		IdempotencyKey: "k-4",
	})

	assertErrContains(t, err, "cart empty")
	assert.Equal(t, 0, ledger.txCalls)
}

func TestPlaceOrder_NonPositiveQuantityRejected(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	for _, qty := range []int64{0, -1} {
		_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
			Items: []usecase.CartLineInput{
				{ProductID: 1, Name: "Curso de Go", UnitPrice: dec(t, "17.99"), Quantity: qty},
			},
			PaymentMethod:  "card",
			IdempotencyKey: "k-5",
		})
		assertErrContains(t, err, "invalid quantity")
	}

	assert.Equal(t, 0, len(ledger.orders))
	assert.Equal(t, 0, len(ledger.items))
}

func TestPlaceOrder_NegativePriceRejected(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items: []usecase.CartLineInput{
			{ProductID: 1, Name: "Curso de Go", UnitPrice: dec(t, "-0.01"), Quantity: 1},
		},
		PaymentMethod:  "card",
		IdempotencyKey: "k-6",
	})

	assertErrContains(t, err, "invalid price")
	assert.Equal(t, 0, len(ledger.orders))
}

func TestPlaceOrder_PaymentMethodClosedSet(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	// 閉じた集合のメンバーは全部通る
	for i, m := range []string{"card", "yape", "plin", "bank_transfer"} {
		_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
			Items:          validCart(t),
			PaymentMethod:  m,
			IdempotencyKey: "pm-" + m,
		})
		assert.NoError(t, err, "method %q (#%d)", m, i)
	}

	// それ以外は拒否
	for _, m := range []string{"paypal", "efectivo", "", "CARD"} {
		_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
			Items:          validCart(t),
			PaymentMethod:  m,
			IdempotencyKey: "pm-bad",
		})
		assertErrContains(t, err, "invalid payment_method")
	}
}

func TestPlaceOrder_MissingIdempotencyKeyRejected(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:         validCart(t),
		PaymentMethod: "card",
	})

	assertErrContains(t, err, "invalid idempotency_key")
	assert.Equal(t, 0, ledger.txCalls)
}

func TestPlaceOrder_LineInsertFailureRollsBackHeader(t *testing.T) {
	ledger := newFakeLedger()
	ledger.failItems = true
	uc := usecase.NewOrderUsecase(ledger)

	_, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:          validCart(t),
		PaymentMethod:  "yape",
		IdempotencyKey: "k-7",
	})

	assertErrContains(t, err, "db error")

	// ヘッダも明細も残らない
	assert.Equal(t, 0, len(ledger.orders))
	assert.Equal(t, 0, len(ledger.items))

	// 同じ呼び出しをリトライすれば成功する
	ledger.failItems = false
	out, err := uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		Items:          validCart(t),
		PaymentMethod:  "yape",
		IdempotencyKey: "k-7",
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(ledger.orders))
	assert.Equal(t, len(validCart(t)), len(ledger.items[out.OrderID]))
}

func TestPlaceOrder_SameKeyReturnsSameOrder(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	in := usecase.PlaceOrderInput{
		Items:          validCart(t),
		PaymentMethod:  "card",
		IdempotencyKey: "k-8",
	}

	first, err := uc.PlaceOrder(context.Background(), 7, in)
	assert.NoError(t, err)

	second, err := uc.PlaceOrder(context.Background(), 7, in)
	assert.NoError(t, err)

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, 1, len(ledger.orders))
}

func TestPlaceOrder_InvalidInputFailsTheSameWayTwice(t *testing.T) {
	ledger := newFakeLedger()
	uc := usecase.NewOrderUsecase(ledger)

	in := usecase.PlaceOrderInput{
		Items: []usecase.CartLineInput{
			{ProductID: 1, Name: "Curso de Go", UnitPrice: dec(t, "17.99"), Quantity: 0},
		},
		PaymentMethod:  "card",
		IdempotencyKey: "k-9",
	}

	_, err1 := uc.PlaceOrder(context.Background(), 7, in)
	_, err2 := uc.PlaceOrder(context.Background(), 7, in)

	assertErrContains(t, err1, "invalid quantity")
	assertErrContains(t, err2, "invalid quantity")

	he1, _ := usecase.AsHTTPError(err1)
	he2, _ := usecase.AsHTTPError(err2)
	assert.Equal(t, he1.Status, he2.Status)

	assert.Equal(t, 0, len(ledger.orders))
	assert.Equal(t, 0, len(ledger.items))
}

func TestPlaceOrder_EndToEndThenAdminListing(t *testing.T) {
	ledger := newFakeLedger()
	ledger.buyers[42] = "María"

	orderUC := usecase.NewOrderUsecase(ledger)

	out, err := orderUC.PlaceOrder(context.Background(), 42, usecase.PlaceOrderInput{
		Items: []usecase.CartLineInput{
			{ProductID: 1, Name: "Curso A", UnitPrice: dec(t, "29.99"), Quantity: 2},
		},
		PaymentMethod:  "yape",
		IdempotencyKey: "e2e-1",
	})
	assert.NoError(t, err)
	assert.True(t, out.Total.Equal(dec(t, "59.98")), "total=%s", out.Total)

	adminUC := usecase.NewAdminOrderUsecase(&fakeOrderRepo{l: ledger})
	rows, err := adminUC.ListAll(context.Background())
	assert.NoError(t, err)

	if assert.Equal(t, 1, len(rows)) {
		assert.Equal(t, out.OrderID, rows[0].ID)
		assert.Equal(t, model.OrderStatusPaid, rows[0].Status)
		assert.Equal(t, "María", rows[0].UserName)
		assert.Equal(t, model.PaymentMethodYape, rows[0].PaymentMethod)
	}
}
