package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/kv"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errStoreDown = errors.New("store down")

// flakyStore 指定的 key 寫入失敗
type flakyStore struct {
	*kv.MemoryStore
	mu       sync.Mutex
	failKeys map[string]bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: kv.NewMemoryStore(), failKeys: make(map[string]bool)}
}

func (s *flakyStore) failOn(key string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKeys[key] = fail
}

func (s *flakyStore) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	fail := s.failKeys[key]
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.MemoryStore.Set(ctx, key, value)
}

type recordingObserver struct {
	mu     sync.Mutex
	carts  []model.CartSnapshot
	orders []model.Order
}

func (o *recordingObserver) OnCartChanged(_ context.Context, snapshot model.CartSnapshot) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.carts = append(o.carts, snapshot)
}

func (o *recordingObserver) OnOrderCommitted(_ context.Context, order model.Order) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.orders = append(o.orders, order)
}

func (o *recordingObserver) cartCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.carts)
}

func (o *recordingObserver) orderCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.orders)
}

type testEnv struct {
	store    *flakyStore
	engine   *pricing.Engine
	observer *recordingObserver
	cart     *CartService
	orders   *OrderService
}

var fixedNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFlakyStore()
	engine := pricing.NewEngine(pricing.DefaultPolicy())
	observer := &recordingObserver{}
	observers := NewObservers(observer)
	return &testEnv{
		store:    store,
		engine:   engine,
		observer: observer,
		cart:     NewCartService(store, engine, observers, nil),
		orders: NewOrderService(store, observers, nil,
			WithClock(func() time.Time { return fixedNow })),
	}
}

func (e *testEnv) storedCart(t *testing.T) string {
	t.Helper()
	raw, err := e.store.Get(context.Background(), CartKey)
	require.NoError(t, err)
	return raw
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func addN(t *testing.T, cart *CartService, name string, p string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := cart.AddItem(context.Background(), name, price(p))
		require.NoError(t, err)
	}
}
