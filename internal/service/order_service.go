package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/kv"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/util"
	"github.com/rs/zerolog"
)

const (
	orderIDPrefix = "ORD-"
	orderIDLength = 6
)

type IOrderService interface {
	Load(ctx context.Context) error
	Commit(ctx context.Context, snapshot model.CartSnapshot, totals model.Totals, customer *model.CustomerInfo) (model.Order, error)
	List() []model.Order
	Len() int
}

type OrderServiceOption func(*OrderService)

// WithClock 測試用，固定 order timestamp
func WithClock(now func() time.Time) OrderServiceOption {
	return func(s *OrderService) {
		s.now = now
	}
}

func WithIDGenerator(gen func() (string, error)) OrderServiceOption {
	return func(s *OrderService) {
		s.newID = gen
	}
}

// OrderService 本地訂單紀錄，只會新增，新的在前
type OrderService struct {
	mu        sync.Mutex
	store     kv.Store
	observers *Observers
	logger    *zerolog.Logger
	now       func() time.Time
	newID     func() (string, error)

	orders []model.Order
}

func NewOrderService(store kv.Store, observers *Observers, logger *zerolog.Logger, opts ...OrderServiceOption) *OrderService {
	if util.IsNil(store) {
		panic("OrderService dependency store is nil")
	}
	if observers == nil {
		observers = NewObservers()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	s := &OrderService{
		store:     store,
		observers: observers,
		logger:    logger,
		now:       time.Now,
		newID:     NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ IOrderService = (*OrderService)(nil)

// NewOrderID ORD- 加上 6 碼大寫英數，不檢查碰撞
func NewOrderID() (string, error) {
	suffix, err := util.RandomString(orderIDLength)
	if err != nil {
		return "", err
	}
	return orderIDPrefix + suffix, nil
}

func (s *OrderService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []model.Order
	if err := kv.GetJSON(ctx, s.store, OrdersKey, &orders); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			s.orders = nil
			return nil
		}
		return fmt.Errorf("load orders: %w", err)
	}
	s.orders = orders
	s.logger.Info().Int("orders", len(orders)).Msg("order ledger restored")
	return nil
}

// Commit 建立訂單並放在最前面
// 寫入失敗時移除剛加入的訂單
func (s *OrderService) Commit(ctx context.Context, snapshot model.CartSnapshot, totals model.Totals, customer *model.CustomerInfo) (model.Order, error) {
	id, err := s.newID()
	if err != nil {
		return model.Order{}, fmt.Errorf("generate order id: %w", err)
	}

	items := append([]model.LineItem(nil), snapshot.Items...)
	order := model.Order{
		ID:        id,
		Timestamp: s.now().UTC(),
		Items:     items,
		Coupon:    model.CouponPtr(snapshot.CouponCode()),
		Totals:    totals,
	}
	if customer != nil {
		c := *customer
		order.Customer = &c
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.orders
	next := make([]model.Order, 0, len(prev)+1)
	next = append(next, order)
	next = append(next, prev...)
	s.orders = next

	if err := kv.SetJSON(ctx, s.store, OrdersKey, s.orders); err != nil {
		s.orders = prev
		s.logger.Error().Err(err).Str("order_id", id).Msg("persist orders failed, rolled back")
		return model.Order{}, &PersistenceError{Key: OrdersKey, Err: err}
	}

	s.logger.Info().
		Str("order_id", id).
		Int("items", order.ItemCount()).
		Str("total", totals.Total.StringFixed(2)).
		Msg("order committed")
	s.observers.OrderCommitted(ctx, order)
	return order, nil
}

// List 新的在前的複本
func (s *OrderService) List() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Order{}, s.orders...)
}

func (s *OrderService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}
