package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/infra/repository/kv"
	"github.com/RoyceAzure/lab/storefront/internal/pkg/util"
	"github.com/RoyceAzure/lab/storefront/internal/pricing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type ICartService interface {
	Load(ctx context.Context) error
	Flush(ctx context.Context) error
	AddItem(ctx context.Context, name string, price decimal.Decimal) (model.LineItem, error)
	RemoveItem(ctx context.Context, name string) error
	SetQuantity(ctx context.Context, name string, qty int) error
	Clear(ctx context.Context) error
	ApplyCoupon(ctx context.Context, code string) error
	ClearCoupon(ctx context.Context) error
	Snapshot() model.CartSnapshot
	Totals() model.Totals
	Locked() bool
}

// CartService 購物車狀態
// 所有變更都在同一把鎖內完成：修改 -> 寫入儲存 -> 通知 observer
// 寫入失敗會還原記憶體狀態
// 結帳送出遠端期間購物車會被凍結，避免送出的金額與本地不一致
type CartService struct {
	mu        sync.Mutex
	store     kv.Store
	engine    *pricing.Engine
	observers *Observers
	logger    *zerolog.Logger

	cart   model.Cart
	coupon string
	locked bool
}

func NewCartService(store kv.Store, engine *pricing.Engine, observers *Observers, logger *zerolog.Logger) *CartService {
	if util.IsNil(store) {
		panic("CartService dependency store is nil")
	}
	if engine == nil {
		panic("CartService dependency engine is nil")
	}
	if observers == nil {
		observers = NewObservers()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CartService{
		store:     store,
		engine:    engine,
		observers: observers,
		logger:    logger,
		cart:      model.NewCart(),
	}
}

var _ ICartService = (*CartService)(nil)

// Load 從儲存還原，沒有資料視為空購物車
// 不合法的項目(數量 < 1、負價格)直接丟棄
func (s *CartService) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := model.NewCart()
	if err := kv.GetJSON(ctx, s.store, CartKey, &stored); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("load cart: %w", err)
	}

	cart := model.NewCart()
	for key, item := range stored {
		valid, err := model.NewLineItem(item.Name, item.UnitPrice, item.Quantity)
		if err != nil || valid.Name != key {
			s.logger.Warn().Str("key", key).Err(err).Msg("drop invalid stored cart item")
			continue
		}
		cart[key] = valid
	}

	var coupon *string
	if err := kv.GetJSON(ctx, s.store, CouponKey, &coupon); err != nil && !errors.Is(err, kv.ErrNotFound) {
		return fmt.Errorf("load coupon: %w", err)
	}

	s.cart = cart
	s.coupon = ""
	if coupon != nil {
		s.coupon = *coupon
	}
	s.logger.Info().Int("items", len(cart)).Str("coupon", s.coupon).Msg("cart restored")
	return nil
}

// Flush shutdown 前再寫一次完整狀態
func (s *CartService) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistCart(ctx); err != nil {
		return err
	}
	return s.persistCoupon(ctx)
}

// AddItem 不存在就以數量 1 加入，存在則數量 +1
// 第一次加入時的價格為準，之後同名商品帶不同價格會被忽略
func (s *CartService) AddItem(ctx context.Context, name string, price decimal.Decimal) (model.LineItem, error) {
	if err := model.ValidateItem(name, price); err != nil {
		return model.LineItem{}, err
	}

	var added model.LineItem
	err := s.mutateCart(ctx, func(cart model.Cart) error {
		item, ok := cart[name]
		if !ok {
			item = model.LineItem{Name: name, UnitPrice: price, Quantity: 1}
		} else {
			if !item.UnitPrice.Equal(price) {
				s.logger.Debug().
					Str("name", name).
					Str("stored_price", item.UnitPrice.String()).
					Str("ignored_price", price.String()).
					Msg("keep first price for existing item")
			}
			item.Quantity++
		}
		cart[name] = item
		added = item
		return nil
	})
	if err != nil {
		return model.LineItem{}, err
	}
	return added, nil
}

// RemoveItem 不存在也不報錯
func (s *CartService) RemoveItem(ctx context.Context, name string) error {
	return s.mutateCart(ctx, func(cart model.Cart) error {
		delete(cart, name)
		return nil
	})
}

// SetQuantity qty <= 0 等同 RemoveItem
// 商品不在購物車內回傳 ErrItemNotInCart
func (s *CartService) SetQuantity(ctx context.Context, name string, qty int) error {
	return s.mutateCart(ctx, func(cart model.Cart) error {
		item, ok := cart[name]
		if qty <= 0 {
			delete(cart, name)
			return nil
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrItemNotInCart, name)
		}
		item.Quantity = qty
		cart[name] = item
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context) error {
	return s.mutateCart(ctx, func(cart model.Cart) error {
		for k := range cart {
			delete(cart, k)
		}
		return nil
	})
}

// ApplyCoupon 只記錄代碼，折扣在計算 totals 時才套用
func (s *CartService) ApplyCoupon(ctx context.Context, code string) error {
	return s.mutateCoupon(ctx, code)
}

func (s *CartService) ClearCoupon(ctx context.Context) error {
	return s.mutateCoupon(ctx, "")
}

func (s *CartService) Snapshot() model.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *CartService) Totals() model.Totals {
	return s.engine.ComputeSnapshot(s.Snapshot())
}

func (s *CartService) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

// beginCheckout 驗證非空並凍結購物車
func (s *CartService) beginCheckout() (model.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return model.CartSnapshot{}, ErrCartLocked
	}
	if s.cart.IsEmpty() {
		return model.CartSnapshot{}, ErrEmptyCart
	}
	s.locked = true
	return s.snapshotLocked(), nil
}

// endCheckout 解除凍結，clear 為 true 時同時清空購物車
func (s *CartService) endCheckout(ctx context.Context, clear bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked = false
	if !clear {
		return nil
	}
	return s.applyLocked(ctx, func(cart model.Cart) error {
		for k := range cart {
			delete(cart, k)
		}
		return nil
	})
}

func (s *CartService) mutateCart(ctx context.Context, fn func(cart model.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrCartLocked
	}
	return s.applyLocked(ctx, fn)
}

func (s *CartService) applyLocked(ctx context.Context, fn func(cart model.Cart) error) error {
	prev := s.cart.Clone()
	if err := fn(s.cart); err != nil {
		s.cart = prev
		return err
	}
	if err := s.persistCart(ctx); err != nil {
		s.cart = prev
		s.logger.Error().Err(err).Msg("persist cart failed, rolled back")
		return err
	}
	s.observers.CartChanged(ctx, s.snapshotLocked())
	return nil
}

func (s *CartService) mutateCoupon(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrCartLocked
	}
	prev := s.coupon
	s.coupon = code
	if err := s.persistCoupon(ctx); err != nil {
		s.coupon = prev
		s.logger.Error().Err(err).Msg("persist coupon failed, rolled back")
		return err
	}
	s.observers.CartChanged(ctx, s.snapshotLocked())
	return nil
}

func (s *CartService) persistCart(ctx context.Context) error {
	if err := kv.SetJSON(ctx, s.store, CartKey, s.cart); err != nil {
		return &PersistenceError{Key: CartKey, Err: err}
	}
	return nil
}

func (s *CartService) persistCoupon(ctx context.Context) error {
	if err := kv.SetJSON(ctx, s.store, CouponKey, model.CouponPtr(s.coupon)); err != nil {
		return &PersistenceError{Key: CouponKey, Err: err}
	}
	return nil
}

func (s *CartService) snapshotLocked() model.CartSnapshot {
	return model.CartSnapshot{
		Items:  s.cart.Items(),
		Coupon: model.CouponPtr(s.coupon),
	}
}
