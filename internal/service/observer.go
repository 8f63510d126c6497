package service

import (
	"context"
	"sync"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
)

// Observer 狀態變更通知，取代直接操作畫面
// 在 store 的鎖內被呼叫，不可回頭呼叫 CartService / OrderService 的方法，也不可 block
type Observer interface {
	OnCartChanged(ctx context.Context, snapshot model.CartSnapshot)
	OnOrderCommitted(ctx context.Context, order model.Order)
}

// ObserverFuncs 只關心其中一種通知時使用
type ObserverFuncs struct {
	CartChanged    func(ctx context.Context, snapshot model.CartSnapshot)
	OrderCommitted func(ctx context.Context, order model.Order)
}

func (f ObserverFuncs) OnCartChanged(ctx context.Context, snapshot model.CartSnapshot) {
	if f.CartChanged != nil {
		f.CartChanged(ctx, snapshot)
	}
}

func (f ObserverFuncs) OnOrderCommitted(ctx context.Context, order model.Order) {
	if f.OrderCommitted != nil {
		f.OrderCommitted(ctx, order)
	}
}

// Observers fan-out，依註冊順序通知
type Observers struct {
	mu   sync.RWMutex
	list []Observer
}

func NewObservers(obs ...Observer) *Observers {
	o := &Observers{}
	for _, ob := range obs {
		o.Register(ob)
	}
	return o
}

func (o *Observers) Register(ob Observer) {
	if ob == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.list = append(o.list, ob)
}

func (o *Observers) snapshot() []Observer {
	if o == nil {
		return nil
	}
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]Observer(nil), o.list...)
}

func (o *Observers) CartChanged(ctx context.Context, snapshot model.CartSnapshot) {
	for _, ob := range o.snapshot() {
		ob.OnCartChanged(ctx, snapshot)
	}
}

func (o *Observers) OrderCommitted(ctx context.Context, order model.Order) {
	for _, ob := range o.snapshot() {
		ob.OnOrderCommitted(ctx, order)
	}
}
