package service

import (
	"context"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/rs/zerolog"
)

// EventPublisher 非同步發送 domain event
type EventPublisher interface {
	PublishAsync(ctx context.Context, evts ...event.Event)
}

// EventObserver 將狀態變更轉為 kafka 事件
type EventObserver struct {
	publisher EventPublisher
}

func NewEventObserver(publisher EventPublisher) *EventObserver {
	if publisher == nil {
		panic("EventObserver dependency publisher is nil")
	}
	return &EventObserver{publisher: publisher}
}

func (o *EventObserver) OnCartChanged(ctx context.Context, snapshot model.CartSnapshot) {
	o.publisher.PublishAsync(ctx, event.NewCartChangedEvent(snapshot))
}

func (o *EventObserver) OnOrderCommitted(ctx context.Context, order model.Order) {
	o.publisher.PublishAsync(ctx, event.NewOrderCommittedEvent(order))
}

// OrderArchiver 訂單備份
type OrderArchiver interface {
	SaveOrder(ctx context.Context, order model.Order) error
}

// OrderArchiveReader 讀取 postgres 上的封存訂單
// 找不到時回傳 nil, nil
type OrderArchiveReader interface {
	GetOrderByID(ctx context.Context, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, limit int) ([]model.Order, error)
}

const archiveTimeout = 10 * time.Second

// ArchiveObserver 訂單成立後背景寫入 postgres
// 失敗只記錄，本地 ledger 為主
type ArchiveObserver struct {
	archiver OrderArchiver
	logger   *zerolog.Logger
	wg       sync.WaitGroup
}

func NewArchiveObserver(archiver OrderArchiver, logger *zerolog.Logger) *ArchiveObserver {
	if archiver == nil {
		panic("ArchiveObserver dependency archiver is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ArchiveObserver{archiver: archiver, logger: logger}
}

func (o *ArchiveObserver) OnCartChanged(context.Context, model.CartSnapshot) {}

func (o *ArchiveObserver) OnOrderCommitted(ctx context.Context, order model.Order) {
	o.wg.Add(1)
	go o.archive(ctx, order)
}

func (o *ArchiveObserver) archive(ctx context.Context, order model.Order) {
	defer o.wg.Done()
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := o.archiver.SaveOrder(archiveCtx, order); err != nil {
		o.logger.Error().Err(err).Str("order_id", order.ID).Msg("archive order failed")
		return
	}
	o.logger.Debug().Str("order_id", order.ID).Msg("order archived")
}

// Wait 等待背景寫入完成，shutdown 時使用
func (o *ArchiveObserver) Wait() {
	o.wg.Wait()
}

// LogObserver 記錄每次變更
type LogObserver struct {
	logger *zerolog.Logger
}

func NewLogObserver(logger *zerolog.Logger) *LogObserver {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCartChanged(_ context.Context, snapshot model.CartSnapshot) {
	o.logger.Debug().
		Int("lines", len(snapshot.Items)).
		Str("coupon", snapshot.CouponCode()).
		Msg("cart changed")
}

func (o *LogObserver) OnOrderCommitted(_ context.Context, order model.Order) {
	o.logger.Info().
		Str("order_id", order.ID).
		Int("items", order.ItemCount()).
		Msg("order committed")
}
