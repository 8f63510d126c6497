package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var (
	ErrProducerClosed      = errors.New("producer is closed")
	ErrInvalidateParameter = errors.New("invalidate parameter")
)

const EventTypeHeader = "event_type"

// Writer 對應 kafka.Writer，方便以 gomock 替換
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers       []string
	Topic         string
	BatchTimeout  time.Duration
	WriteTimeout  time.Duration
	RetryAttempts int
}

// NewKafkaWriter 同步寫入，事件量不大不需要 batch
func NewKafkaWriter(cfg Config) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, ErrInvalidateParameter
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		MaxAttempts:  cfg.RetryAttempts,
		Transport: &kafka.Transport{
			Dial: (&net.Dialer{
				Timeout:   10 * time.Second, // 連接超時
				KeepAlive: 30 * time.Second, // TCP keepalive
			}).DialContext,
		},
		// 錯誤處理
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Printf("kafka producer error: "+msg, args...)
		}),
	}, nil
}

// EventProducer 將領域事件送到 kafka
// topic 由 writer 建立時設置
// key: aggregate id
type EventProducer struct {
	writer Writer
	logger *zerolog.Logger

	mu       sync.RWMutex
	closed   bool
	// 尚未送完的 PublishAsync
	inflight sync.WaitGroup
}

func NewEventProducer(writer Writer, logger *zerolog.Logger) *EventProducer {
	if writer == nil {
		panic("EventProducer dependency writer is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventProducer{writer: writer, logger: logger}
}

// 通用的事件消息準備函數
func PrepareEventMessage(evt event.Event) (Message, error) {
	eventBytes, err := json.Marshal(evt)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Key:   []byte(evt.GetAggregateID()),
		Value: eventBytes,
		Headers: []Header{
			{
				Key:   EventTypeHeader,
				Value: []byte(evt.Type()),
			},
		},
		Time: time.Now().UTC(),
	}, nil
}

// Publish 同步發送，會 block 到寫入完成
func (p *EventProducer) Publish(ctx context.Context, evts ...event.Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}
	return p.publish(ctx, evts...)
}

func (p *EventProducer) publish(ctx context.Context, evts ...event.Event) error {
	if len(evts) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(evts))
	for _, evt := range evts {
		msg, err := PrepareEventMessage(evt)
		if err != nil {
			return fmt.Errorf("prepare %s event: %w", evt.Type(), err)
		}
		msgs = append(msgs, msg.ToKafkaMessage())
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("produce events: %w", err)
	}
	return nil
}

// PublishAsync 次要事件發布，錯誤只記錄不回傳
// Close 會等待已接受的事件送完
func (p *EventProducer) PublishAsync(ctx context.Context, evts ...event.Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn().Err(ErrProducerClosed).Int("events", len(evts)).Msg("drop events")
		return
	}

	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := p.publish(pubCtx, evts...); err != nil {
			p.logger.Error().Err(err).Int("events", len(evts)).Msg("publish events failed")
		}
	}()
}

// Close 拒絕新事件，等 inflight 送完後關閉 writer
func (p *EventProducer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.inflight.Wait()
	return p.writer.Close()
}
