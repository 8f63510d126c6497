package logger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/segmentio/kafka-go"
)

var ErrSinkClosed = errors.New("kafka log sink is closed")

const (
	defaultBufferSize = 10000
	defaultBatchSize  = 100
	defaultCloseWait  = 10 * time.Second
)

// KafkaWriter 將每一行 log 寫到 kafka topic
// Write 只放進 buffer，由內部程序批次送出
// buffer 滿時直接丟棄該行，不會 block 呼叫端
type KafkaWriter struct {
	w            producer.Writer
	logId        atomic.Int64
	dropped      atomic.Int64
	writeTimeout time.Duration
	closeWait    time.Duration
	batchSize    int

	mu         sync.RWMutex
	closed     bool
	receiverCh chan kafka.Message
	isStopped  chan struct{}
}

type Option func(*KafkaWriter)

func WithBufferSize(size int) Option {
	return func(kw *KafkaWriter) {
		if size > 0 {
			kw.receiverCh = make(chan kafka.Message, size)
		}
	}
}

func WithCloseWait(d time.Duration) Option {
	return func(kw *KafkaWriter) {
		if d > 0 {
			kw.closeWait = d
		}
	}
}

func NewKafkaWriter(w producer.Writer, opts ...Option) *KafkaWriter {
	if w == nil {
		panic("KafkaWriter dependency writer is nil")
	}
	kw := &KafkaWriter{
		w:            w,
		writeTimeout: 5 * time.Second,
		closeWait:    defaultCloseWait,
		batchSize:    defaultBatchSize,
		receiverCh:   make(chan kafka.Message, defaultBufferSize),
		isStopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(kw)
	}
	go kw.produce()
	return kw
}

func (kw *KafkaWriter) Write(p []byte) (n int, err error) {
	if kw == nil || kw.w == nil {
		return 0, fmt.Errorf("kafka logger is not init")
	}

	id := kw.logId.Add(1)
	kbuf := make([]byte, 8)
	binary.BigEndian.PutUint64(kbuf, uint64(id))

	// zerolog 會重用 buffer，需複製
	value := make([]byte, len(p))
	copy(value, p)
	msg := kafka.Message{
		Key:   kbuf, //不能使用模組名稱  因為要使用分區  依序號平均分配
		Value: value,
	}

	kw.mu.RLock()
	defer kw.mu.RUnlock()
	if kw.closed {
		return 0, ErrSinkClosed
	}
	select {
	case kw.receiverCh <- msg:
	default:
		kw.dropped.Add(1)
	}
	return len(p), nil
}

// Dropped buffer 滿而被丟棄的 log 數
func (kw *KafkaWriter) Dropped() int64 {
	return kw.dropped.Load()
}

// 內部發送程序，receiverCh 關閉且消耗完才結束
func (kw *KafkaWriter) produce() {
	defer close(kw.isStopped)

	buffer := make([]kafka.Message, 0, kw.batchSize)
	for msg := range kw.receiverCh {
		buffer = append(buffer, msg)
	collect:
		for len(buffer) < kw.batchSize {
			select {
			case next, ok := <-kw.receiverCh:
				if !ok {
					break collect
				}
				buffer = append(buffer, next)
			default:
				break collect
			}
		}
		kw.send(buffer)
		buffer = buffer[:0]
	}
}

func (kw *KafkaWriter) send(msgs []kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), kw.writeTimeout)
	defer cancel()
	if err := kw.w.WriteMessages(ctx, msgs...); err != nil {
		// 不能再寫回 zerolog，避免遞迴
		log.Printf("kafka log sink send %d msgs failed: %v", len(msgs), err)
	}
}

// Close 停止接收並送出 buffer 內剩餘的 log
func (kw *KafkaWriter) Close() error {
	kw.mu.Lock()
	if kw.closed {
		kw.mu.Unlock()
		return nil
	}
	kw.closed = true
	close(kw.receiverCh)
	kw.mu.Unlock()

	var err error
	select {
	case <-kw.isStopped:
	case <-time.After(kw.closeWait):
		err = fmt.Errorf("kafka log sink not drained within %s, some logs will lose", kw.closeWait)
	}
	return errors.Join(err, kw.w.Close())
}
