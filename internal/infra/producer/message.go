package producer

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// Header 代表 Kafka 消息的標頭
type Header struct {
	Key   string
	Value []byte
}

// Message 代表一個 Kafka 消息
// Key 用於分區分配，相同 aggregate 的事件會進到同一個分區，保證順序
type Message struct {
	Key     []byte
	Value   []byte
	Headers []Header
	Time    time.Time
}

func (m Message) ToKafkaMessage() kafka.Message {
	headers := make([]kafka.Header, len(m.Headers))
	for i, h := range m.Headers {
		headers[i] = kafka.Header{Key: h.Key, Value: h.Value}
	}
	return kafka.Message{
		Key:     m.Key,
		Value:   m.Value,
		Headers: headers,
		Time:    m.Time,
	}
}
