package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/JoeShih716/go-mini-ledger/internal/app/core/domain"
	"github.com/JoeShih716/go-mini-ledger/internal/app/core/usecase"
)

// DefaultTopic 交易提交事件的預設 topic
const DefaultTopic = "transaction_committed"

// messageWriter 抽出 kafka.Writer 用到的部分，方便測試
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher 將交易提交事件寫入 Kafka
type Publisher struct {
	writer messageWriter
}

// NewPublisher 建立 Publisher
//
// 以帳戶 ID 作為 message key 並使用 Hash balancer，
// 同一帳戶的事件會進同一個 partition，保持提交順序。
func NewPublisher(brokers []string, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, event domain.TransactionCommitted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.TransactionID, err)
	}

	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.AccountID),
			Value: data,
			Time:  event.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte("TransactionCommitted")},
			},
		},
	)
}

// Close 關閉 writer，等待緩衝中的訊息送出
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ usecase.EventPublisher = (*Publisher)(nil)
