package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// События жизненного цикла live request.
const (
	EventLiveRequestCreated = "live_request.created"
	EventLiveRequestStarted = "live_request.started"
)

// LiveRequestEventProducer: интерфейс для отправки событий в Kafka (для подмены моком в тестах).
type LiveRequestEventProducer interface {
	ProduceLiveRequestEvent(ctx context.Context, event string, payload map[string]interface{})
}

// Producer пишет события live request в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewProducer создаёт продюсер. Если brokers или topic пустые, методы no-op.
func NewProducer(brokers []string, topic string, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	if len(brokers) == 0 || topic == "" {
		return &Producer{log: log}
	}
	return &Producer{
		log: log,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Enabled reports whether events actually leave the process.
func (p *Producer) Enabled() bool {
	return p.writer != nil
}

// ProduceLiveRequestEvent отправляет событие в топик. Ключ сообщения: live_request_id,
// чтобы события одной заявки шли в одну партицию.
func (p *Producer) ProduceLiveRequestEvent(ctx context.Context, event string, payload map[string]interface{}) {
	if p.writer == nil {
		return
	}
	body, err := EncodeEvent(event, payload)
	if err != nil {
		p.log.Warn("kafka: marshal live request event", zap.String("event", event), zap.Error(err))
		return
	}
	msg := kafka.Message{Value: body}
	if id, ok := payload["live_request_id"]; ok {
		if key, err := json.Marshal(id); err == nil {
			msg.Key = key
		}
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("kafka: write live request event", zap.String("event", event), zap.Error(err))
	}
}

// EncodeEvent merges payload with the event name into a flat JSON object.
func EncodeEvent(event string, payload map[string]interface{}) ([]byte, error) {
	msg := map[string]interface{}{"event": event}
	for k, v := range payload {
		if k == "event" {
			continue
		}
		msg[k] = v
	}
	return json.Marshal(msg)
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
