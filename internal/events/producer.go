// Package events publishes domain events to Kafka. Publishing never blocks the
// request that caused the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicOrders   = "order_events"
	TopicProducts = "product_events"
	TopicUsers    = "user_events"

	OrderPlaced         = "order_placed"
	OrderStatusChanged  = "order_status_changed"
	ProductCreated      = "product_created"
	ProductPriceUpdated = "product_price_updated"
	UserLoggedIn        = "user_logged_in"
	UserSignedUp        = "user_signed_up"
)

const publishTimeout = 5 * time.Second

type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type Emitter interface {
	Emit(topic, key, eventType string, payload any)
}

type Observer interface {
	ObserveEvent(topic string, err error)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	log    *slog.Logger
	obs    Observer
	wg     sync.WaitGroup
	now    func() time.Time
}

func NewProducer(brokers []string, log *slog.Logger, obs Observer) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, log, obs)
}

func newProducer(w messageWriter, log *slog.Logger, obs Observer) *Producer {
	return &Producer{writer: w, log: log, obs: obs, now: time.Now}
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: data, Time: event.OccurredAt}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

// Emit publishes on a background goroutine with its own deadline and only
// logs the outcome.
func (p *Producer) Emit(topic, key, eventType string, payload any) {
	ev := Event{Type: eventType, OccurredAt: p.now().UTC(), Payload: payload}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		err := p.PublishEvent(ctx, topic, key, ev)
		if p.obs != nil {
			p.obs.ObserveEvent(topic, err)
		}
		if err != nil {
			p.log.Warn("event_publish_error", "topic", topic, "type", eventType, "key", key, "error", err)
			return
		}
		p.log.Debug("event_published", "topic", topic, "type", eventType, "key", key)
	}()
}

// Close waits for in-flight publishes and closes the writer.
func (p *Producer) Close() error {
	p.wg.Wait()
	return p.writer.Close()
}

type Nop struct{}

func (Nop) Emit(string, string, string, any) {}
