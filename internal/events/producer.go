package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes envelopes to one Kafka topic from a single background
// goroutine fed by a buffered inbox.
type Producer struct {
	w       *kafka.Writer
	service string
	log     *slog.Logger

	inbox     chan kafka.Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewProducer(brokers []string, topic, service string, buf int, log *slog.Logger) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		},
		service: service,
		log:     log,
		inbox:   make(chan kafka.Message, buf),
		done:    make(chan struct{}),
	}
}

// Start runs the write loop until Close drains the inbox.
func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.log.Error("publish event failed", "key", string(m.Key), "error", err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.Error("close kafka writer", "error", err)
		}
	}()
}

// Publish never blocks. Events are dropped when the inbox is full.
func (p *Producer) Publish(ctx context.Context, eventType, key string, payload any) {
	env, err := NewEnvelope(eventType, p.service, key, payload)
	if err != nil {
		p.log.Error("build event", "event_type", eventType, "error", err)
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Error("encode event", "event_type", eventType, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if ctx.Err() != nil {
		p.log.Warn("event dropped", "event_type", eventType, "key", key, "error", ctx.Err())
		return
	}
	select {
	case p.inbox <- msg:
	default:
		p.log.Warn("event dropped, inbox full", "event_type", eventType, "key", key)
	}
}

// Close stops accepting events, flushes the inbox and waits for the writer.
func (p *Producer) Close() {
	p.closeOnce.Do(func() { close(p.inbox) })
	<-p.done
}
