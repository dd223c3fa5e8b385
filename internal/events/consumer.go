package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil only when the event was processed and its offset may be committed.
type Handler func(ctx context.Context, env Envelope) error

// reader is the part of *kafka.Reader the consumer drives.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	r          reader
	workers    int
	log        *slog.Logger
	backoff    time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, group, topic string, workers int, log *slog.Logger) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        group,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0,
		}),
		workers:    workers,
		log:        log,
		backoff:    200 * time.Millisecond,
		maxBackoff: 5 * time.Second,
	}
}

// Run fetches messages until ctx is cancelled. Each partition is pinned to
// one worker, so messages of a partition (and therefore of a key) are
// handled and committed in offset order. A failing message is retried
// until it succeeds; nothing after it on the partition is committed first.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	defer c.r.Close()

	lanes := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range lanes {
		lanes[i] = make(chan kafka.Message, 4)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				c.handle(ctx, m, h)
			}
		}(lanes[i])
	}

	var runErr error
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && ctx.Err() == nil {
				runErr = err
			}
			break
		}
		select {
		case lanes[lane(m.Partition, len(lanes))] <- m:
			continue
		case <-ctx.Done():
		}
		break
	}
	for _, in := range lanes {
		close(in)
	}
	wg.Wait()
	return runErr
}

// lane picks the worker for a partition.
func lane(partition, n int) int {
	if partition < 0 {
		partition = -partition
	}
	return partition % n
}

// handle processes m, retrying with backoff, and commits it on success.
// Once ctx is cancelled the message is left uncommitted for redelivery.
func (c *Consumer) handle(ctx context.Context, m kafka.Message, h Handler) {
	wait := c.backoff
	for ctx.Err() == nil {
		err := c.process(ctx, m, h)
		if err == nil {
			if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				c.log.Error("commit offset", "partition", m.Partition, "offset", m.Offset, "error", err)
			}
			return
		}
		c.log.Error("handle event, retrying", "partition", m.Partition, "offset", m.Offset, "retry_in", wait, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
		if wait *= 2; c.maxBackoff > 0 && wait > c.maxBackoff {
			wait = c.maxBackoff
		}
	}
}

// process decodes one message. Undecodable messages are logged and
// acknowledged so they cannot block the partition.
func (c *Consumer) process(ctx context.Context, m kafka.Message, h Handler) error {
	var env Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.EventID == "" {
		c.log.Warn("skipping malformed event", "offset", m.Offset, "key", string(m.Key))
		return nil
	}
	return h(ctx, env)
}
