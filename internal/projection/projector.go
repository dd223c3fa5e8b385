// Package projection keeps the order status cache in step with domain events.
package projection

import (
	"context"
	"fmt"
	"log/slog"

	"supplychain-backend/internal/cache"
	"supplychain-backend/internal/events"
)

// Deduper remembers which events a service has already applied.
type Deduper interface {
	MarkSeen(ctx context.Context, service, eventID string) (bool, error)
	Forget(ctx context.Context, service, eventID string) error
}

type Projector struct {
	Service string
	Status  cache.OrderStatus
	Dedup   Deduper
	Log     *slog.Logger
}

func New(service string, status cache.OrderStatus, dedup Deduper, log *slog.Logger) *Projector {
	return &Projector{Service: service, Status: status, Dedup: dedup, Log: log}
}

// Handle applies env at most once. A failed projection releases the dedup
// marker so the retried message is applied again.
func (p *Projector) Handle(ctx context.Context, env events.Envelope) error {
	fresh, err := p.Dedup.MarkSeen(ctx, p.Service, env.EventID)
	if err != nil {
		return fmt.Errorf("dedup %s: %w", env.EventID, err)
	}
	if !fresh {
		p.Log.Debug("duplicate event skipped", "event_id", env.EventID, "event_type", env.EventType)
		return nil
	}

	if err := p.apply(ctx, env); err != nil {
		if ferr := p.Dedup.Forget(ctx, p.Service, env.EventID); ferr != nil {
			p.Log.Warn("dedup marker not released", "event_id", env.EventID, "error", ferr)
		}
		return err
	}
	return nil
}

func (p *Projector) apply(ctx context.Context, env events.Envelope) error {
	switch env.EventType {
	case events.OrderCreated, events.OrderStatusChanged:
		pl, err := events.Decode[events.OrderPayload](env.Payload)
		if err != nil {
			return err
		}
		return p.Status.Set(ctx, pl.OrderID, pl.Status)

	case events.DeliveryStatusChanged:
		pl, err := events.Decode[events.DeliveryPayload](env.Payload)
		if err != nil {
			return err
		}
		if pl.OrderStatus == "" {
			return nil
		}
		return p.Status.Set(ctx, pl.OrderID, pl.OrderStatus)

	case events.OrderDeleted:
		pl, err := events.Decode[events.OrderPayload](env.Payload)
		if err != nil {
			return err
		}
		return p.Status.Delete(ctx, pl.OrderID)
	}
	return nil
}
