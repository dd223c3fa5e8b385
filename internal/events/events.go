package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	OrderCreated          = "OrderCreated"
	OrderStatusChanged    = "OrderStatusChanged"
	OrderDeleted          = "OrderDeleted"
	DeliveryStatusChanged = "DeliveryStatusChanged"
	SupplyOrderCreated    = "SupplyOrderCreated"
	SupplyOrderReceived   = "SupplyOrderReceived"
	ProductionStarted     = "ProductionStarted"
	ProductionCompleted   = "ProductionCompleted"

	Version = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps payload in a fresh envelope. key is the aggregate id
// and doubles as the correlation id.
func NewEnvelope(eventType, producer, key string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  Version,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: key,
		Payload:       raw,
	}, nil
}

func Decode[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

// Publisher emits domain events. Delivery is best effort: failures are
// logged by the implementation and never fail the calling request.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) {}

// OrNop returns p, or a Nop publisher when p is nil.
func OrNop(p Publisher) Publisher {
	if p == nil {
		return Nop{}
	}
	return p
}

type OrderPayload struct {
	OrderID     uint   `json:"order_id"`
	CustomerID  uint   `json:"customer_id,omitempty"`
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount,omitempty"`
}

type DeliveryPayload struct {
	DeliveryID  uint   `json:"delivery_id"`
	OrderID     uint   `json:"order_id"`
	Status      string `json:"status"`
	OrderStatus string `json:"order_status"`
}

type SupplyOrderPayload struct {
	SupplyOrderID uint   `json:"supply_order_id"`
	OrderNumber   string `json:"order_number"`
	SupplierID    uint   `json:"supplier_id"`
	Status        string `json:"status"`
	TotalAmount   string `json:"total_amount"`
}

type ProductionPayload struct {
	ProductionOrderID uint   `json:"production_order_id"`
	OrderNumber       string `json:"order_number"`
	ProductID         uint   `json:"product_id"`
	Quantity          int    `json:"quantity"`
	Status            string `json:"status"`
}
