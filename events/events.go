// Package events publishes order status changes to Kafka.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"marketplace-api/models"
)

const (
	EventOrderStatusChanged = "OrderStatusChanged"
	eventVersion            = 1
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderStatusChangedPayload struct {
	OrderID        string             `json:"order_id"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
	NewStatus      models.OrderStatus `json:"new_status"`
	ActorRole      models.UserRole    `json:"actor_role"`
	ChangedBy      string             `json:"changed_by"`
}

// NewStatusChanged wraps a committed transition in a v1 envelope
func NewStatusChanged(producer, traceID string, change models.StatusChange) (Envelope, error) {
	payload, err := json.Marshal(OrderStatusChangedPayload{
		OrderID:        change.OrderID,
		PreviousStatus: change.From,
		NewStatus:      change.To,
		ActorRole:      change.Role,
		ChangedBy:      change.ChangedBy,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("encode payload: %w", err)
	}
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		EventVersion:  eventVersion,
		OccurredAt:    change.At.UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: change.OrderID,
		Payload:       payload,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope into T
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
