package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"paytrack/internal/core"
)

type EventType string

const (
	EventCreated EventType = "payment.created"
	EventUpdated EventType = "payment.updated"
	EventDeleted EventType = "payment.deleted"
)

// PaymentEvent announces a committed payment mutation. Payment carries the
// state after the change and is nil for deletions.
type PaymentEvent struct {
	Type      EventType            `json:"type"`
	ID        string               `json:"id"`
	Payment   *core.PaymentDetails `json:"payment,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func NewPaymentEvent(t EventType, id string, p *core.PaymentDetails) PaymentEvent {
	return PaymentEvent{Type: t, ID: id, Payment: p, Timestamp: time.Now().UTC()}
}

func (e PaymentEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Validate checks that the event is actionable by a consumer.
func (e PaymentEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated:
		if e.Payment == nil {
			return fmt.Errorf("%s event for %q has no payment", e.Type, e.ID)
		}
	case EventDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ID == "" {
		return errors.New("event has no payment id")
	}
	return nil
}

func PaymentEventFromJSON(data []byte) (PaymentEvent, error) {
	var e PaymentEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return PaymentEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return PaymentEvent{}, err
	}
	return e, nil
}
