// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher that sends them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-reservation/internal/model"
)

// EventType names a reservation lifecycle event.  It doubles as the name
// of the durable queue the event is published to.
type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationUpdated   EventType = "reservation.updated"
	ReservationCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after a reservation change has been
// committed.  It carries enough information for downstream consumers to
// notify the user or refresh read models without querying the primary
// database.
type ReservationEvent struct {
	MessageID        string    `json:"message_id"`
	Type             EventType `json:"type"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
	ReservationID    uint64    `json:"reservation_id"`
	UserID           uint64    `json:"user_id"`
	ShowingID        uint64    `json:"showing_id"`
	Quantity         int       `json:"quantity"`          // 0 for cancellations
	PreviousQuantity int       `json:"previous_quantity"` // 0 for creations
	OccurredAt       string    `json:"occurred_at"`       // RFC 3339, UTC
}

// NewReservationEvent builds an event for r.  prev is the quantity held
// before the change.
func NewReservationEvent(typ EventType, r model.Reservation, prev int) ReservationEvent {
	ev := ReservationEvent{
		MessageID:        uuid.NewString(),
		Type:             typ,
		ReservationID:    r.ID,
		UserID:           r.UserID,
		ShowingID:        r.ShowingID,
		Quantity:         r.Quantity,
		PreviousQuantity: prev,
		OccurredAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if typ == ReservationCancelled {
		ev.Quantity = 0
	}
	return ev
}
