package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	AppointmentBooked      = "APPOINTMENT_BOOKED"
	AppointmentConfirmed   = "APPOINTMENT_CONFIRMED"
	AppointmentRejected    = "APPOINTMENT_REJECTED"
	AppointmentCancelled   = "APPOINTMENT_CANCELLED"
	AppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	AppointmentStarted     = "APPOINTMENT_STARTED"
	AppointmentCompleted   = "APPOINTMENT_COMPLETED"
	AppointmentNoShow      = "APPOINTMENT_NO_SHOW"
	SlotReserved           = "SLOT_RESERVED"
	SlotReleased           = "SLOT_RELEASED"
	SlotBlocked            = "SLOT_BLOCKED"
	SlotUnblocked          = "SLOT_UNBLOCKED"
)

// Event is what the notification side (SMS, email) consumes. Delivery is
// best effort; the appointment ledger stays the source of truth.
type Event struct {
	ID            uuid.UUID      `json:"id"`
	Type          string         `json:"type"`
	AppointmentID *uuid.UUID     `json:"appointment_id,omitempty"`
	SlotID        *uuid.UUID     `json:"slot_id,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RoutingKey maps APPOINTMENT_NO_SHOW to appointment.no_show.
func RoutingKey(eventType string) string {
	head, tail, found := strings.Cut(strings.ToLower(eventType), "_")
	if !found {
		return head
	}
	return head + "." + tail
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
