// Package notify publishes appointment lifecycle events. Delivery is best effort: a failed
// or dropped event is logged and counted but never fails the operation that raised it.
package notify

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/google/uuid"
)

type EventType string

const (
	EventBooked      EventType = "appointment.booked"
	EventConfirmed   EventType = "appointment.confirmed"
	EventCancelled   EventType = "appointment.cancelled"
	EventRescheduled EventType = "appointment.rescheduled"
	EventCompleted   EventType = "appointment.completed"
)

type Event struct {
	ID            uuid.UUID          `json:"id"`
	Type          EventType          `json:"type"`
	OccurredAt    time.Time          `json:"occurred_at"`
	AppointmentID uuid.UUID          `json:"appointment_id"`
	DoctorID      uuid.UUID          `json:"doctor_id"`
	PatientID     uuid.UUID          `json:"patient_id"`
	ServiceID     uuid.UUID          `json:"service_id"`
	Status        appointment.Status `json:"status"`
	Start         time.Time          `json:"scheduled_start"`
	End           time.Time          `json:"scheduled_end"`
	PreviousStart *time.Time         `json:"previous_start,omitempty"`
	Reason        string             `json:"reason,omitempty"`
	ActorID       uuid.UUID          `json:"actor_id"`
}

func NewEvent(t EventType, a *appointment.Appointment, actorID uuid.UUID) Event {
	return Event{
		ID:            uuid.New(),
		Type:          t,
		OccurredAt:    time.Now().UTC(),
		AppointmentID: a.ID,
		DoctorID:      a.DoctorID,
		PatientID:     a.PatientID,
		ServiceID:     a.ServiceID,
		Status:        a.Status,
		Start:         a.ScheduledStart,
		End:           a.EndsAt(),
		Reason:        a.CancellationReason,
		ActorID:       actorID,
	}
}

// Notifier accepts events without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Publisher delivers one event synchronously.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}
