package appointment

import (
	"context"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/google/uuid"
)

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, q *ListAppointmentsQuery) (*PagedAppointments, error)

	// Calendar returns an unlocked, read-only view of a doctor's calendar.
	// Returns doctor.ErrDoctorNotFound for an unknown doctor.
	Calendar(ctx context.Context, doctorID uuid.UUID) (CalendarReader, error)

	// WithDoctorCalendar runs fn while holding the doctor's calendar exclusively, so that
	// reads made through cal and the writes fn performs commit as one unit. Nothing fn wrote
	// is kept if fn returns an error. Returns doctor.ErrDoctorNotFound for an unknown doctor.
	WithDoctorCalendar(ctx context.Context, doctorID uuid.UUID, fn func(cal Calendar) error) error

	// UpdateStatus stores a's status fields only if the stored status still equals from;
	// otherwise it returns ErrInvalidTransition.
	UpdateStatus(ctx context.Context, a *Appointment, from Status) error

	// AppendNote adds n to the appointment's notes regardless of status.
	AppendNote(ctx context.Context, id uuid.UUID, n Note) (*Appointment, error)
}

// CalendarReader exposes the data availability decisions are made on.
type CalendarReader interface {
	Doctor() *doctor.Doctor

	// ListActive returns slot-holding appointments intersecting [from, to), ordered by start.
	ListActive(ctx context.Context, from, to time.Time, excludeID *uuid.UUID) ([]*Appointment, error)
}

// Calendar is the write side of a locked doctor calendar.
type Calendar interface {
	CalendarReader

	// Get loads one of this doctor's appointments. Returns ErrAppointmentNotFound otherwise.
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)

	Create(ctx context.Context, a *Appointment) error

	// Reschedule stores a's new slot. Returns ErrInvalidTransition if the stored
	// appointment has become terminal.
	Reschedule(ctx context.Context, a *Appointment) error
}
