package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status transitions:
//
//	pending → confirmed → completed
//	pending → cancelled
//	confirmed → cancelled
//
// completed and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HoldsSlot reports whether an appointment in this status still claims its time on the calendar.
func (s Status) HoldsSlot() bool {
	return s != StatusCancelled
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Note is an append-only audit remark. Notes are the only thing that may change on a
// terminal appointment.
type Note struct {
	At     time.Time `json:"at"`
	Author uuid.UUID `json:"author"`
	Text   string    `json:"text"`
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	PatientID    uuid.UUID  `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID     uuid.UUID  `gorm:"column:doctor_id;type:uuid;not null;index:idx_appointments_doctor_start,priority:1"`
	ServiceID    uuid.UUID  `gorm:"column:service_id;type:uuid;not null;index"`
	MedicalAidID *uuid.UUID `gorm:"column:medical_aid_id;type:uuid"`

	ScheduledStart time.Time `gorm:"column:scheduled_start;not null;index:idx_appointments_doctor_start,priority:2"`
	// ScheduledEnd is ScheduledStart + DurationMins, stored for range queries and the exclusion constraint.
	ScheduledEnd time.Time `gorm:"column:scheduled_end;not null"`
	DurationMins int       `gorm:"column:duration_mins;not null;check:duration_mins > 0"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`
	Reason string `gorm:"column:reason;type:text"`
	Notes  []Note `gorm:"column:notes;type:jsonb;serializer:json"`

	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason string     `gorm:"column:cancellation_reason;type:text"`
	CancelledBy        *uuid.UUID `gorm:"column:cancelled_by;type:uuid"`

	CreatedBy uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
}

func (Appointment) TableName() string {
	return "practice.appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledStart.Add(time.Duration(a.DurationMins) * time.Minute)
}

// Overlaps applies the half-open interval test: [start,end) and [a.start,a.end) intersect
// iff start < a.end && a.start < end. Touching endpoints do not overlap.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndsAt()) && a.ScheduledStart.Before(end)
}

func (a *Appointment) CanTransitionTo(next Status) bool {
	return a.Status.CanTransitionTo(next)
}

func (a *Appointment) Confirm(now time.Time) error {
	if !a.CanTransitionTo(StatusConfirmed) {
		return ErrInvalidTransition
	}
	a.Status = StatusConfirmed
	a.ConfirmedAt = &now
	return nil
}

func (a *Appointment) Complete(now time.Time) error {
	if !a.CanTransitionTo(StatusCompleted) {
		return ErrInvalidTransition
	}
	a.Status = StatusCompleted
	a.CompletedAt = &now
	return nil
}

func (a *Appointment) Cancel(reason string, cancelledBy uuid.UUID, now time.Time) error {
	if !a.CanTransitionTo(StatusCancelled) {
		return ErrInvalidTransition
	}
	a.Status = StatusCancelled
	a.CancelledAt = &now
	a.CancellationReason = reason
	a.CancelledBy = &cancelledBy
	return nil
}

// MoveTo changes the slot start, keeping the duration. Terminal appointments cannot move.
func (a *Appointment) MoveTo(start time.Time) error {
	if a.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	a.ScheduledStart = start
	a.ScheduledEnd = a.EndsAt()
	return nil
}

type BookCommand struct {
	PatientID    uuid.UUID
	DoctorID     uuid.UUID
	ServiceID    uuid.UUID
	MedicalAidID *uuid.UUID
	Start        time.Time
	Reason       string
}

type RescheduleCommand struct {
	AppointmentID uuid.UUID
	NewStart      time.Time
}

type CancelCommand struct {
	AppointmentID uuid.UUID
	Reason        string
}

type ListAppointmentsQuery struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    *Status
	// [From, To) bounds on ScheduledStart
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type PagedAppointments struct {
	Appointments []*Appointment
	TotalCount   int64
	Page         int
	PageSize     int
	TotalPages   int
}
