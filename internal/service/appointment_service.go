package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/availability"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/notify"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxNoteLength = 2000

type AppointmentServiceDeps struct {
	Appointments appointment.Repository
	Patients     patient.Repository
	Services     catalog.Repository
	MedicalAids  medicalaid.Repository
	Checker      *availability.Checker
	Notifier     notify.Notifier
	Audit        *AuditService
	Metrics      *metrics.Collector
	Log          *zap.Logger
	// SlotStep spaces the start times offered by FreeSlots
	SlotStep time.Duration
}

// AppointmentService is the only writer of appointments. Book and Reschedule run the
// availability check and the write inside one unit of work on the doctor's calendar;
// status changes are compare-and-set on the current status.
type AppointmentService struct {
	repo        appointment.Repository
	patients    patient.Repository
	services    catalog.Repository
	medicalAids medicalaid.Repository
	checker     *availability.Checker
	notifier    notify.Notifier
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
	slotStep    time.Duration
	now         func() time.Time
}

func NewAppointmentService(d AppointmentServiceDeps) *AppointmentService {
	notifier := d.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	step := d.SlotStep
	if step <= 0 {
		step = 15 * time.Minute
	}
	return &AppointmentService{
		repo:        d.Appointments,
		patients:    d.Patients,
		services:    d.Services,
		medicalAids: d.MedicalAids,
		checker:     d.Checker,
		notifier:    notifier,
		auditSvc:    d.Audit,
		metrics:     d.Metrics,
		log:         d.Log,
		slotStep:    step,
		now:         time.Now,
	}
}

func (s *AppointmentService) Book(ctx context.Context, cmd *appointment.BookCommand, actor domain.Actor) (*appointment.Appointment, error) {
	var errs []string
	if cmd.PatientID == uuid.Nil {
		errs = append(errs, "patient_id is required")
	}
	if cmd.DoctorID == uuid.Nil {
		errs = append(errs, "doctor_id is required")
	}
	if cmd.ServiceID == uuid.Nil {
		errs = append(errs, "service_id is required")
	}
	if cmd.Start.IsZero() {
		errs = append(errs, "start is required")
	} else if !cmd.Start.After(s.now()) {
		errs = append(errs, "start must be in the future")
	}
	if len(errs) > 0 {
		s.outcome("book", "invalid")
		return nil, &ValidationError{Fields: errs}
	}

	if actor.Role == domain.RolePatient && !actor.Owns(cmd.PatientID) {
		return nil, ErrForbidden
	}

	p, err := s.patients.GetByID(ctx, cmd.PatientID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive() {
		s.outcome("book", "invalid")
		return nil, invalid("patient is inactive")
	}

	svc, err := s.services.GetByID(ctx, cmd.ServiceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive {
		s.outcome("book", "invalid")
		return nil, invalid("service is not currently offered")
	}

	if cmd.MedicalAidID != nil {
		if err := requireActiveMedicalAid(ctx, s.medicalAids, *cmd.MedicalAidID); err != nil {
			return nil, err
		}
	}

	a := &appointment.Appointment{
		PatientID:      cmd.PatientID,
		DoctorID:       cmd.DoctorID,
		ServiceID:      cmd.ServiceID,
		MedicalAidID:   cmd.MedicalAidID,
		ScheduledStart: cmd.Start,
		DurationMins:   svc.DurationMins,
		Status:         appointment.StatusPending,
		Reason:         strings.TrimSpace(cmd.Reason),
		CreatedBy:      actor.UserID,
	}
	a.ScheduledEnd = a.EndsAt()

	err = s.withCalendar(ctx, cmd.DoctorID, func(cal appointment.Calendar) error {
		ok, err := s.checker.IsAvailable(ctx, cal, a.ScheduledStart, a.DurationMins, nil)
		if err != nil {
			return err
		}
		if !ok {
			return appointment.ErrSlotUnavailable
		}
		return cal.Create(ctx, a)
	})
	if err != nil {
		s.outcome("book", outcomeOf(err))
		return nil, err
	}
	s.outcome("book", "ok")

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
	})
	s.notifier.Notify(ctx, notify.NewEvent(notify.EventBooked, a, actor.UserID))

	s.log.Info("appointment booked",
		zap.String("appointment_id", a.ID.String()),
		zap.String("doctor_id", a.DoctorID.String()),
		zap.Time("start", a.ScheduledStart),
		zap.String("booked_by", actor.UserID.String()),
	)
	return a, nil
}

func (s *AppointmentService) Reschedule(ctx context.Context, cmd *appointment.RescheduleCommand, actor domain.Actor) (*appointment.Appointment, error) {
	if cmd.NewStart.IsZero() {
		return nil, invalid("start is required")
	}

	a, err := s.repo.GetByID(ctx, cmd.AppointmentID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient && !actor.Owns(a.PatientID) {
		return nil, ErrForbidden
	}
	if a.Status.IsTerminal() {
		s.outcome("reschedule", "invalid")
		return nil, appointment.ErrInvalidTransition
	}
	if !cmd.NewStart.After(s.now()) {
		s.outcome("reschedule", "invalid")
		return nil, invalid("start must be in the future")
	}

	var previous time.Time
	err = s.withCalendar(ctx, a.DoctorID, func(cal appointment.Calendar) error {
		// reload under the lock; the row may have moved or closed since the read above
		current, err := cal.Get(ctx, a.ID)
		if err != nil {
			return err
		}
		if current.Status.IsTerminal() {
			return appointment.ErrInvalidTransition
		}

		ok, err := s.checker.IsAvailable(ctx, cal, cmd.NewStart, current.DurationMins, &current.ID)
		if err != nil {
			return err
		}
		if !ok {
			return appointment.ErrSlotUnavailable
		}

		previous = current.ScheduledStart
		if err := current.MoveTo(cmd.NewStart); err != nil {
			return err
		}
		if err := cal.Reschedule(ctx, current); err != nil {
			return err
		}
		a = current
		return nil
	})
	if err != nil {
		s.outcome("reschedule", outcomeOf(err))
		return nil, err
	}
	s.outcome("reschedule", "ok")

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionUpdate,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Changes: fmt.Sprintf(`{"scheduled_start":{"from":%q,"to":%q}}`,
			previous.UTC().Format(time.RFC3339), a.ScheduledStart.UTC().Format(time.RFC3339)),
	})
	event := notify.NewEvent(notify.EventRescheduled, a, actor.UserID)
	event.PreviousStart = &previous
	s.notifier.Notify(ctx, event)

	return a, nil
}

func (s *AppointmentService) Confirm(ctx context.Context, id uuid.UUID, actor domain.Actor) (*appointment.Appointment, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, actor, notify.EventConfirmed, func(a *appointment.Appointment) error {
		return a.Confirm(s.now())
	})
}

func (s *AppointmentService) Complete(ctx context.Context, id uuid.UUID, actor domain.Actor) (*appointment.Appointment, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, actor, notify.EventCompleted, func(a *appointment.Appointment) error {
		return a.Complete(s.now())
	})
}

func (s *AppointmentService) Cancel(ctx context.Context, cmd *appointment.CancelCommand, actor domain.Actor) (*appointment.Appointment, error) {
	reason := strings.TrimSpace(cmd.Reason)
	if len(reason) > maxNoteLength {
		return nil, invalid(fmt.Sprintf("reason must be at most %d characters", maxNoteLength))
	}
	return s.transition(ctx, cmd.AppointmentID, actor, notify.EventCancelled, func(a *appointment.Appointment) error {
		return a.Cancel(reason, actor.UserID, s.now())
	})
}

// AddNote appends an audit note. Notes may be added in every status, terminal ones included.
func (s *AppointmentService) AddNote(ctx context.Context, id uuid.UUID, text string, actor domain.Actor) (*appointment.Appointment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("note is required")
	}
	if len(text) > maxNoteLength {
		return nil, invalid(fmt.Sprintf("note must be at most %d characters", maxNoteLength))
	}

	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient && !actor.Owns(a.PatientID) {
		return nil, ErrForbidden
	}

	updated, err := s.repo.AppendNote(ctx, id, appointment.Note{At: s.now().UTC(), Author: actor.UserID, Text: text})
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionUpdate,
		ResourceType: "appointment_note",
		ResourceID:   id.String(),
	})
	return updated, nil
}

func (s *AppointmentService) Get(ctx context.Context, id uuid.UUID, actor domain.Actor) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient && !actor.Owns(a.PatientID) {
		return nil, ErrForbidden
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionRead,
		ResourceType: "appointment",
		ResourceID:   id.String(),
	})
	return a, nil
}

func (s *AppointmentService) List(ctx context.Context, q *appointment.ListAppointmentsQuery, actor domain.Actor) (*appointment.PagedAppointments, error) {
	// Patients can only see their own appointments
	if actor.Role == domain.RolePatient {
		if actor.PatientID == nil {
			return nil, ErrForbidden
		}
		q.PatientID = actor.PatientID
	}
	if q.Status != nil && !q.Status.IsValid() {
		return nil, invalid("status is invalid")
	}
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)
	return s.repo.List(ctx, q)
}

// FreeSlots lists the start times on date at which serviceID could be booked with doctorID.
func (s *AppointmentService) FreeSlots(ctx context.Context, doctorID, serviceID uuid.UUID, date time.Time) ([]time.Time, error) {
	svc, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return s.checker.FreeSlots(ctx, doctorID, date, svc.DurationMins, s.slotStep)
}

// Location is the practice time zone appointments are scheduled in.
func (s *AppointmentService) Location() *time.Location {
	return s.checker.Location()
}

func (s *AppointmentService) transition(
	ctx context.Context,
	id uuid.UUID,
	actor domain.Actor,
	event notify.EventType,
	apply func(a *appointment.Appointment) error,
) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient && !actor.Owns(a.PatientID) {
		return nil, ErrForbidden
	}

	from := a.Status
	if err := apply(a); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, a, from); err != nil {
		return nil, err
	}

	s.metrics.AppointmentTransitions.WithLabelValues(string(a.Status)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionUpdate,
		ResourceType: "appointment",
		ResourceID:   id.String(),
		Changes:      fmt.Sprintf(`{"status":{"from":%q,"to":%q}}`, from, a.Status),
	})
	s.notifier.Notify(ctx, notify.NewEvent(event, a, actor.UserID))

	s.log.Info("appointment status changed",
		zap.String("appointment_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(a.Status)),
	)
	return a, nil
}

func (s *AppointmentService) withCalendar(ctx context.Context, doctorID uuid.UUID, fn func(cal appointment.Calendar) error) error {
	start := time.Now()
	defer func() { s.metrics.CalendarLockWait.Observe(time.Since(start).Seconds()) }()
	return s.repo.WithDoctorCalendar(ctx, doctorID, fn)
}

func (s *AppointmentService) outcome(operation, outcome string) {
	s.metrics.BookingAttempts.WithLabelValues(operation, outcome).Inc()
}

func outcomeOf(err error) string {
	var validErr *ValidationError
	switch {
	case errors.Is(err, appointment.ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, appointment.ErrInvalidTransition), errors.As(err, &validErr):
		return "invalid"
	default:
		return "error"
	}
}
