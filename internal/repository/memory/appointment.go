package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/google/uuid"
)

type AppointmentRepository struct {
	s *Store
}

func (r *AppointmentRepository) GetByID(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (r *AppointmentRepository) List(_ context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*appointment.Appointment
	for _, a := range r.s.appointments {
		switch {
		case q.PatientID != nil && a.PatientID != *q.PatientID,
			q.DoctorID != nil && a.DoctorID != *q.DoctorID,
			q.Status != nil && a.Status != *q.Status,
			q.From != nil && a.ScheduledStart.Before(*q.From),
			q.To != nil && !a.ScheduledStart.Before(*q.To):
			continue
		}
		matched = append(matched, a)
	}
	sortByStart(matched)

	from, to := pageBounds(len(matched), q.Page, q.PageSize)
	out := make([]*appointment.Appointment, 0, to-from)
	for _, a := range matched[from:to] {
		out = append(out, cloneAppointment(a))
	}
	total := int64(len(matched))
	return &appointment.PagedAppointments{
		Appointments: out,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages(total, q.PageSize),
	}, nil
}

func (r *AppointmentRepository) Calendar(_ context.Context, doctorID uuid.UUID) (appointment.CalendarReader, error) {
	r.s.mu.RLock()
	d, ok := r.s.doctors[doctorID]
	r.s.mu.RUnlock()
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return &calendar{s: r.s, doc: cloneDoctor(d)}, nil
}

// WithDoctorCalendar holds the doctor's calendar mutex for the duration of fn. Writes made
// through the calendar are staged and only applied to the store once fn returns nil.
func (r *AppointmentRepository) WithDoctorCalendar(ctx context.Context, doctorID uuid.UUID, fn func(cal appointment.Calendar) error) error {
	lock := r.s.calendarLock(doctorID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	r.s.mu.RLock()
	d, ok := r.s.doctors[doctorID]
	r.s.mu.RUnlock()
	if !ok {
		return doctor.ErrDoctorNotFound
	}

	cal := &calendar{s: r.s, doc: cloneDoctor(d), staged: make(map[uuid.UUID]*appointment.Appointment)}
	if err := fn(cal); err != nil {
		return err
	}
	cal.commit()
	return nil
}

func (r *AppointmentRepository) UpdateStatus(_ context.Context, a *appointment.Appointment, from appointment.Status) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.appointments[a.ID]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	if stored.Status != from {
		return appointment.ErrInvalidTransition
	}
	stored.Status = a.Status
	stored.ConfirmedAt = a.ConfirmedAt
	stored.CompletedAt = a.CompletedAt
	stored.CancelledAt = a.CancelledAt
	stored.CancellationReason = a.CancellationReason
	stored.CancelledBy = a.CancelledBy
	stored.UpdatedAt = time.Now()
	a.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *AppointmentRepository) AppendNote(_ context.Context, id uuid.UUID, n appointment.Note) (*appointment.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	stored.Notes = append(stored.Notes, n)
	stored.UpdatedAt = time.Now()
	return cloneAppointment(stored), nil
}

// calendar is a view of one doctor's appointments. Without staged it is read-only.
type calendar struct {
	s      *Store
	doc    *doctor.Doctor
	staged map[uuid.UUID]*appointment.Appointment
	// moved marks staged entries that already exist in the store
	moved map[uuid.UUID]bool
}

func (c *calendar) Doctor() *doctor.Doctor {
	return c.doc
}

func (c *calendar) ListActive(_ context.Context, from, to time.Time, excludeID *uuid.UUID) ([]*appointment.Appointment, error) {
	c.s.mu.RLock()
	view := make(map[uuid.UUID]*appointment.Appointment)
	for id, a := range c.s.appointments {
		if a.DoctorID == c.doc.ID {
			view[id] = a
		}
	}
	c.s.mu.RUnlock()
	for id, a := range c.staged {
		view[id] = a
	}

	var out []*appointment.Appointment
	for id, a := range view {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if a.Status.HoldsSlot() && a.Overlaps(from, to) {
			out = append(out, cloneAppointment(a))
		}
	}
	sortByStart(out)
	return out, nil
}

func (c *calendar) Get(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	if a, ok := c.staged[id]; ok {
		return cloneAppointment(a), nil
	}
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()

	a, ok := c.s.appointments[id]
	if !ok || a.DoctorID != c.doc.ID {
		return nil, appointment.ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (c *calendar) Create(_ context.Context, a *appointment.Appointment) error {
	a.ID = newID(a.ID)
	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Status == "" {
		a.Status = appointment.StatusPending
	}
	a.DoctorID = c.doc.ID
	a.ScheduledEnd = a.EndsAt()
	c.staged[a.ID] = cloneAppointment(a)
	return nil
}

func (c *calendar) Reschedule(ctx context.Context, a *appointment.Appointment) error {
	current, err := c.Get(ctx, a.ID)
	if err != nil {
		return err
	}
	if current.Status.IsTerminal() {
		return appointment.ErrInvalidTransition
	}
	current.ScheduledStart = a.ScheduledStart
	current.ScheduledEnd = current.EndsAt()
	current.UpdatedAt = time.Now()
	a.ScheduledEnd = current.ScheduledEnd
	a.UpdatedAt = current.UpdatedAt

	c.staged[a.ID] = current
	if c.moved == nil {
		c.moved = make(map[uuid.UUID]bool)
	}
	c.s.mu.RLock()
	_, exists := c.s.appointments[a.ID]
	c.s.mu.RUnlock()
	c.moved[a.ID] = exists
	return nil
}

// commit applies staged writes. Rescheduled rows only take the new slot so that a status
// change made concurrently outside the calendar lock is not overwritten.
func (c *calendar) commit() {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	for id, a := range c.staged {
		stored, ok := c.s.appointments[id]
		if ok && c.moved[id] {
			stored.ScheduledStart = a.ScheduledStart
			stored.ScheduledEnd = a.ScheduledEnd
			stored.UpdatedAt = a.UpdatedAt
			continue
		}
		c.s.appointments[id] = a
	}
}

func sortByStart(list []*appointment.Appointment) {
	sort.Slice(list, func(i, j int) bool {
		return list[i].ScheduledStart.Before(list[j].ScheduledStart)
	})
}
