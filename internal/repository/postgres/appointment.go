package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Only appointments that have not reached a terminal status can be moved.
var reschedulable = []appointment.Status{appointment.StatusPending, appointment.StatusConfirmed}

type AppointmentRepository struct {
	db          *gorm.DB
	log         *zap.Logger
	lockTimeout time.Duration
}

// NewAppointmentRepository returns a repository whose calendar transactions give up waiting
// for a doctor's lock after lockTimeout (zero waits indefinitely).
func NewAppointmentRepository(db *gorm.DB, lockTimeout time.Duration, log *zap.Logger) *AppointmentRepository {
	return &AppointmentRepository{db: db, log: log, lockTimeout: lockTimeout}
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err, appointment.ErrAppointmentNotFound, nil)
	}
	return &a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) (*appointment.PagedAppointments, error) {
	tx := r.db.WithContext(ctx).Model(&appointment.Appointment{})
	if q.PatientID != nil {
		tx = tx.Where("patient_id = ?", *q.PatientID)
	}
	if q.DoctorID != nil {
		tx = tx.Where("doctor_id = ?", *q.DoctorID)
	}
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if q.From != nil {
		tx = tx.Where("scheduled_start >= ?", *q.From)
	}
	if q.To != nil {
		tx = tx.Where("scheduled_start < ?", *q.To)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	var appts []*appointment.Appointment
	err := tx.Order("scheduled_start ASC").
		Offset(offset(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&appts).Error
	if err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}

	return &appointment.PagedAppointments{
		Appointments: appts,
		TotalCount:   total,
		Page:         q.Page,
		PageSize:     q.PageSize,
		TotalPages:   totalPages(total, q.PageSize),
	}, nil
}

func (r *AppointmentRepository) Calendar(ctx context.Context, doctorID uuid.UUID) (appointment.CalendarReader, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", doctorID).Error; err != nil {
		return nil, translate(err, doctor.ErrDoctorNotFound, nil)
	}
	return &calendar{db: r.db, doc: &d}, nil
}

// WithDoctorCalendar opens a transaction and locks the doctor's row FOR UPDATE. Every
// booking and reschedule for that doctor takes the same lock, so the availability check
// and the write inside fn cannot interleave with another writer's.
func (r *AppointmentRepository) WithDoctorCalendar(ctx context.Context, doctorID uuid.UUID, fn func(cal appointment.Calendar) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("setting lock timeout: %w", err)
			}
		}

		var d doctor.Doctor
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&d, "id = ?", doctorID).Error
		if err != nil {
			return translate(err, doctor.ErrDoctorNotFound, nil)
		}
		return fn(&calendar{db: tx, doc: &d})
	})
	if err != nil {
		// commit can still trip the exclusion constraint
		return translate(err, nil, nil)
	}
	return nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, a *appointment.Appointment, from appointment.Status) error {
	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ? AND status = ?", a.ID, from).
		Updates(map[string]any{
			"status":              a.Status,
			"confirmed_at":        a.ConfirmedAt,
			"completed_at":        a.CompletedAt,
			"cancelled_at":        a.CancelledAt,
			"cancellation_reason": a.CancellationReason,
			"cancelled_by":        a.CancelledBy,
		})
	if res.Error != nil {
		return fmt.Errorf("updating appointment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, a.ID); err != nil {
			return err
		}
		return appointment.ErrInvalidTransition
	}
	return nil
}

func (r *AppointmentRepository) AppendNote(ctx context.Context, id uuid.UUID, n appointment.Note) (*appointment.Appointment, error) {
	payload, err := json.Marshal([]appointment.Note{n})
	if err != nil {
		return nil, fmt.Errorf("encoding note: %w", err)
	}

	res := r.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("notes", gorm.Expr("COALESCE(notes, '[]'::jsonb) || ?::jsonb", string(payload)))
	if res.Error != nil {
		return nil, fmt.Errorf("appending note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, appointment.ErrAppointmentNotFound
	}
	return r.GetByID(ctx, id)
}

// calendar reads and writes one doctor's appointments through db, which is the locking
// transaction inside WithDoctorCalendar and the plain pool otherwise.
type calendar struct {
	db  *gorm.DB
	doc *doctor.Doctor
}

func (c *calendar) Doctor() *doctor.Doctor {
	return c.doc
}

func (c *calendar) ListActive(ctx context.Context, from, to time.Time, excludeID *uuid.UUID) ([]*appointment.Appointment, error) {
	tx := c.db.WithContext(ctx).
		Where("doctor_id = ? AND status <> ?", c.doc.ID, appointment.StatusCancelled).
		Where("scheduled_start < ? AND scheduled_end > ?", to, from)
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}

	var appts []*appointment.Appointment
	if err := tx.Order("scheduled_start ASC").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("listing active appointments: %w", err)
	}
	return appts, nil
}

func (c *calendar) Get(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := c.db.WithContext(ctx).First(&a, "id = ? AND doctor_id = ?", id, c.doc.ID).Error
	if err != nil {
		return nil, translate(err, appointment.ErrAppointmentNotFound, nil)
	}
	return &a, nil
}

func (c *calendar) Create(ctx context.Context, a *appointment.Appointment) error {
	a.DoctorID = c.doc.ID
	a.ScheduledEnd = a.EndsAt()
	if a.Status == "" {
		a.Status = appointment.StatusPending
	}
	if err := c.db.WithContext(ctx).Create(a).Error; err != nil {
		return translate(err, nil, nil)
	}
	return nil
}

func (c *calendar) Reschedule(ctx context.Context, a *appointment.Appointment) error {
	end := a.EndsAt()
	res := c.db.WithContext(ctx).Model(&appointment.Appointment{}).
		Where("id = ? AND doctor_id = ? AND status IN ?", a.ID, c.doc.ID, reschedulable).
		Updates(map[string]any{
			"scheduled_start": a.ScheduledStart,
			"scheduled_end":   end,
		})
	if res.Error != nil {
		return translate(res.Error, nil, nil)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrInvalidTransition
	}
	a.ScheduledEnd = end
	return nil
}
