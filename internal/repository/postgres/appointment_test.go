package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/availability"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func doctorRows(id uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "license_number", "specializations", "working_hours", "is_active"}).
		AddRow(id, "NB", "Maswanganyi", "nb@example.com", "OPT-2024-001", `["General Optometry"]`,
			`[{"weekday":1,"open":"08:00","close":"18:00"}]`, true)
}

func TestTranslate(t *testing.T) {
	sentinel := errors.New("duplicate")
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, patient.ErrPatientNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, sentinel},
		{"exclusion violation", &pgconn.PgError{Code: "23P01"}, appointment.ErrSlotUnavailable},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, appointment.ErrSlotUnavailable},
		{"wrapped exclusion", errors.Join(other, &pgconn.PgError{Code: "23P01"}), appointment.ErrSlotUnavailable},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate(tt.err, patient.ErrPatientNotFound, sentinel)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestWithDoctorCalendar_LocksDoctorRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 5*time.Second, zap.NewNop())
	doctorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`SET LOCAL lock_timeout = '5000ms'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "practice"\."doctors" WHERE id = \$1 .*FOR UPDATE`).
		WithArgs(doctorID, 1).
		WillReturnRows(doctorRows(doctorID))
	mock.ExpectCommit()

	var seen *doctor.Doctor
	err := repo.WithDoctorCalendar(context.Background(), doctorID, func(cal appointment.Calendar) error {
		seen = cal.Doctor()
		return nil
	})
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.Equal(t, doctorID, seen.ID)
	assert.Len(t, seen.WorkingHours, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithDoctorCalendar_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())
	doctorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(doctorRows(doctorID))
	mock.ExpectRollback()

	err := repo.WithDoctorCalendar(context.Background(), doctorID, func(appointment.Calendar) error {
		return appointment.ErrSlotUnavailable
	})
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithDoctorCalendar_UnknownDoctor(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.WithDoctorCalendar(context.Background(), uuid.New(), func(appointment.Calendar) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithDoctorCalendar_ExclusionViolationIsSlotUnavailable(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())
	doctorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(doctorRows(doctorID))
	mock.ExpectQuery(`INSERT INTO "practice"\."appointments"`).
		WillReturnError(&pgconn.PgError{Code: "23P01", ConstraintName: "appointments_no_overlap"})
	mock.ExpectRollback()

	err := repo.WithDoctorCalendar(context.Background(), doctorID, func(cal appointment.Calendar) error {
		return cal.Create(context.Background(), &appointment.Appointment{
			PatientID:      uuid.New(),
			ServiceID:      uuid.New(),
			ScheduledStart: time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC),
			DurationMins:   45,
			CreatedBy:      uuid.New(),
		})
	})
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_StaleStatusIsInvalidTransition(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())
	id := uuid.New()

	mock.ExpectExec(`UPDATE "practice"\."appointments" SET .* WHERE .*status = `).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "practice"\."appointments" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status"}).AddRow(id, "cancelled"))

	a := &appointment.Appointment{ID: id, Status: appointment.StatusConfirmed}
	err := repo.UpdateStatus(context.Background(), a, appointment.StatusPending)
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_MissingAppointment(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())

	mock.ExpectExec(`UPDATE "practice"\."appointments"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "practice"\."appointments"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.UpdateStatus(context.Background(), &appointment.Appointment{ID: uuid.New()}, appointment.StatusPending)
	assert.ErrorIs(t, err, appointment.ErrAppointmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarReschedule_TerminalRowIsInvalidTransition(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())
	doctorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(doctorRows(doctorID))
	mock.ExpectExec(`UPDATE "practice"\."appointments" SET .*status IN`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.WithDoctorCalendar(context.Background(), doctorID, func(cal appointment.Calendar) error {
		return cal.Reschedule(context.Background(), &appointment.Appointment{
			ID:             uuid.New(),
			ScheduledStart: time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC),
			DurationMins:   45,
		})
	})
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientGetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT \* FROM "practice"\."patients"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, patient.ErrPatientNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientCreate_DuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPatientRepository(db, zap.NewNop())

	mock.ExpectQuery(`INSERT INTO "practice"\."patients"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_practice_patients_email"})

	err := repo.Create(context.Background(), &patient.Patient{
		FirstName:   "Thabo",
		LastName:    "Nkosi",
		DateOfBirth: time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		ContactInfo: patient.ContactInfo{Email: "thabo@example.com"},
	})
	assert.ErrorIs(t, err, patient.ErrPatientAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCalendarListActive_CompletedAppointmentsHoldTheirSlot(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAppointmentRepository(db, 0, zap.NewNop())
	doctorID := uuid.New()
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)

	mock.ExpectQuery(`SELECT \* FROM "practice"\."doctors" WHERE id = \$1`).
		WillReturnRows(doctorRows(doctorID))
	mock.ExpectQuery(`SELECT \* FROM "practice"\."appointments" WHERE \(doctor_id = \$1 AND status <> \$2\) AND \(scheduled_start < \$3 AND scheduled_end > \$4\)`).
		WithArgs(doctorID, appointment.StatusCancelled, end, start).
		WillReturnRows(sqlmock.NewRows([]string{"id", "doctor_id", "status", "scheduled_start", "scheduled_end", "duration_mins"}).
			AddRow(uuid.New(), doctorID, "completed", start, end, 45))

	ok, err := availability.NewChecker(repo, time.UTC).Check(context.Background(), doctorID, start, 45, nil)
	require.NoError(t, err)
	assert.False(t, ok, "a completed appointment still occupies 09:00-09:45")
	assert.NoError(t, mock.ExpectationsWereMet())
}
