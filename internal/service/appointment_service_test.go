package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/availability"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/notify"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Notify(_ context.Context, e notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []notify.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notify.EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	svc      *AppointmentService
	store    *memory.Store
	metrics  *metrics.Collector
	notifier *recordingNotifier
	loc      *time.Location

	doctor  *doctor.Doctor
	patient *patient.Patient
	exam    *catalog.Service // 45 minutes
	staff   domain.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	loc, err := time.LoadLocation("Africa/Johannesburg")
	require.NoError(t, err)

	store := memory.NewStore()
	hours, err := doctor.ParseWorkingHours("Monday-Friday: 08:00-18:00, Saturday: 09:00-15:00, Sunday: Closed")
	require.NoError(t, err)

	doc := &doctor.Doctor{
		FirstName: "NB", LastName: "Maswanganyi",
		Email: "nb@example.com", LicenseNumber: "OPT-2024-001",
		WorkingHours: hours, IsActive: true,
	}
	require.NoError(t, store.Doctors().Create(ctx, doc))

	p := &patient.Patient{
		FirstName: "Thandi", LastName: "Mokoena",
		DateOfBirth: time.Date(1990, 3, 14, 0, 0, 0, 0, time.UTC),
		Gender:      patient.GenderFemale,
		ContactInfo: patient.ContactInfo{Email: "thandi@example.com"},
		Status:      patient.StatusActive,
	}
	require.NoError(t, store.Patients().Create(ctx, p))

	exam := &catalog.Service{Name: "Comprehensive Eye Examination", DurationMins: 45, Price: 350, Category: catalog.CategoryExamination, IsActive: true}
	require.NoError(t, store.Services().Create(ctx, exam))

	m := metrics.NewCollector("test", prometheus.NewRegistry())
	log := zap.NewNop()
	audit := NewAuditService(store.AuditLogs(), m, log)
	t.Cleanup(func() { audit.Shutdown(context.Background()) })

	notifier := &recordingNotifier{}
	svc := NewAppointmentService(AppointmentServiceDeps{
		Appointments: store.Appointments(),
		Patients:     store.Patients(),
		Services:     store.Services(),
		MedicalAids:  store.MedicalAids(),
		Checker:      availability.NewChecker(store.Appointments(), loc),
		Notifier:     notifier,
		Audit:        audit,
		Metrics:      m,
		Log:          log,
		SlotStep:     15 * time.Minute,
	})

	return &fixture{
		svc: svc, store: store, metrics: m, notifier: notifier, loc: loc,
		doctor: doc, patient: p, exam: exam,
		staff: domain.Actor{UserID: uuid.New(), Role: domain.RoleReceptionist},
	}
}

// monday returns hh:mm on Monday 7 January 2030 in the practice zone.
func (f *fixture) monday(hh, mm int) time.Time {
	return time.Date(2030, 1, 7, hh, mm, 0, 0, f.loc)
}

func (f *fixture) book(t *testing.T, start time.Time) (*appointment.Appointment, error) {
	t.Helper()
	return f.svc.Book(context.Background(), &appointment.BookCommand{
		PatientID: f.patient.ID,
		DoctorID:  f.doctor.ID,
		ServiceID: f.exam.ID,
		Start:     start,
	}, f.staff)
}

func TestBook_MondayScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.book(t, f.monday(10, 0))
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusPending, first.Status)
	assert.Equal(t, 45, first.DurationMins)
	assert.True(t, first.ScheduledEnd.Equal(f.monday(10, 45)))

	_, err = f.book(t, f.monday(10, 30))
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)

	// abuts the first appointment
	second, err := f.book(t, f.monday(10, 45))
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(ctx, &appointment.RescheduleCommand{AppointmentID: first.ID, NewStart: f.monday(9, 0)}, f.staff)
	require.NoError(t, err)
	assert.True(t, moved.ScheduledStart.Equal(f.monday(9, 0)))
	assert.True(t, moved.ScheduledEnd.Equal(f.monday(9, 45)))

	// the freed 10:00 slot is bookable again
	_, err = f.book(t, f.monday(10, 0))
	require.NoError(t, err)

	_, err = f.book(t, f.monday(19, 0))
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)

	page, err := f.svc.List(ctx, &appointment.ListAppointmentsQuery{DoctorID: &f.doctor.ID}, f.staff)
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, second.ID, page.Appointments[2].ID)

	assert.Equal(t,
		[]notify.EventType{notify.EventBooked, notify.EventBooked, notify.EventRescheduled, notify.EventBooked},
		f.notifier.types(),
	)
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.BookingAttempts.WithLabelValues("book", "slot_unavailable")))
}

func TestBook_ConcurrentRequestsForOneSlot(t *testing.T) {
	f := newFixture(t)

	const callers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		refused int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			// every start overlaps 10:00-10:45
			_, err := f.book(t, f.monday(10, offset%3*10))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				booked++
			case errors.Is(err, appointment.ErrSlotUnavailable):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, booked)
	assert.Equal(t, callers-1, refused)
}

func TestReschedule_ConcurrentMovesIntoOneSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// spread across the morning, then everyone races for 15:00
	var moving []*appointment.Appointment
	for hour := 8; hour <= 13; hour++ {
		a, err := f.book(t, f.monday(hour, 0))
		require.NoError(t, err)
		moving = append(moving, a)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		won     int
		refused int
	)
	record := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			won++
		case errors.Is(err, appointment.ErrSlotUnavailable):
			refused++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	for i, a := range moving {
		wg.Add(1)
		go func(id uuid.UUID, offset int) {
			defer wg.Done()
			// every target overlaps 15:00-15:45
			_, err := f.svc.Reschedule(ctx, &appointment.RescheduleCommand{AppointmentID: id, NewStart: f.monday(15, offset%3*10)}, f.staff)
			record(err)
		}(a.ID, i)
	}
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			_, err := f.book(t, f.monday(15, offset*10))
			record(err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, won)
	assert.Equal(t, len(moving)+4-1, refused)

	page, err := f.svc.List(ctx, &appointment.ListAppointmentsQuery{DoctorID: &f.doctor.ID, PageSize: 100}, f.staff)
	require.NoError(t, err)
	held := page.Appointments
	for i := range held {
		for j := i + 1; j < len(held); j++ {
			assert.False(t, held[i].Overlaps(held[j].ScheduledStart, held[j].ScheduledEnd),
				"%s overlaps %s", held[i].ScheduledStart.In(f.loc), held[j].ScheduledStart.In(f.loc))
		}
	}
}

func TestBook_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("past start", func(t *testing.T) {
		_, err := f.book(t, time.Now().Add(-time.Hour))
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("unknown doctor", func(t *testing.T) {
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: f.patient.ID, DoctorID: uuid.New(), ServiceID: f.exam.ID, Start: f.monday(10, 0),
		}, f.staff)
		assert.ErrorIs(t, err, doctor.ErrDoctorNotFound)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: uuid.New(), DoctorID: f.doctor.ID, ServiceID: f.exam.ID, Start: f.monday(10, 0),
		}, f.staff)
		assert.ErrorIs(t, err, patient.ErrPatientNotFound)
	})

	t.Run("unknown service", func(t *testing.T) {
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: f.patient.ID, DoctorID: f.doctor.ID, ServiceID: uuid.New(), Start: f.monday(10, 0),
		}, f.staff)
		assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
	})

	t.Run("inactive service", func(t *testing.T) {
		retired := &catalog.Service{Name: "Retired", DurationMins: 30, Category: catalog.CategoryOther, IsActive: false}
		require.NoError(t, f.store.Services().Create(ctx, retired))
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: f.patient.ID, DoctorID: f.doctor.ID, ServiceID: retired.ID, Start: f.monday(10, 0),
		}, f.staff)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("inactive medical aid", func(t *testing.T) {
		lapsed := &medicalaid.MedicalAid{Name: "Lapsed Scheme", IsActive: false}
		require.NoError(t, f.store.MedicalAids().Create(ctx, lapsed))
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: f.patient.ID, DoctorID: f.doctor.ID, ServiceID: f.exam.ID,
			MedicalAidID: &lapsed.ID, Start: f.monday(10, 0),
		}, f.staff)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "medical aid is not active")
	})

	t.Run("unknown medical aid", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: f.patient.ID, DoctorID: f.doctor.ID, ServiceID: f.exam.ID,
			MedicalAidID: &missing, Start: f.monday(10, 0),
		}, f.staff)
		assert.ErrorIs(t, err, medicalaid.ErrMedicalAidNotFound)
	})

	t.Run("patient booking for someone else", func(t *testing.T) {
		other := uuid.New()
		actor := domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &other}
		_, err := f.svc.Book(ctx, &appointment.BookCommand{
			PatientID: f.patient.ID, DoctorID: f.doctor.ID, ServiceID: f.exam.ID, Start: f.monday(10, 0),
		}, actor)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	page, err := f.svc.List(ctx, &appointment.ListAppointmentsQuery{}, f.staff)
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount, "nothing is persisted on failure")
}

func TestReschedule_SameSlotSucceeds(t *testing.T) {
	f := newFixture(t)

	a, err := f.book(t, f.monday(11, 0))
	require.NoError(t, err)

	moved, err := f.svc.Reschedule(context.Background(), &appointment.RescheduleCommand{AppointmentID: a.ID, NewStart: f.monday(11, 0)}, f.staff)
	require.NoError(t, err)
	assert.True(t, moved.ScheduledStart.Equal(a.ScheduledStart))
}

func TestReschedule_IntoOtherAppointmentFails(t *testing.T) {
	f := newFixture(t)

	a, err := f.book(t, f.monday(11, 0))
	require.NoError(t, err)
	_, err = f.book(t, f.monday(12, 0))
	require.NoError(t, err)

	_, err = f.svc.Reschedule(context.Background(), &appointment.RescheduleCommand{AppointmentID: a.ID, NewStart: f.monday(11, 30)}, f.staff)
	assert.ErrorIs(t, err, appointment.ErrSlotUnavailable)

	stored, err := f.store.Appointments().GetByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.True(t, stored.ScheduledStart.Equal(f.monday(11, 0)))
}

func TestStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.book(t, f.monday(8, 0))
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, a.ID, f.staff)
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition, "complete is illegal from pending")

	confirmed, err := f.svc.Confirm(ctx, a.ID, f.staff)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	completed, err := f.svc.Complete(ctx, a.ID, f.staff)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCompleted, completed.Status)

	_, err = f.svc.Cancel(ctx, &appointment.CancelCommand{AppointmentID: a.ID, Reason: "late"}, f.staff)
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)

	_, err = f.svc.Reschedule(ctx, &appointment.RescheduleCommand{AppointmentID: a.ID, NewStart: f.monday(9, 0)}, f.staff)
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)

	// notes are still allowed on terminal appointments
	noted, err := f.svc.AddNote(ctx, a.ID, "Prescription issued", f.staff)
	require.NoError(t, err)
	require.Len(t, noted.Notes, 1)
	assert.Equal(t, "Prescription issued", noted.Notes[0].Text)
	assert.Equal(t, f.staff.UserID, noted.Notes[0].Author)
}

func TestCancel_FreesTheSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	owner := domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &f.patient.ID}
	a, err := f.svc.Book(ctx, &appointment.BookCommand{
		PatientID: f.patient.ID, DoctorID: f.doctor.ID, ServiceID: f.exam.ID, Start: f.monday(14, 0),
	}, owner)
	require.NoError(t, err)

	stranger := uuid.New()
	_, err = f.svc.Cancel(ctx, &appointment.CancelCommand{AppointmentID: a.ID}, domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &stranger})
	assert.ErrorIs(t, err, ErrForbidden)

	cancelled, err := f.svc.Cancel(ctx, &appointment.CancelCommand{AppointmentID: a.ID, Reason: "travelling"}, owner)
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusCancelled, cancelled.Status)
	assert.Equal(t, "travelling", cancelled.CancellationReason)

	_, err = f.book(t, f.monday(14, 0))
	require.NoError(t, err)
}

func TestConfirm_RequiresStaff(t *testing.T) {
	f := newFixture(t)

	a, err := f.book(t, f.monday(15, 0))
	require.NoError(t, err)

	owner := domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &f.patient.ID}
	_, err = f.svc.Confirm(context.Background(), a.ID, owner)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestList_PatientSeesOnlyOwnAppointments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.book(t, f.monday(8, 0))
	require.NoError(t, err)

	nobody := uuid.New()
	page, err := f.svc.List(ctx, &appointment.ListAppointmentsQuery{PatientID: &f.patient.ID},
		domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &nobody})
	require.NoError(t, err)
	assert.Zero(t, page.TotalCount)
}

func TestFreeSlots_UsesServiceDuration(t *testing.T) {
	f := newFixture(t)

	_, err := f.book(t, f.monday(8, 0))
	require.NoError(t, err)

	slots, err := f.svc.FreeSlots(context.Background(), f.doctor.ID, f.exam.ID, f.monday(0, 0))
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	assert.True(t, slots[0].Equal(f.monday(8, 45)))
	last := slots[len(slots)-1]
	assert.True(t, last.Equal(f.monday(17, 15)))
}
