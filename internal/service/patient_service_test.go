package service

import (
	"context"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	admin        = domain.Actor{UserID: uuid.New(), Role: domain.RoleAdmin}
	receptionist = domain.Actor{UserID: uuid.New(), Role: domain.RoleReceptionist}
)

func newAudit(t *testing.T, store *memory.Store, m *metrics.Collector) *AuditService {
	t.Helper()
	audit := NewAuditService(store.AuditLogs(), m, zap.NewNop())
	t.Cleanup(func() { audit.Shutdown(context.Background()) })
	return audit
}

func TestPatientService_CreateAndDeduplicate(t *testing.T) {
	store := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewPatientService(store.Patients(), store.MedicalAids(), newAudit(t, store, m), m, zap.NewNop())
	ctx := context.Background()

	cmd := &patient.CreatePatientCommand{
		FirstName:   " Lerato ",
		LastName:    "Khumalo",
		DateOfBirth: time.Date(2001, 9, 30, 0, 0, 0, 0, time.UTC),
		Email:       "LERATO@example.com",
		Phone:       "082 555 0199",
	}
	p, err := svc.CreatePatient(ctx, cmd, receptionist)
	require.NoError(t, err)
	assert.Equal(t, "Lerato", p.FirstName)
	assert.Equal(t, "lerato@example.com", p.Email)
	assert.Equal(t, patient.GenderUnknown, p.Gender)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PatientsCreatedTotal))

	dup := *cmd
	dup.Email = "someone.else@example.com"
	_, err = svc.CreatePatient(ctx, &dup, receptionist)
	assert.ErrorIs(t, err, patient.ErrPatientAlreadyExists, "phone is unique too")

	_, err = svc.CreatePatient(ctx, &patient.CreatePatientCommand{Email: "bad"}, receptionist)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Fields, 4)

	unknownAid := uuid.New()
	aidCmd := *cmd
	aidCmd.Email, aidCmd.Phone, aidCmd.MedicalAidID = "aid@example.com", "", &unknownAid
	_, err = svc.CreatePatient(ctx, &aidCmd, receptionist)
	assert.ErrorIs(t, err, medicalaid.ErrMedicalAidNotFound)

	lapsed := &medicalaid.MedicalAid{Name: "Lapsed Scheme", IsActive: false}
	require.NoError(t, store.MedicalAids().Create(ctx, lapsed))
	aidCmd.MedicalAidID = &lapsed.ID
	_, err = svc.CreatePatient(ctx, &aidCmd, receptionist)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"medical aid is not active"}, vErr.Fields)

	_, err = svc.UpdatePatient(ctx, p.ID, &patient.UpdatePatientCommand{MedicalAidID: &lapsed.ID}, receptionist)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"medical aid is not active"}, vErr.Fields)
}

func TestPatientService_AccessRules(t *testing.T) {
	store := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewPatientService(store.Patients(), store.MedicalAids(), newAudit(t, store, m), m, zap.NewNop())
	ctx := context.Background()

	p, err := svc.CreatePatient(ctx, &patient.CreatePatientCommand{
		FirstName: "Naledi", LastName: "Dube",
		DateOfBirth: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		Email:       "naledi@example.com",
	}, receptionist)
	require.NoError(t, err)

	self := domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &p.ID}
	other := uuid.New()
	stranger := domain.Actor{UserID: uuid.New(), Role: domain.RolePatient, PatientID: &other}

	_, err = svc.GetPatient(ctx, p.ID, self)
	assert.NoError(t, err)
	_, err = svc.GetPatient(ctx, p.ID, stranger)
	assert.ErrorIs(t, err, ErrForbidden)

	city := "Polokwane"
	updated, err := svc.UpdatePatient(ctx, p.ID, &patient.UpdatePatientCommand{City: &city}, self)
	require.NoError(t, err)
	assert.Equal(t, "Polokwane", updated.City)

	_, err = svc.CreatePatient(ctx, &patient.CreatePatientCommand{}, self)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.ListPatients(ctx, &patient.ListPatientsQuery{}, self)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, svc.DeactivatePatient(ctx, p.ID, self), ErrForbidden)
	require.NoError(t, svc.DeactivatePatient(ctx, p.ID, receptionist))
	assert.ErrorIs(t, svc.DeactivatePatient(ctx, p.ID, receptionist), patient.ErrPatientInactive)

	stored, err := store.Patients().GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive())
}

func TestDoctorService_WorkingHoursValidation(t *testing.T) {
	store := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewDoctorService(store.Doctors(), newAudit(t, store, m), zap.NewNop())
	ctx := context.Background()

	hours, err := doctor.ParseWorkingHours("Monday-Friday: 08:00-18:00")
	require.NoError(t, err)
	cmd := &doctor.CreateDoctorCommand{
		FirstName: "Ayanda", LastName: "Zulu", Email: "ayanda@example.com",
		LicenseNumber: "OPT-2030-007", WorkingHours: hours,
	}

	_, err = svc.CreateDoctor(ctx, cmd, receptionist)
	assert.ErrorIs(t, err, ErrForbidden)

	d, err := svc.CreateDoctor(ctx, cmd, admin)
	require.NoError(t, err)
	assert.True(t, d.IsActive)

	overlapping := doctor.WorkingHours{
		{Weekday: time.Monday, Open: 8 * 60, Close: 12 * 60},
		{Weekday: time.Monday, Open: 11 * 60, Close: 14 * 60},
	}
	_, err = svc.UpdateDoctor(ctx, d.ID, &doctor.UpdateDoctorCommand{WorkingHours: &overlapping}, admin)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	self := domain.Actor{UserID: uuid.New(), Role: domain.RoleDoctor, DoctorID: &d.ID}
	bio := "Paediatric optometry"
	updated, err := svc.UpdateDoctor(ctx, d.ID, &doctor.UpdateDoctorCommand{Bio: &bio}, self)
	require.NoError(t, err)
	assert.Equal(t, bio, updated.Bio)

	inactive := false
	_, err = svc.UpdateDoctor(ctx, d.ID, &doctor.UpdateDoctorCommand{IsActive: &inactive}, self)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCatalogService(t *testing.T) {
	store := memory.NewStore()
	m := metrics.NewCollector("test", prometheus.NewRegistry())
	svc := NewCatalogService(store.Services(), store.MedicalAids(), newAudit(t, store, m), zap.NewNop())
	ctx := context.Background()

	_, err := svc.CreateService(ctx, &catalog.CreateServiceCommand{Name: "Zero", DurationMins: 0}, admin)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)

	fitting, err := svc.CreateService(ctx, &catalog.CreateServiceCommand{
		Name: "Contact Lens Fitting", DurationMins: 30, Price: 250, Category: catalog.CategoryContactLens,
	}, admin)
	require.NoError(t, err)

	_, err = svc.CreateService(ctx, &catalog.CreateServiceCommand{Name: "contact lens fitting", DurationMins: 30}, admin)
	assert.ErrorIs(t, err, catalog.ErrServiceAlreadyExists)

	off := false
	_, err = svc.UpdateService(ctx, fitting.ID, &catalog.UpdateServiceCommand{IsActive: &off}, admin)
	require.NoError(t, err)

	active, err := svc.ListServices(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.ListServices(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	aid, err := svc.CreateMedicalAid(ctx, &CreateMedicalAidCommand{Name: "Discovery Health", Email: "Info@Discovery.co.za"}, admin)
	require.NoError(t, err)
	assert.Equal(t, "info@discovery.co.za", aid.Email)

	_, err = svc.CreateMedicalAid(ctx, &CreateMedicalAidCommand{Name: "Bonitas"}, receptionist)
	assert.ErrorIs(t, err, ErrForbidden)
}
