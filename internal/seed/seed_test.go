package seed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	data, err := Defaults()
	require.NoError(t, err)

	require.Len(t, data.Services, 4)
	assert.Equal(t, "Comprehensive Eye Examination", data.Services[0].Name)
	assert.Equal(t, 45, data.Services[0].DurationMins)
	assert.Equal(t, 350.0, data.Services[0].Price)
	assert.Equal(t, 15, data.Services[3].DurationMins)

	require.Len(t, data.MedicalAids, 4)
	require.Len(t, data.Doctors, 1)
	assert.Equal(t, "OPT-2024-001", data.Doctors[0].LicenseNumber)
}

func TestSeeder_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := NewSeeder(store.Services(), store.MedicalAids(), store.Doctors(), zap.NewNop())

	data, err := Defaults()
	require.NoError(t, err)

	first, err := s.Run(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, Summary{Services: 4, MedicalAids: 4, Doctors: 1}, first)

	second, err := s.Run(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, second)

	services, err := store.Services().List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, services, 4)

	doctors, err := store.Doctors().List(ctx, true)
	require.NoError(t, err)
	require.Len(t, doctors, 1)
	doc := doctors[0]
	assert.Len(t, doc.WorkingHours.OnDay(time.Monday), 1)
	assert.Len(t, doc.WorkingHours.OnDay(time.Saturday), 1)
	assert.Empty(t, doc.WorkingHours.OnDay(time.Sunday))
}

func TestSeeder_RejectsBadData(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := NewSeeder(store.Services(), store.MedicalAids(), store.Doctors(), zap.NewNop())

	_, err := s.Run(ctx, &Data{Services: []ServiceSeed{{Name: "Odd", DurationMins: 10, Category: "massage"}}})
	assert.ErrorIs(t, err, catalog.ErrInvalidCategory)

	_, err = s.Run(ctx, &Data{Doctors: []DoctorSeed{{Email: "x@example.com", WorkingHours: "whenever"}}})
	assert.Error(t, err)

	_, err = Parse([]byte("services: [unterminated"))
	assert.Error(t, err)
}

type fakeAdmins struct {
	email string
	err   error
}

func (f *fakeAdmins) EnsureAdmin(_ context.Context, email, _ string) error {
	f.email = email
	return f.err
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	s := NewSeeder(store.Services(), store.MedicalAids(), store.Doctors(), zap.NewNop())

	admins := &fakeAdmins{}
	require.NoError(t, Bootstrap(ctx, s, admins, "admin@example.com", "a long admin passphrase"))
	assert.Equal(t, "admin@example.com", admins.email)

	admins.err = errors.New("boom")
	assert.ErrorContains(t, Bootstrap(ctx, s, admins, "admin@example.com", "x"), "boom")
}
