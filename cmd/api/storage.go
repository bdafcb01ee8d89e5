package main

import (
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	v1 "github.com/dmehra2102/prod-golang-projects/optiflow/internal/handler/v1"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/database"
	"go.uber.org/zap"
)

type storage struct {
	patients     patient.Repository
	doctors      doctor.Repository
	services     catalog.Repository
	medicalAids  medicalaid.Repository
	appointments appointment.Repository
	users        service.UserRepository
	audit        service.AuditRepository

	pinger v1.Pinger
	close  func() error
}

func openStorage(cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory storage; data is lost on restart")
		s := memory.NewStore()
		return &storage{
			patients:     s.Patients(),
			doctors:      s.Doctors(),
			services:     s.Services(),
			medicalAids:  s.MedicalAids(),
			appointments: s.Appointments(),
			users:        s.Users(),
			audit:        s.AuditLogs(),
			close:        func() error { return nil },
		}, nil
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, log); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return &storage{
		patients:     postgres.NewPatientRepository(db, log),
		doctors:      postgres.NewDoctorRepository(db, log),
		services:     postgres.NewServiceRepository(db),
		medicalAids:  postgres.NewMedicalAidRepository(db),
		appointments: postgres.NewAppointmentRepository(db, cfg.Database.LockTimeout, log),
		users:        postgres.NewUserRepository(db),
		audit:        postgres.NewAuditRepository(db),
		pinger:       sqlDB,
		close:        sqlDB.Close,
	}, nil
}
