// Command dbsetup prepares a PostgreSQL database for the API: it creates the database
// when missing, applies migrations and loads the default reference data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/repository/postgres"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/seed"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/database"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/logger"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dbsetup: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("dbsetup needs DB_DRIVER=postgres, got %q", cfg.Database.Driver)
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := database.CreateDatabase(ctx, cfg.Database, log); err != nil {
		return err
	}

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := database.Migrate(db, log); err != nil {
		return err
	}

	m := metrics.NewCollector("optiflow_dbsetup", prometheus.NewRegistry())
	auditSvc := service.NewAuditService(postgres.NewAuditRepository(db), m, log)
	defer auditSvc.Shutdown(context.Background())

	medicalAids := postgres.NewMedicalAidRepository(db)
	patients := service.NewPatientService(postgres.NewPatientRepository(db, log), medicalAids, auditSvc, m, log)
	authSvc := service.NewAuthService(postgres.NewUserRepository(db), patients, auth.NewJWTManager(cfg.JWT), auditSvc, log)

	seeder := seed.NewSeeder(postgres.NewServiceRepository(db), medicalAids, postgres.NewDoctorRepository(db, log), log)
	if err := seed.Bootstrap(ctx, seeder, authSvc, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
		return err
	}

	log.Info("database setup completed", zap.String("database", cfg.Database.Name))
	return nil
}
