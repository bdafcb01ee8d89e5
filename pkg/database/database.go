package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/config"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:                                   newGormLogger(log, cfg.SlowQueryThreshold),
		PrepareStmt:                              true,
		DisableForeignKeyConstraintWhenMigrating: false,
		DisableAutomaticPing:                     false,
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: false,
	}), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// CreateDatabase connects to the maintenance database and creates cfg.Name if it is missing.
func CreateDatabase(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) error {
	conn, err := pgx.Connect(ctx, cfg.AdminURL())
	if err != nil {
		return fmt.Errorf("connecting to maintenance database: %w", err)
	}
	defer conn.Close(ctx)

	var exists bool
	err = conn.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Name).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking database %s: %w", cfg.Name, err)
	}
	if exists {
		log.Info("database already exists", zap.String("database", cfg.Name))
		return nil
	}

	ident := pgx.Identifier{cfg.Name}.Sanitize()
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+ident); err != nil {
		var pgErr *pgconn.PgError
		// another process created it between the check and here
		if errors.As(err, &pgErr) && pgErr.Code == "42P04" {
			return nil
		}
		return fmt.Errorf("creating database %s: %w", cfg.Name, err)
	}
	log.Info("database created", zap.String("database", cfg.Name))
	return nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	start := time.Now()

	// the exclusion constraint needs btree_gist for the uuid equality operator
	for _, ext := range []string{"pgcrypto", "btree_gist"} {
		if err := db.Exec(fmt.Sprintf("CREATE EXTENSION IF NOT EXISTS %s", ext)).Error; err != nil {
			return fmt.Errorf("creating extension %s: %w", ext, err)
		}
	}

	schemas := []string{"practice", "auth", "audit"} // logical namespace
	for _, schema := range schemas {
		if err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)).Error; err != nil {
			return fmt.Errorf("creating schema %s: %w", schema, err)
		}
	}

	models := []any{
		&medicalaid.MedicalAid{},
		&catalog.Service{},
		&doctor.Doctor{},
		&patient.Patient{},
		&appointment.Appointment{},
		&domain.User{},
		&domain.AuditLog{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	if err := createConstraints(db); err != nil {
		return fmt.Errorf("creating constraints: %w", err)
	}

	log.Info("migrations completed", zap.Duration("duration", time.Since(start)))
	return nil
}

type ddl struct {
	name  string
	query string
}

var constraints = []ddl{
	{
		name:  "idx_patients_phone_unique",
		query: `CREATE UNIQUE INDEX IF NOT EXISTS idx_patients_phone_unique ON practice.patients (phone) WHERE phone IS NOT NULL`,
	},
	{
		name: "fk_appointments_refs",
		query: `DO $$ BEGIN
			ALTER TABLE practice.appointments
				ADD CONSTRAINT fk_appointments_patient FOREIGN KEY (patient_id) REFERENCES practice.patients (id),
				ADD CONSTRAINT fk_appointments_doctor FOREIGN KEY (doctor_id) REFERENCES practice.doctors (id),
				ADD CONSTRAINT fk_appointments_service FOREIGN KEY (service_id) REFERENCES practice.services (id),
				ADD CONSTRAINT fk_appointments_medical_aid FOREIGN KEY (medical_aid_id) REFERENCES practice.medical_aids (id);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	},
	{
		name: "chk_appointments_status",
		query: `DO $$ BEGIN
			ALTER TABLE practice.appointments ADD CONSTRAINT chk_appointments_status
				CHECK (status IN ('pending', 'confirmed', 'completed', 'cancelled'));
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	},
	{
		// last line of defence against double booking; '[)' keeps abutting slots legal.
		// The backing index shares the constraint's name, so a repeat ADD raises
		// duplicate_table rather than duplicate_object.
		name: "appointments_no_overlap",
		query: `DO $$ BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint
				WHERE conname = 'appointments_no_overlap'
					AND conrelid = 'practice.appointments'::regclass
			) THEN
				ALTER TABLE practice.appointments ADD CONSTRAINT appointments_no_overlap
					EXCLUDE USING gist (doctor_id WITH =, tstzrange(scheduled_start, scheduled_end, '[)') WITH &&)
					WHERE (status <> 'cancelled');
			END IF;
		EXCEPTION WHEN duplicate_object OR duplicate_table THEN NULL; END $$`,
	},
	{
		name:  "idx_appointments_active_range",
		query: `CREATE INDEX IF NOT EXISTS idx_appointments_active_range ON practice.appointments (doctor_id, scheduled_start, scheduled_end) WHERE status <> 'cancelled'`,
	},
}

func createConstraints(db *gorm.DB) error {
	for _, c := range constraints {
		if err := db.Exec(c.query).Error; err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	return nil
}
