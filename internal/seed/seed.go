// Package seed loads the practice's reference data (services, medical aids and the
// resident doctor) on startup. Every record is find-or-create by its unique key, so
// running it against a populated database changes nothing.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Data struct {
	Services    []ServiceSeed    `yaml:"services"`
	MedicalAids []MedicalAidSeed `yaml:"medical_aids"`
	Doctors     []DoctorSeed     `yaml:"doctors"`
}

type ServiceSeed struct {
	Name         string  `yaml:"name"`
	Description  string  `yaml:"description"`
	DurationMins int     `yaml:"duration_mins"`
	Price        float64 `yaml:"price"`
	Category     string  `yaml:"category"`
}

type MedicalAidSeed struct {
	Name          string `yaml:"name"`
	ContactNumber string `yaml:"contact_number"`
	Email         string `yaml:"email"`
	Website       string `yaml:"website"`
}

type DoctorSeed struct {
	FirstName       string   `yaml:"first_name"`
	LastName        string   `yaml:"last_name"`
	Email           string   `yaml:"email"`
	Phone           string   `yaml:"phone"`
	LicenseNumber   string   `yaml:"license_number"`
	Specializations []string `yaml:"specializations"`
	Education       string   `yaml:"education"`
	Experience      string   `yaml:"experience"`
	Bio             string   `yaml:"bio"`
	ProfileImage    string   `yaml:"profile_image"`
	WorkingHours    string   `yaml:"working_hours"`
}

// Defaults returns the embedded reference data.
func Defaults() (*Data, error) {
	return Parse(defaultsYAML)
}

func Parse(raw []byte) (*Data, error) {
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parsing seed data: %w", err)
	}
	return &d, nil
}

// AdminEnsurer creates the bootstrap administrator login when it is missing.
type AdminEnsurer interface {
	EnsureAdmin(ctx context.Context, email, password string) error
}

type Seeder struct {
	services    catalog.Repository
	medicalAids medicalaid.Repository
	doctors     doctor.Repository
	log         *zap.Logger
}

func NewSeeder(services catalog.Repository, medicalAids medicalaid.Repository, doctors doctor.Repository, log *zap.Logger) *Seeder {
	return &Seeder{services: services, medicalAids: medicalAids, doctors: doctors, log: log}
}

// Summary counts the records created by one run.
type Summary struct {
	Services    int
	MedicalAids int
	Doctors     int
}

func (s *Seeder) Run(ctx context.Context, data *Data) (Summary, error) {
	var sum Summary

	for _, in := range data.Services {
		created, err := s.service(ctx, in)
		if err != nil {
			return sum, fmt.Errorf("seeding service %q: %w", in.Name, err)
		}
		if created {
			sum.Services++
		}
	}

	for _, in := range data.MedicalAids {
		created, err := s.medicalAid(ctx, in)
		if err != nil {
			return sum, fmt.Errorf("seeding medical aid %q: %w", in.Name, err)
		}
		if created {
			sum.MedicalAids++
		}
	}

	for _, in := range data.Doctors {
		created, err := s.doctor(ctx, in)
		if err != nil {
			return sum, fmt.Errorf("seeding doctor %q: %w", in.Email, err)
		}
		if created {
			sum.Doctors++
		}
	}

	s.log.Info("seed data applied",
		zap.Int("services_created", sum.Services),
		zap.Int("medical_aids_created", sum.MedicalAids),
		zap.Int("doctors_created", sum.Doctors),
	)
	return sum, nil
}

func (s *Seeder) service(ctx context.Context, in ServiceSeed) (bool, error) {
	_, err := s.services.GetByName(ctx, in.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, catalog.ErrServiceNotFound) {
		return false, err
	}

	category := catalog.Category(in.Category)
	if !category.IsValid() {
		return false, catalog.ErrInvalidCategory
	}
	if in.DurationMins <= 0 {
		return false, catalog.ErrInvalidDuration
	}
	return true, s.services.Create(ctx, &catalog.Service{
		Name:         in.Name,
		Description:  in.Description,
		DurationMins: in.DurationMins,
		Price:        in.Price,
		Category:     category,
		IsActive:     true,
	})
}

func (s *Seeder) medicalAid(ctx context.Context, in MedicalAidSeed) (bool, error) {
	_, err := s.medicalAids.GetByName(ctx, in.Name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, medicalaid.ErrMedicalAidNotFound) {
		return false, err
	}
	return true, s.medicalAids.Create(ctx, &medicalaid.MedicalAid{
		Name:          in.Name,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
		Website:       in.Website,
		IsActive:      true,
	})
}

func (s *Seeder) doctor(ctx context.Context, in DoctorSeed) (bool, error) {
	_, err := s.doctors.GetByEmail(ctx, in.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, doctor.ErrDoctorNotFound) {
		return false, err
	}

	hours, err := doctor.ParseWorkingHours(in.WorkingHours)
	if err != nil {
		return false, err
	}
	return true, s.doctors.Create(ctx, &doctor.Doctor{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Phone:           in.Phone,
		LicenseNumber:   in.LicenseNumber,
		Specializations: in.Specializations,
		Education:       in.Education,
		Experience:      in.Experience,
		Bio:             in.Bio,
		ProfileImage:    in.ProfileImage,
		WorkingHours:    hours,
		IsActive:        true,
	})
}

// Bootstrap applies the embedded defaults and, when adminEmail is set, the admin login.
func Bootstrap(ctx context.Context, s *Seeder, admins AdminEnsurer, adminEmail, adminPassword string) error {
	data, err := Defaults()
	if err != nil {
		return err
	}
	if _, err := s.Run(ctx, data); err != nil {
		return err
	}
	if err := admins.EnsureAdmin(ctx, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("ensuring bootstrap admin: %w", err)
	}
	return nil
}
