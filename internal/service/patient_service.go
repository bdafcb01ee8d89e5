package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/optiflow/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatientService struct {
	repo        patient.Repository
	medicalAids medicalaid.Repository
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewPatientService(repo patient.Repository, medicalAids medicalaid.Repository, auditSvc *AuditService, m *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:        repo,
		medicalAids: medicalAids,
		auditSvc:    auditSvc,
		metrics:     m,
		log:         log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, actor domain.Actor) (*patient.Patient, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	p, err := s.create(ctx, cmd)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
	})
	s.log.Info("patient created",
		zap.String("patient_id", p.ID.String()),
		zap.String("created_by", actor.UserID.String()),
	)
	return p, nil
}

// create validates cmd and persists the patient; shared by staff creation and self-registration.
func (s *PatientService) create(ctx context.Context, cmd *patient.CreatePatientCommand) (*patient.Patient, error) {
	if err := validateCreatePatient(cmd); err != nil {
		return nil, err
	}

	email := patient.NormalizeEmail(cmd.Email)
	phone := patient.NormalizePhone(cmd.Phone)

	exists, err := s.repo.ExistsByContact(ctx, email, phone, nil)
	if err != nil {
		s.log.Error("failed to check contact uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking uniqueness: %w", err)
	}
	if exists {
		return nil, patient.ErrPatientAlreadyExists
	}

	if cmd.MedicalAidID != nil {
		if err := requireActiveMedicalAid(ctx, s.medicalAids, *cmd.MedicalAidID); err != nil {
			return nil, err
		}
	}

	gender := cmd.Gender
	if gender == "" {
		gender = patient.GenderUnknown
	}

	p := &patient.Patient{
		FirstName:   strings.TrimSpace(cmd.FirstName),
		LastName:    strings.TrimSpace(cmd.LastName),
		DateOfBirth: cmd.DateOfBirth,
		Gender:      gender,
		IDNumber:    strings.TrimSpace(cmd.IDNumber),
		ContactInfo: patient.ContactInfo{
			Phone:      phone,
			Email:      email,
			Address:    cmd.Address,
			City:       cmd.City,
			PostalCode: cmd.PostalCode,
		},
		MedicalAidID:     cmd.MedicalAidID,
		MedicalAidNumber: strings.TrimSpace(cmd.MedicalAidNumber),
		Status:           patient.StatusActive,
		Notes:            cmd.Notes,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}
	s.metrics.PatientsCreatedTotal.Inc()
	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID, actor domain.Actor) (*patient.Patient, error) {
	// RBAC: patients can only read their own record
	if actor.Role == domain.RolePatient && !actor.Owns(id) {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionRead,
		ResourceType: "patient",
		ResourceID:   id.String(),
	})
	return p, nil
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uuid.UUID, cmd *patient.UpdatePatientCommand, actor domain.Actor) (*patient.Patient, error) {
	if actor.Role == domain.RolePatient && !actor.Owns(id) {
		return nil, ErrForbidden
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Apply(cmd)

	if err := validatePatient(p); err != nil {
		return nil, err
	}
	if cmd.Email != nil || cmd.Phone != nil {
		taken, err := s.repo.ExistsByContact(ctx, p.Email, p.Phone, &p.ID)
		if err != nil {
			return nil, fmt.Errorf("checking uniqueness: %w", err)
		}
		if taken {
			return nil, patient.ErrPatientAlreadyExists
		}
	}
	if cmd.MedicalAidID != nil {
		if err := requireActiveMedicalAid(ctx, s.medicalAids, *cmd.MedicalAidID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, p); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionUpdate,
		ResourceType: "patient",
		ResourceID:   id.String(),
	})
	return p, nil
}

// DeactivatePatient flips the status; patient rows are never removed.
func (s *PatientService) DeactivatePatient(ctx context.Context, id uuid.UUID, actor domain.Actor) error {
	if err := requireStaff(actor); err != nil {
		return err
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := p.Deactivate(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, p); err != nil {
		return err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionDelete,
		ResourceType: "patient",
		ResourceID:   id.String(),
	})
	return nil
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery, actor domain.Actor) (*patient.PagedPatients, error) {
	if err := requireStaff(actor); err != nil {
		return nil, err
	}
	q.Page, q.PageSize = normalizePage(q.Page, q.PageSize)
	return s.repo.List(ctx, q)
}

func validateCreatePatient(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	} else if cmd.DateOfBirth.After(time.Now()) {
		errs = append(errs, "date_of_birth cannot be in the future")
	}
	if cmd.Gender != "" && !cmd.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(cmd.Email)); err != nil {
		errs = append(errs, "email is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validatePatient(p *patient.Patient) error {
	var errs []string
	if p.FirstName == "" {
		errs = append(errs, "first_name is required")
	}
	if p.LastName == "" {
		errs = append(errs, "last_name is required")
	}
	if !p.Gender.IsValid() {
		errs = append(errs, "gender is invalid")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		errs = append(errs, "email is invalid")
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
