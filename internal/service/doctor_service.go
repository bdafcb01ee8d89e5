package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DoctorService struct {
	repo     doctor.Repository
	auditSvc *AuditService
	log      *zap.Logger
}

func NewDoctorService(repo doctor.Repository, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, auditSvc: auditSvc, log: log}
}

func (s *DoctorService) CreateDoctor(ctx context.Context, cmd *doctor.CreateDoctorCommand, actor domain.Actor) (*doctor.Doctor, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	var errs []string
	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(cmd.Email)); err != nil {
		errs = append(errs, "email is invalid")
	}
	if strings.TrimSpace(cmd.LicenseNumber) == "" {
		errs = append(errs, "license_number is required")
	}
	if err := cmd.WorkingHours.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	d := &doctor.Doctor{
		FirstName:       strings.TrimSpace(cmd.FirstName),
		LastName:        strings.TrimSpace(cmd.LastName),
		Email:           strings.ToLower(strings.TrimSpace(cmd.Email)),
		Phone:           strings.TrimSpace(cmd.Phone),
		LicenseNumber:   strings.TrimSpace(cmd.LicenseNumber),
		Specializations: cmd.Specializations,
		Education:       cmd.Education,
		Experience:      cmd.Experience,
		Bio:             cmd.Bio,
		ProfileImage:    cmd.ProfileImage,
		WorkingHours:    cmd.WorkingHours,
		IsActive:        true,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
	})
	s.log.Info("doctor created",
		zap.String("doctor_id", d.ID.String()),
		zap.String("working_hours", d.WorkingHours.String()),
	)
	return d, nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateDoctor is limited to admins and to the doctor editing their own profile.
func (s *DoctorService) UpdateDoctor(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, actor domain.Actor) (*doctor.Doctor, error) {
	self := actor.Role == domain.RoleDoctor && actor.DoctorID != nil && *actor.DoctorID == id
	if actor.Role != domain.RoleAdmin && !self {
		return nil, ErrForbidden
	}
	if self && cmd.IsActive != nil {
		return nil, ErrForbidden
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Apply(cmd)

	if d.FirstName == "" || d.LastName == "" {
		return nil, invalid("first_name and last_name are required")
	}
	if err := d.WorkingHours.Validate(); err != nil {
		return nil, invalid(err.Error())
	}

	if err := s.repo.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("saving doctor: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionUpdate,
		ResourceType: "doctor",
		ResourceID:   id.String(),
	})
	return d, nil
}

func (s *DoctorService) ListDoctors(ctx context.Context, includeInactive bool) ([]*doctor.Doctor, error) {
	return s.repo.List(ctx, !includeInactive)
}
