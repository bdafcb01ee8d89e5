package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages the bookable services and the medical-aid reference list.
type CatalogService struct {
	services    catalog.Repository
	medicalAids medicalaid.Repository
	auditSvc    *AuditService
	log         *zap.Logger
}

func NewCatalogService(services catalog.Repository, medicalAids medicalaid.Repository, auditSvc *AuditService, log *zap.Logger) *CatalogService {
	return &CatalogService{services: services, medicalAids: medicalAids, auditSvc: auditSvc, log: log}
}

func (s *CatalogService) CreateService(ctx context.Context, cmd *catalog.CreateServiceCommand, actor domain.Actor) (*catalog.Service, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	category := cmd.Category
	if category == "" {
		category = catalog.CategoryOther
	}

	var errs []string
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if cmd.DurationMins <= 0 {
		errs = append(errs, catalog.ErrInvalidDuration.Error())
	}
	if cmd.Price < 0 {
		errs = append(errs, "price cannot be negative")
	}
	if !category.IsValid() {
		errs = append(errs, catalog.ErrInvalidCategory.Error())
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	svc := &catalog.Service{
		Name:         strings.TrimSpace(cmd.Name),
		Description:  cmd.Description,
		DurationMins: cmd.DurationMins,
		Price:        cmd.Price,
		Category:     category,
		IsActive:     true,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: "service",
		ResourceID:   svc.ID.String(),
	})
	return svc, nil
}

// UpdateService never touches existing appointments; their duration was fixed at booking.
func (s *CatalogService) UpdateService(ctx context.Context, id uuid.UUID, cmd *catalog.UpdateServiceCommand, actor domain.Actor) (*catalog.Service, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	svc.Apply(cmd)

	if svc.DurationMins <= 0 {
		return nil, invalid(catalog.ErrInvalidDuration.Error())
	}
	if svc.Price < 0 {
		return nil, invalid("price cannot be negative")
	}
	if !svc.Category.IsValid() {
		return nil, invalid(catalog.ErrInvalidCategory.Error())
	}

	if err := s.services.Save(ctx, svc); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionUpdate,
		ResourceType: "service",
		ResourceID:   id.String(),
	})
	return svc, nil
}

func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	return s.services.GetByID(ctx, id)
}

func (s *CatalogService) ListServices(ctx context.Context, includeInactive bool) ([]*catalog.Service, error) {
	return s.services.List(ctx, !includeInactive)
}

type CreateMedicalAidCommand struct {
	Name          string
	ContactNumber string
	Email         string
	Website       string
}

func (s *CatalogService) CreateMedicalAid(ctx context.Context, cmd *CreateMedicalAidCommand, actor domain.Actor) (*medicalaid.MedicalAid, error) {
	if err := requireRole(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}

	var errs []string
	if strings.TrimSpace(cmd.Name) == "" {
		errs = append(errs, "name is required")
	}
	if email := strings.TrimSpace(cmd.Email); email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			errs = append(errs, "email is invalid")
		}
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	m := &medicalaid.MedicalAid{
		Name:          strings.TrimSpace(cmd.Name),
		ContactNumber: strings.TrimSpace(cmd.ContactNumber),
		Email:         strings.ToLower(strings.TrimSpace(cmd.Email)),
		Website:       strings.TrimSpace(cmd.Website),
		IsActive:      true,
	}
	if err := s.medicalAids.Create(ctx, m); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Actor:        actor,
		Action:       domain.ActionCreate,
		ResourceType: "medical_aid",
		ResourceID:   m.ID.String(),
	})
	return m, nil
}

func (s *CatalogService) ListMedicalAids(ctx context.Context) ([]*medicalaid.MedicalAid, error) {
	return s.medicalAids.List(ctx, true)
}
