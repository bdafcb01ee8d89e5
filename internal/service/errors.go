package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/google/uuid"
)

var ErrForbidden = errors.New("forbidden: insufficient permissions")

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

func invalid(fields ...string) error {
	return &ValidationError{Fields: fields}
}

type AuditEntry struct {
	Actor        domain.Actor
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	// Changes is a JSON document; empty means none
	Changes string
}

func requireStaff(actor domain.Actor) error {
	if !actor.Role.IsStaff() {
		return ErrForbidden
	}
	return nil
}

func requireRole(actor domain.Actor, roles ...domain.Role) error {
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	return ErrForbidden
}

// requireActiveMedicalAid resolves id and rejects providers the practice no longer accepts.
func requireActiveMedicalAid(ctx context.Context, repo medicalaid.Repository, id uuid.UUID) error {
	m, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !m.IsActive {
		return invalid("medical aid is not active")
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	return page, pageSize
}
