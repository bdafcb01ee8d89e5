package catalog

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Service) error
	// GetByID returns ErrServiceNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	GetByName(ctx context.Context, name string) (*Service, error)
	Save(ctx context.Context, s *Service) error
	// List returns services ordered by name.
	List(ctx context.Context, activeOnly bool) ([]*Service, error)
}
