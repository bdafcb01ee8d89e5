package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new doctor. Returns ErrDoctorAlreadyExists on duplicate email or license.
	Create(ctx context.Context, d *Doctor) error

	// GetByID returns ErrDoctorNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	GetByEmail(ctx context.Context, email string) (*Doctor, error)

	Save(ctx context.Context, d *Doctor) error

	// List returns doctors ordered by last name; activeOnly hides deactivated doctors.
	List(ctx context.Context, activeOnly bool) ([]*Doctor, error)
}
