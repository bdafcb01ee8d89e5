package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on duplicate email or phone.
	Create(ctx context.Context, p *Patient) error

	// GetByID retrieves a patient by primary key. Returns ErrPatientNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	// GetByEmail retrieves a patient by normalised email.
	GetByEmail(ctx context.Context, email string) (*Patient, error)

	// Save writes back every column of an existing patient.
	Save(ctx context.Context, p *Patient) error

	// List returns a paginated, filtered list of patients.
	List(ctx context.Context, q *ListPatientsQuery) (*PagedPatients, error)

	// ExistsByContact checks email/phone uniqueness without fetching the full record.
	ExistsByContact(ctx context.Context, email string, phone *string, excludeID *uuid.UUID) (bool, error)
}
