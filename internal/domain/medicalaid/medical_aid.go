// Package medicalaid holds insurance provider reference data used for billing context.
package medicalaid

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMedicalAidNotFound      = errors.New("medical aid not found")
	ErrMedicalAidAlreadyExists = errors.New("medical aid with this name already exists")
)

type MedicalAid struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Name          string `gorm:"column:name;type:varchar(150);uniqueIndex;not null"`
	ContactNumber string `gorm:"column:contact_number;type:varchar(30)"`
	Email         string `gorm:"column:email;type:varchar(255)"`
	Website       string `gorm:"column:website;type:varchar(255)"`
	IsActive      bool   `gorm:"column:is_active;not null;default:true"`
}

func (MedicalAid) TableName() string {
	return "practice.medical_aids"
}

type Repository interface {
	Create(ctx context.Context, m *MedicalAid) error
	// GetByID returns ErrMedicalAidNotFound if not found.
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalAid, error)
	GetByName(ctx context.Context, name string) (*MedicalAid, error)
	List(ctx context.Context, activeOnly bool) ([]*MedicalAid, error)
}
