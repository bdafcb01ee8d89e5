package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DoctorRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewDoctorRepository(db *gorm.DB, log *zap.Logger) *DoctorRepository {
	return &DoctorRepository{db: db, log: log}
}

func (r *DoctorRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return translate(err, nil, doctor.ErrDoctorAlreadyExists)
	}
	return nil
}

func (r *DoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, translate(err, doctor.ErrDoctorNotFound, nil)
	}
	return &d, nil
}

func (r *DoctorRepository) GetByEmail(ctx context.Context, email string) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, "email = ?", email).Error; err != nil {
		return nil, translate(err, doctor.ErrDoctorNotFound, nil)
	}
	return &d, nil
}

func (r *DoctorRepository) Save(ctx context.Context, d *doctor.Doctor) error {
	if err := r.db.WithContext(ctx).Save(d).Error; err != nil {
		return translate(err, nil, doctor.ErrDoctorAlreadyExists)
	}
	return nil
}

func (r *DoctorRepository) List(ctx context.Context, activeOnly bool) ([]*doctor.Doctor, error) {
	tx := r.db.WithContext(ctx)
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var doctors []*doctor.Doctor
	if err := tx.Order("last_name ASC").Find(&doctors).Error; err != nil {
		return nil, fmt.Errorf("listing doctors: %w", err)
	}
	return doctors, nil
}
