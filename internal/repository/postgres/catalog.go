package postgres

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServiceRepository struct {
	db *gorm.DB
}

func NewServiceRepository(db *gorm.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func (r *ServiceRepository) Create(ctx context.Context, s *catalog.Service) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return translate(err, nil, catalog.ErrServiceAlreadyExists)
	}
	return nil
}

func (r *ServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error) {
	var s catalog.Service
	if err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, catalog.ErrServiceNotFound, nil)
	}
	return &s, nil
}

func (r *ServiceRepository) GetByName(ctx context.Context, name string) (*catalog.Service, error) {
	var s catalog.Service
	if err := r.db.WithContext(ctx).First(&s, "LOWER(name) = LOWER(?)", name).Error; err != nil {
		return nil, translate(err, catalog.ErrServiceNotFound, nil)
	}
	return &s, nil
}

func (r *ServiceRepository) Save(ctx context.Context, s *catalog.Service) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return translate(err, nil, catalog.ErrServiceAlreadyExists)
	}
	return nil
}

func (r *ServiceRepository) List(ctx context.Context, activeOnly bool) ([]*catalog.Service, error) {
	tx := r.db.WithContext(ctx)
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var services []*catalog.Service
	if err := tx.Order("name ASC").Find(&services).Error; err != nil {
		return nil, fmt.Errorf("listing services: %w", err)
	}
	return services, nil
}

type MedicalAidRepository struct {
	db *gorm.DB
}

func NewMedicalAidRepository(db *gorm.DB) *MedicalAidRepository {
	return &MedicalAidRepository{db: db}
}

func (r *MedicalAidRepository) Create(ctx context.Context, m *medicalaid.MedicalAid) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translate(err, nil, medicalaid.ErrMedicalAidAlreadyExists)
	}
	return nil
}

func (r *MedicalAidRepository) GetByID(ctx context.Context, id uuid.UUID) (*medicalaid.MedicalAid, error) {
	var m medicalaid.MedicalAid
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translate(err, medicalaid.ErrMedicalAidNotFound, nil)
	}
	return &m, nil
}

func (r *MedicalAidRepository) GetByName(ctx context.Context, name string) (*medicalaid.MedicalAid, error) {
	var m medicalaid.MedicalAid
	if err := r.db.WithContext(ctx).First(&m, "LOWER(name) = LOWER(?)", name).Error; err != nil {
		return nil, translate(err, medicalaid.ErrMedicalAidNotFound, nil)
	}
	return &m, nil
}

func (r *MedicalAidRepository) List(ctx context.Context, activeOnly bool) ([]*medicalaid.MedicalAid, error) {
	tx := r.db.WithContext(ctx)
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}
	var aids []*medicalaid.MedicalAid
	if err := tx.Order("name ASC").Find(&aids).Error; err != nil {
		return nil, fmt.Errorf("listing medical aids: %w", err)
	}
	return aids, nil
}
