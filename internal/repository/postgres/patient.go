package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PatientRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewPatientRepository(db *gorm.DB, log *zap.Logger) *PatientRepository {
	return &PatientRepository{db: db, log: log}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return translate(err, nil, patient.ErrPatientAlreadyExists)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, patient.ErrPatientNotFound, nil)
	}
	return &p, nil
}

func (r *PatientRepository) GetByEmail(ctx context.Context, email string) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).First(&p, "email = ?", email).Error; err != nil {
		return nil, translate(err, patient.ErrPatientNotFound, nil)
	}
	return &p, nil
}

func (r *PatientRepository) Save(ctx context.Context, p *patient.Patient) error {
	res := r.db.WithContext(ctx).Save(p)
	if res.Error != nil {
		return translate(res.Error, nil, patient.ErrPatientAlreadyExists)
	}
	return nil
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	tx := r.db.WithContext(ctx).Model(&patient.Patient{})
	if q.Status != nil {
		tx = tx.Where("status = ?", *q.Status)
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("(first_name || ' ' || last_name) ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}

	var patients []*patient.Patient
	err := tx.Order("last_name ASC, first_name ASC").
		Offset(offset(q.Page, q.PageSize)).
		Limit(q.PageSize).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}

	return &patient.PagedPatients{
		Patients:   patients,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *PatientRepository) ExistsByContact(ctx context.Context, email string, phone *string, excludeID *uuid.UUID) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&patient.Patient{})
	if phone != nil {
		tx = tx.Where("(email = ? OR phone = ?)", email, *phone)
	} else {
		tx = tx.Where("email = ?", email)
	}
	if excludeID != nil {
		tx = tx.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking patient contact: %w", err)
	}
	return count > 0, nil
}
