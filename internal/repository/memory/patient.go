package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/google/uuid"
)

type PatientRepository struct {
	s *Store
}

func (r *PatientRepository) Create(_ context.Context, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.contactTaken(p.Email, p.Phone, nil) {
		return patient.ErrPatientAlreadyExists
	}
	p.ID = newID(p.ID)
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Status == "" {
		p.Status = patient.StatusActive
	}
	r.s.patients[p.ID] = clonePatient(p)
	return nil
}

func (r *PatientRepository) GetByID(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return clonePatient(p), nil
}

func (r *PatientRepository) GetByEmail(_ context.Context, email string) (*patient.Patient, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.patients {
		if p.Email == email {
			return clonePatient(p), nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *PatientRepository) Save(_ context.Context, p *patient.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.patients[p.ID]; !ok {
		return patient.ErrPatientNotFound
	}
	if r.contactTaken(p.Email, p.Phone, &p.ID) {
		return patient.ErrPatientAlreadyExists
	}
	p.UpdatedAt = time.Now()
	r.s.patients[p.ID] = clonePatient(p)
	return nil
}

func (r *PatientRepository) List(_ context.Context, q *patient.ListPatientsQuery) (*patient.PagedPatients, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(q.Search))
	var matched []*patient.Patient
	for _, p := range r.s.patients {
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.FullName()), search) &&
			!strings.Contains(p.Email, search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].LastName != matched[j].LastName {
			return matched[i].LastName < matched[j].LastName
		}
		return matched[i].FirstName < matched[j].FirstName
	})

	from, to := pageBounds(len(matched), q.Page, q.PageSize)
	out := make([]*patient.Patient, 0, to-from)
	for _, p := range matched[from:to] {
		out = append(out, clonePatient(p))
	}
	total := int64(len(matched))
	return &patient.PagedPatients{
		Patients:   out,
		TotalCount: total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages(total, q.PageSize),
	}, nil
}

func (r *PatientRepository) ExistsByContact(_ context.Context, email string, phone *string, excludeID *uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.contactTaken(email, phone, excludeID), nil
}

// contactTaken must be called with r.s.mu held.
func (r *PatientRepository) contactTaken(email string, phone *string, excludeID *uuid.UUID) bool {
	for _, p := range r.s.patients {
		if excludeID != nil && p.ID == *excludeID {
			continue
		}
		if p.Email == email {
			return true
		}
		if phone != nil && p.Phone != nil && *p.Phone == *phone {
			return true
		}
	}
	return false
}
