package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/google/uuid"
)

type DoctorRepository struct {
	s *Store
}

func (r *DoctorRepository) Create(_ context.Context, d *doctor.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.taken(d) {
		return doctor.ErrDoctorAlreadyExists
	}
	d.ID = newID(d.ID)
	now := time.Now()
	d.CreatedAt, d.UpdatedAt = now, now
	r.s.doctors[d.ID] = cloneDoctor(d)
	return nil
}

func (r *DoctorRepository) GetByID(_ context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return cloneDoctor(d), nil
}

func (r *DoctorRepository) GetByEmail(_ context.Context, email string) (*doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, d := range r.s.doctors {
		if d.Email == email {
			return cloneDoctor(d), nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *DoctorRepository) Save(_ context.Context, d *doctor.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.doctors[d.ID]; !ok {
		return doctor.ErrDoctorNotFound
	}
	if r.taken(d) {
		return doctor.ErrDoctorAlreadyExists
	}
	d.UpdatedAt = time.Now()
	r.s.doctors[d.ID] = cloneDoctor(d)
	return nil
}

func (r *DoctorRepository) List(_ context.Context, activeOnly bool) ([]*doctor.Doctor, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*doctor.Doctor, 0, len(r.s.doctors))
	for _, d := range r.s.doctors {
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

// taken must be called with r.s.mu held.
func (r *DoctorRepository) taken(d *doctor.Doctor) bool {
	for _, other := range r.s.doctors {
		if other.ID == d.ID {
			continue
		}
		if other.Email == d.Email || other.LicenseNumber == d.LicenseNumber {
			return true
		}
	}
	return false
}
