package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/google/uuid"
)

type ServiceRepository struct {
	s *Store
}

func (r *ServiceRepository) Create(_ context.Context, svc *catalog.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.services {
		if strings.EqualFold(other.Name, svc.Name) {
			return catalog.ErrServiceAlreadyExists
		}
	}
	svc.ID = newID(svc.ID)
	now := time.Now()
	svc.CreatedAt, svc.UpdatedAt = now, now
	c := *svc
	r.s.services[svc.ID] = &c
	return nil
}

func (r *ServiceRepository) GetByID(_ context.Context, id uuid.UUID) (*catalog.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	svc, ok := r.s.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	c := *svc
	return &c, nil
}

func (r *ServiceRepository) GetByName(_ context.Context, name string) (*catalog.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, svc := range r.s.services {
		if strings.EqualFold(svc.Name, name) {
			c := *svc
			return &c, nil
		}
	}
	return nil, catalog.ErrServiceNotFound
}

func (r *ServiceRepository) Save(_ context.Context, svc *catalog.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.services[svc.ID]; !ok {
		return catalog.ErrServiceNotFound
	}
	svc.UpdatedAt = time.Now()
	c := *svc
	r.s.services[svc.ID] = &c
	return nil
}

func (r *ServiceRepository) List(_ context.Context, activeOnly bool) ([]*catalog.Service, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*catalog.Service, 0, len(r.s.services))
	for _, svc := range r.s.services {
		if activeOnly && !svc.IsActive {
			continue
		}
		c := *svc
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type MedicalAidRepository struct {
	s *Store
}

func (r *MedicalAidRepository) Create(_ context.Context, m *medicalaid.MedicalAid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, other := range r.s.medicalAids {
		if strings.EqualFold(other.Name, m.Name) {
			return medicalaid.ErrMedicalAidAlreadyExists
		}
	}
	m.ID = newID(m.ID)
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	c := *m
	r.s.medicalAids[m.ID] = &c
	return nil
}

func (r *MedicalAidRepository) GetByID(_ context.Context, id uuid.UUID) (*medicalaid.MedicalAid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.medicalAids[id]
	if !ok {
		return nil, medicalaid.ErrMedicalAidNotFound
	}
	c := *m
	return &c, nil
}

func (r *MedicalAidRepository) GetByName(_ context.Context, name string) (*medicalaid.MedicalAid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.medicalAids {
		if strings.EqualFold(m.Name, name) {
			c := *m
			return &c, nil
		}
	}
	return nil, medicalaid.ErrMedicalAidNotFound
}

func (r *MedicalAidRepository) List(_ context.Context, activeOnly bool) ([]*medicalaid.MedicalAid, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*medicalaid.MedicalAid, 0, len(r.s.medicalAids))
	for _, m := range r.s.medicalAids {
		if activeOnly && !m.IsActive {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
