// Package memory implements the repositories on process memory. It backs DB_DRIVER=memory
// and the service tests; records are copied on the way in and out so callers never share
// state with the store.
package memory

import (
	"sync"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/google/uuid"
)

type Store struct {
	mu           sync.RWMutex
	patients     map[uuid.UUID]*patient.Patient
	doctors      map[uuid.UUID]*doctor.Doctor
	services     map[uuid.UUID]*catalog.Service
	medicalAids  map[uuid.UUID]*medicalaid.MedicalAid
	appointments map[uuid.UUID]*appointment.Appointment
	users        map[uuid.UUID]*domain.User
	auditLogs    []*domain.AuditLog

	calendarsMu sync.Mutex
	calendars   map[uuid.UUID]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		patients:     make(map[uuid.UUID]*patient.Patient),
		doctors:      make(map[uuid.UUID]*doctor.Doctor),
		services:     make(map[uuid.UUID]*catalog.Service),
		medicalAids:  make(map[uuid.UUID]*medicalaid.MedicalAid),
		appointments: make(map[uuid.UUID]*appointment.Appointment),
		users:        make(map[uuid.UUID]*domain.User),
		calendars:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) Patients() *PatientRepository         { return &PatientRepository{s: s} }
func (s *Store) Doctors() *DoctorRepository           { return &DoctorRepository{s: s} }
func (s *Store) Services() *ServiceRepository         { return &ServiceRepository{s: s} }
func (s *Store) MedicalAids() *MedicalAidRepository   { return &MedicalAidRepository{s: s} }
func (s *Store) Appointments() *AppointmentRepository { return &AppointmentRepository{s: s} }
func (s *Store) Users() *UserRepository               { return &UserRepository{s: s} }
func (s *Store) AuditLogs() *AuditRepository          { return &AuditRepository{s: s} }

// calendarLock returns the mutex serialising writers of one doctor's calendar.
func (s *Store) calendarLock(doctorID uuid.UUID) *sync.Mutex {
	s.calendarsMu.Lock()
	defer s.calendarsMu.Unlock()
	m, ok := s.calendars[doctorID]
	if !ok {
		m = &sync.Mutex{}
		s.calendars[doctorID] = m
	}
	return m
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func pageBounds(total, page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	from := (page - 1) * pageSize
	if from > total {
		from = total
	}
	to := from + pageSize
	if to > total {
		to = total
	}
	return from, to
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}

func clonePatient(p *patient.Patient) *patient.Patient {
	c := *p
	if p.Phone != nil {
		phone := *p.Phone
		c.Phone = &phone
	}
	if p.MedicalAidID != nil {
		id := *p.MedicalAidID
		c.MedicalAidID = &id
	}
	return &c
}

func cloneDoctor(d *doctor.Doctor) *doctor.Doctor {
	c := *d
	c.Specializations = append([]string(nil), d.Specializations...)
	c.WorkingHours = append(doctor.WorkingHours(nil), d.WorkingHours...)
	return &c
}

func cloneAppointment(a *appointment.Appointment) *appointment.Appointment {
	c := *a
	c.Notes = append([]appointment.Note(nil), a.Notes...)
	return &c
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}
