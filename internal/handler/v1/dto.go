package v1

import (
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/medicalaid"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/google/uuid"
)

type PatientResponse struct {
	ID               uuid.UUID      `json:"id"`
	FirstName        string         `json:"first_name"`
	LastName         string         `json:"last_name"`
	DateOfBirth      string         `json:"date_of_birth"`
	Gender           patient.Gender `json:"gender"`
	IDNumber         string         `json:"id_number,omitempty"`
	Email            string         `json:"email"`
	Phone            *string        `json:"phone,omitempty"`
	Address          string         `json:"address,omitempty"`
	City             string         `json:"city,omitempty"`
	PostalCode       string         `json:"postal_code,omitempty"`
	MedicalAidID     *uuid.UUID     `json:"medical_aid_id,omitempty"`
	MedicalAidNumber string         `json:"medical_aid_number,omitempty"`
	Status           patient.Status `json:"status"`
	Notes            string         `json:"notes,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toPatientResponse(p *patient.Patient) PatientResponse {
	return PatientResponse{
		ID:               p.ID,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		DateOfBirth:      p.DateOfBirth.Format(time.DateOnly),
		Gender:           p.Gender,
		IDNumber:         p.IDNumber,
		Email:            p.Email,
		Phone:            p.Phone,
		Address:          p.Address,
		City:             p.City,
		PostalCode:       p.PostalCode,
		MedicalAidID:     p.MedicalAidID,
		MedicalAidNumber: p.MedicalAidNumber,
		Status:           p.Status,
		Notes:            p.Notes,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

type DoctorResponse struct {
	ID              uuid.UUID           `json:"id"`
	FirstName       string              `json:"first_name"`
	LastName        string              `json:"last_name"`
	FullName        string              `json:"full_name"`
	Email           string              `json:"email"`
	Phone           string              `json:"phone,omitempty"`
	LicenseNumber   string              `json:"license_number"`
	Specializations []string            `json:"specializations"`
	Education       string              `json:"education,omitempty"`
	Experience      string              `json:"experience,omitempty"`
	Bio             string              `json:"bio,omitempty"`
	ProfileImage    string              `json:"profile_image,omitempty"`
	WorkingHours    doctor.WorkingHours `json:"working_hours"`
	// WorkingHoursText is the same schedule in its human-readable form
	WorkingHoursText string `json:"working_hours_text"`
	IsActive         bool   `json:"is_active"`
}

func toDoctorResponse(d *doctor.Doctor) DoctorResponse {
	specs := d.Specializations
	if specs == nil {
		specs = []string{}
	}
	return DoctorResponse{
		ID:               d.ID,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		FullName:         d.FullName(),
		Email:            d.Email,
		Phone:            d.Phone,
		LicenseNumber:    d.LicenseNumber,
		Specializations:  specs,
		Education:        d.Education,
		Experience:       d.Experience,
		Bio:              d.Bio,
		ProfileImage:     d.ProfileImage,
		WorkingHours:     d.WorkingHours,
		WorkingHoursText: d.WorkingHours.String(),
		IsActive:         d.IsActive,
	}
}

type ServiceResponse struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Description  string           `json:"description,omitempty"`
	DurationMins int              `json:"duration_mins"`
	Price        float64          `json:"price"`
	Category     catalog.Category `json:"category"`
	IsActive     bool             `json:"is_active"`
}

func toServiceResponse(s *catalog.Service) ServiceResponse {
	return ServiceResponse{
		ID:           s.ID,
		Name:         s.Name,
		Description:  s.Description,
		DurationMins: s.DurationMins,
		Price:        s.Price,
		Category:     s.Category,
		IsActive:     s.IsActive,
	}
}

type MedicalAidResponse struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	ContactNumber string    `json:"contact_number,omitempty"`
	Email         string    `json:"email,omitempty"`
	Website       string    `json:"website,omitempty"`
}

func toMedicalAidResponse(m *medicalaid.MedicalAid) MedicalAidResponse {
	return MedicalAidResponse{
		ID:            m.ID,
		Name:          m.Name,
		ContactNumber: m.ContactNumber,
		Email:         m.Email,
		Website:       m.Website,
	}
}

type AppointmentResponse struct {
	ID                 uuid.UUID          `json:"id"`
	PatientID          uuid.UUID          `json:"patient_id"`
	DoctorID           uuid.UUID          `json:"doctor_id"`
	ServiceID          uuid.UUID          `json:"service_id"`
	MedicalAidID       *uuid.UUID         `json:"medical_aid_id,omitempty"`
	ScheduledStart     time.Time          `json:"scheduled_start"`
	ScheduledEnd       time.Time          `json:"scheduled_end"`
	DurationMins       int                `json:"duration_mins"`
	Status             appointment.Status `json:"status"`
	Reason             string             `json:"reason,omitempty"`
	Notes              []appointment.Note `json:"notes"`
	ConfirmedAt        *time.Time         `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time         `json:"completed_at,omitempty"`
	CancelledAt        *time.Time         `json:"cancelled_at,omitempty"`
	CancellationReason string             `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// toAppointmentResponse renders times in the practice zone.
func toAppointmentResponse(a *appointment.Appointment, loc *time.Location) AppointmentResponse {
	notes := a.Notes
	if notes == nil {
		notes = []appointment.Note{}
	}
	return AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		DoctorID:           a.DoctorID,
		ServiceID:          a.ServiceID,
		MedicalAidID:       a.MedicalAidID,
		ScheduledStart:     a.ScheduledStart.In(loc),
		ScheduledEnd:       a.EndsAt().In(loc),
		DurationMins:       a.DurationMins,
		Status:             a.Status,
		Reason:             a.Reason,
		Notes:              notes,
		ConfirmedAt:        a.ConfirmedAt,
		CompletedAt:        a.CompletedAt,
		CancelledAt:        a.CancelledAt,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}

type PageResponse[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}
