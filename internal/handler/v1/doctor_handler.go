package v1

import (
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DoctorHandler struct {
	svc          *service.DoctorService
	appointments *service.AppointmentService
	log          *zap.Logger
}

func NewDoctorHandler(svc *service.DoctorService, appointments *service.AppointmentService, log *zap.Logger) *DoctorHandler {
	return &DoctorHandler{svc: svc, appointments: appointments, log: log}
}

// Working hours arrive either structured or in the practice's text form
// ("Monday-Friday: 08:00-18:00, Saturday: 09:00-15:00, Sunday: Closed").
type workingHoursInput struct {
	WorkingHours     *doctor.WorkingHours `json:"working_hours"`
	WorkingHoursText *string              `json:"working_hours_text"`
}

func (in workingHoursInput) resolve(c *gin.Context) (*doctor.WorkingHours, bool) {
	switch {
	case in.WorkingHoursText != nil:
		hours, err := doctor.ParseWorkingHours(*in.WorkingHoursText)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return nil, false
		}
		return &hours, true
	case in.WorkingHours != nil:
		return in.WorkingHours, true
	}
	return nil, true
}

type createDoctorRequest struct {
	FirstName       string   `json:"first_name" binding:"required,max=100"`
	LastName        string   `json:"last_name" binding:"required,max=100"`
	Email           string   `json:"email" binding:"required,email"`
	Phone           string   `json:"phone" binding:"max=30"`
	LicenseNumber   string   `json:"license_number" binding:"required,max=50"`
	Specializations []string `json:"specializations"`
	Education       string   `json:"education"`
	Experience      string   `json:"experience"`
	Bio             string   `json:"bio"`
	ProfileImage    string   `json:"profile_image" binding:"max=255"`
	workingHoursInput
}

type updateDoctorRequest struct {
	FirstName       *string   `json:"first_name" binding:"omitempty,max=100"`
	LastName        *string   `json:"last_name" binding:"omitempty,max=100"`
	Phone           *string   `json:"phone" binding:"omitempty,max=30"`
	Specializations *[]string `json:"specializations"`
	Education       *string   `json:"education"`
	Experience      *string   `json:"experience"`
	Bio             *string   `json:"bio"`
	ProfileImage    *string   `json:"profile_image" binding:"omitempty,max=255"`
	IsActive        *bool     `json:"is_active"`
	workingHoursInput
}

func (h *DoctorHandler) Create(c *gin.Context) {
	var req createDoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	hours, ok := req.resolve(c)
	if !ok {
		return
	}
	if hours == nil {
		respondError(c, http.StatusBadRequest, "working_hours or working_hours_text is required")
		return
	}

	d, err := h.svc.CreateDoctor(c.Request.Context(), &doctor.CreateDoctorCommand{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		LicenseNumber:   req.LicenseNumber,
		Specializations: req.Specializations,
		Education:       req.Education,
		Experience:      req.Experience,
		Bio:             req.Bio,
		ProfileImage:    req.ProfileImage,
		WorkingHours:    *hours,
	}, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toDoctorResponse(d))
}

func (h *DoctorHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.svc.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

func (h *DoctorHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateDoctorRequest
	if !bindJSON(c, &req) {
		return
	}
	hours, ok := req.resolve(c)
	if !ok {
		return
	}

	d, err := h.svc.UpdateDoctor(c.Request.Context(), id, &doctor.UpdateDoctorCommand{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Phone:           req.Phone,
		Specializations: req.Specializations,
		Education:       req.Education,
		Experience:      req.Experience,
		Bio:             req.Bio,
		ProfileImage:    req.ProfileImage,
		WorkingHours:    hours,
		IsActive:        req.IsActive,
	}, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toDoctorResponse(d))
}

func (h *DoctorHandler) List(c *gin.Context) {
	doctors, err := h.svc.ListDoctors(c.Request.Context(), false)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	out := make([]DoctorResponse, len(doctors))
	for i, d := range doctors {
		out[i] = toDoctorResponse(d)
	}
	respondOK(c, out)
}

type availabilityResponse struct {
	DoctorID  uuid.UUID   `json:"doctor_id"`
	ServiceID uuid.UUID   `json:"service_id"`
	Date      string      `json:"date"`
	Slots     []time.Time `json:"slots"`
}

// Availability lists free start times: GET /doctors/:id/availability?date=YYYY-MM-DD&serviceId=
func (h *DoctorHandler) Availability(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	serviceID, ok := parseQueryUUID(c, "serviceId")
	if !ok {
		return
	}
	if serviceID == nil {
		respondError(c, http.StatusBadRequest, "serviceId is required")
		return
	}
	loc := h.appointments.Location()
	date, present, ok := parseDate(c, "date", loc)
	if !ok {
		return
	}
	if !present {
		respondError(c, http.StatusBadRequest, "date is required")
		return
	}

	slots, err := h.appointments.FreeSlots(c.Request.Context(), id, *serviceID, date)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, availabilityResponse{
		DoctorID:  id,
		ServiceID: *serviceID,
		Date:      date.Format(time.DateOnly),
		Slots:     slots,
	})
}
