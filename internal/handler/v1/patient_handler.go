package v1

import (
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/patient"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PatientHandler struct {
	svc *service.PatientService
	log *zap.Logger
}

func NewPatientHandler(svc *service.PatientService, log *zap.Logger) *PatientHandler {
	return &PatientHandler{svc: svc, log: log}
}

type createPatientRequest struct {
	FirstName        string     `json:"first_name" binding:"required,max=100"`
	LastName         string     `json:"last_name" binding:"required,max=100"`
	DateOfBirth      string     `json:"date_of_birth" binding:"required"`
	Gender           string     `json:"gender" binding:"omitempty,oneof=male female other unknown"`
	IDNumber         string     `json:"id_number" binding:"max=50"`
	Email            string     `json:"email" binding:"required,email"`
	Phone            string     `json:"phone" binding:"max=30"`
	Address          string     `json:"address"`
	City             string     `json:"city" binding:"max=100"`
	PostalCode       string     `json:"postal_code" binding:"max=20"`
	MedicalAidID     *uuid.UUID `json:"medical_aid_id"`
	MedicalAidNumber string     `json:"medical_aid_number" binding:"max=50"`
	Notes            string     `json:"notes"`
}

func (r *createPatientRequest) command(c *gin.Context) (*patient.CreatePatientCommand, bool) {
	dob, err := time.Parse(time.DateOnly, r.DateOfBirth)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid date_of_birth: expected YYYY-MM-DD")
		return nil, false
	}
	return &patient.CreatePatientCommand{
		FirstName:        r.FirstName,
		LastName:         r.LastName,
		DateOfBirth:      dob,
		Gender:           patient.Gender(r.Gender),
		IDNumber:         r.IDNumber,
		Phone:            r.Phone,
		Email:            r.Email,
		Address:          r.Address,
		City:             r.City,
		PostalCode:       r.PostalCode,
		MedicalAidID:     r.MedicalAidID,
		MedicalAidNumber: r.MedicalAidNumber,
		Notes:            r.Notes,
	}, true
}

type updatePatientRequest struct {
	FirstName        *string    `json:"first_name" binding:"omitempty,max=100"`
	LastName         *string    `json:"last_name" binding:"omitempty,max=100"`
	Gender           *string    `json:"gender" binding:"omitempty,oneof=male female other unknown"`
	Email            *string    `json:"email" binding:"omitempty,email"`
	Phone            *string    `json:"phone" binding:"omitempty,max=30"`
	Address          *string    `json:"address"`
	City             *string    `json:"city" binding:"omitempty,max=100"`
	PostalCode       *string    `json:"postal_code" binding:"omitempty,max=20"`
	MedicalAidID     *uuid.UUID `json:"medical_aid_id"`
	MedicalAidNumber *string    `json:"medical_aid_number" binding:"omitempty,max=50"`
	Notes            *string    `json:"notes"`
}

func (h *PatientHandler) Create(c *gin.Context) {
	var req createPatientRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd, ok := req.command(c)
	if !ok {
		return
	}

	p, err := h.svc.CreatePatient(c.Request.Context(), cmd, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toPatientResponse(p))
}

func (h *PatientHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetPatient(c.Request.Context(), id, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toPatientResponse(p))
}

func (h *PatientHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updatePatientRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &patient.UpdatePatientCommand{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		City:             req.City,
		PostalCode:       req.PostalCode,
		MedicalAidID:     req.MedicalAidID,
		MedicalAidNumber: req.MedicalAidNumber,
		Notes:            req.Notes,
	}
	if req.Gender != nil {
		g := patient.Gender(*req.Gender)
		cmd.Gender = &g
	}

	p, err := h.svc.UpdatePatient(c.Request.Context(), id, cmd, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toPatientResponse(p))
}

func (h *PatientHandler) Deactivate(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivatePatient(c.Request.Context(), id, actor(c)); err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PatientHandler) List(c *gin.Context) {
	q := &patient.ListPatientsQuery{
		Search:   c.Query("search"),
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}
	if raw := c.Query("status"); raw != "" {
		st := patient.Status(raw)
		if st != patient.StatusActive && st != patient.StatusInactive {
			respondError(c, http.StatusBadRequest, "invalid status")
			return
		}
		q.Status = &st
	}

	page, err := h.svc.ListPatients(c.Request.Context(), q, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	items := make([]PatientResponse, len(page.Patients))
	for i, p := range page.Patients {
		items[i] = toPatientResponse(p)
	}
	respondOK(c, PageResponse[PatientResponse]{
		Items:      items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}
