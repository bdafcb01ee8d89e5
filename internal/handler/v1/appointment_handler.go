package v1

import (
	"net/http"
	"time"

	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
	log *zap.Logger
}

func NewAppointmentHandler(svc *service.AppointmentService, log *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{svc: svc, log: log}
}

type bookRequest struct {
	// PatientID defaults to the caller's own record for the patient role
	PatientID    *uuid.UUID `json:"patient_id"`
	DoctorID     uuid.UUID  `json:"doctor_id" binding:"required"`
	ServiceID    uuid.UUID  `json:"service_id" binding:"required"`
	MedicalAidID *uuid.UUID `json:"medical_aid_id"`
	Start        time.Time  `json:"start" binding:"required"`
	Reason       string     `json:"reason" binding:"max=1000"`
}

const (
	actionReschedule = "reschedule"
	actionConfirm    = "confirm"
	actionComplete   = "complete"
	actionCancel     = "cancel"
	actionNote       = "note"
)

type patchAppointmentRequest struct {
	Action string     `json:"action" binding:"required,oneof=reschedule confirm complete cancel note"`
	Start  *time.Time `json:"start"`
	Reason string     `json:"reason"`
	Note   string     `json:"note"`
}

func (h *AppointmentHandler) Book(c *gin.Context) {
	var req bookRequest
	if !bindJSON(c, &req) {
		return
	}

	caller := actor(c)
	patientID := req.PatientID
	if patientID == nil && caller.Role == domain.RolePatient {
		patientID = caller.PatientID
	}
	if patientID == nil {
		respondError(c, http.StatusBadRequest, "patient_id is required")
		return
	}

	a, err := h.svc.Book(c.Request.Context(), &appointment.BookCommand{
		PatientID:    *patientID,
		DoctorID:     req.DoctorID,
		ServiceID:    req.ServiceID,
		MedicalAidID: req.MedicalAidID,
		Start:        req.Start,
		Reason:       req.Reason,
	}, caller)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toAppointmentResponse(a, h.svc.Location()))
}

// Patch applies one lifecycle action to an appointment.
func (h *AppointmentHandler) Patch(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req patchAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	var (
		a      *appointment.Appointment
		err    error
		ctx    = c.Request.Context()
		caller = actor(c)
	)
	switch req.Action {
	case actionReschedule:
		if req.Start == nil {
			respondError(c, http.StatusBadRequest, "start is required to reschedule")
			return
		}
		a, err = h.svc.Reschedule(ctx, &appointment.RescheduleCommand{AppointmentID: id, NewStart: *req.Start}, caller)
	case actionConfirm:
		a, err = h.svc.Confirm(ctx, id, caller)
	case actionComplete:
		a, err = h.svc.Complete(ctx, id, caller)
	case actionCancel:
		a, err = h.svc.Cancel(ctx, &appointment.CancelCommand{AppointmentID: id, Reason: req.Reason}, caller)
	case actionNote:
		a, err = h.svc.AddNote(ctx, id, req.Note, caller)
	}
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toAppointmentResponse(a, h.svc.Location()))
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toAppointmentResponse(a, h.svc.Location()))
}

// List: GET /appointments?doctorId=&patientId=&status=&date=YYYY-MM-DD&page=&page_size=
func (h *AppointmentHandler) List(c *gin.Context) {
	loc := h.svc.Location()
	q := &appointment.ListAppointmentsQuery{
		Page:     parseQueryInt(c, "page", 1),
		PageSize: parseQueryInt(c, "page_size", 20),
	}

	var ok bool
	if q.DoctorID, ok = parseQueryUUID(c, "doctorId"); !ok {
		return
	}
	if q.PatientID, ok = parseQueryUUID(c, "patientId"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		st := appointment.Status(raw)
		q.Status = &st
	}
	date, present, ok := parseDate(c, "date", loc)
	if !ok {
		return
	}
	if present {
		next := date.AddDate(0, 0, 1)
		q.From, q.To = &date, &next
	}

	page, err := h.svc.List(c.Request.Context(), q, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}

	items := make([]AppointmentResponse, len(page.Appointments))
	for i, a := range page.Appointments {
		items[i] = toAppointmentResponse(a, loc)
	}
	respondOK(c, PageResponse[AppointmentResponse]{
		Items:      items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}
