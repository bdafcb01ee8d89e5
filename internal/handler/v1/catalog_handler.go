package v1

import (
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/domain/catalog"
	"github.com/dmehra2102/prod-golang-projects/optiflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	svc *service.CatalogService
	log *zap.Logger
}

func NewCatalogHandler(svc *service.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, log: log}
}

type createServiceRequest struct {
	Name         string  `json:"name" binding:"required,max=150"`
	Description  string  `json:"description"`
	DurationMins int     `json:"duration_mins" binding:"required"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
}

type updateServiceRequest struct {
	Description  *string  `json:"description"`
	DurationMins *int     `json:"duration_mins"`
	Price        *float64 `json:"price"`
	Category     *string  `json:"category"`
	IsActive     *bool    `json:"is_active"`
}

type createMedicalAidRequest struct {
	Name          string `json:"name" binding:"required,max=150"`
	ContactNumber string `json:"contact_number" binding:"max=30"`
	Email         string `json:"email" binding:"omitempty,email"`
	Website       string `json:"website" binding:"omitempty,url"`
}

// ListServices returns active services ordered by name.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.svc.ListServices(c.Request.Context(), false)
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	out := make([]ServiceResponse, len(services))
	for i, s := range services {
		out[i] = toServiceResponse(s)
	}
	respondOK(c, out)
}

func (h *CatalogHandler) CreateService(c *gin.Context) {
	var req createServiceRequest
	if !bindJSON(c, &req) {
		return
	}
	svc, err := h.svc.CreateService(c.Request.Context(), &catalog.CreateServiceCommand{
		Name:         req.Name,
		Description:  req.Description,
		DurationMins: req.DurationMins,
		Price:        req.Price,
		Category:     catalog.Category(req.Category),
	}, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toServiceResponse(svc))
}

func (h *CatalogHandler) UpdateService(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &catalog.UpdateServiceCommand{
		Description:  req.Description,
		DurationMins: req.DurationMins,
		Price:        req.Price,
		IsActive:     req.IsActive,
	}
	if req.Category != nil {
		cat := catalog.Category(*req.Category)
		cmd.Category = &cat
	}

	svc, err := h.svc.UpdateService(c.Request.Context(), id, cmd, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondOK(c, toServiceResponse(svc))
}

func (h *CatalogHandler) ListMedicalAids(c *gin.Context) {
	aids, err := h.svc.ListMedicalAids(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	out := make([]MedicalAidResponse, len(aids))
	for i, m := range aids {
		out[i] = toMedicalAidResponse(m)
	}
	respondOK(c, out)
}

func (h *CatalogHandler) CreateMedicalAid(c *gin.Context) {
	var req createMedicalAidRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.CreateMedicalAid(c.Request.Context(), &service.CreateMedicalAidCommand{
		Name:          req.Name,
		ContactNumber: req.ContactNumber,
		Email:         req.Email,
		Website:       req.Website,
	}, actor(c))
	if err != nil {
		respondServiceError(c, h.log, err)
		return
	}
	respondCreated(c, toMedicalAidResponse(m))
}
