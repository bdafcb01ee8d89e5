package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable. A nil Pinger means there is
// nothing to check (in-memory store).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db      Pinger
	version string
	log     *zap.Logger
}

func NewHealthHandler(db Pinger, version string, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, version: version, log: log}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func (h *HealthHandler) Check(c *gin.Context) {
	resp := healthResponse{
		Status:    "OK",
		Message:   "Optometrist practice API is running",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn("health check: database unreachable", zap.Error(err))
			resp.Status = "DEGRADED"
			resp.Message = "database unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}
