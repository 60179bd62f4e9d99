package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/willysamz/ha-matrix-api/internal/http/dto"
	"github.com/willysamz/ha-matrix-api/internal/service"
)

// HealthHandler serves the Kubernetes-style probe endpoints.
type HealthHandler struct {
	health *service.HealthService
}

// NewHealthHandler constructs a HealthHandler instance.
func NewHealthHandler(health *service.HealthService) *HealthHandler {
	return &HealthHandler{health: health}
}

// Live handles GET /healthz/live.
//
// Liveness is process-local: answering at all is the signal. The matrix is
// never contacted and device state never factors in.
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /healthz/ready.
//
// Ready means the matrix was reachable on the most recent probe and at
// least one probe has completed; a freshly started process reports
// not-ready until the first probe lands.
//
// Status Codes:
//   - 200 OK → ready
//   - 503 Service Unavailable → not probed yet, or matrix unreachable
func (h *HealthHandler) Ready(c *gin.Context) {
	st := h.health.Snapshot()

	res := dto.HealthResponse{
		MatrixConnected: st.Reachable,
		LastError:       st.LastError,
		UptimeSeconds:   h.health.Uptime().Seconds(),
	}
	if st.Probes > 0 {
		t := st.LastChecked
		res.LastHealthCheck = &t
	}

	switch {
	case st.Reachable && st.Probes > 0:
		res.Status = "ok"
		c.JSON(http.StatusOK, res)
	case st.Probes == 0:
		res.Status = "degraded" // not probed yet
		c.JSON(http.StatusServiceUnavailable, res)
	default:
		res.Status = "error"
		c.JSON(http.StatusServiceUnavailable, res)
	}
}
