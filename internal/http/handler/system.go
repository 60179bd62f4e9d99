package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/willysamz/ha-matrix-api/internal/http/dto"
	"github.com/willysamz/ha-matrix-api/internal/matrix"
	"github.com/willysamz/ha-matrix-api/internal/service"
)

// StatusProvider is the slice of the matrix client the status endpoint reads.
type StatusProvider interface {
	Status() matrix.Status
	BaseURL() string
}

// SystemHandler serves device-level status information.
type SystemHandler struct {
	matrix StatusProvider
	health *service.HealthService
}

// NewSystemHandler constructs a SystemHandler instance.
func NewSystemHandler(matrix StatusProvider, health *service.HealthService) *SystemHandler {
	return &SystemHandler{matrix: matrix, health: health}
}

// GetStatus handles GET /api/status.
//
// Reports the raw connection bookkeeping: connection state, reachability
// from the last probe, device URL, last successful command time, the
// device's last raw response and process uptime.
func (h *SystemHandler) GetStatus(c *gin.Context) {
	st := h.matrix.Status()
	hs := h.health.Snapshot()

	c.JSON(http.StatusOK, dto.MatrixStatus{
		Connection:    string(st.State),
		Reachable:     hs.Reachable,
		URL:           h.matrix.BaseURL(),
		LastCommand:   st.LastCommand,
		LastResponse:  st.LastResponse,
		LastError:     hs.LastError,
		UptimeSeconds: h.health.Uptime().Seconds(),
	})
}
