package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/hilthontt/duelrooms/internal/infrastructure/json"
)

var startTime = time.Now()

// Stats reports the live counters exposed on the health endpoints.
type Stats interface {
	RoomCount() int
	Connections() int
}

type Handler struct {
	stats   Stats
	healthy atomic.Bool
}

func NewHandler(stats Stats) *Handler {
	h := &Handler{stats: stats}
	h.healthy.Store(true)
	return h
}

// SetHealthy flips the readiness state, e.g. while the server drains.
func (h *Handler) SetHealthy(ok bool) {
	h.healthy.Store(ok)
}

// GetHealth godoc
// @Summary      Health check
// @Description  Returns the health status with uptime, open rooms and live connections
// @Tags         health
// @Produce      json
// @Success      200 {object} healthResponse "Service is healthy"
// @Failure      503 {object} healthResponse "Service is unhealthy"
// @Router       /health [get]
// @Router       /healthz [get]
// @Router       /ready [get]
// @Router       /live [get]
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
	if h.stats != nil {
		resp.Rooms = h.stats.RoomCount()
		resp.Connections = h.stats.Connections()
	}

	if !h.healthy.Load() {
		resp.Status = "unhealthy"
		json.Write(w, http.StatusServiceUnavailable, resp)
		return
	}

	json.Write(w, http.StatusOK, resp)
}
