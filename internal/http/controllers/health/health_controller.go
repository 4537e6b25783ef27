// Package health contiene el controller para health checks.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/dropDatabas3/stamper/internal/observability/logger"
	"github.com/dropDatabas3/stamper/internal/stamper"
)

// StateReader es la vista mínima del Manager que necesita el health check.
type StateReader interface {
	State() stamper.State
}

// HealthResponse es la respuesta de /healthz y /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	State   stamper.State `json:"state"`
	Version string        `json:"version,omitempty"`
}

// HealthController maneja las rutas de health check.
type HealthController struct {
	mgr     StateReader
	version string
}

// NewHealthController crea un nuevo controller de health check.
func NewHealthController(mgr StateReader, version string) *HealthController {
	return &HealthController{mgr: mgr, version: version}
}

// Healthz maneja GET /healthz. Siempre 200 mientras el proceso responda.
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", State: c.mgr.State(), Version: c.version})
}

// Readyz maneja GET /readyz. 503 hasta que haya una clave activa.
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	state := c.mgr.State()
	resp := HealthResponse{Status: "ready", State: state, Version: c.version}
	status := http.StatusOK
	if state == stamper.StateUninitialized {
		resp.Status = "unavailable"
		status = http.StatusServiceUnavailable
	}

	logger.From(r.Context()).Debug("health check completed",
		logger.Op("HealthController.Readyz"),
		logger.String("status", resp.Status),
	)
	if c.version != "" {
		w.Header().Set("X-Service-Version", c.version)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v HealthResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
