package handlers

import (
	"net/http"
	"time"

	"pantrypos/internal/inventory"
	applog "pantrypos/internal/log"
)

type healthResponse struct {
	Status    string                     `json:"status"`
	Time      time.Time                  `json:"time"`
	Economics *inventory.EconomicsStatus `json:"economics,omitempty"`
}

// Health is a simple readiness handler suitable for infrastructure probes.
func Health(w http.ResponseWriter, r *http.Request) {
	applog.Debug(r.Context(), "health check requested", "method", r.Method)
	resp := healthResponse{
		Status: "ok",
		Time:   time.Now().UTC(),
	}
	if service != nil {
		status := service.EconomicsStatus(r.Context())
		resp.Economics = &status
	}

	writeJSON(w, http.StatusOK, resp)
	applog.Debug(r.Context(), "health check responded successfully")
}
