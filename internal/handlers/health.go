package handlers

import "net/http"

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "connected"

	if err := h.Catalog.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "error"
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"version":  h.Version,
		"database": dbStatus,
		"sessions": h.Sessions.Len(),
	})
}
