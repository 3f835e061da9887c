package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cityroute/internal/places"
)

// HandlePlaceSearch handles GET /api/v1/places?q=
func (h *Handler) HandlePlaceSearch(w http.ResponseWriter, r *http.Request) {
	if h.Places == nil {
		h.writeError(w, http.StatusServiceUnavailable, "SEARCH_UNAVAILABLE", "place search is not configured", nil)
		return
	}

	query := r.URL.Query().Get("q")
	if len(query) < 3 {
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"places": []places.Place{}})
		return
	}

	limit := 5
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 20 {
			h.handleValidationError(w, "limit must be between 1 and 20")
			return
		}
		limit = v
	}

	results, err := h.Places.Search(r.Context(), query, limit)
	if err != nil {
		h.Logger.Warn("place search failed", zap.String("query", query), zap.Error(err))
		results = []places.Place{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"places": results})
}
