package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"cityroute/internal/catalog"
	"cityroute/internal/models"
)

// TransferPointInput is the JSON body of POST /api/v1/transfer-points
type TransferPointInput struct {
	ID       string             `json:"id" validate:"required,max=64"`
	Label    string             `json:"label" validate:"required,max=200"`
	Kind     string             `json:"kind" validate:"required,oneof=taxi_stand van_terminal"`
	Location models.Coordinates `json:"location"`
}

func paramFromContext(r *http.Request, name string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(name)
}

// HandleListTransferPoints handles GET /api/v1/transfer-points.
// With lat, lng and radius it returns only points within radius meters.
func (h *Handler) HandleListTransferPoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind := models.TransferKind(q.Get("kind"))
	switch kind {
	case "", models.KindTaxiStand, models.KindVanTerminal:
	default:
		h.handleValidationError(w, "kind must be taxi_stand or van_terminal")
		return
	}

	if q.Get("lat") == "" && q.Get("lng") == "" {
		points, err := h.Catalog.List(r.Context(), kind)
		if err != nil {
			h.handleInternalError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"transfer_points": points})
		return
	}

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		h.handleValidationError(w, "lat and lng must be numbers")
		return
	}
	center := models.Coordinates{Lat: lat, Lng: lng}
	if err := h.Validate.Struct(center); err != nil {
		h.handleStructErrors(w, err)
		return
	}

	radius := 1000.0
	if raw := q.Get("radius"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			h.handleValidationError(w, "radius must be a positive number of meters")
			return
		}
		radius = v
	}

	points, err := h.Catalog.Nearby(r.Context(), kind, center, radius)
	if err != nil {
		h.handleInternalError(w, err)
		return
	}
	if points == nil {
		points = []models.TransferPoint{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"transfer_points": points})
}

// HandleUpsertTransferPoint handles POST /api/v1/transfer-points
func (h *Handler) HandleUpsertTransferPoint(w http.ResponseWriter, r *http.Request) {
	var in TransferPointInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.handleValidationError(w, "Invalid request body: "+err.Error())
		return
	}
	if err := h.Validate.Struct(&in); err != nil {
		h.handleStructErrors(w, err)
		return
	}

	point := models.TransferPoint{
		ID:       in.ID,
		Label:    in.Label,
		Kind:     models.TransferKind(in.Kind),
		Location: in.Location,
	}
	if err := h.Catalog.Upsert(r.Context(), point); err != nil {
		h.handleInternalError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, point)
}

// HandleDeleteTransferPoint handles DELETE /api/v1/transfer-points/:id
func (h *Handler) HandleDeleteTransferPoint(w http.ResponseWriter, r *http.Request) {
	id := paramFromContext(r, "id")
	if err := h.Catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			h.handleNotFound(w, "Transfer point not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
