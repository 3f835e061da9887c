package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"cityroute/internal/models"
	"cityroute/internal/render"
	"cityroute/internal/routing"
)

// PlanRequest is the JSON body of POST /api/v1/plan
type PlanRequest struct {
	Origin              models.Coordinates     `json:"origin"`
	Destination         models.Coordinates     `json:"destination"`
	DestinationLabel    string                 `json:"destination_label" validate:"max=200"`
	Mode                models.Mode            `json:"mode" validate:"required,oneof=private walking taxi shared-van"`
	PinnedTransferPoint *models.TransferPoint  `json:"pinned_transfer_point,omitempty"`
	TransferPoints      []models.TransferPoint `json:"transfer_points,omitempty" validate:"omitempty,max=100,dive"`
}

// PlanResponse is returned for a successful plan
type PlanResponse struct {
	SessionID string                     `json:"session_id"`
	Sequence  uint64                     `json:"sequence"`
	Itinerary *models.Itinerary          `json:"itinerary"`
	Summaries []render.LegSummary        `json:"summaries"`
	Render    *geojson.FeatureCollection `json:"render"`
}

// HandlePlan handles POST /api/v1/plan
func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.handleValidationError(w, "Invalid request body: "+err.Error())
		return
	}
	if err := h.Validate.Struct(&req); err != nil {
		h.handleStructErrors(w, err)
		return
	}

	session := h.Sessions.GetOrCreate(r.Header.Get(SessionHeader))
	w.Header().Set(SessionHeader, session.ID)

	result, err := session.Plan(r.Context(), &routing.PlanRequest{
		Origin:           req.Origin,
		Destination:      req.Destination,
		DestinationLabel: req.DestinationLabel,
		Mode:             req.Mode,
		Pinned:           req.PinnedTransferPoint,
		Candidates:       req.TransferPoints,
	})
	if err != nil {
		h.handlePlanError(w, r, session.ID, err)
		return
	}

	h.writeJSON(w, http.StatusOK, PlanResponse{
		SessionID: session.ID,
		Sequence:  result.Sequence,
		Itinerary: result.Itinerary,
		Summaries: result.Summaries,
		Render:    result.Render,
	})
}

func (h *Handler) handlePlanError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	var invalid *routing.ErrInvalidInput
	switch {
	case errors.As(err, &invalid):
		h.writeError(w, http.StatusBadRequest, "INVALID_INPUT", invalid.Error(), map[string]string{"field": invalid.Field})
	case errors.Is(err, routing.ErrSuperseded):
		h.writeError(w, http.StatusConflict, "SUPERSEDED", "a newer plan request replaced this one", nil)
	case errors.Is(err, context.DeadlineExceeded):
		h.writeError(w, http.StatusGatewayTimeout, "TIMEOUT", "planning timed out", nil)
	case errors.Is(err, context.Canceled):
		h.Logger.Debug("plan request cancelled by client", zap.String("session", sessionID))
	default:
		h.handleInternalError(w, err)
	}
}

// HandleDeleteSession handles DELETE /api/v1/sessions/:id
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := paramFromContext(r, "id")
	if !h.Sessions.Delete(id) {
		h.handleNotFound(w, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
