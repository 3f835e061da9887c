package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"cityroute/internal/models"
	"cityroute/internal/places"
)

// TransferPointStore is the catalog surface the API exposes
type TransferPointStore interface {
	List(ctx context.Context, kind models.TransferKind) ([]models.TransferPoint, error)
	Nearby(ctx context.Context, kind models.TransferKind, origin models.Coordinates, radiusMeters float64) ([]models.TransferPoint, error)
	Upsert(ctx context.Context, p models.TransferPoint) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Handler provides common handler utilities and dependencies
type Handler struct {
	Catalog  TransferPointStore
	Sessions *SessionStore
	Places   places.Searcher // optional
	Validate *validator.Validate
	Logger   *zap.Logger
	Version  string
}

// New wires a handler set. The planner behind sessions is shared by all clients.
func New(catalog TransferPointStore, sessions *SessionStore, logger *zap.Logger) *Handler {
	return &Handler{
		Catalog:  catalog,
		Sessions: sessions,
		Validate: validator.New(),
		Logger:   logger.Named("http"),
		Version:  "1.0.0",
	}
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	h.writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func (h *Handler) handleValidationError(w http.ResponseWriter, message string) {
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", message, nil)
}

// handleStructErrors reports validator failures field by field
func (h *Handler) handleStructErrors(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		h.handleValidationError(w, err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request failed validation", fields)
}

func (h *Handler) handleInternalError(w http.ResponseWriter, err error) {
	h.Logger.Error("internal error", zap.Error(err))
	h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An error occurred. Please try again.", nil)
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
