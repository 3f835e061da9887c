package routing

import (
	"context"
	"errors"
	"fmt"

	"cityroute/internal/models"
)

// PlanRequest contains the input for itinerary planning
type PlanRequest struct {
	Origin           models.Coordinates
	Destination      models.Coordinates
	DestinationLabel string
	Mode             models.Mode

	// Pinned skips transfer-point selection and routes through this point
	Pinned *models.TransferPoint

	// Candidates replaces catalog lookup and synthesis when non-empty,
	// typically the set returned by a previous plan.
	Candidates []models.TransferPoint
}

// Planner builds itineraries
type Planner interface {
	Plan(ctx context.Context, req *PlanRequest) (*models.Itinerary, error)
}

// CandidateSource looks up known transfer points near a location
type CandidateSource interface {
	Nearby(ctx context.Context, kind models.TransferKind, origin models.Coordinates, radiusMeters float64) ([]models.TransferPoint, error)
}

// ErrInvalidInput is returned for malformed or degenerate plan requests
type ErrInvalidInput struct {
	Field  string
	Reason string
}

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsInvalidInput reports whether err is an input validation failure
func IsInvalidInput(err error) bool {
	var target *ErrInvalidInput
	return errors.As(err, &target)
}

// ErrSuperseded is returned to a plan request overtaken by a newer one
var ErrSuperseded = errors.New("plan request superseded by a newer request")
