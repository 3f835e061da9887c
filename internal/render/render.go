package render

import (
	"fmt"
	"math"
	"sync"

	"github.com/paulmach/orb"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// BoundsPadding is the fraction added on every side when fitting the view
const BoundsPadding = 0.2

// Surface is the map-like sink drawing commands are issued to
type Surface interface {
	Clear()
	DrawPolyline(coords []models.Coordinates, color, label string)
	DrawMarker(at models.Coordinates, label string)
	FitBounds(b orb.Bound)
}

// LegSummary is the human readable figure shown next to a leg
type LegSummary struct {
	Label      string `json:"label"`
	Color      string `json:"color"`
	DistanceKm string `json:"distance_km"`
	Minutes    string `json:"minutes"`
}

// Session owns everything drawn on one surface. Every Render starts from a
// cleared surface.
type Session struct {
	mu      sync.Mutex
	surface Surface
	renders int
}

func NewSession(surface Surface) *Session {
	return &Session{surface: surface}
}

// Render draws an itinerary and returns the per-leg summaries
func (s *Session) Render(it *models.Itinerary, origin, dest models.Coordinates, destLabel string) []LegSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.surface.Clear()
	s.renders++

	if destLabel == "" {
		destLabel = "Destination"
	}

	summaries := make([]LegSummary, 0, len(it.Legs))
	sets := make([][]models.Coordinates, 0, len(it.Legs)+1)
	for i := range it.Legs {
		leg := &it.Legs[i]
		s.surface.DrawPolyline(leg.Geometry, leg.Color.Hex(), leg.Label)
		sets = append(sets, leg.Geometry)
		summaries = append(summaries, Summarize(leg))
	}

	s.surface.DrawMarker(origin, "Start")
	s.surface.DrawMarker(dest, destLabel)
	for _, p := range it.TransferPoints {
		s.surface.DrawMarker(p.Location, p.Label)
	}

	sets = append(sets, []models.Coordinates{origin, dest})
	if b, ok := geo.Bounds(sets...); ok {
		s.surface.FitBounds(geo.PadRatio(b, BoundsPadding))
	}

	return summaries
}

// Renders reports how many itineraries this session has drawn
func (s *Session) Renders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// Summarize formats a leg as kilometers with one decimal and whole minutes.
// Unknown figures are shown as "?".
func Summarize(leg *models.Leg) LegSummary {
	sum := LegSummary{
		Label:      leg.Label,
		Color:      leg.Color.Hex(),
		DistanceKm: "?",
		Minutes:    "?",
	}
	if leg.DistanceMeters >= 0 && !math.IsNaN(leg.DistanceMeters) && !math.IsInf(leg.DistanceMeters, 0) {
		sum.DistanceKm = fmt.Sprintf("%.1f", leg.DistanceMeters/1000)
	}
	if leg.DurationKnown() {
		sum.Minutes = fmt.Sprintf("%d", int(math.Round(*leg.DurationSecs/60)))
	}
	return sum
}
