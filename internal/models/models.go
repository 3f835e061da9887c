package models

import "fmt"

// Coordinates represents a geographic point
type Coordinates struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

// RoundCoordinate rounds a coordinate to 5 decimal places (~1m precision)
func RoundCoordinate(v float64) float64 {
	if v < 0 {
		return -float64(int(-v*100000+0.5)) / 100000
	}
	return float64(int(v*100000+0.5)) / 100000
}

// SameLocation reports whether two coordinates fall on the same ~1m cell
func SameLocation(a, b Coordinates) bool {
	return RoundCoordinate(a.Lat) == RoundCoordinate(b.Lat) &&
		RoundCoordinate(a.Lng) == RoundCoordinate(b.Lng)
}

// TravelProfile selects the provider weighting used for a route request
type TravelProfile string

const (
	ProfileDriving TravelProfile = "driving"
	ProfileWalking TravelProfile = "walking"
)

// Mode is the travel mode requested by the caller
type Mode string

const (
	ModePrivate   Mode = "private"
	ModeWalking   Mode = "walking"
	ModeTaxi      Mode = "taxi"
	ModeSharedVan Mode = "shared-van"
)

// Valid reports whether m is one of the known modes
func (m Mode) Valid() bool {
	switch m {
	case ModePrivate, ModeWalking, ModeTaxi, ModeSharedVan:
		return true
	}
	return false
}

// Shared reports whether the mode is composed through a transfer point
func (m Mode) Shared() bool {
	return m == ModeTaxi || m == ModeSharedVan
}

// Route is a single candidate path returned by the routing provider
type Route struct {
	Geometry       []Coordinates `json:"geometry"`
	DistanceMeters float64       `json:"distance_meters"`
	DurationSecs   float64       `json:"duration_secs"`
}

// Validate checks the invariants every provider route must satisfy
func (r *Route) Validate() error {
	if len(r.Geometry) < 2 {
		return fmt.Errorf("route geometry has %d point(s), need at least 2", len(r.Geometry))
	}
	if r.DistanceMeters < 0 {
		return fmt.Errorf("negative route distance %.1f", r.DistanceMeters)
	}
	if r.DurationSecs < 0 {
		return fmt.Errorf("negative route duration %.1f", r.DurationSecs)
	}
	return nil
}

// TransferKind identifies what sort of stop a transfer point is
type TransferKind string

const (
	KindTaxiStand   TransferKind = "taxi_stand"
	KindVanTerminal TransferKind = "van_terminal"
)

// TransferPoint is an intermediate stop splitting a shared-vehicle trip
type TransferPoint struct {
	ID       string       `json:"id" validate:"required"`
	Label    string       `json:"label"`
	Kind     TransferKind `json:"kind,omitempty"`
	Location Coordinates  `json:"location"`
}

// ColorTag classifies a leg for display
type ColorTag string

const (
	TagShortest    ColorTag = "shortest"
	TagFastest     ColorTag = "fastest"
	TagAlternate   ColorTag = "alternate"
	TagWalkAccess  ColorTag = "walk_access"
	TagTransitMain ColorTag = "transit_main"
	TagDirect      ColorTag = "direct"
)

var tagColors = map[ColorTag]string{
	TagShortest:    "#10b981",
	TagFastest:     "#0ea5e9",
	TagAlternate:   "#94a3b8",
	TagWalkAccess:  "#f59e0b",
	TagTransitMain: "#8b5cf6",
	TagDirect:      "#ef4444",
}

// Hex returns the display color for the tag
func (t ColorTag) Hex() string {
	if c, ok := tagColors[t]; ok {
		return c
	}
	return tagColors[TagAlternate]
}

// Leg is one continuous segment of an itinerary.
// A nil DurationSecs means the duration is unknown (straight-line fallback).
type Leg struct {
	Label          string        `json:"label"`
	Color          ColorTag      `json:"color"`
	Geometry       []Coordinates `json:"geometry"`
	DistanceMeters float64       `json:"distance_meters"`
	DurationSecs   *float64      `json:"duration_secs"`
}

// DurationKnown reports whether the leg carries a provider duration
func (l *Leg) DurationKnown() bool {
	return l.DurationSecs != nil
}

// Itinerary is the full planned journey: one or two legs
type Itinerary struct {
	Mode           Mode            `json:"mode"`
	Legs           []Leg           `json:"legs"`
	TransferPoints []TransferPoint `json:"transfer_points"`
	Chosen         *TransferPoint  `json:"chosen_transfer_point,omitempty"`
}

// Degraded reports whether the itinerary is a straight-line fallback
func (it *Itinerary) Degraded() bool {
	return len(it.Legs) == 1 && it.Legs[0].Color == TagDirect
}

// TotalDistanceMeters sums leg distances
func (it *Itinerary) TotalDistanceMeters() float64 {
	var total float64
	for _, l := range it.Legs {
		total += l.DistanceMeters
	}
	return total
}
