package render

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cityroute/internal/models"
)

type recordingSurface struct {
	ops    []string
	bounds []orb.Bound
}

func (r *recordingSurface) Clear() { r.ops = append(r.ops, "clear") }

func (r *recordingSurface) DrawPolyline(coords []models.Coordinates, color, label string) {
	r.ops = append(r.ops, "polyline:"+label+":"+color)
}

func (r *recordingSurface) DrawMarker(at models.Coordinates, label string) {
	r.ops = append(r.ops, "marker:"+label)
}

func (r *recordingSurface) FitBounds(b orb.Bound) {
	r.ops = append(r.ops, "fit")
	r.bounds = append(r.bounds, b)
}

var (
	start = models.Coordinates{Lat: 16.40, Lng: 120.58}
	end   = models.Coordinates{Lat: 16.42, Lng: 120.60}
	stand = models.TransferPoint{ID: "t1", Label: "Burnham Park Terminal", Location: models.Coordinates{Lat: 16.41, Lng: 120.59}}
)

func secs(v float64) *float64 { return &v }

func twoLegItinerary() *models.Itinerary {
	return &models.Itinerary{
		Mode: models.ModeSharedVan,
		Legs: []models.Leg{
			{Label: "To Burnham Park Terminal", Color: models.TagWalkAccess, Geometry: []models.Coordinates{start, stand.Location}, DistanceMeters: 1540, DurationSecs: secs(200)},
			{Label: "Burnham Park Terminal to Mines View", Color: models.TagTransitMain, Geometry: []models.Coordinates{stand.Location, end}, DistanceMeters: 2960, DurationSecs: secs(410)},
		},
		TransferPoints: []models.TransferPoint{stand},
		Chosen:         &stand,
	}
}

func TestRenderDrawOrder(t *testing.T) {
	surface := &recordingSurface{}
	session := NewSession(surface)

	summaries := session.Render(twoLegItinerary(), start, end, "Mines View")

	assert.Equal(t, []string{
		"clear",
		"polyline:To Burnham Park Terminal:#f59e0b",
		"polyline:Burnham Park Terminal to Mines View:#8b5cf6",
		"marker:Start",
		"marker:Mines View",
		"marker:Burnham Park Terminal",
		"fit",
	}, surface.ops)

	require.Len(t, summaries, 2)
	assert.Equal(t, "1.5", summaries[0].DistanceKm)
	assert.Equal(t, "3", summaries[0].Minutes)
	assert.Equal(t, "3.0", summaries[1].DistanceKm)
	assert.Equal(t, "7", summaries[1].Minutes)
}

func TestRenderClearsEveryTime(t *testing.T) {
	surface := &recordingSurface{}
	session := NewSession(surface)

	session.Render(twoLegItinerary(), start, end, "")
	surface.ops = nil
	session.Render(twoLegItinerary(), start, end, "")

	assert.Equal(t, "clear", surface.ops[0])
	assert.Contains(t, surface.ops, "marker:Destination")
	assert.Equal(t, 2, session.Renders())
}

func TestRenderFitBoundsPadded(t *testing.T) {
	surface := &recordingSurface{}
	NewSession(surface).Render(twoLegItinerary(), start, end, "Mines View")

	require.Len(t, surface.bounds, 1)
	b := surface.bounds[0]
	// span is 0.02 degrees each way; padding adds 20% per side
	assert.InDelta(t, 120.576, b.Min.Lon(), 1e-9)
	assert.InDelta(t, 16.396, b.Min.Lat(), 1e-9)
	assert.InDelta(t, 120.604, b.Max.Lon(), 1e-9)
	assert.InDelta(t, 16.424, b.Max.Lat(), 1e-9)
}

func TestSummarizeUnknownDuration(t *testing.T) {
	leg := models.Leg{Label: "Direct", Color: models.TagDirect, DistanceMeters: 2345}
	sum := Summarize(&leg)
	assert.Equal(t, "2.3", sum.DistanceKm)
	assert.Equal(t, "?", sum.Minutes)
	assert.Equal(t, "#ef4444", sum.Color)
}

func TestGeoJSONSurface(t *testing.T) {
	surface := NewGeoJSONSurface()
	NewSession(surface).Render(twoLegItinerary(), start, end, "Mines View")

	fc := surface.Collection()
	require.Len(t, fc.Features, 6)

	line := fc.Features[0]
	assert.Equal(t, KindPolyline, line.Properties["kind"])
	assert.Equal(t, "#f59e0b", line.Properties["color"])
	ls, ok := line.Geometry.(orb.LineString)
	require.True(t, ok)
	assert.Equal(t, orb.Point{120.58, 16.40}, ls[0])

	marker := fc.Features[2]
	assert.Equal(t, KindMarker, marker.Properties["kind"])
	assert.Equal(t, "Start", marker.Properties["label"])

	fit := fc.Features[5]
	assert.Equal(t, KindFitBounds, fit.Properties["kind"])
	assert.Len(t, fit.BBox, 4)

	// a second render replaces, not appends
	NewSession(surface).Render(&models.Itinerary{
		Mode: models.ModePrivate,
		Legs: []models.Leg{{Label: "Direct", Color: models.TagDirect, Geometry: []models.Coordinates{start, end}, DistanceMeters: 3000}},
	}, start, end, "")
	assert.Len(t, surface.Collection().Features, 4)
}
