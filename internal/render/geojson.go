package render

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// Feature kinds written to the "kind" property
const (
	KindPolyline  = "polyline"
	KindMarker    = "marker"
	KindFitBounds = "fit_bounds"
)

// GeoJSONSurface records drawing commands as GeoJSON features so a web
// client can replay them on its own map.
type GeoJSONSurface struct {
	mu       sync.Mutex
	features []*geojson.Feature
}

func NewGeoJSONSurface() *GeoJSONSurface {
	return &GeoJSONSurface{}
}

func (g *GeoJSONSurface) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.features = nil
}

func (g *GeoJSONSurface) DrawPolyline(coords []models.Coordinates, color, label string) {
	f := geojson.NewFeature(geo.LineString(coords))
	f.Properties["kind"] = KindPolyline
	f.Properties["color"] = color
	f.Properties["label"] = label
	g.add(f)
}

func (g *GeoJSONSurface) DrawMarker(at models.Coordinates, label string) {
	f := geojson.NewFeature(geo.Point(at))
	f.Properties["kind"] = KindMarker
	f.Properties["label"] = label
	g.add(f)
}

func (g *GeoJSONSurface) FitBounds(b orb.Bound) {
	f := geojson.NewFeature(b.ToPolygon())
	f.Properties["kind"] = KindFitBounds
	f.BBox = geojson.NewBBox(b)
	g.add(f)
}

func (g *GeoJSONSurface) add(f *geojson.Feature) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.features = append(g.features, f)
}

// Collection returns a snapshot of everything drawn since the last Clear
func (g *GeoJSONSurface) Collection() *geojson.FeatureCollection {
	g.mu.Lock()
	defer g.mu.Unlock()
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, g.features...)
	return fc
}
