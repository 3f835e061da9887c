// Package geo holds the planar and great-circle helpers shared by the
// provider client, the transfer-point selector and the render adapter.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"cityroute/internal/models"
)

// MetersPerDegree is the equirectangular length of one degree of latitude
const MetersPerDegree = 111320.0

// Point converts a coordinate into an orb point (lng, lat order)
func Point(c models.Coordinates) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb point back into a coordinate
func FromPoint(p orb.Point) models.Coordinates {
	return models.Coordinates{Lat: p.Lat(), Lng: p.Lon()}
}

// LineString converts a coordinate sequence into an orb line string
func LineString(coords []models.Coordinates) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = Point(c)
	}
	return ls
}

// Distance returns the great-circle distance in meters
func Distance(a, b models.Coordinates) float64 {
	return orbgeo.DistanceHaversine(Point(a), Point(b))
}

// PathLength returns the haversine length of a polyline in meters
func PathLength(coords []models.Coordinates) float64 {
	if len(coords) < 2 {
		return 0
	}
	return orbgeo.LengthHaversine(LineString(coords))
}

// Validate rejects coordinates outside the WGS84 ranges or NaN
func Validate(c models.Coordinates) error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("coordinate is NaN")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90,90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180,180]", c.Lng)
	}
	return nil
}

// Offset moves c by the given north/east displacement in meters using the
// equirectangular approximation. The result is always a valid coordinate:
// latitude is clamped at the poles and longitude wraps across the antimeridian.
func Offset(c models.Coordinates, northMeters, eastMeters float64) models.Coordinates {
	dLat := northMeters / MetersPerDegree
	cosLat := math.Max(math.Cos(c.Lat*math.Pi/180), minCosLat)
	dLng := eastMeters / (MetersPerDegree * cosLat)
	return models.Coordinates{
		Lat: math.Max(-90, math.Min(90, c.Lat+dLat)),
		Lng: WrapLongitude(c.Lng + dLng),
	}
}

// keeps the east scale finite at the poles
const minCosLat = 1e-9

// WrapLongitude normalizes lng into [-180,180)
func WrapLongitude(lng float64) float64 {
	if lng >= -180 && lng < 180 {
		return lng
	}
	w := math.Mod(lng+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}

// Bounds returns the bounding box of all given coordinate sets
func Bounds(sets ...[]models.Coordinates) (orb.Bound, bool) {
	var b orb.Bound
	found := false
	for _, set := range sets {
		for _, c := range set {
			if !found {
				b = orb.Bound{Min: Point(c), Max: Point(c)}
				found = true
				continue
			}
			b = b.Extend(Point(c))
		}
	}
	return b, found
}

// PadRatio grows a bound by ratio of its own width/height on every side
func PadRatio(b orb.Bound, ratio float64) orb.Bound {
	w := (b.Max.Lon() - b.Min.Lon()) * ratio
	h := (b.Max.Lat() - b.Min.Lat()) * ratio
	return orb.Bound{
		Min: orb.Point{b.Min.Lon() - w, b.Min.Lat() - h},
		Max: orb.Point{b.Max.Lon() + w, b.Max.Lat() + h},
	}
}
