package catalog

import (
	"context"

	"go.uber.org/zap"

	"cityroute/internal/models"
)

// Shuttle lines served from the built-in van terminals
const (
	LineCityCircle       = "City Circle"
	LineTouristSpots     = "Tourist Spots"
	LineShoppingDistrict = "Shopping District"
)

type builtinTerminal struct {
	id    string
	line  string
	label string
	lat   float64
	lng   float64
}

var builtinTerminals = []builtinTerminal{
	{"cc-session-road", LineCityCircle, "Session Road Terminal", 16.4129, 120.5964},
	{"cc-burnham-park", LineCityCircle, "Burnham Park Terminal", 16.4123, 120.5930},
	{"cc-sm-baguio", LineCityCircle, "SM Baguio Terminal", 16.4089, 120.5997},
	{"ts-botanical-garden", LineTouristSpots, "Botanical Garden Hub", 16.4149, 120.6133},
	{"ts-mines-view", LineTouristSpots, "Mines View Hub", 16.4196, 120.6279},
	{"ts-wright-park", LineTouristSpots, "Wright Park Hub", 16.4163, 120.6174},
	{"sd-session-road-south", LineShoppingDistrict, "Session Road South", 16.4106, 120.5986},
	{"sd-market-entrance", LineShoppingDistrict, "Market Entrance", 16.4168, 120.5957},
	{"sd-sm-carpark", LineShoppingDistrict, "SM Carpark Hub", 16.4085, 120.5990},
}

// BuiltinTerminals returns the shuttle terminals shipped with the catalog
func BuiltinTerminals() []models.TransferPoint {
	points := make([]models.TransferPoint, len(builtinTerminals))
	for i, t := range builtinTerminals {
		points[i] = models.TransferPoint{
			ID:       t.id,
			Label:    t.label,
			Kind:     models.KindVanTerminal,
			Location: models.Coordinates{Lat: t.lat, Lng: t.lng},
		}
	}
	return points
}

// SeedBuiltin loads the built-in terminals when no van terminals are stored
// yet. It returns the number of points written.
func (s *Store) SeedBuiltin(ctx context.Context) (int, error) {
	n, err := s.Count(ctx, models.KindVanTerminal)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Debug("catalog already has van terminals, skipping seed", zap.Int("count", n))
		return 0, nil
	}

	points := BuiltinTerminals()
	if err := s.UpsertBatch(ctx, points); err != nil {
		return 0, err
	}
	s.logger.Info("seeded built-in shuttle terminals", zap.Int("count", len(points)))
	return len(points), nil
}
