package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/jamespfennell/gtfs"
	"go.uber.org/zap"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// ImportGTFS loads the stops of a GTFS static feed as transfer points of
// kind. Stops without coordinates, entrances and generic nodes are skipped.
func (s *Store) ImportGTFS(ctx context.Context, path string, kind models.TransferKind) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("error reading GTFS file: %w", err)
	}

	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return 0, fmt.Errorf("error parsing GTFS data: %w", err)
	}

	points := StopsToTransferPoints(static.Stops, kind)
	if err := s.UpsertBatch(ctx, points); err != nil {
		return 0, err
	}

	s.logger.Info("imported GTFS stops",
		zap.String("path", path),
		zap.String("kind", string(kind)),
		zap.Int("stops", len(static.Stops)),
		zap.Int("imported", len(points)))
	return len(points), nil
}

// StopsToTransferPoints converts boardable GTFS stops into transfer points
func StopsToTransferPoints(stops []gtfs.Stop, kind models.TransferKind) []models.TransferPoint {
	points := make([]models.TransferPoint, 0, len(stops))
	for _, stop := range stops {
		if stop.Latitude == nil || stop.Longitude == nil {
			continue
		}
		if stop.Type != gtfs.StopType_Stop && stop.Type != gtfs.StopType_Station {
			continue
		}
		loc := models.Coordinates{Lat: *stop.Latitude, Lng: *stop.Longitude}
		if geo.Validate(loc) != nil {
			continue
		}
		label := stop.Name
		if label == "" {
			label = stop.Id
		}
		points = append(points, models.TransferPoint{
			ID:       "gtfs-" + stop.Id,
			Label:    label,
			Kind:     kind,
			Location: loc,
		})
	}
	return points
}
