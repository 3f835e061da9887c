package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// ErrNotFound is returned when deleting an unknown transfer point
var ErrNotFound = errors.New("transfer point not found")

// List returns transfer points ordered by label. An empty kind lists all.
func (s *Store) List(ctx context.Context, kind models.TransferKind) ([]models.TransferPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, label, kind, lat, lng FROM transfer_points`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY label, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer points: %w", err)
	}
	defer rows.Close()

	points := []models.TransferPoint{}
	for rows.Next() {
		var p models.TransferPoint
		var k string
		if err := rows.Scan(&p.ID, &p.Label, &k, &p.Location.Lat, &p.Location.Lng); err != nil {
			return nil, fmt.Errorf("failed to scan transfer point: %w", err)
		}
		p.Kind = models.TransferKind(k)
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer points: %w", err)
	}
	return points, nil
}

// Nearby returns points of kind within radiusMeters of origin, nearest first
func (s *Store) Nearby(ctx context.Context, kind models.TransferKind, origin models.Coordinates, radiusMeters float64) ([]models.TransferPoint, error) {
	all, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		point models.TransferPoint
		dist  float64
	}
	var within []ranked
	for _, p := range all {
		if d := geo.Distance(origin, p.Location); d <= radiusMeters {
			within = append(within, ranked{point: p, dist: d})
		}
	}
	sort.SliceStable(within, func(i, j int) bool { return within[i].dist < within[j].dist })

	points := make([]models.TransferPoint, len(within))
	for i, r := range within {
		points[i] = r.point
	}
	return points, nil
}

// Upsert inserts or replaces a single transfer point
func (s *Store) Upsert(ctx context.Context, p models.TransferPoint) error {
	return s.UpsertBatch(ctx, []models.TransferPoint{p})
}

// UpsertBatch inserts or replaces points in one transaction
func (s *Store) UpsertBatch(ctx context.Context, points []models.TransferPoint) error {
	if len(points) == 0 {
		return nil
	}
	for _, p := range points {
		if err := validatePoint(p); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO transfer_points
		(id, label, kind, lat, lng, updated_at) VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Label, string(p.Kind), p.Location.Lat, p.Location.Lng); err != nil {
			return fmt.Errorf("failed to upsert transfer point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a transfer point by id
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM transfer_points WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer point: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored points of kind, or all when kind is empty
func (s *Store) Count(ctx context.Context, kind models.TransferKind) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT COUNT(*) FROM transfer_points`
	var args []any
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count transfer points: %w", err)
	}
	return n, nil
}

func validatePoint(p models.TransferPoint) error {
	if p.ID == "" {
		return fmt.Errorf("transfer point id is required")
	}
	switch p.Kind {
	case models.KindTaxiStand, models.KindVanTerminal:
	default:
		return fmt.Errorf("transfer point %s: unknown kind %q", p.ID, p.Kind)
	}
	if err := geo.Validate(p.Location); err != nil {
		return fmt.Errorf("transfer point %s: %w", p.ID, err)
	}
	return nil
}
