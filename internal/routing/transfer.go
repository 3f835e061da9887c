package routing

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// TransferPolicy scores a candidate transfer point; lower is better
type TransferPolicy interface {
	Name() string
	Score(origin, dest models.Coordinates, p models.TransferPoint) float64
}

// NearestPolicy scores by straight-line distance from the origin only.
// Used for point-to-point pickup services such as taxis.
type NearestPolicy struct{}

func (NearestPolicy) Name() string { return "nearest" }

func (NearestPolicy) Score(origin, _ models.Coordinates, p models.TransferPoint) float64 {
	return geo.Distance(origin, p.Location)
}

// WeightedPolicy blends origin and destination proximity. Used for
// fixed-route shared transport such as van terminals.
type WeightedPolicy struct {
	OriginWeight float64
	DestWeight   float64
}

func (WeightedPolicy) Name() string { return "weighted" }

func (w WeightedPolicy) Score(origin, dest models.Coordinates, p models.TransferPoint) float64 {
	return w.OriginWeight*geo.Distance(origin, p.Location) + w.DestWeight*geo.Distance(p.Location, dest)
}

// SelectTransferPoint returns the index of the lowest-scoring point.
// Ties go to the earliest point.
func SelectTransferPoint(policy TransferPolicy, origin, dest models.Coordinates, points []models.TransferPoint) (int, error) {
	if len(points) == 0 {
		return -1, fmt.Errorf("no transfer point candidates")
	}

	best := -1
	bestScore := math.Inf(1)
	for i, p := range points {
		score := policy.Score(origin, dest, p)
		if score < bestScore {
			best = i
			bestScore = score
		}
	}
	if best == -1 {
		// every score was NaN or +Inf
		best = 0
	}
	return best, nil
}

// PointGenerator scatters ephemeral transfer points around an origin.
// The random source is injectable so tests can be deterministic.
type PointGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPointGenerator creates a generator drawing from src
func NewPointGenerator(src rand.Source) *PointGenerator {
	return &PointGenerator{rng: rand.New(src)}
}

// Generate returns count points uniformly distributed within radiusMeters
// of origin. IDs are UUIDs drawn from the same source, unique per call.
func (g *PointGenerator) Generate(origin models.Coordinates, kind models.TransferKind, count int, radiusMeters float64) []models.TransferPoint {
	g.mu.Lock()
	defer g.mu.Unlock()

	points := make([]models.TransferPoint, 0, count)
	seen := make(map[string]bool, count)
	for len(points) < count {
		// sqrt keeps the density uniform over the disc
		r := radiusMeters * math.Sqrt(g.rng.Float64())
		theta := g.rng.Float64() * 2 * math.Pi

		id, err := uuid.NewRandomFromReader(g.rng)
		if err != nil || seen[id.String()] {
			continue
		}
		seen[id.String()] = true

		points = append(points, models.TransferPoint{
			ID:       id.String(),
			Label:    fmt.Sprintf("%s %d", kindLabel(kind), len(points)+1),
			Kind:     kind,
			Location: geo.Offset(origin, r*math.Sin(theta), r*math.Cos(theta)),
		})
	}
	return points
}

func kindLabel(kind models.TransferKind) string {
	switch kind {
	case models.KindTaxiStand:
		return "Taxi Stand"
	case models.KindVanTerminal:
		return "Van Terminal"
	}
	return "Transfer Point"
}
