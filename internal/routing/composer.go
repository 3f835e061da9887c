package routing

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cityroute/internal/geo"
	"cityroute/internal/models"
	"cityroute/internal/provider"
)

// PolicyConfig holds the empirical composition thresholds
type PolicyConfig struct {
	// DetourRatioLimit discards walking routes longer than this multiple of
	// the straight-line distance
	DetourRatioLimit float64
	OriginWeight     float64
	DestWeight       float64
	TaxiRadiusMeters float64
	VanRadiusMeters  float64
	SyntheticCount   int
	MaxLegs          int
}

// DefaultPolicy returns the stock thresholds
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		DetourRatioLimit: 1.8,
		OriginWeight:     0.7,
		DestWeight:       0.3,
		TaxiRadiusMeters: 800,
		VanRadiusMeters:  1500,
		SyntheticCount:   5,
		MaxLegs:          3,
	}
}

// Composer turns a plan request into an itinerary
type Composer struct {
	provider  provider.RouteProvider
	policy    PolicyConfig
	generator *PointGenerator
	catalog   CandidateSource
	logger    *zap.Logger
}

// NewComposer creates an itinerary composer. catalog may be nil, in which
// case transfer points are always synthesized.
func NewComposer(routes provider.RouteProvider, policy PolicyConfig, generator *PointGenerator, catalog CandidateSource, logger *zap.Logger) *Composer {
	return &Composer{
		provider:  routes,
		policy:    policy,
		generator: generator,
		catalog:   catalog,
		logger:    logger.Named("composer"),
	}
}

// Plan composes an itinerary for req. Provider failures degrade to a single
// Direct leg; only invalid input and caller cancellation are returned as errors.
func (c *Composer) Plan(ctx context.Context, req *PlanRequest) (*models.Itinerary, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	log := c.logger.With(zap.String("mode", string(req.Mode)), zap.String("destination", req.DestinationLabel))

	var (
		it  *models.Itinerary
		err error
	)
	switch req.Mode {
	case models.ModePrivate:
		it, err = c.planPrivate(ctx, req, log)
	case models.ModeWalking:
		it, err = c.planWalking(ctx, req, log)
	default:
		it, err = c.planShared(ctx, req, log)
	}
	if err != nil {
		return nil, err
	}

	log.Info("itinerary composed",
		zap.Int("legs", len(it.Legs)),
		zap.Bool("degraded", it.Degraded()),
		zap.Int("transfer_points", len(it.TransferPoints)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return it, nil
}

func validateRequest(req *PlanRequest) error {
	if req == nil {
		return &ErrInvalidInput{Field: "request", Reason: "missing"}
	}
	if err := geo.Validate(req.Origin); err != nil {
		return &ErrInvalidInput{Field: "origin", Reason: err.Error()}
	}
	if err := geo.Validate(req.Destination); err != nil {
		return &ErrInvalidInput{Field: "destination", Reason: err.Error()}
	}
	if models.SameLocation(req.Origin, req.Destination) {
		return &ErrInvalidInput{Field: "destination", Reason: "equals origin"}
	}
	if !req.Mode.Valid() {
		return &ErrInvalidInput{Field: "mode", Reason: fmt.Sprintf("unknown mode %q", req.Mode)}
	}
	if req.Pinned != nil {
		if err := geo.Validate(req.Pinned.Location); err != nil {
			return &ErrInvalidInput{Field: "pinned_transfer_point", Reason: err.Error()}
		}
	}
	for _, p := range req.Candidates {
		if err := geo.Validate(p.Location); err != nil {
			return &ErrInvalidInput{Field: "transfer_points", Reason: fmt.Sprintf("%s: %v", p.ID, err)}
		}
	}
	return nil
}

func (c *Composer) planPrivate(ctx context.Context, req *PlanRequest, log *zap.Logger) (*models.Itinerary, error) {
	routes, err := c.compute(ctx, req.Origin, req.Destination, models.ProfileDriving)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("driving routes unavailable, using direct estimate", zap.Error(err))
		return c.direct(req, nil), nil
	}

	ranked := Classify(routes, c.policy.MaxLegs)
	legs := make([]models.Leg, 0, len(ranked))
	for _, r := range ranked {
		legs = append(legs, routeLeg(r.Label, r.Tag, routes[r.Index]))
	}
	return &models.Itinerary{Mode: req.Mode, Legs: legs, TransferPoints: []models.TransferPoint{}}, nil
}

func (c *Composer) planWalking(ctx context.Context, req *PlanRequest, log *zap.Logger) (*models.Itinerary, error) {
	routes, err := c.compute(ctx, req.Origin, req.Destination, models.ProfileWalking)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("walking routes unavailable, using direct estimate", zap.Error(err))
		return c.direct(req, nil), nil
	}

	shortest := routes[SelectShortest(routes)]
	straight := geo.Distance(req.Origin, req.Destination)
	ratio := shortest.DistanceMeters / math.Max(1, straight)
	if ratio > c.policy.DetourRatioLimit {
		log.Info("walking route detours too far, using direct estimate",
			zap.Float64("route_m", shortest.DistanceMeters),
			zap.Float64("straight_m", straight),
			zap.Float64("ratio", ratio))
		return c.direct(req, nil), nil
	}

	leg := routeLeg("Walk", models.TagWalkAccess, shortest)
	return &models.Itinerary{Mode: req.Mode, Legs: []models.Leg{leg}, TransferPoints: []models.TransferPoint{}}, nil
}

func (c *Composer) planShared(ctx context.Context, req *PlanRequest, log *zap.Logger) (*models.Itinerary, error) {
	points, chosen, err := c.resolveTransferPoint(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("no transfer point available, using direct estimate", zap.Error(err))
		return c.direct(req, points), nil
	}
	log = log.With(zap.String("transfer_point", chosen.ID))

	var first, second []models.Route
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		routes, err := c.compute(gctx, req.Origin, chosen.Location, models.ProfileDriving)
		first = routes
		return err
	})
	g.Go(func() error {
		routes, err := c.compute(gctx, chosen.Location, req.Destination, models.ProfileDriving)
		second = routes
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("transfer leg unavailable, using direct estimate", zap.Error(err))
		return c.direct(req, points), nil
	}

	access := first[SelectFastest(first)]
	ride := second[SelectFastest(second)]

	destLabel := req.DestinationLabel
	if destLabel == "" {
		destLabel = "Destination"
	}

	return &models.Itinerary{
		Mode: req.Mode,
		Legs: []models.Leg{
			routeLeg("To "+chosen.Label, models.TagWalkAccess, access),
			routeLeg(chosen.Label+" to "+destLabel, models.TagTransitMain, ride),
		},
		TransferPoints: points,
		Chosen:         &chosen,
	}, nil
}

// compute calls the provider once, folding an empty success into NoRouteFound
func (c *Composer) compute(ctx context.Context, origin, dest models.Coordinates, profile models.TravelProfile) ([]models.Route, error) {
	routes, err := c.provider.ComputeRoutes(ctx, origin, dest, profile)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, &provider.ErrNoRouteFound{Origin: origin, Dest: dest, Profile: profile, Code: "empty"}
	}
	return routes, nil
}

// resolveTransferPoint returns the candidate set and the point to route
// through. A pinned point bypasses selection.
func (c *Composer) resolveTransferPoint(ctx context.Context, req *PlanRequest) ([]models.TransferPoint, models.TransferPoint, error) {
	if req.Pinned != nil {
		points := append([]models.TransferPoint(nil), req.Candidates...)
		found := false
		for _, p := range points {
			if p.ID == req.Pinned.ID {
				found = true
				break
			}
		}
		if !found {
			points = append(points, *req.Pinned)
		}
		return points, *req.Pinned, nil
	}

	points, err := c.candidates(ctx, req)
	if err != nil {
		return nil, models.TransferPoint{}, err
	}

	idx, err := SelectTransferPoint(c.policyFor(req.Mode), req.Origin, req.Destination, points)
	if err != nil {
		return points, models.TransferPoint{}, err
	}
	return points, points[idx], nil
}

func (c *Composer) candidates(ctx context.Context, req *PlanRequest) ([]models.TransferPoint, error) {
	if len(req.Candidates) > 0 {
		return append([]models.TransferPoint(nil), req.Candidates...), nil
	}

	kind, radius := c.kindFor(req.Mode)
	if c.catalog != nil {
		known, err := c.catalog.Nearby(ctx, kind, req.Origin, radius)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("catalog lookup failed, synthesizing transfer points", zap.Error(err))
		} else if len(known) > 0 {
			return known, nil
		}
	}

	return c.generator.Generate(req.Origin, kind, c.policy.SyntheticCount, radius), nil
}

func (c *Composer) policyFor(mode models.Mode) TransferPolicy {
	if mode == models.ModeSharedVan {
		return WeightedPolicy{OriginWeight: c.policy.OriginWeight, DestWeight: c.policy.DestWeight}
	}
	return NearestPolicy{}
}

func (c *Composer) kindFor(mode models.Mode) (models.TransferKind, float64) {
	if mode == models.ModeSharedVan {
		return models.KindVanTerminal, c.policy.VanRadiusMeters
	}
	return models.KindTaxiStand, c.policy.TaxiRadiusMeters
}

// direct is the straight-line fallback. It is the only leg with an unknown
// duration.
func (c *Composer) direct(req *PlanRequest, points []models.TransferPoint) *models.Itinerary {
	if points == nil {
		points = []models.TransferPoint{}
	}
	return &models.Itinerary{
		Mode: req.Mode,
		Legs: []models.Leg{{
			Label:          "Direct",
			Color:          models.TagDirect,
			Geometry:       []models.Coordinates{req.Origin, req.Destination},
			DistanceMeters: geo.Distance(req.Origin, req.Destination),
		}},
		TransferPoints: points,
	}
}

func routeLeg(label string, tag models.ColorTag, r models.Route) models.Leg {
	dur := r.DurationSecs
	return models.Leg{
		Label:          label,
		Color:          tag,
		Geometry:       r.Geometry,
		DistanceMeters: r.DistanceMeters,
		DurationSecs:   &dur,
	}
}
