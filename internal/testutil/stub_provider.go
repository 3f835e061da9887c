package testutil

import (
	"context"
	"fmt"
	"sync"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// ProviderCall tracks a call to the stub route provider
type ProviderCall struct {
	Origin  models.Coordinates
	Dest    models.Coordinates
	Profile models.TravelProfile
}

type stubResponse struct {
	routes []models.Route
	err    error
}

// StubProvider is a deterministic route provider for tests.
// Unconfigured pairs get a single straight route whose distance is the
// great-circle distance times DetourFactor, driven at 50 km/h (5 km/h on foot).
type StubProvider struct {
	DetourFactor float64

	mu        sync.Mutex
	responses map[string]stubResponse
	calls     []ProviderCall
}

func NewStubProvider() *StubProvider {
	return &StubProvider{
		DetourFactor: 1.2,
		responses:    make(map[string]stubResponse),
	}
}

func (s *StubProvider) makeKey(origin, dest models.Coordinates, profile models.TravelProfile) string {
	return fmt.Sprintf("%s:%.5f,%.5f->%.5f,%.5f", profile,
		models.RoundCoordinate(origin.Lat), models.RoundCoordinate(origin.Lng),
		models.RoundCoordinate(dest.Lat), models.RoundCoordinate(dest.Lng))
}

// SetRoutes fixes the routes returned for a specific request
func (s *StubProvider) SetRoutes(origin, dest models.Coordinates, profile models.TravelProfile, routes ...models.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[s.makeKey(origin, dest, profile)] = stubResponse{routes: routes}
}

// SetError makes a specific request fail with err
func (s *StubProvider) SetError(origin, dest models.Coordinates, profile models.TravelProfile, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[s.makeKey(origin, dest, profile)] = stubResponse{err: err}
}

// ComputeRoutes returns the configured response or a straight-line route
func (s *StubProvider) ComputeRoutes(ctx context.Context, origin, dest models.Coordinates, profile models.TravelProfile) ([]models.Route, error) {
	s.mu.Lock()
	s.calls = append(s.calls, ProviderCall{Origin: origin, Dest: dest, Profile: profile})
	resp, ok := s.responses[s.makeKey(origin, dest, profile)]
	factor := s.DetourFactor
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ok {
		if resp.err != nil {
			return nil, resp.err
		}
		return append([]models.Route(nil), resp.routes...), nil
	}

	dist := geo.Distance(origin, dest) * factor
	speed := 50000.0 / 3600
	if profile == models.ProfileWalking {
		speed = 5000.0 / 3600
	}
	return []models.Route{StraightRoute(origin, dest, dist, dist/speed)}, nil
}

// Calls returns a copy of the recorded calls
func (s *StubProvider) Calls() []ProviderCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProviderCall(nil), s.calls...)
}

// ResetCalls clears the recorded calls
func (s *StubProvider) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// StraightRoute builds a two-point route with the given figures
func StraightRoute(origin, dest models.Coordinates, distMeters, durSecs float64) models.Route {
	return models.Route{
		Geometry:       []models.Coordinates{origin, dest},
		DistanceMeters: distMeters,
		DurationSecs:   durSecs,
	}
}

// ViaRoute builds a three-point route bending through via
func ViaRoute(origin, via, dest models.Coordinates, distMeters, durSecs float64) models.Route {
	return models.Route{
		Geometry:       []models.Coordinates{origin, via, dest},
		DistanceMeters: distMeters,
		DurationSecs:   durSecs,
	}
}
