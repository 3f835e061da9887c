package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// RouteProvider returns candidate routes between two coordinates
type RouteProvider interface {
	ComputeRoutes(ctx context.Context, origin, dest models.Coordinates, profile models.TravelProfile) ([]models.Route, error)
}

// ErrProviderUnavailable is returned on transport, timeout or service errors
type ErrProviderUnavailable struct {
	Profile models.TravelProfile
	Reason  string
	Err     error
}

func (e *ErrProviderUnavailable) Error() string {
	return fmt.Sprintf("routing provider unavailable (%s): %s", e.Profile, e.Reason)
}

func (e *ErrProviderUnavailable) Unwrap() error {
	return e.Err
}

// ErrNoRouteFound is returned when the provider was reached but has no route
type ErrNoRouteFound struct {
	Origin  models.Coordinates
	Dest    models.Coordinates
	Profile models.TravelProfile
	Code    string
}

func (e *ErrNoRouteFound) Error() string {
	return fmt.Sprintf("no %s route found from (%.6f,%.6f) to (%.6f,%.6f): %s",
		e.Profile, e.Origin.Lat, e.Origin.Lng, e.Dest.Lat, e.Dest.Lng, e.Code)
}

// IsUnavailable reports whether err is a provider outage
func IsUnavailable(err error) bool {
	var target *ErrProviderUnavailable
	return errors.As(err, &target)
}

// IsNoRoute reports whether err means the provider found nothing
func IsNoRoute(err error) bool {
	var target *ErrNoRouteFound
	return errors.As(err, &target)
}

type osrmClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
}

type osrmRouteResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry geojson.Geometry `json:"geometry"`
	Distance float64          `json:"distance"`
	Duration float64          `json:"duration"`
}

// NewOSRMClient creates a route provider backed by an OSRM route/v1 service
func NewOSRMClient(baseURL string, timeout time.Duration, logger *zap.Logger) RouteProvider {
	return &osrmClient{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     logger.Named("osrm"),
	}
}

// osrmProfile maps a travel profile onto the OSRM profile path segment
func osrmProfile(p models.TravelProfile) string {
	if p == models.ProfileWalking {
		return "foot"
	}
	return "driving"
}

func (c *osrmClient) ComputeRoutes(ctx context.Context, origin, dest models.Coordinates, profile models.TravelProfile) ([]models.Route, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	queryURL := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?alternatives=true&overview=full&geometries=geojson",
		c.baseURL, osrmProfile(profile), origin.Lng, origin.Lat, dest.Lng, dest.Lat)

	start := time.Now()
	log := c.logger.With(
		zap.String("profile", string(profile)),
		zap.Float64("origin_lat", origin.Lat), zap.Float64("origin_lng", origin.Lng),
		zap.Float64("dest_lat", dest.Lat), zap.Float64("dest_lng", dest.Lng),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		log.Error("failed to create OSRM request", zap.Error(err))
		return nil, &ErrProviderUnavailable{Profile: profile, Reason: err.Error(), Err: err}
	}
	req.Header.Set("User-Agent", "CityRoute/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fmt.Sprintf("timed out after %v", c.timeout)
		}
		log.Warn("OSRM request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return nil, &ErrProviderUnavailable{Profile: profile, Reason: reason, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("failed to read OSRM response", zap.Error(err))
		return nil, &ErrProviderUnavailable{Profile: profile, Reason: err.Error(), Err: err}
	}

	var osrmResp osrmRouteResponse
	decodeErr := json.Unmarshal(body, &osrmResp)

	// OSRM reports unroutable requests as HTTP 400 with a code in the body
	if osrmResp.Code == "NoRoute" || osrmResp.Code == "NoSegment" {
		log.Info("OSRM found no route", zap.String("code", osrmResp.Code))
		return nil, &ErrNoRouteFound{Origin: origin, Dest: dest, Profile: profile, Code: osrmResp.Code}
	}

	if resp.StatusCode != http.StatusOK {
		log.Warn("OSRM API error", zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return nil, &ErrProviderUnavailable{
			Profile: profile,
			Reason:  fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	if decodeErr != nil {
		log.Warn("failed to decode OSRM response", zap.Error(decodeErr))
		return nil, &ErrProviderUnavailable{Profile: profile, Reason: decodeErr.Error(), Err: decodeErr}
	}

	if osrmResp.Code != "Ok" {
		log.Warn("OSRM returned error code", zap.String("code", osrmResp.Code), zap.String("message", osrmResp.Message))
		return nil, &ErrProviderUnavailable{Profile: profile, Reason: fmt.Sprintf("OSRM error: %s", osrmResp.Code)}
	}

	if len(osrmResp.Routes) == 0 {
		log.Info("OSRM returned zero routes")
		return nil, &ErrNoRouteFound{Origin: origin, Dest: dest, Profile: profile, Code: "empty"}
	}

	routes := make([]models.Route, 0, len(osrmResp.Routes))
	for i, r := range osrmResp.Routes {
		route := models.Route{
			Geometry:       lineCoordinates(r.Geometry.Geometry()),
			DistanceMeters: r.Distance,
			DurationSecs:   r.Duration,
		}
		if err := route.Validate(); err != nil {
			log.Warn("OSRM returned invalid route", zap.Int("index", i), zap.Error(err))
			return nil, &ErrProviderUnavailable{Profile: profile, Reason: fmt.Sprintf("route %d: %v", i, err), Err: err}
		}
		routes = append(routes, route)
	}

	log.Debug("OSRM routes computed", zap.Int("routes", len(routes)), zap.Duration("elapsed", time.Since(start)))
	return routes, nil
}

// lineCoordinates flattens a decoded geometry into lat/lng pairs. Anything
// other than a line string yields nil and fails route validation.
func lineCoordinates(g orb.Geometry) []models.Coordinates {
	ls, ok := g.(orb.LineString)
	if !ok {
		return nil
	}
	coords := make([]models.Coordinates, len(ls))
	for i, p := range ls {
		coords[i] = geo.FromPoint(p)
	}
	return coords
}
