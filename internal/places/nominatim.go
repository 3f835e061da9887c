package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

// Place is a named location a trip can be planned to
type Place struct {
	Label    string             `json:"label"`
	Location models.Coordinates `json:"location"`
}

// Searcher resolves free text into candidate destinations
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// ErrSearchFailed is returned when the place service cannot answer
type ErrSearchFailed struct {
	Query  string
	Reason string
}

func (e *ErrSearchFailed) Error() string {
	return fmt.Sprintf("place search failed for %q: %s", e.Query, e.Reason)
}

type nominatimSearcher struct {
	baseURL     string
	userAgent   string
	viewbox     *orb.Bound
	httpClient  *http.Client
	rateLimiter *time.Ticker
	logger      *zap.Logger
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewNominatimSearcher creates a rate limited Nominatim client. A non-nil
// viewbox restricts results to that area.
func NewNominatimSearcher(baseURL, userAgent string, viewbox *orb.Bound, logger *zap.Logger) Searcher {
	return &nominatimSearcher{
		baseURL:   baseURL,
		userAgent: userAgent,
		viewbox:   viewbox,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		// public Nominatim allows one request per second
		rateLimiter: time.NewTicker(1 * time.Second),
		logger:      logger.Named("places"),
	}
}

func (s *nominatimSearcher) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	select {
	case <-s.rateLimiter.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	if s.viewbox != nil {
		b := s.viewbox
		params.Set("viewbox", fmt.Sprintf("%f,%f,%f,%f", b.Min.Lon(), b.Max.Lat(), b.Max.Lon(), b.Min.Lat()))
		params.Set("bounded", "1")
	}
	queryURL := s.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, &ErrSearchFailed{Query: query, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("place search request failed", zap.String("query", query), zap.Error(err))
		return nil, &ErrSearchFailed{Query: query, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		s.logger.Warn("place search error", zap.String("query", query), zap.Int("status", resp.StatusCode))
		return nil, &ErrSearchFailed{
			Query:  query,
			Reason: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, &ErrSearchFailed{Query: query, Reason: err.Error()}
	}

	found := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lng, errLng := strconv.ParseFloat(r.Lon, 64)
		loc := models.Coordinates{Lat: lat, Lng: lng}
		if errLat != nil || errLng != nil || geo.Validate(loc) != nil {
			s.logger.Debug("skipping place with bad coordinates", zap.String("lat", r.Lat), zap.String("lon", r.Lon))
			continue
		}
		found = append(found, Place{Label: r.DisplayName, Location: loc})
	}

	s.logger.Debug("place search", zap.String("query", query), zap.Int("results", len(found)))
	return found, nil
}
