package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cityroute/internal/models"
)

var (
	testOrigin = models.Coordinates{Lat: 16.412, Lng: 120.593}
	testDest   = models.Coordinates{Lat: 16.4096, Lng: 120.5986}
)

func newTestClient(url string, timeout time.Duration) *osrmClient {
	return &osrmClient{
		baseURL:    url,
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     zap.NewNop(),
	}
}

const twoRoutesBody = `{
  "code": "Ok",
  "routes": [
    {"geometry": {"type": "LineString", "coordinates": [[120.593, 16.412], [120.596, 16.411], [120.5986, 16.4096]]},
     "distance": 1450.5, "duration": 310.2},
    {"geometry": {"type": "LineString", "coordinates": [[120.593, 16.412], [120.5986, 16.4096]]},
     "distance": 1200.0, "duration": 400.0}
  ]
}`

func TestComputeRoutes_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/route/v1/driving/"))
		assert.Contains(t, r.URL.Path, "120.593000,16.412000;120.598600,16.409600")
		assert.Equal(t, "true", r.URL.Query().Get("alternatives"))
		assert.Equal(t, "geojson", r.URL.Query().Get("geometries"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(twoRoutesBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	routes, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.NoError(t, err)
	require.Len(t, routes, 2)

	// order as received
	assert.Equal(t, 1450.5, routes[0].DistanceMeters)
	assert.Equal(t, 310.2, routes[0].DurationSecs)
	require.Len(t, routes[0].Geometry, 3)
	assert.Equal(t, models.Coordinates{Lat: 16.412, Lng: 120.593}, routes[0].Geometry[0])
	assert.Equal(t, 1200.0, routes[1].DistanceMeters)
}

func TestComputeRoutes_WalkingUsesFootProfile(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.True(t, strings.HasPrefix(r.URL.Path, "/route/v1/foot/"))
		w.Write([]byte(twoRoutesBody))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileWalking)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "exactly one request per call")
}

func TestComputeRoutes_NoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"NoRoute","message":"Impossible route between points"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	routes, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.Nil(t, routes)
	assert.True(t, IsNoRoute(err))
	assert.False(t, IsUnavailable(err))
}

func TestComputeRoutes_EmptyRoutesIsNoRoute(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)

	noRoute, ok := err.(*ErrNoRouteFound)
	require.True(t, ok)
	assert.Equal(t, "empty", noRoute.Code)
}

func TestComputeRoutes_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestComputeRoutes_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, 50*time.Millisecond)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestComputeRoutes_NegativeDistanceIsProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[120.593,16.412],[120.5986,16.4096]]},"distance":-3,"duration":10}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestComputeRoutes_DegenerateGeometryRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"Ok","routes":[{"geometry":{"type":"LineString","coordinates":[[120.593,16.412]]},"distance":0,"duration":0}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestComputeRoutes_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestComputeRoutes_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(url, 5*time.Second)
	_, err := client.ComputeRoutes(context.Background(), testOrigin, testDest, models.ProfileDriving)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
