package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jamespfennell/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cityroute/internal/geo"
	"cityroute/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesSchemaOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	ctx := context.Background()

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, models.TransferPoint{
		ID: "t1", Label: "Stand", Kind: models.KindTaxiStand, Location: models.Coordinates{Lat: 16.41, Lng: 120.59},
	}))
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Close())

	reopened, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	n, err := reopened.Count(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, reopened.Ping(ctx))
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	_, err = store.db.Exec("UPDATE schema_version SET version = ?", schemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open(path, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestUpsertListDelete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	stand := models.TransferPoint{ID: "taxi-1", Label: "Abanao Taxi Bay", Kind: models.KindTaxiStand, Location: models.Coordinates{Lat: 16.4139, Lng: 120.5952}}
	van := models.TransferPoint{ID: "van-1", Label: "Burnham Park Terminal", Kind: models.KindVanTerminal, Location: models.Coordinates{Lat: 16.4123, Lng: 120.5930}}
	require.NoError(t, store.UpsertBatch(ctx, []models.TransferPoint{stand, van}))

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Abanao Taxi Bay", all[0].Label)

	taxis, err := store.List(ctx, models.KindTaxiStand)
	require.NoError(t, err)
	assert.Equal(t, []models.TransferPoint{stand}, taxis)

	stand.Label = "Abanao Taxi Stand"
	require.NoError(t, store.Upsert(ctx, stand))
	taxis, err = store.List(ctx, models.KindTaxiStand)
	require.NoError(t, err)
	require.Len(t, taxis, 1)
	assert.Equal(t, "Abanao Taxi Stand", taxis[0].Label)

	require.NoError(t, store.Delete(ctx, "taxi-1"))
	assert.ErrorIs(t, store.Delete(ctx, "taxi-1"), ErrNotFound)

	n, err := store.Count(ctx, models.KindTaxiStand)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUpsertRejectsInvalidPoints(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.Upsert(ctx, models.TransferPoint{Kind: models.KindTaxiStand}))
	assert.Error(t, store.Upsert(ctx, models.TransferPoint{ID: "x", Kind: "ferry"}))
	assert.Error(t, store.Upsert(ctx, models.TransferPoint{ID: "x", Kind: models.KindTaxiStand, Location: models.Coordinates{Lat: 95}}))

	n, err := store.Count(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNearbyFiltersAndSorts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	center := models.Coordinates{Lat: 16.412, Lng: 120.593}

	require.NoError(t, store.UpsertBatch(ctx, []models.TransferPoint{
		{ID: "far", Label: "Far", Kind: models.KindVanTerminal, Location: geo.Offset(center, 1200, 0)},
		{ID: "near", Label: "Near", Kind: models.KindVanTerminal, Location: geo.Offset(center, 0, 300)},
		{ID: "out", Label: "Out", Kind: models.KindVanTerminal, Location: geo.Offset(center, 5000, 0)},
		{ID: "taxi", Label: "Taxi", Kind: models.KindTaxiStand, Location: geo.Offset(center, 100, 0)},
	}))

	points, err := store.Nearby(ctx, models.KindVanTerminal, center, 1500)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "near", points[0].ID)
	assert.Equal(t, "far", points[1].ID)

	points, err = store.Nearby(ctx, models.KindVanTerminal, center, 100)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestSeedBuiltin(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	n, err := store.SeedBuiltin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	n, err = store.SeedBuiltin(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "second seed is a no-op")

	points, err := store.Nearby(ctx, models.KindVanTerminal, models.Coordinates{Lat: 16.4096, Lng: 120.5986}, 500)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
	}
	assert.Contains(t, labels, "SM Baguio Terminal")
}

func ptr(v float64) *float64 { return &v }

func TestStopsToTransferPoints(t *testing.T) {
	stops := []gtfs.Stop{
		{Id: "S1", Name: "Session Road", Latitude: ptr(16.4129), Longitude: ptr(120.5964)},
		{Id: "S2", Name: "", Latitude: ptr(16.4168), Longitude: ptr(120.5957), Type: gtfs.StopType_Station},
		{Id: "S3", Name: "No coords"},
		{Id: "S4", Name: "Entrance", Latitude: ptr(16.41), Longitude: ptr(120.59), Type: gtfs.StopType_EntranceOrExit},
		{Id: "S5", Name: "Bad", Latitude: ptr(123), Longitude: ptr(120.59)},
	}

	points := StopsToTransferPoints(stops, models.KindVanTerminal)
	require.Len(t, points, 2)
	assert.Equal(t, "gtfs-S1", points[0].ID)
	assert.Equal(t, "Session Road", points[0].Label)
	assert.Equal(t, models.KindVanTerminal, points[0].Kind)
	assert.Equal(t, "S2", points[1].Label)
}

func TestImportGTFSErrors(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.ImportGTFS(ctx, filepath.Join(t.TempDir(), "missing.zip"), models.KindVanTerminal)
	assert.Error(t, err)

	bogus := filepath.Join(t.TempDir(), "bogus.zip")
	require.NoError(t, os.WriteFile(bogus, []byte("not a zip"), 0600))
	_, err = store.ImportGTFS(ctx, bogus, models.KindVanTerminal)
	assert.Error(t, err)
}
