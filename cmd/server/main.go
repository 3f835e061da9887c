package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"cityroute/internal/catalog"
	"cityroute/internal/config"
	"cityroute/internal/handlers"
	"cityroute/internal/logging"
	"cityroute/internal/models"
	"cityroute/internal/places"
	"cityroute/internal/provider"
	"cityroute/internal/routing"
	"cityroute/internal/server"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yml"))
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.AppEnv, "cityroute")
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := openCatalog(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	seed := cfg.Policy.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	routes := provider.NewOSRMClient(cfg.Provider.BaseURL, cfg.Provider.Timeout, logger)
	composer := routing.NewComposer(routes, policyFromConfig(cfg.Policy), routing.NewPointGenerator(rand.NewSource(seed)), store, logger)
	handler := handlers.New(store, handlers.NewSessionStore(composer, logger), logger)
	if cfg.Places.BaseURL != "" {
		handler.Places = places.NewNominatimSearcher(cfg.Places.BaseURL, cfg.Places.UserAgent, viewbox(cfg.Places.Viewbox), logger)
	}

	srv := server.New(server.Config{
		Addr:               cfg.Server.Addr,
		SessionIdleTimeout: cfg.Server.SessionIdleTimeout,
	}, handler, logger)

	if _, err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	logger.Info("received signal, starting graceful shutdown", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("could not gracefully shutdown the server: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openCatalog(cfg *config.Config, logger *zap.Logger) (*catalog.Store, error) {
	store, err := catalog.Open(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if cfg.Catalog.SeedBuiltin {
		if _, err := store.SeedBuiltin(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
	}

	if cfg.Catalog.GTFSPath != "" {
		kind := models.TransferKind(cfg.Catalog.GTFSKind)
		if kind == "" {
			kind = models.KindVanTerminal
		}
		if _, err := store.ImportGTFS(ctx, cfg.Catalog.GTFSPath, kind); err != nil {
			// a bad feed leaves the seeded catalog usable
			logger.Warn("GTFS import failed", zap.String("path", cfg.Catalog.GTFSPath), zap.Error(err))
		}
	}

	return store, nil
}

func policyFromConfig(p config.PolicyConfig) routing.PolicyConfig {
	policy := routing.DefaultPolicy()
	policy.DetourRatioLimit = p.DetourRatioLimit
	policy.OriginWeight = p.OriginWeight
	policy.DestWeight = p.DestWeight
	policy.TaxiRadiusMeters = p.TaxiRadiusMeters
	policy.VanRadiusMeters = p.VanRadiusMeters
	policy.SyntheticCount = p.SyntheticCount
	return policy
}

func viewbox(v []float64) *orb.Bound {
	if len(v) != 4 {
		return nil
	}
	return &orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
