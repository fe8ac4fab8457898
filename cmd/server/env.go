package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/AngelCh415/agency-ops/internal/capacity"
	"github.com/AngelCh415/agency-ops/internal/config"
	"github.com/AngelCh415/agency-ops/internal/ingest"
	"github.com/AngelCh415/agency-ops/internal/metrics"
	"github.com/AngelCh415/agency-ops/internal/store"
)

// appEnv holds the components a command needs.
type appEnv struct {
	Repo     *store.Repository
	Service  *metrics.Service
	ETL      *ingest.ETL // nil without backend.base_url
	Registry *prometheus.Registry
}

func (e *appEnv) Close() {
	if err := e.Repo.Close(); err != nil {
		zap.L().Warn("close store", zap.Error(err))
	}
}

func openBackend(ctx context.Context, c *config.Config) (store.Backend, error) {
	switch c.Store.Driver {
	case "sqlite":
		return store.NewSQLite(c.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, c.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: c.Store.MaxConns,
			MinConns: c.Store.MinConns,
		})
	default:
		return store.NewMemoryStore(), nil
	}
}

// initEnv opens the configured store, migrates it and builds the services.
func initEnv(ctx context.Context, c *config.Config) (*appEnv, error) {
	b, err := openBackend(ctx, c)
	if err != nil {
		return nil, err
	}
	repo := store.NewRepository(b)
	if err := repo.Migrate(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	env := &appEnv{
		Repo:     repo,
		Registry: reg,
		Service: metrics.NewService(repo, metrics.Options{
			Classifier:           capacity.NewClassifier(c.Capacity.SlotKeywords, c.Capacity.FallbackSlot),
			PerAssignmentChannel: c.Capacity.PerAssignmentChannel,
			TrendMonths:          c.Funnel.TrendMonths,
			Registerer:           reg,
		}),
	}
	if c.Backend.BaseURL != "" {
		client := ingest.NewClient(ingest.NewHTTPClient(c.HTTPTimeout()), ingest.ClientOptions{
			BaseURL:    c.Backend.BaseURL,
			APIKey:     c.Backend.APIKey,
			RatePerSec: c.Backend.RatePerSec,
			Retries:    c.Backend.Retries,
		})
		env.ETL = ingest.NewETL(client, repo, zap.L().Named("ingest"))
	}
	zap.L().Debug("environment ready", zap.String("store", c.Store.Driver), zap.Bool("ingest", env.ETL != nil))
	return env, nil
}
