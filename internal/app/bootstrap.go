package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"time"

	"household-meal-planner/internal/config"
	"household-meal-planner/internal/database"
	"household-meal-planner/internal/llm"
	"household-meal-planner/internal/meal"
	"household-meal-planner/internal/metrics"
	"household-meal-planner/internal/planner"
	"household-meal-planner/internal/ratelimit"

	"go.uber.org/zap"
)

// Components holds everything a binary needs, built from one Config.
type Components struct {
	DB         *database.DB
	Catalog    *meal.Catalog
	Metrics    *metrics.Store
	Collectors *metrics.Collectors
	Plans      *planner.PlanRepository
	Service    *Service
	DataDir    string

	closers []func() error
}

// Bootstrap opens the database, builds the catalog, the completion client
// and the rate limiter, and wires them into a Service.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Components{DataDir: filepath.Dir(cfg.DatabasePath)}

	db, err := database.NewDB(cfg.DatabasePath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db
	c.closers = append(c.closers, db.Close)

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	if cfg.CatalogPath != "" {
		c.Catalog, err = meal.LoadCatalog(cfg.CatalogPath, rng)
	} else {
		c.Catalog, err = meal.NewCatalog(rng)
	}
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	completer, err := llm.NewCompleter(ctx, cfg)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}
	if closer, ok := completer.(llm.Closer); ok {
		c.closers = append(c.closers, closer.Close)
	}
	logger.Info("completion provider", zap.String("provider", cfg.CompletionProvider))

	limiter, err := c.newLimiter(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Metrics = metrics.NewStore(db.SQL)
	c.Collectors = metrics.NewCollectors()
	c.Plans = planner.NewPlanRepository(db.SQL)
	c.Service = NewService(
		limiter,
		planner.NewPlanner(completer, c.Catalog, logger),
		planner.NewModifier(c.Catalog, logger),
		c.Plans,
		c.Metrics,
		c.Collectors,
		logger,
	)
	return c, nil
}

func (c *Components) newLimiter(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ratelimit.Limiter, error) {
	policy := ratelimit.Policy{
		Authenticated: ratelimit.Limit{Requests: cfg.RateLimitUser, Window: cfg.RateLimitWindow},
		Anonymous:     ratelimit.Limit{Requests: cfg.RateLimitAnonymous, Window: cfg.RateLimitWindow},
	}
	if cfg.RedisURL == "" {
		logger.Info("using in-memory rate limiter")
		return ratelimit.NewMemoryLimiter(policy), nil
	}

	client, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	c.closers = append(c.closers, client.Close)
	logger.Info("using redis rate limiter")
	return ratelimit.NewRedisLimiter(client, policy), nil
}

// Close releases resources in reverse order of acquisition.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
