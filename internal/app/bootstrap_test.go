package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"household-meal-planner/internal/config"
	"household-meal-planner/internal/planner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		CompletionProvider: config.ProviderNone,
		DatabasePath:       filepath.Join(t.TempDir(), "data", "planner.db"),
		RandomSeed:         5,
		RateLimitUser:      2,
		RateLimitAnonymous: 1,
		RateLimitWindow:    time.Hour,
	}

	c, err := Bootstrap(ctx, cfg, nil)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Service.GeneratePlan(ctx, "ip_127.0.0.1", planner.GenerationRequest{Days: 2})
	require.NoError(t, err)
	assert.Equal(t, planner.SourceFallback, res.Source)

	stored, err := c.Plans.Get(ctx, res.Plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "ip_127.0.0.1", stored.Owner)

	_, err = c.Service.GeneratePlan(ctx, "ip_127.0.0.1", planner.GenerationRequest{Days: 2})
	assert.Error(t, err, "anonymous limit is one request")

	t.Run("MissingCatalogFile", func(t *testing.T) {
		bad := *cfg
		bad.DatabasePath = filepath.Join(t.TempDir(), "planner.db")
		bad.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
		_, err := Bootstrap(ctx, &bad, nil)
		assert.Error(t, err)
	})
}
