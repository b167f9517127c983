package planner

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"household-meal-planner/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *PlanRepository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "plans.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := NewPlanRepository(db.SQL)
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return repo
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		repo := newTestRepository(t)
		plan := fixturePlan()

		require.NoError(t, repo.Save(ctx, "user-1", plan, ""))

		got, err := repo.Get(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.Owner)
		assert.Empty(t, got.ParentID)
		assert.Equal(t, plan.Name, got.Plan.Name)
		assert.True(t, plan.SameContent(got.Plan))
	})

	t.Run("LatestFollowsSaveOrder", func(t *testing.T) {
		repo := newTestRepository(t)
		first := fixturePlan()
		second := fixturePlan()
		second.ID = "plan-2"
		other := fixturePlan()
		other.ID = "plan-3"

		require.NoError(t, repo.Save(ctx, "user-1", first, ""))
		require.NoError(t, repo.Save(ctx, "user-1", second, first.ID))
		require.NoError(t, repo.Save(ctx, "ip_10.0.0.1", other, ""))

		latest, err := repo.Latest(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "plan-2", latest.Plan.ID)
		assert.Equal(t, first.ID, latest.ParentID)

		recent, err := repo.ListRecentByOwner(ctx, "user-1", 10)
		require.NoError(t, err)
		assert.Len(t, recent, 2)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := newTestRepository(t)

		_, err := repo.Get(ctx, "missing")
		assert.True(t, errors.Is(err, ErrPlanNotFound))

		_, err = repo.Latest(ctx, "nobody")
		assert.True(t, errors.Is(err, ErrPlanNotFound))
	})

	t.Run("DuplicateID", func(t *testing.T) {
		repo := newTestRepository(t)
		plan := fixturePlan()
		require.NoError(t, repo.Save(ctx, "user-1", plan, ""))
		assert.Error(t, repo.Save(ctx, "user-1", plan, ""))
	})
}
