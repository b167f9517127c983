package planner

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"household-meal-planner/internal/config"
	"household-meal-planner/internal/llm"
	"household-meal-planner/internal/meal"

	"github.com/stretchr/testify/require"
)

// TestGeneratePlan_LiveEval performs a real completion call and checks that
// the output survives validation without falling back.
// Run with: go test -v ./internal/planner -run TestGeneratePlan_LiveEval
func TestGeneratePlan_LiveEval(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping live eval in short mode")
	}

	cfg, err := config.NewFromEnv()
	if err != nil || cfg.CompletionProvider == config.ProviderNone {
		t.Skip("Skipping: No API keys found in environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	completer, err := llm.NewCompleter(ctx, cfg)
	require.NoError(t, err, "failed to create completion client")
	if closer, ok := completer.(llm.Closer); ok {
		defer closer.Close()
	}

	catalog, err := meal.NewCatalog(rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	budget := 60.0
	res := NewPlanner(completer, catalog, nil).GeneratePlan(ctx, GenerationRequest{
		Days:          3,
		BudgetUSD:     &budget,
		Restrictions:  []string{"vegetarian"},
		Preferences:   []string{"mexican"},
		ExpiringItems: []string{"spinach"},
	})

	require.Equal(t, SourceCompletion, res.Source, "fell back with reason %q", res.FallbackReason)
	require.Len(t, res.Plan.Days, 3)

	for i, d := range res.Plan.Days {
		for _, s := range meal.Slots {
			e := d.Slot(s)
			for _, ing := range e.Ingredients {
				if containsAny(strings.ToLower(ing), vegetarianBanned) {
					t.Logf("warning: day %d %s (%s) has non-vegetarian ingredient %q", i+1, s, e.Title, ing)
				}
			}
		}
	}
	t.Logf("tokens used: %d, latency: %s", res.Meta.Usage.TotalTokens, res.Meta.Latency)
}
