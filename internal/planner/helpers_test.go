package planner

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"household-meal-planner/internal/llm"
	"household-meal-planner/internal/meal"
	"household-meal-planner/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refTime is a Monday afternoon.
var refTime = time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)

func newTestCatalog(t *testing.T, seed int64) *meal.Catalog {
	t.Helper()
	c, err := meal.NewCatalog(rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return c
}

type MockCompleter struct {
	Content    string
	Err        error
	Calls      int
	LastPrompt llm.Prompt
}

func (m *MockCompleter) Complete(ctx context.Context, prompt llm.Prompt) (llm.ContentResponse, error) {
	m.Calls++
	m.LastPrompt = prompt
	if m.Err != nil {
		return llm.ContentResponse{}, m.Err
	}
	return llm.ContentResponse{
		Content: m.Content,
		Usage:   shared.TokenUsage{PromptTokens: 100, CompletionTokens: 200, TotalTokens: 300, Model: "mock"},
	}, nil
}

func entryJSON(title string) map[string]any {
	return map[string]any{
		"title":           title,
		"ingredients":     []string{"ingredient for " + title},
		"prepTimeMinutes": 15,
		"difficulty":      "easy",
		"nutrition":       map[string]int{"calories": 400, "proteinGrams": 20, "carbsGrams": 40, "fatGrams": 10},
	}
}

// completionJSON builds well-formed completion output with the given number of days.
func completionJSON(t *testing.T, days int) string {
	t.Helper()
	var out []map[string]any
	for i := 0; i < days; i++ {
		out = append(out, map[string]any{
			"date":      "1999-01-01",
			"breakfast": entryJSON("Oats"),
			"lunch":     entryJSON("Soup"),
			"dinner":    entryJSON("Stew"),
		})
	}
	data, err := json.Marshal(map[string]any{"days": out})
	require.NoError(t, err)
	return string(data)
}

func entry(title string, ingredients ...string) meal.Entry {
	return meal.Entry{
		Title:           title,
		Ingredients:     ingredients,
		PrepTimeMinutes: 20,
		Difficulty:      meal.Medium,
		Nutrition:       meal.Nutrition{Calories: 500, ProteinGrams: 25, CarbsGrams: 50, FatGrams: 15},
	}
}

// fixturePlan is a three day plan starting on Monday 2026-03-02.
func fixturePlan() MealPlan {
	start := DateOf(refTime)
	return MealPlan{
		ID:   "plan-1",
		Name: "Meal Plan 2026-03-02",
		Days: []DayPlan{
			{
				Date:      start,
				Breakfast: entry("Avocado Toast", "whole grain bread", "avocado", "eggs"),
				Lunch:     entry("Grilled Chicken Salad", "chicken breast", "mixed greens", "olive oil"),
				Dinner:    entry("Baked Salmon", "salmon fillet", "quinoa", "broccoli"),
			},
			{
				Date:      start.AddDays(1),
				Breakfast: entry("Yogurt Bowl", "greek yogurt", "honey", "granola"),
				Lunch:     entry("Pasta Salad", "pasta", "cheese", "tomato"),
				Dinner:    entry("Beef Chili", "ground beef", "kidney beans", "onion"),
			},
			{
				Date:      start.AddDays(2),
				Breakfast: entry("Pancakes", "flour", "milk", "butter"),
				Lunch:     entry("Shrimp Rice Bowl", "shrimp", "rice", "vegetables"),
				Dinner:    entry("Pork Roast", "pork tenderloin", "potatoes", "fish sauce"),
			},
		},
	}
}

func assertWellFormed(t *testing.T, plan MealPlan, days int) {
	t.Helper()
	assert.NotEmpty(t, plan.ID, "plan has no ID")
	require.Len(t, plan.Days, days)
	for i, d := range plan.Days {
		assert.True(t, d.Date.Equal(plan.Days[0].Date.AddDate(0, 0, i)),
			"day %d has date %s, not contiguous with %s", i, d.Date, plan.Days[0].Date)
		for _, s := range meal.Slots {
			e := d.Slot(s)
			assert.NotEmpty(t, e.Title, "day %d %s has no title", i, s)
			assert.True(t, e.Difficulty.Valid(), "day %d %s has difficulty %q", i, s, e.Difficulty)
			n := e.Nutrition
			assert.False(t, e.PrepTimeMinutes < 0 || n.Calories < 0 || n.ProteinGrams < 0 || n.CarbsGrams < 0 || n.FatGrams < 0,
				"day %d %s has negative numbers: %+v", i, s, e)
		}
	}
}
