package planner

import (
	"strings"
	"testing"

	"household-meal-planner/internal/meal"

	"github.com/stretchr/testify/assert"
)

func TestGenerateFallback(t *testing.T) {
	t.Run("ExpiringItemsBiasDraws", func(t *testing.T) {
		c := newTestCatalog(t, 11)
		plan := GenerateFallback(c, GenerationRequest{Days: 7, ExpiringItems: []string{"Salmon"}}, refTime)

		assertWellFormed(t, plan, 7)
		for _, d := range plan.Days {
			assert.Equal(t, "Baked Salmon with Vegetables", d.Dinner.Title)
		}
	})

	t.Run("PantryUsedWithoutExpiringItems", func(t *testing.T) {
		c := newTestCatalog(t, 12)
		plan := GenerateFallback(c, GenerationRequest{Days: 5, ExpiringItems: []string{"  "}, PantryItems: []string{"quinoa"}}, refTime)

		for _, d := range plan.Days {
			assert.Equal(t, "Quinoa Buddha Bowl", d.Lunch.Title)
		}
	})

	t.Run("ExpiringItemsWinOverPantry", func(t *testing.T) {
		c := newTestCatalog(t, 13)
		plan := GenerateFallback(c, GenerationRequest{
			Days:          4,
			ExpiringItems: []string{"pork tenderloin"},
			PantryItems:   []string{"salmon"},
		}, refTime)

		for _, d := range plan.Days {
			assert.Equal(t, "Roast Pork Tenderloin", d.Dinner.Title)
		}
	})

	t.Run("ItemContainingIngredientMatches", func(t *testing.T) {
		c := newTestCatalog(t, 14)
		plan := GenerateFallback(c, GenerationRequest{Days: 3, PantryItems: []string{"a bag of red lentils"}}, refTime)

		for _, d := range plan.Days {
			assert.Equal(t, "Lentil Soup", d.Lunch.Title)
		}
	})

	t.Run("DatesStartAtReference", func(t *testing.T) {
		plan := GenerateFallback(newTestCatalog(t, 15), GenerationRequest{Days: 3}, refTime)
		assert.Equal(t, "2026-03-02", plan.Days[0].Date.String())
		assert.Equal(t, "2026-03-04", plan.Days[2].Date.String())
		assert.Equal(t, "Meal Plan 2026-03-02", plan.Name)
	})

	t.Run("RestrictionsApplied", func(t *testing.T) {
		plan := GenerateFallback(newTestCatalog(t, 16), GenerationRequest{Days: 7, Restrictions: []string{"Vegan"}}, refTime)
		for _, d := range plan.Days {
			for _, s := range meal.Slots {
				for _, ing := range d.Slot(s).Ingredients {
					assert.False(t, containsAny(strings.ToLower(ing), veganBanned), "kept %q", ing)
				}
			}
		}
	})

	t.Run("LowBudgetApplied", func(t *testing.T) {
		budget := 40.0
		plan := GenerateFallback(newTestCatalog(t, 17), GenerationRequest{
			Days:          2,
			BudgetUSD:     &budget,
			ExpiringItems: []string{"salmon"},
		}, refTime)

		for _, d := range plan.Days {
			assert.Contains(t, d.Dinner.Ingredients, "canned tuna fillet")
		}
	})

	t.Run("SameSeedSamePlan", func(t *testing.T) {
		a := GenerateFallback(newTestCatalog(t, 99), GenerationRequest{Days: 7}, refTime)
		b := GenerateFallback(newTestCatalog(t, 99), GenerationRequest{Days: 7}, refTime)
		assert.True(t, a.SameContent(b))
	})
}
