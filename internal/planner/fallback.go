package planner

import (
	"strings"
	"time"

	"household-meal-planner/internal/meal"

	"github.com/google/uuid"
)

// GenerateFallback builds a plan from the catalog alone. It cannot fail.
//
// Draws lean toward dishes that use the expiring items, or the pantry when
// nothing is expiring. Recognized restrictions and the budget tier are then
// applied the same way the modification rules apply them.
func GenerateFallback(catalog *meal.Catalog, req GenerationRequest, ref time.Time) MealPlan {
	start := DateOf(ref)
	affinity := affinityPredicate(req)

	plan := MealPlan{
		ID:   uuid.NewString(),
		Name: "Meal Plan " + start.String(),
		Days: make([]DayPlan, req.DayCount()),
	}
	for i := range plan.Days {
		plan.Days[i].Date = start.AddDays(i)
		for _, s := range meal.Slots {
			*plan.Days[i].Slot(s) = catalog.SampleBySlot(s, affinity)
		}
	}

	for _, r := range cleanList(req.Restrictions) {
		applyRestriction(plan, r)
	}
	if budget, ok := req.Budget(); ok {
		applyBudget(plan, budget)
	}
	return plan
}

// affinityPredicate matches entries with an ingredient that contains, or is
// contained in, one of the household's items. Nil means no preference.
func affinityPredicate(req GenerationRequest) meal.Predicate {
	items := lowered(req.ExpiringItems)
	if len(items) == 0 {
		items = lowered(req.PantryItems)
	}
	if len(items) == 0 {
		return nil
	}

	return func(e meal.Entry) bool {
		for _, ing := range e.Ingredients {
			ing = strings.ToLower(strings.TrimSpace(ing))
			if ing == "" {
				continue
			}
			for _, item := range items {
				if strings.Contains(ing, item) || strings.Contains(item, ing) {
					return true
				}
			}
		}
		return false
	}
}

func lowered(items []string) []string {
	out := cleanList(items)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}
