package planner

import (
	"fmt"
	"strings"

	"household-meal-planner/internal/meal"

	"github.com/pmezard/go-difflib/difflib"
)

// ShoppingList consolidates the ingredients of every meal in the plan,
// dropping case-insensitive duplicates and keeping first-seen order.
func ShoppingList(plan MealPlan) []string {
	var all []string
	plan.forEachEntry(func(e *meal.Entry) {
		all = append(all, e.Ingredients...)
	})
	list := cleanList(all)
	if list == nil {
		return []string{}
	}
	return list
}

// DiffPlans renders both plans as menus and returns a unified diff of them.
// The result is empty when the menus match.
func DiffPlans(before, after MealPlan) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(renderMenu(before)),
		B:        difflib.SplitLines(renderMenu(after)),
		FromFile: before.Name,
		ToFile:   after.Name,
		Context:  1,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff plans: %w", err)
	}
	return text, nil
}

func renderMenu(plan MealPlan) string {
	var b strings.Builder
	for i := range plan.Days {
		d := &plan.Days[i]
		for _, s := range meal.Slots {
			e := d.Slot(s)
			fmt.Fprintf(&b, "%s %-9s %s [%s]\n", d.Date, s, e.Title, strings.Join(e.Ingredients, ", "))
		}
	}
	return b.String()
}
