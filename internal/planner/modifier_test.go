package planner

import (
	"errors"
	"strings"
	"testing"

	"household-meal-planner/internal/meal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modify(t *testing.T, m *Modifier, plan MealPlan, rule Rule, param string) MealPlan {
	t.Helper()
	out, err := m.Modify(ModificationRequest{Plan: plan, Rule: rule, Parameter: param})
	require.NoError(t, err)
	return out
}

func allIngredients(plan MealPlan) []string {
	var out []string
	plan.forEachEntry(func(e *meal.Entry) { out = append(out, e.Ingredients...) })
	return out
}

// changedSlots lists "dayIndex/slot" for every entry that differs.
func changedSlots(a, b MealPlan) []string {
	var out []string
	for i := range a.Days {
		for _, s := range meal.Slots {
			if !a.Days[i].Slot(s).Equal(*b.Days[i].Slot(s)) {
				out = append(out, strings.Join([]string{string(rune('0' + i)), string(s)}, "/"))
			}
		}
	}
	return out
}

func TestModify_Metadata(t *testing.T) {
	m := NewModifier(newTestCatalog(t, 1), nil)
	in := fixturePlan()
	snapshot := in.Clone()

	for _, rule := range Rules {
		t.Run(string(rule), func(t *testing.T) {
			out := modify(t, m, in, rule, "day 2 dinner italian vegan $20")

			assert.NotEqual(t, in.ID, out.ID)
			assert.NotEmpty(t, out.ID)
			assert.Equal(t, "Modified Meal Plan 2026-03-02", out.Name)
			assert.Len(t, out.Days, len(in.Days))
			assert.True(t, in.SameContent(snapshot), "input plan was mutated")
			assert.Equal(t, snapshot.ID, in.ID)
		})
	}
}

func TestModify_UnrecognizedRule(t *testing.T) {
	m := NewModifier(newTestCatalog(t, 1), nil)

	_, err := m.Modify(ModificationRequest{Plan: fixturePlan(), Rule: "bogus"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnrecognizedRule))

	_, err = m.Modify(ModificationRequest{Plan: fixturePlan(), Rule: "REPLACEMEAL", Parameter: "day 1 lunch"})
	assert.NoError(t, err, "rule names are case-insensitive")
}

func TestReplaceMeal(t *testing.T) {
	cases := []struct {
		name  string
		param string
		want  string
	}{
		{"DayOrdinal", "Day 2 dinner", "1/dinner"},
		{"Weekday", "Wednesday lunch", "2/lunch"},
		{"WeekdayCaseInsensitive", "swap MONDAY DINNER please", "0/dinner"},
		{"UnparseableDefaultsToFirstBreakfast", "something different", "0/breakfast"},
		{"SlotWithoutDay", "dinner", "0/breakfast"},
		{"DayOutOfRange", "day 9 lunch", "0/breakfast"},
		{"WeekdayNotInPlan", "Sunday dinner", "0/breakfast"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModifier(newTestCatalog(t, 5), nil)
			in := fixturePlan()

			out := modify(t, m, in, RuleReplaceMeal, tc.param)
			assert.Equal(t, []string{tc.want}, changedSlots(in, out))
		})
	}

	t.Run("WeekdayOnPlanNotStartingMonday", func(t *testing.T) {
		m := NewModifier(newTestCatalog(t, 7), nil)
		in := shiftPlan(fixturePlan(), 2)

		out := modify(t, m, in, RuleReplaceMeal, "Tuesday dinner")
		assert.Equal(t, []string{"1/dinner"}, changedSlots(in, out))
	})

	t.Run("ReplacementDiffersFromCatalogTitle", func(t *testing.T) {
		m := NewModifier(newTestCatalog(t, 6), nil)
		in := fixturePlan()
		in.Days[1].Dinner = m.catalog.SampleBySlot(meal.Dinner, func(e meal.Entry) bool { return e.Title == "Beef Chili" })

		for i := 0; i < 20; i++ {
			out := modify(t, m, in, RuleReplaceMeal, "day 2 dinner")
			assert.NotEqual(t, "Beef Chili", out.Days[1].Dinner.Title)
		}
	})
}

func TestResolveTarget(t *testing.T) {
	plan := fixturePlan()

	day, slot, ok := ResolveTarget(plan, "Tuesday breakfast")
	assert.True(t, ok)
	assert.Equal(t, 1, day)
	assert.Equal(t, meal.Breakfast, slot)

	day, slot, ok = ResolveTarget(plan, "lunch on day3")
	assert.True(t, ok)
	assert.Equal(t, 2, day)
	assert.Equal(t, meal.Lunch, slot)

	day, slot, ok = ResolveTarget(plan, "")
	assert.False(t, ok)
	assert.Equal(t, 0, day)
	assert.Equal(t, meal.Breakfast, slot)

	t.Run("WeekdaysCountFromPlanStart", func(t *testing.T) {
		wednesdayStart := shiftPlan(fixturePlan(), 2)
		require.Equal(t, "Wednesday", wednesdayStart.Days[0].Date.Weekday().String())

		day, slot, ok := ResolveTarget(wednesdayStart, "Monday lunch")
		assert.True(t, ok)
		assert.Equal(t, 0, day)
		assert.Equal(t, meal.Lunch, slot)

		day, slot, ok = ResolveTarget(wednesdayStart, "wednesday dinner")
		assert.True(t, ok)
		assert.Equal(t, 2, day)
		assert.Equal(t, meal.Dinner, slot)

		day, slot, ok = ResolveTarget(wednesdayStart, "Friday dinner")
		assert.False(t, ok, "Friday is day 4 of a three day plan")
		assert.Equal(t, 0, day)
		assert.Equal(t, meal.Breakfast, slot)
	})
}

// shiftPlan moves every date of plan n days later.
func shiftPlan(plan MealPlan, n int) MealPlan {
	for i := range plan.Days {
		plan.Days[i].Date = plan.Days[i].Date.AddDays(n)
	}
	return plan
}

func TestChangeCuisine(t *testing.T) {
	t.Run("EverySlotReplaced", func(t *testing.T) {
		m := NewModifier(newTestCatalog(t, 21), nil)
		out := modify(t, m, fixturePlan(), RuleChangeCuisine, "Mexican")

		for _, d := range out.Days {
			assert.Equal(t, "Huevos Rancheros", d.Breakfast.Title)
			assert.Equal(t, "Chicken Burrito Bowl", d.Lunch.Title)
			assert.Contains(t, []string{"Beef Tacos", "Black Bean Enchiladas"}, d.Dinner.Title)
		}
	})

	t.Run("MissingSlotUsesUntaggedDraw", func(t *testing.T) {
		c := newTestCatalog(t, 22)
		m := NewModifier(c, nil)
		out := modify(t, m, fixturePlan(), RuleChangeCuisine, "italian")

		var base []string
		for _, e := range c.Entries(meal.Breakfast) {
			base = append(base, e.Title)
		}
		for _, d := range out.Days {
			assert.Contains(t, base, d.Breakfast.Title)
			assert.Contains(t, []string{"Chicken Parmesan", "Mushroom Risotto"}, d.Dinner.Title)
		}
	})

	for _, cuisine := range []string{"martian", "", "   "} {
		t.Run("UnknownCuisineNoOp/"+cuisine, func(t *testing.T) {
			m := NewModifier(newTestCatalog(t, 23), nil)
			in := fixturePlan()
			out := modify(t, m, in, RuleChangeCuisine, cuisine)
			assert.True(t, in.SameContent(out))
			assert.NotEqual(t, in.ID, out.ID)
		})
	}
}

func TestAddRestriction(t *testing.T) {
	m := NewModifier(newTestCatalog(t, 31), nil)

	t.Run("Vegetarian", func(t *testing.T) {
		out := modify(t, m, fixturePlan(), RuleAddRestriction, "Vegetarian")

		for _, ing := range allIngredients(out) {
			assert.False(t, containsAny(strings.ToLower(ing), vegetarianBanned), "kept %q", ing)
		}
		lunch := out.Days[0].Lunch
		assert.Equal(t, "Grilled Tofu Salad", lunch.Title)
		assert.Equal(t, []string{"mixed greens", "olive oil", "Tofu"}, lunch.Ingredients)
		assert.Equal(t, "Beef Chili", out.Days[1].Dinner.Title, "only chicken titles are renamed")

		again := modify(t, m, out, RuleAddRestriction, "vegetarian")
		assert.True(t, out.SameContent(again))
	})

	t.Run("Vegan", func(t *testing.T) {
		out := modify(t, m, fixturePlan(), RuleAddRestriction, "VEGAN")

		for _, ing := range allIngredients(out) {
			for _, banned := range []string{"cheese", "milk", "eggs", "butter", "yogurt", "chicken", "beef", "fish"} {
				assert.NotContains(t, strings.ToLower(ing), banned)
			}
		}
		assert.Equal(t, []string{"flour"}, out.Days[2].Breakfast.Ingredients)
	})

	for _, spelling := range []string{"gluten-free", "Gluten Free", "gluten_free", "GLUTENFREE"} {
		t.Run("GlutenFree/"+spelling, func(t *testing.T) {
			out := modify(t, m, fixturePlan(), RuleAddRestriction, spelling)

			assert.Equal(t, "gluten-free whole grain bread", out.Days[0].Breakfast.Ingredients[0])
			assert.Equal(t, "gluten-free pasta", out.Days[1].Lunch.Ingredients[0])
			assert.Equal(t, "gluten-free flour", out.Days[2].Breakfast.Ingredients[0])
			assert.Equal(t, "Avocado Toast", out.Days[0].Breakfast.Title)

			again := modify(t, m, out, RuleAddRestriction, spelling)
			assert.True(t, out.SameContent(again))
		})
	}

	t.Run("UnknownRestrictionNoOp", func(t *testing.T) {
		in := fixturePlan()
		out := modify(t, m, in, RuleAddRestriction, "keto")
		assert.True(t, in.SameContent(out))
	})
}

func TestAdjustBudget(t *testing.T) {
	m := NewModifier(newTestCatalog(t, 41), nil)

	for _, param := range []string{"$100 per week", "75", "150 dollars", "no number here", ""} {
		t.Run("NoOp/"+param, func(t *testing.T) {
			in := fixturePlan()
			out := modify(t, m, in, RuleAdjustBudget, param)
			assert.True(t, in.SameContent(out))
		})
	}

	t.Run("BudgetFriendly", func(t *testing.T) {
		in := fixturePlan()
		out := modify(t, m, in, RuleAdjustBudget, "only $50 this week")

		assert.Equal(t, []string{"whole grain bread", "cucumber", "eggs"}, out.Days[0].Breakfast.Ingredients)
		assert.Equal(t, []string{"canned tuna fillet", "rice", "broccoli"}, out.Days[0].Dinner.Ingredients)
		assert.Equal(t, []string{"ground turkey", "kidney beans", "onion"}, out.Days[1].Dinner.Ingredients)
		assert.Equal(t, in.Days[0].Dinner.Nutrition, out.Days[0].Dinner.Nutrition)
		assert.Equal(t, in.Days[0].Dinner.Title, out.Days[0].Dinner.Title)

		again := modify(t, m, out, RuleAdjustBudget, "$50")
		assert.True(t, out.SameContent(again))
	})

	t.Run("WholeWordsOnly", func(t *testing.T) {
		in := fixturePlan()
		in.Days[0].Breakfast.Ingredients = []string{"licorice", "rice"}
		in.Days[0].Lunch.Ingredients = []string{"beefsteak tomato"}

		out := modify(t, m, in, RuleAdjustBudget, "$500")
		assert.Equal(t, []string{"licorice", "wild rice"}, out.Days[0].Breakfast.Ingredients)

		out = modify(t, m, in, RuleAdjustBudget, "$20")
		assert.Equal(t, []string{"beefsteak tomato"}, out.Days[0].Lunch.Ingredients)
	})

	t.Run("Premium", func(t *testing.T) {
		out := modify(t, m, fixturePlan(), RuleAdjustBudget, "up to $300")

		assert.Equal(t, "organic free-range chicken breast", out.Days[0].Lunch.Ingredients[0])
		assert.Equal(t, []string{"shrimp", "wild rice", "organic seasonal vegetables"}, out.Days[2].Lunch.Ingredients)

		again := modify(t, m, out, RuleAdjustBudget, "300")
		assert.True(t, out.SameContent(again))
	})
}

func TestParseBudget(t *testing.T) {
	assert.Equal(t, 49.0, ParseBudget("$49.99"))
	assert.Equal(t, 100.0, ParseBudget("cheap please"))
	assert.Equal(t, TierPremium, TierFor(ParseBudget("$99999999999999999999")))
	assert.Equal(t, TierPremium, TierFor(ParseBudget("$"+strings.Repeat("9", 400))))
	assert.Equal(t, TierBudgetFriendly, TierFor(74))
	assert.Equal(t, TierStandard, TierFor(75))
	assert.Equal(t, TierStandard, TierFor(150))
	assert.Equal(t, TierPremium, TierFor(151))
}
