package planner

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"household-meal-planner/internal/meal"
)

// Restrictions understood by addRestriction.
const (
	RestrictionVegetarian = "vegetarian"
	RestrictionVegan      = "vegan"
	RestrictionGlutenFree = "gluten-free"
)

var (
	vegetarianBanned = []string{"chicken", "beef", "pork", "fish", "salmon", "turkey", "shrimp"}
	veganBanned      = []string{"cheese", "milk", "eggs", "butter", "yogurt", "chicken", "beef", "fish"}
	glutenWords      = []string{"bread", "pasta", "flour"}
)

const glutenFreeLabel = "gluten-free"

var chickenWord = regexp.MustCompile(`(?i)chicken`)

// NormalizeRestriction folds spelling variants ("Gluten Free", "gluten_free",
// "glutenfree") onto one name.
func NormalizeRestriction(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	if s == "glutenfree" {
		return RestrictionGlutenFree
	}
	return s
}

// applyRestriction rewrites every entry of p in place. It reports false for
// restrictions it does not know.
func applyRestriction(p MealPlan, restriction string) bool {
	switch NormalizeRestriction(restriction) {
	case RestrictionVegetarian:
		p.forEachEntry(makeVegetarian)
	case RestrictionVegan:
		p.forEachEntry(func(e *meal.Entry) {
			e.Ingredients = withoutMatching(e.Ingredients, veganBanned)
		})
	case RestrictionGlutenFree:
		p.forEachEntry(makeGlutenFree)
	default:
		return false
	}
	return true
}

func makeVegetarian(e *meal.Entry) {
	e.Ingredients = withoutMatching(e.Ingredients, vegetarianBanned)
	if !chickenWord.MatchString(e.Title) {
		return
	}
	e.Title = chickenWord.ReplaceAllStringFunc(e.Title, func(word string) string {
		switch {
		case word == strings.ToUpper(word):
			return "TOFU"
		case word[0] == 'C':
			return "Tofu"
		default:
			return "tofu"
		}
	})
	if !containsFold(e.Ingredients, "tofu") {
		e.Ingredients = append(e.Ingredients, "Tofu")
	}
}

func makeGlutenFree(e *meal.Entry) {
	for i, ing := range e.Ingredients {
		lower := strings.ToLower(ing)
		if strings.Contains(lower, glutenFreeLabel) || !containsAny(lower, glutenWords) {
			continue
		}
		e.Ingredients[i] = glutenFreeLabel + " " + ing
	}
}

// substitution swaps one ingredient phrase for another. It is skipped when
// the replacement is already there, which keeps repeated runs stable.
// Phrases match whole words only, so "rice" leaves "licorice" alone.
type substitution struct {
	from *regexp.Regexp
	to   string
}

func sub(from, to string) substitution {
	return substitution{from: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`), to: to}
}

var (
	budgetFriendly = []substitution{
		sub("salmon", "canned tuna"),
		sub("ground beef", "ground turkey"),
		sub("beef", "ground turkey"),
		sub("quinoa", "rice"),
		sub("avocado", "cucumber"),
	}
	premium = []substitution{
		sub("chicken", "organic free-range chicken"),
		sub("rice", "wild rice"),
		sub("vegetables", "organic seasonal vegetables"),
	}
)

const (
	DefaultBudgetUSD = 100
	budgetLowerBound = 75
	budgetUpperBound = 150
)

// BudgetTier names the substitution policy for a budget.
type BudgetTier string

const (
	TierBudgetFriendly BudgetTier = "budget-friendly"
	TierStandard       BudgetTier = "standard"
	TierPremium        BudgetTier = "premium"
)

// TierFor maps a budget in dollars onto its tier.
func TierFor(budget float64) BudgetTier {
	switch {
	case budget < budgetLowerBound:
		return TierBudgetFriendly
	case budget > budgetUpperBound:
		return TierPremium
	}
	return TierStandard
}

var digitRun = regexp.MustCompile(`\d+`)

// ParseBudget reads the first run of digits in text, defaulting to
// DefaultBudgetUSD. Runs too long for an int still count as huge budgets.
func ParseBudget(text string) float64 {
	m := digitRun.FindString(text)
	if m == "" {
		return DefaultBudgetUSD
	}
	n, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return DefaultBudgetUSD
	}
	return n
}

// applyBudget rewrites ingredients for the tier of budget. Nutrition, prep
// time and difficulty stay as they were.
func applyBudget(p MealPlan, budget float64) BudgetTier {
	tier := TierFor(budget)
	var subs []substitution
	switch tier {
	case TierBudgetFriendly:
		subs = budgetFriendly
	case TierPremium:
		subs = premium
	default:
		return tier
	}

	p.forEachEntry(func(e *meal.Entry) {
		for i, ing := range e.Ingredients {
			for _, s := range subs {
				if !s.from.MatchString(ing) || strings.Contains(strings.ToLower(ing), s.to) {
					continue
				}
				ing = s.from.ReplaceAllLiteralString(ing, s.to)
			}
			e.Ingredients[i] = ing
		}
	})
	return tier
}

func withoutMatching(items []string, banned []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !containsAny(strings.ToLower(item), banned) {
			out = append(out, item)
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsFold(items []string, want string) bool {
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), want) {
			return true
		}
	}
	return false
}
