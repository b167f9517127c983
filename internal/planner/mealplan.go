package planner

import (
	"fmt"
	"strings"
	"time"

	"household-meal-planner/internal/meal"
)

const (
	MinDays = 1
	MaxDays = 31
)

const dateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

// DateOf drops the clock part of t, keeping its calendar date.
func DateOf(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO 8601 calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

// DayPlan holds the three meals of one day.
type DayPlan struct {
	Date      Date       `json:"date"`
	Breakfast meal.Entry `json:"breakfast"`
	Lunch     meal.Entry `json:"lunch"`
	Dinner    meal.Entry `json:"dinner"`
}

// Slot returns a pointer to the entry stored in slot s.
func (d *DayPlan) Slot(s meal.SlotType) *meal.Entry {
	switch s {
	case meal.Lunch:
		return &d.Lunch
	case meal.Dinner:
		return &d.Dinner
	default:
		return &d.Breakfast
	}
}

// MealPlan is a multi-day schedule. Plans are values: every modification
// produces a new plan with its own ID.
type MealPlan struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Days []DayPlan `json:"days"`
}

// Clone returns a deep copy of p.
func (p MealPlan) Clone() MealPlan {
	out := MealPlan{ID: p.ID, Name: p.Name}
	if p.Days != nil {
		out.Days = make([]DayPlan, len(p.Days))
		for i, d := range p.Days {
			out.Days[i] = DayPlan{
				Date:      d.Date,
				Breakfast: d.Breakfast.Clone(),
				Lunch:     d.Lunch.Clone(),
				Dinner:    d.Dinner.Clone(),
			}
		}
	}
	return out
}

// SameContent compares the days of two plans, ignoring ID and Name.
func (p MealPlan) SameContent(other MealPlan) bool {
	if len(p.Days) != len(other.Days) {
		return false
	}
	for i := range p.Days {
		a, b := p.Days[i], other.Days[i]
		if !a.Date.Equal(b.Date.Time) || !a.Breakfast.Equal(b.Breakfast) ||
			!a.Lunch.Equal(b.Lunch) || !a.Dinner.Equal(b.Dinner) {
			return false
		}
	}
	return true
}

func (p MealPlan) forEachEntry(fn func(e *meal.Entry)) {
	for i := range p.Days {
		for _, s := range meal.Slots {
			fn(p.Days[i].Slot(s))
		}
	}
}

// GenerationRequest describes the constraints for a new plan.
type GenerationRequest struct {
	Days          int      `json:"days"`
	BudgetUSD     *float64 `json:"budgetUsd,omitempty"`
	Preferences   []string `json:"preferences,omitempty"`
	Restrictions  []string `json:"restrictions,omitempty"`
	PantryItems   []string `json:"pantryItems,omitempty"`
	ExpiringItems []string `json:"expiringItems,omitempty"`
}

// DayCount is the requested number of days clamped to [MinDays, MaxDays].
func (r GenerationRequest) DayCount() int {
	switch {
	case r.Days < MinDays:
		return MinDays
	case r.Days > MaxDays:
		return MaxDays
	}
	return r.Days
}

// Budget returns the budget when one was given and is positive.
func (r GenerationRequest) Budget() (float64, bool) {
	if r.BudgetUSD == nil || *r.BudgetUSD <= 0 {
		return 0, false
	}
	return *r.BudgetUSD, true
}

// Rule names a modification.
type Rule string

const (
	RuleReplaceMeal    Rule = "replaceMeal"
	RuleChangeCuisine  Rule = "changeCuisine"
	RuleAddRestriction Rule = "addRestriction"
	RuleAdjustBudget   Rule = "adjustBudget"
)

// Rules lists every known modification rule.
var Rules = []Rule{RuleReplaceMeal, RuleChangeCuisine, RuleAddRestriction, RuleAdjustBudget}

// ParseRule matches name against the known rules, ignoring case.
func ParseRule(name string) (Rule, bool) {
	for _, r := range Rules {
		if strings.EqualFold(string(r), strings.TrimSpace(name)) {
			return r, true
		}
	}
	return "", false
}

// ModificationRequest asks for one rule to be applied to an existing plan.
type ModificationRequest struct {
	Plan      MealPlan `json:"plan"`
	Rule      Rule     `json:"rule"`
	Parameter string   `json:"parameter"`
}

// cleanList trims items, drops blanks and removes case-insensitive duplicates.
func cleanList(items []string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
