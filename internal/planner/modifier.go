package planner

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"household-meal-planner/internal/meal"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnrecognizedRule is returned by Modify for rule names it does not know.
var ErrUnrecognizedRule = errors.New("unrecognized modification rule")

// Modifier applies modification rules to existing plans. It never talks to
// the completion service.
type Modifier struct {
	catalog *meal.Catalog
	logger  *zap.Logger
}

// NewModifier creates a Modifier drawing replacements from catalog.
func NewModifier(catalog *meal.Catalog, logger *zap.Logger) *Modifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Modifier{catalog: catalog, logger: logger.Named("modifier")}
}

// Modify returns a modified copy of req.Plan with a new ID and a name
// marking it as derived. The input plan is never changed. Parameters that
// cannot be understood fall back to a safe default instead of failing.
func (m *Modifier) Modify(req ModificationRequest) (MealPlan, error) {
	rule, ok := ParseRule(string(req.Rule))
	if !ok {
		return MealPlan{}, fmt.Errorf("%w: %q", ErrUnrecognizedRule, req.Rule)
	}

	plan := req.Plan.Clone()
	switch rule {
	case RuleReplaceMeal:
		m.replaceMeal(plan, req.Parameter)
	case RuleChangeCuisine:
		m.changeCuisine(plan, req.Parameter)
	case RuleAddRestriction:
		if !applyRestriction(plan, req.Parameter) {
			m.logger.Info("unknown restriction, plan unchanged", zap.String("restriction", req.Parameter))
		}
	case RuleAdjustBudget:
		tier := applyBudget(plan, ParseBudget(req.Parameter))
		m.logger.Debug("budget applied", zap.String("tier", string(tier)))
	}

	plan.ID = uuid.NewString()
	plan.Name = "Modified " + req.Plan.Name
	return plan, nil
}

func (m *Modifier) replaceMeal(plan MealPlan, parameter string) {
	if len(plan.Days) == 0 {
		return
	}
	day, slot, resolved := ResolveTarget(plan, parameter)
	if !resolved {
		m.logger.Info("meal target not understood, replacing first breakfast", zap.String("parameter", parameter))
	}

	target := plan.Days[day].Slot(slot)
	current := target.Title
	*target = m.catalog.SampleBySlot(slot, func(e meal.Entry) bool {
		return e.Title != current
	})
}

func (m *Modifier) changeCuisine(plan MealPlan, cuisine string) {
	if strings.TrimSpace(cuisine) == "" || !m.catalog.HasCuisine(cuisine) {
		m.logger.Info("unknown cuisine, plan unchanged", zap.String("cuisine", cuisine))
		return
	}
	for i := range plan.Days {
		for _, s := range meal.Slots {
			e, ok := m.catalog.SampleByCuisine(s, cuisine)
			if !ok {
				e = m.catalog.SampleBySlot(s, nil)
			}
			*plan.Days[i].Slot(s) = e
		}
	}
}

var dayOrdinal = regexp.MustCompile(`(?i)\bday\s*(\d+)`)

// weekdays in plan order: index 0 is the plan's first day.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ResolveTarget finds the day index and slot named by free text such as
// "Monday breakfast" or "day 2 dinner". Weekdays count from the plan start,
// Monday being day 0 and Sunday day 6, whatever the calendar date of the
// first day. When either part is missing or past the end of the plan the
// target is the first day's breakfast and resolved is false.
func ResolveTarget(plan MealPlan, text string) (day int, slot meal.SlotType, resolved bool) {
	slot, slotOK := meal.ParseSlot(text)
	day, dayOK := resolveDay(plan, text)
	if !slotOK || !dayOK {
		return 0, meal.Breakfast, false
	}
	return day, slot, true
}

func resolveDay(plan MealPlan, text string) (int, bool) {
	if m := dayOrdinal.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= len(plan.Days) {
			return n - 1, true
		}
		return 0, false
	}

	lower := strings.ToLower(text)
	for i, wd := range weekdays {
		if !strings.Contains(lower, strings.ToLower(wd.String())) {
			continue
		}
		if i < len(plan.Days) {
			return i, true
		}
		return 0, false
	}
	return 0, false
}
