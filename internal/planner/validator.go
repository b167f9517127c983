package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"household-meal-planner/internal/meal"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ValidationKind classifies why completion output was rejected.
type ValidationKind string

const (
	KindMalformed      ValidationKind = "malformed"
	KindIncompleteSlot ValidationKind = "incomplete_slot"
	KindWrongDayCount  ValidationKind = "wrong_day_count"
)

// ValidationError rejects completion output that cannot become a plan.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("plan validation failed (%s): %s", e.Kind, e.Detail)
}

func invalid(kind ValidationKind, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

const (
	defaultPrepTimeMinutes = 20
	defaultDifficulty      = meal.Medium
)

var (
	schemaValidator = validator.New()
	codeFence       = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	leadingNumber   = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// flexInt accepts a JSON number or a string that starts with one ("20 minutes").
// Anything else leaves it unset so defaults apply.
type flexInt struct {
	val int
	set bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" || s == "" {
		return nil
	}
	m := leadingNumber.FindString(s)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	f.val, f.set = int(math.Round(v)), true
	return nil
}

type rawNutrition struct {
	Calories     flexInt `json:"calories"`
	ProteinGrams flexInt `json:"proteinGrams"`
	CarbsGrams   flexInt `json:"carbsGrams"`
	FatGrams     flexInt `json:"fatGrams"`
}

type rawEntry struct {
	Title           string        `json:"title"`
	Ingredients     []string      `json:"ingredients"`
	PrepTimeMinutes flexInt       `json:"prepTimeMinutes"`
	Difficulty      string        `json:"difficulty"`
	Nutrition       *rawNutrition `json:"nutrition"`
}

type rawDay struct {
	Date      string    `json:"date"`
	Breakfast *rawEntry `json:"breakfast"`
	Lunch     *rawEntry `json:"lunch"`
	Dinner    *rawEntry `json:"dinner"`
}

func (d rawDay) slot(s meal.SlotType) *rawEntry {
	switch s {
	case meal.Lunch:
		return d.Lunch
	case meal.Dinner:
		return d.Dinner
	default:
		return d.Breakfast
	}
}

// validation carries the intermediate results between steps.
type validation struct {
	raw  string
	req  GenerationRequest
	ref  Date
	doc  []byte
	raws []rawDay
	days []DayPlan
	plan MealPlan
}

type validationStep func(v *validation) *ValidationError

// Structural gaps fail hard; cosmetic gaps are filled by applyDefaults.
var validationChain = []validationStep{
	extractDocument,
	decodeDays,
	requireSlots,
	checkDayCount,
	applyDefaults,
	checkSchema,
	assemble,
}

// ValidatePlan turns raw completion output into a MealPlan dated from ref.
// Every failure is a *ValidationError.
func ValidatePlan(raw string, req GenerationRequest, ref time.Time) (MealPlan, error) {
	v := &validation{raw: raw, req: req, ref: DateOf(ref)}
	for _, step := range validationChain {
		if err := step(v); err != nil {
			return MealPlan{}, err
		}
	}
	return v.plan, nil
}

func extractDocument(v *validation) *ValidationError {
	text := strings.TrimSpace(v.raw)
	if text == "" {
		return invalid(KindMalformed, "empty completion output")
	}
	if json.Valid([]byte(text)) {
		v.doc = []byte(text)
		return nil
	}

	if m := codeFence.FindStringSubmatch(text); m != nil {
		if inner := strings.TrimSpace(m[1]); json.Valid([]byte(inner)) {
			v.doc = []byte(inner)
			return nil
		}
	}

	if span, ok := outermostSpan(text); ok {
		v.doc = []byte(span)
		return nil
	}
	return invalid(KindMalformed, "completion output is not a JSON document")
}

// outermostSpan finds the widest {...} or [...] region that parses, trying
// whichever bracket opens first.
func outermostSpan(text string) (string, bool) {
	brackets := [][2]string{{"{", "}"}, {"[", "]"}}
	if first := strings.IndexAny(text, "{["); first >= 0 && text[first] == '[' {
		brackets[0], brackets[1] = brackets[1], brackets[0]
	}
	for _, b := range brackets {
		start := strings.Index(text, b[0])
		end := strings.LastIndex(text, b[1])
		if start < 0 || end <= start {
			continue
		}
		if span := text[start : end+1]; json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

func decodeDays(v *validation) *ValidationError {
	if bytes.HasPrefix(v.doc, []byte("[")) {
		if err := json.Unmarshal(v.doc, &v.raws); err != nil {
			return invalid(KindMalformed, "days array does not match the plan shape: %v", err)
		}
		return nil
	}

	var wrapper struct {
		Days *[]rawDay `json:"days"`
	}
	if err := json.Unmarshal(v.doc, &wrapper); err != nil {
		return invalid(KindMalformed, "document does not match the plan shape: %v", err)
	}
	if wrapper.Days == nil {
		return invalid(KindMalformed, "document has no days array")
	}
	v.raws = *wrapper.Days
	return nil
}

func requireSlots(v *validation) *ValidationError {
	for i, d := range v.raws {
		for _, s := range meal.Slots {
			e := d.slot(s)
			if e == nil || strings.TrimSpace(e.Title) == "" {
				return invalid(KindIncompleteSlot, "day %d has no %s", i+1, s)
			}
		}
	}
	return nil
}

func checkDayCount(v *validation) *ValidationError {
	if want := v.req.DayCount(); len(v.raws) != want {
		return invalid(KindWrongDayCount, "expected %d days, got %d", want, len(v.raws))
	}
	return nil
}

func applyDefaults(v *validation) *ValidationError {
	v.days = make([]DayPlan, len(v.raws))
	for i, d := range v.raws {
		for _, s := range meal.Slots {
			*v.days[i].Slot(s) = defaultedEntry(d.slot(s))
		}
	}
	return nil
}

func defaultedEntry(r *rawEntry) meal.Entry {
	e := meal.Entry{
		Title:           strings.TrimSpace(r.Title),
		Ingredients:     []string{},
		PrepTimeMinutes: defaultPrepTimeMinutes,
		Difficulty:      defaultDifficulty,
	}
	for _, ing := range r.Ingredients {
		if ing = strings.TrimSpace(ing); ing != "" {
			e.Ingredients = append(e.Ingredients, ing)
		}
	}
	if r.PrepTimeMinutes.set {
		e.PrepTimeMinutes = nonNegative(r.PrepTimeMinutes.val)
	}
	if d := meal.Difficulty(strings.ToLower(strings.TrimSpace(r.Difficulty))); d.Valid() {
		e.Difficulty = d
	}
	if n := r.Nutrition; n != nil {
		e.Nutrition = meal.Nutrition{
			Calories:     nonNegative(n.Calories.val),
			ProteinGrams: nonNegative(n.ProteinGrams.val),
			CarbsGrams:   nonNegative(n.CarbsGrams.val),
			FatGrams:     nonNegative(n.FatGrams.val),
		}
	}
	return e
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func checkSchema(v *validation) *ValidationError {
	for i, d := range v.days {
		for _, s := range meal.Slots {
			if err := schemaValidator.Struct(*d.Slot(s)); err != nil {
				return invalid(KindMalformed, "day %d %s: %v", i+1, s, err)
			}
		}
	}
	return nil
}

// assemble dates the days from the reference date; dates from the
// completion output are ignored.
func assemble(v *validation) *ValidationError {
	for i := range v.days {
		v.days[i].Date = v.ref.AddDays(i)
	}
	v.plan = MealPlan{
		ID:   uuid.NewString(),
		Name: "Meal Plan " + v.ref.String(),
		Days: v.days,
	}
	return nil
}
