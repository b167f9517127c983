package meal

import "strings"

// SlotType is one of the three meals of a day.
type SlotType string

const (
	Breakfast SlotType = "breakfast"
	Lunch     SlotType = "lunch"
	Dinner    SlotType = "dinner"
)

// Slots lists every slot in the order they appear within a day.
var Slots = []SlotType{Breakfast, Lunch, Dinner}

// ParseSlot finds the first slot keyword mentioned in text.
func ParseSlot(text string) (SlotType, bool) {
	lower := strings.ToLower(text)
	for _, s := range Slots {
		if strings.Contains(lower, string(s)) {
			return s, true
		}
	}
	return "", false
}

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Easy, Medium, Hard:
		return true
	}
	return false
}

// Nutrition is a rough per-serving estimate.
type Nutrition struct {
	Calories     int `json:"calories" yaml:"calories" validate:"gte=0"`
	ProteinGrams int `json:"proteinGrams" yaml:"protein_grams" validate:"gte=0"`
	CarbsGrams   int `json:"carbsGrams" yaml:"carbs_grams" validate:"gte=0"`
	FatGrams     int `json:"fatGrams" yaml:"fat_grams" validate:"gte=0"`
}

// Entry is one prepared dish occupying a slot.
type Entry struct {
	Title           string     `json:"title" yaml:"title" validate:"required"`
	Ingredients     []string   `json:"ingredients" yaml:"ingredients"`
	PrepTimeMinutes int        `json:"prepTimeMinutes" yaml:"prep_time_minutes" validate:"gte=0"`
	Difficulty      Difficulty `json:"difficulty" yaml:"difficulty" validate:"oneof=easy medium hard"`
	Nutrition       Nutrition  `json:"nutrition" yaml:"nutrition"`
}

// Clone returns a copy of e that shares no memory with it.
func (e Entry) Clone() Entry {
	out := e
	if e.Ingredients != nil {
		out.Ingredients = append([]string(nil), e.Ingredients...)
	}
	return out
}

// Equal compares two entries field by field.
func (e Entry) Equal(other Entry) bool {
	if e.Title != other.Title || e.PrepTimeMinutes != other.PrepTimeMinutes ||
		e.Difficulty != other.Difficulty || e.Nutrition != other.Nutrition {
		return false
	}
	if len(e.Ingredients) != len(other.Ingredients) {
		return false
	}
	for i := range e.Ingredients {
		if e.Ingredients[i] != other.Ingredients[i] {
			return false
		}
	}
	return true
}
