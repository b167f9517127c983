package planner

import (
	_ "embed"
	"fmt"
	"strings"

	"household-meal-planner/internal/llm"
)

//go:embed plan_schema.txt
var planSchema string

const systemInstruction = "Return only the exact JSON structure requested, no explanatory text."

const (
	promptTemperature = 0.4
	baseOutputTokens  = 600
	tokensPerDay      = 450
	maxOutputTokenCap = 8192
)

// CompilePrompt turns a generation request into the instruction sent to the
// completion service. Clauses for empty inputs are left out.
func CompilePrompt(req GenerationRequest) llm.Prompt {
	days := req.DayCount()

	var b strings.Builder
	if days == 1 {
		b.WriteString("Create a meal plan for 1 day.")
	} else {
		fmt.Fprintf(&b, "Create a meal plan for %d consecutive days.", days)
	}
	b.WriteString(" Each day needs a breakfast, a lunch and a dinner.\n")

	if restrictions := cleanList(req.Restrictions); len(restrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s. Every meal must respect all of them.\n", strings.Join(restrictions, ", "))
	}
	if prefs := cleanList(req.Preferences); len(prefs) > 0 {
		fmt.Fprintf(&b, "Preferences: %s.\n", strings.Join(prefs, ", "))
	}
	if budget, ok := req.Budget(); ok {
		fmt.Fprintf(&b, "Keep total grocery cost for the whole plan within $%.2f.\n", budget)
	}
	if pantry := cleanList(req.PantryItems); len(pantry) > 0 {
		fmt.Fprintf(&b, "Prefer recipes that use these pantry items: %s.\n", strings.Join(pantry, ", "))
	}
	if expiring := cleanList(req.ExpiringItems); len(expiring) > 0 {
		fmt.Fprintf(&b, "Use these items first, they expire soon: %s.\n", strings.Join(expiring, ", "))
	}

	maxTokens := baseOutputTokens + days*tokensPerDay
	if maxTokens > maxOutputTokenCap {
		maxTokens = maxOutputTokenCap
	}

	return llm.Prompt{
		System:      systemInstruction,
		Text:        strings.TrimRight(b.String(), "\n"),
		SchemaHint:  strings.TrimSpace(planSchema),
		Temperature: promptTemperature,
		MaxTokens:   maxTokens,
	}
}
