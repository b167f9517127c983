package telegram

import (
	"fmt"
	"strings"

	"household-meal-planner/internal/meal"
	"household-meal-planner/internal/planner"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// md escapes text that may come from the completion service so it cannot
// break the surrounding Markdown.
func md(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

func formatPlanMarkdown(plan planner.MealPlan, note string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 *%s*\n", md(plan.Name)))
	if note != "" {
		b.WriteString(fmt.Sprintf("_%s_\n", md(note)))
	}
	b.WriteString("\n")

	totalPrep := 0
	for _, d := range plan.Days {
		b.WriteString(fmt.Sprintf("*%s, %s*\n", d.Date.Weekday(), d.Date))
		for _, s := range meal.Slots {
			e := d.Slot(s)
			totalPrep += e.PrepTimeMinutes
			b.WriteString(fmt.Sprintf("• %s: %s (%d min)\n", slotLabel(s), md(e.Title), e.PrepTimeMinutes))
		}
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("⏱ *Total Prep:* %d mins", totalPrep))
	return b.String()
}

func formatShoppingList(items []string) string {
	var b strings.Builder
	b.WriteString("🛒 *Shopping List*\n\n")
	if len(items) == 0 {
		b.WriteString("_Nothing to buy_\n")
	}
	for _, item := range items {
		b.WriteString(fmt.Sprintf("• %s\n", md(item)))
	}
	return b.String()
}

func slotLabel(s meal.SlotType) string {
	switch s {
	case meal.Lunch:
		return "Lunch"
	case meal.Dinner:
		return "Dinner"
	default:
		return "Breakfast"
	}
}

// fallbackNote tells the user the plan came from the built-in catalog.
func fallbackNote(reason string) string {
	if reason == "" {
		return ""
	}
	return "Built from the house recipe collection"
}

func helpText(rules []planner.Rule, cuisines []string) string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = string(r)
	}
	return "🧑‍🍳 *Meal Planner*\n\n" +
		"/plan `5 days vegetarian $60 pantry: rice, beans; expiring: spinach`\n" +
		"/modify `<rule> <parameter>` on your latest plan\n" +
		"/shopping shopping list of your latest plan\n" +
		"/metrics usage report\n\n" +
		fmt.Sprintf("*Rules:* %s\n*Cuisines:* %s", strings.Join(names, ", "), strings.Join(cuisines, ", "))
}
