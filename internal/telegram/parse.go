package telegram

import (
	"regexp"
	"strconv"
	"strings"

	"household-meal-planner/internal/planner"
)

var (
	daysPattern   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*-?\s*days?\b`)
	weekPattern   = regexp.MustCompile(`(?i)\b(?:a|one|1|next)?\s*week\b`)
	budgetPattern = regexp.MustCompile(`\$\s*(\d+(?:\.\d{1,2})?)`)
	listPattern   = regexp.MustCompile(`(?i)\b(pantry|expiring)\s*:\s*([^;\n]*)`)
)

var restrictionPhrases = []struct {
	pattern     *regexp.Regexp
	restriction string
}{
	{regexp.MustCompile(`(?i)\bvegan\b`), planner.RestrictionVegan},
	{regexp.MustCompile(`(?i)\bvegetarian\b`), planner.RestrictionVegetarian},
	{regexp.MustCompile(`(?i)\bgluten[\s_-]?free\b`), planner.RestrictionGlutenFree},
}

// ParseRequest reads a free-text chat request such as
// "5 days vegetarian italian $60 pantry: rice, beans; expiring: spinach"
// into a GenerationRequest. cuisines lists the words accepted as
// preferences. Anything not understood is ignored.
func ParseRequest(text string, cuisines []string) planner.GenerationRequest {
	var req planner.GenerationRequest

	for _, m := range listPattern.FindAllStringSubmatch(text, -1) {
		items := splitItems(m[2])
		if strings.EqualFold(m[1], "pantry") {
			req.PantryItems = append(req.PantryItems, items...)
		} else {
			req.ExpiringItems = append(req.ExpiringItems, items...)
		}
	}
	rest := listPattern.ReplaceAllString(text, " ")

	switch {
	case daysPattern.MatchString(rest):
		n, _ := strconv.Atoi(daysPattern.FindStringSubmatch(rest)[1])
		req.Days = n
	case weekPattern.MatchString(rest):
		req.Days = 7
	}

	if m := budgetPattern.FindStringSubmatch(rest); m != nil {
		if budget, err := strconv.ParseFloat(m[1], 64); err == nil && budget > 0 {
			req.BudgetUSD = &budget
		}
	}

	for _, rp := range restrictionPhrases {
		if rp.pattern.MatchString(rest) {
			req.Restrictions = append(req.Restrictions, rp.restriction)
		}
	}

	lower := strings.ToLower(rest)
	for _, c := range cuisines {
		if regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(c)) + `\b`).MatchString(lower) {
			req.Preferences = append(req.Preferences, c)
		}
	}

	return req
}

func splitItems(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// parseModify splits "/modify" arguments into a rule and its parameter.
func parseModify(args string) (rule, parameter string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), fields[0]))
}
