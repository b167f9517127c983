package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"household-meal-planner/internal/app"
	"household-meal-planner/internal/auth"
	"household-meal-planner/internal/config"
	"household-meal-planner/internal/logger"
	"household-meal-planner/internal/meal"
	"household-meal-planner/internal/planner"
)

const cliOwner = "cli"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr, Name: "cli"})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	ctx := context.Background()

	// Token issuing needs no database.
	if os.Args[1] == "token" {
		issueToken(cfg, os.Args[2:])
		return
	}

	components, err := app.Bootstrap(ctx, cfg, zlog)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	switch os.Args[1] {
	case "generate":
		generate(ctx, components, os.Args[2:])
	case "modify":
		modify(ctx, components, os.Args[2:])
	case "show":
		show(ctx, components, os.Args[2:])
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := components.Metrics.Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func generate(ctx context.Context, c *app.Components, args []string) {
	cmd := flag.NewFlagSet("generate", flag.ExitOnError)
	days := cmd.Int("days", 7, "Number of days to plan")
	budget := cmd.Float64("budget", 0, "Total grocery budget in USD (0 for none)")
	restrictions := cmd.String("restrictions", "", "Comma separated dietary restrictions")
	preferences := cmd.String("preferences", "", "Comma separated preferences")
	pantry := cmd.String("pantry", "", "Comma separated pantry items")
	expiring := cmd.String("expiring", "", "Comma separated items that expire soon")
	cmd.Parse(args)

	req := planner.GenerationRequest{
		Days:          *days,
		Restrictions:  splitList(*restrictions),
		Preferences:   splitList(*preferences),
		PantryItems:   splitList(*pantry),
		ExpiringItems: splitList(*expiring),
	}
	if *budget > 0 {
		req.BudgetUSD = budget
	}

	res, err := c.Service.GeneratePlan(ctx, cliOwner, req)
	if err != nil {
		log.Fatalf("Failed to generate plan: %v", err)
	}
	if res.Source == planner.SourceFallback {
		fmt.Printf("(completion unavailable: %s, using the built-in catalog)\n", res.FallbackReason)
	}
	printPlan(res.Plan)
}

func modify(ctx context.Context, c *app.Components, args []string) {
	cmd := flag.NewFlagSet("modify", flag.ExitOnError)
	planID := cmd.String("plan", "latest", "Plan id to modify, or \"latest\"")
	rule := cmd.String("rule", "", "Modification rule")
	param := cmd.String("param", "", "Rule parameter")
	cmd.Parse(args)

	id, err := resolvePlanID(ctx, c, *planID)
	if err != nil {
		log.Fatalf("Failed to find plan: %v", err)
	}

	mod, err := c.Service.ModifyPlan(ctx, cliOwner, id, planner.Rule(*rule), *param)
	if err != nil {
		log.Fatalf("Failed to modify plan: %v", err)
	}
	printPlan(mod.Plan)
	if mod.Diff != "" {
		fmt.Println("\n=== CHANGES ===")
		fmt.Print(mod.Diff)
	}
}

func show(ctx context.Context, c *app.Components, args []string) {
	cmd := flag.NewFlagSet("show", flag.ExitOnError)
	planID := cmd.String("plan", "latest", "Plan id to show, or \"latest\"")
	cmd.Parse(args)

	id, err := resolvePlanID(ctx, c, *planID)
	if err != nil {
		log.Fatalf("Failed to find plan: %v", err)
	}
	stored, err := c.Service.GetPlan(ctx, cliOwner, id)
	if err != nil {
		log.Fatalf("Failed to load plan: %v", err)
	}
	printPlan(stored.Plan)
}

func issueToken(cfg *config.Config, args []string) {
	cmd := flag.NewFlagSet("token", flag.ExitOnError)
	user := cmd.String("user", "", "User id to issue the session token for")
	ttl := cmd.Duration("ttl", 24*time.Hour, "Token lifetime")
	cmd.Parse(args)

	if *user == "" {
		log.Fatal("-user is required")
	}
	verifier, err := auth.NewVerifier(cfg.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to create verifier: %v", err)
	}
	token, err := verifier.Issue(*user, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}

func resolvePlanID(ctx context.Context, c *app.Components, id string) (string, error) {
	if id != "latest" {
		return id, nil
	}
	latest, err := c.Service.LatestPlan(ctx, cliOwner)
	if err != nil {
		return "", err
	}
	return latest.Plan.ID, nil
}

func printPlan(plan planner.MealPlan) {
	fmt.Printf("\n=== %s (%s) ===\n", strings.ToUpper(plan.Name), plan.ID)
	for _, d := range plan.Days {
		fmt.Printf("\n%s %s\n", d.Date, d.Date.Weekday())
		for _, s := range meal.Slots {
			e := d.Slot(s)
			fmt.Printf("  %-10s %s (%d min, %s)\n", s+":", e.Title, e.PrepTimeMinutes, e.Difficulty)
		}
	}

	fmt.Println("\n=== SHOPPING LIST ===")
	for _, item := range planner.ShoppingList(plan) {
		fmt.Printf("- %s\n", item)
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func printUsage() {
	fmt.Println("Usage: meal-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate           Generate a new meal plan")
	fmt.Println("  modify             Apply a modification rule to a stored plan")
	fmt.Println("  show               Print a stored plan")
	fmt.Println("  token              Issue a session token for the HTTP API")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
