package planner

import (
	"context"
	"errors"
	"time"

	"household-meal-planner/internal/llm"
	"household-meal-planner/internal/meal"
	"household-meal-planner/internal/shared"

	"go.uber.org/zap"
)

// Source tells where a generated plan came from.
type Source string

const (
	SourceCompletion Source = "completion"
	SourceFallback   Source = "fallback"
)

// Fallback reasons besides the ValidationKind values.
const (
	ReasonUnavailable  = "unavailable"
	ReasonServiceError = "service_error"
)

// Result is the outcome of GeneratePlan.
type Result struct {
	Plan           MealPlan
	Source         Source
	FallbackReason string
	Meta           shared.AgentMeta
}

// Planner handles the generation of meal plans.
type Planner struct {
	completer llm.Completer
	catalog   *meal.Catalog
	logger    *zap.Logger
	now       func() time.Time
}

// NewPlanner creates a new Planner instance. A nil completer sends every
// request to the local fallback generator.
func NewPlanner(completer llm.Completer, catalog *meal.Catalog, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		completer: completer,
		catalog:   catalog,
		logger:    logger.Named("planner"),
		now:       time.Now,
	}
}

// GeneratePlan creates a meal plan for req. It always returns a usable plan:
// completion service failures and unusable output switch to the catalog.
func (p *Planner) GeneratePlan(ctx context.Context, req GenerationRequest) Result {
	ref := p.now()
	meta := shared.AgentMeta{AgentName: "Planner"}

	if p.completer == nil {
		return p.fallback(req, ref, ReasonUnavailable, meta, nil)
	}

	start := time.Now()
	resp, err := p.completer.Complete(ctx, CompilePrompt(req))
	meta.Latency = time.Since(start)
	meta.Usage = resp.Usage
	if err != nil {
		return p.fallback(req, ref, ReasonServiceError, meta, err)
	}

	plan, err := ValidatePlan(resp.Content, req, ref)
	if err != nil {
		reason := ReasonServiceError
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			reason = string(vErr.Kind)
		}
		return p.fallback(req, ref, reason, meta, err)
	}

	p.logger.Info("plan generated",
		zap.String("plan_id", plan.ID),
		zap.Int("days", len(plan.Days)),
		zap.Int("total_tokens", meta.Usage.TotalTokens),
		zap.Duration("latency", meta.Latency),
	)
	return Result{Plan: plan, Source: SourceCompletion, Meta: meta}
}

func (p *Planner) fallback(req GenerationRequest, ref time.Time, reason string, meta shared.AgentMeta, cause error) Result {
	plan := GenerateFallback(p.catalog, req, ref)
	fields := []zap.Field{
		zap.String("kind", reason),
		zap.String("plan_id", plan.ID),
		zap.Int("days", len(plan.Days)),
	}
	if cause != nil {
		fields = append(fields, zap.Error(cause))
	}
	p.logger.Warn("using fallback plan", fields...)
	return Result{Plan: plan, Source: SourceFallback, FallbackReason: reason, Meta: meta}
}
