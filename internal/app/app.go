package app

import (
	"context"
	"errors"

	"household-meal-planner/internal/metrics"
	"household-meal-planner/internal/planner"
	"household-meal-planner/internal/ratelimit"
	"household-meal-planner/internal/shared"

	"go.uber.org/zap"
)

// Generator produces meal plans. *planner.Planner satisfies it.
type Generator interface {
	GeneratePlan(ctx context.Context, req planner.GenerationRequest) planner.Result
}

// PlanModifier applies modification rules. *planner.Modifier satisfies it.
type PlanModifier interface {
	Modify(req planner.ModificationRequest) (planner.MealPlan, error)
}

// UsageRecorder persists completion usage. *metrics.Store satisfies it.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Service wires the planning engine to its collaborators: the rate limiter
// in front, plan storage and usage metrics behind.
type Service struct {
	limiter    ratelimit.Limiter
	generator  Generator
	modifier   PlanModifier
	plans      planner.PlanStore
	usage      UsageRecorder
	collectors *metrics.Collectors
	logger     *zap.Logger
}

// NewService creates a Service. limiter, usage and collectors may be nil.
func NewService(
	limiter ratelimit.Limiter,
	generator Generator,
	modifier PlanModifier,
	plans planner.PlanStore,
	usage UsageRecorder,
	collectors *metrics.Collectors,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		limiter:    limiter,
		generator:  generator,
		modifier:   modifier,
		plans:      plans,
		usage:      usage,
		collectors: collectors,
		logger:     logger.Named("app"),
	}
}

// Modification is the outcome of ModifyPlan.
type Modification struct {
	Plan     planner.MealPlan
	ParentID string
	Diff     string
}

// GeneratePlan creates and stores a plan for identity. The only error is a
// rate limit rejection; everything past the limiter degrades silently.
// A limiter that cannot be reached lets the request through.
func (s *Service) GeneratePlan(ctx context.Context, identity string, req planner.GenerationRequest) (planner.Result, error) {
	if err := s.allow(ctx, identity); err != nil {
		return planner.Result{}, err
	}

	res := s.generator.GeneratePlan(ctx, req)

	s.save(ctx, identity, res.Plan, "")
	s.recordUsage(ctx, res.Meta)
	if s.collectors != nil {
		s.collectors.ObserveGeneration(string(res.Source), res.FallbackReason, res.Meta.Latency)
	}
	return res, nil
}

// ModifyPlan applies rule to the stored plan planID and stores the result
// as a derived plan.
func (s *Service) ModifyPlan(ctx context.Context, identity, planID string, rule planner.Rule, parameter string) (Modification, error) {
	if err := s.allow(ctx, identity); err != nil {
		return Modification{}, err
	}

	stored, err := s.GetPlan(ctx, identity, planID)
	if err != nil {
		return Modification{}, err
	}

	modified, err := s.modifier.Modify(planner.ModificationRequest{
		Plan:      stored.Plan,
		Rule:      rule,
		Parameter: parameter,
	})
	if err != nil {
		return Modification{}, err
	}

	s.save(ctx, identity, modified, stored.Plan.ID)
	if s.collectors != nil {
		if parsed, ok := planner.ParseRule(string(rule)); ok {
			s.collectors.ObserveModification(string(parsed))
		}
	}

	diff, err := planner.DiffPlans(stored.Plan, modified)
	if err != nil {
		s.logger.Warn("failed to diff plans", zap.String("plan_id", modified.ID), zap.Error(err))
	}

	return Modification{Plan: modified, ParentID: stored.Plan.ID, Diff: diff}, nil
}

// GetPlan returns the stored plan id when it belongs to identity.
// Plans of other owners are reported as planner.ErrPlanNotFound.
func (s *Service) GetPlan(ctx context.Context, identity, id string) (planner.StoredPlan, error) {
	if s.plans == nil {
		return planner.StoredPlan{}, planner.ErrPlanNotFound
	}
	stored, err := s.plans.Get(ctx, id)
	if err != nil {
		return planner.StoredPlan{}, err
	}
	if stored.Owner != identity {
		return planner.StoredPlan{}, planner.ErrPlanNotFound
	}
	return stored, nil
}

// LatestPlan returns the most recently stored plan of identity.
func (s *Service) LatestPlan(ctx context.Context, identity string) (planner.StoredPlan, error) {
	if s.plans == nil {
		return planner.StoredPlan{}, planner.ErrPlanNotFound
	}
	return s.plans.Latest(ctx, identity)
}

func (s *Service) allow(ctx context.Context, identity string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.CheckAndIncrement(ctx, identity)
	if err == nil {
		return nil
	}

	var exceeded *ratelimit.ExceededError
	if errors.As(err, &exceeded) {
		if s.collectors != nil {
			kind := "user"
			if ratelimit.IsAnonymous(identity) {
				kind = "anonymous"
			}
			s.collectors.ObserveRateLimited(kind)
		}
		s.logger.Info("rate limit exceeded",
			zap.String("identity", identity),
			zap.Int("retry_after_s", exceeded.RetryAfterSeconds()),
		)
		return err
	}
	s.logger.Warn("rate limiter unavailable, allowing request", zap.String("identity", identity), zap.Error(err))
	return nil
}

func (s *Service) save(ctx context.Context, owner string, plan planner.MealPlan, parentID string) {
	if s.plans == nil {
		return
	}
	if err := s.plans.Save(ctx, owner, plan, parentID); err != nil {
		s.logger.Warn("failed to save meal plan", zap.String("plan_id", plan.ID), zap.String("owner", owner), zap.Error(err))
	}
}

func (s *Service) recordUsage(ctx context.Context, meta shared.AgentMeta) {
	if s.collectors != nil && (meta.Usage.PromptTokens > 0 || meta.Usage.CompletionTokens > 0) {
		s.collectors.ObserveTokens(meta.Usage.Model, meta.Usage.PromptTokens, meta.Usage.CompletionTokens)
	}
	if s.usage == nil {
		return
	}
	if err := s.usage.RecordMeta(ctx, meta); err != nil {
		s.logger.Warn("failed to record metrics", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
