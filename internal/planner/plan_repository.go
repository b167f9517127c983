package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPlanNotFound is returned when no stored plan matches a lookup.
var ErrPlanNotFound = errors.New("meal plan not found")

// StoredPlan is a plan together with its storage metadata.
type StoredPlan struct {
	Plan      MealPlan
	Owner     string
	ParentID  string
	CreatedAt time.Time
}

// PlanStore keeps plans per owner identity.
type PlanStore interface {
	Save(ctx context.Context, owner string, plan MealPlan, parentID string) error
	Get(ctx context.Context, id string) (StoredPlan, error)
	Latest(ctx context.Context, owner string) (StoredPlan, error)
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db, now: time.Now}
}

// Save inserts a plan. parentID names the plan it was derived from, if any.
func (r *PlanRepository) Save(ctx context.Context, owner string, plan MealPlan, parentID string) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to encode meal plan %s: %w", plan.ID, err)
	}

	var parent sql.NullString
	if parentID != "" {
		parent = sql.NullString{String: parentID, Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (id, owner, name, parent_id, data, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		plan.ID, owner, plan.Name, parent, string(data), r.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to save meal plan %s: %w", plan.ID, err)
	}
	return nil
}

// Get loads a plan by id.
func (r *PlanRepository) Get(ctx context.Context, id string) (StoredPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT owner, parent_id, data, created_at FROM meal_plans WHERE id = ?`, id)
	sp, err := scanPlan(row)
	if err != nil {
		return StoredPlan{}, fmt.Errorf("failed to get meal plan %s: %w", id, err)
	}
	return sp, nil
}

// Latest loads the most recently saved plan of owner.
func (r *PlanRepository) Latest(ctx context.Context, owner string) (StoredPlan, error) {
	plans, err := r.ListRecentByOwner(ctx, owner, 1)
	if err != nil {
		return StoredPlan{}, err
	}
	if len(plans) == 0 {
		return StoredPlan{}, fmt.Errorf("no meal plan for %s: %w", owner, ErrPlanNotFound)
	}
	return plans[0], nil
}

// ListRecentByOwner retrieves the N most recent meal plans for a given owner.
func (r *PlanRepository) ListRecentByOwner(ctx context.Context, owner string, limit int) ([]StoredPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT owner, parent_id, data, created_at FROM meal_plans
		 WHERE owner = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent meal plans for %s: %w", owner, err)
	}
	defer rows.Close()

	var plans []StoredPlan
	for rows.Next() {
		sp, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list recent meal plans for %s: %w", owner, err)
		}
		plans = append(plans, sp)
	}
	return plans, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(s scanner) (StoredPlan, error) {
	var (
		sp        StoredPlan
		parent    sql.NullString
		data      string
		createdAt int64
	)
	if err := s.Scan(&sp.Owner, &parent, &data, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StoredPlan{}, ErrPlanNotFound
		}
		return StoredPlan{}, err
	}
	if err := json.Unmarshal([]byte(data), &sp.Plan); err != nil {
		return StoredPlan{}, fmt.Errorf("failed to decode stored plan: %w", err)
	}
	sp.ParentID = parent.String
	sp.CreatedAt = time.UnixMilli(createdAt)
	return sp, nil
}
