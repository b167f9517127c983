package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"household-meal-planner/internal/metrics"
	"household-meal-planner/internal/planner"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxBodyBytes = 64 << 10

type generateBody struct {
	Days          int      `json:"days" validate:"gte=0"`
	BudgetUSD     *float64 `json:"budgetUsd,omitempty"`
	Preferences   []string `json:"preferences" validate:"max=20,dive,max=100"`
	Restrictions  []string `json:"restrictions" validate:"max=20,dive,max=100"`
	PantryItems   []string `json:"pantryItems" validate:"max=100,dive,max=100"`
	ExpiringItems []string `json:"expiringItems" validate:"max=100,dive,max=100"`
}

type modifyBody struct {
	Rule      string `json:"rule" validate:"required"`
	Parameter string `json:"parameter" validate:"max=200"`
}

type planResponse struct {
	Plan           planner.MealPlan `json:"plan"`
	Source         string           `json:"source,omitempty"`
	FallbackReason string           `json:"fallbackReason,omitempty"`
	ParentID       string           `json:"parentId,omitempty"`
	CreatedAt      *time.Time       `json:"createdAt,omitempty"`
	Diff           string           `json:"diff,omitempty"`
}

type shoppingListResponse struct {
	PlanID string   `json:"planId"`
	Items  []string `json:"items"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var body generateBody
	if !h.decode(w, r, &body) {
		return
	}

	res, err := h.service.GeneratePlan(r.Context(), IdentityFrom(r.Context()), planner.GenerationRequest{
		Days:          body.Days,
		BudgetUSD:     body.BudgetUSD,
		Preferences:   body.Preferences,
		Restrictions:  body.Restrictions,
		PantryItems:   body.PantryItems,
		ExpiringItems: body.ExpiringItems,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, planResponse{
		Plan:           res.Plan,
		Source:         string(res.Source),
		FallbackReason: res.FallbackReason,
	})
}

func (h *Handler) handleModify(w http.ResponseWriter, r *http.Request) {
	var body modifyBody
	if !h.decode(w, r, &body) {
		return
	}

	mod, err := h.service.ModifyPlan(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "id"), planner.Rule(body.Rule), body.Parameter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, planResponse{Plan: mod.Plan, ParentID: mod.ParentID, Diff: mod.Diff})
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.LatestPlan(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storedResponse(stored))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.GetPlan(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, storedResponse(stored))
}

func (h *Handler) handleShoppingList(w http.ResponseWriter, r *http.Request) {
	stored, err := h.service.GetPlan(r.Context(), IdentityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shoppingListResponse{
		PlanID: stored.Plan.ID,
		Items:  planner.ShoppingList(stored.Plan),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"system": metrics.GetSysHealth(h.dataDir),
	})
}

func storedResponse(sp planner.StoredPlan) planResponse {
	created := sp.CreatedAt
	return planResponse{Plan: sp.Plan, ParentID: sp.ParentID, CreatedAt: &created}
}

// decode reads a JSON body into v and validates it, answering 400 itself
// when either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if exceeded, ok := isRateLimited(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(exceeded.RetryAfterSeconds()))
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	switch {
	case errors.Is(err, planner.ErrPlanNotFound):
		writeError(w, http.StatusNotFound, "meal plan not found")
	case errors.Is(err, planner.ErrUnrecognizedRule):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
