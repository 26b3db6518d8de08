// Package mealplans serves a family's stored meal plan.
package mealplans

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/mealplanner/internal/app/system/apperr"
	"github.com/dalemusser/mealplanner/internal/app/system/normalize"
	"github.com/dalemusser/mealplanner/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// PlanReader reads the plan served to members.
type PlanReader interface {
	LoadPrimary(ctx context.Context, familyID string) ([]byte, error)
}

type Handler struct {
	Plans PlanReader
	Log   *zap.Logger
}

func NewHandler(plans PlanReader, logger *zap.Logger) *Handler {
	return &Handler{Plans: plans, Log: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /get-meal-plan?family_id=…                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// ServePlan returns plan 1 of the family. Stored text that is valid JSON is
// sent as is; anything else is sent as a JSON string so the response is
// always JSON.
func (h *Handler) ServePlan(w http.ResponseWriter, r *http.Request) {
	familyID := normalize.QueryParam(r.URL.Query().Get("family_id"))
	if familyID == "" {
		apperr.WriteError(w, r, h.Log, apperr.Validation("mealplans.get", "family_id is required."))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	doc, err := h.Plans.LoadPrimary(ctx, familyID)
	if err != nil {
		apperr.WriteError(w, r, h.Log, err)
		return
	}

	doc = bytes.TrimSpace(doc)
	if !json.Valid(doc) {
		h.Log.Warn("stored meal plan is not valid JSON; returning as text", zap.String("family_id", familyID))
		apperr.WriteJSON(w, http.StatusOK, string(doc))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
