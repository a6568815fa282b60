package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/NescAdmin/nesc-planering/internal/application"
)

type allocationService interface {
	PutPercentAllocation(ctx context.Context, input application.PercentAllocationInput, allowOver bool) (application.MutationOutcome, error)
	PutMinuteAllocation(ctx context.Context, input application.MinuteAllocationInput, allowOver bool) (application.MutationOutcome, error)
	DeletePercentAllocation(ctx context.Context, id string) error
	DeleteMinuteAllocation(ctx context.Context, id string) error
}

type AllocationHandler struct {
	service   allocationService
	responder responder
}

func NewAllocationHandler(service allocationService, logger *slog.Logger) *AllocationHandler {
	return &AllocationHandler{service: service, responder: newResponder(logger)}
}

// PutPercent handles POST /allocations/percent?allow_over=true.
func (h *AllocationHandler) PutPercent(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req percentAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	outcome, err := h.service.PutPercentAllocation(r.Context(), application.PercentAllocationInput{
		ID:        strings.TrimSpace(req.ID),
		ProjectID: req.ProjectID,
		PersonID:  strings.TrimSpace(req.PersonID),
		StartDate: startDate,
		EndDate:   endDate,
		Percent:   req.Percent,
		Title:     strings.TrimSpace(req.Title),
	}, allowOverFlag(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderOutcome(r, w, outcome)
}

// PutMinutes handles POST /allocations/minutes?allow_over=true.
func (h *AllocationHandler) PutMinutes(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req minuteAllocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	outcome, err := h.service.PutMinuteAllocation(r.Context(), application.MinuteAllocationInput{
		ID:         strings.TrimSpace(req.ID),
		ProjectID:  strings.TrimSpace(req.ProjectID),
		WorkItemID: strings.TrimSpace(req.WorkItemID),
		PersonID:   strings.TrimSpace(req.PersonID),
		StartDate:  startDate,
		EndDate:    endDate,
		Minutes:    req.Minutes,
	}, allowOverFlag(r))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.renderOutcome(r, w, outcome)
}

// DeletePercent handles DELETE /allocations/percent/{id}.
func (h *AllocationHandler) DeletePercent(w http.ResponseWriter, r *http.Request) {
	h.deleteAllocation(w, r, h.service.DeletePercentAllocation)
}

// DeleteMinutes handles DELETE /allocations/minutes/{id}.
func (h *AllocationHandler) DeleteMinutes(w http.ResponseWriter, r *http.Request) {
	h.deleteAllocation(w, r, h.service.DeleteMinuteAllocation)
}

func (h *AllocationHandler) deleteAllocation(w http.ResponseWriter, r *http.Request, delete func(context.Context, string) error) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	if err := delete(r.Context(), id); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// renderOutcome maps a rolled-back (over scope) write to 409 Conflict with
// the recomputed totals so the client can offer the override.
func (h *AllocationHandler) renderOutcome(r *http.Request, w http.ResponseWriter, outcome application.MutationOutcome) {
	payload := mutationOutcomeResponse{
		Status:       string(outcome.Status),
		AllocationID: outcome.AllocationID,
		Warning:      outcome.Warning,
	}
	if outcome.Totals != nil {
		payload.Totals = toScopeSummaryDTO(*outcome.Totals)
	}

	status := http.StatusCreated
	if !outcome.Committed() {
		status = http.StatusConflict
	}
	h.responder.writeJSON(r.Context(), w, status, payload)
}

func allowOverFlag(r *http.Request) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("allow_over"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}

type percentAllocationRequest struct {
	ID        string  `json:"id"`
	ProjectID *string `json:"project_id"`
	PersonID  string  `json:"person_id"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Percent   int     `json:"percent"`
	Title     string  `json:"title"`
}

type minuteAllocationRequest struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	WorkItemID string `json:"work_item_id"`
	PersonID   string `json:"person_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Minutes    int    `json:"minutes"`
}

type mutationOutcomeResponse struct {
	Status       string           `json:"status"`
	AllocationID string           `json:"allocation_id,omitempty"`
	Totals       *scopeSummaryDTO `json:"totals,omitempty"`
	Warning      string           `json:"warning,omitempty"`
}

type scopeSummaryDTO struct {
	ProjectID          string `json:"project_id"`
	ScopeMinutes       int    `json:"scope_minutes"`
	PlannedMinutes     int    `json:"planned_minutes"`
	PlannedFromPercent int    `json:"planned_from_percent"`
	PlannedFromMinutes int    `json:"planned_from_minutes"`
	OverMinutes        int    `json:"over_minutes"`
}

func toScopeSummaryDTO(summary application.ScopeSummary) *scopeSummaryDTO {
	return &scopeSummaryDTO{
		ProjectID:          summary.ProjectID,
		ScopeMinutes:       summary.Scope,
		PlannedMinutes:     summary.Planned,
		PlannedFromPercent: summary.PlannedFromPercent,
		PlannedFromMinutes: summary.PlannedFromMinutes,
		OverMinutes:        summary.Over,
	}
}
