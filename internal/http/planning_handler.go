package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/application"
	"github.com/NescAdmin/nesc-planering/internal/interval"
	"github.com/NescAdmin/nesc-planering/internal/metrics"
)

type planningService interface {
	ScheduleWorkItem(ctx context.Context, params application.ScheduleWorkItemParams) (application.ScheduleResult, error)
	FreeIntervalsForDay(ctx context.Context, personID string, dayInstant time.Time) ([]interval.Span, error)
	CapacityMinutes(ctx context.Context, personID string, startDate, endDate time.Time) (int, error)
}

type PlanningHandler struct {
	service   planningService
	metrics   *metrics.Metrics
	responder responder
}

func NewPlanningHandler(service planningService, m *metrics.Metrics, logger *slog.Logger) *PlanningHandler {
	return &PlanningHandler{service: service, metrics: m, responder: newResponder(logger)}
}

// Schedule handles POST /schedule-runs.
func (h *PlanningHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req scheduleRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	from, err := parseTimestamp(req.From)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
		return
	}

	result, err := h.service.ScheduleWorkItem(r.Context(), application.ScheduleWorkItemParams{
		WorkItemID:   strings.TrimSpace(req.WorkItemID),
		PersonID:     strings.TrimSpace(req.PersonID),
		From:         from,
		HorizonWeeks: req.HorizonWeeks,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.metrics.ObserveSchedulerRun(len(result.CreatedBlockIDs), result.RemainingMinutes)

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, scheduleRunResponse{
		CreatedBlockIDs:  result.CreatedBlockIDs,
		RemainingMinutes: result.RemainingMinutes,
	})
}

// FreeIntervals handles GET /persons/{id}/free-intervals?date=YYYY-MM-DD.
func (h *PlanningHandler) FreeIntervals(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	day, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	free, err := h.service.FreeIntervalsForDay(r.Context(), personID, day)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, freeIntervalsResponse{
		PersonID:  personID,
		Date:      day.Format("2006-01-02"),
		Intervals: toSpanDTOs(free),
	})
}

// Capacity handles GET /persons/{id}/capacity?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *PlanningHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	personID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(personID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	minutes, err := h.service.CapacityMinutes(r.Context(), personID, start, end)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, capacityResponse{
		PersonID:        personID,
		Start:           start.Format("2006-01-02"),
		End:             end.Format("2006-01-02"),
		CapacityMinutes: minutes,
	})
}

type scheduleRunRequest struct {
	WorkItemID   string `json:"work_item_id"`
	PersonID     string `json:"person_id"`
	From         string `json:"from"`
	HorizonWeeks int    `json:"horizon_weeks"`
}

type scheduleRunResponse struct {
	CreatedBlockIDs  []string `json:"created_block_ids"`
	RemainingMinutes int      `json:"remaining_minutes"`
}

type freeIntervalsResponse struct {
	PersonID  string    `json:"person_id"`
	Date      string    `json:"date"`
	Intervals []spanDTO `json:"intervals"`
}

type capacityResponse struct {
	PersonID        string `json:"person_id"`
	Start           string `json:"start"`
	End             string `json:"end"`
	CapacityMinutes int    `json:"capacity_minutes"`
}

type spanDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSpanDTOs(spans []interval.Span) []spanDTO {
	out := make([]spanDTO, 0, len(spans))
	for _, s := range spans {
		out = append(out, spanDTO{
			Start: s.Start.UTC().Format(time.RFC3339),
			End:   s.End.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, value)
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(value))
}

func parseIntQuery(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
