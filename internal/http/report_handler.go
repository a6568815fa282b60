package http

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/NescAdmin/nesc-planering/internal/application"
	"github.com/NescAdmin/nesc-planering/internal/capacity"
)

type reportService interface {
	ProjectScopeSummary(ctx context.Context, projectID string) (application.ScopeSummary, error)
	UtilizationGrid(ctx context.Context, params application.UtilizationParams) (application.GridReport, error)
}

type ReportHandler struct {
	service   reportService
	responder responder
}

func NewReportHandler(service reportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{service: service, responder: newResponder(logger)}
}

// ScopeSummary handles GET /projects/{id}/scope.
func (h *ReportHandler) ScopeSummary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(projectID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	summary, err := h.service.ProjectScopeSummary(r.Context(), projectID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScopeSummaryDTO(summary))
}

// Utilization handles GET /utilization?view=week&ref=YYYY-MM-DD&count=5&persons=a,b.
func (h *ReportHandler) Utilization(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()

	params := application.UtilizationParams{
		View:  capacity.View(strings.TrimSpace(query.Get("view"))),
		Count: parseIntQuery(query.Get("count"), 0),
	}
	if ref := strings.TrimSpace(query.Get("ref")); ref != "" {
		parsed, err := parseDate(ref)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
			return
		}
		params.Reference = parsed
	}
	if persons := strings.TrimSpace(query.Get("persons")); persons != "" {
		params.PersonIDs = parseCSV(persons)
	}

	report, err := h.service.UtilizationGrid(r.Context(), params)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toGridResponse(report))
}

type gridResponse struct {
	Periods []periodDTO      `json:"periods"`
	Rows    []utilizationRow `json:"rows"`
}

type periodDTO struct {
	Label string `json:"label"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type utilizationRow struct {
	PersonID       string `json:"person_id"`
	Cells          []int  `json:"cells"`
	AveragePercent int    `json:"average_percent"`
	PeakPercent    int    `json:"peak_percent"`
}

func toGridResponse(report application.GridReport) gridResponse {
	periods := make([]periodDTO, 0, len(report.Periods))
	for _, p := range report.Periods {
		periods = append(periods, periodDTO{
			Label: p.Label,
			Start: p.Range.Start.Format("2006-01-02"),
			End:   p.Range.End.Format("2006-01-02"),
		})
	}

	seen := make(map[string]bool)
	order := make([]string, 0, len(report.Grid.RowAverage))
	for key := range report.Grid.Cells {
		if !seen[key.PersonID] {
			seen[key.PersonID] = true
			order = append(order, key.PersonID)
		}
	}
	sort.Strings(order)

	rows := make([]utilizationRow, 0, len(order))
	for _, personID := range order {
		cells := make([]int, len(report.Periods))
		for i := range report.Periods {
			cells[i] = report.Grid.Cells[capacity.CellKey{PersonID: personID, PeriodIndex: i}]
		}
		rows = append(rows, utilizationRow{
			PersonID:       personID,
			Cells:          cells,
			AveragePercent: report.Grid.RowAverage[personID],
			PeakPercent:    report.Grid.RowPeak[personID],
		})
	}

	return gridResponse{Periods: periods, Rows: rows}
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
