package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/application"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

type directoryService interface {
	CreatePerson(ctx context.Context, input application.PersonInput) (persistence.Person, error)
	UpdatePerson(ctx context.Context, id string, input application.PersonInput) (persistence.Person, error)
	GetPerson(ctx context.Context, id string) (persistence.Person, error)
	ListPersons(ctx context.Context) ([]persistence.Person, error)
	DeletePerson(ctx context.Context, id string) error

	CreateProject(ctx context.Context, input application.ProjectInput) (persistence.Project, error)
	UpdateProject(ctx context.Context, id string, input application.ProjectInput) (persistence.Project, error)
	GetProject(ctx context.Context, id string) (persistence.Project, error)
	ListProjects(ctx context.Context) ([]persistence.Project, error)
	DeleteProject(ctx context.Context, id string) error

	CreateWorkItem(ctx context.Context, input application.WorkItemInput) (persistence.WorkItem, error)
	UpdateWorkItem(ctx context.Context, id string, input application.WorkItemInput) (persistence.WorkItem, error)
	GetWorkItem(ctx context.Context, id string) (persistence.WorkItem, error)
	ListWorkItems(ctx context.Context, projectID string) ([]persistence.WorkItem, error)
	DeleteWorkItem(ctx context.Context, id string) error

	CreateTimeOff(ctx context.Context, input application.TimeOffInput) (persistence.TimeOff, error)
	DeleteTimeOff(ctx context.Context, id string) error
	DeleteTimeBlock(ctx context.Context, id string) error
}

type DirectoryHandler struct {
	service   directoryService
	responder responder
}

func NewDirectoryHandler(service directoryService, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{service: service, responder: newResponder(logger)}
}

// --- persons ---

func (h *DirectoryHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	person, err := h.service.CreatePerson(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toPersonDTO(person))
}

func (h *DirectoryHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	person, err := h.service.UpdatePerson(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPersonDTO(person))
}

func (h *DirectoryHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	person, err := h.service.GetPerson(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toPersonDTO(person))
}

func (h *DirectoryHandler) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.service.ListPersons(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]personDTO, 0, len(persons))
	for _, p := range persons {
		out = append(out, toPersonDTO(p))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listPersonsResponse{Persons: out})
}

func (h *DirectoryHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeletePerson)
}

// --- projects ---

func (h *DirectoryHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	project, err := h.service.CreateProject(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toProjectDTO(project))
}

func (h *DirectoryHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	project, err := h.service.UpdateProject(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProjectDTO(project))
}

func (h *DirectoryHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	project, err := h.service.GetProject(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toProjectDTO(project))
}

func (h *DirectoryHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]projectDTO, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectDTO(p))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listProjectsResponse{Projects: out})
}

func (h *DirectoryHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteProject)
}

// --- work items ---

func (h *DirectoryHandler) CreateWorkItem(w http.ResponseWriter, r *http.Request) {
	var req workItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	item, err := h.service.CreateWorkItem(r.Context(), req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toWorkItemDTO(item))
}

func (h *DirectoryHandler) UpdateWorkItem(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	var req workItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	item, err := h.service.UpdateWorkItem(r.Context(), id, req.toInput())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTO(item))
}

func (h *DirectoryHandler) GetWorkItem(w http.ResponseWriter, r *http.Request) {
	id, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(id) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	item, err := h.service.GetWorkItem(r.Context(), id)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toWorkItemDTO(item))
}

func (h *DirectoryHandler) ListWorkItems(w http.ResponseWriter, r *http.Request) {
	projectID := strings.TrimSpace(r.URL.Query().Get("project"))
	if projectID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidPathID)
		return
	}

	items, err := h.service.ListWorkItems(r.Context(), projectID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]workItemDTO, 0, len(items))
	for _, item := range items {
		out = append(out, toWorkItemDTO(item))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listWorkItemsResponse{WorkItems: out})
}

func (h *DirectoryHandler) DeleteWorkItem(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteWorkItem)
}

// --- time off and blocks ---

func (h *DirectoryHandler) CreateTimeOff(w http.ResponseWriter, r *http.Request) {
	var req timeOffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, err := parseTimestamp(req.Start)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
		return
	}
	end, err := parseTimestamp(req.End)
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimestamp)
		return
	}

	off, err := h.service.CreateTimeOff(r.Context(), application.TimeOffInput{
		PersonID: strings.TrimSpace(req.PersonID),
		Start:    start,
		End:      end,
		Kind:     strings.TrimSpace(req.Kind),
		Note:     req.Note,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTimeOffDTO(off))
}

func (h *DirectoryHandler) DeleteTimeOff(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteTimeOff)
}

func (h *DirectoryHandler) DeleteTimeBlock(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.service.DeleteTimeBlock)
}

func (h *DirectoryHandler) deleteByID(w http.ResponseWriter, r *http.Request, delete func(context.Context, string) error) {
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

// --- DTOs ---

type personRequest struct {
	Name      string `json:"name"`
	WorkStart string `json:"work_start"`
	WorkEnd   string `json:"work_end"`
	WorkDays  []int  `json:"work_days"`
}

func (r personRequest) toInput() application.PersonInput {
	days := make([]time.Weekday, 0, len(r.WorkDays))
	for _, d := range r.WorkDays {
		days = append(days, time.Weekday(d))
	}
	return application.PersonInput{
		Name:      strings.TrimSpace(r.Name),
		WorkStart: strings.TrimSpace(r.WorkStart),
		WorkEnd:   strings.TrimSpace(r.WorkEnd),
		WorkDays:  days,
	}
}

type personDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	WorkStart string `json:"work_start"`
	WorkEnd   string `json:"work_end"`
	WorkDays  []int  `json:"work_days"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toPersonDTO(p persistence.Person) personDTO {
	days := make([]int, 0, len(p.WorkDays))
	for _, d := range p.WorkDays {
		days = append(days, int(d))
	}
	return personDTO{
		ID:        p.ID,
		Name:      p.Name,
		WorkStart: p.WorkStart,
		WorkEnd:   p.WorkEnd,
		WorkDays:  days,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type listPersonsResponse struct {
	Persons []personDTO `json:"persons"`
}

type projectRequest struct {
	Name          string `json:"name"`
	BudgetMinutes int    `json:"budget_minutes"`
	Status        string `json:"status"`
}

func (r projectRequest) toInput() application.ProjectInput {
	return application.ProjectInput{
		Name:          strings.TrimSpace(r.Name),
		BudgetMinutes: r.BudgetMinutes,
		Status:        strings.TrimSpace(r.Status),
	}
}

type projectDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	BudgetMinutes int    `json:"budget_minutes"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toProjectDTO(p persistence.Project) projectDTO {
	return projectDTO{
		ID:            p.ID,
		Name:          p.Name,
		BudgetMinutes: p.BudgetMinutes,
		Status:        p.Status,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type listProjectsResponse struct {
	Projects []projectDTO `json:"projects"`
}

type workItemRequest struct {
	ProjectID      string `json:"project_id"`
	Title          string `json:"title"`
	Quantity       int    `json:"quantity"`
	MinutesPerUnit int    `json:"minutes_per_unit"`
	Deadline       string `json:"deadline"`
}

func (r workItemRequest) toInput() application.WorkItemInput {
	input := application.WorkItemInput{
		ProjectID:      strings.TrimSpace(r.ProjectID),
		Title:          strings.TrimSpace(r.Title),
		Quantity:       r.Quantity,
		MinutesPerUnit: r.MinutesPerUnit,
	}
	if deadline := strings.TrimSpace(r.Deadline); deadline != "" {
		if ts, err := parseDate(deadline); err == nil {
			input.Deadline = &ts
		}
	}
	return input
}

type workItemDTO struct {
	ID             string `json:"id"`
	ProjectID      string `json:"project_id"`
	Title          string `json:"title"`
	Quantity       int    `json:"quantity"`
	MinutesPerUnit int    `json:"minutes_per_unit"`
	TotalMinutes   int    `json:"total_minutes"`
	Deadline       string `json:"deadline,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toWorkItemDTO(item persistence.WorkItem) workItemDTO {
	dto := workItemDTO{
		ID:             item.ID,
		ProjectID:      item.ProjectID,
		Title:          item.Title,
		Quantity:       item.Quantity,
		MinutesPerUnit: item.MinutesPerUnit,
		TotalMinutes:   item.TotalMinutes,
		CreatedAt:      item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      item.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if item.Deadline != nil {
		dto.Deadline = item.Deadline.Format("2006-01-02")
	}
	return dto
}

type listWorkItemsResponse struct {
	WorkItems []workItemDTO `json:"work_items"`
}

type timeOffRequest struct {
	PersonID string `json:"person_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Kind     string `json:"kind"`
	Note     string `json:"note"`
}

type timeOffDTO struct {
	ID       string `json:"id"`
	PersonID string `json:"person_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Kind     string `json:"kind,omitempty"`
	Note     string `json:"note,omitempty"`
}

func toTimeOffDTO(off persistence.TimeOff) timeOffDTO {
	return timeOffDTO{
		ID:       off.ID,
		PersonID: off.PersonID,
		Start:    off.Start.UTC().Format(time.RFC3339),
		End:      off.End.UTC().Format(time.RFC3339),
		Kind:     off.Kind,
		Note:     off.Note,
	}
}
