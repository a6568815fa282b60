package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/NescAdmin/nesc-planering/internal/capacity"
	"github.com/NescAdmin/nesc-planering/internal/interval"
	"github.com/NescAdmin/nesc-planering/internal/persistence"
)

// ReportService computes read-only views: project scope summaries and the
// utilization grid.
type ReportService struct {
	store        persistence.Store
	now          func() time.Time
	breakMinutes int
	logger       *slog.Logger
}

// NewReportService wires dependencies for reporting queries.
func NewReportService(store persistence.Store, now func() time.Time, breakMinutes int, logger *slog.Logger) *ReportService {
	if now == nil {
		now = time.Now
	}
	if breakMinutes <= 0 {
		breakMinutes = 60
	}
	return &ReportService{
		store:        store,
		now:          now,
		breakMinutes: breakMinutes,
		logger:       defaultLogger(logger),
	}
}

// ProjectScopeSummary reports the project's committable scope against its
// planned allocations.
func (s *ReportService) ProjectScopeSummary(ctx context.Context, projectID string) (ScopeSummary, error) {
	if s == nil {
		return ScopeSummary{}, fmt.Errorf("ReportService is nil")
	}
	if projectID == "" {
		vErr := &ValidationError{}
		vErr.add("project_id", "project id is required")
		return ScopeSummary{}, vErr
	}

	totals, err := computeProjectTotals(ctx, s.store, projectID, s.breakMinutes)
	if err != nil {
		return ScopeSummary{}, err
	}
	return summaryFromTotals(projectID, totals), nil
}

// UtilizationGrid computes the per-person, per-period utilization percentages
// for the requested view.
func (s *ReportService) UtilizationGrid(ctx context.Context, params UtilizationParams) (GridReport, error) {
	if s == nil {
		return GridReport{}, fmt.Errorf("ReportService is nil")
	}

	ref := params.Reference
	if ref.IsZero() {
		ref = s.now()
	}
	periods, err := capacity.Periods(params.View, ref, params.Count)
	if err != nil {
		return GridReport{}, err
	}
	if len(periods) == 0 {
		return GridReport{Periods: periods, Grid: capacity.UtilizationGrid(nil, periods, s.breakMinutes)}, nil
	}

	persons, err := s.selectPersons(ctx, params.PersonIDs)
	if err != nil {
		return GridReport{}, err
	}

	windowStart := periods[0].Range.Start
	windowEnd := periods[len(periods)-1].Range.End

	rows := make([]capacity.PersonAllocations, 0, len(persons))
	for _, person := range persons {
		row, err := s.personRow(ctx, person, windowStart, windowEnd)
		if err != nil {
			return GridReport{}, err
		}
		rows = append(rows, row)
	}

	return GridReport{
		Periods: periods,
		Grid:    capacity.UtilizationGrid(rows, periods, s.breakMinutes),
	}, nil
}

func (s *ReportService) selectPersons(ctx context.Context, ids []string) ([]persistence.Person, error) {
	if len(ids) == 0 {
		persons, err := s.store.ListPersons(ctx)
		if err != nil {
			return nil, mapRepoError(err)
		}
		return persons, nil
	}

	persons := make([]persistence.Person, 0, len(ids))
	for _, id := range ids {
		person, err := s.store.GetPerson(ctx, id)
		if err != nil {
			return nil, mapRepoError(err)
		}
		persons = append(persons, person)
	}
	return persons, nil
}

// personRow gathers one person's profile, absences and allocations inside the
// inclusive [windowStart, windowEnd] date window.
func (s *ReportService) personRow(ctx context.Context, person persistence.Person, windowStart, windowEnd time.Time) (capacity.PersonAllocations, error) {
	profile, err := personProfile(person)
	if err != nil {
		return capacity.PersonAllocations{}, err
	}

	offs, err := s.store.ListTimeOff(ctx, person.ID, windowStart, windowEnd.AddDate(0, 0, 1))
	if err != nil {
		return capacity.PersonAllocations{}, mapRepoError(err)
	}
	spans := make([]interval.Span, 0, len(offs))
	for _, off := range offs {
		spans = append(spans, interval.Span{Start: off.Start, End: off.End})
	}

	percentRecords, err := s.store.ListPercentAllocations(ctx, person.ID, windowStart, windowEnd)
	if err != nil {
		return capacity.PersonAllocations{}, mapRepoError(err)
	}
	var percent, adHoc []capacity.PercentAllocation
	for _, rec := range percentRecords {
		alloc := capacity.PercentAllocation{
			Range:        capacity.NewDateRange(rec.StartDate, rec.EndDate),
			Percent:      rec.Percent,
			Profile:      profile,
			BreakMinutes: s.breakMinutes,
		}
		if rec.ProjectID == nil {
			adHoc = append(adHoc, alloc)
		} else {
			percent = append(percent, alloc)
		}
	}

	minuteRecords, err := s.store.ListMinuteAllocations(ctx, person.ID, windowStart, windowEnd)
	if err != nil {
		return capacity.PersonAllocations{}, mapRepoError(err)
	}
	minute := make([]capacity.MinuteAllocation, 0, len(minuteRecords))
	for _, rec := range minuteRecords {
		minute = append(minute, capacity.MinuteAllocation{
			Range:   capacity.NewDateRange(rec.StartDate, rec.EndDate),
			Minutes: rec.Minutes,
		})
	}

	return capacity.PersonAllocations{
		PersonID: person.ID,
		Profile:  profile,
		TimeOff:  spans,
		Percent:  percent,
		AdHoc:    adHoc,
		Minute:   minute,
	}, nil
}
