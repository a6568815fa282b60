// Package http provides HTTP handlers and middleware for the planner API.
//
// The router exposes the following endpoints:
//   - POST /schedule-runs: auto-schedules a work item onto a person's
//     calendar. Body: {"work_item_id","person_id","from","horizon_weeks"}.
//     Responds 201 with the created block ids and the remaining minutes.
//   - GET /persons/{id}/free-intervals?date=YYYY-MM-DD: previews a person's
//     open slots for one day without committing anything.
//   - GET /persons/{id}/capacity?start=YYYY-MM-DD&end=YYYY-MM-DD: net working
//     minutes across the inclusive date range, time-off days excluded.
//   - GET /projects/{id}/scope: the project's scope summary (scope, planned,
//     over) in minutes.
//   - GET /utilization?view=day|week|month&ref=YYYY-MM-DD&count=N&persons=a,b:
//     the per-person, per-period utilization grid.
//   - POST /allocations/percent and /allocations/minutes (?allow_over=true),
//     DELETE /allocations/{kind}/{id}: allocation writes under the project
//     scope check. A write that would push planned past scope responds 409
//     Conflict with the recomputed totals unless allow_over is set.
//   - GET/POST /persons, GET/PUT/DELETE /persons/{id}; the same shape for
//     /projects and /work-items; POST /time-off, DELETE /time-off/{id};
//     DELETE /time-blocks/{id}: directory maintenance endpoints.
//   - GET /metrics: Prometheus exposition.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
