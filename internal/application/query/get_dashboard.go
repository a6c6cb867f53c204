package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// Counters and the most recent grading activity for the teacher's home view.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultRecentLimit is how many recent grades the dashboard shows.
const DefaultRecentLimit = 5

// GetDashboardQuery contains the dashboard parameters.
type GetDashboardQuery struct {
	// RecentLimit is the number of recent grades (default: 5).
	RecentLimit int
}

// Validate validates the query and fills defaults.
func (q *GetDashboardQuery) Validate() error {
	if q.RecentLimit < 0 {
		return errors.New("recent_limit cannot be negative")
	}
	if q.RecentLimit == 0 {
		q.RecentLimit = DefaultRecentLimit
	}
	return nil
}

// DashboardDTO is the teacher's overview.
type DashboardDTO struct {
	Stats gradebook.Stats `json:"stats"`

	// Recent is most recent first. Grades whose student or assessment is gone
	// are left out, so it may hold fewer than RecentLimit rows.
	Recent []GradeRowDTO `json:"recent"`
}

// GetDashboardHandler handles the GetDashboardQuery.
type GetDashboardHandler struct {
	state SnapshotReader
}

// NewGetDashboardHandler creates a new GetDashboardHandler.
func NewGetDashboardHandler(state SnapshotReader) *GetDashboardHandler {
	return &GetDashboardHandler{state: state}
}

// Handle executes the query.
func (h *GetDashboardHandler) Handle(_ context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("dashboard", "Get", shared.ErrInvalidInput, err.Error(), err)
	}

	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: %w", err)
	}

	recent := gradebook.RecentGrades(st, q.RecentLimit)
	return &DashboardDTO{
		Stats:  gradebook.ComputeStats(st),
		Recent: toGradeRows(gradebook.ResolveGrades(st, recent)),
	}, nil
}
