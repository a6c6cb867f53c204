package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// FIND STUDENT BY NIS QUERY
// Portal entry point: a student identifies with a registration number and
// gets the report cards of every roster entry carrying it.
// ══════════════════════════════════════════════════════════════════════════════

// FindStudentByNISQuery contains the registration number.
type FindStudentByNISQuery struct {
	NIS string
}

// Validate validates the query.
func (q *FindStudentByNISQuery) Validate() error {
	q.NIS = strings.TrimSpace(q.NIS)
	if q.NIS == "" {
		return errors.New("nis is required")
	}
	return nil
}

// FindStudentByNISHandler handles the FindStudentByNISQuery.
type FindStudentByNISHandler struct {
	state SnapshotReader
}

// NewFindStudentByNISHandler creates a new FindStudentByNISHandler.
func NewFindStudentByNISHandler(state SnapshotReader) *FindStudentByNISHandler {
	return &FindStudentByNISHandler{state: state}
}

// Handle executes the query. NIS is not unique, so several reports may come
// back, in roster order.
func (h *FindStudentByNISHandler) Handle(_ context.Context, q FindStudentByNISQuery) ([]StudentReportDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("student", "FindByNIS", shared.ErrInvalidInput, err.Error(), err)
	}

	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("find_student_by_nis: %w", err)
	}

	matches := gradebook.FindStudentsByNIS(st, q.NIS)
	if len(matches) == 0 {
		return nil, shared.ErrStudentNotFound
	}

	reports := make([]StudentReportDTO, 0, len(matches))
	for _, s := range matches {
		r, err := buildReport(st, s.ID)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, nil
}
