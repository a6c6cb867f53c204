package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GRADE QUERY
// Prefills the grading form for one (student, assessment) pair.
// ══════════════════════════════════════════════════════════════════════════════

// GetGradeQuery identifies the pair.
type GetGradeQuery struct {
	StudentID    string
	AssessmentID string
}

// Validate validates the query.
func (q GetGradeQuery) Validate() error {
	if q.StudentID == "" || q.AssessmentID == "" {
		return errors.New("student_id and assessment_id are required")
	}
	return nil
}

// GradeFormDTO is the form content. Without a recorded grade, Exists is false
// and Score and Feedback are zero.
type GradeFormDTO struct {
	Exists       bool    `json:"exists"`
	GradeID      string  `json:"gradeId,omitempty"`
	StudentID    string  `json:"studentId"`
	AssessmentID string  `json:"assessmentId"`
	Score        float64 `json:"score"`
	Feedback     string  `json:"feedback"`
}

// GetGradeHandler handles the GetGradeQuery.
type GetGradeHandler struct {
	state SnapshotReader
}

// NewGetGradeHandler creates a new GetGradeHandler.
func NewGetGradeHandler(state SnapshotReader) *GetGradeHandler {
	return &GetGradeHandler{state: state}
}

// Handle executes the query.
func (h *GetGradeHandler) Handle(_ context.Context, q GetGradeQuery) (*GradeFormDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("grade", "Get", shared.ErrInvalidInput, err.Error(), err)
	}

	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("get_grade: %w", err)
	}

	form := &GradeFormDTO{StudentID: q.StudentID, AssessmentID: q.AssessmentID}
	if g, ok := gradebook.GradeFor(st, q.StudentID, q.AssessmentID); ok {
		form.Exists = true
		form.GradeID = g.ID
		form.Score = g.Score
		form.Feedback = g.Feedback
	}
	return form, nil
}
