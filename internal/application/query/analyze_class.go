package query

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYZE CLASS QUERY
// Narrative class analysis for one assessment, next to a summary computed
// locally from the same grades.
// ══════════════════════════════════════════════════════════════════════════════

// AnalyzeClassQuery identifies the assessment.
type AnalyzeClassQuery struct {
	AssessmentID string
}

// Validate validates the query.
func (q AnalyzeClassQuery) Validate() error {
	if q.AssessmentID == "" {
		return errors.New("assessment_id is required")
	}
	return nil
}

// ClassAnalysisDTO is the analysis result.
type ClassAnalysisDTO struct {
	Assessment gradebook.Assessment        `json:"assessment"`
	Summary    gradebook.AssessmentSummary `json:"summary"`
	Analysis   string                      `json:"analysis"`
	Joined     bool                        `json:"joined"`
}

// AnalyzeClassHandler handles the AnalyzeClassQuery.
type AnalyzeClassHandler struct {
	state    SnapshotReader
	narrator gradebook.Narrator
	inflight singleflight.Group
}

// NewAnalyzeClassHandler creates a new AnalyzeClassHandler.
func NewAnalyzeClassHandler(state SnapshotReader, narrator gradebook.Narrator) *AnalyzeClassHandler {
	return &AnalyzeClassHandler{state: state, narrator: narrator}
}

// Handle executes the query.
func (h *AnalyzeClassHandler) Handle(ctx context.Context, q AnalyzeClassQuery) (*ClassAnalysisDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("assessment", "Analyze", shared.ErrInvalidInput, err.Error(), err)
	}

	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("analyze_class: %w", err)
	}
	a, ok := gradebook.FindAssessment(st, q.AssessmentID)
	if !ok {
		return nil, shared.ErrAssessmentNotFound
	}

	grades := gradebook.GradesForAssessment(st, a.ID)
	ch := h.inflight.DoChan("analysis:"+a.ID, func() (interface{}, error) {
		callCtx, cancel := narrativeContext(ctx)
		defer cancel()
		return h.narrator.AnalyzeClassPerformance(callCtx, a, grades, st.Students), nil
	})

	select {
	case res := <-ch:
		return &ClassAnalysisDTO{
			Assessment: a,
			Summary:    gradebook.SummarizeAssessment(st, a.ID),
			Analysis:   res.Val.(string),
			Joined:     res.Shared,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
