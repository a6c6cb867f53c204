package query

import (
	"context"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST QUERIES
// Roster, assessment list and filtered grade list, all in insertion order.
// ══════════════════════════════════════════════════════════════════════════════

// StudentListItemDTO is a roster row.
type StudentListItemDTO struct {
	gradebook.Student
	Average    float64 `json:"average"`
	GradeCount int     `json:"gradeCount"`
}

// ListStudentsHandler lists the roster.
type ListStudentsHandler struct {
	state SnapshotReader
}

// NewListStudentsHandler creates a new ListStudentsHandler.
func NewListStudentsHandler(state SnapshotReader) *ListStudentsHandler {
	return &ListStudentsHandler{state: state}
}

// Handle executes the query.
func (h *ListStudentsHandler) Handle(_ context.Context) ([]StudentListItemDTO, error) {
	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("list_students: %w", err)
	}

	out := make([]StudentListItemDTO, 0, len(st.Students))
	for _, s := range st.Students {
		out = append(out, StudentListItemDTO{
			Student:    s,
			Average:    gradebook.StudentAverage(st, s.ID),
			GradeCount: len(gradebook.GradesForStudent(st, s.ID)),
		})
	}
	return out, nil
}

// AssessmentListItemDTO is an assessment row.
type AssessmentListItemDTO struct {
	gradebook.Assessment
	Graded  int     `json:"graded"`
	Average float64 `json:"average"`
}

// ListAssessmentsHandler lists the assessments.
type ListAssessmentsHandler struct {
	state SnapshotReader
}

// NewListAssessmentsHandler creates a new ListAssessmentsHandler.
func NewListAssessmentsHandler(state SnapshotReader) *ListAssessmentsHandler {
	return &ListAssessmentsHandler{state: state}
}

// Handle executes the query.
func (h *ListAssessmentsHandler) Handle(_ context.Context) ([]AssessmentListItemDTO, error) {
	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("list_assessments: %w", err)
	}

	out := make([]AssessmentListItemDTO, 0, len(st.Assessments))
	for _, a := range st.Assessments {
		sum := gradebook.SummarizeAssessment(st, a.ID)
		out = append(out, AssessmentListItemDTO{
			Assessment: a,
			Graded:     sum.Graded,
			Average:    sum.Average,
		})
	}
	return out, nil
}

// ListGradesQuery filters grades. Empty fields do not filter.
type ListGradesQuery struct {
	StudentID    string
	AssessmentID string
}

// ListGradesHandler lists grades joined to their names.
type ListGradesHandler struct {
	state SnapshotReader
}

// NewListGradesHandler creates a new ListGradesHandler.
func NewListGradesHandler(state SnapshotReader) *ListGradesHandler {
	return &ListGradesHandler{state: state}
}

// Handle executes the query. Dangling grades are skipped.
func (h *ListGradesHandler) Handle(_ context.Context, q ListGradesQuery) ([]GradeRowDTO, error) {
	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("list_grades: %w", err)
	}

	var grades []gradebook.Grade
	switch {
	case q.StudentID != "":
		grades = gradebook.GradesForStudent(st, q.StudentID)
		if q.AssessmentID != "" {
			grades = filterByAssessment(grades, q.AssessmentID)
		}
	case q.AssessmentID != "":
		grades = gradebook.GradesForAssessment(st, q.AssessmentID)
	default:
		grades = st.Grades
	}

	return toGradeRows(gradebook.ResolveGrades(st, grades)), nil
}

func filterByAssessment(grades []gradebook.Grade, assessmentID string) []gradebook.Grade {
	out := make([]gradebook.Grade, 0, 1)
	for _, g := range grades {
		if g.AssessmentID == assessmentID {
			out = append(out, g)
		}
	}
	return out
}
