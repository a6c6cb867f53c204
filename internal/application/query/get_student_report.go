package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDENT REPORT QUERY
// The report card a student sees in the portal.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudentReportQuery identifies the student.
type GetStudentReportQuery struct {
	StudentID string
}

// Validate validates the query.
func (q GetStudentReportQuery) Validate() error {
	if q.StudentID == "" {
		return errors.New("student_id is required")
	}
	return nil
}

// StudentReportDTO is one student's report card.
type StudentReportDTO struct {
	Student gradebook.Student `json:"student"`

	// Average is 0 without grades, otherwise rounded to one decimal.
	Average float64 `json:"average"`

	// Grades is in recording order.
	Grades []GradeRowDTO `json:"grades"`
}

// GetStudentReportHandler handles the GetStudentReportQuery.
type GetStudentReportHandler struct {
	state SnapshotReader
}

// NewGetStudentReportHandler creates a new GetStudentReportHandler.
func NewGetStudentReportHandler(state SnapshotReader) *GetStudentReportHandler {
	return &GetStudentReportHandler{state: state}
}

// Handle executes the query. A missing student is shared.ErrStudentNotFound.
func (h *GetStudentReportHandler) Handle(_ context.Context, q GetStudentReportQuery) (*StudentReportDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("student", "Report", shared.ErrInvalidInput, err.Error(), err)
	}

	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("get_student_report: %w", err)
	}

	return buildReport(st, q.StudentID)
}

func buildReport(st gradebook.State, studentID string) (*StudentReportDTO, error) {
	s, ok := gradebook.FindStudent(st, studentID)
	if !ok {
		return nil, shared.ErrStudentNotFound
	}

	grades := gradebook.GradesForStudent(st, s.ID)
	return &StudentReportDTO{
		Student: s,
		Average: gradebook.StudentAverage(st, s.ID),
		Grades:  toGradeRows(gradebook.ResolveGrades(st, grades)),
	}, nil
}
