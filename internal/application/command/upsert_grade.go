package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPSERT GRADE COMMAND
// Records the score of one student on one assessment. A second call for the
// same pair updates the existing grade and keeps its id.
// ══════════════════════════════════════════════════════════════════════════════

// UpsertGradeCommand contains the score to record.
type UpsertGradeCommand struct {
	StudentID    string
	AssessmentID string

	// Score is stored as given, including values above the assessment's
	// MaxScore.
	Score float64

	Feedback string

	CorrelationID string
}

// Validate validates the command.
func (c UpsertGradeCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("upsert_grade: student_id is required")
	}
	if c.AssessmentID == "" {
		return errors.New("upsert_grade: assessment_id is required")
	}
	return nil
}

// UpsertGradeResult contains the stored grade.
type UpsertGradeResult struct {
	Grade   gradebook.Grade
	Created bool
	Events  []shared.Event
}

// UpsertGradeHandler handles the UpsertGradeCommand.
type UpsertGradeHandler struct {
	state StateApplier
	ids   gradebook.IDGenerator
}

// NewUpsertGradeHandler creates a new UpsertGradeHandler.
func NewUpsertGradeHandler(state StateApplier, ids gradebook.IDGenerator) *UpsertGradeHandler {
	return &UpsertGradeHandler{state: state, ids: ids}
}

// Handle executes the command. Both referenced entities must exist, otherwise
// the grade would be dangling from the start.
func (h *UpsertGradeHandler) Handle(ctx context.Context, cmd UpsertGradeCommand) (*UpsertGradeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("grade", "Upsert", shared.ErrInvalidInput, err.Error(), err)
	}

	newID := h.ids.GenerateID()
	result := &UpsertGradeResult{}

	_, events, err := h.state.Apply(ctx, func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		if _, ok := gradebook.FindStudent(cur, cmd.StudentID); !ok {
			return cur, nil, shared.ErrStudentNotFound
		}
		if _, ok := gradebook.FindAssessment(cur, cmd.AssessmentID); !ok {
			return cur, nil, shared.ErrAssessmentNotFound
		}

		next, g, created := gradebook.UpsertGrade(cur, cmd.StudentID, cmd.AssessmentID, cmd.Score, cmd.Feedback, newID)
		result.Grade = g
		result.Created = created

		event := shared.NewGradeRecordedEvent(g.ID, g.StudentID, g.AssessmentID, g.Score, created)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		return next, []shared.Event{event}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert_grade: %w", err)
	}

	result.Events = events
	return result, nil
}
