package command

import (
	"context"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE STUDENT COMMAND
// Removes a student and every grade that references it, in one state update.
// The operator is asked first, even when the id does not exist.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteStudentCommand identifies the student to remove.
type DeleteStudentCommand struct {
	StudentID string

	CorrelationID string
}

// DeleteStudentResult reports what the command did.
type DeleteStudentResult struct {
	// Applied is false when the operator declined.
	Applied bool

	// Removed is false when no student had the id.
	Removed bool

	// GradesRemoved counts the cascaded grades.
	GradesRemoved int

	Events []shared.Event
}

// DeleteStudentHandler handles the DeleteStudentCommand.
type DeleteStudentHandler struct {
	state     StateApplier
	confirmer gradebook.Confirmer
	log       *logger.Logger
}

// NewDeleteStudentHandler creates a new DeleteStudentHandler.
func NewDeleteStudentHandler(state StateApplier, confirmer gradebook.Confirmer, log *logger.Logger) *DeleteStudentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DeleteStudentHandler{state: state, confirmer: confirmer, log: log}
}

// Handle executes the command.
func (h *DeleteStudentHandler) Handle(ctx context.Context, cmd DeleteStudentCommand) (*DeleteStudentResult, error) {
	if !confirmed(ctx, h.confirmer, gradebook.PromptDeleteStudent) {
		h.log.Info("student deletion declined", logger.StudentID(cmd.StudentID))
		return &DeleteStudentResult{Applied: false}, nil
	}

	result := &DeleteStudentResult{Applied: true}
	_, events, err := h.state.Apply(ctx, func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		next, removed, cascaded := gradebook.DeleteStudent(cur, cmd.StudentID)
		if !removed {
			return cur, nil, nil
		}
		result.Removed = true
		result.GradesRemoved = cascaded

		event := shared.NewStudentDeletedEvent(cmd.StudentID, cascaded)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		return next, []shared.Event{event}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete_student: %w", err)
	}

	result.Events = events
	return result, nil
}
