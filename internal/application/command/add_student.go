package command

import (
	"context"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD STUDENT COMMAND
// Appends a student to the roster. Duplicate NIS values are accepted.
// ══════════════════════════════════════════════════════════════════════════════

// AddStudentCommand contains the data of the new student.
type AddStudentCommand struct {
	NIS        string
	Name       string
	GradeLevel string
	Contact    string

	// CorrelationID for tracing.
	CorrelationID string
}

// AddStudentResult contains the created student.
type AddStudentResult struct {
	Student gradebook.Student
	Events  []shared.Event
}

// AddStudentHandler handles the AddStudentCommand.
type AddStudentHandler struct {
	state StateApplier
	ids   gradebook.IDGenerator
}

// NewAddStudentHandler creates a new AddStudentHandler.
func NewAddStudentHandler(state StateApplier, ids gradebook.IDGenerator) *AddStudentHandler {
	return &AddStudentHandler{state: state, ids: ids}
}

// Handle executes the command.
func (h *AddStudentHandler) Handle(ctx context.Context, cmd AddStudentCommand) (*AddStudentResult, error) {
	id := h.ids.GenerateID()
	in := gradebook.NewStudent{
		NIS:        cmd.NIS,
		Name:       cmd.Name,
		GradeLevel: cmd.GradeLevel,
		Contact:    cmd.Contact,
	}

	var added gradebook.Student
	_, events, err := h.state.Apply(ctx, func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		next, s := gradebook.AddStudent(cur, in, id)
		added = s

		event := shared.NewStudentAddedEvent(s.ID, s.NIS, s.Name, s.GradeLevel)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		return next, []shared.Event{event}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("add_student: %w", err)
	}

	return &AddStudentResult{Student: added, Events: events}, nil
}
