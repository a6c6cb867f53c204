package command

import (
	"context"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADD ASSESSMENT COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// AddAssessmentCommand contains the data of the new assessment.
type AddAssessmentCommand struct {
	Title       string
	Subject     string
	Date        string
	MaxScore    int
	Description string

	CorrelationID string
}

// AddAssessmentResult contains the created assessment.
type AddAssessmentResult struct {
	Assessment gradebook.Assessment
	Events     []shared.Event
}

// AddAssessmentHandler handles the AddAssessmentCommand.
type AddAssessmentHandler struct {
	state StateApplier
	ids   gradebook.IDGenerator
}

// NewAddAssessmentHandler creates a new AddAssessmentHandler.
func NewAddAssessmentHandler(state StateApplier, ids gradebook.IDGenerator) *AddAssessmentHandler {
	return &AddAssessmentHandler{state: state, ids: ids}
}

// Handle executes the command. MaxScore is stored as given.
func (h *AddAssessmentHandler) Handle(ctx context.Context, cmd AddAssessmentCommand) (*AddAssessmentResult, error) {
	id := h.ids.GenerateID()
	in := gradebook.NewAssessment{
		Title:       cmd.Title,
		Subject:     cmd.Subject,
		Date:        cmd.Date,
		MaxScore:    cmd.MaxScore,
		Description: cmd.Description,
	}

	var added gradebook.Assessment
	_, events, err := h.state.Apply(ctx, func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		next, a := gradebook.AddAssessment(cur, in, id)
		added = a

		event := shared.NewAssessmentAddedEvent(a.ID, a.Title, a.Subject, a.MaxScore)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		return next, []shared.Event{event}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("add_assessment: %w", err)
	}

	return &AddAssessmentResult{Assessment: added, Events: events}, nil
}
