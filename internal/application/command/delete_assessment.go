package command

import (
	"context"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DELETE ASSESSMENT COMMAND
// Removes an assessment together with its grades. Same confirmation gate as
// student deletion.
// ══════════════════════════════════════════════════════════════════════════════

// DeleteAssessmentCommand identifies the assessment to remove.
type DeleteAssessmentCommand struct {
	AssessmentID string

	CorrelationID string
}

// DeleteAssessmentResult reports what the command did.
type DeleteAssessmentResult struct {
	Applied       bool
	Removed       bool
	GradesRemoved int
	Events        []shared.Event
}

// DeleteAssessmentHandler handles the DeleteAssessmentCommand.
type DeleteAssessmentHandler struct {
	state     StateApplier
	confirmer gradebook.Confirmer
	log       *logger.Logger
}

// NewDeleteAssessmentHandler creates a new DeleteAssessmentHandler.
func NewDeleteAssessmentHandler(state StateApplier, confirmer gradebook.Confirmer, log *logger.Logger) *DeleteAssessmentHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &DeleteAssessmentHandler{state: state, confirmer: confirmer, log: log}
}

// Handle executes the command.
func (h *DeleteAssessmentHandler) Handle(ctx context.Context, cmd DeleteAssessmentCommand) (*DeleteAssessmentResult, error) {
	if !confirmed(ctx, h.confirmer, gradebook.PromptDeleteAssessment) {
		h.log.Info("assessment deletion declined", logger.AssessmentID(cmd.AssessmentID))
		return &DeleteAssessmentResult{Applied: false}, nil
	}

	result := &DeleteAssessmentResult{Applied: true}
	_, events, err := h.state.Apply(ctx, func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		next, removed, cascaded := gradebook.DeleteAssessment(cur, cmd.AssessmentID)
		if !removed {
			return cur, nil, nil
		}
		result.Removed = true
		result.GradesRemoved = cascaded

		event := shared.NewAssessmentDeletedEvent(cmd.AssessmentID, cascaded)
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		return next, []shared.Event{event}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete_assessment: %w", err)
	}

	result.Events = events
	return result, nil
}
