package command

import (
	"context"
	"fmt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET STATE COMMAND
// Replaces the whole dataset with the sample data. Gated like the deletes.
// ══════════════════════════════════════════════════════════════════════════════

// ResetStateCommand carries no data besides tracing.
type ResetStateCommand struct {
	CorrelationID string
}

// ResetStateResult reports the new collection sizes.
type ResetStateResult struct {
	Applied bool
	State   gradebook.State
	Events  []shared.Event
}

// ResetStateHandler handles the ResetStateCommand.
type ResetStateHandler struct {
	state     StateApplier
	confirmer gradebook.Confirmer
	seed      func() gradebook.State
	slotName  string
	log       *logger.Logger
}

// NewResetStateHandler creates a new ResetStateHandler. seed must return a
// fresh copy on every call.
func NewResetStateHandler(state StateApplier, confirmer gradebook.Confirmer, seed func() gradebook.State, slotName string, log *logger.Logger) *ResetStateHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ResetStateHandler{
		state:     state,
		confirmer: confirmer,
		seed:      seed,
		slotName:  slotName,
		log:       log,
	}
}

// Handle executes the command.
func (h *ResetStateHandler) Handle(ctx context.Context, cmd ResetStateCommand) (*ResetStateResult, error) {
	if !confirmed(ctx, h.confirmer, gradebook.PromptResetState) {
		h.log.Info("state reset declined", logger.Slot(h.slotName))
		return &ResetStateResult{Applied: false}, nil
	}

	next, events, err := h.state.Apply(ctx, func(gradebook.State) (gradebook.State, []shared.Event, error) {
		st := h.seed()
		event := shared.NewStateResetEvent(h.slotName, len(st.Students), len(st.Assessments), len(st.Grades))
		event.BaseEvent = event.WithCorrelationID(cmd.CorrelationID)
		return st, []shared.Event{event}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reset_state: %w", err)
	}

	h.log.Warn("state reset to sample data", logger.Slot(h.slotName))
	return &ResetStateResult{Applied: true, State: next, Events: events}, nil
}
