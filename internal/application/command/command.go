// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"

	"github.com/edutrack/edutrack-gradebook/internal/application/state"
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// StateApplier applies one mutation to the current snapshot and persists the
// result. *state.Holder implements it.
type StateApplier interface {
	Apply(ctx context.Context, fn state.Mutation) (gradebook.State, []shared.Event, error)
}

// confirmed asks c and treats a missing gate as a "no".
func confirmed(ctx context.Context, c gradebook.Confirmer, prompt string) bool {
	if c == nil {
		return false
	}
	return c.Confirm(ctx, prompt)
}
