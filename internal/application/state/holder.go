// Package state owns the single in-memory snapshot of the gradebook and the
// order in which mutations reach the durable slot.
package state

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Store loads and saves the whole aggregate.
type Store interface {
	Load(ctx context.Context) (gradebook.State, error)
	Save(ctx context.Context, st gradebook.State) error
}

// Publisher receives the domain events of every applied mutation.
type Publisher interface {
	Publish(event shared.Event) error
}

// Mutation computes the next state from the current one. Returning no events
// means nothing changed and nothing is saved.
type Mutation func(current gradebook.State) (next gradebook.State, events []shared.Event, err error)

// ══════════════════════════════════════════════════════════════════════════════
// HOLDER
// ══════════════════════════════════════════════════════════════════════════════

// Holder keeps the current snapshot. Reads never block; mutations are applied
// one at a time and the new snapshot becomes visible only after it was saved.
type Holder struct {
	store     Store
	publisher Publisher
	log       *logger.Logger

	writeMu sync.Mutex
	current atomic.Pointer[gradebook.State]
}

// NewHolder creates a Holder. publisher and log may be nil.
func NewHolder(store Store, publisher Publisher, log *logger.Logger) *Holder {
	if log == nil {
		log = logger.Nop()
	}
	return &Holder{
		store:     store,
		publisher: publisher,
		log:       log.With(logger.Component("state")),
	}
}

// Load reads the persisted state and makes it current. It must succeed before
// any Apply.
func (h *Holder) Load(ctx context.Context) error {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	st, err := h.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("state: load: %w", err)
	}
	h.current.Store(&st)

	h.log.Info("state ready",
		logger.Int("students", len(st.Students)),
		logger.Int("assessments", len(st.Assessments)),
		logger.Int("grades", len(st.Grades)),
	)
	return nil
}

// Loaded reports whether Load has succeeded.
func (h *Holder) Loaded() bool {
	return h.current.Load() != nil
}

// Snapshot returns the current state. The returned value shares backing
// arrays with the holder and must be treated as read-only.
func (h *Holder) Snapshot() (gradebook.State, error) {
	p := h.current.Load()
	if p == nil {
		return gradebook.State{}, shared.ErrNotLoaded
	}
	return *p, nil
}

// Apply runs fn against the current state, saves the result and swaps it in.
// A failed save keeps the previous snapshot and returns the error.
func (h *Holder) Apply(ctx context.Context, fn Mutation) (gradebook.State, []shared.Event, error) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()

	p := h.current.Load()
	if p == nil {
		return gradebook.State{}, nil, shared.ErrNotLoaded
	}

	next, events, err := fn(*p)
	if err != nil {
		return *p, nil, err
	}
	if len(events) == 0 {
		return *p, nil, nil
	}

	if err := h.store.Save(ctx, next); err != nil {
		return *p, nil, fmt.Errorf("state: save: %w", err)
	}
	h.current.Store(&next)

	h.publish(events)
	return next, events, nil
}

func (h *Holder) publish(events []shared.Event) {
	if h.publisher == nil {
		return
	}
	for _, e := range events {
		if err := h.publisher.Publish(e); err != nil {
			h.log.Error("failed to publish event",
				logger.String("event_type", string(e.EventType())),
				logger.Err(err),
			)
		}
	}
}
