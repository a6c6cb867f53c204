// Package persistence loads and saves the gradebook as a single JSON blob in
// one durable slot. Backends live in subpackages; this package owns the blob
// format, the sample dataset and identifier generation.
package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GATEWAY
// ══════════════════════════════════════════════════════════════════════════════

// Observer receives the timing and outcome of every slot operation.
type Observer interface {
	ObserveSlot(op string, d time.Duration, err error)
}

// Gateway reads and writes the aggregate state through a Slot.
type Gateway struct {
	slot      gradebook.Slot
	ids       gradebook.IDGenerator
	log       *logger.Logger
	observer  Observer
	opTimeout time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(log *logger.Logger) Option {
	return func(g *Gateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithObserver reports slot timings to o.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(ids gradebook.IDGenerator) Option {
	return func(g *Gateway) {
		if ids != nil {
			g.ids = ids
		}
	}
}

// WithOpTimeout bounds each slot read and write. Zero means no bound.
func WithOpTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.opTimeout = d }
}

// NewGateway creates a Gateway over slot.
func NewGateway(slot gradebook.Slot, opts ...Option) *Gateway {
	g := &Gateway{
		slot: slot,
		ids:  gradebook.IDGeneratorFunc(uuid.NewString),
		log:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.With(logger.Component("gateway"), logger.Slot(slot.Name()))
	return g
}

// Slot returns the underlying slot.
func (g *Gateway) Slot() gradebook.Slot {
	return g.slot
}

// Load returns the persisted state.
//
// An empty slot yields the sample dataset. Content that is present but does
// not decode is reported as shared.ErrCorruptState and is never replaced.
func (g *Gateway) Load(ctx context.Context) (gradebook.State, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	data, err := g.slot.Read(ctx)
	g.observe("load", start, err)

	if errors.Is(err, shared.ErrSlotEmpty) {
		g.log.Info("slot is empty, starting from the sample dataset")
		return SeedState(), nil
	}
	if err != nil {
		return gradebook.State{}, err
	}

	st, err := Decode(data)
	if err != nil {
		g.log.Error("persisted state is malformed", logger.Err(err), logger.Int("bytes", len(data)))
		return gradebook.State{}, err
	}

	g.log.Debug("state loaded",
		logger.Int("students", len(st.Students)),
		logger.Int("assessments", len(st.Assessments)),
		logger.Int("grades", len(st.Grades)),
	)
	return st, nil
}

// Save overwrites the slot with st. Last writer wins.
func (g *Gateway) Save(ctx context.Context, st gradebook.State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err = g.slot.Write(ctx, data)
	g.observe("save", start, err)
	if err != nil {
		g.log.Error("failed to write slot", logger.Err(err))
		return err
	}
	return nil
}

// GenerateID returns a fresh opaque identifier.
func (g *Gateway) GenerateID() string {
	return g.ids.GenerateID()
}

// Ping checks the backing store.
func (g *Gateway) Ping(ctx context.Context) error {
	return g.slot.Ping(ctx)
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.opTimeout)
}

func (g *Gateway) observe(op string, start time.Time, err error) {
	if g.observer == nil {
		return
	}
	if errors.Is(err, shared.ErrSlotEmpty) {
		err = nil
	}
	g.observer.ObserveSlot(op, time.Since(start), err)
}

// ══════════════════════════════════════════════════════════════════════════════
// BLOB FORMAT
// ══════════════════════════════════════════════════════════════════════════════

// Encode serializes the state as {"students":[...],"assessments":[...],"grades":[...]}.
func Encode(st gradebook.State) ([]byte, error) {
	data, err := json.Marshal(st.Normalize())
	if err != nil {
		return nil, shared.WrapError("slot", "Encode", shared.ErrInvalidFormat, "failed to serialize state", err)
	}
	return data, nil
}

// Decode parses a blob produced by Encode. No schema validation beyond JSON
// well-formedness is performed; missing collections become empty ones.
func Decode(data []byte) (gradebook.State, error) {
	var st gradebook.State
	if err := json.Unmarshal(data, &st); err != nil {
		return gradebook.State{}, shared.WrapError("slot", "Load", shared.ErrCorruptState, "persisted state is malformed", err)
	}
	return st.Normalize(), nil
}
