package gradebook

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// These interfaces are the contract with the outside world.
// Implementations live in infrastructure and interface packages.
// ══════════════════════════════════════════════════════════════════════════════

// Slot is the single named durable location that holds the serialized state.
type Slot interface {
	// Name returns the slot key, e.g. "edutrack_data_v1".
	Name() string

	// Read returns the raw content of the slot.
	// Returns shared.ErrSlotEmpty when nothing has ever been written.
	Read(ctx context.Context) ([]byte, error)

	// Write overwrites the slot unconditionally.
	Write(ctx context.Context, data []byte) error

	// Ping checks that the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases the backing store.
	Close() error
}

// IDGenerator produces opaque identifiers that are never reused.
type IDGenerator interface {
	GenerateID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

// GenerateID implements IDGenerator.
func (f IDGeneratorFunc) GenerateID() string { return f() }

// Narrator is the external text-generation collaborator.
//
// Both methods always return displayable text. Missing credentials and
// transport failures are reported as fixed sentinel strings, never as errors.
type Narrator interface {
	// GenerateFeedback drafts a short comment for one student's score.
	GenerateFeedback(ctx context.Context, studentName, assessmentTitle string, score float64, maxScore int) string

	// AnalyzeClassPerformance summarizes how the class did on an assessment.
	AnalyzeClassPerformance(ctx context.Context, assessment Assessment, grades []Grade, students []Student) string
}

// Confirmer is the yes/no gate in front of destructive operations.
type Confirmer interface {
	// Confirm shows prompt to the operator and reports whether they agreed.
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmerFunc adapts a function to Confirmer.
type ConfirmerFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmerFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Fixed prompts of the confirmation gate.
const (
	PromptDeleteStudent    = "Yakin ingin menghapus siswa ini?"
	PromptDeleteAssessment = "Yakin ingin menghapus penilaian ini?"
	PromptResetState       = "Yakin ingin mengembalikan data ke contoh awal? Semua data akan hilang."
)
