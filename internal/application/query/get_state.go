package query

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATE QUERY
// The whole aggregate plus a content fingerprint used as an HTTP ETag.
// ══════════════════════════════════════════════════════════════════════════════

// StateDTO is the full dataset.
type StateDTO struct {
	State gradebook.State

	// Fingerprint is the hex BLAKE2b-256 digest of the serialized state.
	Fingerprint string
}

// GetStateHandler returns the current state.
type GetStateHandler struct {
	state SnapshotReader
}

// NewGetStateHandler creates a new GetStateHandler.
func NewGetStateHandler(state SnapshotReader) *GetStateHandler {
	return &GetStateHandler{state: state}
}

// Handle executes the query.
func (h *GetStateHandler) Handle(_ context.Context) (*StateDTO, error) {
	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("get_state: %w", err)
	}

	fp, err := Fingerprint(st)
	if err != nil {
		return nil, fmt.Errorf("get_state: %w", err)
	}
	return &StateDTO{State: st.Normalize(), Fingerprint: fp}, nil
}

// Fingerprint digests the serialized form of st. Equal states give equal
// fingerprints.
func Fingerprint(st gradebook.State) (string, error) {
	data, err := json.Marshal(st.Normalize())
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
