package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

const (
	selectSlotSQL = `SELECT payload::text FROM app_slots WHERE slot_key = $1`

	upsertSlotSQL = `
		INSERT INTO app_slots (slot_key, payload, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (slot_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
)

// slotStore is the part of *Connection the slot uses.
type slotStore interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Slot is one row of app_slots. The whole blob is replaced on every write.
type Slot struct {
	conn slotStore
	key  string
}

// NewSlot returns the slot named key on conn. Migrations must have been
// applied beforehand.
func NewSlot(conn *Connection, key string) *Slot {
	return &Slot{conn: conn, key: key}
}

// Name implements gradebook.Slot.
func (s *Slot) Name() string { return s.key }

// Read implements gradebook.Slot.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.conn.QueryRow(ctx, selectSlotSQL, s.key).Scan(&payload)
	if IsNoRows(err) {
		return nil, shared.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: read slot %s: %w", s.key, err)
	}
	return []byte(payload), nil
}

// Write implements gradebook.Slot.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if _, err := s.conn.Exec(ctx, upsertSlotSQL, s.key, string(data)); err != nil {
		return fmt.Errorf("postgres: write slot %s: %w", s.key, err)
	}
	return nil
}

// Ping implements gradebook.Slot.
func (s *Slot) Ping(ctx context.Context) error {
	return s.conn.Ping(ctx)
}

// Close implements gradebook.Slot.
func (s *Slot) Close() error {
	s.conn.Close()
	return nil
}
