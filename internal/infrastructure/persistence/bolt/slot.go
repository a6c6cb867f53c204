// Package bolt stores the slot in a local bbolt database file. It is the
// default backend: one file on disk, no server.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// Bucket holds every slot written by this package.
var Bucket = []byte("Slots")

// Slot is one key of the Slots bucket.
type Slot struct {
	db  *bbolt.DB
	key string
}

// Open opens (or creates) the database at path and returns the slot named key.
func Open(path, key string) (*Slot, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bolt: create directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: create bucket: %w", err)
	}

	return &Slot{db: db, key: key}, nil
}

// Name implements gradebook.Slot.
func (s *Slot) Name() string { return s.key }

// Read implements gradebook.Slot.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(Bucket)
		if b == nil {
			return shared.ErrSlotEmpty
		}
		v := b.Get([]byte(s.key))
		if v == nil {
			return shared.ErrSlotEmpty
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write implements gradebook.Slot.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(Bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(s.key), data)
	})
}

// Ping implements gradebook.Slot.
func (s *Slot) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

// Close implements gradebook.Slot.
func (s *Slot) Close() error {
	return s.db.Close()
}
