// Package b2 stores the slot as one object in a Backblaze B2 bucket.
package b2

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/kurin/blazer/b2"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// Config identifies the bucket and the object prefix.
type Config struct {
	AccountID string
	AppKey    string
	Bucket    string
	// Prefix is prepended to the slot name, e.g. "backups/".
	Prefix string
}

// Slot is one B2 object. Every write uploads a new version of it.
type Slot struct {
	bucket *b2.Bucket
	name   string
	object string
}

// NewSlot authorizes against B2 and opens the bucket.
func NewSlot(ctx context.Context, cfg Config, name string, opts ...b2.ClientOption) (*Slot, error) {
	client, err := b2.NewClient(ctx, cfg.AccountID, cfg.AppKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("b2: failed to create client: %w", err)
	}

	bucket, err := client.Bucket(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("b2: failed to get bucket %s: %w", cfg.Bucket, err)
	}

	return &Slot{
		bucket: bucket,
		name:   name,
		object: ObjectName(cfg.Prefix, name),
	}, nil
}

// ObjectName returns the object that holds the slot.
func ObjectName(prefix, name string) string {
	return prefix + name + ".json"
}

// Name implements gradebook.Slot.
func (s *Slot) Name() string { return s.name }

// Read implements gradebook.Slot.
func (s *Slot) Read(ctx context.Context) ([]byte, error) {
	r := s.bucket.Object(s.object).NewReader(ctx)
	defer r.Close()

	data, err := io.ReadAll(r)
	if b2.IsNotExist(err) {
		return nil, shared.ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("b2: read %s: %w", s.object, err)
	}
	return data, nil
}

// Write implements gradebook.Slot.
func (s *Slot) Write(ctx context.Context, data []byte) error {
	w := s.bucket.Object(s.object).NewWriter(ctx)

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("b2: write %s: %w", s.object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("b2: close writer for %s: %w", s.object, err)
	}
	return nil
}

// Ping implements gradebook.Slot by reading the bucket attributes.
func (s *Slot) Ping(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("b2: bucket attrs: %w", err)
	}
	return nil
}

// Close implements gradebook.Slot. The B2 client holds no connections.
func (s *Slot) Close() error { return nil }

// URL returns the download URL of the slot object.
func (s *Slot) URL() string {
	return fmt.Sprintf("%s/file/%s/%s", s.bucket.BaseURL(), s.bucket.Name(), s.object)
}
