package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

type fakeRow struct {
	payload string
	err     error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.payload
	return nil
}

type fakeStore struct {
	rows   map[string]string
	rowErr error
	execs  int
	closed bool
}

func (f *fakeStore) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs++
	f.rows[args[0].(string)] = args[1].(string)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakeStore) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.rowErr != nil {
		return fakeRow{err: f.rowErr}
	}
	payload, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{payload: payload}
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close()                     { f.closed = true }

func TestSlot_Read(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		rows      map[string]string
		rowErr    error
		want      string
		wantEmpty bool
	}{
		{name: "no row is an empty slot", rows: map[string]string{}, wantEmpty: true},
		{name: "stored row", rows: map[string]string{"edutrack_data_v1": `{"grades":[]}`}, want: `{"grades":[]}`},
		{name: "query failure", rows: map[string]string{}, rowErr: errors.New("conn reset")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Slot{conn: &fakeStore{rows: tt.rows, rowErr: tt.rowErr}, key: "edutrack_data_v1"}

			data, err := s.Read(ctx)
			switch {
			case tt.wantEmpty:
				assert.ErrorIs(t, err, shared.ErrSlotEmpty)
			case tt.rowErr != nil:
				require.Error(t, err)
				assert.NotErrorIs(t, err, shared.ErrSlotEmpty)
				assert.ErrorIs(t, err, tt.rowErr)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(data))
			}
		})
	}
}

func TestSlot_WriteReplacesRow(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{rows: map[string]string{}}
	s := &Slot{conn: store, key: "edutrack_data_v1"}

	require.NoError(t, s.Write(ctx, []byte(`{"students":[]}`)))
	require.NoError(t, s.Write(ctx, []byte(`{"students":[{"id":"s1"}]}`)))

	data, err := s.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"students":[{"id":"s1"}]}`, string(data))
	assert.Equal(t, 2, store.execs)

	require.NoError(t, s.Close())
	assert.True(t, store.closed)
}
