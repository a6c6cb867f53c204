package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

func TestSlot_ReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "edutrack.db")
	ctx := context.Background()

	slot, err := Open(path, "edutrack_data_v1")
	require.NoError(t, err)

	_, err = slot.Read(ctx)
	assert.ErrorIs(t, err, shared.ErrSlotEmpty)

	require.NoError(t, slot.Write(ctx, []byte(`{"students":[]}`)))
	require.NoError(t, slot.Write(ctx, []byte(`{"grades":[]}`)))

	data, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"grades":[]}`, string(data))
	assert.NoError(t, slot.Ping(ctx))
	require.NoError(t, slot.Close())

	reopened, err := Open(path, "edutrack_data_v1")
	require.NoError(t, err)
	defer reopened.Close()

	data, err = reopened.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"grades":[]}`, string(data))
}

func TestSlot_KeysAreIndependent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edutrack.db")
	ctx := context.Background()

	a, err := Open(path, "a")
	require.NoError(t, err)
	require.NoError(t, a.Write(ctx, []byte("1")))
	require.NoError(t, a.Close())

	b, err := Open(path, "b")
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Read(ctx)
	assert.ErrorIs(t, err, shared.ErrSlotEmpty)
	assert.Equal(t, "b", b.Name())
}

func TestSlot_CancelledContext(t *testing.T) {
	slot, err := Open(filepath.Join(t.TempDir(), "x.db"), "k")
	require.NoError(t, err)
	defer slot.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, slot.Write(ctx, []byte("x")), context.Canceled)
}
