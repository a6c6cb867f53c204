package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/application/query"
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/memory"
)

type mutableState struct {
	st gradebook.State
}

func (m *mutableState) Snapshot() (gradebook.State, error) { return m.st, nil }

func TestBackupStateJob_CopiesOnlyChanges(t *testing.T) {
	ctx := context.Background()
	src := &mutableState{st: persistence.SeedState()}
	backup := memory.NewSlot("edutrack_data_v1_backup")
	job := NewBackupStateJob(src, persistence.NewGateway(backup), query.Fingerprint, 0, nil)

	require.NoError(t, job.Run(ctx))
	assert.True(t, job.LastStats().Written)
	assert.Equal(t, 1, backup.Writes())

	require.NoError(t, job.Run(ctx))
	assert.False(t, job.LastStats().Written)
	assert.Equal(t, 1, backup.Writes())

	src.st, _ = gradebook.AddStudent(src.st, gradebook.NewStudent{Name: "Dewi"}, "s4")
	require.NoError(t, job.Run(ctx))
	assert.True(t, job.LastStats().Written)
	assert.Equal(t, 2, backup.Writes())

	restored, err := persistence.NewGateway(backup).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, restored.Students, 4)
}

func TestBackupStateJob_RetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	backup := memory.NewSlot("copy")
	backup.FailWrites = errors.New("bucket unavailable")
	job := NewBackupStateJob(&mutableState{st: persistence.SeedState()}, persistence.NewGateway(backup), query.Fingerprint, 0, nil)

	assert.Error(t, job.Run(ctx))
	assert.False(t, job.LastStats().Written)

	backup.FailWrites = nil
	require.NoError(t, job.Run(ctx))
	assert.True(t, job.LastStats().Written)
}
