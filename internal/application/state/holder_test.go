package state

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

type fakeStore struct {
	mu      sync.Mutex
	loaded  gradebook.State
	saved   []gradebook.State
	saveErr error
	loadErr error
}

func (f *fakeStore) Load(context.Context) (gradebook.State, error) {
	return f.loaded, f.loadErr
}

func (f *fakeStore) Save(_ context.Context, st gradebook.State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, st)
	return nil
}

type fakePublisher struct {
	events []shared.Event
	err    error
}

func (f *fakePublisher) Publish(e shared.Event) error {
	f.events = append(f.events, e)
	return f.err
}

func addStudent(name string) Mutation {
	return func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		next, s := gradebook.AddStudent(cur, gradebook.NewStudent{Name: name}, "id-"+name)
		return next, []shared.Event{shared.NewStudentAddedEvent(s.ID, s.NIS, s.Name, s.GradeLevel)}, nil
	}
}

func TestHolder_ApplyBeforeLoad(t *testing.T) {
	h := NewHolder(&fakeStore{}, nil, nil)

	_, _, err := h.Apply(context.Background(), addStudent("Ani"))
	assert.ErrorIs(t, err, shared.ErrNotLoaded)

	_, err = h.Snapshot()
	assert.ErrorIs(t, err, shared.ErrNotLoaded)
	assert.False(t, h.Loaded())
}

func TestHolder_ApplySavesThenPublishes(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	h := NewHolder(store, pub, nil)
	require.NoError(t, h.Load(context.Background()))

	next, events, err := h.Apply(context.Background(), addStudent("Ani"))
	require.NoError(t, err)

	assert.Len(t, next.Students, 1)
	assert.Len(t, events, 1)
	require.Len(t, store.saved, 1)
	assert.Equal(t, next, store.saved[0])
	assert.Len(t, pub.events, 1)

	snap, err := h.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, next, snap)
}

func TestHolder_FailedSaveKeepsPreviousSnapshot(t *testing.T) {
	boom := errors.New("slot unavailable")
	store := &fakeStore{}
	pub := &fakePublisher{}
	h := NewHolder(store, pub, nil)
	require.NoError(t, h.Load(context.Background()))
	_, _, err := h.Apply(context.Background(), addStudent("Ani"))
	require.NoError(t, err)

	store.saveErr = boom
	cur, events, err := h.Apply(context.Background(), addStudent("Budi"))

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, events)
	assert.Len(t, cur.Students, 1)
	snap, _ := h.Snapshot()
	assert.Len(t, snap.Students, 1)
	assert.Len(t, pub.events, 1, "nothing is published for a failed save")
}

func TestHolder_NoEventsMeansNoSave(t *testing.T) {
	store := &fakeStore{}
	h := NewHolder(store, nil, nil)
	require.NoError(t, h.Load(context.Background()))

	_, _, err := h.Apply(context.Background(), func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		next, _, _ := gradebook.DeleteStudent(cur, "missing")
		return next, nil, nil
	})

	require.NoError(t, err)
	assert.Empty(t, store.saved)
}

func TestHolder_MutationErrorIsReturned(t *testing.T) {
	store := &fakeStore{}
	h := NewHolder(store, nil, nil)
	require.NoError(t, h.Load(context.Background()))

	_, _, err := h.Apply(context.Background(), func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
		return cur, nil, shared.ErrDeleteDeclined
	})

	assert.ErrorIs(t, err, shared.ErrDeleteDeclined)
	assert.Empty(t, store.saved)
}

func TestHolder_PublishErrorDoesNotFailApply(t *testing.T) {
	h := NewHolder(&fakeStore{}, &fakePublisher{err: errors.New("subscriber failed")}, nil)
	require.NoError(t, h.Load(context.Background()))

	_, _, err := h.Apply(context.Background(), addStudent("Ani"))
	assert.NoError(t, err)
}

func TestHolder_LoadError(t *testing.T) {
	h := NewHolder(&fakeStore{loadErr: shared.ErrCorruptState}, nil, nil)

	err := h.Load(context.Background())
	assert.ErrorIs(t, err, shared.ErrCorruptState)
	assert.False(t, h.Loaded())
}

func TestHolder_ConcurrentApplyIsSerialized(t *testing.T) {
	store := &fakeStore{}
	h := NewHolder(store, nil, nil)
	require.NoError(t, h.Load(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = h.Apply(context.Background(), func(cur gradebook.State) (gradebook.State, []shared.Event, error) {
				next, s := gradebook.AddStudent(cur, gradebook.NewStudent{Name: "s"}, string(rune('A'+i)))
				return next, []shared.Event{shared.NewStudentAddedEvent(s.ID, "", s.Name, "")}, nil
			})
		}(i)
	}
	wg.Wait()

	snap, err := h.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Students, 50)
	assert.Len(t, store.saved, 50)
}
