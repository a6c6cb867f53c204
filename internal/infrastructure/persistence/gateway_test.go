package persistence

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/memory"
)

type recordingObserver struct {
	mu  sync.Mutex
	ops []string
	err []error
}

func (r *recordingObserver) ObserveSlot(op string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.err = append(r.err, err)
}

func TestGateway_LoadEmptySlotReturnsSeed(t *testing.T) {
	obs := &recordingObserver{}
	gw := NewGateway(memory.NewSlot("edutrack_data_v1"), WithObserver(obs))

	st, err := gw.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SeedState(), st)
	assert.Len(t, st.Students, 3)
	assert.Len(t, st.Assessments, 2)
	assert.Len(t, st.Grades, 2)
	assert.Equal(t, []string{"load"}, obs.ops)
	assert.Nil(t, obs.err[0], "an empty slot is not a failed read")
}

func TestGateway_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	gw := NewGateway(memory.NewSlot("k"))

	st := SeedState()
	st, _ = gradebook.AddStudent(st, gradebook.NewStudent{NIS: "2001", Name: "Dewi", GradeLevel: "11B", Contact: "0812"}, gw.GenerateID())
	st, _, _ = gradebook.UpsertGrade(st, "s3", "a2", 77.5, "", gw.GenerateID())

	require.NoError(t, gw.Save(ctx, st))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestGateway_RoundTripOnBolt(t *testing.T) {
	ctx := context.Background()
	slot, err := OpenSlot(ctx, SlotOptions{
		Backend:  BackendBolt,
		Key:      "edutrack_data_v1",
		BoltPath: filepath.Join(t.TempDir(), "gradebook.db"),
	}, nil)
	require.NoError(t, err)
	defer slot.Close()

	gw := NewGateway(slot, WithOpTimeout(time.Second))
	st, _, _ := gradebook.DeleteStudent(SeedState(), "s1")
	require.NoError(t, gw.Save(ctx, st))

	loaded, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestGateway_CorruptSlotIsFatal(t *testing.T) {
	slot := memory.NewSlotWith("k", []byte(`{"students": [`))
	gw := NewGateway(slot)

	_, err := gw.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrCorruptState)
	assert.Equal(t, 0, slot.Writes(), "corrupt content is never overwritten by the loader")
}

func TestGateway_TransportErrorPassesThrough(t *testing.T) {
	boom := errors.New("disk gone")
	slot := memory.NewSlot("k")
	slot.FailWrites = boom
	gw := NewGateway(slot)

	err := gw.Save(context.Background(), SeedState())
	assert.ErrorIs(t, err, boom)
}

func TestDecode_LenientSchema(t *testing.T) {
	st, err := Decode([]byte(`{"students":[{"id":"x","name":"Tanpa NIS","extra":1}]}`))
	require.NoError(t, err)

	assert.Len(t, st.Students, 1)
	assert.Equal(t, "", st.Students[0].NIS)
	assert.NotNil(t, st.Assessments)
	assert.NotNil(t, st.Grades)
}

func TestEncode_FieldNames(t *testing.T) {
	data, err := Encode(gradebook.State{
		Students:    []gradebook.Student{{ID: "s", NIS: "1", Name: "N", GradeLevel: "10A"}},
		Assessments: []gradebook.Assessment{{ID: "a", Title: "T", Subject: "S", Date: "2024-01-01", MaxScore: 100}},
		Grades:      []gradebook.Grade{{ID: "g", StudentID: "s", AssessmentID: "a", Score: 90}},
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"students":[{"id":"s","nis":"1","name":"N","gradeLevel":"10A"}],
		"assessments":[{"id":"a","title":"T","subject":"S","date":"2024-01-01","maxScore":100}],
		"grades":[{"id":"g","studentId":"s","assessmentId":"a","score":90}]
	}`, string(data))

	empty, err := Encode(gradebook.State{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"students":[],"assessments":[],"grades":[]}`, string(empty))
}

func TestGateway_GenerateIDIsUnique(t *testing.T) {
	gw := NewGateway(memory.NewSlot("k"))
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := gw.GenerateID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestSeedState_FreshCopies(t *testing.T) {
	a := SeedState()
	a.Students[0].Name = "changed"
	assert.Equal(t, "Budi Santoso", SeedState().Students[0].Name)
}

func TestOpenSlot_UnknownBackend(t *testing.T) {
	_, err := OpenSlot(context.Background(), SlotOptions{Backend: "floppy"}, nil)
	assert.Error(t, err)
}
