package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var order []string
	require.NoError(t, bus.Subscribe(shared.EventStudentAdded, func(shared.Event) error {
		order = append(order, "typed")
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		order = append(order, "all")
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewStudentAddedEvent("s1", "1001", "Budi", "10A")))
	require.NoError(t, bus.Publish(shared.NewGradeRecordedEvent("g1", "s1", "a1", 85, true)))

	assert.Equal(t, []string{"typed", "all", "all"}, order)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Published[shared.EventStudentAdded])
	assert.Equal(t, int64(3), snap.HandlerExecutions)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var reached atomic.Bool
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("bad handler") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		reached.Store(true)
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewStateResetEvent("k", 3, 2, 2)))
	assert.True(t, reached.Load())
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_Close(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())

	var calls atomic.Int32
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls.Add(1)
		return nil
	}))
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewStudentDeletedEvent("s1", 0)))
	}
	assert.Equal(t, int32(10), calls.Load(), "every publish has run its handlers before returning")

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewStudentDeletedEvent("s1", 0)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventStudentDeleted, func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Equal(t, int32(10), calls.Load())
}

func TestAuditLogHandler(t *testing.T) {
	var buf bytes.Buffer
	opts := logger.DefaultOptions()
	opts.Output = &buf
	log := logger.New(opts)

	err := AuditLogHandler(log)(shared.NewAssessmentDeletedEvent("a1", 2))
	require.NoError(t, err)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gradebook changed", entry["message"])
	fields, ok := entry["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "assessment.deleted", fields["event_type"])
	assert.Equal(t, "a1", fields["aggregate_id"])
	assert.Equal(t, float64(2), fields["grades_removed"])
	assert.Equal(t, "audit", fields["component"])
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope("host-1", shared.NewGradeRecordedEvent("g1", "s1", "a1", 85, false))

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"grade.recorded"`)
	assert.Contains(t, string(data), `"instance_id":"host-1"`)
}

// recordingPublisher captures PUBLISH calls; any other Redis command panics.
type recordingPublisher struct {
	goredis.UniversalClient

	channels []string
	messages [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd {
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, message.([]byte))
	return goredis.NewIntResult(0, p.err)
}

func TestRedisForwarder_PublishesAuditFeed(t *testing.T) {
	pub := &recordingPublisher{}
	forward := RedisForwarder(pub, "", time.Second)

	require.NoError(t, forward(shared.NewStudentDeletedEvent("s1", 2)))
	require.NoError(t, forward(shared.NewGradeRecordedEvent("g1", "s2", "a1", 92, true)))

	assert.Equal(t, []string{DefaultEventsChannel, DefaultEventsChannel}, pub.channels)

	var env Envelope
	require.NoError(t, json.Unmarshal(pub.messages[0], &env))
	assert.Equal(t, shared.EventStudentDeleted, env.EventType)
	assert.Equal(t, "s1", env.AggregateID)
	assert.NotEmpty(t, env.InstanceID)

	pub.err = errors.New("connection reset")
	assert.Error(t, forward(shared.NewStudentDeletedEvent("s3", 0)))
}
