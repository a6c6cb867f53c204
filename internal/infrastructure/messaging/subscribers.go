package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUDIT LOG
// ══════════════════════════════════════════════════════════════════════════════

// AuditLogHandler writes one structured log line per event.
func AuditLogHandler(log *logger.Logger) shared.EventHandler {
	log = log.With(logger.Component("audit"))
	return func(event shared.Event) error {
		fields := []logger.Field{
			logger.String("event_type", string(event.EventType())),
			logger.String("aggregate_id", event.AggregateID()),
			logger.Time("occurred_at", event.OccurredAt()),
		}
		for k, v := range event.Payload() {
			fields = append(fields, logger.Any(k, v))
		}
		log.Info("gradebook changed", fields...)
		return nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REDIS FORWARDER
// Publishes every event as an outbound audit feed on a Redis channel, for
// log shippers and dashboards outside the service. Nothing in the service
// consumes the channel, and the gradebook state never changes because of it.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultEventsChannel is the channel used by RedisForwarder.
const DefaultEventsChannel = "edutrack:events"

// Envelope is the wire form of a forwarded event.
type Envelope struct {
	InstanceID  string                 `json:"instance_id"`
	EventType   shared.EventType       `json:"event_type"`
	AggregateID string                 `json:"aggregate_id"`
	OccurredAt  time.Time              `json:"occurred_at"`
	Payload     map[string]interface{} `json:"payload"`
}

// NewEnvelope wraps event for forwarding.
func NewEnvelope(instanceID string, event shared.Event) Envelope {
	return Envelope{
		InstanceID:  instanceID,
		EventType:   event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Payload:     event.Payload(),
	}
}

// RedisForwarder returns a handler that PUBLISHes each event as JSON.
func RedisForwarder(client goredis.UniversalClient, channel string, timeout time.Duration) shared.EventHandler {
	if channel == "" {
		channel = DefaultEventsChannel
	}
	instanceID := generateInstanceID()

	return func(event shared.Event) error {
		data, err := json.Marshal(NewEnvelope(instanceID, event))
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := client.Publish(ctx, channel, data).Err(); err != nil {
			return fmt.Errorf("redis publish: %w", err)
		}
		return nil
	}
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().UnixNano())
}
