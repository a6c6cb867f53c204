package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/b2"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/bolt"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/memory"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/postgres"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/redis"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
	"github.com/edutrack/edutrack-gradebook/pkg/retry"
)

// Backend names accepted by OpenSlot.
const (
	BackendBolt     = "bolt"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendB2       = "b2"
)

// SlotOptions selects and configures a slot backend.
type SlotOptions struct {
	Backend string
	Key     string

	BoltPath string

	Redis redis.Config

	PostgresURL  string
	PostgresPool postgres.PoolOptions
	AutoMigrate  bool

	B2 b2.Config
}

// OpenSlot opens the configured backend. Remote backends are retried with
// backoff so the process survives a dependency that starts a little later.
func OpenSlot(ctx context.Context, opts SlotOptions, log *logger.Logger) (gradebook.Slot, error) {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Backend(opts.Backend), logger.Slot(opts.Key))

	onRetry := func(attempt int, err error, delay time.Duration) {
		log.Warn("slot backend not reachable, retrying",
			logger.Int("attempt", attempt), logger.Err(err), logger.Duration("delay", delay))
	}

	switch opts.Backend {
	case BackendBolt, "":
		slot, err := bolt.Open(opts.BoltPath, opts.Key)
		if err != nil {
			return nil, err
		}
		return slot, nil

	case BackendMemory:
		log.Warn("using the in-memory slot, data will not survive a restart")
		return memory.NewSlot(opts.Key), nil

	case BackendRedis:
		slot, err := retry.DoWithData(ctx, func(ctx context.Context) (*redis.Slot, error) {
			return redis.NewSlot(ctx, opts.Redis, opts.Key)
		}, retry.SlotConnectOptions(onRetry)...)
		if err != nil {
			return nil, err
		}
		return slot, nil

	case BackendPostgres:
		conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnectionFromURL(ctx, opts.PostgresURL, opts.PostgresPool)
		}, retry.SlotConnectOptions(onRetry)...)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			n, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				conn.Close()
				return nil, err
			}
			log.Info("migrations applied", logger.Int("count", n))
		}
		return postgres.NewSlot(conn, opts.Key), nil

	case BackendB2:
		slot, err := retry.DoWithData(ctx, func(ctx context.Context) (*b2.Slot, error) {
			return b2.NewSlot(ctx, opts.B2, opts.Key)
		}, retry.SlotConnectOptions(onRetry)...)
		if err != nil {
			return nil, err
		}
		log.Info("b2 slot ready", logger.String("url", slot.URL()))
		return slot, nil

	default:
		return nil, fmt.Errorf("persistence: unknown slot backend %q", opts.Backend)
	}
}
