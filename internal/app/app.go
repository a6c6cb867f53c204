// Package app assembles the gradebook from configuration: slot backend,
// state holder, event bus subscribers, narrator and the CQRS handlers. Both
// the HTTP server and the CLI start from here.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/application/command"
	"github.com/edutrack/edutrack-gradebook/internal/application/query"
	"github.com/edutrack/edutrack-gradebook/internal/application/state"
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/external/gemini"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/messaging"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/metrics"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/b2"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/postgres"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/persistence/redis"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/scheduler"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/scheduler/jobs"
	"github.com/edutrack/edutrack-gradebook/internal/infrastructure/service"
	"github.com/edutrack/edutrack-gradebook/pkg/circuitbreaker"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION GRAPH
// ══════════════════════════════════════════════════════════════════════════════

// Commands groups the write-side handlers.
type Commands struct {
	AddStudent       *command.AddStudentHandler
	DeleteStudent    *command.DeleteStudentHandler
	AddAssessment    *command.AddAssessmentHandler
	DeleteAssessment *command.DeleteAssessmentHandler
	UpsertGrade      *command.UpsertGradeHandler
	ResetState       *command.ResetStateHandler
}

// Queries groups the read-side handlers.
type Queries struct {
	GetState         *query.GetStateHandler
	GetDashboard     *query.GetDashboardHandler
	GetStudentReport *query.GetStudentReportHandler
	FindStudentByNIS *query.FindStudentByNISHandler
	ListStudents     *query.ListStudentsHandler
	ListAssessments  *query.ListAssessmentsHandler
	ListGrades       *query.ListGradesHandler
	GetGrade         *query.GetGradeHandler
	DraftFeedback    *query.DraftFeedbackHandler
	AnalyzeClass     *query.AnalyzeClassHandler
}

// App is a loaded gradebook ready to serve.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Slot     gradebook.Slot
	Gateway  *persistence.Gateway
	Holder   *state.Holder
	Bus      *messaging.InMemoryEventBus
	Metrics  *metrics.Metrics
	Gemini   *gemini.Client
	Narrator *service.Narrator

	Commands Commands
	Queries  Queries
}

// Options tunes Open for the calling process.
type Options struct {
	// Confirmer answers the delete and reset gates. Nil declines everything.
	Confirmer gradebook.Confirmer

	// ForwardEvents publishes mutations on Redis when the slot lives there.
	ForwardEvents bool
}

// NewLogger builds the process logger from the observability settings.
func NewLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.ParseFormat(cfg.Observability.LogFormat),
		AddCaller: cfg.App.Debug,
	}).With(logger.String("app", cfg.App.Name))
}

// Open connects the slot and loads the state. A slot that holds malformed
// data is an error; the caller must not start in that case.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, opts Options) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log}

	if cfg.Observability.MetricsEnabled {
		a.Metrics = metrics.New()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. Durable slot
	// ─────────────────────────────────────────────────────────────────────────
	slot, err := persistence.OpenSlot(ctx, slotOptions(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("open slot: %w", err)
	}
	a.Slot = slot

	gwOpts := []persistence.Option{
		persistence.WithLogger(log),
		persistence.WithOpTimeout(cfg.Slot.OpTimeout),
	}
	if a.Metrics != nil {
		gwOpts = append(gwOpts, persistence.WithObserver(a.Metrics))
	}
	a.Gateway = persistence.NewGateway(slot, gwOpts...)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Event bus and state holder
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.Logger = log
	a.Bus = messaging.NewInMemoryEventBus(busCfg)
	a.Holder = state.NewHolder(a.Gateway, a.Bus, log)

	if err := a.subscribe(opts); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.Holder.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if a.Metrics != nil {
		if st, err := a.Holder.Snapshot(); err == nil {
			a.Metrics.SetRecords(st)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Narrator
	// ─────────────────────────────────────────────────────────────────────────
	a.Gemini = gemini.NewClient(gemini.ClientConfig{
		BaseURL:           cfg.Gemini.BaseURL,
		APIKey:            cfg.Gemini.APIKey,
		Model:             cfg.Gemini.Model,
		Timeout:           cfg.Gemini.RequestTimeout,
		RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		Logger:            log,
	})
	if !a.Gemini.Configured() && cfg.Features.NarrativeEnabled() {
		log.Warn("GEMINI_API_KEY is not set, narrative features will answer with a fixed message")
	}

	var observer service.NarrativeObserver
	if a.Metrics != nil {
		observer = a.Metrics
	}
	a.Narrator = service.NewNarrator(a.Gemini, narratorBreaker(cfg, log), observer, log)

	a.Commands, a.Queries = NewHandlers(a.Holder, a.Gateway, a.Narrator, opts.Confirmer, a.Slot.Name(), log)
	return a, nil
}

func (a *App) subscribe(opts Options) error {
	if err := a.Bus.SubscribeAll(messaging.AuditLogHandler(a.Log)); err != nil {
		return err
	}
	if a.Metrics != nil {
		if err := a.Bus.SubscribeAll(a.Metrics.EventHandler(a.Holder)); err != nil {
			return err
		}
	}
	if rs, ok := a.Slot.(*redis.Slot); ok && opts.ForwardEvents {
		timeout := a.Config.Redis.WriteTimeout
		if timeout <= 0 {
			timeout = 3 * time.Second
		}
		if err := a.Bus.SubscribeAll(messaging.RedisForwarder(rs.Client(), messaging.DefaultEventsChannel, timeout)); err != nil {
			return err
		}
		a.Log.Info("forwarding gradebook events", logger.String("channel", messaging.DefaultEventsChannel))
	}
	return nil
}

// NewHandlers wires the command and query handlers over one state holder.
func NewHandlers(h *state.Holder, ids gradebook.IDGenerator, narrator gradebook.Narrator, confirm gradebook.Confirmer, slotName string, log *logger.Logger) (Commands, Queries) {
	cmds := Commands{
		AddStudent:       command.NewAddStudentHandler(h, ids),
		DeleteStudent:    command.NewDeleteStudentHandler(h, confirm, log),
		AddAssessment:    command.NewAddAssessmentHandler(h, ids),
		DeleteAssessment: command.NewDeleteAssessmentHandler(h, confirm, log),
		UpsertGrade:      command.NewUpsertGradeHandler(h, ids),
		ResetState:       command.NewResetStateHandler(h, confirm, persistence.SeedState, slotName, log),
	}
	qs := Queries{
		GetState:         query.NewGetStateHandler(h),
		GetDashboard:     query.NewGetDashboardHandler(h),
		GetStudentReport: query.NewGetStudentReportHandler(h),
		FindStudentByNIS: query.NewFindStudentByNISHandler(h),
		ListStudents:     query.NewListStudentsHandler(h),
		ListAssessments:  query.NewListAssessmentsHandler(h),
		ListGrades:       query.NewListGradesHandler(h),
		GetGrade:         query.NewGetGradeHandler(h),
		DraftFeedback:    query.NewDraftFeedbackHandler(h, narrator),
		AnalyzeClass:     query.NewAnalyzeClassHandler(h, narrator),
	}
	return cmds, qs
}

// StartBackups schedules the copy of the state into the backup slot when
// BACKUP_INTERVAL is set. The returned stop function is always non-nil.
func (a *App) StartBackups(ctx context.Context) (func(), error) {
	cfg := a.Config.Backup
	if !cfg.Enabled() {
		return func() {}, nil
	}

	opts := slotOptions(a.Config)
	opts.Backend = cfg.Backend
	opts.Key = cfg.Key
	opts.BoltPath = cfg.BoltPath

	slot, err := persistence.OpenSlot(ctx, opts, a.Log)
	if err != nil {
		return nil, fmt.Errorf("open backup slot: %w", err)
	}
	target := persistence.NewGateway(slot,
		persistence.WithLogger(a.Log),
		persistence.WithOpTimeout(a.Config.Slot.OpTimeout),
	)
	job := jobs.NewBackupStateJob(a.Holder, target, query.Fingerprint, a.Config.Slot.OpTimeout, a.Log)

	sched := scheduler.New(scheduler.Config{Logger: a.Log})
	if a.Metrics != nil {
		sched.OnJobComplete(func(r scheduler.JobResult) {
			a.Metrics.ObserveJob(r.JobName, r.Duration, r.Error)
		})
	}
	if err := sched.Register(job, scheduler.Interval{Every: cfg.Interval, Align: true}); err != nil {
		_ = slot.Close()
		return nil, err
	}
	if err := sched.Start(ctx); err != nil {
		_ = slot.Close()
		return nil, err
	}

	return func() {
		if err := sched.Stop(); err != nil {
			a.Log.Warn("scheduler stop failed", logger.Err(err))
		}
		if err := slot.Close(); err != nil {
			a.Log.Warn("backup slot close failed", logger.Err(err))
		}
	}, nil
}

// Close drains the event bus and releases the slot backend.
func (a *App) Close() {
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			a.Log.Warn("event bus close failed", logger.Err(err))
		}
	}
	if a.Slot != nil {
		if err := a.Slot.Close(); err != nil {
			a.Log.Warn("slot close failed", logger.Err(err))
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG MAPPING
// ══════════════════════════════════════════════════════════════════════════════

func slotOptions(cfg *config.Config) persistence.SlotOptions {
	return persistence.SlotOptions{
		Backend:  cfg.Slot.Backend,
		Key:      cfg.Slot.Key,
		BoltPath: cfg.Slot.BoltPath,
		Redis: redis.Config{
			URL:          cfg.Redis.URL,
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		},
		PostgresURL: cfg.Database.URL,
		PostgresPool: postgres.PoolOptions{
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		},
		AutoMigrate: cfg.Database.AutoMigrate,
		B2: b2.Config{
			AccountID: cfg.B2.AccountID,
			AppKey:    cfg.B2.AppKey,
			Bucket:    cfg.B2.Bucket,
			Prefix:    cfg.B2.Prefix,
		},
	}
}

func narratorBreaker(cfg *config.Config, log *logger.Logger) *circuitbreaker.CircuitBreaker {
	threshold := cfg.Gemini.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = 3
	}
	timeout := cfg.Gemini.CircuitBreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return circuitbreaker.New("narrator",
		circuitbreaker.WithFailureThreshold(threshold),
		circuitbreaker.WithSuccessThreshold(1),
		circuitbreaker.WithTimeout(timeout),
		circuitbreaker.WithMaxHalfOpenRequests(1),
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}),
	)
}
