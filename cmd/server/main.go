// Package main is the entry point of the EduTrack gradebook HTTP service.
//
// The process owns one gradebook document in the configured slot backend
// (bolt, redis, postgres or b2). Every mutation is persisted before it
// becomes visible, so a restart always resumes from the last saved state.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/app"
	httpserver "github.com/edutrack/edutrack-gradebook/internal/interface/http"
	"github.com/edutrack/edutrack-gradebook/internal/interface/http/handlers"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := app.NewLogger(cfg)
	log.Info("starting EduTrack gradebook",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Backend(cfg.Slot.Backend),
		logger.Slot(cfg.Slot.Key),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. SLOT, STATE AND HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	gb, err := app.Open(ctx, cfg, log, app.Options{
		Confirmer:     httpserver.RequestConfirmer(),
		ForwardEvents: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open gradebook: %w", err)
	}
	defer func() {
		log.Info("closing slot and event bus...")
		gb.Close()
	}()

	if st, err := gb.Holder.Snapshot(); err == nil {
		log.Info("gradebook loaded",
			logger.Int("students", len(st.Students)),
			logger.Int("assessments", len(st.Assessments)),
			logger.Int("grades", len(st.Grades)),
		)
	}

	stopBackups, err := gb.StartBackups(ctx)
	if err != nil {
		return fmt.Errorf("failed to start backups: %w", err)
	}
	defer stopBackups()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("slot", handlers.NewSlotCheck(gb.Gateway))
	health.AddCheck("state", handlers.NewStateCheck(gb.Holder))

	// ─────────────────────────────────────────────────────────────────────────
	// 5. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.EnableCORS = cfg.HTTP.EnableCORS
	httpCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMin
	httpCfg.EnableMetrics = gb.Metrics != nil
	httpCfg.Version = cfg.App.Version

	deps := httpserver.Dependencies{
		AddStudentHandler:       gb.Commands.AddStudent,
		DeleteStudentHandler:    gb.Commands.DeleteStudent,
		AddAssessmentHandler:    gb.Commands.AddAssessment,
		DeleteAssessmentHandler: gb.Commands.DeleteAssessment,
		UpsertGradeHandler:      gb.Commands.UpsertGrade,
		ResetStateHandler:       gb.Commands.ResetState,

		GetStateHandler:         gb.Queries.GetState,
		GetDashboardHandler:     gb.Queries.GetDashboard,
		GetStudentReportHandler: gb.Queries.GetStudentReport,
		FindStudentByNISHandler: gb.Queries.FindStudentByNIS,
		ListStudentsHandler:     gb.Queries.ListStudents,
		ListAssessmentsHandler:  gb.Queries.ListAssessments,
		ListGradesHandler:       gb.Queries.ListGrades,
		GetGradeHandler:         gb.Queries.GetGrade,
		DraftFeedbackHandler:    gb.Queries.DraftFeedback,
		AnalyzeClassHandler:     gb.Queries.AnalyzeClass,

		Features:      cfg.Features,
		Logger:        log,
		HealthChecker: health,
	}
	if gb.Metrics != nil {
		deps.Metrics = gb.Metrics
		deps.MetricsHandler = gb.Metrics.Handler()
	}

	server := httpserver.NewServer(httpCfg, deps)
	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 6. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("EduTrack gradebook is running",
		logger.String("http_address", server.Address()),
		logger.Bool("narrator_configured", gb.Gemini.Configured()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", logger.Err(err))
			return err
		}
	case <-ctx.Done():
	}

	timeout := cfg.App.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	log.Info("starting graceful shutdown...", logger.Duration("timeout", timeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to stop HTTP server gracefully", logger.Err(err))
		return err
	}

	log.Info("shutdown completed successfully")
	return nil
}
