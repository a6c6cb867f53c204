package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/application/command"
	"github.com/edutrack/edutrack-gradebook/internal/application/query"
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot serves the root endpoint with basic API information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":        "EduTrack Gradebook API",
		"version":     s.config.Version,
		"description": "Students, assessments and grades for one class",
		"endpoints": map[string]string{
			"health":      "/health",
			"state":       "/api/v1/state",
			"dashboard":   "/api/v1/dashboard",
			"students":    "/api/v1/students",
			"assessments": "/api/v1/assessments",
			"grades":      "/api/v1/grades",
		},
	}

	writeJSON(w, r, http.StatusOK, info)
}

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status)
			return
		}
		writeJSON(w, r, http.StatusOK, status)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	})
}

// handleReady handles the readiness probe endpoint (for Kubernetes).
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Ready {
			writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{
				"status": "not_ready",
				"reason": status.Message,
			})
			return
		}
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// STATE & DASHBOARD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetState returns the whole dataset. The fingerprint doubles as a
// strong ETag, so a client polling with If-None-Match gets 304 until
// something changes.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	dto, err := s.deps.GetStateHandler.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	etag := `"` + dto.Fingerprint + `"`
	w.Header().Set("ETag", etag)
	if etagMatches(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.State)
}

// etagMatches implements the weak comparison of If-None-Match.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// handleGetDashboard serves the teacher dashboard.
//
// Query params:
//   - recent: number of latest grades (default: 5, max: 50)
func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	q := query.GetDashboardQuery{
		RecentLimit: getQueryParamInt(r, "recent", query.DefaultRecentLimit),
	}

	dto, err := s.deps.GetDashboardHandler.Handle(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto)
}

// handleResetState restores the sample dataset. Requires ?confirm=true and
// the admin.reset feature.
func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureAdminReset) {
		writeFeatureDisabled(w, r, config.FeatureAdminReset)
		return
	}

	ctx := withConfirmation(r.Context(), getQueryParamBool(r, "confirm"))
	result, err := s.deps.ResetStateHandler.Handle(ctx, command.ResetStateCommand{
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !result.Applied {
		writeConfirmationRequired(w, r, gradebook.PromptResetState)
		return
	}

	writeJSON(w, r, http.StatusOK, result.State)
}

// ══════════════════════════════════════════════════════════════════════════════
// CONFIRMATION GATE
// ══════════════════════════════════════════════════════════════════════════════

type confirmationKey struct{}

func withConfirmation(ctx context.Context, yes bool) context.Context {
	return context.WithValue(ctx, confirmationKey{}, yes)
}

// RequestConfirmer answers the confirmation gate from the request: a delete
// or reset goes ahead only when the client sent ?confirm=true. Requests that
// did not pass through this server always decline.
func RequestConfirmer() gradebook.Confirmer {
	return gradebook.ConfirmerFunc(func(ctx context.Context, _ string) bool {
		yes, _ := ctx.Value(confirmationKey{}).(bool)
		return yes
	})
}
