package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

type fixedState struct{ st gradebook.State }

func (f fixedState) Snapshot() (gradebook.State, error) { return f.st, nil }

func TestMetrics_Observers(t *testing.T) {
	m := New()

	m.ObserveSlot("save", 3*time.Millisecond, nil)
	m.ObserveSlot("save", time.Millisecond, errors.New("disk full"))
	m.ObserveNarrative("feedback", "ok", time.Second)
	m.ObserveHTTP("GET /api/v1/students", http.MethodGet, 200, time.Millisecond)
	m.ObserveJob("backup_state", time.Second, nil)
	m.ObserveJob("backup_state", time.Second, errors.New("bucket gone"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.slotErrors.WithLabelValues("save")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.narrativeCalls.WithLabelValues("feedback", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET /api/v1/students", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("backup_state", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.jobRuns.WithLabelValues("backup_state", "error")))
}

func TestMetrics_EventHandler(t *testing.T) {
	m := New()
	st := gradebook.State{
		Students: []gradebook.Student{{ID: "s1"}, {ID: "s2"}},
		Grades:   []gradebook.Grade{{ID: "g1"}},
	}

	require.NoError(t, m.EventHandler(fixedState{st})(shared.NewStudentAddedEvent("s2", "", "", "")))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("student.added")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.records.WithLabelValues("students")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.records.WithLabelValues("assessments")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.records.WithLabelValues("grades")))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveNarrative("analysis", "failed", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `edutrack_narrative_requests_total{kind="analysis",outcome="failed"} 1`)
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}
