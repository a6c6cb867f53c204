package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/pkg/circuitbreaker"
)

type fakeGenerator struct {
	configured bool
	text       string
	err        error
	prompts    []string
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

type recordedOutcome struct{ kind, outcome string }

type fakeObserver struct{ seen []recordedOutcome }

func (f *fakeObserver) ObserveNarrative(kind, outcome string, _ time.Duration) {
	f.seen = append(f.seen, recordedOutcome{kind, outcome})
}

var (
	algebra = gradebook.Assessment{ID: "a1", Title: "UH Matematika Bab 1", Subject: "Matematika", MaxScore: 100}
	roster  = []gradebook.Student{{ID: "s1", Name: "Budi Santoso"}, {ID: "s2", Name: "Siti Aminah"}}
	scores  = []gradebook.Grade{
		{ID: "g1", StudentID: "s1", AssessmentID: "a1", Score: 85},
		{ID: "g2", StudentID: "s2", AssessmentID: "a1", Score: 92},
		{ID: "g3", StudentID: "gone", AssessmentID: "a1", Score: 40},
		{ID: "g4", StudentID: "s1", AssessmentID: "a2", Score: 10},
	}
)

func TestNarrator_MissingKey(t *testing.T) {
	gen := &fakeGenerator{configured: false}
	obs := &fakeObserver{}
	n := NewNarrator(gen, nil, obs, nil)

	assert.Equal(t, MsgMissingKey, n.GenerateFeedback(context.Background(), "Budi", "UH", 85, 100))
	assert.Equal(t, MsgMissingKey, n.AnalyzeClassPerformance(context.Background(), algebra, scores, roster))
	assert.Empty(t, gen.prompts)
	assert.Equal(t, []recordedOutcome{{KindFeedback, OutcomeUnconfigured}, {KindAnalysis, OutcomeUnconfigured}}, obs.seen)
}

func TestNarrator_NilGeneratorIsUnconfigured(t *testing.T) {
	n := NewNarrator(nil, nil, nil, nil)
	assert.Equal(t, MsgMissingKey, n.GenerateFeedback(context.Background(), "Budi", "UH", 85, 100))
}

func TestNarrator_Success(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "  Pertahankan prestasimu!  "}
	n := NewNarrator(gen, nil, nil, nil)

	out := n.GenerateFeedback(context.Background(), "Budi Santoso", "UH Matematika Bab 1", 72.5, 100)

	assert.Equal(t, "Pertahankan prestasimu!", out)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "siswa bernama Budi Santoso")
	assert.Contains(t, gen.prompts[0], "- Nilai: 72.5 dari 100")
}

func TestNarrator_TransportFailure(t *testing.T) {
	gen := &fakeGenerator{configured: true, err: errors.New("connection reset")}
	obs := &fakeObserver{}
	n := NewNarrator(gen, nil, obs, nil)

	assert.Equal(t, MsgFeedbackFailed, n.GenerateFeedback(context.Background(), "Budi", "UH", 85, 100))
	assert.Equal(t, MsgAnalysisFailed, n.AnalyzeClassPerformance(context.Background(), algebra, scores, roster))
	assert.Equal(t, OutcomeFailed, obs.seen[0].outcome)
}

func TestNarrator_EmptyText(t *testing.T) {
	gen := &fakeGenerator{configured: true, text: "\n"}
	n := NewNarrator(gen, nil, nil, nil)

	assert.Equal(t, MsgFeedbackEmpty, n.GenerateFeedback(context.Background(), "Budi", "UH", 85, 100))
	assert.Equal(t, MsgAnalysisEmpty, n.AnalyzeClassPerformance(context.Background(), algebra, scores, roster))
}

func TestNarrator_OpenCircuitIsAFailure(t *testing.T) {
	gen := &fakeGenerator{configured: true, err: errors.New("503")}
	obs := &fakeObserver{}
	breaker := circuitbreaker.New("test", circuitbreaker.WithFailureThreshold(1), circuitbreaker.WithTimeout(time.Hour))
	n := NewNarrator(gen, breaker, obs, nil)

	n.GenerateFeedback(context.Background(), "Budi", "UH", 85, 100)
	out := n.GenerateFeedback(context.Background(), "Budi", "UH", 85, 100)

	assert.Equal(t, MsgFeedbackFailed, out)
	assert.Len(t, gen.prompts, 1, "the open circuit short-circuits the second call")
	assert.Equal(t, OutcomeRejected, obs.seen[1].outcome)
}

func TestAnalysisPrompt(t *testing.T) {
	lines := gradebook.ClassScores(algebra.ID, scores, roster)
	prompt := AnalysisPrompt(algebra, lines)

	assert.Contains(t, prompt, `"UH Matematika Bab 1" (Mata Pelajaran: Matematika)`)
	assert.Contains(t, prompt, "Nilai Maksimal: 100.")
	assert.Contains(t, prompt, "Budi Santoso: 85\n")
	assert.Contains(t, prompt, "Siti Aminah: 92\n")
	assert.Contains(t, prompt, "Unknown: 40\n")
	assert.NotContains(t, prompt, ": 10\n")
}
