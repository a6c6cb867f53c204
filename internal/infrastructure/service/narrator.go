// Package service adapts external collaborators to the domain ports.
package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/pkg/circuitbreaker"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// Fixed texts returned in place of generated content.
const (
	MsgMissingKey     = "Error: API Key missing."
	MsgFeedbackFailed = "Maaf, terjadi kesalahan saat membuat feedback otomatis."
	MsgAnalysisFailed = "Gagal melakukan analisis AI."
	MsgFeedbackEmpty  = "Tidak dapat menghasilkan feedback."
	MsgAnalysisEmpty  = "Tidak dapat menganalisis data."
)

// Narrative kinds and outcomes reported to the observer.
const (
	KindFeedback = "feedback"
	KindAnalysis = "analysis"

	OutcomeOK           = "ok"
	OutcomeEmpty        = "empty"
	OutcomeUnconfigured = "unconfigured"
	OutcomeFailed       = "failed"
	OutcomeRejected     = "rejected"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// TextGenerator turns a prompt into text. *gemini.Client implements it.
type TextGenerator interface {
	Configured() bool
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// NarrativeObserver records the outcome of every narrator call.
type NarrativeObserver interface {
	ObserveNarrative(kind, outcome string, d time.Duration)
}

// ══════════════════════════════════════════════════════════════════════════════
// NARRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Narrator implements gradebook.Narrator. It never returns an error: every
// failure becomes one of the fixed messages above.
type Narrator struct {
	gen      TextGenerator
	breaker  *circuitbreaker.CircuitBreaker
	log      *logger.Logger
	observer NarrativeObserver
}

var _ gradebook.Narrator = (*Narrator)(nil)

// NewNarrator creates a Narrator. breaker may be nil, in which case a default
// one is used; observer may be nil.
func NewNarrator(gen TextGenerator, breaker *circuitbreaker.CircuitBreaker, observer NarrativeObserver, log *logger.Logger) *Narrator {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("narrator"))
	if breaker == nil {
		breaker = circuitbreaker.NarratorBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		})
	}
	return &Narrator{gen: gen, breaker: breaker, log: log, observer: observer}
}

// GenerateFeedback drafts a short comment for one score.
func (n *Narrator) GenerateFeedback(ctx context.Context, studentName, assessmentTitle string, score float64, maxScore int) string {
	prompt := FeedbackPrompt(studentName, assessmentTitle, score, maxScore)
	return n.generate(ctx, KindFeedback, prompt, MsgFeedbackFailed, MsgFeedbackEmpty)
}

// AnalyzeClassPerformance summarizes the scores of one assessment.
func (n *Narrator) AnalyzeClassPerformance(ctx context.Context, assessment gradebook.Assessment, grades []gradebook.Grade, students []gradebook.Student) string {
	lines := gradebook.ClassScores(assessment.ID, grades, students)
	prompt := AnalysisPrompt(assessment, lines)
	return n.generate(ctx, KindAnalysis, prompt, MsgAnalysisFailed, MsgAnalysisEmpty)
}

func (n *Narrator) generate(ctx context.Context, kind, prompt, failed, empty string) string {
	start := time.Now()

	if n.gen == nil || !n.gen.Configured() {
		n.log.Warn("narrator API key not found", logger.String("kind", kind))
		n.observe(kind, OutcomeUnconfigured, start)
		return MsgMissingKey
	}

	text, err := circuitbreaker.ExecuteWithResult(ctx, n.breaker, func(ctx context.Context) (string, error) {
		return n.gen.GenerateText(ctx, prompt)
	})
	if err != nil {
		outcome := OutcomeFailed
		if circuitbreaker.IsRejected(err) {
			outcome = OutcomeRejected
		}
		n.log.Error("narrator request failed",
			logger.String("kind", kind),
			logger.String("outcome", outcome),
			logger.Err(err),
		)
		n.observe(kind, outcome, start)
		return failed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		n.observe(kind, OutcomeEmpty, start)
		return empty
	}

	n.observe(kind, OutcomeOK, start)
	return text
}

func (n *Narrator) observe(kind, outcome string, start time.Time) {
	if n.observer != nil {
		n.observer.ObserveNarrative(kind, outcome, time.Since(start))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROMPTS
// ══════════════════════════════════════════════════════════════════════════════

// FeedbackPrompt builds the feedback prompt.
func FeedbackPrompt(studentName, assessmentTitle string, score float64, maxScore int) string {
	var b strings.Builder
	b.WriteString("Bertindaklah sebagai guru yang bijak dan suportif di Indonesia.\n")
	fmt.Fprintf(&b, "Berikan komentar umpan balik singkat (maksimal 2 kalimat) untuk siswa bernama %s.\n\n", studentName)
	b.WriteString("Konteks:\n")
	fmt.Fprintf(&b, "- Ujian: %s\n", assessmentTitle)
	fmt.Fprintf(&b, "- Nilai: %s dari %d\n\n", formatScore(score), maxScore)
	b.WriteString("Jika nilai rendah (<60%), berikan semangat dan saran belajar.\n")
	b.WriteString("Jika nilai sedang (60-80), berikan apresiasi dan dorongan untuk lebih teliti.\n")
	b.WriteString("Jika nilai tinggi (>80%), berikan pujian.\n")
	b.WriteString("Gunakan Bahasa Indonesia yang formal namun hangat.\n")
	return b.String()
}

// AnalysisPrompt builds the class analysis prompt from "name: score" lines.
func AnalysisPrompt(a gradebook.Assessment, lines []gradebook.ScoreLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Analisis performa kelas untuk ujian: %q (Mata Pelajaran: %s).\n", a.Title, a.Subject)
	fmt.Fprintf(&b, "Nilai Maksimal: %d.\n\n", a.MaxScore)
	b.WriteString("Data Nilai Siswa:\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%s: %s\n", l.StudentName, formatScore(l.Score))
	}
	b.WriteString("\nBerikan ringkasan analisis dalam format bullet points markdown:\n")
	b.WriteString("1. Rata-rata kelas (perkiraan).\n")
	b.WriteString("2. Siswa dengan performa tertinggi.\n")
	b.WriteString("3. Area yang mungkin perlu dievaluasi ulang oleh guru (jika banyak nilai rendah).\n")
	b.WriteString("4. Saran strategi pengajaran selanjutnya.\n")
	b.WriteString("Gunakan Bahasa Indonesia.\n")
	return b.String()
}

// formatScore prints 85 as "85" and 72.5 as "72.5".
func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
