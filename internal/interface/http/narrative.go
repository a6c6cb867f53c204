package http

import (
	"net/http"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/application/query"
)

// ══════════════════════════════════════════════════════════════════════════════
// NARRATIVE HANDLERS
// Narrator failures come back as displayable text with status 200; only
// unknown ids and bad input are errors.
// ══════════════════════════════════════════════════════════════════════════════

// handleDraftFeedback drafts a comment for a grade that may not be saved yet.
func (s *Server) handleDraftFeedback(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureAIFeedbackDraft) {
		writeFeatureDisabled(w, r, config.FeatureAIFeedbackDraft)
		return
	}

	var req draftFeedbackRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	draft, err := s.deps.DraftFeedbackHandler.Handle(r.Context(), query.DraftFeedbackQuery{
		StudentID:    req.StudentID,
		AssessmentID: req.AssessmentID,
		Score:        *req.Score,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, draft)
}

// handleAnalyzeClass summarizes how the class did on one assessment.
func (s *Server) handleAnalyzeClass(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeatureAIClassAnalysis) {
		writeFeatureDisabled(w, r, config.FeatureAIClassAnalysis)
		return
	}

	analysis, err := s.deps.AnalyzeClassHandler.Handle(r.Context(), query.AnalyzeClassQuery{
		AssessmentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, analysis)
}
