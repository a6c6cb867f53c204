package http

import (
	"net/http"

	"github.com/edutrack/edutrack-gradebook/config"
	"github.com/edutrack/edutrack-gradebook/internal/application/command"
	"github.com/edutrack/edutrack-gradebook/internal/application/query"
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
)

// deleteResponse reports what a confirmed delete did. Deleting an id that
// does not exist is not an error; Removed is false.
type deleteResponse struct {
	Removed       bool `json:"removed"`
	GradesRemoved int  `json:"gradesRemoved"`
}

// upsertGradeResponse is the saved grade plus whether it was new.
type upsertGradeResponse struct {
	Grade   gradebook.Grade `json:"grade"`
	Created bool            `json:"created"`
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListStudents returns the roster with each student's average.
func (s *Server) handleListStudents(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.ListStudentsHandler.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}

// handleAddStudent creates a student.
func (s *Server) handleAddStudent(w http.ResponseWriter, r *http.Request) {
	var req addStudentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.AddStudentHandler.Handle(r.Context(), command.AddStudentCommand{
		NIS:           req.NIS,
		Name:          req.Name,
		GradeLevel:    req.GradeLevel,
		Contact:       req.Contact,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, result.Student)
}

// handleDeleteStudent removes a student and all their grades.
//
// Query params:
//   - confirm: must be "true", otherwise 409 and nothing changes
func (s *Server) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	ctx := withConfirmation(r.Context(), getQueryParamBool(r, "confirm"))

	result, err := s.deps.DeleteStudentHandler.Handle(ctx, command.DeleteStudentCommand{
		StudentID:     r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !result.Applied {
		writeConfirmationRequired(w, r, gradebook.PromptDeleteStudent)
		return
	}

	writeJSON(w, r, http.StatusOK, deleteResponse{
		Removed:       result.Removed,
		GradesRemoved: result.GradesRemoved,
	})
}

// handleGetStudentReport returns one student's report card.
func (s *Server) handleGetStudentReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.deps.GetStudentReportHandler.Handle(r.Context(), query.GetStudentReportQuery{
		StudentID: r.PathValue("id"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, report)
}

// handleFindStudentByNIS is the student portal lookup. NIS values are not
// unique, so the response is always a list.
func (s *Server) handleFindStudentByNIS(w http.ResponseWriter, r *http.Request) {
	if !s.featureEnabled(config.FeaturePortalNISLookup) {
		writeFeatureDisabled(w, r, config.FeaturePortalNISLookup)
		return
	}

	reports, err := s.deps.FindStudentByNISHandler.Handle(r.Context(), query.FindStudentByNISQuery{
		NIS: r.PathValue("nis"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, reports, &ResponseMeta{TotalCount: len(reports)})
}

// ══════════════════════════════════════════════════════════════════════════════
// ASSESSMENT HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListAssessments returns every assessment with its grading progress.
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.ListAssessmentsHandler.Handle(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, items, &ResponseMeta{TotalCount: len(items)})
}

// handleAddAssessment creates an assessment.
func (s *Server) handleAddAssessment(w http.ResponseWriter, r *http.Request) {
	var req addAssessmentRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.AddAssessmentHandler.Handle(r.Context(), command.AddAssessmentCommand{
		Title:         req.Title,
		Subject:       req.Subject,
		Date:          req.Date,
		MaxScore:      req.MaxScore,
		Description:   req.Description,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, result.Assessment)
}

// handleDeleteAssessment removes an assessment and all its grades.
//
// Query params:
//   - confirm: must be "true", otherwise 409 and nothing changes
func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	ctx := withConfirmation(r.Context(), getQueryParamBool(r, "confirm"))

	result, err := s.deps.DeleteAssessmentHandler.Handle(ctx, command.DeleteAssessmentCommand{
		AssessmentID:  r.PathValue("id"),
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !result.Applied {
		writeConfirmationRequired(w, r, gradebook.PromptDeleteAssessment)
		return
	}

	writeJSON(w, r, http.StatusOK, deleteResponse{
		Removed:       result.Removed,
		GradesRemoved: result.GradesRemoved,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// GRADE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleListGrades lists grades with names resolved.
//
// Query params:
//   - studentId: only this student's grades
//   - assessmentId: only this assessment's grades
func (s *Server) handleListGrades(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.ListGradesHandler.Handle(r.Context(), query.ListGradesQuery{
		StudentID:    getQueryParam(r, "studentId", ""),
		AssessmentID: getQueryParam(r, "assessmentId", ""),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSONWithMeta(w, r, http.StatusOK, rows, &ResponseMeta{TotalCount: len(rows)})
}

// handleUpsertGrade creates or replaces the grade of a (student, assessment)
// pair. Responds 201 for a new grade and 200 for an update.
func (s *Server) handleUpsertGrade(w http.ResponseWriter, r *http.Request) {
	var req upsertGradeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := s.deps.UpsertGradeHandler.Handle(r.Context(), command.UpsertGradeCommand{
		StudentID:     req.StudentID,
		AssessmentID:  req.AssessmentID,
		Score:         *req.Score,
		Feedback:      req.Feedback,
		CorrelationID: getRequestID(r.Context()),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, upsertGradeResponse{Grade: result.Grade, Created: result.Created})
}

// handleGetGradeForm prefills the grading form for a pair.
//
// Query params:
//   - studentId, assessmentId: both required
func (s *Server) handleGetGradeForm(w http.ResponseWriter, r *http.Request) {
	form, err := s.deps.GetGradeHandler.Handle(r.Context(), query.GetGradeQuery{
		StudentID:    getQueryParam(r, "studentId", ""),
		AssessmentID: getQueryParam(r, "assessmentId", ""),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, form)
}
