package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
	"github.com/edutrack/edutrack-gradebook/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      interface{}   `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`

	// Fields maps a request field to its validation message.
	Fields map[string]string `json:"fields,omitempty"`
}

// ResponseMeta contains response metadata.
type ResponseMeta struct {
	Timestamp  time.Time `json:"timestamp"`
	Version    string    `json:"version,omitempty"`
	TotalCount int       `json:"total_count,omitempty"`
}

// Error codes returned in APIError.Code.
const (
	CodeValidation           = "validation_error"
	CodeInvalidJSON          = "invalid_json"
	CodeNotFound             = "not_found"
	CodeConfirmationRequired = "confirmation_required"
	CodeFeatureDisabled      = "feature_disabled"
	CodeNotReady             = "not_ready"
	CodeInternal             = "internal_error"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSONWithMeta(w, r, status, data, nil)
}

// writeJSONWithMeta writes a JSON response with custom metadata.
func writeJSONWithMeta(w http.ResponseWriter, r *http.Request, status int, data interface{}, meta *ResponseMeta) {
	if meta == nil {
		meta = &ResponseMeta{}
	}
	meta.Timestamp = time.Now().UTC()
	meta.Version = "v1"

	write(w, status, JSONResponse{
		Success:   status >= 200 && status < 300,
		Data:      data,
		Meta:      meta,
		RequestID: getRequestID(r.Context()),
	})
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeAPIError(w, r, status, &APIError{Code: code, Message: message})
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, apiErr *APIError) {
	write(w, status, JSONResponse{
		Success:   false,
		Error:     apiErr,
		Meta:      &ResponseMeta{Timestamp: time.Now().UTC()},
		RequestID: getRequestID(r.Context()),
	})
}

func write(w http.ResponseWriter, status int, response JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeError maps an application error to a status code and envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *shared.DomainError
	message := err.Error()
	if errors.As(err, &de) {
		message = de.Message
	}

	switch {
	case errors.Is(err, shared.ErrNotLoaded):
		writeJSONError(w, r, http.StatusServiceUnavailable, CodeNotReady, "Gradebook is still loading")
	case shared.IsValidation(err):
		writeJSONError(w, r, http.StatusBadRequest, CodeValidation, message)
	case shared.IsNotFound(err):
		writeJSONError(w, r, http.StatusNotFound, CodeNotFound, message)
	case shared.IsDeclined(err):
		writeJSONError(w, r, http.StatusConflict, CodeConfirmationRequired, message)
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		writeJSONError(w, r, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred")
	}
}

// writeConfirmationRequired answers a declined destructive request.
func writeConfirmationRequired(w http.ResponseWriter, r *http.Request, prompt string) {
	writeAPIError(w, r, http.StatusConflict, &APIError{
		Code:    CodeConfirmationRequired,
		Message: prompt,
		Details: "repeat the request with ?confirm=true",
	})
}

func writeFeatureDisabled(w http.ResponseWriter, r *http.Request, feature string) {
	writeAPIError(w, r, http.StatusNotFound, &APIError{
		Code:    CodeFeatureDisabled,
		Message: "This feature is turned off",
		Details: feature,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DECODING
// ══════════════════════════════════════════════════════════════════════════════

// decodeAndValidate reads a JSON body into dst and runs the validator. It
// writes the error response itself and reports whether the handler may go on.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		msg := "Request body is not valid JSON"
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		writeAPIError(w, r, http.StatusBadRequest, &APIError{
			Code:    CodeInvalidJSON,
			Message: msg,
			Details: err.Error(),
		})
		return false
	}

	if fields := s.validator.Validate(dst); len(fields) > 0 {
		writeAPIError(w, r, http.StatusBadRequest, &APIError{
			Code:    CodeValidation,
			Message: "Request validation failed",
			Fields:  fields,
		})
		return false
	}
	return true
}
