package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
	"github.com/edutrack/edutrack-gradebook/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT FEEDBACK QUERY
// Asks the narrator for a feedback comment. The draft is returned to the
// caller and never written into the stored grade; saving it is a separate
// upsert. A second identical request while one is outstanding joins it.
// ══════════════════════════════════════════════════════════════════════════════

// DraftFeedbackQuery describes the grade being written. Score is the value
// currently in the form, which may not be saved yet.
type DraftFeedbackQuery struct {
	StudentID    string
	AssessmentID string
	Score        float64
}

// Validate validates the query.
func (q DraftFeedbackQuery) Validate() error {
	if q.StudentID == "" || q.AssessmentID == "" {
		return errors.New("student_id and assessment_id are required")
	}
	return nil
}

func (q DraftFeedbackQuery) key() string {
	return "feedback:" + q.StudentID + ":" + q.AssessmentID + ":" + strconv.FormatFloat(q.Score, 'g', -1, 64)
}

// FeedbackDraftDTO carries the narrator's text. On failure Text is one of the
// narrator's fixed messages.
type FeedbackDraftDTO struct {
	StudentID    string `json:"studentId"`
	AssessmentID string `json:"assessmentId"`
	Text         string `json:"text"`

	// Joined is true when the text came from a request already in flight.
	Joined bool `json:"joined"`
}

// DraftFeedbackHandler handles the DraftFeedbackQuery.
type DraftFeedbackHandler struct {
	state    SnapshotReader
	narrator gradebook.Narrator
	inflight singleflight.Group
}

// NewDraftFeedbackHandler creates a new DraftFeedbackHandler.
func NewDraftFeedbackHandler(state SnapshotReader, narrator gradebook.Narrator) *DraftFeedbackHandler {
	return &DraftFeedbackHandler{state: state, narrator: narrator}
}

// Handle executes the query. Unknown ids are not-found errors; narrator
// failures are not errors.
func (h *DraftFeedbackHandler) Handle(ctx context.Context, q DraftFeedbackQuery) (*FeedbackDraftDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("feedback", "Draft", shared.ErrInvalidInput, err.Error(), err)
	}

	st, err := h.state.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("draft_feedback: %w", err)
	}
	s, ok := gradebook.FindStudent(st, q.StudentID)
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	a, ok := gradebook.FindAssessment(st, q.AssessmentID)
	if !ok {
		return nil, shared.ErrAssessmentNotFound
	}

	ch := h.inflight.DoChan(q.key(), func() (interface{}, error) {
		callCtx, cancel := narrativeContext(ctx)
		defer cancel()
		return h.narrator.GenerateFeedback(callCtx, s.Name, a.Title, q.Score, a.MaxScore), nil
	})

	select {
	case res := <-ch:
		return &FeedbackDraftDTO{
			StudentID:    s.ID,
			AssessmentID: a.ID,
			Text:         res.Val.(string),
			Joined:       res.Shared,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// narrativeTimeout bounds one narrator call shared by joined requests.
const narrativeTimeout = 60 * time.Second

// narrativeContext detaches the shared call from the request that started
// it: cancelling that request must not fail the requests that joined it.
func narrativeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), narrativeTimeout)
}
