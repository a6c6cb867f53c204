// Package query contains read operations (CQRS - Queries).
package query

import (
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// SnapshotReader returns the current state. *state.Holder implements it.
// Handlers only read the returned value.
type SnapshotReader interface {
	Snapshot() (gradebook.State, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DTOs
// ══════════════════════════════════════════════════════════════════════════════

// GradeRowDTO is a grade with the names of its student and assessment.
type GradeRowDTO struct {
	GradeID      string  `json:"gradeId"`
	StudentID    string  `json:"studentId"`
	StudentName  string  `json:"studentName"`
	GradeLevel   string  `json:"gradeLevel"`
	AssessmentID string  `json:"assessmentId"`
	Title        string  `json:"title"`
	Subject      string  `json:"subject"`
	Date         string  `json:"date"`
	Score        float64 `json:"score"`
	MaxScore     int     `json:"maxScore"`
	Feedback     string  `json:"feedback,omitempty"`
}

func toGradeRows(rows []gradebook.ResolvedGrade) []GradeRowDTO {
	out := make([]GradeRowDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, GradeRowDTO{
			GradeID:      r.Grade.ID,
			StudentID:    r.Student.ID,
			StudentName:  r.Student.Name,
			GradeLevel:   r.Student.GradeLevel,
			AssessmentID: r.Assessment.ID,
			Title:        r.Assessment.Title,
			Subject:      r.Assessment.Subject,
			Date:         r.Assessment.Date,
			Score:        r.Grade.Score,
			MaxScore:     r.Assessment.MaxScore,
			Feedback:     r.Grade.Feedback,
		})
	}
	return out
}
