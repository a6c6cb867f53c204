package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each one is published after the state that produced it
// has been durably saved.
const (
	// Student events
	EventStudentAdded   EventType = "student.added"
	EventStudentDeleted EventType = "student.deleted"

	// Assessment events
	EventAssessmentAdded   EventType = "assessment.added"
	EventAssessmentDeleted EventType = "assessment.deleted"

	// Grade events
	EventGradeRecorded EventType = "grade.recorded"

	// State events
	EventStateReset EventType = "state.reset"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the entity that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler handles a published event.
type EventHandler func(event Event) error

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Gradebook Events
// ═══════════════════════════════════════════════════════════════════════════

// StudentAddedEvent is emitted when a student is appended to the roster.
type StudentAddedEvent struct {
	BaseEvent
	NIS        string `json:"nis"`
	Name       string `json:"name"`
	GradeLevel string `json:"grade_level"`
}

// Payload implements Event interface.
func (e StudentAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"nis":         e.NIS,
		"name":        e.Name,
		"grade_level": e.GradeLevel,
	}
}

// NewStudentAddedEvent creates a new StudentAddedEvent.
func NewStudentAddedEvent(studentID, nis, name, gradeLevel string) StudentAddedEvent {
	return StudentAddedEvent{
		BaseEvent:  NewBaseEvent(EventStudentAdded, studentID),
		NIS:        nis,
		Name:       name,
		GradeLevel: gradeLevel,
	}
}

// StudentDeletedEvent is emitted when a student and its grades are removed.
type StudentDeletedEvent struct {
	BaseEvent
	GradesRemoved int `json:"grades_removed"`
}

// Payload implements Event interface.
func (e StudentDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"grades_removed": e.GradesRemoved,
	}
}

// NewStudentDeletedEvent creates a new StudentDeletedEvent.
func NewStudentDeletedEvent(studentID string, gradesRemoved int) StudentDeletedEvent {
	return StudentDeletedEvent{
		BaseEvent:     NewBaseEvent(EventStudentDeleted, studentID),
		GradesRemoved: gradesRemoved,
	}
}

// AssessmentAddedEvent is emitted when an assessment is created.
type AssessmentAddedEvent struct {
	BaseEvent
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	MaxScore int    `json:"max_score"`
}

// Payload implements Event interface.
func (e AssessmentAddedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"title":     e.Title,
		"subject":   e.Subject,
		"max_score": e.MaxScore,
	}
}

// NewAssessmentAddedEvent creates a new AssessmentAddedEvent.
func NewAssessmentAddedEvent(assessmentID, title, subject string, maxScore int) AssessmentAddedEvent {
	return AssessmentAddedEvent{
		BaseEvent: NewBaseEvent(EventAssessmentAdded, assessmentID),
		Title:     title,
		Subject:   subject,
		MaxScore:  maxScore,
	}
}

// AssessmentDeletedEvent is emitted when an assessment and its grades are removed.
type AssessmentDeletedEvent struct {
	BaseEvent
	GradesRemoved int `json:"grades_removed"`
}

// Payload implements Event interface.
func (e AssessmentDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"grades_removed": e.GradesRemoved,
	}
}

// NewAssessmentDeletedEvent creates a new AssessmentDeletedEvent.
func NewAssessmentDeletedEvent(assessmentID string, gradesRemoved int) AssessmentDeletedEvent {
	return AssessmentDeletedEvent{
		BaseEvent:     NewBaseEvent(EventAssessmentDeleted, assessmentID),
		GradesRemoved: gradesRemoved,
	}
}

// GradeRecordedEvent is emitted by every upsert, whether it created or updated the grade.
type GradeRecordedEvent struct {
	BaseEvent
	StudentID    string  `json:"student_id"`
	AssessmentID string  `json:"assessment_id"`
	Score        float64 `json:"score"`
	Created      bool    `json:"created"`
}

// Payload implements Event interface.
func (e GradeRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":    e.StudentID,
		"assessment_id": e.AssessmentID,
		"score":         e.Score,
		"created":       e.Created,
	}
}

// NewGradeRecordedEvent creates a new GradeRecordedEvent.
func NewGradeRecordedEvent(gradeID, studentID, assessmentID string, score float64, created bool) GradeRecordedEvent {
	return GradeRecordedEvent{
		BaseEvent:    NewBaseEvent(EventGradeRecorded, gradeID),
		StudentID:    studentID,
		AssessmentID: assessmentID,
		Score:        score,
		Created:      created,
	}
}

// StateResetEvent is emitted when the whole dataset is replaced by the seed.
type StateResetEvent struct {
	BaseEvent
	Students    int `json:"students"`
	Assessments int `json:"assessments"`
	Grades      int `json:"grades"`
}

// Payload implements Event interface.
func (e StateResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"students":    e.Students,
		"assessments": e.Assessments,
		"grades":      e.Grades,
	}
}

// NewStateResetEvent creates a new StateResetEvent.
func NewStateResetEvent(slot string, students, assessments, grades int) StateResetEvent {
	return StateResetEvent{
		BaseEvent:   NewBaseEvent(EventStateReset, slot),
		Students:    students,
		Assessments: assessments,
		Grades:      grades,
	}
}
