package gradebook

// ══════════════════════════════════════════════════════════════════════════════
// ENTITIES
// ══════════════════════════════════════════════════════════════════════════════

// Student is a pupil on the roster.
type Student struct {
	// ID is an opaque identifier, immutable once assigned.
	ID string `json:"id"`

	// NIS is the school registration number. Intended to be unique among
	// people, but duplicates are accepted.
	NIS string `json:"nis"`

	// Name is the student's full name.
	Name string `json:"name"`

	// GradeLevel is the class label, e.g. "10A".
	GradeLevel string `json:"gradeLevel"`

	// Contact is optional.
	Contact string `json:"contact,omitempty"`
}

// Is reports whether both values identify the same student.
func (s Student) Is(other Student) bool {
	return s.ID == other.ID
}

// Assessment is a graded piece of work: a quiz, an exam, a daily test.
type Assessment struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Subject string `json:"subject"`

	// Date is a calendar date kept as the string it was entered with.
	Date string `json:"date"`

	// MaxScore is the ceiling of the scale. Recorded scores are not checked
	// against it.
	MaxScore int `json:"maxScore"`

	Description string `json:"description,omitempty"`
}

// Is reports whether both values identify the same assessment.
func (a Assessment) Is(other Assessment) bool {
	return a.ID == other.ID
}

// Grade is the score one student obtained on one assessment.
// (StudentID, AssessmentID) is unique across the grade collection.
type Grade struct {
	ID           string  `json:"id"`
	StudentID    string  `json:"studentId"`
	AssessmentID string  `json:"assessmentId"`
	Score        float64 `json:"score"`
	Feedback     string  `json:"feedback,omitempty"`
}

// Is reports whether both values identify the same grade.
func (g Grade) Is(other Grade) bool {
	return g.ID == other.ID
}

// Key returns the composite key of the grade.
func (g Grade) Key() GradeKey {
	return GradeKey{StudentID: g.StudentID, AssessmentID: g.AssessmentID}
}

// GradeKey is the unique composite key of a Grade.
type GradeKey struct {
	StudentID    string
	AssessmentID string
}

// ══════════════════════════════════════════════════════════════════════════════
// INPUTS
// ══════════════════════════════════════════════════════════════════════════════

// NewStudent carries the fields of a student that is about to be added.
type NewStudent struct {
	NIS        string
	Name       string
	GradeLevel string
	Contact    string
}

// NewAssessment carries the fields of an assessment that is about to be added.
type NewAssessment struct {
	Title       string
	Subject     string
	Date        string
	MaxScore    int
	Description string
}
