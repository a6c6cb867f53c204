package gradebook

import (
	"math"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOOKUPS
// A miss is reported through the boolean, never as an error: a grade whose
// parent is gone is "nothing to show", not a failure.
// ══════════════════════════════════════════════════════════════════════════════

// FindStudent returns the student with the given id.
func FindStudent(st State, id string) (Student, bool) {
	for _, s := range st.Students {
		if s.ID == id {
			return s, true
		}
	}
	return Student{}, false
}

// FindAssessment returns the assessment with the given id.
func FindAssessment(st State, id string) (Assessment, bool) {
	for _, a := range st.Assessments {
		if a.ID == id {
			return a, true
		}
	}
	return Assessment{}, false
}

// FindStudentsByNIS returns every student registered under nis, in roster
// order. NIS is not enforced unique, so there may be more than one.
func FindStudentsByNIS(st State, nis string) []Student {
	return filterCopy(st.Students, func(s Student) bool { return s.NIS == nis })
}

// GradeFor returns the grade recorded for the pair, if any.
func GradeFor(st State, studentID, assessmentID string) (Grade, bool) {
	key := GradeKey{StudentID: studentID, AssessmentID: assessmentID}
	for _, g := range st.Grades {
		if g.Key() == key {
			return g, true
		}
	}
	return Grade{}, false
}

// ══════════════════════════════════════════════════════════════════════════════
// FILTERS
// ══════════════════════════════════════════════════════════════════════════════

// GradesForStudent returns the student's grades in insertion order.
func GradesForStudent(st State, studentID string) []Grade {
	return filterCopy(st.Grades, func(g Grade) bool { return g.StudentID == studentID })
}

// GradesForAssessment returns the assessment's grades in insertion order.
func GradesForAssessment(st State, assessmentID string) []Grade {
	return filterCopy(st.Grades, func(g Grade) bool { return g.AssessmentID == assessmentID })
}

// RecentGrades returns the last n grades, most recent first.
func RecentGrades(st State, n int) []Grade {
	if n <= 0 {
		return []Grade{}
	}
	if n > len(st.Grades) {
		n = len(st.Grades)
	}

	out := make([]Grade, 0, n)
	for i := len(st.Grades) - 1; i >= len(st.Grades)-n; i-- {
		out = append(out, st.Grades[i])
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATES
// ══════════════════════════════════════════════════════════════════════════════

// StudentAverage returns the mean score of the student rounded to one
// decimal, or 0 when the student has no grades.
func StudentAverage(st State, studentID string) float64 {
	return RoundOneDecimal(mean(GradesForStudent(st, studentID)))
}

// RoundOneDecimal rounds half away from zero to one decimal place.
func RoundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

func mean(grades []Grade) float64 {
	if len(grades) == 0 {
		return 0
	}
	var sum float64
	for _, g := range grades {
		sum += g.Score
	}
	return sum / float64(len(grades))
}

// Stats holds the dashboard counters.
type Stats struct {
	TotalStudents    int `json:"totalStudents"`
	TotalAssessments int `json:"totalAssessments"`
	TotalGrades      int `json:"totalGrades"`
}

// ComputeStats counts the records of each collection.
func ComputeStats(st State) Stats {
	return Stats{
		TotalStudents:    len(st.Students),
		TotalAssessments: len(st.Assessments),
		TotalGrades:      len(st.Grades),
	}
}

// AssessmentSummary is a locally computed digest of one assessment's scores.
type AssessmentSummary struct {
	AssessmentID string  `json:"assessmentId"`
	Graded       int     `json:"graded"`
	Average      float64 `json:"average"`
	Highest      float64 `json:"highest"`
	Lowest       float64 `json:"lowest"`

	// TopStudentID is the first student reaching Highest, in grade order.
	// Empty when nothing is graded or that student no longer resolves.
	TopStudentID   string `json:"topStudentId,omitempty"`
	TopStudentName string `json:"topStudentName,omitempty"`
}

// SummarizeAssessment computes count, mean, extremes and the top performer
// for an assessment.
func SummarizeAssessment(st State, assessmentID string) AssessmentSummary {
	grades := GradesForAssessment(st, assessmentID)
	summary := AssessmentSummary{
		AssessmentID: assessmentID,
		Graded:       len(grades),
		Average:      RoundOneDecimal(mean(grades)),
	}
	if len(grades) == 0 {
		return summary
	}

	top := grades[0]
	summary.Highest, summary.Lowest = grades[0].Score, grades[0].Score
	for _, g := range grades[1:] {
		if g.Score > summary.Highest {
			summary.Highest = g.Score
			top = g
		}
		if g.Score < summary.Lowest {
			summary.Lowest = g.Score
		}
	}

	if s, ok := FindStudent(st, top.StudentID); ok {
		summary.TopStudentID = s.ID
		summary.TopStudentName = s.Name
	}
	return summary
}

// ══════════════════════════════════════════════════════════════════════════════
// JOINS
// ══════════════════════════════════════════════════════════════════════════════

// ResolvedGrade is a grade joined to the names of its parents.
type ResolvedGrade struct {
	Grade      Grade      `json:"grade"`
	Student    Student    `json:"student"`
	Assessment Assessment `json:"assessment"`
}

// ResolveGrades joins each grade to its student and assessment. Rows whose
// student or assessment no longer exists are skipped.
func ResolveGrades(st State, grades []Grade) []ResolvedGrade {
	out := make([]ResolvedGrade, 0, len(grades))
	for _, g := range grades {
		s, ok := FindStudent(st, g.StudentID)
		if !ok {
			continue
		}
		a, ok := FindAssessment(st, g.AssessmentID)
		if !ok {
			continue
		}
		out = append(out, ResolvedGrade{Grade: g, Student: s, Assessment: a})
	}
	return out
}

// UnknownStudentName labels score lines whose student cannot be resolved.
const UnknownStudentName = "Unknown"

// ScoreLine is one row of a class tabulation.
type ScoreLine struct {
	StudentName string
	Score       float64
}

// ClassScores tabulates the scores recorded for assessmentID among grades,
// resolving names against students. Unresolvable students are kept and
// labelled UnknownStudentName.
func ClassScores(assessmentID string, grades []Grade, students []Student) []ScoreLine {
	names := make(map[string]string, len(students))
	for _, s := range students {
		names[s.ID] = s.Name
	}

	lines := make([]ScoreLine, 0)
	for _, g := range grades {
		if g.AssessmentID != assessmentID {
			continue
		}
		name, ok := names[g.StudentID]
		if !ok || name == "" {
			name = UnknownStudentName
		}
		lines = append(lines, ScoreLine{StudentName: name, Score: g.Score})
	}
	return lines
}
