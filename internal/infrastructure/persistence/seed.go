package persistence

import (
	"github.com/edutrack/edutrack-gradebook/internal/domain/gradebook"
)

// SeedState returns the sample dataset used when the slot has never been
// written. Each call returns fresh slices.
func SeedState() gradebook.State {
	return gradebook.State{
		Students: []gradebook.Student{
			{ID: "s1", NIS: "1001", Name: "Budi Santoso", GradeLevel: "10A"},
			{ID: "s2", NIS: "1002", Name: "Siti Aminah", GradeLevel: "10A"},
			{ID: "s3", NIS: "1003", Name: "Rizky Pratama", GradeLevel: "10B"},
		},
		Assessments: []gradebook.Assessment{
			{ID: "a1", Title: "UH Matematika Bab 1", Subject: "Matematika", Date: "2023-10-01", MaxScore: 100, Description: "Aljabar Dasar"},
			{ID: "a2", Title: "Kuis Biologi Sel", Subject: "Biologi", Date: "2023-10-05", MaxScore: 100},
		},
		Grades: []gradebook.Grade{
			{ID: "g1", StudentID: "s1", AssessmentID: "a1", Score: 85, Feedback: "Bagus, pertahankan."},
			{ID: "g2", StudentID: "s2", AssessmentID: "a1", Score: 92, Feedback: "Sangat memuaskan!"},
		},
	}
}
