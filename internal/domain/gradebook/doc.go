// Package gradebook contains the domain model of the EduTrack gradebook.
//
// The package defines:
//
//   - Entities: Student, Assessment, Grade
//   - The aggregate State (students, assessments, grades) which is the unit
//     of persistence and the unit every mutation works on
//   - Pure mutations: AddStudent, DeleteStudent, AddAssessment,
//     DeleteAssessment, UpsertGrade
//   - Pure derived views: StudentAverage, GradeFor, GradesForStudent,
//     GradesForAssessment, RecentGrades, ResolveGrades, Stats and friends
//   - Ports implemented elsewhere: Slot, Narrator, Confirmer, IDGenerator
//
// # Snapshots
//
// A State is treated as an immutable snapshot. Mutations never write into the
// backing arrays of their input; they return a new State so that a reader
// holding the old one keeps a consistent view:
//
//	next, st := gradebook.AddStudent(current, gradebook.NewStudent{
//	    NIS:        "1004",
//	    Name:       "Dewi Lestari",
//	    GradeLevel: "10B",
//	}, ids.GenerateID())
//
// # Integrity rules
//
// A Grade never outlives the Student or Assessment it references: both
// delete mutations remove the dependent grades in the same new State.
// (StudentID, AssessmentID) is a unique composite key of the grade
// collection; UpsertGrade is the only way grades are written and it keeps the
// key unique.
//
// Scores are stored as given. Nothing here checks a score against MaxScore,
// validates dates or rejects empty strings.
package gradebook
