package gradebook

// ══════════════════════════════════════════════════════════════════════════════
// MUTATIONS
// Every function takes a snapshot and returns a new one. Collections that
// change are rebuilt; collections that do not change are shared, which is
// safe because nothing writes into a snapshot after it is published.
// ══════════════════════════════════════════════════════════════════════════════

// AddStudent appends a student with the given id. Duplicate NIS values are
// accepted.
func AddStudent(st State, in NewStudent, id string) (State, Student) {
	student := Student{
		ID:         id,
		NIS:        in.NIS,
		Name:       in.Name,
		GradeLevel: in.GradeLevel,
		Contact:    in.Contact,
	}
	st.Students = appendCopy(st.Students, student)
	return st, student
}

// DeleteStudent removes the student and every grade that references it.
// The returned count is the number of grades removed; removed is false when
// no student had that id, in which case the state is returned unchanged.
func DeleteStudent(st State, id string) (next State, removed bool, gradesRemoved int) {
	if _, ok := FindStudent(st, id); !ok {
		return st, false, 0
	}

	st.Students = filterCopy(st.Students, func(s Student) bool { return s.ID != id })
	before := len(st.Grades)
	st.Grades = filterCopy(st.Grades, func(g Grade) bool { return g.StudentID != id })
	return st, true, before - len(st.Grades)
}

// AddAssessment appends an assessment with the given id.
func AddAssessment(st State, in NewAssessment, id string) (State, Assessment) {
	assessment := Assessment{
		ID:          id,
		Title:       in.Title,
		Subject:     in.Subject,
		Date:        in.Date,
		MaxScore:    in.MaxScore,
		Description: in.Description,
	}
	st.Assessments = appendCopy(st.Assessments, assessment)
	return st, assessment
}

// DeleteAssessment removes the assessment and every grade that references it.
func DeleteAssessment(st State, id string) (next State, removed bool, gradesRemoved int) {
	if _, ok := FindAssessment(st, id); !ok {
		return st, false, 0
	}

	st.Assessments = filterCopy(st.Assessments, func(a Assessment) bool { return a.ID != id })
	before := len(st.Grades)
	st.Grades = filterCopy(st.Grades, func(g Grade) bool { return g.AssessmentID != id })
	return st, true, before - len(st.Grades)
}

// UpsertGrade records a score for the (studentID, assessmentID) pair.
//
// If the pair already has a grade, its score and feedback are replaced in
// place: same id, same position. Otherwise a new grade with newID is
// appended. newID is ignored on update. The pair stays unique either way.
func UpsertGrade(st State, studentID, assessmentID string, score float64, feedback, newID string) (next State, grade Grade, created bool) {
	key := GradeKey{StudentID: studentID, AssessmentID: assessmentID}

	for i, g := range st.Grades {
		if g.Key() != key {
			continue
		}
		g.Score = score
		g.Feedback = feedback

		grades := cloneSlice(st.Grades)
		grades[i] = g
		st.Grades = grades
		return st, g, false
	}

	grade = Grade{
		ID:           newID,
		StudentID:    studentID,
		AssessmentID: assessmentID,
		Score:        score,
		Feedback:     feedback,
	}
	st.Grades = appendCopy(st.Grades, grade)
	return st, grade, true
}
