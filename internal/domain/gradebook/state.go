package gradebook

// State is the aggregate: every student, assessment and grade, in insertion
// order. It is loaded and saved as one blob.
type State struct {
	Students    []Student    `json:"students"`
	Assessments []Assessment `json:"assessments"`
	Grades      []Grade      `json:"grades"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	return State{
		Students:    cloneSlice(s.Students),
		Assessments: cloneSlice(s.Assessments),
		Grades:      cloneSlice(s.Grades),
	}
}

// IsEmpty reports whether the state holds no records at all.
func (s State) IsEmpty() bool {
	return len(s.Students) == 0 && len(s.Assessments) == 0 && len(s.Grades) == 0
}

// Normalize replaces nil collections with empty ones so the serialized form
// always carries three arrays.
func (s State) Normalize() State {
	if s.Students == nil {
		s.Students = []Student{}
	}
	if s.Assessments == nil {
		s.Assessments = []Assessment{}
	}
	if s.Grades == nil {
		s.Grades = []Grade{}
	}
	return s
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// appendCopy returns a fresh slice holding in followed by v; in is untouched
// even when it has spare capacity.
func appendCopy[T any](in []T, v T) []T {
	out := make([]T, len(in), len(in)+1)
	copy(out, in)
	return append(out, v)
}

// filterCopy returns a fresh slice with the elements for which keep is true.
func filterCopy[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
