package game

import "sort"

// QuestionSet tracks which questions were already asked.
// The question bank itself lives elsewhere; only IDs are stored here.
type QuestionSet struct {
	used map[string]struct{}
}

// NewQuestionSet creates an empty set
func NewQuestionSet() *QuestionSet {
	return &QuestionSet{used: make(map[string]struct{})}
}

// Mark records a question as used. Returns false if it already was.
func (q *QuestionSet) Mark(id string) bool {
	if _, ok := q.used[id]; ok {
		return false
	}
	q.used[id] = struct{}{}
	return true
}

// Has reports whether a question was used
func (q *QuestionSet) Has(id string) bool {
	_, ok := q.used[id]
	return ok
}

// Reset forgets every used question
func (q *QuestionSet) Reset() {
	clear(q.used)
}

// Len returns the number of used questions
func (q *QuestionSet) Len() int {
	return len(q.used)
}

// IDs returns the used question IDs in sorted order
func (q *QuestionSet) IDs() []string {
	ids := make([]string, 0, len(q.used))
	for id := range q.used {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
