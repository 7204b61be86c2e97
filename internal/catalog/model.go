package catalog

import "sort"

// Symptom is a body region a user can report pain in.
type Symptom struct {
	ID   int    `json:"symptomId"`
	Name string `json:"symptomName"`
}

// Test is a physical self-test for a symptom. A positive (painful) result
// points at the condition named by PositiveIndication.
type Test struct {
	ID                 int    `json:"testId"`
	SymptomID          int    `json:"symptomId"`
	Name               string `json:"testName"`
	Description        string `json:"description"`
	PositiveIndication string `json:"positiveIndication"`
}

// Exercise is a rehabilitation exercise recommended for one condition.
type Exercise struct {
	Name        string `json:"exerciseName"`
	Description string `json:"description"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	Frequency   string `json:"frequency"`
	Condition   string `json:"condition"`
	Image       string `json:"image,omitempty"`
}

type ConditionSet map[string]struct{}

func NewConditionSet(conditions ...string) ConditionSet {
	set := make(ConditionSet, len(conditions))
	for _, c := range conditions {
		set.Add(c)
	}
	return set
}

func (s ConditionSet) Add(condition string) {
	s[condition] = struct{}{}
}

func (s ConditionSet) Has(condition string) bool {
	_, ok := s[condition]
	return ok
}

func (s ConditionSet) Len() int {
	return len(s)
}

// Sorted returns the conditions in lexical order so output is stable.
func (s ConditionSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
