package catalog

import "fmt"

type IssueKind string

const (
	UnreachableExercise IssueKind = "unreachable_exercise"
	UntreatedCondition  IssueKind = "untreated_condition"
	SymptomWithoutTests IssueKind = "symptom_without_tests"
)

// Issue is a data-integrity warning. None of them stop the catalog from
// being served.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s", i.Kind, i.Message)
}

// CheckIntegrity cross-references the tables: exercises whose condition no
// test can produce are never recommended, conditions no exercise covers
// always yield an empty plan.
func (c *Catalog) CheckIntegrity() []Issue {
	var issues []Issue

	indications := make(map[string]bool)
	testsPerSymptom := make(map[int]int)
	for _, t := range c.tests {
		indications[t.PositiveIndication] = true
		testsPerSymptom[t.SymptomID]++
	}

	treated := make(map[string]bool)
	for _, e := range c.exercises {
		treated[e.Condition] = true
		if !indications[e.Condition] {
			issues = append(issues, Issue{
				Kind:    UnreachableExercise,
				Subject: e.Name,
				Message: fmt.Sprintf("exercise %q has condition %q which no test indicates", e.Name, e.Condition),
			})
		}
	}

	seen := make(map[string]bool)
	for _, t := range c.tests {
		cond := t.PositiveIndication
		if treated[cond] || seen[cond] {
			continue
		}
		seen[cond] = true
		issues = append(issues, Issue{
			Kind:    UntreatedCondition,
			Subject: cond,
			Message: fmt.Sprintf("condition %q (from test %q) has no recommended exercise", cond, t.Name),
		})
	}

	for _, s := range c.symptoms {
		if testsPerSymptom[s.ID] == 0 {
			issues = append(issues, Issue{
				Kind:    SymptomWithoutTests,
				Subject: s.Name,
				Message: fmt.Sprintf("symptom %q has no tests", s.Name),
			})
		}
	}

	return issues
}
