package diagnosis

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Skufu/rehabassist/internal/catalog"
)

// Results maps a test name to whether the test was painful (failed).
type Results map[string]bool

// Diagnose collects the positive indication of every failed test in tests.
// Tests missing from results count as not failed.
func Diagnose(results Results, tests []catalog.Test) catalog.ConditionSet {
	conditions := catalog.NewConditionSet()
	for _, t := range tests {
		if results[t.Name] {
			conditions.Add(t.PositiveIndication)
		}
	}
	return conditions
}

// Label turns a condition identifier into display text:
// "patellar_tendinopathy" becomes "Patellar tendinopathy".
func Label(condition string) string {
	s := strings.ToLower(strings.ReplaceAll(condition, "_", " "))
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Assessment is one completed pass through the questionnaire.
type Assessment struct {
	Symptom    catalog.Symptom
	Tests      []catalog.Test
	Results    Results
	Conditions catalog.ConditionSet
	Exercises  []catalog.Exercise
}

// Assess marks the tests of symptom whose id is in failedIDs as failed,
// diagnoses them and looks up the recommended exercises.
func Assess(c *catalog.Catalog, symptom catalog.Symptom, failedIDs []string) Assessment {
	failed := make(map[string]bool, len(failedIDs))
	for _, id := range failedIDs {
		failed[strings.TrimSpace(id)] = true
	}

	tests := c.TestsFor(symptom.ID)
	results := make(Results, len(tests))
	for _, t := range tests {
		results[t.Name] = failed[strconv.Itoa(t.ID)]
	}

	conditions := Diagnose(results, tests)
	return Assessment{
		Symptom:    symptom,
		Tests:      tests,
		Results:    results,
		Conditions: conditions,
		Exercises:  c.ExercisesFor(conditions),
	}
}

// FailedTests lists the failed test names in table order.
func (a Assessment) FailedTests() []string {
	var out []string
	for _, t := range a.Tests {
		if a.Results[t.Name] {
			out = append(out, t.Name)
		}
	}
	return out
}

// Labels returns the display labels of the conditions, sorted by identifier.
func (a Assessment) Labels() []string {
	var out []string
	for _, c := range a.Conditions.Sorted() {
		out = append(out, Label(c))
	}
	return out
}
