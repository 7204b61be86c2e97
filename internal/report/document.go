package report

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/rehabassist/internal/catalog"
	"github.com/Skufu/rehabassist/internal/diagnosis"
)

const (
	Title = "Rehabilitation Assistant Report"
	Intro = "This report provides a summary of your rehabilitation assessment, including failed tests, diagnostic conclusions, and recommended exercises."

	NoFailedTests  = "No tests were failed."
	NoConditions   = "No specific conditions identified."
	NoExercises    = "No exercises recommended."
	ConsultAdvice  = "No specific conditions identified. Please consult a healthcare professional."
	Disclaimer     = "This self-assessment does not replace an examination by a healthcare professional."
	Filename       = "rehabilitation_report.pdf"
	ContentTypePDF = "application/pdf"
)

// ExerciseRow is one line of the training advice table.
type ExerciseRow struct {
	Name        string `json:"exercise"`
	Description string `json:"description"`
	SetsReps    string `json:"setsReps"`
	Frequency   string `json:"frequency"`
	Image       string `json:"-"`
}

// Document is the content shared by the on-screen view and the PDF.
type Document struct {
	ID          string
	GeneratedAt time.Time
	BodyPart    string
	FailedTests []string
	Diagnostics []string
	Exercises   []ExerciseRow
}

func Build(a diagnosis.Assessment) Document {
	doc := Document{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		BodyPart:    a.Symptom.Name,
		FailedTests: a.FailedTests(),
		Diagnostics: a.Labels(),
	}
	for _, e := range a.Exercises {
		doc.Exercises = append(doc.Exercises, Row(e))
	}
	return doc
}

func Row(e catalog.Exercise) ExerciseRow {
	return ExerciseRow{
		Name:        e.Name,
		Description: e.Description,
		SetsReps:    SetsReps(e.Sets, e.Reps),
		Frequency:   e.Frequency,
		Image:       e.Image,
	}
}

// SetsReps formats sets and reps as "3x10".
func SetsReps(sets, reps int) string {
	return fmt.Sprintf("%dx%d", sets, reps)
}
