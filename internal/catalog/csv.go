package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	SymptomsFile  = "symptoms.csv"
	TestsFile     = "tests.csv"
	ExercisesFile = "exercises.csv"
)

// CSVSource reads symptoms.csv, tests.csv and exercises.csv from Dir.
type CSVSource struct {
	Dir string
}

func (s CSVSource) Name() string { return "csv" }

func (s CSVSource) Load(ctx context.Context) (*Catalog, error) {
	symptoms, err := readTable(filepath.Join(s.Dir, SymptomsFile), []string{"symptom_id", "symptom_name"}, parseSymptom)
	if err != nil {
		return nil, err
	}
	tests, err := readTable(filepath.Join(s.Dir, TestsFile), []string{"test_id", "symptom_id", "test_name", "description", "positive_indication"}, parseTest)
	if err != nil {
		return nil, err
	}
	exercises, err := readTable(filepath.Join(s.Dir, ExercisesFile), []string{"exercise_name", "description", "sets", "reps", "frequency", "condition"}, parseExercise)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return New(symptoms, tests, exercises)
}

// record gives named access to one CSV row.
type record struct {
	cols   map[string]int
	fields []string
	line   int
}

func (r record) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

func (r record) integer(name string) (int, error) {
	raw := r.get(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("line %d: column %s: invalid integer %q", r.line, name, raw)
	}
	return v, nil
}

func readTable[T any](path string, required []string, parse func(record) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file, header required", path)
		}
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%s: %w %q", path, ErrMissingColumn, name)
		}
	}

	var out []T
	line := 1
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			continue
		}
		row, err := parse(record{cols: cols, fields: fields, line: line})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func parseSymptom(r record) (Symptom, error) {
	id, err := r.integer("symptom_id")
	if err != nil {
		return Symptom{}, err
	}
	return Symptom{ID: id, Name: r.get("symptom_name")}, nil
}

func parseTest(r record) (Test, error) {
	id, err := r.integer("test_id")
	if err != nil {
		return Test{}, err
	}
	symptomID, err := r.integer("symptom_id")
	if err != nil {
		return Test{}, err
	}
	return Test{
		ID:                 id,
		SymptomID:          symptomID,
		Name:               r.get("test_name"),
		Description:        r.get("description"),
		PositiveIndication: r.get("positive_indication"),
	}, nil
}

func parseExercise(r record) (Exercise, error) {
	sets, err := r.integer("sets")
	if err != nil {
		return Exercise{}, err
	}
	reps, err := r.integer("reps")
	if err != nil {
		return Exercise{}, err
	}
	return Exercise{
		Name:        r.get("exercise_name"),
		Description: r.get("description"),
		Sets:        sets,
		Reps:        reps,
		Frequency:   r.get("frequency"),
		Condition:   r.get("condition"),
		Image:       r.get("image"),
	}, nil
}
