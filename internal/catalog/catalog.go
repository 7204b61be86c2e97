package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrMissingColumn   = errors.New("missing column")
	ErrUnknownSymptom  = errors.New("test references unknown symptom")
	ErrSymptomNotFound = errors.New("symptom not found")
	ErrEmptyCatalog    = errors.New("no symptoms loaded")
)

// Source loads the three lookup tables from some backing store.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
	Name() string
}

// Catalog holds the symptom, test and exercise tables in memory. It is
// built once at startup and never mutated afterwards, so it is safe for
// concurrent readers.
type Catalog struct {
	symptoms  []Symptom
	tests     []Test
	exercises []Exercise
	byID      map[int]int
	byName    map[string]int
}

// New validates the foreign keys between the tables and returns a Catalog.
// Table order is preserved; the first symptom is the default selection.
func New(symptoms []Symptom, tests []Test, exercises []Exercise) (*Catalog, error) {
	if len(symptoms) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		symptoms:  append([]Symptom(nil), symptoms...),
		tests:     append([]Test(nil), tests...),
		exercises: append([]Exercise(nil), exercises...),
		byID:      make(map[int]int, len(symptoms)),
		byName:    make(map[string]int, len(symptoms)),
	}

	for i, s := range c.symptoms {
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate symptom_id %d", s.ID)
		}
		c.byID[s.ID] = i
		if _, dup := c.byName[s.Name]; !dup {
			c.byName[s.Name] = i
		}
	}

	for _, t := range c.tests {
		if _, ok := c.byID[t.SymptomID]; !ok {
			return nil, fmt.Errorf("test %d (%s) symptom_id %d: %w", t.ID, t.Name, t.SymptomID, ErrUnknownSymptom)
		}
	}

	return c, nil
}

func (c *Catalog) Symptoms() []Symptom {
	return append([]Symptom(nil), c.symptoms...)
}

func (c *Catalog) Symptom(id int) (Symptom, error) {
	i, ok := c.byID[id]
	if !ok {
		return Symptom{}, fmt.Errorf("symptom_id %d: %w", id, ErrSymptomNotFound)
	}
	return c.symptoms[i], nil
}

func (c *Catalog) SymptomByName(name string) (Symptom, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Symptom{}, false
	}
	return c.symptoms[i], true
}

// DefaultSymptom is the first symptom in table order.
func (c *Catalog) DefaultSymptom() Symptom {
	return c.symptoms[0]
}

// TestsFor returns the tests for a symptom in table order.
func (c *Catalog) TestsFor(symptomID int) []Test {
	var out []Test
	for _, t := range c.tests {
		if t.SymptomID == symptomID {
			out = append(out, t)
		}
	}
	return out
}

// ExercisesFor returns every exercise whose condition is in conditions,
// in table order.
func (c *Catalog) ExercisesFor(conditions ConditionSet) []Exercise {
	var out []Exercise
	for _, e := range c.exercises {
		if conditions.Has(e.Condition) {
			out = append(out, e)
		}
	}
	return out
}

type Counts struct {
	Symptoms  int `json:"symptoms"`
	Tests     int `json:"tests"`
	Exercises int `json:"exercises"`
}

func (c *Catalog) Counts() Counts {
	return Counts{
		Symptoms:  len(c.symptoms),
		Tests:     len(c.tests),
		Exercises: len(c.exercises),
	}
}
