package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Skufu/rehabassist/internal/catalog"
	"github.com/Skufu/rehabassist/internal/diagnosis"
	"github.com/Skufu/rehabassist/internal/report"
)

// Params are the inputs of one page render. They come from the query
// string for deep links and from the form when the user submits.
type Params struct {
	BodyPart    string   `form:"body_part" json:"bodyPart"`
	FailedTests []string `form:"failed_tests" json:"failedTests"`
	TestMode    string   `form:"test_mode" json:"-"`
	Submit      string   `form:"submit" json:"-"`
}

// FailedIDs flattens repeated and comma separated failed_tests values.
func (p Params) FailedIDs() []string {
	var ids []string
	for _, v := range p.FailedTests {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func (p Params) testMode() bool {
	return strings.EqualFold(strings.TrimSpace(p.TestMode), "true")
}

func (p Params) confirmed() bool {
	return p.Submit != "" || p.testMode()
}

type Step int

const (
	StepSelect Step = iota + 1
	StepAssess
	StepReport
)

// TestRow is one checkbox of step 2.
type TestRow struct {
	ID          int
	Name        string
	Description string
	Checked     bool
}

// Page is everything needed to render the questionnaire for one request.
type Page struct {
	Step     Step
	Symptoms []catalog.Symptom
	Selected catalog.Symptom
	Warning  string
	Tests    []TestRow
	TestMode bool

	// Set once the report step is reached.
	Assessment *diagnosis.Assessment
	Document   *report.Document
	Table      []report.TableRow
	Guidance   string
}

// HasPlan reports whether the report step produced conditions, and so a
// downloadable plan.
func (p Page) HasPlan() bool {
	return p.Assessment != nil && p.Assessment.Conditions.Len() > 0
}

type Controller struct {
	catalog *catalog.Catalog
	images  report.ImageResolver
}

func NewController(c *catalog.Catalog, images report.ImageResolver) *Controller {
	return &Controller{catalog: c, images: images}
}

// Select resolves the body_part parameter. An unknown name falls back to
// the first symptom and returns a warning for the user.
func (c *Controller) Select(bodyPart string) (catalog.Symptom, string) {
	fallback := c.catalog.DefaultSymptom()
	if bodyPart == "" {
		return fallback, ""
	}
	if s, ok := c.catalog.SymptomByName(bodyPart); ok {
		return s, ""
	}
	return fallback, fmt.Sprintf("Invalid body part '%s' specified in URL. Defaulting to '%s'.", bodyPart, fallback.Name)
}

// Page recomputes the whole flow from params. Nothing is kept between
// calls.
func (c *Controller) Page(p Params) Page {
	selected, warning := c.Select(p.BodyPart)

	page := Page{
		Step:     StepAssess,
		Symptoms: c.catalog.Symptoms(),
		Selected: selected,
		Warning:  warning,
		TestMode: p.testMode(),
	}

	failed := make(map[string]bool)
	for _, id := range p.FailedIDs() {
		failed[id] = true
	}
	for _, t := range c.catalog.TestsFor(selected.ID) {
		page.Tests = append(page.Tests, TestRow{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Checked:     failed[strconv.Itoa(t.ID)],
		})
	}

	if !p.confirmed() {
		return page
	}

	a, doc := c.Report(selected, p.FailedIDs())
	page.Step = StepReport
	page.Assessment = &a
	page.Document = &doc
	page.Table = report.Table(doc, c.images)
	if a.Conditions.Len() == 0 {
		page.Guidance = report.ConsultAdvice
	}
	return page
}

// Report runs the diagnostic for a symptom and builds the report document.
func (c *Controller) Report(symptom catalog.Symptom, failedIDs []string) (diagnosis.Assessment, report.Document) {
	a := diagnosis.Assess(c.catalog, symptom, failedIDs)
	return a, report.Build(a)
}
