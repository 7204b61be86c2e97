package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/rehabassist/internal/catalog"
	"github.com/Skufu/rehabassist/internal/diagnosis"
	"github.com/Skufu/rehabassist/internal/report"
	"github.com/Skufu/rehabassist/internal/wizard"
)

type pageView struct {
	wizard.Page
	DownloadURL string
}

func (h *Handler) GetWizard(c *gin.Context) {
	var params wizard.Params
	if err := c.ShouldBind(&params); err != nil {
		h.errorHandler(c, http.StatusBadRequest, err)
		return
	}

	page := h.wizard.Page(params)
	if page.Warning != "" {
		h.logger.Warn().Str("body_part", params.BodyPart).Msg("invalid body part, using default")
	}

	c.HTML(http.StatusOK, "index.html", pageView{
		Page:        page,
		DownloadURL: downloadURL(page.Selected.Name, params.FailedIDs()),
	})
}

func (h *Handler) DownloadReport(c *gin.Context) {
	var params wizard.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		h.errorHandler(c, http.StatusBadRequest, err)
		return
	}

	selected, _ := h.wizard.Select(params.BodyPart)
	a, doc := h.wizard.Report(selected, params.FailedIDs())

	pdf, err := report.RenderPDF(doc)
	if err != nil {
		h.errorHandler(c, http.StatusInternalServerError, err)
		return
	}

	h.logger.Info().
		Str("report_id", doc.ID).
		Str("body_part", selected.Name).
		Int("conditions", a.Conditions.Len()).
		Int("exercises", len(a.Exercises)).
		Msg("report rendered")

	c.Header("Content-Disposition", `attachment; filename="`+report.Filename+`"`)
	c.Data(http.StatusOK, report.ContentTypePDF, pdf)
}

func downloadURL(bodyPart string, failedIDs []string) string {
	q := url.Values{}
	q.Set("body_part", bodyPart)
	for _, id := range failedIDs {
		q.Add("failed_tests", id)
	}
	return "report.pdf?" + q.Encode()
}

func (h *Handler) ListSymptoms(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Symptoms())
}

func (h *Handler) ListTests(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.errorHandler(c, http.StatusBadRequest, errors.New("invalid symptom id"))
		return
	}
	if _, err := h.catalog.Symptom(id); err != nil {
		h.errorHandler(c, http.StatusNotFound, err)
		return
	}
	tests := h.catalog.TestsFor(id)
	if tests == nil {
		tests = []catalog.Test{}
	}
	c.JSON(http.StatusOK, tests)
}

type DiagnosticRequest struct {
	SymptomID   *int   `json:"symptomId" binding:"required_without=BodyPart"`
	BodyPart    string `json:"bodyPart" binding:"required_without=SymptomID"`
	FailedTests []int  `json:"failedTests"`
}

type ConditionView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type DiagnosticResponse struct {
	Symptom     catalog.Symptom      `json:"symptom"`
	FailedTests []string             `json:"failedTests"`
	Conditions  []ConditionView      `json:"conditions"`
	Exercises   []report.ExerciseRow `json:"exercises"`
	Message     string               `json:"message,omitempty"`
}

func (h *Handler) Diagnose(c *gin.Context) {
	var req DiagnosticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorHandler(c, http.StatusBadRequest, errors.New("invalid payload"))
		return
	}

	var (
		symptom catalog.Symptom
		err     error
	)
	if req.SymptomID != nil {
		symptom, err = h.catalog.Symptom(*req.SymptomID)
	} else if s, ok := h.catalog.SymptomByName(req.BodyPart); ok {
		symptom = s
	} else {
		err = catalog.ErrSymptomNotFound
	}
	if err != nil {
		h.errorHandler(c, http.StatusNotFound, err)
		return
	}

	ids := make([]string, 0, len(req.FailedTests))
	for _, id := range req.FailedTests {
		ids = append(ids, strconv.Itoa(id))
	}
	a := diagnosis.Assess(h.catalog, symptom, ids)

	resp := DiagnosticResponse{
		Symptom:     symptom,
		FailedTests: a.FailedTests(),
		Conditions:  []ConditionView{},
		Exercises:   []report.ExerciseRow{},
	}
	if resp.FailedTests == nil {
		resp.FailedTests = []string{}
	}
	for _, cond := range a.Conditions.Sorted() {
		resp.Conditions = append(resp.Conditions, ConditionView{ID: cond, Label: diagnosis.Label(cond)})
	}
	for _, e := range a.Exercises {
		resp.Exercises = append(resp.Exercises, report.Row(e))
	}
	if len(resp.Conditions) == 0 {
		resp.Message = report.ConsultAdvice
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) errorHandler(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
