package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/rehabassist/internal/catalog"
	"github.com/Skufu/rehabassist/internal/report"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New(
		[]catalog.Symptom{{ID: 1, Name: "Knee Pain"}, {ID: 2, Name: "Shoulder Pain"}},
		[]catalog.Test{
			{ID: 1, SymptomID: 1, Name: "Single Leg Squat", Description: "Squat on one leg", PositiveIndication: "patellar_tendinopathy"},
			{ID: 2, SymptomID: 1, Name: "Step Down Test", Description: "Step down", PositiveIndication: "patellofemoral_pain_syndrome"},
			{ID: 3, SymptomID: 2, Name: "Painful Arc", Description: "Raise arm", PositiveIndication: "rotator_cuff_tendinopathy"},
		},
		[]catalog.Exercise{
			{Name: "Spanish Squat", Description: "Band squat", Sets: 3, Reps: 10, Frequency: "Daily", Condition: "patellar_tendinopathy", Image: "spanish.png"},
			{Name: "Decline Squat", Description: "Slow squat", Sets: 3, Reps: 15, Frequency: "Daily", Condition: "patellar_tendinopathy"},
			{Name: "Wall Sit", Description: "Hold", Sets: 3, Reps: 5, Frequency: "Daily", Condition: "patellofemoral_pain_syndrome"},
		},
	)
	require.NoError(t, err)
	return c
}

func newTestRouter(t *testing.T, db HealthChecker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	assets := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(assets, "spanish.png"), []byte("png"), 0o644))
	return NewRouter(Deps{
		Catalog:   testCatalog(t),
		AssetsDir: assets,
		DB:        db,
		Logger:    zerolog.Nop(),
	})
}

func do(router *gin.Engine, method, target string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

var exerciseCell = regexp.MustCompile(`<td class="exercise">([^<]+)</td>`)

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t, nil)
	w := do(router, "GET", "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRouterReadyz(t *testing.T) {
	tests := []struct {
		name   string
		db     HealthChecker
		status int
		want   string
	}{
		{"no db", nil, http.StatusOK, `"db":"disabled"`},
		{"healthy db", fakeDB{}, http.StatusOK, `"db":"ok"`},
		{"broken db", fakeDB{err: errors.New("down")}, http.StatusServiceUnavailable, `"status":"degraded"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newTestRouter(t, tt.db), "GET", "/readyz", "")
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestWizardInitialPage(t *testing.T) {
	w := do(newTestRouter(t, nil), "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Step 1: Identify Your Pain Location")
	assert.Contains(t, body, `<option value="Knee Pain" selected>`)
	assert.Contains(t, body, "Single Leg Squat")
	assert.NotContains(t, body, "Painful Arc")
	assert.NotContains(t, body, `id="conditions"`)
	assert.NotContains(t, body, "checked")
}

func TestWizardInvalidBodyPartWarns(t *testing.T) {
	w := do(newTestRouter(t, nil), "GET", "/?body_part=NotARealPart", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `id="warning"`)
	assert.Contains(t, body, "NotARealPart")
	assert.Contains(t, body, `<option value="Knee Pain" selected>`)
}

func TestWizardDeepLinkPrefillsWithoutReport(t *testing.T) {
	w := do(newTestRouter(t, nil), "GET", "/?body_part=Knee+Pain&failed_tests=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `value="2" checked`)
	assert.NotContains(t, body, `value="1" checked`)
	assert.NotContains(t, body, `id="exercises"`)
}

func TestWizardTestModeRendersPlan(t *testing.T) {
	w := do(newTestRouter(t, nil), "GET", "/?body_part=Knee+Pain&failed_tests=1&test_mode=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "<li>Patellar tendinopathy</li>")
	assert.Contains(t, body, "3x10")
	assert.Contains(t, body, `src="pictures/spanish.png"`)
	assert.Contains(t, body, `id="download"`)

	var names []string
	for _, m := range exerciseCell.FindAllStringSubmatch(body, -1) {
		names = append(names, m[1])
	}
	assert.Equal(t, []string{"Spanish Squat", "Decline Squat"}, names)
}

func TestWizardSubmitWithoutConditions(t *testing.T) {
	w := do(newTestRouter(t, nil), "GET", "/?body_part=Knee+Pain&submit=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, report.ConsultAdvice)
	assert.NotContains(t, body, `id="download"`)
}

func TestDownloadReport(t *testing.T) {
	w := do(newTestRouter(t, nil), "GET", "/report.pdf?body_part=Knee+Pain&failed_tests=1,2", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, report.ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), report.Filename)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestAPIListSymptomsAndTests(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, "GET", "/api/symptoms", "")
	require.Equal(t, http.StatusOK, w.Code)
	var symptoms []catalog.Symptom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &symptoms))
	assert.Len(t, symptoms, 2)

	w = do(router, "GET", "/api/symptoms/2/tests", "")
	require.Equal(t, http.StatusOK, w.Code)
	var tests []catalog.Test
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tests))
	require.Len(t, tests, 1)
	assert.Equal(t, "Painful Arc", tests[0].Name)

	assert.Equal(t, http.StatusNotFound, do(router, "GET", "/api/symptoms/9/tests", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, "GET", "/api/symptoms/abc/tests", "").Code)
}

func TestAPIDiagnostics(t *testing.T) {
	router := newTestRouter(t, nil)

	w := do(router, "POST", "/api/diagnostics", `{"bodyPart":"Knee Pain","failedTests":[1]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DiagnosticResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Knee Pain", resp.Symptom.Name)
	assert.Equal(t, []string{"Single Leg Squat"}, resp.FailedTests)
	assert.Equal(t, []ConditionView{{ID: "patellar_tendinopathy", Label: "Patellar tendinopathy"}}, resp.Conditions)
	require.Len(t, resp.Exercises, 2)
	assert.Equal(t, "3x10", resp.Exercises[0].SetsReps)
	assert.Empty(t, resp.Message)
}

func TestAPIDiagnosticsNoConditions(t *testing.T) {
	w := do(newTestRouter(t, nil), "POST", "/api/diagnostics", `{"symptomId":2,"failedTests":[]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp DiagnosticResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Conditions)
	assert.Empty(t, resp.Exercises)
	assert.Equal(t, report.ConsultAdvice, resp.Message)
}

func TestAPIDiagnosticsValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"no symptom", `{"failedTests":[1]}`, http.StatusBadRequest},
		{"malformed", `{"bodyPart":`, http.StatusBadRequest},
		{"unknown body part", `{"bodyPart":"Elbow","failedTests":[1]}`, http.StatusNotFound},
		{"unknown symptom id", `{"symptomId":42}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", "/api/diagnostics", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		if _, err := c.GetRawData(); err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("12345"))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("over limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/echo", strings.NewReader("01234567890"))
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestRequestIDIsPropagated(t *testing.T) {
	router := newTestRouter(t, nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}
