package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var (
	columns      = []string{"Exercise", "Description", "Sets x Reps", "Frequency"}
	columnWidths = []float64{100, 200, 80, 80}
)

const (
	margin     = 72
	lineHeight = 12
	cellPad    = 4
)

// RenderPDF lays the document out on US letter pages: title, failed tests,
// diagnostic and the training advice table.
func RenderPDF(doc Document) ([]byte, error) {
	return renderPDF(doc, true)
}

func renderPDF(doc Document, compress bool) ([]byte, error) {
	pdf := layout(doc)
	pdf.SetCompression(compress)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func layout(doc Document) *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(Title, true)
	pdf.SetCreator("rehabassist", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 22, tr(Title), "", 1, "C", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, tr(Intro), "", "L", false)
	if doc.BodyPart != "" {
		pdf.Ln(6)
		pdf.MultiCell(0, lineHeight, tr("Pain location: "+doc.BodyPart), "", "L", false)
	}
	pdf.Ln(24)

	heading(pdf, tr, "Failed Tests")
	bullets(pdf, tr, doc.FailedTests, NoFailedTests)
	pdf.Ln(24)

	heading(pdf, tr, "Diagnostic")
	bullets(pdf, tr, doc.Diagnostics, NoConditions)
	pdf.Ln(24)

	heading(pdf, tr, "Training Advice")
	if len(doc.Exercises) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, lineHeight, tr(NoExercises), "", "L", false)
	} else {
		exerciseTable(pdf, tr, doc.Exercises)
	}
	pdf.Ln(24)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(96, 96, 96)
	pdf.MultiCell(0, 10, tr(Disclaimer), "", "L", false)
	pdf.MultiCell(0, 10, tr(fmt.Sprintf("Report %s, generated %s", doc.ID, doc.GeneratedAt.Format("2006-01-02 15:04 MST"))), "", "L", false)

	return pdf
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 18, tr(text), "", 1, "L", false, 0, "")
	pdf.Ln(12)
}

func bullets(pdf *fpdf.Fpdf, tr func(string) string, items []string, fallback string) {
	pdf.SetFont("Helvetica", "", 10)
	if len(items) == 0 {
		pdf.MultiCell(0, lineHeight, tr(fallback), "", "L", false)
		return
	}
	for _, item := range items {
		pdf.MultiCell(0, lineHeight, tr("- "+item), "", "L", false)
	}
}

func exerciseTable(pdf *fpdf.Fpdf, tr func(string) string, rows []ExerciseRow) {
	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(128, 128, 128)
		pdf.SetTextColor(245, 245, 245)
		tableRow(pdf, tr, columns, true)
	}

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	header()
	for _, r := range rows {
		cells := []string{r.Name, r.Description, r.SetsReps, r.Frequency}
		pdf.SetFont("Helvetica", "", 10)
		if pdf.GetY()+rowHeight(pdf, tr, cells) > pageHeight-bottom {
			pdf.AddPage()
			header()
			pdf.SetFont("Helvetica", "", 10)
		}
		pdf.SetFillColor(245, 245, 220)
		pdf.SetTextColor(0, 0, 0)
		tableRow(pdf, tr, cells, false)
	}
}

func rowHeight(pdf *fpdf.Fpdf, tr func(string) string, cells []string) float64 {
	lines := 1
	for i, text := range cells {
		if n := len(pdf.SplitText(tr(text), columnWidths[i]-2*cellPad)); n > lines {
			lines = n
		}
	}
	return float64(lines)*lineHeight + 2*cellPad
}

// tableRow draws one grid row. Cells wrap their text and share the height
// of the tallest cell.
func tableRow(pdf *fpdf.Fpdf, tr func(string) string, cells []string, isHeader bool) {
	h := rowHeight(pdf, tr, cells)
	if isHeader {
		h += 8
	}
	x, y := pdf.GetX(), pdf.GetY()

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1)
	for i, text := range cells {
		w := columnWidths[i]
		pdf.Rect(x, y, w, h, "FD")
		pdf.SetXY(x+cellPad, y+cellPad)
		pdf.MultiCell(w-2*cellPad, lineHeight, tr(text), "", "L", false)
		x += w
	}
	pdf.SetXY(margin, y+h)
}
