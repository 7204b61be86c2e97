package report

import (
	"os"
	"path"
	"path/filepath"
)

// ImageResolver maps an exercise image filename to a relative URL under
// URLPrefix, but only when the file exists in Dir.
type ImageResolver struct {
	Dir       string
	URLPrefix string
}

// Resolve returns "" for an empty name or a missing file.
func (r ImageResolver) Resolve(name string) string {
	if name == "" {
		return ""
	}
	name = filepath.Base(filepath.Clean(name))
	info, err := os.Stat(filepath.Join(r.Dir, name))
	if err != nil || info.IsDir() {
		return ""
	}
	return path.Join(r.URLPrefix, name)
}

// TableRow is one row of the on-screen exercise table.
type TableRow struct {
	ExerciseRow
	ImageURL string
}

// Table returns the on-screen rows: the PDF columns plus a resolved image.
func Table(doc Document, images ImageResolver) []TableRow {
	rows := make([]TableRow, 0, len(doc.Exercises))
	for _, e := range doc.Exercises {
		rows = append(rows, TableRow{ExerciseRow: e, ImageURL: images.Resolve(e.Image)})
	}
	return rows
}
