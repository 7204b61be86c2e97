package catalog

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func writeTables(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, SymptomsFile, "symptom_id,symptom_name\n1,Knee Pain\n2,Shoulder Pain\n")
	writeFile(t, dir, TestsFile, "test_id,symptom_id,test_name,description,positive_indication\n"+
		"1,1,Single Leg Squat,\"Squat, slowly\",patellar_tendinopathy\n"+
		"2,1,Step Down Test,Step down,patellofemoral_pain_syndrome\n"+
		"3,2,Painful Arc,Raise arm,rotator_cuff_tendinopathy\n")
	writeFile(t, dir, ExercisesFile, "exercise_name,description,sets,reps,frequency,condition,image\n"+
		"Spanish Squat,Band squat,3,10,Daily,patellar_tendinopathy,spanish.png\n"+
		"Wall Sit,Hold,3,5,Daily,patellofemoral_pain_syndrome,\n")
}

func TestCSVSourceLoad(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir)

	c, err := CSVSource{Dir: dir}.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Counts{Symptoms: 2, Tests: 3, Exercises: 2}, c.Counts())
	tests := c.TestsFor(1)
	require.Len(t, tests, 2)
	assert.Equal(t, "Squat, slowly", tests[0].Description)

	ex := c.ExercisesFor(NewConditionSet("patellar_tendinopathy"))
	require.Len(t, ex, 1)
	assert.Equal(t, Exercise{
		Name: "Spanish Squat", Description: "Band squat", Sets: 3, Reps: 10,
		Frequency: "Daily", Condition: "patellar_tendinopathy", Image: "spanish.png",
	}, ex[0])
}

func TestCSVSourceColumnOrderIsFree(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir)
	writeFile(t, dir, SymptomsFile, "symptom_name,symptom_id\nKnee Pain,1\nShoulder Pain,2\n")

	c, err := CSVSource{Dir: dir}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Symptom{ID: 1, Name: "Knee Pain"}, c.DefaultSymptom())
}

func TestCSVSourceErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{"missing header column", TestsFile, "test_id,symptom_id,test_name,description\n1,1,A,B\n", ErrMissingColumn},
		{"empty file", SymptomsFile, "", nil},
		{"bad integer", ExercisesFile, "exercise_name,description,sets,reps,frequency,condition,image\nA,B,three,10,Daily,x,\n", nil},
		{"orphan test", TestsFile, "test_id,symptom_id,test_name,description,positive_indication\n1,7,A,B,c\n", ErrUnknownSymptom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTables(t, dir)
			writeFile(t, dir, tt.file, tt.content)

			_, err := CSVSource{Dir: dir}.Load(context.Background())
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeTables(t, dir)
	require.NoError(t, os.Remove(filepath.Join(dir, ExercisesFile)))

	_, err := CSVSource{Dir: dir}.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSQLiteSourceLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	schema, err := os.ReadFile(filepath.Join("..", "..", "db", "schema.sql"))
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)

	_, err = db.Exec(`
		INSERT INTO symptoms VALUES (1, 'Knee Pain'), (2, 'Shoulder Pain');
		INSERT INTO tests VALUES
			(1, 1, 'Single Leg Squat', 'Squat', 'patellar_tendinopathy'),
			(2, 2, 'Painful Arc', 'Raise arm', 'rotator_cuff_tendinopathy');
		INSERT INTO exercises VALUES
			(1, 'Spanish Squat', 'Band squat', 3, 10, 'Daily', 'patellar_tendinopathy', 'spanish.png'),
			(2, 'Side Lying External Rotation', 'Rotate', 3, 12, 'Daily', 'rotator_cuff_tendinopathy', NULL);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	c, err := SQLiteSource{Path: path}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Counts{Symptoms: 2, Tests: 2, Exercises: 2}, c.Counts())

	ex := c.ExercisesFor(NewConditionSet("rotator_cuff_tendinopathy"))
	require.Len(t, ex, 1)
	assert.Equal(t, "", ex[0].Image)
	assert.Equal(t, 12, ex[0].Reps)
}

func TestSQLiteSourceMissingFile(t *testing.T) {
	_, err := SQLiteSource{Path: filepath.Join(t.TempDir(), "nope.db")}.Load(context.Background())
	require.Error(t, err)
}

func TestBundledDataIsConsistent(t *testing.T) {
	c, err := CSVSource{Dir: filepath.Join("..", "..", "data")}.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, c.CheckIntegrity())

	knee, ok := c.SymptomByName("Knee Pain")
	require.True(t, ok)
	assert.Equal(t, knee, c.DefaultSymptom())
}
