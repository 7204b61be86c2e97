package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

const (
	selectSymptoms  = `SELECT symptom_id, symptom_name FROM symptoms ORDER BY symptom_id`
	selectTests     = `SELECT test_id, symptom_id, test_name, description, positive_indication FROM tests ORDER BY test_id`
	selectExercises = `SELECT exercise_name, description, sets, reps, frequency, condition, COALESCE(image, '') FROM exercises ORDER BY position`
)

// rows is the subset of pgx.Rows and *sql.Rows the loaders need.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

type queryFunc func(ctx context.Context, query string) (rows, func(), error)

// PostgresSource reads the lookup tables from Postgres.
type PostgresSource struct {
	Pool *pgxpool.Pool
}

func (s PostgresSource) Name() string { return "postgres" }

func (s PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	return loadSQL(ctx, func(ctx context.Context, query string) (rows, func(), error) {
		r, err := s.Pool.Query(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	})
}

// ConnectPostgres opens a pool and verifies it with a ping.
func ConnectPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse db url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// SQLiteSource reads the lookup tables from a SQLite database file.
type SQLiteSource struct {
	Path string
}

func (s SQLiteSource) Name() string { return "sqlite" }

func (s SQLiteSource) Load(ctx context.Context) (*Catalog, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	return loadSQL(ctx, func(ctx context.Context, query string) (rows, func(), error) {
		r, err := db.QueryContext(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	})
}

func loadSQL(ctx context.Context, query queryFunc) (*Catalog, error) {
	symptoms, err := scanAll(ctx, query, selectSymptoms, func(r rows) (Symptom, error) {
		var s Symptom
		err := r.Scan(&s.ID, &s.Name)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("load symptoms: %w", err)
	}

	tests, err := scanAll(ctx, query, selectTests, func(r rows) (Test, error) {
		var t Test
		err := r.Scan(&t.ID, &t.SymptomID, &t.Name, &t.Description, &t.PositiveIndication)
		return t, err
	})
	if err != nil {
		return nil, fmt.Errorf("load tests: %w", err)
	}

	exercises, err := scanAll(ctx, query, selectExercises, func(r rows) (Exercise, error) {
		var e Exercise
		err := r.Scan(&e.Name, &e.Description, &e.Sets, &e.Reps, &e.Frequency, &e.Condition, &e.Image)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("load exercises: %w", err)
	}

	return New(symptoms, tests, exercises)
}

func scanAll[T any](ctx context.Context, query queryFunc, q string, scan func(rows) (T, error)) ([]T, error) {
	r, closeRows, err := query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer closeRows()

	var out []T
	for r.Next() {
		v, err := scan(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, r.Err()
}
