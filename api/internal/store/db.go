package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Open connects, pings and makes sure the schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var (
		drvName string
		schema  []string
	)
	switch driver {
	case DriverPostgres:
		drvName, schema = "pgx", schemaPostgres
	case DriverSQLite:
		drvName, schema = "sqlite", schemaSQLite
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}
	if driver == DriverPostgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(1 * time.Hour)
	} else {
		// one writer; also keeps a :memory: database alive across calls
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db.Ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}
	return db, nil
}

var (
	schemaPostgres = schema("DOUBLE PRECISION")
	schemaSQLite   = schema("REAL")
)

func schema(floatType string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS evaluations (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  batch_id TEXT,
  student_name TEXT NOT NULL,
  total_marks INTEGER NOT NULL DEFAULT 0,
  obtained_marks INTEGER NOT NULL DEFAULT 0,
  percentage ` + floatType + ` NOT NULL DEFAULT 0,
  grade TEXT NOT NULL DEFAULT '',
  correct_answers TEXT NOT NULL DEFAULT '[]',
  incorrect_answers TEXT NOT NULL DEFAULT '[]',
  partial_credit_areas TEXT NOT NULL DEFAULT '[]',
  strengths TEXT NOT NULL DEFAULT '[]',
  areas_for_improvement TEXT NOT NULL DEFAULT '[]',
  detailed_feedback TEXT NOT NULL DEFAULT '',
  evaluation_type TEXT NOT NULL,
  created_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS evaluations_assignment_idx ON evaluations (assignment_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS evaluation_batches (
  id TEXT PRIMARY KEY,
  assignment_id TEXT NOT NULL,
  total_submissions INTEGER NOT NULL,
  completed_evaluations INTEGER NOT NULL,
  status TEXT NOT NULL,
  summary TEXT NOT NULL,
  created_at TEXT NOT NULL,
  completed_at TEXT
)`,
	}
}
