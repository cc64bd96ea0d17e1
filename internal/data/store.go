// Package data is the persistence layer: Camera/Detection/AlertType models
// over Postgres via database/sql + lib/pq, following the teacher's
// internal/data model-per-file convention (cameras.go, repositories.go).
package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

var ErrRecordNotFound = errors.New("data: record not found")

// DBTX is satisfied by both *sql.DB and *sql.Tx, letting every model method
// run either standalone or inside the single commit transaction artifact
// ingestion requires.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store owns the connection pool and exposes one model per entity.
type Store struct {
	DB *sql.DB

	Cameras    CameraModel
	Detections DetectionModel
	AlertTypes AlertTypeModel
}

func Open(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		DB:         db,
		Cameras:    CameraModel{DB: db},
		Detections: DetectionModel{DB: db},
		AlertTypes: AlertTypeModel{DB: db},
	}
}

// withTx runs fn inside a transaction, rolling back on any error or panic
// and committing otherwise, so a Camera upsert, Detection insert, alert
// rows, and counter bump land as a single atomic commit per artifact.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505), treated by the commit step as a
// concurrent-duplicate dedupe hit rather than a real failure.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
