package results

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/liamcoop/modelbench/model"
)

// uniqueViolation is the PostgreSQL error code for a duplicate key
const uniqueViolation = "23505"

// PostgresStore implements Store backed by the results table
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add inserts a result. Failures are stored as a JSONB array.
func (s *PostgresStore) Add(result *Result) error {
	if result.ID == "" {
		result.ID = uuid.New().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	failures := result.Failures
	if failures == nil {
		failures = []model.Failure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO results (id, run_id, category, test_name, failures, score, duration_ns, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, result.ID, result.RunID, result.Category, result.TestName, failuresJSON,
		result.Score, int64(result.Duration), result.Error, result.CreatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, result.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}

	return nil
}

// Get retrieves a result by ID
func (s *PostgresStore) Get(id string) (*Result, error) {
	row := s.db.QueryRow(`
		SELECT id, run_id, category, test_name, failures, score, duration_ns, error, created_at
		FROM results
		WHERE id = $1
	`, id)

	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

// ListByRun returns a run's results in insertion order
func (s *PostgresStore) ListByRun(runID string) ([]*Result, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, category, test_name, failures, score, duration_ns, error, created_at
		FROM results
		WHERE run_id = $1
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	list := []*Result{}
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		list = append(list, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}

	return list, nil
}

// Delete removes a result
func (s *PostgresStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM results WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*Result, error) {
	var (
		r            Result
		failuresJSON []byte
		durationNS   int64
	)
	if err := row.Scan(&r.ID, &r.RunID, &r.Category, &r.TestName, &failuresJSON,
		&r.Score, &durationNS, &r.Error, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(failuresJSON, &r.Failures); err != nil {
		return nil, fmt.Errorf("invalid failures for result %s: %w", r.ID, err)
	}
	if r.Failures == nil {
		r.Failures = []model.Failure{}
	}
	r.Duration = time.Duration(durationNS)
	return &r, nil
}
