// Package sqlite replays generated fixtures into a statistical_reference_values
// table and reads them back the way the quality control engine does.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS statistical_reference_values (
    stationid   INTEGER NOT NULL,
    paramid     INTEGER NOT NULL,
    day_of_year INTEGER NOT NULL,
    key         TEXT NOT NULL,
    value       FLOAT NOT NULL
);`

const selectReferenceSQL = `
SELECT stationid, day_of_year, value FROM statistical_reference_values
 WHERE paramid = ? AND key = ?
 ORDER BY stationid, day_of_year`

// ReferenceValue is one row as seen by the consumer.
type ReferenceValue struct {
	StationID int
	DayOfYear int
	Value     float64
}

// Store wraps a SQLite database holding reference values.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens dsn, e.g. ":memory:", and creates the reference table.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create reference table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ExecBatch runs the statements of one fixture batch in a single transaction.
func (s *Store) ExecBatch(ctx context.Context, stmts []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("exec statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	s.logger.Debug("fixture batch loaded", "statements", len(stmts))
	return nil
}

// LoadFixture executes every batch in order.
func (s *Store) LoadFixture(ctx context.Context, batches [][]string) error {
	for i, b := range batches {
		if err := s.ExecBatch(ctx, b); err != nil {
			return fmt.Errorf("batch %d: %w", i+1, err)
		}
	}
	return nil
}

// ReferenceValues returns all rows for paramID and key ordered by station and day.
func (s *Store) ReferenceValues(ctx context.Context, paramID int, key string) ([]ReferenceValue, error) {
	rows, err := s.db.QueryContext(ctx, selectReferenceSQL, paramID, key)
	if err != nil {
		return nil, fmt.Errorf("query reference values: %w", err)
	}
	defer rows.Close()

	var out []ReferenceValue
	for rows.Next() {
		var rv ReferenceValue
		if err := rows.Scan(&rv.StationID, &rv.DayOfYear, &rv.Value); err != nil {
			return nil, fmt.Errorf("scan reference value: %w", err)
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// CountByParam returns the number of rows per paramid.
func (s *Store) CountByParam(ctx context.Context) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT paramid, COUNT(*) FROM statistical_reference_values GROUP BY paramid`)
	if err != nil {
		return nil, fmt.Errorf("count reference values: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var param, n int
		if err := rows.Scan(&param, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[param] = n
	}
	return counts, rows.Err()
}
