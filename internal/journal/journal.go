// Package journal keeps an in-memory DuckDB log of every fetch made during
// the life of the process. Nothing is written to disk.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/strrl/pixgrid/internal/gallery"
)

const schema = `
	CREATE TABLE IF NOT EXISTS fetches (
		request_id  VARCHAR PRIMARY KEY,
		query       VARCHAR NOT NULL,
		page        INTEGER NOT NULL,
		generation  BIGINT NOT NULL,
		hits        INTEGER NOT NULL,
		total_hits  INTEGER NOT NULL,
		elapsed_ms  DOUBLE NOT NULL,
		error       VARCHAR,
		issued_at   TIMESTAMP NOT NULL
	)`

// Journal records fetches. It is safe for concurrent use.
type Journal struct {
	db *sql.DB
}

// QueryStats aggregates the fetches made for one query
type QueryStats struct {
	Query        string
	Fetches      int
	Failures     int
	MaxPage      int
	Hits         int
	AvgElapsedMs float64
}

// Open creates an empty in-memory journal
func Open() (*Journal, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	// An in-memory DuckDB database lives and dies with its connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Close releases the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record implements gallery.Recorder
func (j *Journal) Record(ctx context.Context, req gallery.Request, hits, totalHits int, elapsed time.Duration, fetchErr error) error {
	var errText sql.NullString
	if fetchErr != nil {
		errText = sql.NullString{String: fetchErr.Error(), Valid: true}
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO fetches (request_id, query, page, generation, hits, total_hits, elapsed_ms, error, issued_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.Query,
		req.Page,
		int64(req.Generation),
		hits,
		totalHits,
		float64(elapsed.Microseconds())/1000,
		errText,
		req.IssuedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert fetch %s: %w", req.ID, err)
	}
	return nil
}

// Count returns the number of recorded fetches
func (j *Journal) Count(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count fetches: %w", err)
	}
	return n, nil
}

// Summary aggregates fetches per query, in the order queries were first searched
func (j *Journal) Summary(ctx context.Context) ([]QueryStats, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT
			query,
			CAST(COUNT(*) AS INTEGER) AS fetches,
			CAST(COUNT(error) AS INTEGER) AS failures,
			MAX(page) AS max_page,
			CAST(SUM(hits) AS INTEGER) AS hits,
			AVG(elapsed_ms) AS avg_elapsed_ms
		FROM fetches
		GROUP BY query
		ORDER BY MIN(issued_at), query
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to execute summary query: %w", err)
	}
	defer rows.Close()

	var stats []QueryStats
	for rows.Next() {
		var s QueryStats
		if err := rows.Scan(&s.Query, &s.Fetches, &s.Failures, &s.MaxPage, &s.Hits, &s.AvgElapsedMs); err != nil {
			return nil, fmt.Errorf("failed to scan summary row: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
