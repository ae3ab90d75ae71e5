// Package history records finished polls in PostgreSQL and serves them
// back to the dashboard, newest first.
package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// Repository handles finished-poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a history repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append inserts a finished poll. Re-appending the same poll id is a no-op,
// so a redundant end transition cannot duplicate a record.
func (r *Repository) Append(ctx context.Context, rec models.PollRecord) error {
	options, err := json.Marshal(rec.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}
	results, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	const query = `INSERT INTO finished_polls (poll_id, question, options, results, time_limit, start_time, end_time, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)
		ON CONFLICT (poll_id) DO NOTHING`
	_, err = r.pool.Exec(ctx, query,
		rec.PollID, rec.Question, options, results, rec.TimeLimit, rec.StartTime, rec.EndTime)
	if err != nil {
		return fmt.Errorf("insert finished poll: %w", err)
	}
	return nil
}

// Recent returns the n most recently started finished polls, newest first.
func (r *Repository) Recent(ctx context.Context, n int) ([]models.PollRecord, error) {
	const query = `SELECT poll_id, question, options, results, time_limit, start_time, end_time
		FROM finished_polls
		WHERE is_active = FALSE
		ORDER BY start_time DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query finished polls: %w", err)
	}
	defer rows.Close()

	records := make([]models.PollRecord, 0, n)
	for rows.Next() {
		var (
			rec     models.PollRecord
			options []byte
			results []byte
		)
		if err := rows.Scan(&rec.PollID, &rec.Question, &options, &results,
			&rec.TimeLimit, &rec.StartTime, &rec.EndTime); err != nil {
			return nil, fmt.Errorf("scan finished poll: %w", err)
		}
		if err := json.Unmarshal(options, &rec.Options); err != nil {
			return nil, fmt.Errorf("decode options: %w", err)
		}
		if err := json.Unmarshal(results, &rec.Results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
