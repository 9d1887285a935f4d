package repo

import (
	"context"
	"database/sql"

	"github.com/askbase/askbase/internal/model"
	appErr "github.com/askbase/askbase/internal/pkg/errors"
)

type ThreadRepo struct {
	db *sql.DB
}

func NewThreadRepo(db *sql.DB) *ThreadRepo {
	return &ThreadRepo{db: db}
}

// Touch creates the thread on its first turn and bumps last_turn_at on every
// later one.
func (r *ThreadRepo) Touch(ctx context.Context, threadID string, now int64) error {
	const query = `
		INSERT INTO threads (id, ctime, last_turn_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (id) DO UPDATE SET last_turn_at = EXCLUDED.last_turn_at
	`
	_, err := r.db.ExecContext(ctx, query, threadID, now)
	return err
}

func (r *ThreadRepo) GetByID(ctx context.Context, threadID string) (*model.Thread, error) {
	const query = `SELECT id, ctime, last_turn_at FROM threads WHERE id = $1`
	var thread model.Thread
	err := r.db.QueryRowContext(ctx, query, threadID).Scan(&thread.ID, &thread.Ctime, &thread.LastTurnAt)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

func (r *ThreadRepo) List(ctx context.Context) ([]model.Thread, error) {
	const query = `SELECT id, ctime, last_turn_at FROM threads ORDER BY last_turn_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var threads []model.Thread
	for rows.Next() {
		var thread model.Thread
		if err := rows.Scan(&thread.ID, &thread.Ctime, &thread.LastTurnAt); err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

// ListIdle returns threads whose last turn predates cutoff; the cleanup job
// reaps them.
func (r *ThreadRepo) ListIdle(ctx context.Context, cutoff int64, limit int) ([]model.Thread, error) {
	const query = `
		SELECT id, ctime, last_turn_at
		FROM threads
		WHERE last_turn_at < $1
		ORDER BY last_turn_at
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var threads []model.Thread
	for rows.Next() {
		var thread model.Thread
		if err := rows.Scan(&thread.ID, &thread.Ctime, &thread.LastTurnAt); err != nil {
			return nil, err
		}
		threads = append(threads, thread)
	}
	return threads, rows.Err()
}

func (r *ThreadRepo) Delete(ctx context.Context, threadID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, threadID)
	return err
}
