package repo

import (
	"context"
	"database/sql"

	"github.com/askbase/askbase/internal/model"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append adds a message to the end of a thread's log and returns it with
// the assigned sequence number. Turns on one thread are serialized by the
// pipeline, so the max-seq subquery does not race with itself.
func (r *MessageRepo) Append(ctx context.Context, threadID string, msg model.Message) (model.Message, error) {
	const query = `
		INSERT INTO messages (thread_id, seq, role, content, ctime)
		VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE thread_id = $1), $2, $3, $4)
		RETURNING seq
	`
	msg.ThreadID = threadID
	err := r.db.QueryRowContext(ctx, query, threadID, msg.Role, msg.Content, msg.Ctime).Scan(&msg.Seq)
	return msg, err
}

func (r *MessageRepo) List(ctx context.Context, threadID string) ([]model.Message, error) {
	const query = `
		SELECT thread_id, seq, role, content, ctime
		FROM messages
		WHERE thread_id = $1
		ORDER BY seq
	`
	rows, err := r.db.QueryContext(ctx, query, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []model.Message
	for rows.Next() {
		var msg model.Message
		if err := rows.Scan(&msg.ThreadID, &msg.Seq, &msg.Role, &msg.Content, &msg.Ctime); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// ReplaceWithSummary atomically swaps a thread's log for the summary message
// followed by the kept tail, renumbering from 1 while preserving order.
func (r *MessageRepo) ReplaceWithSummary(ctx context.Context, threadID string, summary model.Message, keep []model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = $1`, threadID); err != nil {
		return err
	}
	const insert = `
		INSERT INTO messages (thread_id, seq, role, content, ctime)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, insert, threadID, 1, model.RoleSummary, summary.Content, summary.Ctime); err != nil {
		return err
	}
	for i, msg := range keep {
		if _, err := tx.ExecContext(ctx, insert, threadID, int64(i)+2, msg.Role, msg.Content, msg.Ctime); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *MessageRepo) DeleteByThread(ctx context.Context, threadID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = $1`, threadID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
