package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the repository uses. pgxmock
// implements it for tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const messageColumns = `id, user_id, role, body, is_error, created_at`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository creates a new PostgreSQL chat repository
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert appends a message to the user's history
func (r *PostgresRepository) Insert(ctx context.Context, userID uuid.UUID, role, body string, isError bool) (*Message, error) {
	query := `
		INSERT INTO chat_messages (user_id, role, body, is_error)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	m := &Message{}
	err := r.db.QueryRow(ctx, query, userID, role, body, isError).
		Scan(&m.ID, &m.UserID, &m.Role, &m.Body, &m.IsError, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat message: %w", err)
	}
	return m, nil
}

// ListRecent returns the user's most recent messages, oldest first, so
// the page can render them top to bottom.
func (r *PostgresRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM (
			SELECT ` + messageColumns + `
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.Role, &m.Body, &m.IsError, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteAll clears the user's history
func (r *PostgresRepository) DeleteAll(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to clear chat history: %w", err)
	}
	return nil
}

// TrimUser deletes the user's messages beyond the keep most recent.
func (r *PostgresRepository) TrimUser(ctx context.Context, userID uuid.UUID, keep int) (int64, error) {
	query := `
		DELETE FROM chat_messages
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		)`

	result, err := r.db.Exec(ctx, query, userID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim chat history: %w", err)
	}
	return result.RowsAffected(), nil
}

// TrimAll applies the per-user cap across every user. Run nightly.
func (r *PostgresRepository) TrimAll(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM chat_messages
		WHERE id IN (
			SELECT id FROM (
				SELECT id, row_number() OVER (
					PARTITION BY user_id
					ORDER BY created_at DESC, id DESC
				) AS rn
				FROM chat_messages
			) ranked
			WHERE ranked.rn > $1
		)`

	result, err := r.db.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to trim chat histories: %w", err)
	}
	return result.RowsAffected(), nil
}
