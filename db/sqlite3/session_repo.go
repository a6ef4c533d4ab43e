package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/plume-app/plume/session"
)

const tableSessions = "sessions"

// SessionStorage is the durable mirror of the session store: the frontend's
// equivalent of the browser's localStorage, so restarts keep users logged in.
type SessionStorage struct {
	db *sql.DB
}

var _ session.Storage = (*SessionStorage)(nil)

func NewSessionStorage(db *sql.DB) *SessionStorage {
	return &SessionStorage{db: db}
}

const (
	sessionFieldID        = "id"
	sessionFieldToken     = "token"
	sessionFieldUserID    = "user_id"
	sessionFieldCreatedAt = "created_at"
)

func sessionColumns() []string {
	return []string{
		sessionFieldID,
		sessionFieldToken,
		sessionFieldUserID,
		sessionFieldCreatedAt,
	}
}

func scanSession(row sq.RowScanner) (*session.Session, error) {
	var sess session.Session

	err := row.Scan(
		&sess.ID,
		&sess.Token,
		&sess.UserID,
		&sess.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &sess, nil
}

func (repo *SessionStorage) Save(ctx context.Context, sess *session.Session) error {
	query := fmt.Sprintf(`
INSERT INTO %s (id, token, user_id, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id)
DO UPDATE SET
    token = excluded.token,
    user_id = excluded.user_id,
    created_at = excluded.created_at
`, tableSessions)

	_, err := repo.db.ExecContext(ctx, query, sess.ID, sess.Token, sess.UserID, sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	return nil
}

func (repo *SessionStorage) Delete(ctx context.Context, id string) error {
	q := sq.Delete(tableSessions).
		Where(sq.Eq{sessionFieldID: id})

	q = q.RunWith(repo.db)

	result, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &session.NotFoundError{ID: id}
	}

	return nil
}

func (repo *SessionStorage) List(ctx context.Context) ([]*session.Session, error) {
	q := sq.Select(sessionColumns()...).
		From(tableSessions).
		OrderBy(sessionFieldCreatedAt + " ASC")

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	sessions := make([]*session.Session, 0)

	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session failed: %w", err)
		}

		sessions = append(sessions, sess)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return sessions, nil
}
