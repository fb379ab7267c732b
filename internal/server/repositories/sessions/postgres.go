package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/partsinventory/internal/common"
	"github.com/dmitrijs2005/partsinventory/internal/dbx"
)

// PostgresRepository implements Repository over dbx.DBTX.
type PostgresRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

// Set upserts the payload with an expiry of now+ttl.
func (r *PostgresRepository) Set(ctx context.Context, sid string, payload []byte, ttl time.Duration) error {
	query := `
		INSERT INTO session_store (sid, sess, expire)
		VALUES ($1, $2, $3)
		ON CONFLICT (sid) DO UPDATE SET sess = EXCLUDED.sess, expire = EXCLUDED.expire
	`
	if _, err := r.db.ExecContext(ctx, query, sid, string(payload), r.now().Add(ttl)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Get returns the payload of a live session.
func (r *PostgresRepository) Get(ctx context.Context, sid string) ([]byte, error) {
	query := `
		SELECT sess
		FROM session_store
		WHERE sid = $1 AND expire > $2
	`
	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, sid, r.now()).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return payload, nil
}

// Del removes a session. Removing an absent session is not an error.
func (r *PostgresRepository) Del(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_store WHERE sid = $1`, sid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry has passed and returns how many.
func (r *PostgresRepository) DeleteExpired(ctx context.Context) (int64, error) {
	return r.exec(ctx, `DELETE FROM session_store WHERE expire <= $1`, r.now())
}

// DeleteByUser removes every session of userID and returns how many.
func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	return r.exec(ctx, `DELETE FROM session_store WHERE sess ->> 'user_id' = $1`, userID)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
