// Package sessions persists session payloads in PostgreSQL. The table layout
// (sid, sess, expire) matches the one used by existing deployments so their
// sessions survive the switch.
package sessions

import (
	"context"
	"time"
)

// Repository is a session store with maintenance operations for the admin CLI.
// Get of an absent or expired session returns common.ErrorNotFound.
type Repository interface {
	Set(ctx context.Context, sid string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, sid string) ([]byte, error)
	Del(ctx context.Context, sid string) error
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
