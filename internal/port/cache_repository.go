package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency claims a key for idempotency check, returns false if already claimed
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// StoreSession records a live session for the user
	StoreSession(ctx context.Context, sessionID, userID string, ttl time.Duration) error

	// SessionUser resolves a session to its user ID, reporting liveness
	SessionUser(ctx context.Context, sessionID string) (string, bool, error)

	// DeleteSession revokes a session
	DeleteSession(ctx context.Context, sessionID string) error
}
