package repository

import (
	"context"
	"time"
)

// SessionRepository defines the storage surface the auth service depends on.
type SessionRepository interface {
	Create(ctx context.Context, tokenHash, vendorID string, expiresAt time.Time) error
	Get(ctx context.Context, tokenHash string) (*Session, error)
	Revoke(ctx context.Context, tokenHash string) error
}

// Compile-time check that Repository implements SessionRepository.
var _ SessionRepository = (*Repository)(nil)
