package repository

import (
	"context"
	"time"
)

// CredentialRepository defines the storage surface the service depends on.
type CredentialRepository interface {
	Get(ctx context.Context, vendorID string) (*Credential, error)
	UpsertGrant(ctx context.Context, vendorID, accessToken, refreshToken string, expiresAt *time.Time, scope string) error
	UpdateAccessToken(ctx context.Context, vendorID, accessToken string, expiresAt *time.Time, refreshToken string) error
	MarkDisconnected(ctx context.Context, vendorID string) error
}

// Compile-time check that Repository implements CredentialRepository.
var _ CredentialRepository = (*Repository)(nil)
