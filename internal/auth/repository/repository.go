// Package repository persists refresh sessions. Rows are keyed by the
// SHA-256 hash of the opaque token; the token itself never touches storage.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portal_ventas_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is one refresh session.
type Session struct {
	TokenHash string
	VendorID  string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// Repository provides access to session storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new sessions repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create stores a new session.
func (r *Repository) Create(ctx context.Context, tokenHash, vendorID string, expiresAt time.Time) error {
	query := `INSERT INTO sessions (token_hash, vendor_id, expires_at) VALUES ($1, $2, $3)`

	if _, err := r.pool.Exec(ctx, query, tokenHash, vendorID, expiresAt); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Get returns the session stored under a token hash.
func (r *Repository) Get(ctx context.Context, tokenHash string) (*Session, error) {
	query := `
		SELECT token_hash, vendor_id, expires_at, created_at, revoked_at
		FROM sessions
		WHERE token_hash = $1`

	var s Session
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&s.TokenHash,
		&s.VendorID,
		&s.ExpiresAt,
		&s.CreatedAt,
		&s.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("session not found")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Revoke marks a session revoked. Revoking an unknown or already revoked
// session is a no-op so logout stays idempotent.
func (r *Repository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE sessions SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
