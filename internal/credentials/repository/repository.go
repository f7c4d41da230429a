// Package repository persists per-vendor Google grants. Token columns hold
// AES-GCM ciphertext; the service layer owns the key and never hands
// plaintext to this package.
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

const credentialColumns = `vendor_id, COALESCE(access_token, ''), COALESCE(refresh_token, ''),
	token_expires_at, scope, is_connected, connected_at, disconnected_at, created_at, updated_at`

// Credential is one vendor's stored grant. AccessToken and RefreshToken are
// encrypted; empty strings mean no token is stored.
type Credential struct {
	VendorID       string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
	Scope          string
	IsConnected    bool
	ConnectedAt    *time.Time
	DisconnectedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository provides access to vendor credential storage.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new credentials repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get returns the stored grant for a vendor, or nil when the vendor never
// connected. Absence is a normal state here, not an error.
func (r *Repository) Get(ctx context.Context, vendorID string) (*Credential, error) {
	query := fmt.Sprintf(`SELECT %s FROM vendor_credentials WHERE vendor_id = $1`, credentialColumns)

	cred, err := scanCredential(r.pool.QueryRow(ctx, query, vendorID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return cred, nil
}

// UpsertGrant stores a fresh grant and marks the vendor connected. An empty
// refreshToken keeps the previously stored one, since Google omits the
// refresh token on repeat grants.
func (r *Repository) UpsertGrant(ctx context.Context, vendorID, accessToken, refreshToken string, expiresAt *time.Time, scope string) error {
	query := `
		INSERT INTO vendor_credentials
			(vendor_id, access_token, refresh_token, token_expires_at, scope, is_connected, connected_at, disconnected_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, now(), NULL, now())
		ON CONFLICT (vendor_id) DO UPDATE SET
			access_token     = EXCLUDED.access_token,
			refresh_token    = CASE WHEN EXCLUDED.refresh_token = '' THEN vendor_credentials.refresh_token ELSE EXCLUDED.refresh_token END,
			token_expires_at = EXCLUDED.token_expires_at,
			scope            = EXCLUDED.scope,
			is_connected     = true,
			connected_at     = now(),
			disconnected_at  = NULL,
			updated_at       = now()`

	if _, err := r.pool.Exec(ctx, query, vendorID, accessToken, refreshToken, expiresAt, scope); err != nil {
		return fmt.Errorf("upsert grant: %w", err)
	}
	return nil
}

// UpdateAccessToken replaces the access token after a refresh. An empty
// refreshToken keeps the stored one; a non-empty value records a rotation.
func (r *Repository) UpdateAccessToken(ctx context.Context, vendorID, accessToken string, expiresAt *time.Time, refreshToken string) error {
	query := `
		UPDATE vendor_credentials
		SET access_token     = $2,
		    token_expires_at = $3,
		    refresh_token    = CASE WHEN $4 = '' THEN refresh_token ELSE $4 END,
		    updated_at       = now()
		WHERE vendor_id = $1`

	tag, err := r.pool.Exec(ctx, query, vendorID, accessToken, expiresAt, refreshToken)
	if err != nil {
		return fmt.Errorf("update access token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("credential not found")
	}
	return nil
}

// MarkDisconnected drops the stored tokens and flags the vendor as needing
// a new consent flow.
func (r *Repository) MarkDisconnected(ctx context.Context, vendorID string) error {
	query := `
		UPDATE vendor_credentials
		SET access_token    = NULL,
		    refresh_token   = NULL,
		    is_connected    = false,
		    disconnected_at = now(),
		    updated_at      = now()
		WHERE vendor_id = $1`

	tag, err := r.pool.Exec(ctx, query, vendorID)
	if err != nil {
		return fmt.Errorf("mark disconnected: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("credential not found")
	}
	return nil
}

func scanCredential(row pgx.Row) (*Credential, error) {
	var c Credential
	err := row.Scan(
		&c.VendorID,
		&c.AccessToken,
		&c.RefreshToken,
		&c.TokenExpiresAt,
		&c.Scope,
		&c.IsConnected,
		&c.ConnectedAt,
		&c.DisconnectedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
