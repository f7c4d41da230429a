// Package service manages per-vendor Google grants: storing them encrypted,
// minting live access tokens with refresh, and disconnecting dead grants.
// The calendar reconciler only ever sees the AccessToken method.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"portal_ventas_backend/internal/credentials/googleoauth"
	"portal_ventas_backend/internal/credentials/repository"
	"portal_ventas_backend/internal/credentials/tokencrypto"
	"portal_ventas_backend/internal/credentials/transport"
	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"
)

// expiryLeeway is how long before the recorded expiry a stored access token
// stops being handed out, so a token never dies mid-flight.
const expiryLeeway = time.Minute

// TokenSource refreshes grants against the provider's token endpoint.
type TokenSource interface {
	Refresh(ctx context.Context, refreshToken string) (googleoauth.Token, error)
}

// Grant is the token pair produced by an OAuth code exchange.
type Grant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	Scope        string
}

// Service implements credential storage and the access-token lookup.
type Service struct {
	repo   repository.CredentialRepository
	tokens TokenSource
	key    []byte
	log    *logger.Logger
	now    func() time.Time
}

// New creates a new credentials service. encryptionKey must be the 32-byte
// AES-256 key used for tokens at rest.
func New(repo repository.CredentialRepository, tokens TokenSource, encryptionKey []byte, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		tokens: tokens,
		key:    encryptionKey,
		log:    log,
		now:    time.Now,
	}
}

// SaveGrant encrypts and stores a grant, marking the vendor connected. An
// empty refresh token keeps the stored one; Google only returns the refresh
// token on consent, not on silent re-auth.
func (s *Service) SaveGrant(ctx context.Context, vendorID string, g Grant) error {
	if len(s.key) == 0 {
		return apperr.Internal("credential encryption not configured")
	}

	encAccess, err := tokencrypto.Encrypt(g.AccessToken, s.key)
	if err != nil {
		return apperr.Internal("failed to encrypt access token")
	}

	var encRefresh string
	if g.RefreshToken != "" {
		encRefresh, err = tokencrypto.Encrypt(g.RefreshToken, s.key)
		if err != nil {
			return apperr.Internal("failed to encrypt refresh token")
		}
	}

	return s.repo.UpsertGrant(ctx, vendorID, encAccess, encRefresh, s.expiry(g.ExpiresIn), g.Scope)
}

// AccessToken returns a live access token for the vendor, refreshing the
// stored grant when it is expired or about to expire. A vendor without a
// usable grant gets CredentialUnavailable and must run the consent flow.
func (s *Service) AccessToken(ctx context.Context, vendorID string) (string, error) {
	cred, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return "", err
	}
	if cred == nil || !cred.IsConnected {
		return "", apperr.CredentialUnavailable("no Google Calendar connection for this account; connect it and retry")
	}

	if cred.AccessToken != "" && s.stillFresh(cred.TokenExpiresAt) {
		if token, err := tokencrypto.Decrypt(cred.AccessToken, s.key); err == nil {
			return token, nil
		}
		// Unreadable ciphertext (rotated key): fall through and refresh.
	}

	return s.refresh(ctx, vendorID, cred)
}

// Status reports the integration state for a vendor.
func (s *Service) Status(ctx context.Context, vendorID string) (transport.StatusResponse, error) {
	cred, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return transport.StatusResponse{}, err
	}
	if cred == nil || !cred.IsConnected {
		return transport.StatusResponse{Connected: false}, nil
	}

	return transport.StatusResponse{
		Connected:      true,
		Scope:          cred.Scope,
		ConnectedAt:    cred.ConnectedAt,
		TokenExpiresAt: cred.TokenExpiresAt,
	}, nil
}

// Disconnect drops the stored grant. Reconciliation for this vendor fails
// with CredentialUnavailable until the consent flow runs again.
func (s *Service) Disconnect(ctx context.Context, vendorID string) error {
	cred, err := s.repo.Get(ctx, vendorID)
	if err != nil {
		return err
	}
	if cred == nil {
		return apperr.NotFound("no Google Calendar connection for this account")
	}
	return s.repo.MarkDisconnected(ctx, vendorID)
}

func (s *Service) refresh(ctx context.Context, vendorID string, cred *repository.Credential) (string, error) {
	if cred.RefreshToken == "" {
		s.disconnect(ctx, vendorID)
		return "", apperr.CredentialUnavailable("the stored Google grant cannot be refreshed; reconnect the calendar integration")
	}

	refreshToken, err := tokencrypto.Decrypt(cred.RefreshToken, s.key)
	if err != nil {
		s.disconnect(ctx, vendorID)
		return "", apperr.CredentialUnavailable("the stored Google grant is unreadable; reconnect the calendar integration")
	}

	token, err := s.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		var apiErr *googleoauth.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			// The provider rejected the grant outright: consent revoked or expired.
			s.disconnect(ctx, vendorID)
			return "", apperr.CredentialUnavailable("Google rejected the stored grant; reconnect the calendar integration")
		}
		return "", fmt.Errorf("refresh google grant: %w", err)
	}

	if err := s.persistRefreshed(ctx, vendorID, token); err != nil {
		// The minted token still works; the next call just refreshes again.
		s.log.Error("persist refreshed token failed", "error", err, "vendor_id", vendorID)
	}

	return token.AccessToken, nil
}

func (s *Service) persistRefreshed(ctx context.Context, vendorID string, token googleoauth.Token) error {
	encAccess, err := tokencrypto.Encrypt(token.AccessToken, s.key)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}

	var encRefresh string
	if token.RefreshToken != "" {
		encRefresh, err = tokencrypto.Encrypt(token.RefreshToken, s.key)
		if err != nil {
			return fmt.Errorf("encrypt refresh token: %w", err)
		}
	}

	return s.repo.UpdateAccessToken(ctx, vendorID, encAccess, s.expiry(token.ExpiresIn), encRefresh)
}

func (s *Service) disconnect(ctx context.Context, vendorID string) {
	if err := s.repo.MarkDisconnected(ctx, vendorID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		s.log.Error("mark credential disconnected failed", "error", err, "vendor_id", vendorID)
	}
}

// stillFresh reports whether a stored access token can be handed out
// without refreshing. A grant without a recorded expiry is used as-is.
func (s *Service) stillFresh(expiresAt *time.Time) bool {
	if expiresAt == nil {
		return true
	}
	return s.now().Add(expiryLeeway).Before(*expiresAt)
}

func (s *Service) expiry(expiresIn int) *time.Time {
	if expiresIn <= 0 {
		return nil
	}
	at := s.now().Add(time.Duration(expiresIn) * time.Second)
	return &at
}
