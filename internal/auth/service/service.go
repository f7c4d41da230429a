// Package service implements the Google sign-in flow and the session
// lifecycle built on top of it: HMAC-signed OAuth state, code exchange,
// grant hand-off to the credentials store, and JWT access tokens paired
// with rotating opaque refresh tokens.
package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"portal_ventas_backend/internal/auth/repository"
	"portal_ventas_backend/internal/auth/state"
	"portal_ventas_backend/internal/auth/token"
	"portal_ventas_backend/internal/auth/transport"
	"portal_ventas_backend/internal/credentials/googleoauth"
	credsvc "portal_ventas_backend/internal/credentials/service"
	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/config"
	"portal_ventas_backend/platform/httpkit"
	"portal_ventas_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenType = "access"

	stateNonceBytes   = 16
	refreshTokenBytes = 48
)

// Config is the slice of application config the auth service needs.
type Config interface {
	config.AuthServiceConfig
	config.AdminConfig
	GetOAuthStateSecret() string
}

// OAuthProvider runs the provider side of the authorization-code flow.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (googleoauth.Token, error)
	Userinfo(ctx context.Context, accessToken string) (googleoauth.Userinfo, error)
}

// GrantStore persists the token grant obtained during the callback so the
// calendar integration can act on the vendor's behalf later.
type GrantStore interface {
	SaveGrant(ctx context.Context, vendorID string, g credsvc.Grant) error
}

// Service implements login, session refresh and logout.
type Service struct {
	sessions repository.SessionRepository
	oauth    OAuthProvider
	grants   GrantStore
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
}

func New(sessions repository.SessionRepository, oauth OAuthProvider, grants GrantStore, cfg Config, log *logger.Logger) *Service {
	return &Service{
		sessions: sessions,
		oauth:    oauth,
		grants:   grants,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// LoginURL builds the Google consent URL with a fresh signed state value.
func (s *Service) LoginURL() (string, error) {
	nonce, err := token.GenerateRandomToken(stateNonceBytes)
	if err != nil {
		return "", err
	}
	st := state.Sign(s.cfg.GetOAuthStateSecret(), nonce, s.now())
	return s.oauth.AuthCodeURL(st), nil
}

// Callback completes the consent flow: it verifies the state, exchanges the
// authorization code, stores the grant for the calendar integration and
// issues a session for the vendor identified by the Google account email.
func (s *Service) Callback(ctx context.Context, stateValue, code string) (transport.SessionTokens, error) {
	if !state.Verify(s.cfg.GetOAuthStateSecret(), stateValue, s.now()) {
		return transport.SessionTokens{}, apperr.Unauthorized("invalid or expired oauth state")
	}
	if code == "" {
		return transport.SessionTokens{}, apperr.BadRequest("authorization code is required")
	}

	grant, err := s.oauth.ExchangeCode(ctx, code)
	if err != nil {
		var apiErr *googleoauth.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return transport.SessionTokens{}, apperr.Unauthorized("the authorization code was rejected")
		}
		return transport.SessionTokens{}, err
	}

	info, err := s.oauth.Userinfo(ctx, grant.AccessToken)
	if err != nil {
		return transport.SessionTokens{}, err
	}
	email := strings.ToLower(strings.TrimSpace(info.Email))

	// The grant is load-bearing: without it every reconciliation for this
	// vendor fails with 428, so a failed save fails the login.
	err = s.grants.SaveGrant(ctx, email, credsvc.Grant{
		AccessToken:  grant.AccessToken,
		RefreshToken: grant.RefreshToken,
		ExpiresIn:    grant.ExpiresIn,
		Scope:        grant.Scope,
	})
	if err != nil {
		return transport.SessionTokens{}, err
	}

	tokens, err := s.issueSession(ctx, email)
	if err != nil {
		return transport.SessionTokens{}, err
	}

	s.log.Info("vendor signed in", "vendor_id", email)
	return tokens, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// session pair is issued. Expired and revoked tokens are rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (transport.SessionTokens, error) {
	hash := token.HashSHA256(refreshToken)

	sess, err := s.sessions.Get(ctx, hash)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return transport.SessionTokens{}, apperr.Unauthorized("invalid refresh token")
		}
		return transport.SessionTokens{}, err
	}
	if sess.RevokedAt != nil {
		return transport.SessionTokens{}, apperr.Unauthorized("refresh token revoked")
	}
	if s.now().After(sess.ExpiresAt) {
		_ = s.sessions.Revoke(ctx, hash)
		return transport.SessionTokens{}, apperr.Unauthorized("refresh token expired")
	}

	if err := s.sessions.Revoke(ctx, hash); err != nil {
		return transport.SessionTokens{}, err
	}
	return s.issueSession(ctx, sess.VendorID)
}

// Logout revokes the presented refresh token. Unknown tokens are a no-op so
// logout is idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.sessions.Revoke(ctx, token.HashSHA256(refreshToken))
}

func (s *Service) issueSession(ctx context.Context, vendorID string) (transport.SessionTokens, error) {
	roles := s.rolesFor(vendorID)

	accessToken, err := s.signJWT(vendorID, roles, s.cfg.GetAccessTokenTTL(), s.cfg.GetJWTAccessSecret())
	if err != nil {
		return transport.SessionTokens{}, err
	}

	refreshToken, err := token.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return transport.SessionTokens{}, err
	}

	hash := token.HashSHA256(refreshToken)
	expiresAt := s.now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.sessions.Create(ctx, hash, vendorID, expiresAt); err != nil {
		return transport.SessionTokens{}, err
	}

	return transport.SessionTokens{
		AccessToken:  accessToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.cfg.GetAccessTokenTTL().Seconds()),
		RefreshToken: refreshToken,
	}, nil
}

func (s *Service) rolesFor(vendorID string) []string {
	roles := []string{httpkit.RoleVendor}
	if s.cfg.IsAdminEmail(vendorID) {
		roles = append(roles, httpkit.RoleAdmin)
	}
	return roles
}

func (s *Service) signJWT(vendorID string, roles []string, ttl time.Duration, secret string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   vendorID,
		"type":  accessTokenType,
		"roles": roles,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(secret))
}
