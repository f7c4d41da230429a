package service

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"portal_ventas_backend/internal/credentials/googleoauth"
	"portal_ventas_backend/internal/credentials/repository"
	"portal_ventas_backend/internal/credentials/tokencrypto"
	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"
)

const (
	testVendor       = "vendor@example.com"
	msgUnexpectedErr = "unexpected error: %v"
)

var (
	fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	testKey  = bytes.Repeat([]byte{0x41}, 32)
)

type upsertCall struct {
	vendorID  string
	access    string
	refresh   string
	expiresAt *time.Time
	scope     string
}

type updateCall struct {
	vendorID  string
	access    string
	refresh   string
	expiresAt *time.Time
}

type stubRepo struct {
	cred        *repository.Credential
	upserts     []upsertCall
	updates     []updateCall
	disconnects int
}

func (r *stubRepo) Get(ctx context.Context, vendorID string) (*repository.Credential, error) {
	return r.cred, nil
}

func (r *stubRepo) UpsertGrant(ctx context.Context, vendorID, accessToken, refreshToken string, expiresAt *time.Time, scope string) error {
	r.upserts = append(r.upserts, upsertCall{vendorID, accessToken, refreshToken, expiresAt, scope})
	return nil
}

func (r *stubRepo) UpdateAccessToken(ctx context.Context, vendorID, accessToken string, expiresAt *time.Time, refreshToken string) error {
	r.updates = append(r.updates, updateCall{vendorID, accessToken, refreshToken, expiresAt})
	return nil
}

func (r *stubRepo) MarkDisconnected(ctx context.Context, vendorID string) error {
	r.disconnects++
	if r.cred != nil {
		r.cred.IsConnected = false
	}
	return nil
}

type stubTokens struct {
	token googleoauth.Token
	err   error
	seen  []string
}

func (t *stubTokens) Refresh(ctx context.Context, refreshToken string) (googleoauth.Token, error) {
	t.seen = append(t.seen, refreshToken)
	if t.err != nil {
		return googleoauth.Token{}, t.err
	}
	return t.token, nil
}

func newTestService(repo *stubRepo, tokens *stubTokens) *Service {
	svc := New(repo, tokens, testKey, logger.New("test"))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func encrypted(t *testing.T, plain string) string {
	t.Helper()
	enc, err := tokencrypto.Encrypt(plain, testKey)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	return enc
}

func connectedCred(t *testing.T, expiresAt *time.Time) *repository.Credential {
	t.Helper()
	return &repository.Credential{
		VendorID:       testVendor,
		AccessToken:    encrypted(t, "at-stored"),
		RefreshToken:   encrypted(t, "rt-stored"),
		TokenExpiresAt: expiresAt,
		Scope:          "openid calendar.events",
		IsConnected:    true,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestAccessTokenReturnsStoredWhenFresh(t *testing.T) {
	repo := &stubRepo{cred: connectedCred(t, timePtr(fixedNow.Add(time.Hour)))}
	tokens := &stubTokens{}
	svc := newTestService(repo, tokens)

	got, err := svc.AccessToken(context.Background(), testVendor)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if got != "at-stored" {
		t.Fatalf("unexpected token: %q", got)
	}
	if len(tokens.seen) != 0 {
		t.Fatal("a fresh token must not trigger a refresh")
	}
}

func TestAccessTokenTrustsGrantWithoutExpiry(t *testing.T) {
	repo := &stubRepo{cred: connectedCred(t, nil)}
	tokens := &stubTokens{}
	svc := newTestService(repo, tokens)

	got, err := svc.AccessToken(context.Background(), testVendor)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if got != "at-stored" || len(tokens.seen) != 0 {
		t.Fatalf("expected the stored token untouched, got %q after %d refreshes", got, len(tokens.seen))
	}
}

func TestAccessTokenRefreshesNearExpiry(t *testing.T) {
	repo := &stubRepo{cred: connectedCred(t, timePtr(fixedNow.Add(30 * time.Second)))}
	tokens := &stubTokens{token: googleoauth.Token{AccessToken: "at-new", ExpiresIn: 3600}}
	svc := newTestService(repo, tokens)

	got, err := svc.AccessToken(context.Background(), testVendor)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if got != "at-new" {
		t.Fatalf("unexpected token: %q", got)
	}
	if len(tokens.seen) != 1 || tokens.seen[0] != "rt-stored" {
		t.Fatalf("expected one refresh with the stored refresh token, got %v", tokens.seen)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("expected the refreshed token persisted, got %d updates", len(repo.updates))
	}
	update := repo.updates[0]
	if dec, err := tokencrypto.Decrypt(update.access, testKey); err != nil || dec != "at-new" {
		t.Fatalf("persisted access token must be ciphertext of the new token: %q, %v", dec, err)
	}
	if update.refresh != "" {
		t.Fatalf("no rotation happened, refresh must stay untouched: %q", update.refresh)
	}
	if update.expiresAt == nil || !update.expiresAt.Equal(fixedNow.Add(3600*time.Second)) {
		t.Fatalf("unexpected persisted expiry: %v", update.expiresAt)
	}
}

func TestAccessTokenPersistsRotatedRefreshToken(t *testing.T) {
	repo := &stubRepo{cred: connectedCred(t, timePtr(fixedNow.Add(-time.Minute)))}
	tokens := &stubTokens{token: googleoauth.Token{AccessToken: "at-new", RefreshToken: "rt-new", ExpiresIn: 3600}}
	svc := newTestService(repo, tokens)

	if _, err := svc.AccessToken(context.Background(), testVendor); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(repo.updates))
	}
	if dec, err := tokencrypto.Decrypt(repo.updates[0].refresh, testKey); err != nil || dec != "rt-new" {
		t.Fatalf("rotated refresh token must be persisted encrypted: %q, %v", dec, err)
	}
}

func TestAccessTokenRejectedGrantDisconnects(t *testing.T) {
	repo := &stubRepo{cred: connectedCred(t, timePtr(fixedNow.Add(-time.Minute)))}
	tokens := &stubTokens{err: &googleoauth.APIError{StatusCode: http.StatusBadRequest, Body: `{"error":"invalid_grant"}`}}
	svc := newTestService(repo, tokens)

	_, err := svc.AccessToken(context.Background(), testVendor)
	if apperr.GetKind(err) != apperr.KindCredentialUnavailable {
		t.Fatalf("expected CredentialUnavailable, got %v", err)
	}
	if repo.disconnects != 1 {
		t.Fatalf("a rejected grant must disconnect the vendor, got %d disconnects", repo.disconnects)
	}
}

func TestAccessTokenKeepsGrantOnProviderOutage(t *testing.T) {
	repo := &stubRepo{cred: connectedCred(t, timePtr(fixedNow.Add(-time.Minute)))}
	tokens := &stubTokens{err: &googleoauth.APIError{StatusCode: http.StatusInternalServerError}}
	svc := newTestService(repo, tokens)

	_, err := svc.AccessToken(context.Background(), testVendor)
	if err == nil {
		t.Fatal("expected an error when the token endpoint is down")
	}
	if apperr.GetKind(err) == apperr.KindCredentialUnavailable {
		t.Fatal("an outage must not be reported as a dead grant")
	}
	if repo.disconnects != 0 {
		t.Fatal("an outage must not disconnect the vendor")
	}
}

func TestAccessTokenWithoutConnectionFails(t *testing.T) {
	repo := &stubRepo{}
	tokens := &stubTokens{}
	svc := newTestService(repo, tokens)

	_, err := svc.AccessToken(context.Background(), testVendor)
	if apperr.GetKind(err) != apperr.KindCredentialUnavailable {
		t.Fatalf("expected CredentialUnavailable, got %v", err)
	}
	if len(tokens.seen) != 0 {
		t.Fatal("no refresh must happen without a stored grant")
	}
}

func TestAccessTokenDisconnectedVendorFails(t *testing.T) {
	cred := connectedCred(t, timePtr(fixedNow.Add(time.Hour)))
	cred.IsConnected = false
	svc := newTestService(&stubRepo{cred: cred}, &stubTokens{})

	_, err := svc.AccessToken(context.Background(), testVendor)
	if apperr.GetKind(err) != apperr.KindCredentialUnavailable {
		t.Fatalf("expected CredentialUnavailable, got %v", err)
	}
}

func TestAccessTokenMissingRefreshTokenDisconnects(t *testing.T) {
	cred := connectedCred(t, timePtr(fixedNow.Add(-time.Minute)))
	cred.RefreshToken = ""
	repo := &stubRepo{cred: cred}
	svc := newTestService(repo, &stubTokens{})

	_, err := svc.AccessToken(context.Background(), testVendor)
	if apperr.GetKind(err) != apperr.KindCredentialUnavailable {
		t.Fatalf("expected CredentialUnavailable, got %v", err)
	}
	if repo.disconnects != 1 {
		t.Fatalf("expected the dead grant disconnected, got %d disconnects", repo.disconnects)
	}
}

func TestSaveGrantStoresCiphertext(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubTokens{})

	err := svc.SaveGrant(context.Background(), testVendor, Grant{
		AccessToken:  "at-1",
		RefreshToken: "rt-1",
		ExpiresIn:    3599,
		Scope:        "openid calendar.events",
	})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if len(repo.upserts) != 1 {
		t.Fatalf("expected one upsert, got %d", len(repo.upserts))
	}
	up := repo.upserts[0]
	if up.access == "at-1" || up.refresh == "rt-1" {
		t.Fatal("tokens must never be stored in plaintext")
	}
	if dec, err := tokencrypto.Decrypt(up.access, testKey); err != nil || dec != "at-1" {
		t.Fatalf("stored access token does not round-trip: %q, %v", dec, err)
	}
	if dec, err := tokencrypto.Decrypt(up.refresh, testKey); err != nil || dec != "rt-1" {
		t.Fatalf("stored refresh token does not round-trip: %q, %v", dec, err)
	}
	if up.expiresAt == nil || !up.expiresAt.Equal(fixedNow.Add(3599*time.Second)) {
		t.Fatalf("unexpected expiry: %v", up.expiresAt)
	}
	if up.scope != "openid calendar.events" {
		t.Fatalf("unexpected scope: %q", up.scope)
	}
}

func TestSaveGrantKeepsStoredRefreshWhenOmitted(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo, &stubTokens{})

	if err := svc.SaveGrant(context.Background(), testVendor, Grant{AccessToken: "at-1"}); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if repo.upserts[0].refresh != "" {
		t.Fatalf("an omitted refresh token must be stored empty so the upsert keeps the old one, got %q", repo.upserts[0].refresh)
	}
}

func TestSaveGrantRequiresEncryptionKey(t *testing.T) {
	svc := New(&stubRepo{}, &stubTokens{}, nil, logger.New("test"))

	err := svc.SaveGrant(context.Background(), testVendor, Grant{AccessToken: "at-1"})
	if apperr.GetKind(err) != apperr.KindInternal {
		t.Fatalf("expected an internal error, got %v", err)
	}
}

func TestStatusReportsConnectionState(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubTokens{})
	status, err := svc.Status(context.Background(), testVendor)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if status.Connected {
		t.Fatal("a vendor without a grant must report disconnected")
	}

	expires := timePtr(fixedNow.Add(time.Hour))
	svc = newTestService(&stubRepo{cred: connectedCred(t, expires)}, &stubTokens{})
	status, err = svc.Status(context.Background(), testVendor)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if !status.Connected || status.Scope != "openid calendar.events" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.TokenExpiresAt == nil || !status.TokenExpiresAt.Equal(*expires) {
		t.Fatalf("unexpected expiry in status: %v", status.TokenExpiresAt)
	}
}

func TestDisconnectRequiresExistingGrant(t *testing.T) {
	svc := newTestService(&stubRepo{}, &stubTokens{})

	err := svc.Disconnect(context.Background(), testVendor)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}

	repo := &stubRepo{cred: connectedCred(t, nil)}
	svc = newTestService(repo, &stubTokens{})
	if err := svc.Disconnect(context.Background(), testVendor); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if repo.disconnects != 1 {
		t.Fatalf("expected one disconnect, got %d", repo.disconnects)
	}
}
