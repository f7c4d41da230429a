// Package googleoauth is a thin client for Google's OAuth2 endpoints: the
// consent URL, the authorization-code and refresh-token grants, and the
// OpenID userinfo lookup that resolves the account email.
package googleoauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portal_ventas_backend/platform/config"
)

const maxResponseBytes = 1 << 20

// Calendar event write access plus the userinfo scopes needed to resolve the
// caller's email from the same grant.
var scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/calendar.events",
}

// Token is a grant response from the token endpoint. RefreshToken is empty
// on refresh-grant responses unless Google decided to rotate it.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// Userinfo is the subset of the OpenID userinfo response the app uses.
type Userinfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// APIError is a non-success response from a Google endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("google oauth returned %d: %s", e.StatusCode, e.Body)
}

// Client talks to Google's OAuth2 and userinfo endpoints.
type Client struct {
	clientID     string
	clientSecret string
	redirectURL  string
	authURL      string
	tokenURL     string
	userinfoURL  string
	http         *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.http = client
	}
}

func New(cfg config.GoogleConfig, opts ...Option) *Client {
	c := &Client{
		clientID:     cfg.GetGoogleClientID(),
		clientSecret: cfg.GetGoogleClientSecret(),
		redirectURL:  cfg.GetGoogleRedirectURL(),
		authURL:      cfg.GetGoogleAuthURL(),
		tokenURL:     cfg.GetGoogleTokenURL(),
		userinfoURL:  cfg.GetGoogleUserinfoURL(),
		http:         &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthCodeURL builds the consent URL. access_type=offline plus
// prompt=consent so Google returns a refresh token on every connect, not
// just the first one.
func (c *Client) AuthCodeURL(state string) string {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("redirect_uri", c.redirectURL)
	params.Set("response_type", "code")
	params.Set("scope", strings.Join(scopes, " "))
	params.Set("access_type", "offline")
	params.Set("include_granted_scopes", "true")
	params.Set("prompt", "consent")
	params.Set("state", state)
	return c.authURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token pair.
func (c *Client) ExchangeCode(ctx context.Context, code string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("redirect_uri", c.redirectURL)
	return c.tokenGrant(ctx, form)
}

// Refresh trades a refresh token for a fresh access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	return c.tokenGrant(ctx, form)
}

func (c *Client) tokenGrant(ctx context.Context, form url.Values) (Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return Token{}, readAPIError(resp)
	}

	var token Token
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&token); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return Token{}, fmt.Errorf("token response carried no access token")
	}
	return token, nil
}

// Userinfo resolves the account behind an access token.
func (c *Client) Userinfo(ctx context.Context, accessToken string) (Userinfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userinfoURL, nil)
	if err != nil {
		return Userinfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return Userinfo{}, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return Userinfo{}, readAPIError(resp)
	}

	var info Userinfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&info); err != nil {
		return Userinfo{}, fmt.Errorf("decode userinfo response: %w", err)
	}
	if info.Email == "" {
		return Userinfo{}, fmt.Errorf("userinfo response carried no email")
	}
	return info, nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
