// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// AuthServiceConfig provides settings needed by the auth service.
type AuthServiceConfig interface {
	JWTConfig
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// AuthCookieConfig provides refresh cookie and redirect settings for the
// auth handlers.
type AuthCookieConfig interface {
	GetAppBaseURL() string
	GetRefreshCookieName() string
	GetRefreshCookieDomain() string
	GetRefreshCookiePath() string
	GetRefreshCookieSecure() bool
	GetRefreshCookieSameSite() http.SameSite
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// GoogleConfig provides settings for the Google OAuth flow.
type GoogleConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURL() string
	GetGoogleAuthURL() string
	GetGoogleTokenURL() string
	GetGoogleUserinfoURL() string
	GetOAuthStateSecret() string
	IsGoogleEnabled() bool
}

// CalendarConfig provides settings for the remote calendar gateway.
type CalendarConfig interface {
	GetCalendarBaseURL() string
	GetCalendarID() string
}

// CredentialCryptoConfig provides the key used to encrypt stored tokens.
type CredentialCryptoConfig interface {
	GetCredentialsEncryptionKey() []byte
}

// AdminConfig provides the admin identity allowlist.
type AdminConfig interface {
	GetAdminEmails() []string
	IsAdminEmail(email string) bool
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketQuoteDocuments() string
	IsMinIOEnabled() bool
}

// SMTPConfig provides settings for outbound email.
type SMTPConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// ReportsConfig provides reporting defaults.
type ReportsConfig interface {
	GetStaleQuoteDays() int
	GetExportKeyHash() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	JWTAccessSecret          string
	AccessTokenTTL           time.Duration
	RefreshTokenTTL          time.Duration
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	AppBaseURL               string
	RefreshCookieName        string
	RefreshCookieDomain      string
	RefreshCookiePath        string
	RefreshCookieSecure      bool
	RefreshCookieSameSite    http.SameSite
	GoogleClientID           string
	GoogleClientSecret       string
	GoogleRedirectURL        string
	GoogleAuthURL            string
	GoogleTokenURL           string
	GoogleUserinfoURL        string
	OAuthStateSecret         string
	CalendarBaseURL          string
	CalendarID               string
	CredentialsEncryptionKey []byte
	AdminEmails              []string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	MinIOMaxFileSize         int64
	MinioBucketQuoteDocs     string
	SMTPHost                 string
	SMTPPort                 int
	SMTPUsername             string
	SMTPPassword             string
	EmailFromName            string
	EmailFromAddress         string
	StaleQuoteDays           int
	ExportKeyHash            string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// AuthServiceConfig implementation
func (c *Config) GetAccessTokenTTL() time.Duration  { return c.AccessTokenTTL }
func (c *Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// AuthCookieConfig implementation
func (c *Config) GetAppBaseURL() string                   { return c.AppBaseURL }
func (c *Config) GetRefreshCookieName() string            { return c.RefreshCookieName }
func (c *Config) GetRefreshCookieDomain() string          { return c.RefreshCookieDomain }
func (c *Config) GetRefreshCookiePath() string            { return c.RefreshCookiePath }
func (c *Config) GetRefreshCookieSecure() bool            { return c.RefreshCookieSecure }
func (c *Config) GetRefreshCookieSameSite() http.SameSite { return c.RefreshCookieSameSite }

// GoogleConfig implementation
func (c *Config) GetGoogleClientID() string     { return c.GoogleClientID }
func (c *Config) GetGoogleClientSecret() string { return c.GoogleClientSecret }
func (c *Config) GetGoogleRedirectURL() string  { return c.GoogleRedirectURL }
func (c *Config) GetGoogleAuthURL() string      { return c.GoogleAuthURL }
func (c *Config) GetGoogleTokenURL() string     { return c.GoogleTokenURL }
func (c *Config) GetGoogleUserinfoURL() string  { return c.GoogleUserinfoURL }
func (c *Config) GetOAuthStateSecret() string   { return c.OAuthStateSecret }
func (c *Config) IsGoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// CalendarConfig implementation
func (c *Config) GetCalendarBaseURL() string { return c.CalendarBaseURL }
func (c *Config) GetCalendarID() string      { return c.CalendarID }

// CredentialCryptoConfig implementation
func (c *Config) GetCredentialsEncryptionKey() []byte { return c.CredentialsEncryptionKey }

// AdminConfig implementation
func (c *Config) GetAdminEmails() []string { return c.AdminEmails }
func (c *Config) IsAdminEmail(email string) bool {
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, admin := range c.AdminEmails {
		if admin == needle {
			return true
		}
	}
	return false
}

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string             { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string            { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string            { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool                 { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64           { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketQuoteDocuments() string { return c.MinioBucketQuoteDocs }
func (c *Config) IsMinIOEnabled() bool                 { return c.MinIOEndpoint != "" }

// SMTPConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.SMTPHost != "" && c.EmailFromAddress != "" }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// ReportsConfig implementation
func (c *Config) GetStaleQuoteDays() int   { return c.StaleQuoteDays }
func (c *Config) GetExportKeyHash() string { return c.ExportKeyHash }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	adminEmails := splitCSV(strings.ToLower(getEnv("ADMIN_EMAILS", "")))

	refreshCookieSecure := strings.EqualFold(getEnv("REFRESH_COOKIE_SECURE", ""), "true")
	if getEnv("REFRESH_COOKIE_SECURE", "") == "" {
		refreshCookieSecure = strings.EqualFold(getEnv("APP_ENV", "development"), "production")
	}

	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		JWTAccessSecret:          getEnv("JWT_ACCESS_SECRET", ""),
		AccessTokenTTL:           mustDuration(getEnv("JWT_ACCESS_TTL", "15m")),
		RefreshTokenTTL:          mustDuration(getEnv("SESSION_REFRESH_TTL", "720h")),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:               getEnv("APP_BASE_URL", "http://localhost:4200"),
		RefreshCookieName:        getEnv("REFRESH_COOKIE_NAME", "portal_refresh"),
		RefreshCookieDomain:      getEnv("REFRESH_COOKIE_DOMAIN", ""),
		RefreshCookiePath:        getEnv("REFRESH_COOKIE_PATH", "/api/v1/auth"),
		RefreshCookieSecure:      refreshCookieSecure,
		RefreshCookieSameSite:    parseSameSite(getEnv("REFRESH_COOKIE_SAMESITE", "Lax")),
		GoogleClientID:           getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:       getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:        getEnv("GOOGLE_REDIRECT_URL", ""),
		GoogleAuthURL:            getEnv("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
		GoogleTokenURL:           getEnv("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token"),
		GoogleUserinfoURL:        getEnv("GOOGLE_USERINFO_URL", "https://openidconnect.googleapis.com/v1/userinfo"),
		OAuthStateSecret:         getEnv("OAUTH_STATE_SECRET", ""),
		CalendarBaseURL:          getEnv("CALENDAR_BASE_URL", "https://www.googleapis.com/calendar/v3"),
		CalendarID:               getEnv("CALENDAR_ID", "primary"),
		CredentialsEncryptionKey: []byte(getEnv("CREDENTIALS_ENCRYPTION_KEY", "")),
		AdminEmails:              adminEmails,
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:         mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "20971520")),
		MinioBucketQuoteDocs:     getEnv("MINIO_BUCKET_QUOTE_DOCUMENTS", "quote-documents"),
		SMTPHost:                 getEnv("SMTP_HOST", ""),
		SMTPPort:                 int(mustInt64(getEnv("SMTP_PORT", "587"))),
		SMTPUsername:             getEnv("SMTP_USERNAME", ""),
		SMTPPassword:             getEnv("SMTP_PASSWORD", ""),
		EmailFromName:            getEnv("EMAIL_FROM_NAME", "Portal Ventas"),
		EmailFromAddress:         getEnv("EMAIL_FROM_ADDRESS", ""),
		StaleQuoteDays:           int(mustInt64(getEnv("STALE_QUOTE_DAYS", "7"))),
		ExportKeyHash:            getEnv("EXPORT_KEY_HASH", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.IsGoogleEnabled() {
		if cfg.GoogleRedirectURL == "" {
			return nil, fmt.Errorf("GOOGLE_REDIRECT_URL is required when Google OAuth is configured")
		}
		if cfg.OAuthStateSecret == "" {
			return nil, fmt.Errorf("OAUTH_STATE_SECRET is required when Google OAuth is configured")
		}
		if len(cfg.CredentialsEncryptionKey) != 32 {
			return nil, fmt.Errorf("CREDENTIALS_ENCRYPTION_KEY must be exactly 32 bytes")
		}
	}
	if cfg.SMTPHost != "" && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when SMTP_HOST is set")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.StaleQuoteDays <= 0 {
		cfg.StaleQuoteDays = 7
	}
	if cfg.ExportKeyHash != "" && !strings.HasPrefix(cfg.ExportKeyHash, "$2") {
		return nil, fmt.Errorf("EXPORT_KEY_HASH must be a bcrypt hash")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}
