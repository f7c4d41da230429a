// Package auth provides Google sign-in and session management for the
// portal. Login produces both a session and a stored calendar grant, so a
// signed-in vendor is always ready for event reconciliation.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"portal_ventas_backend/internal/auth/handler"
	"portal_ventas_backend/internal/auth/repository"
	"portal_ventas_backend/internal/auth/service"
	"portal_ventas_backend/internal/credentials/googleoauth"
	credsvc "portal_ventas_backend/internal/credentials/service"
	apphttp "portal_ventas_backend/internal/http"
	"portal_ventas_backend/platform/config"
	"portal_ventas_backend/platform/logger"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates the auth module. The grant store is the credentials
// service: a completed callback hands the Google tokens straight to it.
func NewModule(pool *pgxpool.Pool, oauth *googleoauth.Client, grants service.GrantStore, cfg *config.Config, log *logger.Logger) *Module {
	sessions := repository.New(pool)
	svc := service.New(sessions, oauth, grants, cfg, log)
	h := handler.New(svc, cfg)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service exposes the auth service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts the auth routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public auth routes with stricter rate limiting.
	grp := ctx.V1.Group("/auth")
	grp.Use(ctx.AuthRateLimiter.RateLimit())
	m.handler.RegisterRoutes(grp)

	m.handler.RegisterProtectedRoutes(ctx.Protected.Group("/auth"))
}

// Compile-time checks.
var (
	_ apphttp.Module        = (*Module)(nil)
	_ service.OAuthProvider = (*googleoauth.Client)(nil)
	_ service.GrantStore    = (*credsvc.Service)(nil)
)
