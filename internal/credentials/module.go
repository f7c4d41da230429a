// Package credentials manages per-vendor Google grants and exposes the
// integration status endpoints. Its service is the CredentialProvider the
// calendar reconciler runs on.
package credentials

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/credentials/googleoauth"
	"portal_ventas_backend/internal/credentials/handler"
	"portal_ventas_backend/internal/credentials/repository"
	"portal_ventas_backend/internal/credentials/service"
	apphttp "portal_ventas_backend/internal/http"
	"portal_ventas_backend/platform/logger"
)

// Module wires the credentials feature together.
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates the credentials module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, oauth *googleoauth.Client, encryptionKey []byte, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, oauth, encryptionKey, log)
	h := handler.New(svc)

	return &Module{
		handler:    h,
		service:    svc,
		repository: repo,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "credentials"
}

// Service exposes the credentials service for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the integration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	grp := ctx.Protected.Group("/integrations")
	m.handler.RegisterRoutes(grp)
}

// Compile-time checks.
var (
	_ apphttp.Module              = (*Module)(nil)
	_ calendar.CredentialProvider = (*service.Service)(nil)
	_ service.TokenSource         = (*googleoauth.Client)(nil)
)
