// Package quotes provides the sales quote (cotizaciones) domain module.
package quotes

import (
	"portal_ventas_backend/internal/calendar"
	apphttp "portal_ventas_backend/internal/http"
	"portal_ventas_backend/internal/quotes/handler"
	"portal_ventas_backend/internal/quotes/repository"
	"portal_ventas_backend/internal/quotes/service"
	"portal_ventas_backend/platform/events"
	"portal_ventas_backend/platform/logger"
	"portal_ventas_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module
type Module struct {
	handler    *handler.Handler
	service    *service.Service
	repository *repository.Repository
}

// NewModule creates a new quotes module with all dependencies wired
func NewModule(pool *pgxpool.Pool, reconciler *calendar.Reconciler, eventBus *events.InMemoryBus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, reconciler, log)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler:    h,
		service:    svc,
		repository: repo,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for adapter wiring
func (m *Module) Repository() *repository.Repository {
	return m.repository
}

// Handler returns the HTTP handler for upload tuning at wiring time.
func (m *Module) Handler() *handler.Handler {
	return m.handler
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotes := ctx.Protected.Group("/cotizaciones")
	m.handler.RegisterRoutes(quotes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
