// Package postventas provides the after-sale visit domain module.
package postventas

import (
	"portal_ventas_backend/internal/calendar"
	apphttp "portal_ventas_backend/internal/http"
	"portal_ventas_backend/internal/postventas/handler"
	"portal_ventas_backend/internal/postventas/repository"
	"portal_ventas_backend/internal/postventas/service"
	"portal_ventas_backend/platform/events"
	"portal_ventas_backend/platform/logger"
	"portal_ventas_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the postventas domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new postventas module with all dependencies wired
func NewModule(pool *pgxpool.Pool, reconciler *calendar.Reconciler, eventBus *events.InMemoryBus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, reconciler, log)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "postventas"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	postventas := ctx.Protected.Group("/postventas")
	m.handler.RegisterRoutes(postventas)

	// The from-quote action lives under the quote it derives from.
	quotes := ctx.Protected.Group("/cotizaciones")
	quotes.POST("/:quoteNumber/postventa", m.handler.CreateFromQuote)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
