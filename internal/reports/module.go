package reports

import (
	apphttp "portal_ventas_backend/internal/http"
	"portal_ventas_backend/platform/config"
	"portal_ventas_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reporting bounded context module implementing http.Module.
type Module struct {
	handler       *Handler
	service       *Service
	exportKeyHash string
}

// NewModule creates and initializes the reports module.
func NewModule(pool *pgxpool.Pool, cfg config.ReportsConfig, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	svc := NewService(repo, log)
	svc.SetStaleDefault(cfg.GetStaleQuoteDays())
	h := NewHandler(svc)

	return &Module{
		handler:       h,
		service:       svc,
		exportKeyHash: cfg.GetExportKeyHash(),
	}
}

// SetDigestMailer injects the mailer used for the emailed digest.
func (m *Module) SetDigestMailer(mailer DigestMailer) {
	m.service.SetDigestMailer(mailer)
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes mounts report routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/kpis", m.handler.MyKpis)

	admin := ctx.Admin
	admin.GET("/kpis", m.handler.AdminKpis)
	admin.GET("/ranking", m.handler.AdminRanking)
	admin.GET("/records", m.handler.AdminRecords)
	admin.GET("/records/export.xlsx", m.handler.ExportXLSX)
	admin.POST("/reports/digest", m.handler.EmailDigest)

	// Key-authenticated alias of the admin export, for BI pulls that have no
	// vendor session. Mounted only when an export key hash is configured.
	if m.exportKeyHash != "" {
		exports := ctx.V1.Group("/exports")
		exports.Use(ExportKeyAuth(m.exportKeyHash))
		exports.GET("/records.xlsx", m.handler.ExportXLSX)
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
