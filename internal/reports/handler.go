package reports

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"portal_ventas_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler handles HTTP requests for reports
type Handler struct {
	svc *Service
}

// NewHandler creates a new reports handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MyKpis handles GET /api/v1/kpis
// Returns the calling vendor's report.
func (h *Handler) MyKpis(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	report, err := h.svc.Kpis(c.Request.Context(), vendorID, parseDays(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}

// AdminKpis handles GET /api/v1/admin/kpis
// Scopes to one vendor via ?vendor_id=, or the whole fleet when absent.
func (h *Handler) AdminKpis(c *gin.Context) {
	report, err := h.svc.Kpis(c.Request.Context(), strings.TrimSpace(c.Query("vendor_id")), parseDays(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, report)
}

// AdminRanking handles GET /api/v1/admin/ranking
// ?month=YYYY-MM selects the month; default is the current one.
func (h *Handler) AdminRanking(c *gin.Context) {
	var monthRef time.Time
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "month must be formatted YYYY-MM", nil)
			return
		}
		monthRef = parsed
	}

	ranking, err := h.svc.Ranking(c.Request.Context(), monthRef)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"ranking": ranking, "count": len(ranking)})
}

// AdminRecords handles GET /api/v1/admin/records
func (h *Handler) AdminRecords(c *gin.Context) {
	items, err := h.svc.AdminItems(c.Request.Context(), adminQueryFrom(c))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": items, "count": len(items)})
}

// ExportXLSX handles GET /api/v1/admin/records/export.xlsx
func (h *Handler) ExportXLSX(c *gin.Context) {
	data, err := h.svc.ExportBytes(c.Request.Context(), adminQueryFrom(c))
	if httpkit.HandleError(c, err) {
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+exportFilename)
	c.Data(http.StatusOK, contentTypeXLSX, data)
}

// EmailDigest handles POST /api/v1/admin/reports/digest
// Mails the current month's XLSX digest to the calling admin.
func (h *Handler) EmailDigest(c *gin.Context) {
	recipient, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	if err := h.svc.EmailMonthlyDigest(c.Request.Context(), recipient); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"status": "sent", "recipient": recipient})
}

func adminQueryFrom(c *gin.Context) AdminQuery {
	return AdminQuery{
		VendorID: strings.TrimSpace(c.Query("vendor_id")),
		Status:   strings.TrimSpace(c.Query("status")),
		Kind:     strings.TrimSpace(c.Query("kind")),
		DateFrom: strings.TrimSpace(c.Query("date_from")),
		DateTo:   strings.TrimSpace(c.Query("date_to")),
	}
}

func parseDays(c *gin.Context) int {
	raw := strings.TrimSpace(c.Query("days"))
	if raw == "" {
		return 0
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0
	}
	return days
}

// mustGetVendorID extracts the vendor scope from the authenticated identity.
func mustGetVendorID(c *gin.Context) (string, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return "", false
	}
	return identity.VendorID(), true
}
