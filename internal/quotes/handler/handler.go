package handler

import (
	"io"
	"net/http"
	"strings"

	"portal_ventas_backend/internal/quotes/domain"
	"portal_ventas_backend/internal/quotes/service"
	"portal_ventas_backend/internal/quotes/transport"
	"portal_ventas_backend/platform/httpkit"
	"portal_ventas_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgFileRequired     = "multipart field 'file' is required"
	msgUnknownStatus    = "unknown status filter"
)

// defaultMaxUploadBytes caps quote document uploads when no limit is configured.
const defaultMaxUploadBytes = 20 << 20

// Handler handles HTTP requests for quotes
type Handler struct {
	svc            *service.Service
	val            *validator.Validator
	maxUploadBytes int64
}

// New creates a new quotes handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val, maxUploadBytes: defaultMaxUploadBytes}
}

// SetMaxUploadBytes overrides the size cap for uploaded quote documents.
func (h *Handler) SetMaxUploadBytes(n int64) {
	if n > 0 {
		h.maxUploadBytes = n
	}
}

// RegisterRoutes registers the quote routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Upload)
	rg.GET("/:quoteNumber", h.Get)
	rg.GET("/:quoteNumber/documento", h.DocumentLink)
	rg.PUT("/:quoteNumber", h.Update)
	rg.POST("/:quoteNumber/cancelar-eventos", h.CancelReminders)
}

// Upload handles POST /api/v1/cotizaciones
// Accepts a multipart quote document, extracts its fields and schedules the
// follow-up reminders. Re-submitting a quote the vendor already ingested
// answers with the stored copy instead of creating new events.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgFileRequired, nil)
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		httpkit.Error(c, http.StatusRequestEntityTooLarge, "file exceeds the allowed size", nil)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read uploaded file", nil)
		return
	}

	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	resp, err := h.svc.Ingest(c.Request.Context(), vendorID, service.IngestInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
		Text:        c.PostForm("text"),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	if resp.Duplicate {
		httpkit.OK(c, resp)
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

// List handles GET /api/v1/cotizaciones
func (h *Handler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		if _, ok := domain.ParseStatus(status); !ok {
			httpkit.Error(c, http.StatusBadRequest, msgUnknownStatus, domain.AllStatuses())
			return
		}
	}

	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	items, err := h.svc.List(c.Request.Context(), vendorID, status)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"items": items, "count": len(items)})
}

// Get handles GET /api/v1/cotizaciones/:quoteNumber
func (h *Handler) Get(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), vendorID, c.Param("quoteNumber"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// DocumentLink handles GET /api/v1/cotizaciones/:quoteNumber/documento
// Returns a short-lived download URL for the archived source document.
func (h *Handler) DocumentLink(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	url, err := h.svc.DocumentLink(c.Request.Context(), vendorID, c.Param("quoteNumber"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"url": url})
}

// Update handles PUT /api/v1/cotizaciones/:quoteNumber
func (h *Handler) Update(c *gin.Context) {
	var req transport.UpdateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.SaveReview(c.Request.Context(), vendorID, c.Param("quoteNumber"), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// CancelReminders handles POST /api/v1/cotizaciones/:quoteNumber/cancelar-eventos
// Cancels the stored reminder events without touching the review status.
func (h *Handler) CancelReminders(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.CancelReminders(c.Request.Context(), vendorID, c.Param("quoteNumber"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// mustGetVendorID extracts the vendor scope from the authenticated identity.
func mustGetVendorID(c *gin.Context) (string, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return "", false
	}
	return identity.VendorID(), true
}
