package handler

import (
	"net/http"
	"strconv"
	"strings"

	"portal_ventas_backend/internal/postventas/domain"
	"portal_ventas_backend/internal/postventas/service"
	"portal_ventas_backend/internal/postventas/transport"
	"portal_ventas_backend/platform/httpkit"
	"portal_ventas_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgUnknownStatus    = "unknown status filter"
)

// Handler handles HTTP requests for postventas
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new postventas handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the postventa routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/realizada", h.MarkRealizada)
	rg.POST("/:id/cancelar", h.Cancel)
}

// Create handles POST /api/v1/postventas
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreatePostventaRequest
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

	result, err := h.svc.Create(c.Request.Context(), vendorID, req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// CreateFromQuote handles POST /api/v1/cotizaciones/:quoteNumber/postventa
// The quote must currently be cerrada.
func (h *Handler) CreateFromQuote(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.CreateFromQuote(c.Request.Context(), vendorID, c.Param("quoteNumber"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, result)
}

// List handles GET /api/v1/postventas
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

// Get handles GET /api/v1/postventas/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), vendorID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// MarkRealizada handles POST /api/v1/postventas/:id/realizada
func (h *Handler) MarkRealizada(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.MarkRealizada(c.Request.Context(), vendorID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// Cancel handles POST /api/v1/postventas/:id/cancelar
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	result, err := h.svc.Cancel(c.Request.Context(), vendorID, id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return 0, false
	}
	return id, true
}

// mustGetVendorID extracts the vendor scope from the authenticated identity.
func mustGetVendorID(c *gin.Context) (string, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return "", false
	}
	return identity.VendorID(), true
}
