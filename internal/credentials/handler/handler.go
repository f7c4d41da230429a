// Package handler exposes the Google integration endpoints.
package handler

import (
	"github.com/gin-gonic/gin"

	"portal_ventas_backend/internal/credentials/service"
	"portal_ventas_backend/platform/httpkit"
)

// Handler handles HTTP requests for the Google Calendar integration.
type Handler struct {
	svc *service.Service
}

// New creates a new credentials handler.
func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the integration routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/google/status", h.Status)
	rg.DELETE("/google", h.Disconnect)
}

// Status reports whether the caller's calendar integration is connected.
func (h *Handler) Status(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	status, err := h.svc.Status(c.Request.Context(), vendorID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, status)
}

// Disconnect drops the caller's stored grant.
func (h *Handler) Disconnect(c *gin.Context) {
	vendorID, ok := mustGetVendorID(c)
	if !ok {
		return
	}

	if httpkit.HandleError(c, h.svc.Disconnect(c.Request.Context(), vendorID)) {
		return
	}

	httpkit.OK(c, gin.H{"status": "disconnected"})
}

func mustGetVendorID(c *gin.Context) (string, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return "", false
	}
	return identity.VendorID(), true
}
