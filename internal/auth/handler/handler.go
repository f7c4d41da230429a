// Package handler exposes the auth endpoints: the Google consent redirect,
// the OAuth callback, session refresh, logout and the identity probe.
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portal_ventas_backend/internal/auth/service"
	"portal_ventas_backend/internal/auth/transport"
	"portal_ventas_backend/platform/config"
	"portal_ventas_backend/platform/httpkit"
)

// Config is the slice of application config the handlers need: the refresh
// cookie settings and the frontend URL for the post-login redirect.
type Config interface {
	config.AuthCookieConfig
	GetRefreshTokenTTL() time.Duration
}

type Handler struct {
	svc *service.Service
	cfg Config
}

func New(svc *service.Service, cfg Config) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// RegisterRoutes mounts the public auth endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/google/login", h.Login)
	rg.GET("/google/callback", h.Callback)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/logout", h.Logout)
}

// RegisterProtectedRoutes mounts the endpoints that require a session.
func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
}

// Login sends the browser to the Google consent screen.
func (h *Handler) Login(c *gin.Context) {
	url, err := h.svc.LoginURL()
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

// Callback lands the browser after consent. On success the refresh cookie
// is set and the browser is sent back to the frontend, which then calls
// POST /auth/refresh to obtain an access token.
func (h *Handler) Callback(c *gin.Context) {
	tokens, err := h.svc.Callback(c.Request.Context(), c.Query("state"), c.Query("code"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	c.Redirect(http.StatusFound, h.cfg.GetAppBaseURL())
}

// Refresh rotates the refresh cookie and returns a new access token.
func (h *Handler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(h.cfg.GetRefreshCookieName())
	if err != nil || refreshToken == "" {
		httpkit.Error(c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		h.clearRefreshCookie(c)
		httpkit.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	httpkit.OK(c, tokens)
}

// Logout revokes the session behind the refresh cookie and clears it.
func (h *Handler) Logout(c *gin.Context) {
	if refreshToken, err := c.Cookie(h.cfg.GetRefreshCookieName()); err == nil && refreshToken != "" {
		if err := h.svc.Logout(c.Request.Context(), refreshToken); err != nil {
			httpkit.HandleError(c, err)
			return
		}
	}

	h.clearRefreshCookie(c)
	httpkit.OK(c, gin.H{"message": "signed out"})
}

// Me reports the identity carried by the access token.
func (h *Handler) Me(c *gin.Context) {
	ident := httpkit.MustGetIdentity(c)
	if ident == nil {
		return
	}

	httpkit.OK(c, transport.MeResponse{
		Email:   ident.VendorID(),
		Roles:   ident.Roles(),
		IsAdmin: ident.IsAdmin(),
	})
}

func (h *Handler) setRefreshCookie(c *gin.Context, value string) {
	maxAge := int(h.cfg.GetRefreshTokenTTL() / time.Second)
	c.SetSameSite(h.cfg.GetRefreshCookieSameSite())
	c.SetCookie(
		h.cfg.GetRefreshCookieName(),
		value,
		maxAge,
		h.cfg.GetRefreshCookiePath(),
		h.cfg.GetRefreshCookieDomain(),
		h.cfg.GetRefreshCookieSecure(),
		true,
	)
}

func (h *Handler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(h.cfg.GetRefreshCookieSameSite())
	c.SetCookie(
		h.cfg.GetRefreshCookieName(),
		"",
		-1,
		h.cfg.GetRefreshCookiePath(),
		h.cfg.GetRefreshCookieDomain(),
		h.cfg.GetRefreshCookieSecure(),
		true,
	)
}
