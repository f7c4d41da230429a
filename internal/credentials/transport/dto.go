// Package transport defines the request/response DTOs for the credentials module.
package transport

import "time"

// StatusResponse reports whether the vendor's Google Calendar integration
// is usable. Tokens are never included.
type StatusResponse struct {
	Connected      bool       `json:"connected"`
	Scope          string     `json:"scope,omitempty"`
	ConnectedAt    *time.Time `json:"connected_at,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
}
