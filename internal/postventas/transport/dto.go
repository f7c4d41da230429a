// Package transport defines request/response DTOs for the postventas API.
package transport

import (
	"time"

	"portal_ventas_backend/internal/postventas/domain"
)

// CreatePostventaRequest is the payload for registering a service visit.
// Dates travel as calendar days (YYYY-MM-DD), never timestamps.
type CreatePostventaRequest struct {
	ClientName    string `json:"client_name" validate:"max=200"`
	Phone         string `json:"phone" validate:"max=40"`
	SaleDate      string `json:"sale_date" validate:"max=10"`
	PostventaDate string `json:"postventa_date" validate:"required,max=10"`
	Type          string `json:"type" validate:"max=60"`
	Notes         string `json:"notes" validate:"max=4000"`
}

// PostventaResponse is the API shape of a service visit.
type PostventaResponse struct {
	ID            int64         `json:"id"`
	VendorID      string        `json:"vendor_id"`
	ClientName    string        `json:"client_name"`
	Phone         string        `json:"phone"`
	SaleDate      string        `json:"sale_date,omitempty"`
	PostventaDate string        `json:"postventa_date"`
	Type          string        `json:"type"`
	Notes         string        `json:"notes"`
	Status        domain.Status `json:"status"`
	EventID       string        `json:"event_id,omitempty"`
	EventLink     string        `json:"event_link,omitempty"`
	QuoteNumber   string        `json:"quote_number,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
