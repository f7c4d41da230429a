// Package transport defines the wire-level request and response shapes for
// the quotes module.
package transport

import (
	"time"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/extract"
)

// Ingest statuses on the wire. A duplicate submission is acknowledged, not
// rejected: the vendor retried or double-clicked, which is expected behavior.
const (
	IngestStatusOK        = "ok"
	IngestStatusDuplicate = "DUPLICATE_BLOCKED"
)

// QuoteResponse is the wire representation of a stored quote.
type QuoteResponse struct {
	ID          int64               `json:"id"`
	VendorID    string              `json:"vendor_id"`
	QuoteNumber string              `json:"quote_number"`
	ContentHash string              `json:"content_hash"`
	Extracted   extract.Fields      `json:"extracted"`
	Events      []calendar.EventRef `json:"events"`
	Summary     string              `json:"summary"`
	Notes       string              `json:"notes"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`
}

// IngestResponse is the wire result of a quote upload.
type IngestResponse struct {
	Status    string         `json:"status"`
	Duplicate bool           `json:"duplicate"`
	Message   string         `json:"message,omitempty"`
	Quote     *QuoteResponse `json:"quote,omitempty"`
	Existing  *QuoteResponse `json:"existing,omitempty"`
}

// UpdateQuoteRequest carries the editable review fields.
type UpdateQuoteRequest struct {
	Summary string `json:"summary" validate:"max=2000"`
	Notes   string `json:"notes" validate:"max=4000"`
	Status  string `json:"status" validate:"required,oneof=pendiente contactado interesado cerrada perdida"`
}

// CancelRemindersResponse reports the manual reminder cancellation outcome.
type CancelRemindersResponse struct {
	Deleted []string                 `json:"deleted"`
	Failed  []calendar.CancelFailure `json:"failed"`
}
