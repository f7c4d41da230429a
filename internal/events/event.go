// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteIngested is published when a fresh quote document passes the dedup
// guard and is persisted with its reminder events.
type QuoteIngested struct {
	BaseEvent
	VendorID    string `json:"vendorId"`
	QuoteNumber string `json:"quoteNumber"`
	ContentHash string `json:"contentHash"`
	EventCount  int    `json:"eventCount"`
}

func (e QuoteIngested) EventName() string { return "quotes.quote.ingested" }

// QuoteStatusChanged is published when a vendor edits a quote's status.
type QuoteStatusChanged struct {
	BaseEvent
	VendorID    string `json:"vendorId"`
	QuoteNumber string `json:"quoteNumber"`
	OldStatus   string `json:"oldStatus"`
	NewStatus   string `json:"newStatus"`
}

func (e QuoteStatusChanged) EventName() string { return "quotes.quote.status_changed" }

// =============================================================================
// Postventas Domain Events
// =============================================================================

// PostventaScheduled is published when a postventa is created with its
// calendar event in place.
type PostventaScheduled struct {
	BaseEvent
	VendorID    string    `json:"vendorId"`
	PostventaID int64     `json:"postventaId"`
	QuoteNumber string    `json:"quoteNumber,omitempty"`
	Date        time.Time `json:"date"`
}

func (e PostventaScheduled) EventName() string { return "postventas.postventa.scheduled" }

// =============================================================================
// Calendar Reconciliation Events
// =============================================================================

// ReconciliationFailed is published when a cancellation batch leaves remote
// events behind. Subscribers alert the vendor so the stale reminders get
// retried instead of firing for a dead deal.
type ReconciliationFailed struct {
	BaseEvent
	VendorID string                   `json:"vendorId"`
	Entity   string                   `json:"entity"` // "cotizacion" or "postventa"
	Ref      string                   `json:"ref"`
	Failed   []calendar.CancelFailure `json:"failed"`
}

func (e ReconciliationFailed) EventName() string { return "calendar.reconciliation.failed" }
