// Package notification provides event handlers for alerting vendors in
// response to domain events. This module subscribes to the event bus and
// inverts the dependency: domain modules no longer need to know about email
// providers or templates.
package notification

import (
	"context"
	"fmt"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/email"
	"portal_ventas_backend/internal/events"
	"portal_ventas_backend/platform/logger"
)

// Module handles all notification-related event subscriptions.
type Module struct {
	mailer email.Sender
	log    *logger.Logger
}

// New creates a new notification module.
func New(mailer email.Sender, log *logger.Logger) *Module {
	return &Module{mailer: mailer, log: log}
}

// RegisterHandlers subscribes to all relevant domain events on the event bus.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ReconciliationFailed{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ReconciliationFailed:
		return m.handleReconciliationFailed(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

// handleReconciliationFailed emails the vendor whose cancellation batch left
// reminders behind, listing the stuck events so they can be retried or removed
// by hand. Vendor IDs are Google account addresses, so the alert goes straight
// to the vendor's inbox.
func (m *Module) handleReconciliationFailed(ctx context.Context, e events.ReconciliationFailed) error {
	failures := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		failures = append(failures, describeFailure(f))
	}

	if err := m.mailer.SendReconciliationAlertEmail(ctx, e.VendorID, e.Entity, e.Ref, failures); err != nil {
		m.log.Error("failed to send reconciliation alert email",
			"vendorId", e.VendorID,
			"entity", e.Entity,
			"ref", e.Ref,
			"error", err,
		)
		return err
	}
	m.log.Info("reconciliation alert sent",
		"vendorId", e.VendorID,
		"entity", e.Entity,
		"ref", e.Ref,
		"failedCount", len(e.Failed),
	)
	return nil
}

// describeFailure renders one stuck event for the alert body. API failures
// keep just the status line; raw response bodies do not belong in a vendor
// email.
func describeFailure(f calendar.CancelFailure) string {
	switch {
	case f.Status > 0:
		return fmt.Sprintf("%s (HTTP %d)", f.EventID, f.Status)
	case f.Reason != "":
		return fmt.Sprintf("%s (%s)", f.EventID, f.Reason)
	default:
		return f.EventID
	}
}

var _ events.Handler = (*Module)(nil)
