// Package calendar keeps vendor calendars in sync with the quote and
// postventa lifecycle. A pure planner builds the event payloads, a Gateway
// talks to the Google Calendar API, and the Reconciler ties both to the
// vendor's stored credentials.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrEventNotFound reports that the remote event no longer exists. Callers
// treat it as success when cancelling: the desired end state is reached.
var ErrEventNotFound = errors.New("calendar event not found")

// CredentialProvider yields a live access token for a vendor. Implementations
// return apperr.CredentialUnavailable when the vendor never connected a
// calendar or the stored grant can no longer be refreshed.
type CredentialProvider interface {
	AccessToken(ctx context.Context, vendorID string) (string, error)
}

// EventRef is the durable reference a record keeps for each remote event it
// owns. Start is the planned start of the event, not the creation time.
type EventRef struct {
	Tag      string    `json:"tag"`
	EventID  string    `json:"event_id"`
	HTMLLink string    `json:"htmlLink"`
	Start    time.Time `json:"start"`
}

// CancelFailure describes one event that could not be removed. Status is the
// HTTP status returned by the calendar API, or zero when the call never got a
// response.
type CancelFailure struct {
	EventID string `json:"event_id"`
	Status  int    `json:"status"`
	Reason  string `json:"reason"`
}

// CancelResult reports a best-effort batch cancellation. Events that were
// already gone remotely count as deleted.
type CancelResult struct {
	Deleted []string        `json:"deleted"`
	Failed  []CancelFailure `json:"failed"`
}

// AllDeleted reports whether every requested event is now gone.
func (r CancelResult) AllDeleted() bool {
	return len(r.Failed) == 0
}
