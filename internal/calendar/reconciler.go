package calendar

import (
	"context"
	"errors"
	"time"

	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"
)

// Reconciler drives remote calendar state toward what the lifecycle demands:
// it schedules follow-up and postventa events and cancels them when a quote
// closes, a postventa is cancelled, or the vendor asks for it.
type Reconciler struct {
	gateway Gateway
	creds   CredentialProvider
	log     *logger.Logger
	now     func() time.Time
}

func NewReconciler(gateway Gateway, creds CredentialProvider, log *logger.Logger) *Reconciler {
	return &Reconciler{
		gateway: gateway,
		creds:   creds,
		log:     log,
		now:     time.Now,
	}
}

// ScheduleFollowups creates the 48h and 72h reminder events for a fresh
// quote. Credentials are resolved before any remote write so a disconnected
// vendor fails fast without touching the calendar.
func (r *Reconciler) ScheduleFollowups(ctx context.Context, vendorID string, q QuoteDetails) ([]EventRef, error) {
	token, err := r.creds.AccessToken(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	planned := FollowupPlan(q, r.now())
	refs := make([]EventRef, 0, len(planned))
	for _, p := range planned {
		created, err := r.gateway.InsertEvent(ctx, token, p.Event)
		if err != nil {
			r.log.CalendarCall("events.insert", vendorID, err)
			return nil, apperr.Wrap(apperr.KindRemoteFailed, "failed to create follow-up event", err)
		}
		refs = append(refs, EventRef{
			Tag:      p.Tag,
			EventID:  created.ID,
			HTMLLink: created.HTMLLink,
			Start:    p.Start,
		})
	}

	r.log.CalendarCall("events.insert", vendorID, nil)
	return refs, nil
}

// SchedulePostventa creates the all-day visit event and returns its reference.
func (r *Reconciler) SchedulePostventa(ctx context.Context, vendorID string, p PostventaDetails) (EventRef, error) {
	token, err := r.creds.AccessToken(ctx, vendorID)
	if err != nil {
		return EventRef{}, err
	}

	plan := PostventaPlan(p)
	created, err := r.gateway.InsertEvent(ctx, token, plan.Event)
	if err != nil {
		r.log.CalendarCall("events.insert", vendorID, err)
		return EventRef{}, apperr.Wrap(apperr.KindRemoteFailed, "failed to create postventa event", err)
	}

	r.log.CalendarCall("events.insert", vendorID, nil)
	return EventRef{
		Tag:      plan.Tag,
		EventID:  created.ID,
		HTMLLink: created.HTMLLink,
		Start:    plan.Start,
	}, nil
}

// Cancel removes the given events best effort: every id is attempted, events
// already gone remotely count as deleted, and per-event failures are reported
// instead of aborting the batch. Callers decide what a partial failure means
// for their entity. An empty batch succeeds without resolving credentials.
func (r *Reconciler) Cancel(ctx context.Context, vendorID string, eventIDs []string) (CancelResult, error) {
	result := CancelResult{Deleted: []string{}, Failed: []CancelFailure{}}
	if len(eventIDs) == 0 {
		return result, nil
	}

	token, err := r.creds.AccessToken(ctx, vendorID)
	if err != nil {
		return result, err
	}

	for _, id := range eventIDs {
		if id == "" {
			continue
		}

		err := r.gateway.DeleteEvent(ctx, token, id)
		switch {
		case err == nil, errors.Is(err, ErrEventNotFound):
			result.Deleted = append(result.Deleted, id)
		default:
			failure := CancelFailure{EventID: id, Reason: err.Error()}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				failure.Status = apiErr.StatusCode
			}
			result.Failed = append(result.Failed, failure)
			r.log.CalendarCall("events.delete", vendorID, err)
		}
	}
	return result, nil
}
