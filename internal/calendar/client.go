package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"portal_ventas_backend/platform/config"
	"portal_ventas_backend/platform/logger"
)

const maxResponseBytes = 2 << 20

// Gateway is the remote calendar surface the reconciler depends on.
type Gateway interface {
	InsertEvent(ctx context.Context, token string, event *Event) (*EventResult, error)
	DeleteEvent(ctx context.Context, token, eventID string) error
}

// EventResult is the subset of a created event the caller keeps a reference to.
type EventResult struct {
	ID       string `json:"id"`
	HTMLLink string `json:"htmlLink"`
}

// APIError is a non-success response from the calendar API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("calendar api returned %d: %s", e.StatusCode, e.Body)
}

// HTTPGateway talks to the Google Calendar v3 REST API with a per-call
// bearer token, so a single gateway serves every vendor.
type HTTPGateway struct {
	baseURL    string
	calendarID string
	http       *http.Client
	log        *logger.Logger
}

type GatewayOption func(*HTTPGateway)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *HTTPGateway) {
		g.http = client
	}
}

// WithBaseURL points the gateway at a different API host, mainly for tests.
func WithBaseURL(baseURL string) GatewayOption {
	return func(g *HTTPGateway) {
		g.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func NewHTTPGateway(cfg config.CalendarConfig, log *logger.Logger, opts ...GatewayOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.GetCalendarBaseURL(), "/"),
		calendarID: cfg.GetCalendarID(),
		http:       &http.Client{Timeout: 15 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *HTTPGateway) InsertEvent(ctx context.Context, token string, event *Event) (*EventResult, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal calendar event: %w", err)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events", g.baseURL, url.PathEscape(g.calendarID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, readAPIError(resp)
	}

	var created EventResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode calendar event response: %w", err)
	}

	g.log.Debug("calendar event created", "event_id", created.ID)
	return &created, nil
}

// DeleteEvent removes a single event. A remote 404 or 410 maps to
// ErrEventNotFound: the event is gone either way.
func (g *HTTPGateway) DeleteEvent(ctx context.Context, token, eventID string) error {
	endpoint := fmt.Sprintf("%s/calendars/%s/events/%s",
		g.baseURL, url.PathEscape(g.calendarID), url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("calendar request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrEventNotFound
	case resp.StatusCode >= http.StatusBadRequest:
		return readAPIError(resp)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
}
