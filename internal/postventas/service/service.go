// Package service implements postventa scheduling and lifecycle logic.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/events"
	"portal_ventas_backend/internal/postventas/domain"
	"portal_ventas_backend/internal/postventas/repository"
	"portal_ventas_backend/internal/postventas/transport"
	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"
	"portal_ventas_backend/platform/phone"
	"portal_ventas_backend/platform/sanitize"
)

// dateLayout is the wire and storage-boundary format for calendar days.
const dateLayout = "2006-01-02"

// issueDateLayout matches the emission date printed on quote documents.
const issueDateLayout = "02/01/2006"

// defaultVisitOffsetDays seeds postventa_date when the visit is derived from
// a closed quote.
const defaultVisitOffsetDays = 7

// Reconciler is the calendar capability the postventa lifecycle needs.
type Reconciler interface {
	SchedulePostventa(ctx context.Context, vendorID string, p calendar.PostventaDetails) (calendar.EventRef, error)
	Cancel(ctx context.Context, vendorID string, eventIDs []string) (calendar.CancelResult, error)
}

// QuoteInfo is the slice of a stored quote the postventa-from-quote flow reads.
type QuoteInfo struct {
	QuoteNumber string
	Status      string
	ClientName  string
	IssueDate   string
}

// QuoteReader resolves quote lookups without coupling to the quotes module.
type QuoteReader interface {
	QuoteInfo(ctx context.Context, vendorID, quoteNumber string) (*QuoteInfo, error)
}

// Service implements postventa business logic
type Service struct {
	repo       repository.PostventaRepository
	reconciler Reconciler
	quotes     QuoteReader
	bus        events.Bus
	log        *logger.Logger
	now        func() time.Time
}

// New creates a new postventa service
func New(repo repository.PostventaRepository, reconciler Reconciler, log *logger.Logger) *Service {
	return &Service{repo: repo, reconciler: reconciler, log: log, now: time.Now}
}

// SetQuoteReader injects the lookup used by postventa-from-quote.
func (s *Service) SetQuoteReader(r QuoteReader) {
	s.quotes = r
}

// SetEventBus injects the event bus for domain event publishing.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// Create registers a service visit and schedules its all-day reminder.
func (s *Service) Create(ctx context.Context, vendorID string, req transport.CreatePostventaRequest) (*transport.PostventaResponse, error) {
	visitDay, err := time.Parse(dateLayout, req.PostventaDate)
	if err != nil {
		return nil, apperr.Validation("postventa_date must be formatted YYYY-MM-DD")
	}

	var saleDate *time.Time
	if strings.TrimSpace(req.SaleDate) != "" {
		parsed, err := time.Parse(dateLayout, req.SaleDate)
		if err != nil {
			return nil, apperr.Validation("sale_date must be formatted YYYY-MM-DD")
		}
		saleDate = &parsed
	}

	p := &repository.Postventa{
		VendorID:      vendorID,
		ClientName:    sanitize.Text(req.ClientName),
		Phone:         phone.NormalizeE164(req.Phone),
		SaleDate:      saleDate,
		PostventaDate: visitDay,
		Type:          strings.TrimSpace(req.Type),
		Notes:         sanitize.Text(req.Notes),
		Status:        domain.StatusPendiente,
	}

	return s.create(ctx, p)
}

// CreateFromQuote registers the after-sale visit for a closed quote. The
// quote must currently be cerrada; any other status is a rejected
// precondition, not a silent no-op.
func (s *Service) CreateFromQuote(ctx context.Context, vendorID, quoteNumber string) (*transport.PostventaResponse, error) {
	if s.quotes == nil {
		return nil, apperr.Internal("quote lookup is not configured")
	}

	info, err := s.quotes.QuoteInfo(ctx, vendorID, quoteNumber)
	if err != nil {
		return nil, err
	}
	if info.Status != "cerrada" {
		return nil, apperr.PreconditionFailed(fmt.Sprintf("quote %s must be cerrada to create a postventa, current status is %s", quoteNumber, info.Status))
	}

	var saleDate *time.Time
	if parsed, err := time.Parse(issueDateLayout, info.IssueDate); err == nil {
		saleDate = &parsed
	}

	p := &repository.Postventa{
		VendorID:      vendorID,
		ClientName:    sanitize.Text(info.ClientName),
		SaleDate:      saleDate,
		PostventaDate: s.defaultVisitDay(),
		Notes:         fmt.Sprintf("Postventa creada desde cotización %s.", quoteNumber),
		Status:        domain.StatusPendiente,
		QuoteNumber:   quoteNumber,
	}

	return s.create(ctx, p)
}

// List returns the vendor's postventas, optionally filtered by status.
func (s *Service) List(ctx context.Context, vendorID, status string) ([]transport.PostventaResponse, error) {
	items, err := s.repo.List(ctx, vendorID, repository.ListParams{Status: status})
	if err != nil {
		return nil, err
	}

	out := make([]transport.PostventaResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	return out, nil
}

// Get returns one postventa by id.
func (s *Service) Get(ctx context.Context, vendorID string, id int64) (*transport.PostventaResponse, error) {
	p, err := s.repo.GetByID(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(p)
	return &resp, nil
}

// MarkRealizada records that the visit happened. The remote event reference
// is intentionally left in place.
func (s *Service) MarkRealizada(ctx context.Context, vendorID string, id int64) (*transport.PostventaResponse, error) {
	p, err := s.repo.GetByID(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case domain.StatusRealizada:
		resp := toResponse(p)
		return &resp, nil
	case domain.StatusCancelada:
		return nil, apperr.Conflict("postventa is already cancelada")
	}

	if err := s.repo.UpdateStatus(ctx, vendorID, id, domain.StatusRealizada); err != nil {
		return nil, err
	}

	return s.Get(ctx, vendorID, id)
}

// Cancel moves the visit to cancelada and tears down its reminder. The
// status write happens first so a reconciliation failure can be retried by
// calling Cancel again; the retry re-runs only the remote cleanup.
func (s *Service) Cancel(ctx context.Context, vendorID string, id int64) (*transport.PostventaResponse, error) {
	p, err := s.repo.GetByID(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == domain.StatusRealizada {
		return nil, apperr.Conflict("postventa is already realizada")
	}

	if p.Status != domain.StatusCancelada {
		if err := s.repo.UpdateStatus(ctx, vendorID, id, domain.StatusCancelada); err != nil {
			return nil, err
		}
	}

	if p.EventID != "" {
		if err := s.cancelEvent(ctx, vendorID, id, p.EventID); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, vendorID, id)
}

// create schedules the reminder event and persists the visit. The remote
// event is created first; an insert failure leaves an orphan event rather
// than a visit without its reminder.
func (s *Service) create(ctx context.Context, p *repository.Postventa) (*transport.PostventaResponse, error) {
	if p.ClientName == "" {
		p.ClientName = "Cliente"
	}
	if p.Type == "" {
		p.Type = "postventa"
	}

	ref, err := s.reconciler.SchedulePostventa(ctx, p.VendorID, calendar.PostventaDetails{
		ClientName: p.ClientName,
		Phone:      p.Phone,
		SaleDate:   formatDay(p.SaleDate),
		Type:       p.Type,
		Notes:      p.Notes,
		Day:        p.PostventaDate,
	})
	if err != nil {
		return nil, err
	}
	p.EventID = ref.EventID
	p.EventLink = ref.HTMLLink

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, events.PostventaScheduled{
		BaseEvent:   events.NewBaseEvent(),
		VendorID:    p.VendorID,
		PostventaID: p.ID,
		QuoteNumber: p.QuoteNumber,
		Date:        p.PostventaDate,
	})

	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) cancelEvent(ctx context.Context, vendorID string, id int64, eventID string) error {
	result, err := s.reconciler.Cancel(ctx, vendorID, []string{eventID})
	if err != nil {
		return err
	}
	if !result.AllDeleted() {
		s.publish(ctx, events.ReconciliationFailed{
			BaseEvent: events.NewBaseEvent(),
			VendorID:  vendorID,
			Entity:    "postventa",
			Ref:       fmt.Sprintf("PV-%d", id),
			Failed:    result.Failed,
		})
		return apperr.RemoteFailed("the reminder event could not be cancelled").WithDetails(result.Failed)
	}

	return s.repo.ClearEvent(ctx, vendorID, id)
}

// defaultVisitDay is today plus the standard offset, as a civil date.
func (s *Service) defaultVisitDay() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, defaultVisitOffsetDays)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func toResponse(p *repository.Postventa) transport.PostventaResponse {
	return transport.PostventaResponse{
		ID:            p.ID,
		VendorID:      p.VendorID,
		ClientName:    p.ClientName,
		Phone:         p.Phone,
		SaleDate:      formatDay(p.SaleDate),
		PostventaDate: p.PostventaDate.Format(dateLayout),
		Type:          p.Type,
		Notes:         p.Notes,
		Status:        p.Status,
		EventID:       p.EventID,
		EventLink:     p.EventLink,
		QuoteNumber:   p.QuoteNumber,
		CreatedAt:     p.CreatedAt,
	}
}
