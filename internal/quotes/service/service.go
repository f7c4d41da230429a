package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/events"
	"portal_ventas_backend/internal/extract"
	"portal_ventas_backend/internal/quotes/domain"
	"portal_ventas_backend/internal/quotes/repository"
	"portal_ventas_backend/internal/quotes/transport"
	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"
	"portal_ventas_backend/platform/sanitize"
)

const duplicateBlockedMsg = "Ya existía esta cotización para este vendedor. No se crearon eventos nuevos."

// Reconciler is the calendar surface the quote lifecycle drives.
type Reconciler interface {
	ScheduleFollowups(ctx context.Context, vendorID string, q calendar.QuoteDetails) ([]calendar.EventRef, error)
	Cancel(ctx context.Context, vendorID string, eventIDs []string) (calendar.CancelResult, error)
}

// Archiver stores the uploaded source document. Archiving is best effort:
// a failure is logged, never surfaced to the vendor.
type Archiver interface {
	ArchiveDocument(ctx context.Context, vendorID, contentHash string, data []byte, contentType string) error
}

// DocumentLinker mints short-lived download URLs for archived source
// documents.
type DocumentLinker interface {
	DocumentURL(ctx context.Context, vendorID, contentHash string) (string, error)
}

// IngestInput carries one uploaded quote document.
type IngestInput struct {
	FileName    string
	ContentType string
	Data        []byte
	Text        string // extraction source; falls back to the raw bytes
}

// Service owns the quote lifecycle: dedup-guarded ingestion, free-form
// status edits with their calendar side effects, and manual reminder
// cancellation.
type Service struct {
	repo       repository.QuoteRepository
	reconciler Reconciler
	archiver   Archiver       // optional; nil disables archiving
	linker     DocumentLinker // optional; nil disables document downloads
	bus        events.Bus
	log        *logger.Logger
}

// New creates a new quotes service
func New(repo repository.QuoteRepository, reconciler Reconciler, log *logger.Logger) *Service {
	return &Service{repo: repo, reconciler: reconciler, log: log}
}

// SetArchiver injects the document archive (set after construction; optional).
func (s *Service) SetArchiver(a Archiver) {
	s.archiver = a
}

// SetDocumentLinker injects the archive download URL generator (optional).
func (s *Service) SetDocumentLinker(l DocumentLinker) {
	s.linker = l
}

// SetEventBus injects the domain event bus (optional).
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// Ingest runs the ingestion pipeline: hash the document, extract the flat
// record, consult the dedup guard, schedule the follow-up reminders, persist
// the quote with its event references, then archive the document best
// effort. A duplicate submission short-circuits before any side effect and
// returns the existing record.
func (s *Service) Ingest(ctx context.Context, vendorID string, in IngestInput) (*transport.IngestResponse, error) {
	sum := sha256.Sum256(in.Data)
	contentHash := hex.EncodeToString(sum[:])

	text := in.Text
	if text == "" {
		text = string(in.Data)
	}
	fields := extract.Parse(text)

	existing, err := s.repo.FindExisting(ctx, vendorID, fields.QuoteNumber, contentHash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.log.Info("duplicate quote submission blocked",
			"vendor_id", vendorID, "quote_number", existing.QuoteNumber)
		return duplicateResponse(existing), nil
	}

	refs, err := s.reconciler.ScheduleFollowups(ctx, vendorID, calendar.QuoteDetails{
		QuoteNumber: fields.QuoteNumber,
		ClientName:  fields.ClientName,
		Seller:      fields.Seller,
		IssueDate:   fields.IssueDate,
		Total:       fields.Total,
	})
	if err != nil {
		return nil, err
	}

	q := &repository.Quote{
		VendorID:    vendorID,
		QuoteNumber: fields.QuoteNumber,
		ContentHash: contentHash,
		Extracted:   fields,
		Events:      refs,
		Status:      domain.StatusPendiente,
	}
	if err := s.repo.Insert(ctx, q); err != nil {
		if apperr.Is(err, apperr.KindConflict) {
			// Lost a race with an identical submission; honor the dedup contract.
			if racer, ferr := s.repo.FindExisting(ctx, vendorID, fields.QuoteNumber, contentHash); ferr == nil && racer != nil {
				return duplicateResponse(racer), nil
			}
		}
		return nil, err
	}

	s.archive(ctx, vendorID, contentHash, in)
	s.publish(ctx, events.QuoteIngested{
		BaseEvent:   events.NewBaseEvent(),
		VendorID:    vendorID,
		QuoteNumber: q.QuoteNumber,
		ContentHash: contentHash,
		EventCount:  len(refs),
	})

	return &transport.IngestResponse{
		Status: transport.IngestStatusOK,
		Quote:  toResponse(q),
	}, nil
}

// List returns a vendor's quotes, newest first.
func (s *Service) List(ctx context.Context, vendorID string, status string) ([]transport.QuoteResponse, error) {
	quotes, err := s.repo.List(ctx, vendorID, repository.ListParams{Status: status})
	if err != nil {
		return nil, err
	}

	out := make([]transport.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, *toResponse(&quotes[i]))
	}
	return out, nil
}

// Get returns one quote by number.
func (s *Service) Get(ctx context.Context, vendorID, quoteNumber string) (*transport.QuoteResponse, error) {
	q, err := s.repo.GetByNumber(ctx, vendorID, quoteNumber)
	if err != nil {
		return nil, err
	}
	return toResponse(q), nil
}

// DocumentLink returns a short-lived download URL for a quote's archived
// source document.
func (s *Service) DocumentLink(ctx context.Context, vendorID, quoteNumber string) (string, error) {
	if s.linker == nil {
		return "", apperr.NotFound("document archive not configured")
	}

	q, err := s.repo.GetByNumber(ctx, vendorID, quoteNumber)
	if err != nil {
		return "", err
	}

	url, err := s.linker.DocumentURL(ctx, vendorID, q.ContentHash)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "generate document download link", err)
	}
	return url, nil
}

// SaveReview persists a vendor's edit of summary, notes and status, then
// applies the transition's side effect. The status write always lands first:
// a reconciliation failure keeps the stored event references and surfaces
// the failure so a retry can finish the cleanup, but it never rolls the edit
// back.
func (s *Service) SaveReview(ctx context.Context, vendorID, quoteNumber string, req transport.UpdateQuoteRequest) (*transport.QuoteResponse, error) {
	newStatus, ok := domain.ParseStatus(req.Status)
	if !ok {
		return nil, apperr.Validation(fmt.Sprintf("unknown quote status %q", req.Status))
	}

	cur, err := s.repo.GetByNumber(ctx, vendorID, quoteNumber)
	if err != nil {
		return nil, err
	}

	summary := sanitize.Text(req.Summary)
	notes := sanitize.Text(req.Notes)
	if err := s.repo.UpdateReview(ctx, vendorID, quoteNumber, summary, notes, newStatus); err != nil {
		return nil, err
	}

	if cur.Status != newStatus {
		s.publish(ctx, events.QuoteStatusChanged{
			BaseEvent:   events.NewBaseEvent(),
			VendorID:    vendorID,
			QuoteNumber: quoteNumber,
			OldStatus:   cur.Status.String(),
			NewStatus:   newStatus.String(),
		})
	}

	if domain.TransitionAction(cur.Status, newStatus) == domain.ActionCancelEvents {
		if err := s.cancelStoredEvents(ctx, vendorID, quoteNumber, cur.Events); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, vendorID, quoteNumber)
}

// CancelReminders cancels a quote's pending reminder events without touching
// its status, so a vendor can silence reminders for a quote that stays open.
func (s *Service) CancelReminders(ctx context.Context, vendorID, quoteNumber string) (*transport.CancelRemindersResponse, error) {
	cur, err := s.repo.GetByNumber(ctx, vendorID, quoteNumber)
	if err != nil {
		return nil, err
	}

	if err := s.cancelStoredEvents(ctx, vendorID, quoteNumber, cur.Events); err != nil {
		return nil, err
	}

	deleted := make([]string, 0, len(cur.Events))
	for _, ref := range cur.Events {
		if ref.EventID != "" {
			deleted = append(deleted, ref.EventID)
		}
	}
	return &transport.CancelRemindersResponse{
		Deleted: deleted,
		Failed:  []calendar.CancelFailure{},
	}, nil
}

// cancelStoredEvents drives the stored references to zero: cancel remotely,
// then clear locally. Only a fully successful batch clears the list; a
// partial failure keeps every reference (never half-cleared) so the retry
// path stays safe.
func (s *Service) cancelStoredEvents(ctx context.Context, vendorID, quoteNumber string, refs []calendar.EventRef) error {
	if len(refs) == 0 {
		return s.repo.ClearEvents(ctx, vendorID, quoteNumber)
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref.EventID != "" {
			ids = append(ids, ref.EventID)
		}
	}

	result, err := s.reconciler.Cancel(ctx, vendorID, ids)
	if err != nil {
		return err
	}
	if !result.AllDeleted() {
		s.publish(ctx, events.ReconciliationFailed{
			BaseEvent: events.NewBaseEvent(),
			VendorID:  vendorID,
			Entity:    "cotizacion",
			Ref:       quoteNumber,
			Failed:    result.Failed,
		})
		return apperr.RemoteFailed(fmt.Sprintf("%d reminder event(s) could not be cancelled", len(result.Failed))).
			WithDetails(result.Failed)
	}

	return s.repo.ClearEvents(ctx, vendorID, quoteNumber)
}

func (s *Service) archive(ctx context.Context, vendorID, contentHash string, in IngestInput) {
	if s.archiver == nil || len(in.Data) == 0 {
		return
	}
	if err := s.archiver.ArchiveDocument(ctx, vendorID, contentHash, in.Data, in.ContentType); err != nil {
		s.log.Warn("quote document archive failed",
			"vendor_id", vendorID, "content_hash", contentHash, "error", err.Error())
	}
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func duplicateResponse(existing *repository.Quote) *transport.IngestResponse {
	return &transport.IngestResponse{
		Status:    transport.IngestStatusDuplicate,
		Duplicate: true,
		Message:   duplicateBlockedMsg,
		Existing:  toResponse(existing),
	}
}

func toResponse(q *repository.Quote) *transport.QuoteResponse {
	refs := q.Events
	if refs == nil {
		refs = []calendar.EventRef{}
	}
	return &transport.QuoteResponse{
		ID:          q.ID,
		VendorID:    q.VendorID,
		QuoteNumber: q.QuoteNumber,
		ContentHash: q.ContentHash,
		Extracted:   q.Extracted,
		Events:      refs,
		Summary:     q.Summary,
		Notes:       q.Notes,
		Status:      q.Status.String(),
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}
