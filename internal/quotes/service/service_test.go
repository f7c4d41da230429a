package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/events"
	"portal_ventas_backend/internal/quotes/domain"
	"portal_ventas_backend/internal/quotes/repository"
	"portal_ventas_backend/internal/quotes/transport"
	"portal_ventas_backend/platform/apperr"
	"portal_ventas_backend/platform/logger"
)

const (
	testVendor = "vendor@example.com"
	testNumber = "0001-00000042"

	msgUnexpectedErr = "unexpected error: %v"
)

const testDocument = `Número 0001-00000042
Fecha de Emisión 15/03/2024
Apellido y Nombre / Razón Social: ACME
Vendedor: Laura
TOTAL 1.234,56
`

type journal struct {
	ops []string
}

func (j *journal) add(op string) {
	j.ops = append(j.ops, op)
}

type stubRepo struct {
	j *journal

	existing  *repository.Quote
	stored    *repository.Quote
	insertErr error

	inserted   *repository.Quote
	updateSeen bool
	clearCount int
}

func (r *stubRepo) Insert(ctx context.Context, q *repository.Quote) error {
	r.j.add("insert")
	if r.insertErr != nil {
		return r.insertErr
	}
	q.ID = 1
	q.CreatedAt = time.Now()
	r.inserted = q
	return nil
}

func (r *stubRepo) FindExisting(ctx context.Context, vendorID, quoteNumber, contentHash string) (*repository.Quote, error) {
	r.j.add("find")
	return r.existing, nil
}

func (r *stubRepo) GetByNumber(ctx context.Context, vendorID, quoteNumber string) (*repository.Quote, error) {
	r.j.add("get")
	if r.stored == nil {
		return nil, apperr.NotFound("quote not found")
	}
	copied := *r.stored
	return &copied, nil
}

func (r *stubRepo) List(ctx context.Context, vendorID string, params repository.ListParams) ([]repository.Quote, error) {
	if r.stored == nil {
		return nil, nil
	}
	return []repository.Quote{*r.stored}, nil
}

func (r *stubRepo) UpdateReview(ctx context.Context, vendorID, quoteNumber, summary, notes string, status domain.Status) error {
	r.j.add("update")
	r.updateSeen = true
	r.stored.Summary = summary
	r.stored.Notes = notes
	r.stored.Status = status
	return nil
}

func (r *stubRepo) ClearEvents(ctx context.Context, vendorID, quoteNumber string) error {
	r.j.add("clear")
	r.clearCount++
	r.stored.Events = []calendar.EventRef{}
	return nil
}

type stubReconciler struct {
	j *journal

	refs     []calendar.EventRef
	schedErr error

	cancelResult calendar.CancelResult
	cancelErr    error
	cancelled    [][]string
}

func (c *stubReconciler) ScheduleFollowups(ctx context.Context, vendorID string, q calendar.QuoteDetails) ([]calendar.EventRef, error) {
	c.j.add("schedule")
	if c.schedErr != nil {
		return nil, c.schedErr
	}
	return c.refs, nil
}

func (c *stubReconciler) Cancel(ctx context.Context, vendorID string, eventIDs []string) (calendar.CancelResult, error) {
	c.j.add("cancel")
	c.cancelled = append(c.cancelled, eventIDs)
	if c.cancelErr != nil {
		return calendar.CancelResult{}, c.cancelErr
	}
	return c.cancelResult, nil
}

type stubBus struct {
	published []events.Event
}

func (b *stubBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *stubBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *stubBus) Subscribe(eventName string, handler events.Handler) {}

type stubArchiver struct {
	calls int
	err   error
}

func (a *stubArchiver) ArchiveDocument(ctx context.Context, vendorID, contentHash string, data []byte, contentType string) error {
	a.calls++
	return a.err
}

func twoRefs() []calendar.EventRef {
	return []calendar.EventRef{
		{Tag: "48h", EventID: "evt-1", HTMLLink: "https://cal/1", Start: time.Now().Add(48 * time.Hour)},
		{Tag: "72h", EventID: "evt-2", HTMLLink: "https://cal/2", Start: time.Now().Add(72 * time.Hour)},
	}
}

func storedQuote(status domain.Status, refs []calendar.EventRef) *repository.Quote {
	return &repository.Quote{
		ID:          7,
		VendorID:    testVendor,
		QuoteNumber: testNumber,
		ContentHash: "abc123",
		Events:      refs,
		Status:      status,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
}

func newTestService(repo *stubRepo, rec *stubReconciler) (*Service, *stubBus) {
	svc := New(repo, rec, logger.New("test"))
	bus := &stubBus{}
	svc.SetEventBus(bus)
	return svc, bus
}

func TestIngestFreshQuoteSchedulesTwoEventsAndPersists(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j}
	rec := &stubReconciler{j: j, refs: twoRefs()}
	svc, bus := newTestService(repo, rec)

	resp, err := svc.Ingest(context.Background(), testVendor, IngestInput{
		FileName: "presupuesto.pdf",
		Data:     []byte("%PDF-1.4 fake body"),
		Text:     testDocument,
	})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if resp.Status != transport.IngestStatusOK || resp.Duplicate {
		t.Fatalf("expected fresh ingest, got %+v", resp)
	}
	if repo.inserted == nil {
		t.Fatalf("expected quote to be persisted")
	}
	if repo.inserted.QuoteNumber != testNumber {
		t.Fatalf("expected extracted number %q, got %q", testNumber, repo.inserted.QuoteNumber)
	}
	if repo.inserted.Status != domain.StatusPendiente {
		t.Fatalf("expected initial status pendiente, got %q", repo.inserted.Status)
	}
	if len(repo.inserted.Events) != 2 {
		t.Fatalf("expected 2 stored refs, got %d", len(repo.inserted.Events))
	}
	if len(resp.Quote.Events) != 2 {
		t.Fatalf("expected refs embedded in response, got %d", len(resp.Quote.Events))
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	if _, ok := bus.published[0].(events.QuoteIngested); !ok {
		t.Fatalf("expected QuoteIngested, got %T", bus.published[0])
	}
}

func TestIngestDuplicateIsNoOpAndReturnsExisting(t *testing.T) {
	j := &journal{}
	existing := storedQuote(domain.StatusPendiente, twoRefs())
	repo := &stubRepo{j: j, existing: existing}
	rec := &stubReconciler{j: j, refs: twoRefs()}
	svc, bus := newTestService(repo, rec)

	resp, err := svc.Ingest(context.Background(), testVendor, IngestInput{
		Data: []byte("%PDF-1.4 fake body"),
		Text: testDocument,
	})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if resp.Status != transport.IngestStatusDuplicate || !resp.Duplicate {
		t.Fatalf("expected duplicate response, got %+v", resp)
	}
	if resp.Existing == nil || resp.Existing.QuoteNumber != testNumber {
		t.Fatalf("expected existing record in response, got %+v", resp.Existing)
	}
	if len(resp.Existing.Events) != 2 {
		t.Fatalf("expected existing refs returned for inspection, got %d", len(resp.Existing.Events))
	}
	for _, op := range j.ops {
		if op == "schedule" || op == "insert" {
			t.Fatalf("expected no side effects on duplicate, ops=%v", j.ops)
		}
	}
	if len(bus.published) != 0 {
		t.Fatalf("expected no events published on duplicate, got %d", len(bus.published))
	}
}

// racingRepo sees no duplicate on the first lookup and the racing row on the
// second, mimicking a concurrent identical submission landing between the
// dedup read and the insert.
type racingRepo struct {
	*stubRepo
	racer *repository.Quote
	looks int
}

func (r *racingRepo) FindExisting(ctx context.Context, vendorID, quoteNumber, contentHash string) (*repository.Quote, error) {
	r.looks++
	if r.looks == 1 {
		return nil, nil
	}
	return r.racer, nil
}

func TestIngestInsertRaceFallsBackToDuplicate(t *testing.T) {
	j := &journal{}
	repo := &racingRepo{
		stubRepo: &stubRepo{j: j, insertErr: apperr.Conflict("quote already exists for this vendor")},
		racer:    storedQuote(domain.StatusPendiente, twoRefs()),
	}
	rec := &stubReconciler{j: j, refs: twoRefs()}
	svc := New(repo, rec, logger.New("test"))

	resp, err := svc.Ingest(context.Background(), testVendor, IngestInput{
		Data: []byte("body"),
		Text: testDocument,
	})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if !resp.Duplicate || resp.Existing == nil {
		t.Fatalf("expected duplicate fallback after insert race, got %+v", resp)
	}
	if repo.looks != 2 {
		t.Fatalf("expected a re-read after the conflict, looks=%d", repo.looks)
	}
}

func TestIngestCredentialFailurePersistsNothing(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j}
	rec := &stubReconciler{j: j, schedErr: apperr.CredentialUnavailable("vendor has no connected calendar")}
	svc, _ := newTestService(repo, rec)

	_, err := svc.Ingest(context.Background(), testVendor, IngestInput{
		Data: []byte("body"),
		Text: testDocument,
	})
	if !apperr.Is(err, apperr.KindCredentialUnavailable) {
		t.Fatalf("expected credential unavailable, got %v", err)
	}
	if repo.inserted != nil {
		t.Fatalf("expected nothing persisted, got %+v", repo.inserted)
	}
}

func TestIngestArchiveFailureDoesNotFailIngestion(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j}
	rec := &stubReconciler{j: j, refs: twoRefs()}
	svc, _ := newTestService(repo, rec)

	arch := &stubArchiver{err: errors.New("bucket offline")}
	svc.SetArchiver(arch)

	resp, err := svc.Ingest(context.Background(), testVendor, IngestInput{
		Data: []byte("body"),
		Text: testDocument,
	})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}
	if resp.Status != transport.IngestStatusOK {
		t.Fatalf("expected successful ingest despite archive failure, got %+v", resp)
	}
	if arch.calls != 1 {
		t.Fatalf("expected archive attempt, got %d", arch.calls)
	}
}

func TestSaveReviewTerminalStatusClearsEventsOnFullSuccess(t *testing.T) {
	j := &journal{}
	refs := twoRefs()
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusInteresado, refs)}
	rec := &stubReconciler{j: j, cancelResult: calendar.CancelResult{
		Deleted: []string{"evt-1", "evt-2"},
		Failed:  []calendar.CancelFailure{},
	}}
	svc, _ := newTestService(repo, rec)

	resp, err := svc.SaveReview(context.Background(), testVendor, testNumber, transport.UpdateQuoteRequest{
		Summary: "cerrada con instalación",
		Status:  "cerrada",
	})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if resp.Status != "cerrada" {
		t.Fatalf("expected persisted status cerrada, got %q", resp.Status)
	}
	if len(resp.Events) != 0 {
		t.Fatalf("expected event refs cleared, got %d", len(resp.Events))
	}
	if len(rec.cancelled) != 1 || len(rec.cancelled[0]) != 2 {
		t.Fatalf("expected both events cancel-requested, got %v", rec.cancelled)
	}
	if repo.clearCount != 1 {
		t.Fatalf("expected one clear, got %d", repo.clearCount)
	}
}

func TestSaveReviewPersistsStatusBeforeCancelling(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, twoRefs())}
	rec := &stubReconciler{j: j, cancelResult: calendar.CancelResult{Deleted: []string{"evt-1", "evt-2"}}}
	svc, _ := newTestService(repo, rec)

	if _, err := svc.SaveReview(context.Background(), testVendor, testNumber, transport.UpdateQuoteRequest{Status: "perdida"}); err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	updateAt, cancelAt := -1, -1
	for i, op := range j.ops {
		switch op {
		case "update":
			updateAt = i
		case "cancel":
			cancelAt = i
		}
	}
	if updateAt == -1 || cancelAt == -1 || updateAt > cancelAt {
		t.Fatalf("expected status write before cancel, ops=%v", j.ops)
	}
}

func TestSaveReviewPartialCancelFailureKeepsRefsAndStatus(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, twoRefs())}
	rec := &stubReconciler{j: j, cancelResult: calendar.CancelResult{
		Deleted: []string{"evt-1"},
		Failed:  []calendar.CancelFailure{{EventID: "evt-2", Status: 500, Reason: "backend error"}},
	}}
	svc, bus := newTestService(repo, rec)

	_, err := svc.SaveReview(context.Background(), testVendor, testNumber, transport.UpdateQuoteRequest{Status: "cerrada"})
	if !apperr.Is(err, apperr.KindRemoteFailed) {
		t.Fatalf("expected remote reconciliation failure, got %v", err)
	}

	if repo.stored.Status != domain.StatusCerrada {
		t.Fatalf("expected status persisted despite failure, got %q", repo.stored.Status)
	}
	if repo.clearCount != 0 {
		t.Fatalf("expected refs preserved (not half-cleared), clears=%d", repo.clearCount)
	}
	if len(repo.stored.Events) != 2 {
		t.Fatalf("expected both refs still stored, got %d", len(repo.stored.Events))
	}

	var sawFailure bool
	for _, evt := range bus.published {
		if _, ok := evt.(events.ReconciliationFailed); ok {
			sawFailure = true
		}
	}
	if !sawFailure {
		t.Fatalf("expected ReconciliationFailed to be published")
	}
}

func TestSaveReviewNonTerminalStatusLeavesCalendarAlone(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, twoRefs())}
	rec := &stubReconciler{j: j}
	svc, _ := newTestService(repo, rec)

	resp, err := svc.SaveReview(context.Background(), testVendor, testNumber, transport.UpdateQuoteRequest{Status: "contactado"})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if len(rec.cancelled) != 0 {
		t.Fatalf("expected no cancellation for non-terminal status, got %v", rec.cancelled)
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected refs untouched, got %d", len(resp.Events))
	}
}

func TestSaveReviewTerminalWithoutEventsStillSucceeds(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusContactado, nil)}
	rec := &stubReconciler{j: j}
	svc, _ := newTestService(repo, rec)

	resp, err := svc.SaveReview(context.Background(), testVendor, testNumber, transport.UpdateQuoteRequest{Status: "perdida"})
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if len(rec.cancelled) != 0 {
		t.Fatalf("expected no remote calls without refs, got %v", rec.cancelled)
	}
	if repo.clearCount != 1 {
		t.Fatalf("expected the empty list to be cleared anyway, clears=%d", repo.clearCount)
	}
	if resp.Status != "perdida" {
		t.Fatalf("expected status perdida, got %q", resp.Status)
	}
}

func TestSaveReviewRejectsUnknownStatus(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, nil)}
	svc, _ := newTestService(repo, &stubReconciler{j: j})

	_, err := svc.SaveReview(context.Background(), testVendor, testNumber, transport.UpdateQuoteRequest{Status: "ganada"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updateSeen {
		t.Fatalf("expected no write for invalid status")
	}
}

func TestCancelRemindersKeepsStatusAndClearsRefs(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusInteresado, twoRefs())}
	rec := &stubReconciler{j: j, cancelResult: calendar.CancelResult{Deleted: []string{"evt-1", "evt-2"}}}
	svc, _ := newTestService(repo, rec)

	resp, err := svc.CancelReminders(context.Background(), testVendor, testNumber)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if len(resp.Deleted) != 2 || len(resp.Failed) != 0 {
		t.Fatalf("unexpected cancel response: %+v", resp)
	}
	if repo.stored.Status != domain.StatusInteresado {
		t.Fatalf("expected status untouched, got %q", repo.stored.Status)
	}
	if repo.updateSeen {
		t.Fatalf("manual cancel must not write the status")
	}
	if repo.clearCount != 1 {
		t.Fatalf("expected refs cleared, clears=%d", repo.clearCount)
	}
}

func TestCancelRemindersCredentialFailureKeepsRefs(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, twoRefs())}
	rec := &stubReconciler{j: j, cancelErr: apperr.CredentialUnavailable("vendor has no connected calendar")}
	svc, _ := newTestService(repo, rec)

	_, err := svc.CancelReminders(context.Background(), testVendor, testNumber)
	if !apperr.Is(err, apperr.KindCredentialUnavailable) {
		t.Fatalf("expected credential unavailable, got %v", err)
	}
	if repo.clearCount != 0 {
		t.Fatalf("expected refs preserved, clears=%d", repo.clearCount)
	}
}

type stubLinker struct {
	url  string
	err  error
	seen []string
}

func (l *stubLinker) DocumentURL(ctx context.Context, vendorID, contentHash string) (string, error) {
	l.seen = append(l.seen, vendorID+"/"+contentHash)
	if l.err != nil {
		return "", l.err
	}
	return l.url, nil
}

func TestDocumentLinkReturnsPresignedURLForStoredHash(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, nil)}
	svc, _ := newTestService(repo, &stubReconciler{j: j})
	linker := &stubLinker{url: "https://archive/doc"}
	svc.SetDocumentLinker(linker)

	url, err := svc.DocumentLink(context.Background(), testVendor, testNumber)
	if err != nil {
		t.Fatalf(msgUnexpectedErr, err)
	}

	if url != "https://archive/doc" {
		t.Fatalf("unexpected url %q", url)
	}
	if len(linker.seen) != 1 || linker.seen[0] != testVendor+"/abc123" {
		t.Fatalf("expected link for stored content hash, got %v", linker.seen)
	}
}

func TestDocumentLinkWithoutArchiveConfiguredIsNotFound(t *testing.T) {
	j := &journal{}
	repo := &stubRepo{j: j, stored: storedQuote(domain.StatusPendiente, nil)}
	svc, _ := newTestService(repo, &stubReconciler{j: j})

	_, err := svc.DocumentLink(context.Background(), testVendor, testNumber)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found without an archive, got %v", err)
	}
}
