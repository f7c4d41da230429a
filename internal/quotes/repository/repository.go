package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portal_ventas_backend/internal/calendar"
	"portal_ventas_backend/internal/extract"
	"portal_ventas_backend/internal/quotes/domain"
	"portal_ventas_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Quote is the database model for an ingested quote. Extracted and Events
// live in jsonb columns; (de)serialization stays inside this package so
// callers always see typed values.
type Quote struct {
	ID          int64
	VendorID    string
	QuoteNumber string
	ContentHash string
	Extracted   extract.Fields
	Events      []calendar.EventRef
	Summary     string
	Notes       string
	Status      domain.Status
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ListParams filters a vendor's quote listing.
type ListParams struct {
	Status string
	Limit  int
}

const quoteNotFoundMsg = "quote not found"

const quoteColumns = `id, vendor_id, quote_number, content_hash, extracted, events, summary, notes, status, created_at, updated_at`

// Repository provides database operations for quotes. Every mutating
// operation is a single SQL statement: remote calendar latency must never
// hold a local transaction open.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a freshly ingested quote and fills in the generated id and
// creation timestamp. A concurrent duplicate surfaces as apperr.Conflict so
// the caller can fall back to the dedup path.
func (r *Repository) Insert(ctx context.Context, q *Quote) error {
	if q.Events == nil {
		q.Events = []calendar.EventRef{}
	}

	query := `
		INSERT INTO quotes (vendor_id, quote_number, content_hash, extracted, events, summary, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		q.VendorID, q.QuoteNumber, q.ContentHash, q.Extracted, q.Events, q.Summary, q.Notes, q.Status,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("quote already exists for this vendor")
		}
		return fmt.Errorf("insert quote: %w", err)
	}
	return nil
}

// FindExisting is the dedup guard lookup: the newest quote matching either
// the quote number or the content hash, scoped to the vendor. Returns nil
// when the submission is fresh.
func (r *Repository) FindExisting(ctx context.Context, vendorID, quoteNumber, contentHash string) (*Quote, error) {
	query := `
		SELECT ` + quoteColumns + `
		FROM quotes
		WHERE vendor_id = $1 AND (quote_number = $2 OR content_hash = $3)
		ORDER BY id DESC
		LIMIT 1`

	q, err := scanQuote(r.pool.QueryRow(ctx, query, vendorID, quoteNumber, contentHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find existing quote: %w", err)
	}
	return q, nil
}

// GetByNumber retrieves a quote by its number scoped to the vendor.
func (r *Repository) GetByNumber(ctx context.Context, vendorID, quoteNumber string) (*Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE vendor_id = $1 AND quote_number = $2`

	q, err := scanQuote(r.pool.QueryRow(ctx, query, vendorID, quoteNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("get quote: %w", err)
	}
	return q, nil
}

// List retrieves a vendor's quotes, newest first, optionally filtered by
// status.
func (r *Repository) List(ctx context.Context, vendorID string, params ListParams) ([]Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE vendor_id = $1`
	args := []any{vendorID}

	if params.Status != "" {
		query += ` AND status = $2`
		args = append(args, params.Status)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if params.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, params.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotes: %w", err)
	}
	return quotes, nil
}

// UpdateReview persists the vendor's edit of summary, notes and status in one
// statement. The status write never waits on, or is rolled back by, a remote
// calendar call.
func (r *Repository) UpdateReview(ctx context.Context, vendorID, quoteNumber, summary, notes string, status domain.Status) error {
	query := `
		UPDATE quotes
		SET summary = $3, notes = $4, status = $5, updated_at = $6
		WHERE vendor_id = $1 AND quote_number = $2`

	result, err := r.pool.Exec(ctx, query, vendorID, quoteNumber, summary, notes, status, time.Now())
	if err != nil {
		return fmt.Errorf("update quote review: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

// ClearEvents empties the stored event references. Only a fully successful
// cancellation batch reaches this statement; partial failures keep the refs
// so a retry can finish the job.
func (r *Repository) ClearEvents(ctx context.Context, vendorID, quoteNumber string) error {
	query := `UPDATE quotes SET events = '[]'::jsonb, updated_at = $3 WHERE vendor_id = $1 AND quote_number = $2`

	result, err := r.pool.Exec(ctx, query, vendorID, quoteNumber, time.Now())
	if err != nil {
		return fmt.Errorf("clear quote events: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(quoteNotFoundMsg)
	}
	return nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	if err := row.Scan(
		&q.ID, &q.VendorID, &q.QuoteNumber, &q.ContentHash, &q.Extracted, &q.Events,
		&q.Summary, &q.Notes, &q.Status, &q.CreatedAt, &q.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if q.Events == nil {
		q.Events = []calendar.EventRef{}
	}
	return &q, nil
}
