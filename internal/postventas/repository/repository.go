// Package repository provides Postgres persistence for postventas.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portal_ventas_backend/internal/postventas/domain"
	"portal_ventas_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postventaNotFoundMsg = "postventa not found"

const postventaColumns = `id, vendor_id, client_name, phone, sale_date, postventa_date, type, notes, status, event_id, event_link, quote_number, created_at`

// Postventa is the persistence model for a service visit.
// SaleDate and PostventaDate are calendar days; SaleDate may be unknown.
type Postventa struct {
	ID            int64
	VendorID      string
	ClientName    string
	Phone         string
	SaleDate      *time.Time
	PostventaDate time.Time
	Type          string
	Notes         string
	Status        domain.Status
	EventID       string
	EventLink     string
	QuoteNumber   string
	CreatedAt     time.Time
}

// ListParams narrows List results.
type ListParams struct {
	Status string
	Limit  int
}

// Repository provides access to postventa storage
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new postventa repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new postventa and fills in its id and creation timestamp.
func (r *Repository) Insert(ctx context.Context, p *Postventa) error {
	query := `
		INSERT INTO postventas (vendor_id, client_name, phone, sale_date, postventa_date, type, notes, status, event_id, event_link, quote_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		p.VendorID, p.ClientName, p.Phone, p.SaleDate, p.PostventaDate,
		p.Type, p.Notes, p.Status, p.EventID, p.EventLink, p.QuoteNumber,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert postventa: %w", err)
	}

	return nil
}

// GetByID fetches one postventa scoped to its owning vendor.
func (r *Repository) GetByID(ctx context.Context, vendorID string, id int64) (*Postventa, error) {
	query := `SELECT ` + postventaColumns + ` FROM postventas WHERE vendor_id = $1 AND id = $2`

	p, err := scanPostventa(r.pool.QueryRow(ctx, query, vendorID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(postventaNotFoundMsg)
		}
		return nil, fmt.Errorf("get postventa: %w", err)
	}

	return p, nil
}

// List returns the vendor's postventas, newest first.
func (r *Repository) List(ctx context.Context, vendorID string, params ListParams) ([]Postventa, error) {
	query := `SELECT ` + postventaColumns + ` FROM postventas WHERE vendor_id = $1`
	args := []interface{}{vendorID}

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
		return nil, fmt.Errorf("list postventas: %w", err)
	}
	defer rows.Close()

	var items []Postventa
	for rows.Next() {
		p, err := scanPostventa(rows)
		if err != nil {
			return nil, fmt.Errorf("scan postventa: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postventas: %w", err)
	}

	return items, nil
}

// UpdateStatus persists a status transition on its own, independent of any
// remote reconciliation that may follow.
func (r *Repository) UpdateStatus(ctx context.Context, vendorID string, id int64, status domain.Status) error {
	query := `UPDATE postventas SET status = $3 WHERE vendor_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, vendorID, id, status)
	if err != nil {
		return fmt.Errorf("update postventa status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(postventaNotFoundMsg)
	}

	return nil
}

// ClearEvent drops the remote event reference after a confirmed cancellation.
func (r *Repository) ClearEvent(ctx context.Context, vendorID string, id int64) error {
	query := `UPDATE postventas SET event_id = '', event_link = '' WHERE vendor_id = $1 AND id = $2`

	tag, err := r.pool.Exec(ctx, query, vendorID, id)
	if err != nil {
		return fmt.Errorf("clear postventa event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(postventaNotFoundMsg)
	}

	return nil
}

func scanPostventa(row pgx.Row) (*Postventa, error) {
	var p Postventa
	err := row.Scan(
		&p.ID, &p.VendorID, &p.ClientName, &p.Phone, &p.SaleDate, &p.PostventaDate,
		&p.Type, &p.Notes, &p.Status, &p.EventID, &p.EventLink, &p.QuoteNumber, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
