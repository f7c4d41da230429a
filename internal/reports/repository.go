// Package reports computes vendor KPIs, the monthly ranking and the merged
// admin listing over quotes and postventas.
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"portal_ventas_backend/internal/extract"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Window bounds a count query by creation time. From is inclusive, To is
// exclusive; a zero bound is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

// QuoteCounts holds per-status quote totals for one scope and window.
type QuoteCounts struct {
	Total      int `json:"total"`
	Pendiente  int `json:"pendiente"`
	Contactado int `json:"contactado"`
	Interesado int `json:"interesado"`
	Cerrada    int `json:"cerrada"`
	Perdida    int `json:"perdida"`
}

// PostventaCounts holds per-status postventa totals.
type PostventaCounts struct {
	Total     int `json:"total"`
	Pendiente int `json:"pendiente"`
	Realizada int `json:"realizada"`
	Cancelada int `json:"cancelada"`
}

// AdminFilter narrows the merged admin listing. From/To are inclusive
// calendar-day bounds already expanded to day start and day end.
type AdminFilter struct {
	VendorID string
	Status   string
	From     time.Time
	To       time.Time
	Limit    int
}

// AdminQuoteRow is the quote projection the admin listing reads.
type AdminQuoteRow struct {
	QuoteNumber string
	VendorID    string
	CreatedAt   time.Time
	Extracted   extract.Fields
	Summary     string
	Status      string
}

// AdminPostventaRow is the postventa projection the admin listing reads.
type AdminPostventaRow struct {
	ID          int64
	VendorID    string
	ClientName  string
	Type        string
	Status      string
	QuoteNumber string
	CreatedAt   time.Time
}

// Repository runs the aggregate queries for reporting
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new reports repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountQuotes tallies quotes by status. An empty vendorID counts the whole
// fleet.
func (r *Repository) CountQuotes(ctx context.Context, vendorID string, w Window) (QuoteCounts, error) {
	var counts QuoteCounts

	query := `SELECT COALESCE(status, 'pendiente'), COUNT(*) FROM quotes`
	query, args := appendCountFilters(query, vendorID, w)
	query += ` GROUP BY COALESCE(status, 'pendiente')`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("count quotes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan quote count: %w", err)
		}
		counts.Total += n
		switch status {
		case "pendiente":
			counts.Pendiente += n
		case "contactado":
			counts.Contactado += n
		case "interesado":
			counts.Interesado += n
		case "cerrada":
			counts.Cerrada += n
		case "perdida":
			counts.Perdida += n
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("iterate quote counts: %w", err)
	}

	return counts, nil
}

// CountPostventas tallies postventas by status. An empty vendorID counts the
// whole fleet.
func (r *Repository) CountPostventas(ctx context.Context, vendorID string, w Window) (PostventaCounts, error) {
	var counts PostventaCounts

	query := `SELECT COALESCE(status, 'pendiente'), COUNT(*) FROM postventas`
	query, args := appendCountFilters(query, vendorID, w)
	query += ` GROUP BY COALESCE(status, 'pendiente')`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return counts, fmt.Errorf("count postventas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return counts, fmt.Errorf("scan postventa count: %w", err)
		}
		counts.Total += n
		switch status {
		case "pendiente":
			counts.Pendiente += n
		case "realizada":
			counts.Realizada += n
		case "cancelada":
			counts.Cancelada += n
		}
	}
	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("iterate postventa counts: %w", err)
	}

	return counts, nil
}

// CountOpenQuotesBefore counts quotes created at or before cutoff whose
// status is still open. This is the stale-lead backlog signal.
func (r *Repository) CountOpenQuotesBefore(ctx context.Context, vendorID string, cutoff time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM quotes
		WHERE created_at <= $1
		  AND COALESCE(status, 'pendiente') NOT IN ('cerrada', 'perdida')`
	args := []interface{}{cutoff}

	if vendorID != "" {
		query += ` AND vendor_id = $2`
		args = append(args, vendorID)
	}

	var n int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count open quotes: %w", err)
	}

	return n, nil
}

// Vendors returns every vendor id seen across both tables, sorted.
func (r *Repository) Vendors(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT vendor_id FROM quotes
		UNION
		SELECT DISTINCT vendor_id FROM postventas
		ORDER BY vendor_id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		if v != "" {
			vendors = append(vendors, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendors: %w", err)
	}

	return vendors, nil
}

// AdminQuotes lists quotes across vendors for the admin panel, newest first.
func (r *Repository) AdminQuotes(ctx context.Context, f AdminFilter) ([]AdminQuoteRow, error) {
	query := `SELECT quote_number, vendor_id, created_at, extracted, summary, COALESCE(status, 'pendiente') FROM quotes`
	query, args := appendAdminFilters(query, f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admin quotes: %w", err)
	}
	defer rows.Close()

	var items []AdminQuoteRow
	for rows.Next() {
		var row AdminQuoteRow
		if err := rows.Scan(&row.QuoteNumber, &row.VendorID, &row.CreatedAt, &row.Extracted, &row.Summary, &row.Status); err != nil {
			return nil, fmt.Errorf("scan admin quote: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin quotes: %w", err)
	}

	return items, nil
}

// AdminPostventas lists postventas across vendors for the admin panel,
// newest first.
func (r *Repository) AdminPostventas(ctx context.Context, f AdminFilter) ([]AdminPostventaRow, error) {
	query := `SELECT id, vendor_id, client_name, type, COALESCE(status, 'pendiente'), quote_number, created_at FROM postventas`
	query, args := appendAdminFilters(query, f)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list admin postventas: %w", err)
	}
	defer rows.Close()

	var items []AdminPostventaRow
	for rows.Next() {
		var row AdminPostventaRow
		if err := rows.Scan(&row.ID, &row.VendorID, &row.ClientName, &row.Type, &row.Status, &row.QuoteNumber, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin postventa: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin postventas: %w", err)
	}

	return items, nil
}

func appendCountFilters(query, vendorID string, w Window) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if vendorID != "" {
		args = append(args, vendorID)
		conds = append(conds, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	if !w.From.IsZero() {
		args = append(args, w.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !w.To.IsZero() {
		args = append(args, w.To)
		conds = append(conds, fmt.Sprintf("created_at < $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query, args
}

func appendAdminFilters(query string, f AdminFilter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.VendorID != "" {
		args = append(args, f.VendorID)
		conds = append(conds, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("COALESCE(status, 'pendiente') = $%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		conds = append(conds, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		conds = append(conds, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAdminLimit
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	return query, args
}
