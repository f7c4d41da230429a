package repository

import (
	"context"

	"portal_ventas_backend/internal/quotes/domain"
)

// QuoteRepository defines the interface for quote data operations.
// This allows services to depend on an abstraction rather than concrete implementation,
// improving testability and modularity.
type QuoteRepository interface {
	Insert(ctx context.Context, q *Quote) error
	FindExisting(ctx context.Context, vendorID, quoteNumber, contentHash string) (*Quote, error)
	GetByNumber(ctx context.Context, vendorID, quoteNumber string) (*Quote, error)
	List(ctx context.Context, vendorID string, params ListParams) ([]Quote, error)
	UpdateReview(ctx context.Context, vendorID, quoteNumber, summary, notes string, status domain.Status) error
	ClearEvents(ctx context.Context, vendorID, quoteNumber string) error
}

// Ensure Repository implements QuoteRepository
var _ QuoteRepository = (*Repository)(nil)
