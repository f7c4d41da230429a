// Package adapters wires narrow cross-module interfaces so domain modules
// stay decoupled from each other.
package adapters

import (
	"context"

	postventasvc "portal_ventas_backend/internal/postventas/service"
	quotesrepo "portal_ventas_backend/internal/quotes/repository"
)

// PostventaQuoteReader adapts the quotes repository to the lookup the
// postventa-from-quote flow needs. It implements postventas/service.QuoteReader.
type PostventaQuoteReader struct {
	quotes quotesrepo.QuoteRepository
}

// NewPostventaQuoteReader creates a new quote reader adapter.
func NewPostventaQuoteReader(quotes quotesrepo.QuoteRepository) *PostventaQuoteReader {
	return &PostventaQuoteReader{quotes: quotes}
}

// QuoteInfo returns the status and extracted client fields for one quote.
func (a *PostventaQuoteReader) QuoteInfo(ctx context.Context, vendorID, quoteNumber string) (*postventasvc.QuoteInfo, error) {
	q, err := a.quotes.GetByNumber(ctx, vendorID, quoteNumber)
	if err != nil {
		return nil, err
	}

	return &postventasvc.QuoteInfo{
		QuoteNumber: q.QuoteNumber,
		Status:      string(q.Status),
		ClientName:  q.Extracted.ClientName,
		IssueDate:   q.Extracted.IssueDate,
	}, nil
}

// Compile-time check that PostventaQuoteReader implements postventas/service.QuoteReader.
var _ postventasvc.QuoteReader = (*PostventaQuoteReader)(nil)
