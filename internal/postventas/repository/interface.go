package repository

import (
	"context"

	"portal_ventas_backend/internal/postventas/domain"
)

// PostventaRepository defines the persistence contract for postventas.
// The service layer depends on this interface so storage can be faked in tests.
type PostventaRepository interface {
	Insert(ctx context.Context, p *Postventa) error
	GetByID(ctx context.Context, vendorID string, id int64) (*Postventa, error)
	List(ctx context.Context, vendorID string, params ListParams) ([]Postventa, error)
	UpdateStatus(ctx context.Context, vendorID string, id int64, status domain.Status) error
	ClearEvent(ctx context.Context, vendorID string, id int64) error
}

// Compile-time check that Repository implements PostventaRepository.
var _ PostventaRepository = (*Repository)(nil)
