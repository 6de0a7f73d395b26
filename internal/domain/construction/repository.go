package construction

import (
	"context"

	"github.com/google/uuid"
)

// ProgressRepository defines the interface for construction progress persistence
type ProgressRepository interface {
	// FindByFlatAndPhase finds the progress record for a flat and phase
	FindByFlatAndPhase(ctx context.Context, flatID uuid.UUID, phase Phase) (*Progress, error)

	// FindByFlat finds all progress records for a flat, in phase order
	FindByFlat(ctx context.Context, flatID uuid.UUID) ([]Progress, error)

	// Save creates or updates a progress record
	Save(ctx context.Context, progress *Progress) error

	// SaveAll persists a batch of progress records
	SaveAll(ctx context.Context, records []*Progress) error

	// DeleteByFlat removes all progress records for a flat
	DeleteByFlat(ctx context.Context, flatID uuid.UUID) error
}
