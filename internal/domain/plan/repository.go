package plan

import (
	"context"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/shared"
)

// Filter defines filtering options for plan queries
type Filter struct {
	shared.Filter
	FlatID     *uuid.UUID
	BookingID  *uuid.UUID
	CustomerID *uuid.UUID
	Status     *Status
}

// Repository defines the interface for flat payment plan persistence.
// Save/SaveWithLock always rewrite the full aggregate including the
// embedded milestone list.
type Repository interface {
	// FindByID finds a plan by ID
	FindByID(ctx context.Context, id uuid.UUID) (*FlatPaymentPlan, error)

	// FindActiveByFlat finds the ACTIVE plan for a flat, if any
	FindActiveByFlat(ctx context.Context, flatID uuid.UUID) (*FlatPaymentPlan, error)

	// FindByFlatAndBooking finds the plan for a (flat, booking) pair
	FindByFlatAndBooking(ctx context.Context, flatID, bookingID uuid.UUID) (*FlatPaymentPlan, error)

	// FindAllActive finds every ACTIVE plan (portfolio sweep)
	FindAllActive(ctx context.Context) ([]FlatPaymentPlan, error)

	// FindAll finds plans matching the filter
	FindAll(ctx context.Context, filter Filter) ([]FlatPaymentPlan, error)

	// ExistsForBooking checks whether a plan already exists for the
	// (flat, booking) pair
	ExistsForBooking(ctx context.Context, flatID, bookingID uuid.UUID) (bool, error)

	// Save creates or updates a plan
	Save(ctx context.Context, p *FlatPaymentPlan) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, p *FlatPaymentPlan) error

	// Count counts plans matching the filter
	Count(ctx context.Context, filter Filter) (int64, error)

	// GeneratePlanNumber generates a unique plan number
	GeneratePlanNumber(ctx context.Context) (string, error)
}

// TemplateRepository defines the interface for payment plan template persistence
type TemplateRepository interface {
	// FindByID finds a template by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)

	// FindAllActive finds all active templates
	FindAllActive(ctx context.Context) ([]Template, error)

	// Save creates or updates a template
	Save(ctx context.Context, t *Template) error
}

// DemandDraftRepository defines the interface for demand draft persistence
type DemandDraftRepository interface {
	// FindByID finds a draft by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DemandDraft, error)

	// FindByMilestone finds the draft for a (flat, milestone sequence) pair
	FindByMilestone(ctx context.Context, flatID uuid.UUID, sequence int) (*DemandDraft, error)

	// FindByFlat finds all drafts for a flat
	FindByFlat(ctx context.Context, flatID uuid.UUID) ([]DemandDraft, error)

	// ExistsByMilestone checks whether a draft exists for the
	// (flat, milestone sequence) pair
	ExistsByMilestone(ctx context.Context, flatID uuid.UUID, sequence int) (bool, error)

	// CreateIfAbsent inserts the draft unless one already exists for its
	// (flat, milestone sequence) pair. The insert is atomic at the storage
	// layer; it returns false when a concurrent or earlier draft won.
	CreateIfAbsent(ctx context.Context, d *DemandDraft) (bool, error)

	// Save updates an existing draft
	Save(ctx context.Context, d *DemandDraft) error

	// GenerateDraftNumber generates a unique draft number
	GenerateDraftNumber(ctx context.Context) (string, error)
}
