package sales

import (
	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Flat is the unit record. Beyond its directory fields it carries a
// denormalized snapshot of the current construction state, pushed
// best-effort by the workflow orchestrator after each progress write.
type Flat struct {
	shared.BaseEntity
	Number          string              `json:"number"`
	Tower           string              `json:"tower"`
	Floor           int                 `json:"floor"`
	SalePrice       decimal.Decimal     `json:"sale_price"`
	BookingID       *uuid.UUID          `json:"booking_id,omitempty"`
	CustomerID      *uuid.UUID          `json:"customer_id,omitempty"`
	CurrentPhase    *construction.Phase `json:"current_phase,omitempty"`
	OverallProgress decimal.Decimal     `json:"overall_progress"`
}

// NewFlat creates a flat directory record
func NewFlat(number, tower string, floor int, salePrice decimal.Decimal) (*Flat, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_FLAT_NUMBER", "Flat number cannot be empty")
	}
	return &Flat{
		BaseEntity:      shared.NewBaseEntity(),
		Number:          number,
		Tower:           tower,
		Floor:           floor,
		SalePrice:       salePrice,
		OverallProgress: decimal.Zero,
	}, nil
}

// AssignBooking links the flat to its sale
func (f *Flat) AssignBooking(bookingID, customerID uuid.UUID) {
	f.BookingID = &bookingID
	f.CustomerID = &customerID
	f.Touch()
}

// UpdateConstructionState pushes the latest reported phase and overall
// progress onto the flat record
func (f *Flat) UpdateConstructionState(phase construction.Phase, overallProgress decimal.Decimal) {
	f.CurrentPhase = &phase
	f.OverallProgress = overallProgress
	f.Touch()
}

// IsSold returns true once a booking is attached
func (f *Flat) IsSold() bool {
	return f.BookingID != nil
}
