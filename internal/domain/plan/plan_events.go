package plan

import (
	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names for the payment plan aggregate
const (
	EventTypePlanCreated        = "FlatPaymentPlanCreated"
	EventTypePlanCompleted      = "FlatPaymentPlanCompleted"
	EventTypePlanCancelled      = "FlatPaymentPlanCancelled"
	EventTypeMilestoneTriggered = "MilestoneTriggered"
	EventTypeMilestonePaid      = "MilestonePaid"
	EventTypeDraftGenerated     = "DemandDraftGenerated"
)

// PlanCreatedEvent is raised when a flat payment plan is instantiated
type PlanCreatedEvent struct {
	shared.BaseDomainEvent
	PlanID      uuid.UUID       `json:"plan_id"`
	PlanNumber  string          `json:"plan_number"`
	FlatID      uuid.UUID       `json:"flat_id"`
	BookingID   uuid.UUID       `json:"booking_id"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Milestones  int             `json:"milestones"`
}

// NewPlanCreatedEvent creates a new PlanCreatedEvent
func NewPlanCreatedEvent(p *FlatPaymentPlan) *PlanCreatedEvent {
	return &PlanCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCreated, "FlatPaymentPlan", p.ID),
		PlanID:          p.ID,
		PlanNumber:      p.PlanNumber,
		FlatID:          p.FlatID,
		BookingID:       p.BookingID,
		CustomerID:      p.CustomerID,
		TotalAmount:     p.TotalAmount,
		Milestones:      len(p.Milestones),
	}
}

// PlanCompletedEvent is raised when every milestone of a plan is paid
type PlanCompletedEvent struct {
	shared.BaseDomainEvent
	PlanID     uuid.UUID       `json:"plan_id"`
	PlanNumber string          `json:"plan_number"`
	FlatID     uuid.UUID       `json:"flat_id"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// NewPlanCompletedEvent creates a new PlanCompletedEvent
func NewPlanCompletedEvent(p *FlatPaymentPlan) *PlanCompletedEvent {
	return &PlanCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCompleted, "FlatPaymentPlan", p.ID),
		PlanID:          p.ID,
		PlanNumber:      p.PlanNumber,
		FlatID:          p.FlatID,
		PaidAmount:      p.PaidAmount,
	}
}

// PlanCancelledEvent is raised when a plan is cancelled
type PlanCancelledEvent struct {
	shared.BaseDomainEvent
	PlanID     uuid.UUID `json:"plan_id"`
	PlanNumber string    `json:"plan_number"`
	FlatID     uuid.UUID `json:"flat_id"`
}

// NewPlanCancelledEvent creates a new PlanCancelledEvent
func NewPlanCancelledEvent(p *FlatPaymentPlan) *PlanCancelledEvent {
	return &PlanCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePlanCancelled, "FlatPaymentPlan", p.ID),
		PlanID:          p.ID,
		PlanNumber:      p.PlanNumber,
		FlatID:          p.FlatID,
	}
}

// MilestoneTriggeredEvent is raised when a milestone moves PENDING -> TRIGGERED
type MilestoneTriggeredEvent struct {
	shared.BaseDomainEvent
	PlanID        uuid.UUID       `json:"plan_id"`
	FlatID        uuid.UUID       `json:"flat_id"`
	Sequence      int             `json:"sequence"`
	MilestoneName string          `json:"milestone_name"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewMilestoneTriggeredEvent creates a new MilestoneTriggeredEvent
func NewMilestoneTriggeredEvent(p *FlatPaymentPlan, m *Milestone) *MilestoneTriggeredEvent {
	return &MilestoneTriggeredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMilestoneTriggered, "FlatPaymentPlan", p.ID),
		PlanID:          p.ID,
		FlatID:          p.FlatID,
		Sequence:        m.Sequence,
		MilestoneName:   m.Name,
		Amount:          m.Amount,
	}
}

// MilestonePaidEvent is raised when a milestone is settled by a payment
type MilestonePaidEvent struct {
	shared.BaseDomainEvent
	PlanID        uuid.UUID       `json:"plan_id"`
	FlatID        uuid.UUID       `json:"flat_id"`
	Sequence      int             `json:"sequence"`
	MilestoneName string          `json:"milestone_name"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentID     *uuid.UUID      `json:"payment_id,omitempty"`
}

// NewMilestonePaidEvent creates a new MilestonePaidEvent
func NewMilestonePaidEvent(p *FlatPaymentPlan, m *Milestone) *MilestonePaidEvent {
	return &MilestonePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMilestonePaid, "FlatPaymentPlan", p.ID),
		PlanID:          p.ID,
		FlatID:          p.FlatID,
		Sequence:        m.Sequence,
		MilestoneName:   m.Name,
		Amount:          m.Amount,
		PaymentID:       m.PaymentID,
	}
}

// DraftGeneratedEvent is raised when a demand draft is created for a milestone
type DraftGeneratedEvent struct {
	shared.BaseDomainEvent
	DraftID       uuid.UUID       `json:"draft_id"`
	DraftNumber   string          `json:"draft_number"`
	PlanID        uuid.UUID       `json:"plan_id"`
	FlatID        uuid.UUID       `json:"flat_id"`
	Sequence      int             `json:"sequence"`
	Amount        decimal.Decimal `json:"amount"`
	AutoGenerated bool            `json:"auto_generated"`
}

// NewDraftGeneratedEvent creates a new DraftGeneratedEvent
func NewDraftGeneratedEvent(d *DemandDraft) *DraftGeneratedEvent {
	return &DraftGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDraftGenerated, "DemandDraft", d.ID),
		DraftID:         d.ID,
		DraftNumber:     d.DraftNumber,
		PlanID:          d.PlanID,
		FlatID:          d.FlatID,
		Sequence:        d.MilestoneSequence,
		Amount:          d.Amount,
		AutoGenerated:   d.AutoGenerated,
	}
}
