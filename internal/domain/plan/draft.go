package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DraftStatus represents the review status of a demand draft.
// Downstream review/approval states live outside this core.
type DraftStatus string

const (
	DraftStatusDraft DraftStatus = "DRAFT"
)

// IsValid checks if the status is a valid DraftStatus
func (s DraftStatus) IsValid() bool {
	return s == DraftStatusDraft
}

// DueDateOffset is the fixed offset from generation time to the draft due date
const DueDateOffset = 30 * 24 * time.Hour

// DemandDraft is the customer-facing payment request document generated
// once a milestone is triggered. At most one draft exists per
// (flat, milestone sequence); the guard is an atomic conditional insert at
// the storage layer, not an application-level read-then-write.
type DemandDraft struct {
	shared.BaseAggregateRoot
	DraftNumber       string          `json:"draft_number"`
	FlatID            uuid.UUID       `json:"flat_id"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	BookingID         uuid.UUID       `json:"booking_id"`
	PlanID            uuid.UUID       `json:"plan_id"`
	MilestoneSequence int             `json:"milestone_sequence"`
	MilestoneName     string          `json:"milestone_name"`
	Content           string          `json:"content"`
	Amount            decimal.Decimal `json:"amount"`
	DueDate           time.Time       `json:"due_date"`
	Status            DraftStatus     `json:"status"`
	AutoGenerated     bool            `json:"auto_generated"`
	RequiresReview    bool            `json:"requires_review"`
	TriggeredBy       *uuid.UUID      `json:"triggered_by,omitempty"` // actor for manual triggers
}

// NewDemandDraft creates a demand draft for a triggered milestone
func NewDemandDraft(
	draftNumber string,
	flatID, customerID, bookingID, planID uuid.UUID,
	milestone *Milestone,
	content string,
	autoGenerated bool,
) (*DemandDraft, error) {
	if draftNumber == "" {
		return nil, shared.NewDomainError("INVALID_DRAFT_NUMBER", "Draft number cannot be empty")
	}
	if flatID == uuid.Nil || planID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Flat ID and plan ID are required")
	}
	if milestone == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Milestone is required")
	}

	return &DemandDraft{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DraftNumber:       draftNumber,
		FlatID:            flatID,
		CustomerID:        customerID,
		BookingID:         bookingID,
		PlanID:            planID,
		MilestoneSequence: milestone.Sequence,
		MilestoneName:     milestone.Name,
		Content:           content,
		Amount:            milestone.Amount,
		DueDate:           time.Now().Add(DueDateOffset),
		Status:            DraftStatusDraft,
		AutoGenerated:     autoGenerated,
		RequiresReview:    true,
	}, nil
}

// SetTriggeredBy records the operator behind a manual trigger
func (d *DemandDraft) SetTriggeredBy(actorID uuid.UUID) {
	d.TriggeredBy = &actorID
	d.AutoGenerated = false
}
