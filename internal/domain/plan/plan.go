package plan

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a flat payment plan
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid checks if the status is a valid plan Status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// MilestoneStatus represents the status of a single milestone
type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "PENDING"
	MilestoneTriggered MilestoneStatus = "TRIGGERED"
	MilestonePaid      MilestoneStatus = "PAID"
	// MilestoneOverdue is declared for a future scheduling extension.
	// No transition into it exists in this subsystem.
	MilestoneOverdue MilestoneStatus = "OVERDUE"
)

// IsValid checks if the status is a valid MilestoneStatus
func (s MilestoneStatus) IsValid() bool {
	switch s {
	case MilestonePending, MilestoneTriggered, MilestonePaid, MilestoneOverdue:
		return true
	}
	return false
}

// String returns the string representation of MilestoneStatus
func (s MilestoneStatus) String() string {
	return string(s)
}

// Milestone is one scheduled payment obligation within a plan.
// It is a value object embedded in the FlatPaymentPlan aggregate and
// stored as JSONB. Amounts are fixed at plan creation and never recomputed.
type Milestone struct {
	Sequence          int                 `json:"sequence"`
	Name              string              `json:"name"`
	Description       string              `json:"description,omitempty"`
	ConstructionPhase *construction.Phase `json:"construction_phase,omitempty"`
	PhasePercentage   *decimal.Decimal    `json:"phase_percentage,omitempty"`
	Amount            decimal.Decimal     `json:"amount"`
	Status            MilestoneStatus     `json:"status"`
	DemandDraftID     *uuid.UUID          `json:"demand_draft_id,omitempty"`
	PaymentID         *uuid.UUID          `json:"payment_id,omitempty"`
	TriggeredAt       *time.Time          `json:"triggered_at,omitempty"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
}

// Threshold returns the phase-progress threshold, defaulting to 100
func (m *Milestone) Threshold() decimal.Decimal {
	if m.PhasePercentage == nil {
		return decimal.NewFromInt(100)
	}
	return *m.PhasePercentage
}

// IsManual returns true for phase-less milestones, which are never
// auto-triggered by construction progress
func (m *Milestone) IsManual() bool {
	return m.ConstructionPhase == nil
}

// QualifiesForTrigger is the single triggering predicate shared by the
// synchronous orchestrator and the reconciliation scanner: the milestone is
// PENDING, gated on the reported phase, and the reported progress has
// reached its threshold.
func (m *Milestone) QualifiesForTrigger(phase construction.Phase, phaseProgress decimal.Decimal) bool {
	if m.Status != MilestonePending || m.IsManual() {
		return false
	}
	if *m.ConstructionPhase != phase {
		return false
	}
	return phaseProgress.GreaterThanOrEqual(m.Threshold())
}

// IsPaid returns true if the milestone has been settled
func (m *Milestone) IsPaid() bool {
	return m.Status == MilestonePaid
}

// Milestones is the ordered milestone list stored as JSONB
type Milestones []Milestone

// Value implements driver.Valuer for JSONB storage
func (m Milestones) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner for JSONB storage
func (m *Milestones) Scan(value interface{}) error {
	if value == nil {
		*m = Milestones{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan Milestones: unsupported type")
	}
	if len(bytes) == 0 {
		*m = Milestones{}
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// FlatPaymentPlan is the per-sale instantiation of a payment plan template
// against a specific flat, booking and customer. It is the aggregate root
// owning the milestone list and the running paid/balance totals; every
// mutation rewrites the full milestone collection and recomputes totals
// from it, never incrementally.
type FlatPaymentPlan struct {
	shared.BaseAggregateRoot
	PlanNumber    string          `json:"plan_number"`
	FlatID        uuid.UUID       `json:"flat_id"`
	BookingID     uuid.UUID       `json:"booking_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	TemplateID    uuid.UUID       `json:"template_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount"`
	Milestones    Milestones      `json:"milestones"`
	Status        Status          `json:"status"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// NewFlatPaymentPlan materializes a plan from a template. Each milestone
// amount is the template percentage applied to the total; the last
// milestone absorbs the rounding remainder so amounts sum exactly to the
// total.
func NewFlatPaymentPlan(
	planNumber string,
	flatID, bookingID, customerID uuid.UUID,
	template *Template,
	totalAmount valueobject.Money,
) (*FlatPaymentPlan, error) {
	if planNumber == "" {
		return nil, shared.NewDomainError("INVALID_PLAN_NUMBER", "Plan number cannot be empty")
	}
	if flatID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FLAT", "Flat ID cannot be empty")
	}
	if bookingID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BOOKING", "Booking ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if template == nil {
		return nil, shared.NewDomainError("INVALID_TEMPLATE", "Template is required")
	}
	if !template.Active {
		return nil, shared.NewDomainError("TEMPLATE_INACTIVE", "Template has been deactivated")
	}
	if !totalAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}

	total := totalAmount.Amount()
	milestones := make(Milestones, 0, len(template.Blueprints))
	allocated := decimal.Zero
	for i, bp := range template.Blueprints {
		amount := total.Mul(bp.Percentage).Div(decimal.NewFromInt(100)).Round(2)
		if i == len(template.Blueprints)-1 {
			amount = total.Sub(allocated)
		}
		allocated = allocated.Add(amount)

		milestones = append(milestones, Milestone{
			Sequence:          bp.Sequence,
			Name:              bp.Name,
			Description:       bp.Description,
			ConstructionPhase: bp.ConstructionPhase,
			PhasePercentage:   bp.PhasePercentage,
			Amount:            amount,
			Status:            MilestonePending,
		})
	}

	p := &FlatPaymentPlan{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PlanNumber:        planNumber,
		FlatID:            flatID,
		BookingID:         bookingID,
		CustomerID:        customerID,
		TemplateID:        template.ID,
		TotalAmount:       total,
		PaidAmount:        decimal.Zero,
		BalanceAmount:     total,
		Milestones:        milestones,
		Status:            StatusActive,
	}

	p.AddDomainEvent(NewPlanCreatedEvent(p))

	return p, nil
}

// Milestone returns the milestone with the given sequence
func (p *FlatPaymentPlan) Milestone(sequence int) (*Milestone, error) {
	for i := range p.Milestones {
		if p.Milestones[i].Sequence == sequence {
			return &p.Milestones[i], nil
		}
	}
	return nil, shared.ErrMilestoneNotFound
}

// MilestoneByName returns the first milestone matching the given name
func (p *FlatPaymentPlan) MilestoneByName(name string) (*Milestone, bool) {
	for i := range p.Milestones {
		if p.Milestones[i].Name == name {
			return &p.Milestones[i], true
		}
	}
	return nil, false
}

// IsActive returns true if the plan is still active
func (p *FlatPaymentPlan) IsActive() bool {
	return p.Status == StatusActive
}

// ApplyProgress flips every PENDING milestone gated on the reported phase
// whose threshold the reported progress has reached, and returns the newly
// triggered milestones. Phase-less milestones are never flipped here.
// A milestone already TRIGGERED or PAID is left untouched, so repeated
// progress reports at or above the threshold trigger at most once.
func (p *FlatPaymentPlan) ApplyProgress(phase construction.Phase, phaseProgress decimal.Decimal) ([]*Milestone, error) {
	if p.Status == StatusCancelled {
		return nil, shared.ErrPlanCancelled
	}

	var triggered []*Milestone
	now := time.Now()
	for i := range p.Milestones {
		m := &p.Milestones[i]
		if !m.QualifiesForTrigger(phase, phaseProgress) {
			continue
		}
		m.Status = MilestoneTriggered
		m.TriggeredAt = &now
		triggered = append(triggered, m)
		p.AddDomainEvent(NewMilestoneTriggeredEvent(p, m))
	}

	if len(triggered) > 0 {
		p.Touch()
		p.IncrementVersion()
	}
	return triggered, nil
}

// TriggerMilestone flips a single milestone to TRIGGERED regardless of
// construction thresholds. This is the manual trigger path for phase-less
// milestones and operator overrides. Triggering an already TRIGGERED
// milestone is a no-op.
func (p *FlatPaymentPlan) TriggerMilestone(sequence int) (*Milestone, error) {
	if p.Status == StatusCancelled {
		return nil, shared.ErrPlanCancelled
	}
	m, err := p.Milestone(sequence)
	if err != nil {
		return nil, err
	}
	switch m.Status {
	case MilestoneTriggered:
		return m, nil
	case MilestonePaid:
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Milestone %d is already paid", sequence))
	}

	now := time.Now()
	m.Status = MilestoneTriggered
	m.TriggeredAt = &now
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewMilestoneTriggeredEvent(p, m))
	return m, nil
}

// AttachDraft links a generated demand draft to a milestone
func (p *FlatPaymentPlan) AttachDraft(sequence int, draftID uuid.UUID) error {
	m, err := p.Milestone(sequence)
	if err != nil {
		return err
	}
	m.DemandDraftID = &draftID
	p.Touch()
	return nil
}

// MarkMilestonePaid settles a TRIGGERED milestone with the payment that
// closed it, recomputes the plan totals from the full milestone set and
// completes the plan when every milestone is paid.
func (p *FlatPaymentPlan) MarkMilestonePaid(sequence int, paymentID uuid.UUID) error {
	if p.Status == StatusCancelled {
		return shared.ErrPlanCancelled
	}
	m, err := p.Milestone(sequence)
	if err != nil {
		return err
	}
	if m.Status == MilestonePaid {
		return shared.NewDomainError("ALREADY_PAID",
			fmt.Sprintf("Milestone %d is already paid", sequence))
	}
	if m.Status != MilestoneTriggered {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Milestone %d must be triggered before it can be paid, currently %s", sequence, m.Status))
	}

	now := time.Now()
	m.Status = MilestonePaid
	m.PaymentID = &paymentID
	m.CompletedAt = &now

	p.recalculateTotals()
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewMilestonePaidEvent(p, m))
	if p.Status == StatusCompleted {
		p.AddDomainEvent(NewPlanCompletedEvent(p))
	}
	return nil
}

// MilestoneUpdate is a partial update merged into a milestone
type MilestoneUpdate struct {
	Name          *string
	Description   *string
	Status        *MilestoneStatus
	DemandDraftID *uuid.UUID
	PaymentID     *uuid.UUID
	CompletedAt   *time.Time
}

// UpdateMilestone merges a partial update into the matching milestone and
// recomputes paid/balance from the full milestone set.
func (p *FlatPaymentPlan) UpdateMilestone(sequence int, update MilestoneUpdate) error {
	if p.Status == StatusCancelled {
		return shared.ErrPlanCancelled
	}
	m, err := p.Milestone(sequence)
	if err != nil {
		return err
	}

	if update.Name != nil {
		m.Name = *update.Name
	}
	if update.Description != nil {
		m.Description = *update.Description
	}
	if update.Status != nil {
		if !update.Status.IsValid() {
			return shared.NewDomainError("INVALID_STATUS",
				fmt.Sprintf("Unknown milestone status %q", *update.Status))
		}
		m.Status = *update.Status
		if m.Status == MilestonePaid && m.CompletedAt == nil && update.CompletedAt == nil {
			now := time.Now()
			m.CompletedAt = &now
		}
	}
	if update.DemandDraftID != nil {
		m.DemandDraftID = update.DemandDraftID
	}
	if update.PaymentID != nil {
		m.PaymentID = update.PaymentID
	}
	if update.CompletedAt != nil {
		m.CompletedAt = update.CompletedAt
	}

	p.recalculateTotals()
	p.Touch()
	p.IncrementVersion()
	return nil
}

// Cancel marks the plan cancelled. This is a plan-level flag, not a
// rollback: milestone states are left untouched but frozen against
// further transitions.
func (p *FlatPaymentPlan) Cancel() error {
	if p.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Plan is already cancelled")
	}
	now := time.Now()
	p.Status = StatusCancelled
	p.CancelledAt = &now
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewPlanCancelledEvent(p))
	return nil
}

// recalculateTotals derives paidAmount and balanceAmount from the full
// milestone set and moves the plan to COMPLETED exactly when every
// milestone is paid.
func (p *FlatPaymentPlan) recalculateTotals() {
	paid := decimal.Zero
	allPaid := len(p.Milestones) > 0
	for i := range p.Milestones {
		if p.Milestones[i].IsPaid() {
			paid = paid.Add(p.Milestones[i].Amount)
		} else {
			allPaid = false
		}
	}
	p.PaidAmount = paid
	p.BalanceAmount = p.TotalAmount.Sub(paid)

	if allPaid && p.Status == StatusActive {
		now := time.Now()
		p.Status = StatusCompleted
		p.CompletedAt = &now
	}
}

// MilestoneAmountsConsistent reports whether milestone amounts still sum
// to the plan total. The sum is a construction-time invariant that adjacent
// amount-edit flows can silently break; this is the observation hook.
func (p *FlatPaymentPlan) MilestoneAmountsConsistent() bool {
	sum := decimal.Zero
	for i := range p.Milestones {
		sum = sum.Add(p.Milestones[i].Amount)
	}
	return sum.Equal(p.TotalAmount)
}

// GetTotalAmountMoney returns total amount as Money
func (p *FlatPaymentPlan) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.TotalAmount)
}

// GetPaidAmountMoney returns paid amount as Money
func (p *FlatPaymentPlan) GetPaidAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.PaidAmount)
}

// GetBalanceAmountMoney returns balance amount as Money
func (p *FlatPaymentPlan) GetBalanceAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(p.BalanceAmount)
}
