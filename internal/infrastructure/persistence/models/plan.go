package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/shopspring/decimal"
)

// FlatPaymentPlanModel is the persistence model for the FlatPaymentPlan
// aggregate root. The milestone list is stored as a single JSONB column and
// always rewritten whole with the aggregate.
type FlatPaymentPlanModel struct {
	AggregateModel
	PlanNumber    string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	FlatID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_plan_flat_booking,priority:1"`
	BookingID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_plan_flat_booking,priority:2"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TemplateID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BalanceAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Milestones    plan.Milestones `gorm:"type:jsonb;default:'[]'"`
	Status        plan.Status     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CancelledAt   *time.Time
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (FlatPaymentPlanModel) TableName() string {
	return "flat_payment_plans"
}

// ToDomain converts the persistence model to a domain FlatPaymentPlan.
func (m *FlatPaymentPlanModel) ToDomain() *plan.FlatPaymentPlan {
	p := &plan.FlatPaymentPlan{
		PlanNumber:    m.PlanNumber,
		FlatID:        m.FlatID,
		BookingID:     m.BookingID,
		CustomerID:    m.CustomerID,
		TemplateID:    m.TemplateID,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		BalanceAmount: m.BalanceAmount,
		Milestones:    m.Milestones,
		Status:        m.Status,
		CancelledAt:   m.CancelledAt,
		CompletedAt:   m.CompletedAt,
	}
	m.PopulateAggregateRoot(&p.BaseAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain FlatPaymentPlan.
func (m *FlatPaymentPlanModel) FromDomain(p *plan.FlatPaymentPlan) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.PlanNumber = p.PlanNumber
	m.FlatID = p.FlatID
	m.BookingID = p.BookingID
	m.CustomerID = p.CustomerID
	m.TemplateID = p.TemplateID
	m.TotalAmount = p.TotalAmount
	m.PaidAmount = p.PaidAmount
	m.BalanceAmount = p.BalanceAmount
	m.Milestones = p.Milestones
	m.Status = p.Status
	m.CancelledAt = p.CancelledAt
	m.CompletedAt = p.CompletedAt
}

// FlatPaymentPlanModelFromDomain creates a new persistence model from a domain FlatPaymentPlan.
func FlatPaymentPlanModelFromDomain(p *plan.FlatPaymentPlan) *FlatPaymentPlanModel {
	m := &FlatPaymentPlanModel{}
	m.FromDomain(p)
	return m
}

// PlanTemplateModel is the persistence model for the payment plan Template.
type PlanTemplateModel struct {
	AggregateModel
	Name        string                   `gorm:"type:varchar(200);not null;uniqueIndex"`
	Description string                   `gorm:"type:text"`
	Blueprints  plan.MilestoneBlueprints `gorm:"type:jsonb;default:'[]'"`
	Active      bool                     `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (PlanTemplateModel) TableName() string {
	return "payment_plan_templates"
}

// ToDomain converts the persistence model to a domain Template.
func (m *PlanTemplateModel) ToDomain() *plan.Template {
	t := &plan.Template{
		Name:        m.Name,
		Description: m.Description,
		Blueprints:  m.Blueprints,
		Active:      m.Active,
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	return t
}

// FromDomain populates the persistence model from a domain Template.
func (m *PlanTemplateModel) FromDomain(t *plan.Template) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.Description = t.Description
	m.Blueprints = t.Blueprints
	m.Active = t.Active
}

// PlanTemplateModelFromDomain creates a new persistence model from a domain Template.
func PlanTemplateModelFromDomain(t *plan.Template) *PlanTemplateModel {
	m := &PlanTemplateModel{}
	m.FromDomain(t)
	return m
}

// DemandDraftModel is the persistence model for the DemandDraft aggregate.
// The unique index on (flat_id, milestone_sequence) is the storage-level
// guarantee that one milestone never produces two drafts.
type DemandDraftModel struct {
	AggregateModel
	DraftNumber       string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	FlatID            uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_draft_flat_milestone,priority:1"`
	MilestoneSequence int              `gorm:"not null;uniqueIndex:idx_draft_flat_milestone,priority:2"`
	CustomerID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	BookingID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	PlanID            uuid.UUID        `gorm:"type:uuid;not null;index"`
	MilestoneName     string           `gorm:"type:varchar(200);not null"`
	Content           string           `gorm:"type:text"`
	Amount            decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	DueDate           time.Time        `gorm:"not null;index"`
	Status            plan.DraftStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	AutoGenerated     bool             `gorm:"not null;default:false"`
	RequiresReview    bool             `gorm:"not null;default:true"`
	TriggeredBy       *uuid.UUID       `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DemandDraftModel) TableName() string {
	return "demand_drafts"
}

// ToDomain converts the persistence model to a domain DemandDraft.
func (m *DemandDraftModel) ToDomain() *plan.DemandDraft {
	d := &plan.DemandDraft{
		DraftNumber:       m.DraftNumber,
		FlatID:            m.FlatID,
		CustomerID:        m.CustomerID,
		BookingID:         m.BookingID,
		PlanID:            m.PlanID,
		MilestoneSequence: m.MilestoneSequence,
		MilestoneName:     m.MilestoneName,
		Content:           m.Content,
		Amount:            m.Amount,
		DueDate:           m.DueDate,
		Status:            m.Status,
		AutoGenerated:     m.AutoGenerated,
		RequiresReview:    m.RequiresReview,
		TriggeredBy:       m.TriggeredBy,
	}
	m.PopulateAggregateRoot(&d.BaseAggregateRoot)
	return d
}

// FromDomain populates the persistence model from a domain DemandDraft.
func (m *DemandDraftModel) FromDomain(d *plan.DemandDraft) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.DraftNumber = d.DraftNumber
	m.FlatID = d.FlatID
	m.CustomerID = d.CustomerID
	m.BookingID = d.BookingID
	m.PlanID = d.PlanID
	m.MilestoneSequence = d.MilestoneSequence
	m.MilestoneName = d.MilestoneName
	m.Content = d.Content
	m.Amount = d.Amount
	m.DueDate = d.DueDate
	m.Status = d.Status
	m.AutoGenerated = d.AutoGenerated
	m.RequiresReview = d.RequiresReview
	m.TriggeredBy = d.TriggeredBy
}

// DemandDraftModelFromDomain creates a new persistence model from a domain DemandDraft.
func DemandDraftModelFromDomain(d *plan.DemandDraft) *DemandDraftModel {
	m := &DemandDraftModel{}
	m.FromDomain(d)
	return m
}
