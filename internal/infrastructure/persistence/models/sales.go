package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// FlatModel is the persistence model for the flat directory record.
type FlatModel struct {
	BaseModel
	Number          string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_flat_tower_number,priority:2"`
	Tower           string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_flat_tower_number,priority:1"`
	Floor           int                 `gorm:"not null"`
	SalePrice       decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	BookingID       *uuid.UUID          `gorm:"type:uuid;index"`
	CustomerID      *uuid.UUID          `gorm:"type:uuid;index"`
	CurrentPhase    *construction.Phase `gorm:"type:varchar(20)"`
	OverallProgress decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (FlatModel) TableName() string {
	return "flats"
}

// ToDomain converts the persistence model to a domain Flat.
func (m *FlatModel) ToDomain() *sales.Flat {
	return &sales.Flat{
		BaseEntity:      m.BaseModel.ToDomain(),
		Number:          m.Number,
		Tower:           m.Tower,
		Floor:           m.Floor,
		SalePrice:       m.SalePrice,
		BookingID:       m.BookingID,
		CustomerID:      m.CustomerID,
		CurrentPhase:    m.CurrentPhase,
		OverallProgress: m.OverallProgress,
	}
}

// FromDomain populates the persistence model from a domain Flat.
func (m *FlatModel) FromDomain(f *sales.Flat) {
	m.FromDomainBaseEntity(f.BaseEntity)
	m.Number = f.Number
	m.Tower = f.Tower
	m.Floor = f.Floor
	m.SalePrice = f.SalePrice
	m.BookingID = f.BookingID
	m.CustomerID = f.CustomerID
	m.CurrentPhase = f.CurrentPhase
	m.OverallProgress = f.OverallProgress
}

// FlatModelFromDomain creates a new persistence model from a domain Flat.
func FlatModelFromDomain(f *sales.Flat) *FlatModel {
	m := &FlatModel{}
	m.FromDomain(f)
	return m
}

// BookingModel is the persistence model for the Booking aggregate root.
// The installment schedule is a JSONB column rewritten with the aggregate.
type BookingModel struct {
	AggregateModel
	BookingNumber string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	FlatID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	CustomerID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	TotalAmount   decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	BalanceAmount decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Schedule      sales.InstallmentSchedule `gorm:"type:jsonb;default:'[]'"`
	Status        sales.BookingStatus       `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (BookingModel) TableName() string {
	return "bookings"
}

// ToDomain converts the persistence model to a domain Booking.
func (m *BookingModel) ToDomain() *sales.Booking {
	b := &sales.Booking{
		BookingNumber: m.BookingNumber,
		FlatID:        m.FlatID,
		CustomerID:    m.CustomerID,
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		BalanceAmount: m.BalanceAmount,
		Schedule:      m.Schedule,
		Status:        m.Status,
		CompletedAt:   m.CompletedAt,
	}
	m.PopulateAggregateRoot(&b.BaseAggregateRoot)
	return b
}

// FromDomain populates the persistence model from a domain Booking.
func (m *BookingModel) FromDomain(b *sales.Booking) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.BookingNumber = b.BookingNumber
	m.FlatID = b.FlatID
	m.CustomerID = b.CustomerID
	m.TotalAmount = b.TotalAmount
	m.PaidAmount = b.PaidAmount
	m.BalanceAmount = b.BalanceAmount
	m.Schedule = b.Schedule
	m.Status = b.Status
	m.CompletedAt = b.CompletedAt
}

// BookingModelFromDomain creates a new persistence model from a domain Booking.
func BookingModelFromDomain(b *sales.Booking) *BookingModel {
	m := &BookingModel{}
	m.FromDomain(b)
	return m
}

// CustomerModel is the persistence model for the Customer directory record.
type CustomerModel struct {
	BaseModel
	Name    string `gorm:"type:varchar(200);not null;index"`
	Email   string `gorm:"type:varchar(200)"`
	Phone   string `gorm:"type:varchar(50)"`
	Address string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer.
func (m *CustomerModel) ToDomain() *sales.Customer {
	return &sales.Customer{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Address:    m.Address,
	}
}

// FromDomain populates the persistence model from a domain Customer.
func (m *CustomerModel) FromDomain(c *sales.Customer) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer.
func CustomerModelFromDomain(c *sales.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// PaymentModel is the persistence model for recorded incoming payments.
type PaymentModel struct {
	BaseModel
	BookingID    uuid.UUID           `gorm:"type:uuid;not null;index"`
	Amount       decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	Method       sales.PaymentMethod `gorm:"type:varchar(30)"`
	Reference    string              `gorm:"type:varchar(100)"`
	ReceivedAt   time.Time           `gorm:"not null"`
	Reconciled   bool                `gorm:"not null;default:false;index"`
	ReconciledAt *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *sales.Payment {
	return &sales.Payment{
		BaseEntity:   m.BaseModel.ToDomain(),
		BookingID:    m.BookingID,
		Amount:       m.Amount,
		Method:       m.Method,
		Reference:    m.Reference,
		ReceivedAt:   m.ReceivedAt,
		Reconciled:   m.Reconciled,
		ReconciledAt: m.ReconciledAt,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *sales.Payment) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.BookingID = p.BookingID
	m.Amount = p.Amount
	m.Method = p.Method
	m.Reference = p.Reference
	m.ReceivedAt = p.ReceivedAt
	m.Reconciled = p.Reconciled
	m.ReconciledAt = p.ReconciledAt
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *sales.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
