package sales

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "ACTIVE"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// IsValid checks if the status is a valid BookingStatus
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusActive, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// EntryStatus represents the status of an installment schedule entry
type EntryStatus string

const (
	EntryStatusPending EntryStatus = "PENDING"
	EntryStatusPartial EntryStatus = "PARTIAL"
	EntryStatusPaid    EntryStatus = "PAID"
)

// InstallmentEntry is one installment of a booking's payment schedule.
// MilestoneSequence links the entry to the plan milestone it settles.
type InstallmentEntry struct {
	Sequence          int             `json:"sequence"`
	Name              string          `json:"name"`
	MilestoneSequence int             `json:"milestone_sequence"`
	Amount            decimal.Decimal `json:"amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	Status            EntryStatus     `json:"status"`
	PaidAt            *time.Time      `json:"paid_at,omitempty"`
}

// Outstanding returns the unpaid balance of the entry
func (e *InstallmentEntry) Outstanding() decimal.Decimal {
	return e.Amount.Sub(e.PaidAmount)
}

// IsPaid returns true once the entry balance is zero
func (e *InstallmentEntry) IsPaid() bool {
	return e.Status == EntryStatusPaid
}

// InstallmentSchedule is the ordered entry list stored as JSONB
type InstallmentSchedule []InstallmentEntry

// Value implements driver.Valuer for JSONB storage
func (s InstallmentSchedule) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner for JSONB storage
func (s *InstallmentSchedule) Scan(value interface{}) error {
	if value == nil {
		*s = InstallmentSchedule{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan InstallmentSchedule: unsupported type")
	}
	if len(bytes) == 0 {
		*s = InstallmentSchedule{}
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Booking is the sale ledger for a flat: total/paid/balance plus the
// installment schedule incoming payments are reconciled against.
type Booking struct {
	shared.BaseAggregateRoot
	BookingNumber string              `json:"booking_number"`
	FlatID        uuid.UUID           `json:"flat_id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	PaidAmount    decimal.Decimal     `json:"paid_amount"`
	BalanceAmount decimal.Decimal     `json:"balance_amount"`
	Schedule      InstallmentSchedule `json:"schedule"`
	Status        BookingStatus       `json:"status"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

// NewBooking creates a booking ledger for a flat sale
func NewBooking(bookingNumber string, flatID, customerID uuid.UUID, totalAmount decimal.Decimal) (*Booking, error) {
	if bookingNumber == "" {
		return nil, shared.NewDomainError("INVALID_BOOKING_NUMBER", "Booking number cannot be empty")
	}
	if flatID == uuid.Nil || customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Flat ID and customer ID are required")
	}
	if !totalAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Total amount must be positive")
	}
	return &Booking{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BookingNumber:     bookingNumber,
		FlatID:            flatID,
		CustomerID:        customerID,
		TotalAmount:       totalAmount,
		PaidAmount:        decimal.Zero,
		BalanceAmount:     totalAmount,
		Schedule:          InstallmentSchedule{},
		Status:            BookingStatusActive,
	}, nil
}

// SetSchedule replaces the installment schedule. Used when the payment
// plan is instantiated so schedule entries mirror plan milestones.
func (b *Booking) SetSchedule(schedule InstallmentSchedule) {
	b.Schedule = schedule
	b.Touch()
	b.IncrementVersion()
}

// MatchScheduleEntry locates the outstanding entry for a milestone,
// matching by milestone name first and sequence second; first match wins.
// No amount-based disambiguation is attempted.
func (b *Booking) MatchScheduleEntry(milestoneName string, milestoneSequence int) (*InstallmentEntry, bool) {
	for i := range b.Schedule {
		e := &b.Schedule[i]
		if !e.IsPaid() && e.Name == milestoneName {
			return e, true
		}
	}
	for i := range b.Schedule {
		e := &b.Schedule[i]
		if !e.IsPaid() && e.MilestoneSequence == milestoneSequence {
			return e, true
		}
	}
	return nil, false
}

// ApplicationResult reports how a payment was spread across the schedule
type ApplicationResult struct {
	// SettledSequences lists milestone sequences whose entries reached
	// zero balance in this application
	SettledSequences []int
	// Remainder is the amount left after every outstanding entry from the
	// matched one onward was filled
	Remainder decimal.Decimal
}

// ApplyPayment applies an amount to the schedule starting at the matched
// entry. Each entry is clamped to its own outstanding balance; overflow
// carries forward to subsequent outstanding entries in sequence order.
// Booking totals are recomputed from the full schedule afterwards, and the
// booking completes when its balance reaches zero.
func (b *Booking) ApplyPayment(startEntry *InstallmentEntry, amount decimal.Decimal) (*ApplicationResult, error) {
	if b.Status == BookingStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot apply payment to a cancelled booking")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if startEntry == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "A schedule entry to apply against is required")
	}

	result := &ApplicationResult{Remainder: amount}
	started := false
	now := time.Now()
	for i := range b.Schedule {
		e := &b.Schedule[i]
		if !started {
			if e.Sequence != startEntry.Sequence {
				continue
			}
			started = true
		}
		if e.IsPaid() || result.Remainder.IsZero() {
			continue
		}

		applied := decimal.Min(result.Remainder, e.Outstanding())
		e.PaidAmount = e.PaidAmount.Add(applied)
		result.Remainder = result.Remainder.Sub(applied)

		if e.Outstanding().IsZero() {
			e.Status = EntryStatusPaid
			e.PaidAt = &now
			result.SettledSequences = append(result.SettledSequences, e.MilestoneSequence)
		} else if e.PaidAmount.IsPositive() {
			e.Status = EntryStatusPartial
		}
	}
	if !started {
		return nil, shared.NewDomainError("ENTRY_NOT_FOUND",
			fmt.Sprintf("Schedule entry %d not found on booking", startEntry.Sequence))
	}

	b.recalculateTotals()
	b.Touch()
	b.IncrementVersion()
	return result, nil
}

// recalculateTotals derives booking totals from the full schedule
func (b *Booking) recalculateTotals() {
	paid := decimal.Zero
	for i := range b.Schedule {
		paid = paid.Add(b.Schedule[i].PaidAmount)
	}
	b.PaidAmount = paid
	b.BalanceAmount = b.TotalAmount.Sub(paid)

	if b.BalanceAmount.IsZero() && b.Status == BookingStatusActive {
		now := time.Now()
		b.Status = BookingStatusCompleted
		b.CompletedAt = &now
	}
}
