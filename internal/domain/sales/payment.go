package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod represents how a payment was received
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheque       PaymentMethod = "CHEQUE"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodOnline       PaymentMethod = "ONLINE"
)

// IsValid checks if the method is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCash, PaymentMethodOnline:
		return true
	}
	return false
}

// Payment is a recorded incoming payment. Recording is done by the
// external payments module; this core consumes it once for reconciliation.
// A payment is never blocked by downstream accounting gaps: Reconciled
// stays false when no booking/plan could be resolved.
type Payment struct {
	shared.BaseEntity
	BookingID    uuid.UUID       `json:"booking_id"`
	Amount       decimal.Decimal `json:"amount"`
	Method       PaymentMethod   `json:"method"`
	Reference    string          `json:"reference"`
	ReceivedAt   time.Time       `json:"received_at"`
	Reconciled   bool            `json:"reconciled"`
	ReconciledAt *time.Time      `json:"reconciled_at,omitempty"`
}

// NewPayment creates a recorded payment
func NewPayment(bookingID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if method != "" && !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unknown payment method")
	}
	return &Payment{
		BaseEntity: shared.NewBaseEntity(),
		BookingID:  bookingID,
		Amount:     amount,
		Method:     method,
		Reference:  reference,
		ReceivedAt: time.Now(),
	}, nil
}

// MarkReconciled flags the payment as matched against the schedule
func (p *Payment) MarkReconciled() {
	now := time.Now()
	p.Reconciled = true
	p.ReconciledAt = &now
	p.Touch()
}
