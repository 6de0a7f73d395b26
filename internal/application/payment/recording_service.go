package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/realtyerp/backend/internal/domain/sales"
	"go.uber.org/zap"
)

// RecordingService records incoming payments and hands each one to the
// completion workflow in the same request. Reconciliation failures are
// logged but never roll back the recorded payment.
type RecordingService struct {
	paymentRepo sales.PaymentRepository
	bookingRepo sales.BookingRepository
	completion  *CompletionService
	logger      *zap.Logger
}

// NewRecordingService creates a new RecordingService
func NewRecordingService(
	paymentRepo sales.PaymentRepository,
	bookingRepo sales.BookingRepository,
	completion *CompletionService,
	logger *zap.Logger,
) *RecordingService {
	return &RecordingService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		completion:  completion,
		logger:      logger,
	}
}

// RecordPayment persists a payment against a booking and immediately
// reconciles it. The payment record survives even when reconciliation
// cannot run.
func (s *RecordingService) RecordPayment(
	ctx context.Context,
	bookingID uuid.UUID,
	amount decimal.Decimal,
	method sales.PaymentMethod,
	reference string,
) (*sales.Payment, *Result, error) {
	if _, err := s.bookingRepo.FindByID(ctx, bookingID); err != nil {
		return nil, nil, err
	}

	pay, err := sales.NewPayment(bookingID, amount, method, reference)
	if err != nil {
		return nil, nil, err
	}
	if err := s.paymentRepo.Save(ctx, pay); err != nil {
		return nil, nil, fmt.Errorf("failed to save payment: %w", err)
	}

	result, err := s.completion.ProcessPayment(ctx, pay.ID)
	if err != nil {
		s.logger.Error("payment recorded but reconciliation failed",
			zap.String("payment_id", pay.ID.String()),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
		return pay, nil, nil
	}
	return pay, result, nil
}

// GetPayment returns a payment by ID
func (s *RecordingService) GetPayment(ctx context.Context, id uuid.UUID) (*sales.Payment, error) {
	return s.paymentRepo.FindByID(ctx, id)
}

// ListPaymentsForBooking returns all payments recorded against a booking
func (s *RecordingService) ListPaymentsForBooking(ctx context.Context, bookingID uuid.UUID) ([]sales.Payment, error) {
	return s.paymentRepo.FindByBooking(ctx, bookingID)
}
