package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
)

func TestRecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("records and reconciles in one pass", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		completion := newCompletionService(paymentRepo, bookingRepo, planRepo)
		svc := NewRecordingService(paymentRepo, bookingRepo, completion, zap.NewNop())

		fx := newReconFixture(t, "200")
		_, err := fx.plan.TriggerMilestone(1)
		require.NoError(t, err)
		fx.plan.ClearDomainEvents()

		bookingRepo.On("FindByID", ctx, fx.booking.ID).Return(fx.booking, nil)
		bookingRepo.On("SaveWithLock", ctx, fx.booking).Return(nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(fx.plan, nil)
		planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)
		// The payment ID is minted inside the service, so the reconciliation
		// lookup is wired once the save captures it.
		paymentRepo.On("Save", ctx, mock.AnythingOfType("*sales.Payment")).
			Run(func(args mock.Arguments) {
				saved := args.Get(1).(*sales.Payment)
				paymentRepo.On("FindByID", ctx, saved.ID).Return(saved, nil)
			}).Return(nil)

		pay, result, err := svc.RecordPayment(ctx, fx.booking.ID,
			decimal.NewFromInt(200), sales.PaymentMethodBankTransfer, "UTR-42")

		require.NoError(t, err)
		require.NotNil(t, pay)
		require.NotNil(t, result)
		assert.True(t, result.Reconciled)
		assert.Equal(t, []int{1}, result.SettledSequences)
		assert.True(t, pay.Reconciled)
	})

	t.Run("unknown booking rejects the recording", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		completion := newCompletionService(paymentRepo, bookingRepo, new(MockPlanRepository))
		svc := NewRecordingService(paymentRepo, bookingRepo, completion, zap.NewNop())

		fx := newReconFixture(t, "200")
		bookingRepo.On("FindByID", ctx, fx.booking.ID).Return(nil, shared.ErrNotFound)

		_, _, err := svc.RecordPayment(ctx, fx.booking.ID,
			decimal.NewFromInt(200), sales.PaymentMethodCheque, "CHQ-1")

		assert.ErrorIs(t, err, shared.ErrNotFound)
		paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("invalid amount never reaches the store", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		completion := newCompletionService(paymentRepo, bookingRepo, new(MockPlanRepository))
		svc := NewRecordingService(paymentRepo, bookingRepo, completion, zap.NewNop())

		fx := newReconFixture(t, "200")
		bookingRepo.On("FindByID", ctx, fx.booking.ID).Return(fx.booking, nil)

		_, _, err := svc.RecordPayment(ctx, fx.booking.ID,
			decimal.Zero, sales.PaymentMethodCash, "")

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_AMOUNT", derr.Code)
		paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("reconciliation failure keeps the recorded payment", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		completion := newCompletionService(paymentRepo, bookingRepo, new(MockPlanRepository))
		svc := NewRecordingService(paymentRepo, bookingRepo, completion, zap.NewNop())

		fx := newReconFixture(t, "200")
		bookingRepo.On("FindByID", ctx, fx.booking.ID).Return(fx.booking, nil)
		paymentRepo.On("Save", ctx, mock.AnythingOfType("*sales.Payment")).Return(nil)
		paymentRepo.On("FindByID", ctx, mock.Anything).Return(nil, errors.New("connection reset"))

		pay, result, err := svc.RecordPayment(ctx, fx.booking.ID,
			decimal.NewFromInt(200), sales.PaymentMethodOnline, "TXN-9")

		require.NoError(t, err)
		require.NotNil(t, pay)
		assert.Nil(t, result)
		assert.False(t, pay.Reconciled)
	})
}
