package payment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyerp/backend/internal/domain/construction"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/domain/shared/valueobject"
)

// MockPaymentRepository is a mock implementation of sales.PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]sales.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, p *sales.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockBookingRepository is a mock implementation of sales.BookingRepository
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Booking), args.Error(1)
}

func (m *MockBookingRepository) FindByFlat(ctx context.Context, flatID uuid.UUID) (*sales.Booking, error) {
	args := m.Called(ctx, flatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Booking), args.Error(1)
}

func (m *MockBookingRepository) Save(ctx context.Context, b *sales.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) SaveWithLock(ctx context.Context, b *sales.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GenerateBookingNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockPlanRepository is a mock implementation of plan.Repository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*domainplan.FlatPaymentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainplan.FlatPaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindActiveByFlat(ctx context.Context, flatID uuid.UUID) (*domainplan.FlatPaymentPlan, error) {
	args := m.Called(ctx, flatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainplan.FlatPaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByFlatAndBooking(ctx context.Context, flatID, bookingID uuid.UUID) (*domainplan.FlatPaymentPlan, error) {
	args := m.Called(ctx, flatID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainplan.FlatPaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindAllActive(ctx context.Context) ([]domainplan.FlatPaymentPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainplan.FlatPaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindAll(ctx context.Context, filter domainplan.Filter) ([]domainplan.FlatPaymentPlan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainplan.FlatPaymentPlan), args.Error(1)
}

func (m *MockPlanRepository) ExistsForBooking(ctx context.Context, flatID, bookingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, flatID, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, p *domainplan.FlatPaymentPlan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, p *domainplan.FlatPaymentPlan) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPlanRepository) Count(ctx context.Context, filter domainplan.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) GeneratePlanNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func phasePtr(p construction.Phase) *construction.Phase {
	return &p
}

// reconFixture wires a plan and a mirroring booking schedule the way
// plan instantiation produces them: three milestones of 200/300/500
// against a 1000 total.
type reconFixture struct {
	flatID  uuid.UUID
	plan    *domainplan.FlatPaymentPlan
	booking *sales.Booking
	payment *sales.Payment
}

func newReconFixture(t *testing.T, amount string) *reconFixture {
	t.Helper()

	tmpl, err := domainplan.NewTemplate("Standard CLP", "", domainplan.MilestoneBlueprints{
		{Sequence: 1, Name: "Token", Percentage: decimal.NewFromInt(20)},
		{Sequence: 2, Name: "Foundation Complete", ConstructionPhase: phasePtr(construction.PhaseFoundation), Percentage: decimal.NewFromInt(30)},
		{Sequence: 3, Name: "Handover", ConstructionPhase: phasePtr(construction.PhaseHandover), Percentage: decimal.NewFromInt(50)},
	})
	require.NoError(t, err)

	flatID := uuid.New()
	customerID := uuid.New()

	booking, err := sales.NewBooking("BK-20260101-00001", flatID, customerID, decimal.NewFromInt(1000))
	require.NoError(t, err)

	p, err := domainplan.NewFlatPaymentPlan("PP-20260101-00001", flatID, booking.ID, customerID,
		tmpl, valueobject.NewMoneyINR(decimal.NewFromInt(1000)))
	require.NoError(t, err)
	p.ClearDomainEvents()

	schedule := make(sales.InstallmentSchedule, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		schedule = append(schedule, sales.InstallmentEntry{
			Sequence:          m.Sequence,
			Name:              m.Name,
			MilestoneSequence: m.Sequence,
			Amount:            m.Amount,
			PaidAmount:        decimal.Zero,
			Status:            sales.EntryStatusPending,
		})
	}
	booking.SetSchedule(schedule)

	pay, err := sales.NewPayment(booking.ID, decimal.RequireFromString(amount), sales.PaymentMethodBankTransfer, "UTR-1")
	require.NoError(t, err)

	return &reconFixture{flatID: flatID, plan: p, booking: booking, payment: pay}
}

func newCompletionService(paymentRepo *MockPaymentRepository, bookingRepo *MockBookingRepository, planRepo *MockPlanRepository) *CompletionService {
	return NewCompletionService(paymentRepo, bookingRepo, planRepo, nil, zap.NewNop())
}

func TestProcessPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("skips already reconciled payment", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "200")
		fx.payment.MarkReconciled()
		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.True(t, result.Reconciled)
		assert.Empty(t, result.SettledSequences)
		bookingRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("completes unreconciled when booking is missing", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "200")
		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(nil, shared.ErrNotFound)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.False(t, result.Reconciled)
		assert.False(t, fx.payment.Reconciled)
		paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("completes unreconciled when flat has no active plan", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "200")
		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(fx.booking, nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(nil, shared.ErrNotFound)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.False(t, result.Reconciled)
		bookingRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("completes unreconciled when no milestone is triggered", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "200")
		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(fx.booking, nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(fx.plan, nil)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.False(t, result.Reconciled)
		assert.False(t, fx.payment.Reconciled)
	})

	t.Run("settles the matched entry and marks its milestone paid", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "200")
		_, err := fx.plan.TriggerMilestone(1)
		require.NoError(t, err)
		fx.plan.ClearDomainEvents()

		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		paymentRepo.On("Save", ctx, fx.payment).Return(nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(fx.booking, nil)
		bookingRepo.On("SaveWithLock", ctx, fx.booking).Return(nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(fx.plan, nil)
		planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.True(t, result.Reconciled)
		assert.Equal(t, []int{1}, result.SettledSequences)
		assert.Empty(t, result.Remainder)
		assert.False(t, result.BookingCompleted)
		assert.False(t, result.PlanCompleted)

		m, err := fx.plan.Milestone(1)
		require.NoError(t, err)
		assert.Equal(t, domainplan.MilestonePaid, m.Status)
		assert.Equal(t, "200", fx.plan.PaidAmount.String())
		assert.Equal(t, "200", fx.booking.PaidAmount.String())
		assert.True(t, fx.payment.Reconciled)
		paymentRepo.AssertExpectations(t)
		bookingRepo.AssertExpectations(t)
		planRepo.AssertExpectations(t)
	})

	t.Run("carry-forward ahead of trigger leaves milestone pending", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		// 500 fills the Token entry (200) and carries 300 into the
		// Foundation entry, whose milestone has not been triggered.
		fx := newReconFixture(t, "500")
		_, err := fx.plan.TriggerMilestone(1)
		require.NoError(t, err)
		fx.plan.ClearDomainEvents()

		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		paymentRepo.On("Save", ctx, fx.payment).Return(nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(fx.booking, nil)
		bookingRepo.On("SaveWithLock", ctx, fx.booking).Return(nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(fx.plan, nil)
		planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.True(t, result.Reconciled)
		assert.Equal(t, []int{1}, result.SettledSequences)

		// The schedule entry is paid but the milestone stays untouched.
		assert.Equal(t, sales.EntryStatusPaid, fx.booking.Schedule[1].Status)
		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		assert.Equal(t, domainplan.MilestonePending, m.Status)
		assert.Equal(t, "200", fx.plan.PaidAmount.String())
		assert.Equal(t, "500", fx.booking.PaidAmount.String())
	})

	t.Run("full settlement completes booking and plan", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "1000")
		for seq := 1; seq <= 3; seq++ {
			_, err := fx.plan.TriggerMilestone(seq)
			require.NoError(t, err)
		}
		fx.plan.ClearDomainEvents()

		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		paymentRepo.On("Save", ctx, fx.payment).Return(nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(fx.booking, nil)
		bookingRepo.On("SaveWithLock", ctx, fx.booking).Return(nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(fx.plan, nil)
		planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, result.SettledSequences)
		assert.True(t, result.BookingCompleted)
		assert.True(t, result.PlanCompleted)
		assert.Equal(t, domainplan.StatusCompleted, fx.plan.Status)
		assert.Equal(t, sales.BookingStatusCompleted, fx.booking.Status)
	})

	t.Run("overpayment reports the unapplied remainder", func(t *testing.T) {
		paymentRepo := new(MockPaymentRepository)
		bookingRepo := new(MockBookingRepository)
		planRepo := new(MockPlanRepository)
		svc := newCompletionService(paymentRepo, bookingRepo, planRepo)

		fx := newReconFixture(t, "1050")
		for seq := 1; seq <= 3; seq++ {
			_, err := fx.plan.TriggerMilestone(seq)
			require.NoError(t, err)
		}
		fx.plan.ClearDomainEvents()

		paymentRepo.On("FindByID", ctx, fx.payment.ID).Return(fx.payment, nil)
		paymentRepo.On("Save", ctx, fx.payment).Return(nil)
		bookingRepo.On("FindByID", ctx, fx.payment.BookingID).Return(fx.booking, nil)
		bookingRepo.On("SaveWithLock", ctx, fx.booking).Return(nil)
		planRepo.On("FindActiveByFlat", ctx, fx.flatID).Return(fx.plan, nil)
		planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)

		result, err := svc.ProcessPayment(ctx, fx.payment.ID)

		require.NoError(t, err)
		assert.True(t, result.Reconciled)
		assert.Equal(t, "50", result.Remainder)
		assert.Equal(t, "1000", fx.booking.PaidAmount.String())
	})
}
