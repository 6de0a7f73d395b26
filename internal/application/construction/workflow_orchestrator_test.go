package construction

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appplan "github.com/realtyerp/backend/internal/application/plan"
	"github.com/realtyerp/backend/internal/domain/construction"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/domain/shared/valueobject"
)

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

// MockFlatRepository is a mock implementation of sales.FlatRepository
type MockFlatRepository struct {
	mock.Mock
}

func (m *MockFlatRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Flat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Flat), args.Error(1)
}

func (m *MockFlatRepository) Save(ctx context.Context, f *sales.Flat) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

// MockCustomerRepository is a mock implementation of sales.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *sales.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockDraftRepository is a mock implementation of plan.DemandDraftRepository
type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) FindByID(ctx context.Context, id uuid.UUID) (*domainplan.DemandDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainplan.DemandDraft), args.Error(1)
}

func (m *MockDraftRepository) FindByMilestone(ctx context.Context, flatID uuid.UUID, sequence int) (*domainplan.DemandDraft, error) {
	args := m.Called(ctx, flatID, sequence)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domainplan.DemandDraft), args.Error(1)
}

func (m *MockDraftRepository) FindByFlat(ctx context.Context, flatID uuid.UUID) ([]domainplan.DemandDraft, error) {
	args := m.Called(ctx, flatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domainplan.DemandDraft), args.Error(1)
}

func (m *MockDraftRepository) ExistsByMilestone(ctx context.Context, flatID uuid.UUID, sequence int) (bool, error) {
	args := m.Called(ctx, flatID, sequence)
	return args.Bool(0), args.Error(1)
}

func (m *MockDraftRepository) CreateIfAbsent(ctx context.Context, d *domainplan.DemandDraft) (bool, error) {
	args := m.Called(ctx, d)
	return args.Bool(0), args.Error(1)
}

func (m *MockDraftRepository) Save(ctx context.Context, d *domainplan.DemandDraft) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDraftRepository) GenerateDraftNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func phasePtr(p construction.Phase) *construction.Phase {
	return &p
}

func decPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

// stubComposer renders a fixed letter body
type stubComposer struct {
	err error
}

func (c *stubComposer) Compose(ctx context.Context, data appplan.DraftData) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return "Dear customer, an installment is due.", nil
}

type orchestratorFixture struct {
	planRepo     *MockPlanRepository
	flatRepo     *MockFlatRepository
	customerRepo *MockCustomerRepository
	draftRepo    *MockDraftRepository
	composer     *stubComposer
	orchestrator *WorkflowOrchestrator

	plan *domainplan.FlatPaymentPlan
	flat *sales.Flat
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	tmpl, err := domainplan.NewTemplate("Standard CLP", "", domainplan.MilestoneBlueprints{
		{Sequence: 1, Name: "Token", Percentage: decimal.NewFromInt(10)},
		{Sequence: 2, Name: "Foundation Complete", ConstructionPhase: phasePtr(construction.PhaseFoundation), Percentage: decimal.NewFromInt(20)},
		{Sequence: 3, Name: "Structure 50%", ConstructionPhase: phasePtr(construction.PhaseStructure), PhasePercentage: decPtr("50"), Percentage: decimal.NewFromInt(30)},
		{Sequence: 4, Name: "Handover", ConstructionPhase: phasePtr(construction.PhaseHandover), Percentage: decimal.NewFromInt(40)},
	})
	require.NoError(t, err)

	flat, err := sales.NewFlat("A-1203", "A", 12, decimal.NewFromInt(5000000))
	require.NoError(t, err)

	p, err := domainplan.NewFlatPaymentPlan("PP-20260101-00001", flat.ID, uuid.New(), uuid.New(),
		tmpl, valueobject.NewMoneyINR(decimal.NewFromInt(5000000)))
	require.NoError(t, err)
	p.ClearDomainEvents()

	fx := &orchestratorFixture{
		planRepo:     new(MockPlanRepository),
		flatRepo:     new(MockFlatRepository),
		customerRepo: new(MockCustomerRepository),
		draftRepo:    new(MockDraftRepository),
		composer:     &stubComposer{},
		plan:         p,
		flat:         flat,
	}

	draftService := appplan.NewDraftService(
		fx.draftRepo, fx.planRepo, fx.flatRepo, fx.customerRepo,
		fx.composer, nil, nil, zap.NewNop(),
	)
	fx.orchestrator = NewWorkflowOrchestrator(fx.planRepo, fx.flatRepo, draftService, nil, zap.NewNop())
	return fx
}

// expectDraftGeneration wires the happy-path draft mocks for one milestone
func (fx *orchestratorFixture) expectDraftGeneration(t *testing.T, sequence int) {
	t.Helper()
	customer, err := sales.NewCustomer("Asha Rao", "asha@example.com", "+91-9000000001", "MG Road, Pune")
	require.NoError(t, err)

	fx.flatRepo.On("FindByID", mock.Anything, fx.plan.FlatID).Return(fx.flat, nil)
	fx.draftRepo.On("ExistsByMilestone", mock.Anything, fx.plan.FlatID, sequence).Return(false, nil)
	fx.draftRepo.On("GenerateDraftNumber", mock.Anything).Return("DD-20260101-00001", nil)
	fx.draftRepo.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*plan.DemandDraft")).Return(true, nil)
	fx.customerRepo.On("FindByID", mock.Anything, fx.plan.CustomerID).Return(customer, nil)
}

func TestOnProgressRecorded(t *testing.T) {
	ctx := context.Background()

	t.Run("triggers qualifying milestone and generates its draft", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)
		fx.expectDraftGeneration(t, 2)

		count := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))

		assert.Equal(t, 1, count)
		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		assert.Equal(t, domainplan.MilestoneTriggered, m.Status)
		assert.NotNil(t, m.DemandDraftID)

		// Denormalized construction state landed on the flat.
		require.NotNil(t, fx.flat.CurrentPhase)
		assert.Equal(t, construction.PhaseFoundation, *fx.flat.CurrentPhase)
		assert.Equal(t, "20", fx.flat.OverallProgress.String())

		fx.draftRepo.AssertExpectations(t)
		fx.planRepo.AssertExpectations(t)
	})

	t.Run("second identical report triggers nothing", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)
		fx.expectDraftGeneration(t, 2)

		first := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))
		second := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))

		assert.Equal(t, 1, first)
		assert.Equal(t, 0, second)
		fx.planRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
		fx.draftRepo.AssertNumberOfCalls(t, "CreateIfAbsent", 1)
	})

	t.Run("below-threshold progress triggers nothing", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(fx.plan, nil)

		count := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseStructure, decimal.NewFromInt(49), decimal.NewFromInt(35))

		assert.Equal(t, 0, count)
		fx.planRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("flat without an active plan is a no-op", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(nil, shared.ErrNotFound)

		count := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))

		assert.Equal(t, 0, count)
		// The flat snapshot is still updated even without a plan.
		fx.flatRepo.AssertCalled(t, "Save", ctx, fx.flat)
	})

	t.Run("existing draft keeps the trigger idempotent", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)
		fx.draftRepo.On("ExistsByMilestone", mock.Anything, fx.plan.FlatID, 2).Return(true, nil)

		count := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))

		assert.Equal(t, 1, count)
		fx.draftRepo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	})

	t.Run("lost conditional insert keeps the existing draft", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)

		customer, err := sales.NewCustomer("Asha Rao", "asha@example.com", "+91-9000000001", "MG Road, Pune")
		require.NoError(t, err)
		fx.customerRepo.On("FindByID", mock.Anything, fx.plan.CustomerID).Return(customer, nil)
		fx.draftRepo.On("ExistsByMilestone", mock.Anything, fx.plan.FlatID, 2).Return(false, nil)
		fx.draftRepo.On("GenerateDraftNumber", mock.Anything).Return("DD-20260101-00001", nil)
		fx.draftRepo.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*plan.DemandDraft")).Return(false, nil)

		count := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))

		assert.Equal(t, 1, count)
		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		assert.Equal(t, domainplan.MilestoneTriggered, m.Status)
		assert.Nil(t, m.DemandDraftID)
	})

	t.Run("draft failure still persists the triggered milestone", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.composer.err = errors.New("template rendering broken")
		fx.flatRepo.On("FindByID", ctx, fx.flat.ID).Return(fx.flat, nil)
		fx.flatRepo.On("Save", ctx, fx.flat).Return(nil)
		fx.planRepo.On("FindActiveByFlat", ctx, fx.flat.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)

		customer, err := sales.NewCustomer("Asha Rao", "asha@example.com", "+91-9000000001", "MG Road, Pune")
		require.NoError(t, err)
		fx.customerRepo.On("FindByID", mock.Anything, fx.plan.CustomerID).Return(customer, nil)
		fx.draftRepo.On("ExistsByMilestone", mock.Anything, fx.plan.FlatID, 2).Return(false, nil)
		fx.draftRepo.On("GenerateDraftNumber", mock.Anything).Return("DD-20260101-00001", nil)

		count := fx.orchestrator.OnProgressRecorded(ctx, fx.flat.ID,
			construction.PhaseFoundation, decimal.NewFromInt(100), decimal.NewFromInt(20))

		assert.Equal(t, 1, count)
		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		assert.Equal(t, domainplan.MilestoneTriggered, m.Status)
		assert.Nil(t, m.DemandDraftID)
		fx.planRepo.AssertCalled(t, "SaveWithLock", ctx, fx.plan)
	})
}

func TestReconcileMatches(t *testing.T) {
	ctx := context.Background()

	t.Run("reloads the plan and triggers missed milestones", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.planRepo.On("FindByID", ctx, fx.plan.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)
		fx.expectDraftGeneration(t, 2)

		flatRecord, err := construction.NewProgress(fx.plan.FlatID, construction.PhaseFoundation,
			decimal.NewFromInt(100), decimal.NewFromInt(20), construction.ProgressStatusCompleted)
		require.NoError(t, err)

		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		matches := []Match{{Plan: *fx.plan, Milestone: *m, Progress: *flatRecord}}

		total := fx.orchestrator.ReconcileMatches(ctx, matches)

		assert.Equal(t, 1, total)
		reloaded, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		assert.Equal(t, domainplan.MilestoneTriggered, reloaded.Status)
		fx.planRepo.AssertNumberOfCalls(t, "FindByID", 1)
	})

	t.Run("applies each phase once per plan", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.planRepo.On("FindByID", ctx, fx.plan.ID).Return(fx.plan, nil)
		fx.planRepo.On("SaveWithLock", ctx, fx.plan).Return(nil)
		fx.expectDraftGeneration(t, 2)

		record, err := construction.NewProgress(fx.plan.FlatID, construction.PhaseFoundation,
			decimal.NewFromInt(100), decimal.NewFromInt(20), construction.ProgressStatusCompleted)
		require.NoError(t, err)

		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		// Duplicate matches for the same phase collapse into one evaluation.
		matches := []Match{
			{Plan: *fx.plan, Milestone: *m, Progress: *record},
			{Plan: *fx.plan, Milestone: *m, Progress: *record},
		}

		total := fx.orchestrator.ReconcileMatches(ctx, matches)

		assert.Equal(t, 1, total)
		fx.planRepo.AssertNumberOfCalls(t, "FindByID", 1)
		fx.planRepo.AssertNumberOfCalls(t, "SaveWithLock", 1)
	})

	t.Run("plan reload failure skips the plan", func(t *testing.T) {
		fx := newOrchestratorFixture(t)
		fx.planRepo.On("FindByID", ctx, fx.plan.ID).Return(nil, errors.New("connection reset"))

		record, err := construction.NewProgress(fx.plan.FlatID, construction.PhaseFoundation,
			decimal.NewFromInt(100), decimal.NewFromInt(20), construction.ProgressStatusCompleted)
		require.NoError(t, err)

		m, err := fx.plan.Milestone(2)
		require.NoError(t, err)
		total := fx.orchestrator.ReconcileMatches(ctx, []Match{
			{Plan: *fx.plan, Milestone: *m, Progress: *record},
		})

		assert.Equal(t, 0, total)
		fx.planRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}
