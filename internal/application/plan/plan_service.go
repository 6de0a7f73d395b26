package plan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlanService owns the lifecycle of flat payment plans: creation from a
// template, milestone updates and cancellation.
type PlanService struct {
	planRepo     domainplan.Repository
	templateRepo domainplan.TemplateRepository
	bookingRepo  sales.BookingRepository
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(
	planRepo domainplan.Repository,
	templateRepo domainplan.TemplateRepository,
	bookingRepo sales.BookingRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *PlanService {
	return &PlanService{
		planRepo:     planRepo,
		templateRepo: templateRepo,
		bookingRepo:  bookingRepo,
		events:       events,
		logger:       logger,
	}
}

// CreatePlan instantiates a payment plan from a template for a
// (flat, booking) pair. At most one plan may exist per pair.
func (s *PlanService) CreatePlan(
	ctx context.Context,
	flatID, bookingID, customerID, templateID uuid.UUID,
	totalAmount decimal.Decimal,
) (*domainplan.FlatPaymentPlan, error) {
	exists, err := s.planRepo.ExistsForBooking(ctx, flatID, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing plan: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError("PLAN_EXISTS",
			"A payment plan already exists for this flat and booking")
	}

	template, err := s.templateRepo.FindByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}

	planNumber, err := s.planRepo.GeneratePlanNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate plan number: %w", err)
	}

	p, err := domainplan.NewFlatPaymentPlan(
		planNumber, flatID, bookingID, customerID,
		template, valueobject.NewMoneyINR(totalAmount),
	)
	if err != nil {
		return nil, err
	}

	if err := s.planRepo.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info("payment plan created",
		zap.String("plan_id", p.ID.String()),
		zap.String("plan_number", p.PlanNumber),
		zap.String("flat_id", flatID.String()),
		zap.String("total_amount", totalAmount.String()),
		zap.Int("milestones", len(p.Milestones)),
	)

	// Mirror the milestone list onto the booking's installment schedule so
	// the payment reconciler can match entries to milestones. Best effort:
	// a missing booking does not fail plan creation.
	if err := s.mirrorSchedule(ctx, p); err != nil {
		s.logger.Warn("failed to mirror schedule onto booking",
			zap.String("plan_id", p.ID.String()),
			zap.String("booking_id", bookingID.String()),
			zap.Error(err),
		)
	}

	s.publishEvents(ctx, p)
	return p, nil
}

func (s *PlanService) mirrorSchedule(ctx context.Context, p *domainplan.FlatPaymentPlan) error {
	booking, err := s.bookingRepo.FindByID(ctx, p.BookingID)
	if err != nil {
		return err
	}

	schedule := make(sales.InstallmentSchedule, 0, len(p.Milestones))
	for i := range p.Milestones {
		m := &p.Milestones[i]
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
	return s.bookingRepo.Save(ctx, booking)
}

// UpdateMilestone merges a partial update into a plan milestone and
// persists the whole aggregate in one write.
func (s *PlanService) UpdateMilestone(
	ctx context.Context,
	planID uuid.UUID,
	sequence int,
	update domainplan.MilestoneUpdate,
) (*domainplan.FlatPaymentPlan, error) {
	p, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateMilestone(sequence, update); err != nil {
		return nil, err
	}
	if err := s.planRepo.SaveWithLock(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info("milestone updated",
		zap.String("plan_id", planID.String()),
		zap.Int("sequence", sequence),
		zap.String("plan_status", p.Status.String()),
	)

	s.publishEvents(ctx, p)
	return p, nil
}

// CancelPlan flags a plan cancelled, freezing further milestone transitions
func (s *PlanService) CancelPlan(ctx context.Context, planID uuid.UUID) error {
	p, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return err
	}
	if err := p.Cancel(); err != nil {
		return err
	}
	if err := s.planRepo.SaveWithLock(ctx, p); err != nil {
		return fmt.Errorf("failed to save plan: %w", err)
	}

	s.logger.Info("payment plan cancelled", zap.String("plan_id", planID.String()))
	s.publishEvents(ctx, p)
	return nil
}

// GetPlan loads a plan by ID
func (s *PlanService) GetPlan(ctx context.Context, planID uuid.UUID) (*domainplan.FlatPaymentPlan, error) {
	return s.planRepo.FindByID(ctx, planID)
}

// GetPlanForFlat loads the ACTIVE plan for a flat
func (s *PlanService) GetPlanForFlat(ctx context.Context, flatID uuid.UUID) (*domainplan.FlatPaymentPlan, error) {
	return s.planRepo.FindActiveByFlat(ctx, flatID)
}

// ListPlans lists plans matching the filter
func (s *PlanService) ListPlans(ctx context.Context, filter domainplan.Filter) ([]domainplan.FlatPaymentPlan, int64, error) {
	plans, err := s.planRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.planRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (s *PlanService) publishEvents(ctx context.Context, p *domainplan.FlatPaymentPlan) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, p.GetDomainEvents()...); err != nil {
		s.logger.Warn("failed to publish plan events", zap.Error(err))
	}
	p.ClearDomainEvents()
}
