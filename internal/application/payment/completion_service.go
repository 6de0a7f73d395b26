package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Result describes the outcome of reconciling one payment
type Result struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	Reconciled       bool      `json:"reconciled"`
	SettledSequences []int     `json:"settled_sequences,omitempty"`
	Remainder        string    `json:"remainder,omitempty"`
	BookingCompleted bool      `json:"booking_completed"`
	PlanCompleted    bool      `json:"plan_completed"`
}

// CompletionService reconciles a recorded payment against the booking's
// installment schedule and the flat's payment plan, keeping the plan,
// booking and milestone ledgers consistent.
//
// A payment is never blocked by downstream accounting gaps: when no
// booking, flat or plan resolves, the payment completes unreconciled.
type CompletionService struct {
	paymentRepo sales.PaymentRepository
	bookingRepo sales.BookingRepository
	planRepo    domainplan.Repository
	events      shared.EventPublisher
	logger      *zap.Logger
}

// NewCompletionService creates a new CompletionService
func NewCompletionService(
	paymentRepo sales.PaymentRepository,
	bookingRepo sales.BookingRepository,
	planRepo domainplan.Repository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *CompletionService {
	return &CompletionService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		planRepo:    planRepo,
		events:      events,
		logger:      logger,
	}
}

// ProcessPayment consumes a recorded payment exactly once: it matches it
// to a schedule entry tied to a TRIGGERED milestone (by name first, then
// sequence; first match wins), applies the amount clamped per entry with
// carry-forward overflow, marks settled entries and milestones PAID and
// recomputes booking and plan totals in the same operation.
func (s *CompletionService) ProcessPayment(ctx context.Context, paymentID uuid.UUID) (*Result, error) {
	pay, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	result := &Result{PaymentID: paymentID}

	if pay.Reconciled {
		s.logger.Info("payment already reconciled, skipping",
			zap.String("payment_id", paymentID.String()),
		)
		result.Reconciled = true
		return result, nil
	}

	booking, err := s.bookingRepo.FindByID(ctx, pay.BookingID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("payment has no resolvable booking, completing without reconciliation",
				zap.String("payment_id", paymentID.String()),
				zap.String("booking_id", pay.BookingID.String()),
			)
			return result, nil
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	p, err := s.planRepo.FindActiveByFlat(ctx, booking.FlatID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("no active plan for flat, completing payment without reconciliation",
				zap.String("payment_id", paymentID.String()),
				zap.String("flat_id", booking.FlatID.String()),
			)
			return result, nil
		}
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	entry, milestone := s.matchEntry(booking, p)
	if entry == nil {
		s.logger.Warn("no schedule entry matches a triggered milestone, completing payment without reconciliation",
			zap.String("payment_id", paymentID.String()),
			zap.String("plan_id", p.ID.String()),
		)
		return result, nil
	}
	s.logger.Debug("payment matched to schedule entry",
		zap.String("payment_id", paymentID.String()),
		zap.Int("entry_sequence", entry.Sequence),
		zap.String("milestone", milestone.Name),
	)

	applied, err := booking.ApplyPayment(entry, pay.Amount)
	if err != nil {
		return nil, err
	}

	for _, seq := range applied.SettledSequences {
		m, err := p.Milestone(seq)
		if err != nil {
			s.logger.Warn("settled schedule entry has no plan milestone",
				zap.String("plan_id", p.ID.String()),
				zap.Int("sequence", seq),
			)
			continue
		}
		if m.Status != domainplan.MilestoneTriggered {
			// Carry-forward can fill an entry whose milestone has not been
			// triggered yet; the milestone stays untouched until it is.
			s.logger.Warn("schedule entry settled ahead of milestone trigger",
				zap.String("plan_id", p.ID.String()),
				zap.Int("sequence", seq),
				zap.String("milestone_status", m.Status.String()),
			)
			continue
		}
		if err := p.MarkMilestonePaid(seq, pay.ID); err != nil {
			s.logger.Error("failed to mark milestone paid",
				zap.String("plan_id", p.ID.String()),
				zap.Int("sequence", seq),
				zap.Error(err),
			)
			continue
		}
		result.SettledSequences = append(result.SettledSequences, seq)
	}

	if !applied.Remainder.IsZero() {
		result.Remainder = applied.Remainder.String()
		s.logger.Warn("payment exceeds outstanding schedule, remainder unapplied",
			zap.String("payment_id", paymentID.String()),
			zap.String("remainder", applied.Remainder.String()),
		)
	}

	if err := s.planRepo.SaveWithLock(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	if err := s.bookingRepo.SaveWithLock(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	pay.MarkReconciled()
	if err := s.paymentRepo.Save(ctx, pay); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	result.Reconciled = true
	result.BookingCompleted = booking.Status == sales.BookingStatusCompleted
	result.PlanCompleted = p.Status == domainplan.StatusCompleted

	s.logger.Info("payment reconciled",
		zap.String("payment_id", paymentID.String()),
		zap.String("plan_id", p.ID.String()),
		zap.Ints("settled_sequences", result.SettledSequences),
		zap.String("plan_paid", p.PaidAmount.String()),
		zap.String("plan_balance", p.BalanceAmount.String()),
		zap.Bool("plan_completed", result.PlanCompleted),
		zap.Bool("booking_completed", result.BookingCompleted),
	)

	if s.events != nil {
		if err := s.events.Publish(ctx, p.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish plan events", zap.Error(err))
		}
	}
	p.ClearDomainEvents()

	return result, nil
}

// matchEntry walks TRIGGERED milestones in sequence order and returns the
// first outstanding schedule entry matching one of them by name or
// sequence.
func (s *CompletionService) matchEntry(booking *sales.Booking, p *domainplan.FlatPaymentPlan) (*sales.InstallmentEntry, *domainplan.Milestone) {
	for i := range p.Milestones {
		m := &p.Milestones[i]
		if m.Status != domainplan.MilestoneTriggered {
			continue
		}
		if entry, ok := booking.MatchScheduleEntry(m.Name, m.Sequence); ok {
			return entry, m
		}
	}
	return nil, nil
}
