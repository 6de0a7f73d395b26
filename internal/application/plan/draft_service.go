package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DraftData is the snapshot handed to the content composer
type DraftData struct {
	DraftNumber string
	Customer    *sales.Customer
	Flat        *sales.Flat
	Plan        *domainplan.FlatPaymentPlan
	Milestone   *domainplan.Milestone
	DueDate     time.Time
}

// ContentComposer renders the customer-facing demand draft document
type ContentComposer interface {
	Compose(ctx context.Context, data DraftData) (string, error)
}

// GenerationGuard is an optional fast reservation in front of the
// storage-level conditional insert. Reserve returns false when another
// caller already holds the (flat, sequence) slot.
type GenerationGuard interface {
	Reserve(ctx context.Context, flatID uuid.UUID, sequence int) (bool, error)
	Release(ctx context.Context, flatID uuid.UUID, sequence int) error
}

// DraftService generates demand drafts for triggered milestones. Two
// independent callers can race on the same milestone (orchestrator vs
// manual trigger vs scanner); at most one draft per (flat, sequence) is
// guaranteed by the repository's atomic conditional insert, with the
// optional guard as a cheap first line.
type DraftService struct {
	draftRepo    domainplan.DemandDraftRepository
	planRepo     domainplan.Repository
	flatRepo     sales.FlatRepository
	customerRepo sales.CustomerRepository
	composer     ContentComposer
	guard        GenerationGuard
	events       shared.EventPublisher
	logger       *zap.Logger

	dueDateOffset time.Duration
}

// NewDraftService creates a new DraftService. guard may be nil.
func NewDraftService(
	draftRepo domainplan.DemandDraftRepository,
	planRepo domainplan.Repository,
	flatRepo sales.FlatRepository,
	customerRepo sales.CustomerRepository,
	composer ContentComposer,
	guard GenerationGuard,
	events shared.EventPublisher,
	logger *zap.Logger,
) *DraftService {
	return &DraftService{
		draftRepo:     draftRepo,
		planRepo:      planRepo,
		flatRepo:      flatRepo,
		customerRepo:  customerRepo,
		composer:      composer,
		guard:         guard,
		events:        events,
		logger:        logger,
		dueDateOffset: domainplan.DueDateOffset,
	}
}

// SetDueDateOffset overrides the default offset between draft generation
// and the payment due date printed on the letter.
func (s *DraftService) SetDueDateOffset(offset time.Duration) {
	if offset > 0 {
		s.dueDateOffset = offset
	}
}

// Generate creates the demand draft for a triggered milestone unless one
// already exists for its (flat, sequence) pair. On success the draft ID is
// attached to the milestone in memory; persisting the plan is the caller's
// responsibility so the orchestrator can batch all milestone changes into
// one write. Returns (draft, created, error); created is false on the
// idempotent no-op path.
func (s *DraftService) Generate(
	ctx context.Context,
	p *domainplan.FlatPaymentPlan,
	m *domainplan.Milestone,
	autoGenerated bool,
	actorID *uuid.UUID,
) (*domainplan.DemandDraft, bool, error) {
	if s.guard != nil {
		reserved, err := s.guard.Reserve(ctx, p.FlatID, m.Sequence)
		if err != nil {
			// The guard is advisory; the conditional insert below is the
			// authoritative check.
			s.logger.Warn("draft generation guard unavailable",
				zap.String("flat_id", p.FlatID.String()),
				zap.Int("sequence", m.Sequence),
				zap.Error(err),
			)
		} else if !reserved {
			s.logger.Debug("draft generation already reserved, skipping",
				zap.String("flat_id", p.FlatID.String()),
				zap.Int("sequence", m.Sequence),
			)
			return nil, false, nil
		}
	}

	exists, err := s.draftRepo.ExistsByMilestone(ctx, p.FlatID, m.Sequence)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing draft: %w", err)
	}
	if exists {
		return nil, false, nil
	}

	customer, err := s.customerRepo.FindByID(ctx, p.CustomerID)
	if err != nil {
		s.logger.Warn("draft generation aborted: customer not found",
			zap.String("plan_id", p.ID.String()),
			zap.String("customer_id", p.CustomerID.String()),
			zap.Int("sequence", m.Sequence),
		)
		s.release(ctx, p.FlatID, m.Sequence)
		return nil, false, fmt.Errorf("customer %s not found: %w", p.CustomerID, err)
	}

	flat, err := s.flatRepo.FindByID(ctx, p.FlatID)
	if err != nil {
		s.logger.Warn("draft generation aborted: flat not found",
			zap.String("plan_id", p.ID.String()),
			zap.String("flat_id", p.FlatID.String()),
			zap.Int("sequence", m.Sequence),
		)
		s.release(ctx, p.FlatID, m.Sequence)
		return nil, false, fmt.Errorf("flat %s not found: %w", p.FlatID, err)
	}

	draftNumber, err := s.draftRepo.GenerateDraftNumber(ctx)
	if err != nil {
		s.release(ctx, p.FlatID, m.Sequence)
		return nil, false, fmt.Errorf("failed to generate draft number: %w", err)
	}

	dueDate := time.Now().Add(s.dueDateOffset)
	content, err := s.composer.Compose(ctx, DraftData{
		DraftNumber: draftNumber,
		Customer:    customer,
		Flat:        flat,
		Plan:        p,
		Milestone:   m,
		DueDate:     dueDate,
	})
	if err != nil {
		s.release(ctx, p.FlatID, m.Sequence)
		return nil, false, fmt.Errorf("failed to compose draft content: %w", err)
	}

	draft, err := domainplan.NewDemandDraft(
		draftNumber, p.FlatID, p.CustomerID, p.BookingID, p.ID,
		m, content, autoGenerated,
	)
	if err != nil {
		s.release(ctx, p.FlatID, m.Sequence)
		return nil, false, err
	}
	draft.DueDate = dueDate
	if actorID != nil {
		draft.SetTriggeredBy(*actorID)
	}

	created, err := s.draftRepo.CreateIfAbsent(ctx, draft)
	if err != nil {
		s.release(ctx, p.FlatID, m.Sequence)
		return nil, false, fmt.Errorf("failed to persist draft: %w", err)
	}
	if !created {
		s.logger.Info("concurrent draft creation detected, keeping existing draft",
			zap.String("flat_id", p.FlatID.String()),
			zap.Int("sequence", m.Sequence),
		)
		return nil, false, nil
	}

	if err := p.AttachDraft(m.Sequence, draft.ID); err != nil {
		s.logger.Warn("failed to link draft to milestone", zap.Error(err))
	}

	s.logger.Info("demand draft generated",
		zap.String("draft_id", draft.ID.String()),
		zap.String("draft_number", draft.DraftNumber),
		zap.String("flat_id", p.FlatID.String()),
		zap.Int("sequence", m.Sequence),
		zap.String("amount", draft.Amount.String()),
		zap.Bool("auto_generated", draft.AutoGenerated),
	)

	if s.events != nil {
		if err := s.events.Publish(ctx, domainplan.NewDraftGeneratedEvent(draft)); err != nil {
			s.logger.Warn("failed to publish draft event", zap.Error(err))
		}
	}
	return draft, true, nil
}

// release frees the advisory reservation after a failed generation so a
// retry or the reconciliation scanner can attempt again.
func (s *DraftService) release(ctx context.Context, flatID uuid.UUID, sequence int) {
	if s.guard == nil {
		return
	}
	if err := s.guard.Release(ctx, flatID, sequence); err != nil {
		s.logger.Warn("failed to release draft generation reservation",
			zap.String("flat_id", flatID.String()),
			zap.Int("sequence", sequence),
			zap.Error(err),
		)
	}
}

// TriggerDemandDraft is the operator-facing manual trigger. It flips the
// milestone to TRIGGERED bypassing construction thresholds (intended for
// phase-less milestones and overrides), generates the draft and persists
// the plan. Idempotent for milestones already triggered with a draft.
func (s *DraftService) TriggerDemandDraft(
	ctx context.Context,
	planID uuid.UUID,
	sequence int,
	actorID uuid.UUID,
) (*domainplan.DemandDraft, error) {
	p, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	m, err := p.TriggerMilestone(sequence)
	if err != nil {
		return nil, err
	}

	draft, created, err := s.Generate(ctx, p, m, false, &actorID)
	if err != nil {
		// Persist the trigger even when generation failed: a TRIGGERED,
		// draft-less milestone is an observable, recoverable state.
		if saveErr := s.planRepo.SaveWithLock(ctx, p); saveErr != nil {
			s.logger.Error("failed to persist triggered milestone after draft failure",
				zap.String("plan_id", planID.String()),
				zap.Int("sequence", sequence),
				zap.Error(saveErr),
			)
		}
		return nil, err
	}

	if err := s.planRepo.SaveWithLock(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}

	if !created {
		existing, err := s.draftRepo.FindByMilestone(ctx, p.FlatID, sequence)
		if err != nil {
			return nil, err
		}
		return existing, nil
	}
	return draft, nil
}

// GetDraftsForFlat lists all demand drafts for a flat
func (s *DraftService) GetDraftsForFlat(ctx context.Context, flatID uuid.UUID) ([]domainplan.DemandDraft, error) {
	return s.draftRepo.FindByFlat(ctx, flatID)
}

// GetDraft loads a draft by ID
func (s *DraftService) GetDraft(ctx context.Context, draftID uuid.UUID) (*domainplan.DemandDraft, error) {
	return s.draftRepo.FindByID(ctx, draftID)
}
