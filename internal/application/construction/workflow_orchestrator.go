package construction

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appplan "github.com/realtyerp/backend/internal/application/plan"
	"github.com/realtyerp/backend/internal/domain/construction"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WorkflowOrchestrator is the synchronous trigger path: it runs immediately
// after a construction progress write, evaluates the flat's active plan and
// requests demand drafts for newly qualifying milestones.
//
// Every step is best-effort. The progress write that invoked the
// orchestrator has already succeeded and must stay successful; failures
// here are logged and left for the reconciliation scanner or a manual
// trigger to recover.
type WorkflowOrchestrator struct {
	planRepo     domainplan.Repository
	flatRepo     sales.FlatRepository
	draftService *appplan.DraftService
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewWorkflowOrchestrator creates a new WorkflowOrchestrator
func NewWorkflowOrchestrator(
	planRepo domainplan.Repository,
	flatRepo sales.FlatRepository,
	draftService *appplan.DraftService,
	events shared.EventPublisher,
	logger *zap.Logger,
) *WorkflowOrchestrator {
	return &WorkflowOrchestrator{
		planRepo:     planRepo,
		flatRepo:     flatRepo,
		draftService: draftService,
		events:       events,
		logger:       logger,
	}
}

// OnProgressRecorded runs the milestone workflow for a freshly recorded
// progress update. It never returns an error to the caller; the returned
// count is the number of milestones newly triggered (for observability).
func (o *WorkflowOrchestrator) OnProgressRecorded(
	ctx context.Context,
	flatID uuid.UUID,
	phase construction.Phase,
	phaseProgress, overallProgress decimal.Decimal,
) int {
	o.updateFlatState(ctx, flatID, phase, overallProgress)

	p, err := o.planRepo.FindActiveByFlat(ctx, flatID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// Flat not sold or no plan yet: nothing to do.
			o.logger.Debug("no active plan for flat, skipping milestone evaluation",
				zap.String("flat_id", flatID.String()),
			)
		} else {
			o.logger.Error("failed to load active plan",
				zap.String("flat_id", flatID.String()),
				zap.Error(err),
			)
		}
		return 0
	}

	triggered, err := p.ApplyProgress(phase, phaseProgress)
	if err != nil {
		o.logger.Warn("milestone evaluation rejected",
			zap.String("plan_id", p.ID.String()),
			zap.Error(err),
		)
		return 0
	}
	if len(triggered) == 0 {
		return 0
	}

	for _, m := range triggered {
		o.logger.Info("milestone triggered by construction progress",
			zap.String("plan_id", p.ID.String()),
			zap.String("flat_id", flatID.String()),
			zap.Int("sequence", m.Sequence),
			zap.String("milestone", m.Name),
			zap.String("phase", phase.String()),
			zap.String("phase_progress", phaseProgress.String()),
		)
	}
	return o.generateAndPersist(ctx, p, triggered)
}

// ReconcileMatches acts on the reconciliation scanner's findings: each
// match is a PENDING milestone whose phase threshold is already met but
// that the synchronous workflow missed. Plans are reloaded so triggering
// runs against current state, not the scan snapshot. Returns the number
// of milestones newly triggered; failures are logged and left for the
// next scan.
func (o *WorkflowOrchestrator) ReconcileMatches(ctx context.Context, matches []Match) int {
	byPlan := make(map[uuid.UUID][]Match)
	planOrder := make([]uuid.UUID, 0, len(matches))
	for _, match := range matches {
		if _, ok := byPlan[match.Plan.ID]; !ok {
			planOrder = append(planOrder, match.Plan.ID)
		}
		byPlan[match.Plan.ID] = append(byPlan[match.Plan.ID], match)
	}

	total := 0
	for _, planID := range planOrder {
		total += o.reconcilePlan(ctx, planID, byPlan[planID])
	}
	return total
}

func (o *WorkflowOrchestrator) reconcilePlan(ctx context.Context, planID uuid.UUID, matches []Match) int {
	p, err := o.planRepo.FindByID(ctx, planID)
	if err != nil {
		o.logger.Error("failed to reload plan for reconciliation",
			zap.String("plan_id", planID.String()),
			zap.Error(err),
		)
		return 0
	}

	var triggered []*domainplan.Milestone
	seenPhases := make(map[construction.Phase]bool)
	for _, match := range matches {
		phase := match.Progress.Phase
		if seenPhases[phase] {
			continue
		}
		seenPhases[phase] = true

		ms, err := p.ApplyProgress(phase, match.Progress.PhaseProgress)
		if err != nil {
			o.logger.Warn("reconciliation trigger rejected",
				zap.String("plan_id", p.ID.String()),
				zap.String("phase", phase.String()),
				zap.Error(err),
			)
			continue
		}
		triggered = append(triggered, ms...)
	}
	if len(triggered) == 0 {
		return 0
	}

	for _, m := range triggered {
		o.logger.Info("milestone triggered by reconciliation scan",
			zap.String("plan_id", p.ID.String()),
			zap.String("flat_id", p.FlatID.String()),
			zap.Int("sequence", m.Sequence),
			zap.String("milestone", m.Name),
		)
	}
	return o.generateAndPersist(ctx, p, triggered)
}

// generateAndPersist requests drafts for freshly triggered milestones and
// writes the plan back in a single optimistic update.
func (o *WorkflowOrchestrator) generateAndPersist(
	ctx context.Context,
	p *domainplan.FlatPaymentPlan,
	triggered []*domainplan.Milestone,
) int {
	for _, m := range triggered {
		if _, _, err := o.draftService.Generate(ctx, p, m, true, nil); err != nil {
			// The milestone stays TRIGGERED and draft-less: observable,
			// queryable and recoverable by manual trigger.
			o.logger.Error("demand draft generation failed",
				zap.String("plan_id", p.ID.String()),
				zap.Int("sequence", m.Sequence),
				zap.Error(err),
			)
		}
	}

	// All milestone changes, including draft links, land in one write.
	if err := o.planRepo.SaveWithLock(ctx, p); err != nil {
		o.logger.Error("failed to persist plan after milestone triggers",
			zap.String("plan_id", p.ID.String()),
			zap.Error(err),
		)
		return 0
	}

	if o.events != nil {
		if err := o.events.Publish(ctx, p.GetDomainEvents()...); err != nil {
			o.logger.Warn("failed to publish milestone events", zap.Error(err))
		}
	}
	p.ClearDomainEvents()

	return len(triggered)
}

// updateFlatState pushes the reported phase and overall progress onto the
// flat's denormalized construction fields. Failures are logged only.
func (o *WorkflowOrchestrator) updateFlatState(
	ctx context.Context,
	flatID uuid.UUID,
	phase construction.Phase,
	overallProgress decimal.Decimal,
) {
	flat, err := o.flatRepo.FindByID(ctx, flatID)
	if err != nil {
		o.logger.Warn("failed to load flat for construction state update",
			zap.String("flat_id", flatID.String()),
			zap.Error(err),
		)
		return
	}
	flat.UpdateConstructionState(phase, overallProgress)
	if err := o.flatRepo.Save(ctx, flat); err != nil {
		o.logger.Warn("failed to update flat construction state",
			zap.String("flat_id", flatID.String()),
			zap.Error(err),
		)
	}
}
