package construction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Match is one qualifying (plan, milestone, progress) triple found by the
// detection sweep
type Match struct {
	Plan      domainplan.FlatPaymentPlan `json:"plan"`
	Milestone domainplan.Milestone       `json:"milestone"`
	Progress  construction.Progress      `json:"progress"`
}

// DetectionService is the reconciliation scanner: a stateless,
// read-then-decide sweep that re-derives the orchestrator's triggering
// predicate from current data. It mutates nothing and is safe to run
// arbitrarily often; callers decide what to do with matches.
type DetectionService struct {
	planRepo     domainplan.Repository
	progressRepo construction.ProgressRepository
	logger       *zap.Logger
}

// NewDetectionService creates a new DetectionService
func NewDetectionService(
	planRepo domainplan.Repository,
	progressRepo construction.ProgressRepository,
	logger *zap.Logger,
) *DetectionService {
	return &DetectionService{
		planRepo:     planRepo,
		progressRepo: progressRepo,
		logger:       logger,
	}
}

// DetectMilestones sweeps every ACTIVE plan in the portfolio
func (s *DetectionService) DetectMilestones(ctx context.Context) ([]Match, error) {
	plans, err := s.planRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active plans: %w", err)
	}

	var matches []Match
	for i := range plans {
		planMatches, err := s.detectForPlan(ctx, &plans[i])
		if err != nil {
			// A single broken flat must not abort the portfolio sweep.
			s.logger.Warn("milestone detection failed for plan",
				zap.String("plan_id", plans[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		matches = append(matches, planMatches...)
	}

	s.logger.Info("milestone detection sweep finished",
		zap.Int("plans", len(plans)),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// DetectMilestonesForFlat sweeps the ACTIVE plan of a single flat
func (s *DetectionService) DetectMilestonesForFlat(ctx context.Context, flatID uuid.UUID) ([]Match, error) {
	p, err := s.planRepo.FindActiveByFlat(ctx, flatID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.detectForPlan(ctx, p)
}

func (s *DetectionService) detectForPlan(ctx context.Context, p *domainplan.FlatPaymentPlan) ([]Match, error) {
	var matches []Match
	// One progress record per phase; fetched lazily and cached so plans
	// with several milestones on one phase read it once.
	progressByPhase := make(map[construction.Phase]*construction.Progress)

	for i := range p.Milestones {
		m := &p.Milestones[i]
		if m.Status != domainplan.MilestonePending || m.IsManual() {
			continue
		}

		phase := *m.ConstructionPhase
		record, ok := progressByPhase[phase]
		if !ok {
			var err error
			record, err = s.progressRepo.FindByFlatAndPhase(ctx, p.FlatID, phase)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					progressByPhase[phase] = nil
					continue
				}
				return nil, err
			}
			progressByPhase[phase] = record
		}
		if record == nil {
			continue
		}

		if m.QualifiesForTrigger(phase, record.PhaseProgress) {
			matches = append(matches, Match{
				Plan:      *p,
				Milestone: *m,
				Progress:  *record,
			})
		}
	}
	return matches, nil
}

// CanTriggerMilestone answers the manual-trigger UI's yes/no question:
// true when the milestone is PENDING and either phase-less (always
// manually triggerable) or its phase threshold is already met.
func (s *DetectionService) CanTriggerMilestone(ctx context.Context, planID uuid.UUID, sequence int) (bool, error) {
	p, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return false, err
	}
	m, err := p.Milestone(sequence)
	if err != nil {
		return false, err
	}
	if m.Status != domainplan.MilestonePending {
		return false, nil
	}
	if m.IsManual() {
		return true, nil
	}

	record, err := s.progressRepo.FindByFlatAndPhase(ctx, p.FlatID, *m.ConstructionPhase)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.QualifiesForTrigger(*m.ConstructionPhase, record.PhaseProgress), nil
}
