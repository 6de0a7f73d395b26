package construction

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProgressService is the entry point for the external construction
// reporting collaborator. The progress write always succeeds regardless of
// the downstream orchestration outcome.
type ProgressService struct {
	progressRepo construction.ProgressRepository
	orchestrator *WorkflowOrchestrator
	logger       *zap.Logger
}

// NewProgressService creates a new ProgressService. orchestrator may be
// nil, in which case recording is write-only.
func NewProgressService(
	progressRepo construction.ProgressRepository,
	orchestrator *WorkflowOrchestrator,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		progressRepo: progressRepo,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// RecordProgress upserts the per-phase progress record, then runs the
// milestone workflow as a side effect. Orchestration failures never
// surface to the caller.
func (s *ProgressService) RecordProgress(
	ctx context.Context,
	flatID uuid.UUID,
	phase construction.Phase,
	phaseProgress, overallProgress decimal.Decimal,
	status construction.ProgressStatus,
) (*construction.Progress, error) {
	record, err := s.progressRepo.FindByFlatAndPhase(ctx, flatID, phase)
	switch {
	case err == nil:
		if err := record.Update(phaseProgress, overallProgress, status); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		record, err = construction.NewProgress(flatID, phase, phaseProgress, overallProgress, status)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to load progress record: %w", err)
	}

	if err := s.progressRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save progress record: %w", err)
	}

	s.logger.Info("construction progress recorded",
		zap.String("flat_id", flatID.String()),
		zap.String("phase", phase.String()),
		zap.String("phase_progress", phaseProgress.String()),
		zap.String("overall_progress", overallProgress.String()),
	)

	if s.orchestrator != nil {
		s.orchestrator.OnProgressRecorded(ctx, flatID, phase, phaseProgress, overallProgress)
	}

	return record, nil
}

// InitializePhases seeds every construction phase of a flat at
// 0 / NOT_STARTED. Phases that already have a record are left untouched.
func (s *ProgressService) InitializePhases(ctx context.Context, flatID uuid.UUID) error {
	existing, err := s.progressRepo.FindByFlat(ctx, flatID)
	if err != nil {
		return fmt.Errorf("failed to load progress records: %w", err)
	}
	seen := make(map[construction.Phase]bool, len(existing))
	for _, r := range existing {
		seen[r.Phase] = true
	}

	var records []*construction.Progress
	for _, phase := range construction.AllPhases() {
		if seen[phase] {
			continue
		}
		r, err := construction.NewProgress(flatID, phase, decimal.Zero, decimal.Zero, construction.ProgressStatusNotStarted)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	if len(records) == 0 {
		return nil
	}

	if err := s.progressRepo.SaveAll(ctx, records); err != nil {
		return fmt.Errorf("failed to seed progress records: %w", err)
	}

	s.logger.Info("construction phases initialized",
		zap.String("flat_id", flatID.String()),
		zap.Int("phases", len(records)),
	)
	return nil
}

// GetSummary returns the per-phase breakdown plus the unweighted average
// as the flat's overall figure. A flat with no initialized phases yields
// an empty summary, not an error.
func (s *ProgressService) GetSummary(ctx context.Context, flatID uuid.UUID) (construction.Summary, error) {
	records, err := s.progressRepo.FindByFlat(ctx, flatID)
	if err != nil {
		return construction.Summary{}, fmt.Errorf("failed to load progress records: %w", err)
	}
	return construction.BuildSummary(flatID, records), nil
}
