package construction

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Phase represents a construction phase of a flat
type Phase string

const (
	PhaseFoundation Phase = "FOUNDATION"
	PhaseStructure  Phase = "STRUCTURE"
	PhaseMEP        Phase = "MEP"
	PhaseFinishing  Phase = "FINISHING"
	PhaseHandover   Phase = "HANDOVER"
)

// AllPhases returns the fixed ordered set of construction phases
func AllPhases() []Phase {
	return []Phase{PhaseFoundation, PhaseStructure, PhaseMEP, PhaseFinishing, PhaseHandover}
}

// IsValid checks if the phase is a known construction phase
func (p Phase) IsValid() bool {
	switch p {
	case PhaseFoundation, PhaseStructure, PhaseMEP, PhaseFinishing, PhaseHandover:
		return true
	}
	return false
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// ProgressStatus represents the lifecycle status of a phase progress record
type ProgressStatus string

const (
	ProgressStatusNotStarted ProgressStatus = "NOT_STARTED"
	ProgressStatusInProgress ProgressStatus = "IN_PROGRESS"
	ProgressStatusCompleted  ProgressStatus = "COMPLETED"
	ProgressStatusOnHold     ProgressStatus = "ON_HOLD"
)

// IsValid checks if the status is a valid ProgressStatus
func (s ProgressStatus) IsValid() bool {
	switch s {
	case ProgressStatusNotStarted, ProgressStatusInProgress,
		ProgressStatusCompleted, ProgressStatusOnHold:
		return true
	}
	return false
}

// String returns the string representation of ProgressStatus
func (s ProgressStatus) String() string {
	return string(s)
}

// Progress is the per-flat, per-phase construction progress record.
// It is written by the external construction-reporting collaborator and
// read by the milestone triggering paths.
type Progress struct {
	shared.BaseEntity
	FlatID          uuid.UUID       `json:"flat_id"`
	Phase           Phase           `json:"phase"`
	PhaseProgress   decimal.Decimal `json:"phase_progress"`   // 0-100
	OverallProgress decimal.Decimal `json:"overall_progress"` // 0-100, as reported
	Status          ProgressStatus  `json:"status"`
}

// NewProgress creates a progress record for a flat and phase
func NewProgress(flatID uuid.UUID, phase Phase, phaseProgress, overallProgress decimal.Decimal, status ProgressStatus) (*Progress, error) {
	if flatID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FLAT", "Flat ID cannot be empty")
	}
	if !phase.IsValid() {
		return nil, shared.NewDomainError("INVALID_PHASE", fmt.Sprintf("Unknown construction phase %q", phase))
	}
	if err := validateProgressValue(phaseProgress); err != nil {
		return nil, err
	}
	if err := validateProgressValue(overallProgress); err != nil {
		return nil, err
	}
	if status == "" {
		status = ProgressStatusNotStarted
	}
	if !status.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown progress status %q", status))
	}

	return &Progress{
		BaseEntity:      shared.NewBaseEntity(),
		FlatID:          flatID,
		Phase:           phase,
		PhaseProgress:   phaseProgress,
		OverallProgress: overallProgress,
		Status:          status,
	}, nil
}

// Update replaces the recorded progress values.
// Progress is monotonic by convention only; regressions are accepted.
func (p *Progress) Update(phaseProgress, overallProgress decimal.Decimal, status ProgressStatus) error {
	if err := validateProgressValue(phaseProgress); err != nil {
		return err
	}
	if err := validateProgressValue(overallProgress); err != nil {
		return err
	}
	if status != "" && !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown progress status %q", status))
	}

	p.PhaseProgress = phaseProgress
	p.OverallProgress = overallProgress
	if status != "" {
		p.Status = status
	}
	p.Touch()
	return nil
}

func validateProgressValue(v decimal.Decimal) error {
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_PROGRESS", fmt.Sprintf("Progress must be between 0 and 100, got %s", v))
	}
	return nil
}

// PhaseSummary is the read model for one phase of a flat
type PhaseSummary struct {
	Progress decimal.Decimal `json:"progress"`
	Status   ProgressStatus  `json:"status"`
}

// Summary is the per-flat construction summary: phase breakdown plus an
// unweighted average of phase progress as the overall figure.
type Summary struct {
	FlatID  uuid.UUID              `json:"flat_id"`
	Phases  map[Phase]PhaseSummary `json:"phases"`
	Overall decimal.Decimal        `json:"overall"`
}

// BuildSummary computes the summary from progress records.
// Each phase counts equally regardless of effort weight. An empty record
// set yields an empty summary, not an error.
func BuildSummary(flatID uuid.UUID, records []Progress) Summary {
	s := Summary{
		FlatID:  flatID,
		Phases:  make(map[Phase]PhaseSummary, len(records)),
		Overall: decimal.Zero,
	}
	if len(records) == 0 {
		return s
	}

	total := decimal.Zero
	for _, r := range records {
		s.Phases[r.Phase] = PhaseSummary{Progress: r.PhaseProgress, Status: r.Status}
		total = total.Add(r.PhaseProgress)
	}
	s.Overall = total.Div(decimal.NewFromInt(int64(len(records)))).Round(2)
	return s
}
