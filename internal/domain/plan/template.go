package plan

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MilestoneBlueprint is one milestone definition within a payment plan
// template. A nil ConstructionPhase marks a manually triggered milestone
// (e.g. token or down payment). A nil PhasePercentage defaults to 100.
type MilestoneBlueprint struct {
	Sequence          int                 `json:"sequence"`
	Name              string              `json:"name"`
	Description       string              `json:"description,omitempty"`
	ConstructionPhase *construction.Phase `json:"construction_phase,omitempty"`
	PhasePercentage   *decimal.Decimal    `json:"phase_percentage,omitempty"`
	Percentage        decimal.Decimal     `json:"percentage"` // share of total price
}

// MilestoneBlueprints is a slice of MilestoneBlueprint stored as JSONB
type MilestoneBlueprints []MilestoneBlueprint

// Value implements driver.Valuer for JSONB storage
func (b MilestoneBlueprints) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB storage
func (b *MilestoneBlueprints) Scan(value interface{}) error {
	if value == nil {
		*b = MilestoneBlueprints{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan MilestoneBlueprints: unsupported type")
	}
	if len(bytes) == 0 {
		*b = MilestoneBlueprints{}
		return nil
	}
	return json.Unmarshal(bytes, b)
}

// Template is an ordered list of milestone blueprints a flat payment plan
// is instantiated from. Templates are immutable once referenced by a plan.
type Template struct {
	shared.BaseAggregateRoot
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Blueprints  MilestoneBlueprints `json:"blueprints"`
	Active      bool                `json:"active"`
}

// NewTemplate creates a payment plan template after validating its blueprints
func NewTemplate(name, description string, blueprints MilestoneBlueprints) (*Template, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name cannot be empty")
	}
	if err := validateBlueprints(blueprints); err != nil {
		return nil, err
	}

	return &Template{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		Blueprints:        blueprints,
		Active:            true,
	}, nil
}

// Deactivate retires the template from further plan creation
func (t *Template) Deactivate() {
	t.Active = false
	t.Touch()
	t.IncrementVersion()
}

func validateBlueprints(blueprints MilestoneBlueprints) error {
	if len(blueprints) == 0 {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template must define at least one milestone")
	}

	seen := make(map[int]bool, len(blueprints))
	sum := decimal.Zero
	for i, bp := range blueprints {
		if bp.Sequence != i+1 {
			return shared.NewDomainError("INVALID_SEQUENCE",
				fmt.Sprintf("Milestone sequences must be contiguous from 1, got %d at position %d", bp.Sequence, i+1))
		}
		if seen[bp.Sequence] {
			return shared.NewDomainError("DUPLICATE_SEQUENCE",
				fmt.Sprintf("Duplicate milestone sequence %d", bp.Sequence))
		}
		seen[bp.Sequence] = true

		if bp.Name == "" {
			return shared.NewDomainError("INVALID_MILESTONE_NAME",
				fmt.Sprintf("Milestone %d has no name", bp.Sequence))
		}
		if !bp.Percentage.IsPositive() {
			return shared.NewDomainError("INVALID_PERCENTAGE",
				fmt.Sprintf("Milestone %d percentage must be positive", bp.Sequence))
		}
		if bp.ConstructionPhase != nil && !bp.ConstructionPhase.IsValid() {
			return shared.NewDomainError("INVALID_PHASE",
				fmt.Sprintf("Milestone %d references unknown phase %q", bp.Sequence, *bp.ConstructionPhase))
		}
		if bp.PhasePercentage != nil {
			if !bp.PhasePercentage.IsPositive() || bp.PhasePercentage.GreaterThan(decimal.NewFromInt(100)) {
				return shared.NewDomainError("INVALID_THRESHOLD",
					fmt.Sprintf("Milestone %d phase threshold must be in (0, 100]", bp.Sequence))
			}
		}
		sum = sum.Add(bp.Percentage)
	}

	if !sum.Equal(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_PERCENTAGE_SUM",
			fmt.Sprintf("Milestone percentages must sum to 100, got %s", sum))
	}
	return nil
}
