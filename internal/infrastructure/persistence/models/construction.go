package models

import (
	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/shopspring/decimal"
)

// ConstructionProgressModel is the persistence model for per-flat,
// per-phase construction progress. One row per (flat, phase).
type ConstructionProgressModel struct {
	BaseModel
	FlatID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_progress_flat_phase,priority:1"`
	Phase           construction.Phase          `gorm:"type:varchar(20);not null;uniqueIndex:idx_progress_flat_phase,priority:2"`
	PhaseProgress   decimal.Decimal             `gorm:"type:decimal(5,2);not null;default:0"`
	OverallProgress decimal.Decimal             `gorm:"type:decimal(5,2);not null;default:0"`
	Status          construction.ProgressStatus `gorm:"type:varchar(20);not null;default:'NOT_STARTED'"`
}

// TableName returns the table name for GORM
func (ConstructionProgressModel) TableName() string {
	return "construction_progress"
}

// ToDomain converts the persistence model to a domain Progress record.
func (m *ConstructionProgressModel) ToDomain() *construction.Progress {
	return &construction.Progress{
		BaseEntity:      m.BaseModel.ToDomain(),
		FlatID:          m.FlatID,
		Phase:           m.Phase,
		PhaseProgress:   m.PhaseProgress,
		OverallProgress: m.OverallProgress,
		Status:          m.Status,
	}
}

// FromDomain populates the persistence model from a domain Progress record.
func (m *ConstructionProgressModel) FromDomain(p *construction.Progress) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.FlatID = p.FlatID
	m.Phase = p.Phase
	m.PhaseProgress = p.PhaseProgress
	m.OverallProgress = p.OverallProgress
	m.Status = p.Status
}

// ConstructionProgressModelFromDomain creates a new persistence model from a domain Progress.
func ConstructionProgressModelFromDomain(p *construction.Progress) *ConstructionProgressModel {
	m := &ConstructionProgressModel{}
	m.FromDomain(p)
	return m
}
