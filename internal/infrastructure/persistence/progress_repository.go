package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/construction"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProgressRepository implements construction.ProgressRepository using GORM
type GormProgressRepository struct {
	db *gorm.DB
}

// NewGormProgressRepository creates a new GormProgressRepository
func NewGormProgressRepository(db *gorm.DB) *GormProgressRepository {
	return &GormProgressRepository{db: db}
}

// FindByFlatAndPhase finds the progress record for a flat and phase
func (r *GormProgressRepository) FindByFlatAndPhase(ctx context.Context, flatID uuid.UUID, phase construction.Phase) (*construction.Progress, error) {
	var model models.ConstructionProgressModel
	if err := r.db.WithContext(ctx).
		Where("flat_id = ? AND phase = ?", flatID, phase).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFlat finds all progress records for a flat in phase order
func (r *GormProgressRepository) FindByFlat(ctx context.Context, flatID uuid.UUID) ([]construction.Progress, error) {
	var progressModels []models.ConstructionProgressModel
	if err := r.db.WithContext(ctx).
		Where("flat_id = ?", flatID).
		Find(&progressModels).Error; err != nil {
		return nil, err
	}

	// Order by the fixed phase sequence rather than insertion order
	byPhase := make(map[construction.Phase]*construction.Progress, len(progressModels))
	for i := range progressModels {
		byPhase[progressModels[i].Phase] = progressModels[i].ToDomain()
	}
	records := make([]construction.Progress, 0, len(progressModels))
	for _, phase := range construction.AllPhases() {
		if p, ok := byPhase[phase]; ok {
			records = append(records, *p)
		}
	}
	return records, nil
}

// Save creates or updates a progress record
func (r *GormProgressRepository) Save(ctx context.Context, progress *construction.Progress) error {
	model := models.ConstructionProgressModelFromDomain(progress)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll persists a batch of progress records
func (r *GormProgressRepository) SaveAll(ctx context.Context, records []*construction.Progress) error {
	if len(records) == 0 {
		return nil
	}
	progressModels := make([]*models.ConstructionProgressModel, len(records))
	for i, p := range records {
		progressModels[i] = models.ConstructionProgressModelFromDomain(p)
	}
	return r.db.WithContext(ctx).Save(progressModels).Error
}

// DeleteByFlat removes all progress records for a flat
func (r *GormProgressRepository) DeleteByFlat(ctx context.Context, flatID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ConstructionProgressModel{}, "flat_id = ?", flatID).Error
}

// Ensure GormProgressRepository implements construction.ProgressRepository
var _ construction.ProgressRepository = (*GormProgressRepository)(nil)
