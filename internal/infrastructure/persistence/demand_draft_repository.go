package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDemandDraftRepository implements plan.DemandDraftRepository using GORM.
// The one-draft-per-milestone guarantee rests on the unique index over
// (flat_id, milestone_sequence) and the conditional insert in CreateIfAbsent,
// not on any read-then-write check in the application layer.
type GormDemandDraftRepository struct {
	db *gorm.DB
}

// NewGormDemandDraftRepository creates a new GormDemandDraftRepository
func NewGormDemandDraftRepository(db *gorm.DB) *GormDemandDraftRepository {
	return &GormDemandDraftRepository{db: db}
}

// FindByID finds a draft by its ID
func (r *GormDemandDraftRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.DemandDraft, error) {
	var model models.DemandDraftModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMilestone finds the draft for a (flat, milestone sequence) pair
func (r *GormDemandDraftRepository) FindByMilestone(ctx context.Context, flatID uuid.UUID, sequence int) (*plan.DemandDraft, error) {
	var model models.DemandDraftModel
	if err := r.db.WithContext(ctx).
		Where("flat_id = ? AND milestone_sequence = ?", flatID, sequence).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByFlat finds all drafts for a flat in milestone order
func (r *GormDemandDraftRepository) FindByFlat(ctx context.Context, flatID uuid.UUID) ([]plan.DemandDraft, error) {
	var draftModels []models.DemandDraftModel
	if err := r.db.WithContext(ctx).
		Where("flat_id = ?", flatID).
		Order("milestone_sequence ASC").
		Find(&draftModels).Error; err != nil {
		return nil, err
	}
	drafts := make([]plan.DemandDraft, len(draftModels))
	for i, model := range draftModels {
		drafts[i] = *model.ToDomain()
	}
	return drafts, nil
}

// ExistsByMilestone checks whether a draft exists for the (flat, milestone sequence) pair
func (r *GormDemandDraftRepository) ExistsByMilestone(ctx context.Context, flatID uuid.UUID, sequence int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.DemandDraftModel{}).
		Where("flat_id = ? AND milestone_sequence = ?", flatID, sequence).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateIfAbsent inserts the draft unless one already exists for its
// (flat, milestone sequence) pair. ON CONFLICT DO NOTHING makes the check
// and the insert a single atomic statement; RowsAffected == 0 means a
// concurrent or earlier draft won.
func (r *GormDemandDraftRepository) CreateIfAbsent(ctx context.Context, d *plan.DemandDraft) (bool, error) {
	model := models.DemandDraftModelFromDomain(d)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "flat_id"}, {Name: "milestone_sequence"}},
			DoNothing: true,
		}).
		Create(model)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Save updates an existing draft
func (r *GormDemandDraftRepository) Save(ctx context.Context, d *plan.DemandDraft) error {
	model := models.DemandDraftModelFromDomain(d)
	return r.db.WithContext(ctx).Save(model).Error
}

// GenerateDraftNumber generates a unique draft number
func (r *GormDemandDraftRepository) GenerateDraftNumber(ctx context.Context) (string, error) {
	return generateSequentialNumber(ctx, r.db, &models.DemandDraftModel{}, "draft_number", "DD")
}

// Ensure GormDemandDraftRepository implements plan.DemandDraftRepository
var _ plan.DemandDraftRepository = (*GormDemandDraftRepository)(nil)
