package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPlanTemplateRepository implements plan.TemplateRepository using GORM
type GormPlanTemplateRepository struct {
	db *gorm.DB
}

// NewGormPlanTemplateRepository creates a new GormPlanTemplateRepository
func NewGormPlanTemplateRepository(db *gorm.DB) *GormPlanTemplateRepository {
	return &GormPlanTemplateRepository{db: db}
}

// FindByID finds a template by its ID
func (r *GormPlanTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*plan.Template, error) {
	var model models.PlanTemplateModel
	if err := r.db.WithContext(ctx).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllActive finds all active templates
func (r *GormPlanTemplateRepository) FindAllActive(ctx context.Context) ([]plan.Template, error) {
	var templateModels []models.PlanTemplateModel
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&templateModels).Error; err != nil {
		return nil, err
	}
	templates := make([]plan.Template, len(templateModels))
	for i, model := range templateModels {
		templates[i] = *model.ToDomain()
	}
	return templates, nil
}

// Save creates or updates a template
func (r *GormPlanTemplateRepository) Save(ctx context.Context, t *plan.Template) error {
	model := models.PlanTemplateModelFromDomain(t)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormPlanTemplateRepository implements plan.TemplateRepository
var _ plan.TemplateRepository = (*GormPlanTemplateRepository)(nil)
