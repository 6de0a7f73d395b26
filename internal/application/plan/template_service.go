package plan

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"go.uber.org/zap"
)

// TemplateService manages payment plan templates
type TemplateService struct {
	templateRepo domainplan.TemplateRepository
	logger       *zap.Logger
}

// NewTemplateService creates a new TemplateService
func NewTemplateService(templateRepo domainplan.TemplateRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// CreateTemplate creates a payment plan template from milestone blueprints
func (s *TemplateService) CreateTemplate(
	ctx context.Context,
	name, description string,
	blueprints domainplan.MilestoneBlueprints,
) (*domainplan.Template, error) {
	t, err := domainplan.NewTemplate(name, description, blueprints)
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("payment plan template created",
		zap.String("template_id", t.ID.String()),
		zap.String("name", t.Name),
		zap.Int("milestones", len(t.Blueprints)),
	)
	return t, nil
}

// GetTemplate returns a template by ID
func (s *TemplateService) GetTemplate(ctx context.Context, id uuid.UUID) (*domainplan.Template, error) {
	return s.templateRepo.FindByID(ctx, id)
}

// ListActiveTemplates returns all templates available for plan creation
func (s *TemplateService) ListActiveTemplates(ctx context.Context) ([]domainplan.Template, error) {
	return s.templateRepo.FindAllActive(ctx)
}

// DeactivateTemplate retires a template from further plan creation.
// Plans already instantiated from it are unaffected.
func (s *TemplateService) DeactivateTemplate(ctx context.Context, id uuid.UUID) error {
	t, err := s.templateRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	t.Deactivate()
	if err := s.templateRepo.Save(ctx, t); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("payment plan template deactivated",
		zap.String("template_id", id.String()),
	)
	return nil
}
