package plan

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/realtyerp/backend/internal/domain/construction"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
)

func TestCreateTemplate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and saves a valid template", func(t *testing.T) {
		templateRepo := new(MockTemplateRepository)
		svc := NewTemplateService(templateRepo, zap.NewNop())
		templateRepo.On("Save", ctx, mock.AnythingOfType("*plan.Template")).Return(nil)

		tmpl, err := svc.CreateTemplate(ctx, "Standard CLP", "Construction linked plan", domainplan.MilestoneBlueprints{
			{Sequence: 1, Name: "Token", Percentage: decimal.NewFromInt(30)},
			{Sequence: 2, Name: "Handover", ConstructionPhase: phasePtr(construction.PhaseHandover), Percentage: decimal.NewFromInt(70)},
		})

		require.NoError(t, err)
		assert.True(t, tmpl.Active)
		assert.Len(t, tmpl.Blueprints, 2)
		templateRepo.AssertExpectations(t)
	})

	t.Run("percentages must sum to one hundred", func(t *testing.T) {
		templateRepo := new(MockTemplateRepository)
		svc := NewTemplateService(templateRepo, zap.NewNop())

		_, err := svc.CreateTemplate(ctx, "Broken", "", domainplan.MilestoneBlueprints{
			{Sequence: 1, Name: "Token", Percentage: decimal.NewFromInt(30)},
			{Sequence: 2, Name: "Handover", Percentage: decimal.NewFromInt(60)},
		})

		var derr *shared.DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "INVALID_PERCENTAGE_SUM", derr.Code)
		templateRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestDeactivateTemplate(t *testing.T) {
	ctx := context.Background()

	templateRepo := new(MockTemplateRepository)
	svc := NewTemplateService(templateRepo, zap.NewNop())

	tmpl := serviceTemplate(t)
	templateRepo.On("FindByID", ctx, tmpl.ID).Return(tmpl, nil)
	templateRepo.On("Save", ctx, tmpl).Return(nil)

	require.NoError(t, svc.DeactivateTemplate(ctx, tmpl.ID))
	assert.False(t, tmpl.Active)
	templateRepo.AssertExpectations(t)
}
