package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	planapp "github.com/realtyerp/backend/internal/application/plan"
	"github.com/realtyerp/backend/internal/domain/construction"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
)

// TemplateHandler handles payment plan template API endpoints
type TemplateHandler struct {
	BaseHandler
	templateService *planapp.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templateService *planapp.TemplateService) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

// MilestoneBlueprintRequest represents one milestone definition in a
// template creation request
type MilestoneBlueprintRequest struct {
	Sequence          int      `json:"sequence" binding:"required,min=1" example:"1"`
	Name              string   `json:"name" binding:"required,min=1,max=100" example:"On Booking"`
	Description       string   `json:"description" example:"Payable at booking"`
	ConstructionPhase *string  `json:"construction_phase" example:"STRUCTURE"`
	PhasePercentage   *float64 `json:"phase_percentage" example:"100"`
	Percentage        float64  `json:"percentage" binding:"required,gt=0,lte=100" example:"20"`
}

// CreateTemplateRequest represents a request to create a payment plan template
type CreateTemplateRequest struct {
	Name        string                      `json:"name" binding:"required,min=1,max=100" example:"Standard 20-80"`
	Description string                      `json:"description" example:"20% on booking, 80% on possession"`
	Blueprints  []MilestoneBlueprintRequest `json:"blueprints" binding:"required,min=1,dive"`
}

// TemplateResponse represents a template in API responses
type TemplateResponse struct {
	ID          string                        `json:"id"`
	Name        string                        `json:"name"`
	Description string                        `json:"description,omitempty"`
	Blueprints  domainplan.MilestoneBlueprints `json:"blueprints"`
	Active      bool                          `json:"active"`
	CreatedAt   string                        `json:"created_at"`
	UpdatedAt   string                        `json:"updated_at"`
}

func toTemplateResponse(t *domainplan.Template) TemplateResponse {
	return TemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		Blueprints:  t.Blueprints,
		Active:      t.Active,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateTemplate godoc
// @ID           createTemplate
// @Summary      Create a payment plan template
// @Description  Creates a milestone template that flat payment plans are instantiated from
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        request body CreateTemplateRequest true "Template definition"
// @Success      201 {object} APIResponse[TemplateResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	blueprints := make(domainplan.MilestoneBlueprints, 0, len(req.Blueprints))
	for _, b := range req.Blueprints {
		blueprint := domainplan.MilestoneBlueprint{
			Sequence:    b.Sequence,
			Name:        b.Name,
			Description: b.Description,
			Percentage:  toDecimal(b.Percentage),
		}
		if b.ConstructionPhase != nil {
			phase := construction.Phase(*b.ConstructionPhase)
			if !phase.IsValid() {
				h.BadRequest(c, "unknown construction phase: "+*b.ConstructionPhase)
				return
			}
			blueprint.ConstructionPhase = &phase
		}
		if b.PhasePercentage != nil {
			blueprint.PhasePercentage = toDecimalPtr(*b.PhasePercentage)
		}
		blueprints = append(blueprints, blueprint)
	}

	t, err := h.templateService.CreateTemplate(c.Request.Context(), req.Name, req.Description, blueprints)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toTemplateResponse(t))
}

// GetTemplate godoc
// @ID           getTemplate
// @Summary      Get a payment plan template
// @Tags         templates
// @Produce      json
// @Param        id path string true "Template ID"
// @Success      200 {object} APIResponse[TemplateResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid template ID")
		return
	}

	t, err := h.templateService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toTemplateResponse(t))
}

// ListTemplates godoc
// @ID           listTemplates
// @Summary      List active payment plan templates
// @Tags         templates
// @Produce      json
// @Success      200 {object} APIResponse[[]TemplateResponse]
// @Router       /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateService.ListActiveTemplates(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, toTemplateResponse(&templates[i]))
	}
	h.Success(c, responses)
}

// DeactivateTemplate godoc
// @ID           deactivateTemplate
// @Summary      Deactivate a payment plan template
// @Description  Retires a template from further plan creation; existing plans are unaffected
// @Tags         templates
// @Produce      json
// @Param        id path string true "Template ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /templates/{id} [delete]
func (h *TemplateHandler) DeactivateTemplate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid template ID")
		return
	}

	if err := h.templateService.DeactivateTemplate(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers all template routes
func (h *TemplateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	templates := rg.Group("/templates")
	{
		templates.POST("", h.CreateTemplate)
		templates.GET("", h.ListTemplates)
		templates.GET("/:id", h.GetTemplate)
		templates.DELETE("/:id", h.DeactivateTemplate)
	}
}
