package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	planapp "github.com/realtyerp/backend/internal/application/plan"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
	"github.com/realtyerp/backend/internal/interfaces/http/dto"
)

// PlanHandler handles flat payment plan API endpoints
type PlanHandler struct {
	BaseHandler
	planService  *planapp.PlanService
	draftService *planapp.DraftService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *planapp.PlanService, draftService *planapp.DraftService) *PlanHandler {
	return &PlanHandler{
		planService:  planService,
		draftService: draftService,
	}
}

// CreatePlanRequest represents a request to create a flat payment plan
type CreatePlanRequest struct {
	FlatID      string  `json:"flat_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	BookingID   string  `json:"booking_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	CustomerID  string  `json:"customer_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	TemplateID  string  `json:"template_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440003"`
	TotalAmount float64 `json:"total_amount" binding:"required,gt=0" example:"8000000"`
}

// UpdateMilestoneRequest represents a partial milestone update
type UpdateMilestoneRequest struct {
	Name        *string `json:"name" example:"On Possession"`
	Description *string `json:"description" example:"Payable at handover"`
	Status      *string `json:"status" example:"TRIGGERED"`
}

// MilestoneResponse represents a milestone in API responses
type MilestoneResponse struct {
	Sequence          int     `json:"sequence"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	ConstructionPhase *string `json:"construction_phase,omitempty"`
	PhasePercentage   *string `json:"phase_percentage,omitempty"`
	Amount            string  `json:"amount"`
	Status            string  `json:"status"`
	DemandDraftID     *string `json:"demand_draft_id,omitempty"`
	PaymentID         *string `json:"payment_id,omitempty"`
	TriggeredAt       *string `json:"triggered_at,omitempty"`
	CompletedAt       *string `json:"completed_at,omitempty"`
}

// PlanResponse represents a flat payment plan in API responses
type PlanResponse struct {
	ID            string              `json:"id"`
	PlanNumber    string              `json:"plan_number"`
	FlatID        string              `json:"flat_id"`
	BookingID     string              `json:"booking_id"`
	CustomerID    string              `json:"customer_id"`
	TemplateID    string              `json:"template_id"`
	TotalAmount   string              `json:"total_amount"`
	PaidAmount    string              `json:"paid_amount"`
	BalanceAmount string              `json:"balance_amount"`
	Milestones    []MilestoneResponse `json:"milestones"`
	Status        string              `json:"status"`
	CancelledAt   *string             `json:"cancelled_at,omitempty"`
	CompletedAt   *string             `json:"completed_at,omitempty"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func formatUUIDPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toMilestoneResponse(m *domainplan.Milestone) MilestoneResponse {
	resp := MilestoneResponse{
		Sequence:      m.Sequence,
		Name:          m.Name,
		Description:   m.Description,
		Amount:        m.Amount.String(),
		Status:        m.Status.String(),
		DemandDraftID: formatUUIDPtr(m.DemandDraftID),
		PaymentID:     formatUUIDPtr(m.PaymentID),
		TriggeredAt:   formatTimePtr(m.TriggeredAt),
		CompletedAt:   formatTimePtr(m.CompletedAt),
	}
	if m.ConstructionPhase != nil {
		phase := m.ConstructionPhase.String()
		resp.ConstructionPhase = &phase
	}
	if m.PhasePercentage != nil {
		threshold := m.PhasePercentage.String()
		resp.PhasePercentage = &threshold
	}
	return resp
}

func toPlanResponse(p *domainplan.FlatPaymentPlan) PlanResponse {
	milestones := make([]MilestoneResponse, 0, len(p.Milestones))
	for i := range p.Milestones {
		milestones = append(milestones, toMilestoneResponse(&p.Milestones[i]))
	}
	return PlanResponse{
		ID:            p.ID.String(),
		PlanNumber:    p.PlanNumber,
		FlatID:        p.FlatID.String(),
		BookingID:     p.BookingID.String(),
		CustomerID:    p.CustomerID.String(),
		TemplateID:    p.TemplateID.String(),
		TotalAmount:   p.TotalAmount.String(),
		PaidAmount:    p.PaidAmount.String(),
		BalanceAmount: p.BalanceAmount.String(),
		Milestones:    milestones,
		Status:        p.Status.String(),
		CancelledAt:   formatTimePtr(p.CancelledAt),
		CompletedAt:   formatTimePtr(p.CompletedAt),
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

// CreatePlan godoc
// @ID           createPlan
// @Summary      Create a flat payment plan
// @Description  Instantiates a payment plan from a template for a booked flat. One plan per (flat, booking) pair.
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        request body CreatePlanRequest true "Plan parameters"
// @Success      201 {object} APIResponse[PlanResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	flatID := uuid.MustParse(req.FlatID)
	bookingID := uuid.MustParse(req.BookingID)
	customerID := uuid.MustParse(req.CustomerID)
	templateID := uuid.MustParse(req.TemplateID)

	p, err := h.planService.CreatePlan(
		c.Request.Context(),
		flatID, bookingID, customerID, templateID,
		toDecimal(req.TotalAmount),
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPlanResponse(p))
}

// GetPlan godoc
// @ID           getPlan
// @Summary      Get a flat payment plan
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID"
// @Success      200 {object} APIResponse[PlanResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid plan ID")
		return
	}

	p, err := h.planService.GetPlan(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPlanResponse(p))
}

// ListPlans godoc
// @ID           listPlans
// @Summary      List flat payment plans
// @Tags         plans
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        status query string false "Filter by plan status"
// @Param        flat_id query string false "Filter by flat"
// @Param        customer_id query string false "Filter by customer"
// @Success      200 {object} APIResponse[[]PlanResponse]
// @Router       /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var listReq dto.ListRequest
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	listReq = listReq.WithDefaults()

	filter := domainplan.Filter{
		Filter: shared.Filter{
			Page:     listReq.Page,
			PageSize: listReq.PageSize,
			OrderBy:  listReq.OrderBy,
			OrderDir: listReq.OrderDir,
		},
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := domainplan.Status(statusStr)
		if !status.IsValid() {
			h.BadRequest(c, "unknown plan status: "+statusStr)
			return
		}
		filter.Status = &status
	}
	if flatIDStr := c.Query("flat_id"); flatIDStr != "" {
		flatID, err := uuid.Parse(flatIDStr)
		if err != nil {
			h.BadRequest(c, "invalid flat_id")
			return
		}
		filter.FlatID = &flatID
	}
	if customerIDStr := c.Query("customer_id"); customerIDStr != "" {
		customerID, err := uuid.Parse(customerIDStr)
		if err != nil {
			h.BadRequest(c, "invalid customer_id")
			return
		}
		filter.CustomerID = &customerID
	}

	plans, total, err := h.planService.ListPlans(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		responses = append(responses, toPlanResponse(&plans[i]))
	}
	h.SuccessWithMeta(c, responses, total, listReq.Page, listReq.PageSize)
}

// GetPlanForFlat godoc
// @ID           getPlanForFlat
// @Summary      Get the active payment plan of a flat
// @Tags         plans
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      200 {object} APIResponse[PlanResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /flats/{id}/plan [get]
func (h *PlanHandler) GetPlanForFlat(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	p, err := h.planService.GetPlanForFlat(c.Request.Context(), flatID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPlanResponse(p))
}

// UpdateMilestone godoc
// @ID           updatePlanMilestone
// @Summary      Update a plan milestone
// @Description  Merges a partial update into a milestone; paid/balance totals are recomputed from the full milestone set
// @Tags         plans
// @Accept       json
// @Produce      json
// @Param        id path string true "Plan ID"
// @Param        sequence path int true "Milestone sequence"
// @Param        request body UpdateMilestoneRequest true "Fields to update"
// @Success      200 {object} APIResponse[PlanResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id}/milestones/{sequence} [patch]
func (h *PlanHandler) UpdateMilestone(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid plan ID")
		return
	}
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil || sequence < 1 {
		h.BadRequest(c, "invalid milestone sequence")
		return
	}

	var req UpdateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	update := domainplan.MilestoneUpdate{
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Status != nil {
		status := domainplan.MilestoneStatus(*req.Status)
		if !status.IsValid() {
			h.BadRequest(c, "unknown milestone status: "+*req.Status)
			return
		}
		update.Status = &status
	}

	p, err := h.planService.UpdateMilestone(c.Request.Context(), id, sequence, update)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPlanResponse(p))
}

// CancelPlan godoc
// @ID           cancelPlan
// @Summary      Cancel a flat payment plan
// @Description  Freezes the plan; further milestone transitions are rejected
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id} [delete]
func (h *PlanHandler) CancelPlan(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid plan ID")
		return
	}

	if err := h.planService.CancelPlan(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// TriggerDemandDraft godoc
// @ID           triggerDemandDraft
// @Summary      Manually trigger a milestone and generate its demand draft
// @Description  Flips the milestone to TRIGGERED bypassing construction thresholds. Requires the X-User-ID header to record the actor. Idempotent for already-triggered milestones.
// @Tags         plans
// @Produce      json
// @Param        id path string true "Plan ID"
// @Param        sequence path int true "Milestone sequence"
// @Param        X-User-ID header string true "Acting user ID"
// @Success      201 {object} APIResponse[DraftResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id}/milestones/{sequence}/draft [post]
func (h *PlanHandler) TriggerDemandDraft(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid plan ID")
		return
	}
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil || sequence < 1 {
		h.BadRequest(c, "invalid milestone sequence")
		return
	}

	actorID, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	draft, err := h.draftService.TriggerDemandDraft(c.Request.Context(), id, sequence, actorID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toDraftResponse(draft))
}

// RegisterRoutes registers all plan routes
func (h *PlanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	plans := rg.Group("/plans")
	{
		plans.POST("", h.CreatePlan)
		plans.GET("", h.ListPlans)
		plans.GET("/:id", h.GetPlan)
		plans.DELETE("/:id", h.CancelPlan)
		plans.PATCH("/:id/milestones/:sequence", h.UpdateMilestone)
		plans.POST("/:id/milestones/:sequence/draft", h.TriggerDemandDraft)
	}
	rg.GET("/flats/:id/plan", h.GetPlanForFlat)
}
