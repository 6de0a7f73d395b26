package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	constructionapp "github.com/realtyerp/backend/internal/application/construction"
	"github.com/realtyerp/backend/internal/domain/construction"
)

// ConstructionHandler handles construction progress API endpoints
type ConstructionHandler struct {
	BaseHandler
	progressService  *constructionapp.ProgressService
	detectionService *constructionapp.DetectionService
}

// NewConstructionHandler creates a new ConstructionHandler
func NewConstructionHandler(
	progressService *constructionapp.ProgressService,
	detectionService *constructionapp.DetectionService,
) *ConstructionHandler {
	return &ConstructionHandler{
		progressService:  progressService,
		detectionService: detectionService,
	}
}

// RecordProgressRequest represents a construction progress report
type RecordProgressRequest struct {
	Phase           string  `json:"phase" binding:"required" example:"STRUCTURE"`
	PhaseProgress   float64 `json:"phase_progress" binding:"gte=0,lte=100" example:"65.5"`
	OverallProgress float64 `json:"overall_progress" binding:"gte=0,lte=100" example:"40"`
	Status          string  `json:"status" example:"IN_PROGRESS"`
}

// ProgressResponse represents a progress record in API responses
type ProgressResponse struct {
	ID              string `json:"id"`
	FlatID          string `json:"flat_id"`
	Phase           string `json:"phase"`
	PhaseProgress   string `json:"phase_progress"`
	OverallProgress string `json:"overall_progress"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toProgressResponse(p *construction.Progress) ProgressResponse {
	return ProgressResponse{
		ID:              p.ID.String(),
		FlatID:          p.FlatID.String(),
		Phase:           p.Phase.String(),
		PhaseProgress:   p.PhaseProgress.String(),
		OverallProgress: p.OverallProgress.String(),
		Status:          p.Status.String(),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}

// DetectionMatchResponse represents one qualifying milestone found by the
// detection sweep
type DetectionMatchResponse struct {
	PlanID            string `json:"plan_id"`
	PlanNumber        string `json:"plan_number"`
	FlatID            string `json:"flat_id"`
	MilestoneSequence int    `json:"milestone_sequence"`
	MilestoneName     string `json:"milestone_name"`
	Phase             string `json:"phase"`
	PhaseProgress     string `json:"phase_progress"`
	Threshold         string `json:"threshold"`
}

func toDetectionMatchResponse(m *constructionapp.Match) DetectionMatchResponse {
	resp := DetectionMatchResponse{
		PlanID:            m.Plan.ID.String(),
		PlanNumber:        m.Plan.PlanNumber,
		FlatID:            m.Plan.FlatID.String(),
		MilestoneSequence: m.Milestone.Sequence,
		MilestoneName:     m.Milestone.Name,
		Phase:             m.Progress.Phase.String(),
		PhaseProgress:     m.Progress.PhaseProgress.String(),
		Threshold:         m.Milestone.Threshold().String(),
	}
	return resp
}

// RecordProgress godoc
// @ID           recordConstructionProgress
// @Summary      Record construction progress for a flat
// @Description  Upserts the per-phase progress record and runs milestone triggering as a synchronous side effect
// @Tags         construction
// @Accept       json
// @Produce      json
// @Param        id path string true "Flat ID"
// @Param        request body RecordProgressRequest true "Progress report"
// @Success      200 {object} APIResponse[ProgressResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /flats/{id}/progress [post]
func (h *ConstructionHandler) RecordProgress(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	var req RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	phase := construction.Phase(req.Phase)
	if !phase.IsValid() {
		h.BadRequest(c, "unknown construction phase: "+req.Phase)
		return
	}
	status := construction.ProgressStatus(req.Status)
	if req.Status != "" && !status.IsValid() {
		h.BadRequest(c, "unknown progress status: "+req.Status)
		return
	}

	record, err := h.progressService.RecordProgress(
		c.Request.Context(),
		flatID, phase,
		toDecimal(req.PhaseProgress), toDecimal(req.OverallProgress),
		status,
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toProgressResponse(record))
}

// InitializePhases godoc
// @ID           initializeConstructionPhases
// @Summary      Initialize construction phase records for a flat
// @Description  Seeds every construction phase at 0 / NOT_STARTED; existing records are left untouched
// @Tags         construction
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Router       /flats/{id}/progress/initialize [post]
func (h *ConstructionHandler) InitializePhases(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	if err := h.progressService.InitializePhases(c.Request.Context(), flatID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// GetSummary godoc
// @ID           getConstructionSummary
// @Summary      Get the construction progress summary of a flat
// @Tags         construction
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      200 {object} APIResponse[construction.Summary]
// @Router       /flats/{id}/progress [get]
func (h *ConstructionHandler) GetSummary(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	summary, err := h.progressService.GetSummary(c.Request.Context(), flatID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// DetectMilestones godoc
// @ID           detectMilestones
// @Summary      Scan for triggerable milestones
// @Description  Read-only reconciliation sweep over all active plans; returns milestones whose construction thresholds are met but which were never triggered
// @Tags         construction
// @Produce      json
// @Success      200 {object} APIResponse[[]DetectionMatchResponse]
// @Router       /milestones/detect [get]
func (h *ConstructionHandler) DetectMilestones(c *gin.Context) {
	matches, err := h.detectionService.DetectMilestones(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]DetectionMatchResponse, 0, len(matches))
	for i := range matches {
		responses = append(responses, toDetectionMatchResponse(&matches[i]))
	}
	h.Success(c, responses)
}

// DetectMilestonesForFlat godoc
// @ID           detectMilestonesForFlat
// @Summary      Scan one flat for triggerable milestones
// @Tags         construction
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      200 {object} APIResponse[[]DetectionMatchResponse]
// @Router       /flats/{id}/milestones/detect [get]
func (h *ConstructionHandler) DetectMilestonesForFlat(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	matches, err := h.detectionService.DetectMilestonesForFlat(c.Request.Context(), flatID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]DetectionMatchResponse, 0, len(matches))
	for i := range matches {
		responses = append(responses, toDetectionMatchResponse(&matches[i]))
	}
	h.Success(c, responses)
}

// CanTriggerResponse answers whether a milestone may be manually triggered
type CanTriggerResponse struct {
	PlanID            string `json:"plan_id"`
	MilestoneSequence int    `json:"milestone_sequence"`
	CanTrigger        bool   `json:"can_trigger"`
}

// CanTriggerMilestone godoc
// @ID           canTriggerMilestone
// @Summary      Check whether a milestone can be triggered
// @Description  PENDING milestones qualify when they are manual (phase-less) or their construction threshold is met
// @Tags         construction
// @Produce      json
// @Param        id path string true "Plan ID"
// @Param        sequence path int true "Milestone sequence"
// @Success      200 {object} APIResponse[CanTriggerResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id}/milestones/{sequence}/can-trigger [get]
func (h *ConstructionHandler) CanTriggerMilestone(c *gin.Context) {
	planID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid plan ID")
		return
	}
	sequence, err := strconv.Atoi(c.Param("sequence"))
	if err != nil || sequence < 1 {
		h.BadRequest(c, "invalid milestone sequence")
		return
	}

	canTrigger, err := h.detectionService.CanTriggerMilestone(c.Request.Context(), planID, sequence)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, CanTriggerResponse{
		PlanID:            planID.String(),
		MilestoneSequence: sequence,
		CanTrigger:        canTrigger,
	})
}

// RegisterRoutes registers all construction routes
func (h *ConstructionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	flats := rg.Group("/flats/:id")
	{
		flats.POST("/progress", h.RecordProgress)
		flats.GET("/progress", h.GetSummary)
		flats.POST("/progress/initialize", h.InitializePhases)
		flats.GET("/milestones/detect", h.DetectMilestonesForFlat)
	}
	rg.GET("/milestones/detect", h.DetectMilestones)
	rg.GET("/plans/:id/milestones/:sequence/can-trigger", h.CanTriggerMilestone)
}
