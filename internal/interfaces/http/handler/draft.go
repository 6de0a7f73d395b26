package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	planapp "github.com/realtyerp/backend/internal/application/plan"
	salesapp "github.com/realtyerp/backend/internal/application/sales"
	domainplan "github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/sales"
)

// DraftRenderer renders a demand draft into a downloadable PDF
type DraftRenderer interface {
	Render(draft *domainplan.DemandDraft, customer *sales.Customer, flat *sales.Flat) ([]byte, error)
}

// DraftHandler handles demand draft API endpoints
type DraftHandler struct {
	BaseHandler
	draftService *planapp.DraftService
	directory    *salesapp.DirectoryService
	renderer     DraftRenderer
}

// NewDraftHandler creates a new DraftHandler
func NewDraftHandler(
	draftService *planapp.DraftService,
	directory *salesapp.DirectoryService,
	renderer DraftRenderer,
) *DraftHandler {
	return &DraftHandler{
		draftService: draftService,
		directory:    directory,
		renderer:     renderer,
	}
}

// DraftResponse represents a demand draft in API responses
type DraftResponse struct {
	ID                string  `json:"id"`
	DraftNumber       string  `json:"draft_number"`
	FlatID            string  `json:"flat_id"`
	CustomerID        string  `json:"customer_id"`
	BookingID         string  `json:"booking_id"`
	PlanID            string  `json:"plan_id"`
	MilestoneSequence int     `json:"milestone_sequence"`
	MilestoneName     string  `json:"milestone_name"`
	Content           string  `json:"content,omitempty"`
	Amount            string  `json:"amount"`
	DueDate           string  `json:"due_date"`
	Status            string  `json:"status"`
	AutoGenerated     bool    `json:"auto_generated"`
	RequiresReview    bool    `json:"requires_review"`
	TriggeredBy       *string `json:"triggered_by,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

func toDraftResponse(d *domainplan.DemandDraft) DraftResponse {
	return DraftResponse{
		ID:                d.ID.String(),
		DraftNumber:       d.DraftNumber,
		FlatID:            d.FlatID.String(),
		CustomerID:        d.CustomerID.String(),
		BookingID:         d.BookingID.String(),
		PlanID:            d.PlanID.String(),
		MilestoneSequence: d.MilestoneSequence,
		MilestoneName:     d.MilestoneName,
		Content:           d.Content,
		Amount:            d.Amount.String(),
		DueDate:           d.DueDate.Format(time.RFC3339),
		Status:            string(d.Status),
		AutoGenerated:     d.AutoGenerated,
		RequiresReview:    d.RequiresReview,
		TriggeredBy:       formatUUIDPtr(d.TriggeredBy),
		CreatedAt:         d.CreatedAt.Format(time.RFC3339),
	}
}

// GetDraft godoc
// @ID           getDraft
// @Summary      Get a demand draft
// @Tags         drafts
// @Produce      json
// @Param        id path string true "Draft ID"
// @Success      200 {object} APIResponse[DraftResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid draft ID")
		return
	}

	draft, err := h.draftService.GetDraft(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toDraftResponse(draft))
}

// ListDraftsForFlat godoc
// @ID           listDraftsForFlat
// @Summary      List demand drafts of a flat
// @Tags         drafts
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      200 {object} APIResponse[[]DraftResponse]
// @Router       /flats/{id}/drafts [get]
func (h *DraftHandler) ListDraftsForFlat(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	drafts, err := h.draftService.GetDraftsForFlat(c.Request.Context(), flatID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]DraftResponse, 0, len(drafts))
	for i := range drafts {
		responses = append(responses, toDraftResponse(&drafts[i]))
	}
	h.Success(c, responses)
}

// DownloadDraftPDF godoc
// @ID           downloadDraftPDF
// @Summary      Download a demand draft as PDF
// @Tags         drafts
// @Produce      application/pdf
// @Param        id path string true "Draft ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Router       /drafts/{id}/pdf [get]
func (h *DraftHandler) DownloadDraftPDF(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid draft ID")
		return
	}

	draft, err := h.draftService.GetDraft(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	// Customer and flat enrich the letterhead; the draft alone is enough
	// to render.
	customer, err := h.directory.GetCustomer(c.Request.Context(), draft.CustomerID)
	if err != nil {
		customer = nil
	}
	flat, err := h.directory.GetFlat(c.Request.Context(), draft.FlatID)
	if err != nil {
		flat = nil
	}

	pdf, err := h.renderer.Render(draft, customer, flat)
	if err != nil {
		h.InternalError(c, "failed to render draft PDF")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+draft.DraftNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// RegisterRoutes registers all draft routes
func (h *DraftHandler) RegisterRoutes(rg *gin.RouterGroup) {
	drafts := rg.Group("/drafts")
	{
		drafts.GET("/:id", h.GetDraft)
		drafts.GET("/:id/pdf", h.DownloadDraftPDF)
	}
	rg.GET("/flats/:id/drafts", h.ListDraftsForFlat)
}
