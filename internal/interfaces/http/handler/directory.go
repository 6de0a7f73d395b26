package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/realtyerp/backend/internal/application/sales"
	"github.com/realtyerp/backend/internal/domain/sales"
)

// DirectoryHandler handles customer, flat and booking API endpoints
type DirectoryHandler struct {
	BaseHandler
	directory *salesapp.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory *salesapp.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{
		directory: directory,
	}
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Name    string `json:"name" binding:"required,min=1,max=200" example:"Asha Verma"`
	Email   string `json:"email" binding:"omitempty,email" example:"asha@example.com"`
	Phone   string `json:"phone" binding:"omitempty,max=20" example:"+91-9800000000"`
	Address string `json:"address" binding:"omitempty,max=500" example:"12 MG Road, Pune"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toCustomerResponse(c *sales.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// CreateFlatRequest represents a request to register a flat
type CreateFlatRequest struct {
	Number    string  `json:"number" binding:"required,min=1,max=20" example:"A-1204"`
	Tower     string  `json:"tower" binding:"required,min=1,max=50" example:"Tower A"`
	Floor     int     `json:"floor" binding:"gte=0" example:"12"`
	SalePrice float64 `json:"sale_price" binding:"required,gt=0" example:"8000000"`
}

// FlatResponse represents a flat in API responses
type FlatResponse struct {
	ID                string  `json:"id"`
	Number            string  `json:"number"`
	Tower             string  `json:"tower"`
	Floor             int     `json:"floor"`
	SalePrice         string  `json:"sale_price"`
	BookingID         *string `json:"booking_id,omitempty"`
	CustomerID        *string `json:"customer_id,omitempty"`
	CurrentPhase      *string `json:"current_phase,omitempty"`
	OverallProgress   string  `json:"overall_progress"`
	CreatedAt         string  `json:"created_at"`
}

func toFlatResponse(f *sales.Flat) FlatResponse {
	resp := FlatResponse{
		ID:              f.ID.String(),
		Number:          f.Number,
		Tower:           f.Tower,
		Floor:           f.Floor,
		SalePrice:       f.SalePrice.String(),
		BookingID:       formatUUIDPtr(f.BookingID),
		CustomerID:      formatUUIDPtr(f.CustomerID),
		OverallProgress: f.OverallProgress.String(),
		CreatedAt:       f.CreatedAt.Format(time.RFC3339),
	}
	if f.CurrentPhase != nil {
		phase := f.CurrentPhase.String()
		resp.CurrentPhase = &phase
	}
	return resp
}

// CreateBookingRequest represents a request to book a flat
type CreateBookingRequest struct {
	FlatID      string  `json:"flat_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CustomerID  string  `json:"customer_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	TotalAmount float64 `json:"total_amount" binding:"required,gt=0" example:"8000000"`
}

// InstallmentEntryResponse represents one schedule entry in API responses
type InstallmentEntryResponse struct {
	Sequence          int    `json:"sequence"`
	Name              string `json:"name"`
	MilestoneSequence int    `json:"milestone_sequence"`
	Amount            string `json:"amount"`
	PaidAmount        string `json:"paid_amount"`
	Status            string `json:"status"`
}

// BookingResponse represents a booking in API responses
type BookingResponse struct {
	ID            string                     `json:"id"`
	BookingNumber string                     `json:"booking_number"`
	FlatID        string                     `json:"flat_id"`
	CustomerID    string                     `json:"customer_id"`
	TotalAmount   string                     `json:"total_amount"`
	PaidAmount    string                     `json:"paid_amount"`
	BalanceAmount string                     `json:"balance_amount"`
	Schedule      []InstallmentEntryResponse `json:"schedule,omitempty"`
	Status        string                     `json:"status"`
	CreatedAt     string                     `json:"created_at"`
}

func toBookingResponse(b *sales.Booking) BookingResponse {
	schedule := make([]InstallmentEntryResponse, 0, len(b.Schedule))
	for _, e := range b.Schedule {
		schedule = append(schedule, InstallmentEntryResponse{
			Sequence:          e.Sequence,
			Name:              e.Name,
			MilestoneSequence: e.MilestoneSequence,
			Amount:            e.Amount.String(),
			PaidAmount:        e.PaidAmount.String(),
			Status:            string(e.Status),
		})
	}
	return BookingResponse{
		ID:            b.ID.String(),
		BookingNumber: b.BookingNumber,
		FlatID:        b.FlatID.String(),
		CustomerID:    b.CustomerID.String(),
		TotalAmount:   b.TotalAmount.String(),
		PaidAmount:    b.PaidAmount.String(),
		BalanceAmount: b.BalanceAmount.String(),
		Schedule:      schedule,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

// CreateCustomer godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body CreateCustomerRequest true "Customer details"
// @Success      201 {object} APIResponse[CustomerResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /customers [post]
func (h *DirectoryHandler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.directory.CreateCustomer(c.Request.Context(), req.Name, req.Email, req.Phone, req.Address)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toCustomerResponse(customer))
}

// GetCustomer godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         directory
// @Produce      json
// @Param        id path string true "Customer ID"
// @Success      200 {object} APIResponse[CustomerResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /customers/{id} [get]
func (h *DirectoryHandler) GetCustomer(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid customer ID")
		return
	}

	customer, err := h.directory.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toCustomerResponse(customer))
}

// CreateFlat godoc
// @ID           createFlat
// @Summary      Register a flat
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body CreateFlatRequest true "Flat details"
// @Success      201 {object} APIResponse[FlatResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /flats [post]
func (h *DirectoryHandler) CreateFlat(c *gin.Context) {
	var req CreateFlatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	flat, err := h.directory.CreateFlat(c.Request.Context(), req.Number, req.Tower, req.Floor, toDecimal(req.SalePrice))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toFlatResponse(flat))
}

// GetFlat godoc
// @ID           getFlat
// @Summary      Get a flat
// @Tags         directory
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      200 {object} APIResponse[FlatResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /flats/{id} [get]
func (h *DirectoryHandler) GetFlat(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	flat, err := h.directory.GetFlat(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toFlatResponse(flat))
}

// CreateBooking godoc
// @ID           createBooking
// @Summary      Book a flat for a customer
// @Description  Creates a booking and links it to the flat. A flat carries at most one active booking.
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body CreateBookingRequest true "Booking details"
// @Success      201 {object} APIResponse[BookingResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /bookings [post]
func (h *DirectoryHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	booking, err := h.directory.CreateBooking(
		c.Request.Context(),
		uuid.MustParse(req.FlatID),
		uuid.MustParse(req.CustomerID),
		toDecimal(req.TotalAmount),
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toBookingResponse(booking))
}

// GetBooking godoc
// @ID           getBooking
// @Summary      Get a booking
// @Tags         directory
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} APIResponse[BookingResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /bookings/{id} [get]
func (h *DirectoryHandler) GetBooking(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid booking ID")
		return
	}

	booking, err := h.directory.GetBooking(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBookingResponse(booking))
}

// GetBookingForFlat godoc
// @ID           getBookingForFlat
// @Summary      Get the booking of a flat
// @Tags         directory
// @Produce      json
// @Param        id path string true "Flat ID"
// @Success      200 {object} APIResponse[BookingResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /flats/{id}/booking [get]
func (h *DirectoryHandler) GetBookingForFlat(c *gin.Context) {
	flatID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid flat ID")
		return
	}

	booking, err := h.directory.GetBookingForFlat(c.Request.Context(), flatID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toBookingResponse(booking))
}

// RegisterRoutes registers all directory routes
func (h *DirectoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	{
		customers.POST("", h.CreateCustomer)
		customers.GET("/:id", h.GetCustomer)
	}
	flats := rg.Group("/flats")
	{
		flats.POST("", h.CreateFlat)
		flats.GET("/:id", h.GetFlat)
		flats.GET("/:id/booking", h.GetBookingForFlat)
	}
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", h.GetBooking)
	}
}
