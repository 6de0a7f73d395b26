package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	paymentapp "github.com/realtyerp/backend/internal/application/payment"
	"github.com/realtyerp/backend/internal/domain/sales"
)

// PaymentHandler handles payment API endpoints
type PaymentHandler struct {
	BaseHandler
	recording  *paymentapp.RecordingService
	completion *paymentapp.CompletionService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(
	recording *paymentapp.RecordingService,
	completion *paymentapp.CompletionService,
) *PaymentHandler {
	return &PaymentHandler{
		recording:  recording,
		completion: completion,
	}
}

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	BookingID string  `json:"booking_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Amount    float64 `json:"amount" binding:"required,gt=0" example:"1600000"`
	Method    string  `json:"method" binding:"required" example:"BANK_TRANSFER"`
	Reference string  `json:"reference" binding:"omitempty,max=100" example:"NEFT-20260115-0042"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID         string `json:"id"`
	BookingID  string `json:"booking_id"`
	Amount     string `json:"amount"`
	Method     string `json:"method"`
	Reference  string `json:"reference,omitempty"`
	Reconciled bool   `json:"reconciled"`
	CreatedAt  string `json:"created_at"`
}

// RecordPaymentResponse bundles the recorded payment with its
// reconciliation outcome. Reconciliation is nil when it could not run;
// the payment itself is still recorded.
type RecordPaymentResponse struct {
	Payment        PaymentResponse    `json:"payment"`
	Reconciliation *paymentapp.Result `json:"reconciliation,omitempty"`
}

func toPaymentResponse(p *sales.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID.String(),
		BookingID:  p.BookingID.String(),
		Amount:     p.Amount.String(),
		Method:     string(p.Method),
		Reference:  p.Reference,
		Reconciled: p.Reconciled,
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

// RecordPayment godoc
// @ID           recordPayment
// @Summary      Record a payment against a booking
// @Description  Persists the payment and immediately reconciles it against the booking schedule and the flat's payment plan. The payment survives reconciliation failures.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body RecordPaymentRequest true "Payment details"
// @Success      201 {object} APIResponse[RecordPaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /payments [post]
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	method := sales.PaymentMethod(req.Method)
	if !method.IsValid() {
		h.BadRequest(c, "unknown payment method: "+req.Method)
		return
	}

	pay, result, err := h.recording.RecordPayment(
		c.Request.Context(),
		uuid.MustParse(req.BookingID),
		toDecimal(req.Amount),
		method,
		req.Reference,
	)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, RecordPaymentResponse{
		Payment:        toPaymentResponse(pay),
		Reconciliation: result,
	})
}

// GetPayment godoc
// @ID           getPayment
// @Summary      Get a payment
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} APIResponse[PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid payment ID")
		return
	}

	pay, err := h.recording.GetPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPaymentResponse(pay))
}

// ReconcilePayment godoc
// @ID           reconcilePayment
// @Summary      Re-run reconciliation for a recorded payment
// @Description  Replays the completion workflow for a payment whose earlier reconciliation failed. Already reconciled payments are skipped.
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID"
// @Success      200 {object} APIResponse[paymentapp.Result]
// @Failure      404 {object} ErrorResponse
// @Router       /payments/{id}/reconcile [post]
func (h *PaymentHandler) ReconcilePayment(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid payment ID")
		return
	}

	result, err := h.completion.ProcessPayment(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListPaymentsForBooking godoc
// @ID           listPaymentsForBooking
// @Summary      List payments recorded against a booking
// @Tags         payments
// @Produce      json
// @Param        id path string true "Booking ID"
// @Success      200 {object} APIResponse[[]PaymentResponse]
// @Router       /bookings/{id}/payments [get]
func (h *PaymentHandler) ListPaymentsForBooking(c *gin.Context) {
	bookingID, ok := parseUUIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "invalid booking ID")
		return
	}

	payments, err := h.recording.ListPaymentsForBooking(c.Request.Context(), bookingID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		responses = append(responses, toPaymentResponse(&payments[i]))
	}
	h.Success(c, responses)
}

// RegisterRoutes registers all payment routes
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		payments.POST("", h.RecordPayment)
		payments.GET("/:id", h.GetPayment)
		payments.POST("/:id/reconcile", h.ReconcilePayment)
	}
	rg.GET("/bookings/:id/payments", h.ListPaymentsForBooking)
}
