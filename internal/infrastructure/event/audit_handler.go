package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/realtyerp/backend/internal/domain/plan"
	"github.com/realtyerp/backend/internal/domain/shared"
)

// AuditHandler writes a structured log line for every payment plan
// lifecycle event. It is the audit trail for milestone triggers, draft
// generation and settlement.
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: logger}
}

// EventTypes returns the plan lifecycle events this handler subscribes to
func (h *AuditHandler) EventTypes() []string {
	return []string{
		plan.EventTypePlanCreated,
		plan.EventTypePlanCompleted,
		plan.EventTypePlanCancelled,
		plan.EventTypeMilestoneTriggered,
		plan.EventTypeMilestonePaid,
		plan.EventTypeDraftGenerated,
	}
}

// Handle logs the event with its aggregate identity and type-specific fields
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *plan.MilestoneTriggeredEvent:
		fields = append(fields,
			zap.Int("milestone_sequence", e.Sequence),
			zap.String("milestone_name", e.MilestoneName),
			zap.String("amount", e.Amount.String()),
		)
	case *plan.MilestonePaidEvent:
		fields = append(fields,
			zap.Int("milestone_sequence", e.Sequence),
			zap.String("milestone_name", e.MilestoneName),
		)
		if e.PaymentID != nil {
			fields = append(fields, zap.String("payment_id", e.PaymentID.String()))
		}
	case *plan.DraftGeneratedEvent:
		fields = append(fields,
			zap.String("draft_number", e.DraftNumber),
			zap.String("flat_id", e.FlatID.String()),
			zap.Int("milestone_sequence", e.Sequence),
			zap.String("amount", e.Amount.String()),
			zap.Bool("auto_generated", e.AutoGenerated),
		)
	case *plan.PlanCreatedEvent:
		fields = append(fields,
			zap.String("plan_number", e.PlanNumber),
			zap.String("flat_id", e.FlatID.String()),
			zap.String("total_amount", e.TotalAmount.String()),
		)
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}

// Ensure AuditHandler implements EventHandler
var _ shared.EventHandler = (*AuditHandler)(nil)
