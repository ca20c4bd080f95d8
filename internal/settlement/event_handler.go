package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/core/events"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// EventHandler drafts a settlement whenever a resignation clears its final
// approval stage.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandleResignationApproved(ctx context.Context, event events.Event) error {
	transition, ok := event.(*events.WorkflowTransitionedEvent)
	if !ok {
		h.logger.Error("invalid event type for resignation approved handler", "event_type", event.EventType())
		return fmt.Errorf("expected WorkflowTransitionedEvent, got %T", event)
	}

	// approve events fire on every chain stage; only the final one lands on
	// the approved state
	if transition.ToState != "approved" {
		return nil
	}

	if existing, err := h.service.repo.GetByResignation(ctx, transition.EntityID); err == nil && existing != nil {
		h.logger.Info("settlement draft already exists for resignation",
			"resignation_id", transition.EntityID,
			"settlement_id", existing.ID)
		return nil
	}

	h.logger.Info("drafting settlement for approved resignation",
		"resignation_id", transition.EntityID,
		"employee_id", transition.OwnerEmployeeID,
		"event_id", transition.EventID())

	resignationID := transition.EntityID
	actor := workflow.Actor{
		UserID:       transition.ActorUserID,
		Capabilities: []string{auth.CapHRManage},
	}
	draft, err := h.service.CreateSettlement(ctx, actor, CreateSettlementDTO{
		EmployeeID:    transition.OwnerEmployeeID,
		ResignationID: &resignationID,
	})
	if err != nil {
		h.logger.Error("failed to draft settlement for approved resignation",
			"error", err,
			"resignation_id", resignationID,
			"employee_id", transition.OwnerEmployeeID)
		return fmt.Errorf("settlement draft failed for resignation %d: %w", resignationID, err)
	}

	h.logger.Info("settlement draft created",
		"settlement_id", draft.ID,
		"resignation_id", resignationID,
		"total_settlement", draft.TotalSettlement.StringFixed(2))

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeResignationApprove, h.HandleResignationApproved)

	h.logger.Info("settlement event handlers registered",
		"handlers", []string{events.EventTypeResignationApprove})
}
