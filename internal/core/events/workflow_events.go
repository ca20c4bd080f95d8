package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types follow "<entity_type>.<action>". Subscribers that only care
// about a particular transition subscribe to it directly.
const (
	EventTypeAssignmentCreated  = "assignment.create"
	EventTypeAssignmentReturned = "assignment.employee_confirm_return"
	EventTypeLoanActivated      = "loan.finance_approve"
	EventTypeResignationApprove = "resignation.approve"
	EventTypeSettlementPaid     = "settlement.mark_paid"
)

// TransitionEventType builds the bus topic for an entity type and action.
func TransitionEventType(entityType, action string) string {
	return fmt.Sprintf("%s.%s", entityType, action)
}

// WorkflowTransitionedEvent is published after every committed transition.
type WorkflowTransitionedEvent struct {
	BaseEvent
	EntityType      string `json:"entity_type"`
	EntityID        int64  `json:"entity_id"`
	Action          string `json:"action"`
	FromState       string `json:"from_state"`
	ToState         string `json:"to_state"`
	ActorUserID     int64  `json:"actor_user_id"`
	OwnerEmployeeID int64  `json:"owner_employee_id"`
}

func NewWorkflowTransitionedEvent(entityType string, entityID int64, action, fromState, toState string, actorUserID, ownerEmployeeID int64) *WorkflowTransitionedEvent {
	return &WorkflowTransitionedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      TransitionEventType(entityType, action),
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"entity_type":       entityType,
				"entity_id":         entityID,
				"action":            action,
				"from_state":        fromState,
				"to_state":          toState,
				"actor_user_id":     actorUserID,
				"owner_employee_id": ownerEmployeeID,
			},
		},
		EntityType:      entityType,
		EntityID:        entityID,
		Action:          action,
		FromState:       fromState,
		ToState:         toState,
		ActorUserID:     actorUserID,
		OwnerEmployeeID: ownerEmployeeID,
	}
}
