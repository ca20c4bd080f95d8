package workflow

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	"github.com/peoplehub/hr-backoffice/internal/core/events"
	"github.com/peoplehub/hr-backoffice/internal/notification"
)

// Request asks the executor to apply one action to one entity. For
// create-style actions (rules whose From is StateNone) the caller supplies
// the unsaved entity in New and leaves ID zero.
type Request struct {
	Type   EntityType
	ID     int64
	Action Action
	Actor  Actor
	Input  map[string]string
	New    Entity
}

// Executor is the single mutation path for workflow entities. Guard
// evaluation, the state write and the audit append share one transaction;
// notifications and bus events happen after commit and are best-effort.
type Executor struct {
	db         *gorm.DB
	defs       map[EntityType]*Definition
	adapters   map[EntityType]Adapter
	authorizer Authorizer
	audit      audit.Sink
	dispatcher notification.Dispatcher
	bus        *events.EventBus
	logger     *slog.Logger
}

func NewExecutor(db *gorm.DB, authorizer Authorizer, sink audit.Sink, dispatcher notification.Dispatcher, bus *events.EventBus, logger *slog.Logger) *Executor {
	if authorizer == nil {
		authorizer = NewCapabilityListAuthorizer()
	}
	if sink == nil {
		sink = audit.NoopSink{}
	}
	if dispatcher == nil {
		dispatcher = notification.NoopDispatcher{}
	}
	return &Executor{
		db:         db,
		defs:       make(map[EntityType]*Definition),
		adapters:   make(map[EntityType]Adapter),
		authorizer: authorizer,
		audit:      sink,
		dispatcher: dispatcher,
		bus:        bus,
		logger:     logger,
	}
}

// Register installs the definition table and persistence adapter for one
// entity type.
func (x *Executor) Register(def *Definition, adapter Adapter) {
	x.defs[def.EntityType()] = def
	x.adapters[def.EntityType()] = adapter
}

// Execute runs one transition end to end and returns the resulting state.
func (x *Executor) Execute(ctx context.Context, req Request) (State, error) {
	if req.Action == "" {
		return "", internal.NewValidationError("action is required", internal.ErrCodeValidationFailed)
	}

	def, ok := x.defs[req.Type]
	if !ok {
		return "", internal.NewInternalError("no workflow definition registered for entity type", nil)
	}
	adapter := x.adapters[req.Type]

	var (
		entity    Entity
		rule      Rule
		fromState State
		toState   State
	)

	err := x.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.New != nil {
			entity = req.New
			fromState = StateNone
		} else {
			loaded, err := adapter.Load(ctx, tx, req.ID)
			if err != nil {
				return err
			}
			entity = loaded
			fromState = entity.CurrentState()
		}

		r, defined := def.Rule(fromState, req.Action)
		if !defined {
			return internal.NewInvalidTransitionError(string(req.Type), stateLabel(fromState), string(req.Action))
		}
		rule = r

		if rule.Capability != "" && !x.authorizer.HasCapability(req.Actor, rule.Capability) {
			x.logger.Warn("transition denied: missing capability",
				"entity_type", req.Type,
				"entity_id", entity.WorkflowID(),
				"action", req.Action,
				"capability", rule.Capability,
				"actor_user_id", req.Actor.UserID)
			return internal.ErrMissingCapability
		}

		if rule.OwnerOnly && entity.OwnerEmployeeID() != req.Actor.EmployeeID {
			return internal.NewGuardFailedError(internal.ReasonNotOwner,
				"acting identity does not own the linked employee record")
		}

		gc := GuardContext{Ctx: ctx, Tx: tx, Entity: entity, Actor: req.Actor, Input: req.Input}

		if rule.Guard != nil {
			if err := rule.Guard(gc); err != nil {
				return err
			}
		}

		entity.SetState(rule.Next)
		if rule.Apply != nil {
			if err := rule.Apply(gc); err != nil {
				return err
			}
		}
		// Apply may refine the landing state (multi-level approval chains),
		// so the audit row and event report what was actually persisted.
		toState = entity.CurrentState()

		if req.New != nil {
			if err := adapter.Insert(ctx, tx, entity); err != nil {
				return err
			}
		} else {
			if err := adapter.Update(ctx, tx, entity); err != nil {
				return err
			}
		}

		ev := &audit.Event{
			EntityType:  string(req.Type),
			EntityID:    entity.WorkflowID(),
			EventType:   events.TransitionEventType(string(req.Type), string(req.Action)),
			ActorUserID: req.Actor.UserID,
			OccurredAt:  time.Now().UTC(),
			Meta:        auditMeta(fromState, toState, req.Input),
		}
		if err := x.audit.Record(ctx, tx, ev); err != nil {
			return internal.NewPersistenceError("audit write failed", err)
		}

		return nil
	})
	if err != nil {
		if appErr, isApp := internal.IsAppError(err); isApp {
			return "", appErr
		}
		return "", internal.NewPersistenceError("transition write failed", err)
	}

	x.logger.Info("transition applied",
		"entity_type", req.Type,
		"entity_id", entity.WorkflowID(),
		"action", req.Action,
		"from", stateLabel(fromState),
		"to", toState,
		"actor_user_id", req.Actor.UserID)

	if rule.Notify != nil {
		if msgs := rule.Notify(entity, req.Input); len(msgs) > 0 {
			x.dispatcher.Dispatch(ctx, msgs)
		}
	}

	if x.bus != nil {
		ev := events.NewWorkflowTransitionedEvent(
			string(req.Type), entity.WorkflowID(), string(req.Action),
			stateLabel(fromState), string(toState),
			req.Actor.UserID, entity.OwnerEmployeeID())
		if err := x.bus.Publish(ctx, ev); err != nil {
			x.logger.Warn("transition event publish failed", "error", err)
		}
	}

	return toState, nil
}

func auditMeta(from, to State, input map[string]string) map[string]string {
	meta := make(map[string]string, len(input)+2)
	for k, v := range input {
		meta[k] = v
	}
	meta["from_status"] = stateLabel(from)
	meta["to_status"] = string(to)
	return meta
}

func stateLabel(s State) string {
	if s == StateNone {
		return "(none)"
	}
	return string(s)
}
