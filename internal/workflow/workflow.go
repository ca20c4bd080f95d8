package workflow

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/notification"
)

type EntityType string

const (
	TypeAssignment  EntityType = "assignment"
	TypeLoan        EntityType = "loan"
	TypeResignation EntityType = "resignation"
	TypeSettlement  EntityType = "settlement"
)

type State string

// StateNone is the origin of create-style rules: the entity does not exist yet.
const StateNone State = ""

type Action string

// Actor is the acting identity for a transition. EmployeeID is zero when the
// user has no linked employee record (service accounts, external finance).
type Actor struct {
	UserID       int64
	EmployeeID   int64
	Capabilities []string
}

func (a Actor) Has(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// Entity is the shape every workflow-managed record exposes to the executor.
// Status is only ever mutated through SetState inside Execute.
type Entity interface {
	WorkflowType() EntityType
	WorkflowID() int64
	CurrentState() State
	SetState(State)
	OwnerEmployeeID() int64
}

// GuardContext is handed to guards and apply funcs. Tx is the executor's open
// transaction, so conflict reads and clearance queries see a consistent
// snapshot and hold their locks through the write.
type GuardContext struct {
	Ctx    context.Context
	Tx     *gorm.DB
	Entity Entity
	Actor  Actor
	Input  map[string]string
}

// Guard is a transition precondition. Return a guard-failed AppError with a
// machine-readable reason to block the transition; any other error aborts it.
type Guard func(gc GuardContext) error

// AllGuards chains guards; the first failure wins.
func AllGuards(guards ...Guard) Guard {
	return func(gc GuardContext) error {
		for _, g := range guards {
			if err := g(gc); err != nil {
				return err
			}
		}
		return nil
	}
}

// Apply performs the transition-specific field updates beyond the status
// change (balances, attachment ids, approval levels). Runs inside the
// transaction, after the guard.
type Apply func(gc GuardContext) error

// Notify builds the messages for the transition's interested parties. It runs
// after commit; delivery is best-effort and never rolls back the transition.
type Notify func(e Entity, input map[string]string) []notification.Message

// Rule is one row of an entity type's definition table:
// (current state, action) -> (capability, guard, apply, next state, notify).
type Rule struct {
	From       State
	Action     Action
	Capability string // required capability; empty means no capability gate
	OwnerOnly  bool   // acting identity must own the linked employee record
	Guard      Guard
	Apply      Apply
	Next       State
	Notify     Notify
}

type ruleKey struct {
	from   State
	action Action
}

// Definition is the declarative transition table for one entity type.
type Definition struct {
	entityType EntityType
	rules      map[ruleKey]Rule
}

func NewDefinition(entityType EntityType, rules []Rule) *Definition {
	d := &Definition{
		entityType: entityType,
		rules:      make(map[ruleKey]Rule, len(rules)),
	}
	for _, r := range rules {
		key := ruleKey{from: r.From, action: r.Action}
		if _, dup := d.rules[key]; dup {
			panic(fmt.Sprintf("workflow: duplicate rule (%s, %s) for %s", r.From, r.Action, entityType))
		}
		d.rules[key] = r
	}
	return d
}

func (d *Definition) EntityType() EntityType {
	return d.entityType
}

func (d *Definition) Rule(from State, action Action) (Rule, bool) {
	r, ok := d.rules[ruleKey{from: from, action: action}]
	return r, ok
}

// Adapter loads and persists one entity type for the executor. Load must take
// a row-level lock so no two transitions for the same entity overlap between
// guard evaluation and persist.
type Adapter interface {
	Load(ctx context.Context, tx *gorm.DB, id int64) (Entity, error)
	Insert(ctx context.Context, tx *gorm.DB, e Entity) error
	Update(ctx context.Context, tx *gorm.DB, e Entity) error
}

// Authorizer answers has_capability for an actor. The default implementation
// checks the actor's own capability list; deployments can substitute a
// store-backed one.
type Authorizer interface {
	HasCapability(actor Actor, capability string) bool
}

type capabilityListAuthorizer struct{}

func NewCapabilityListAuthorizer() Authorizer {
	return capabilityListAuthorizer{}
}

func (capabilityListAuthorizer) HasCapability(actor Actor, capability string) bool {
	return actor.Has(capability) || actor.Has("admin")
}
