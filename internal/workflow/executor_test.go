package workflow_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	"github.com/peoplehub/hr-backoffice/internal/notification"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

func TestWorkflowExecutor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Workflow Executor Suite")
}

const testType workflow.EntityType = "ticket"

type testTicket struct {
	ID       int64
	Owner    int64
	Status   workflow.State
	Escalate bool
}

func (t *testTicket) WorkflowType() workflow.EntityType { return testType }
func (t *testTicket) WorkflowID() int64                 { return t.ID }
func (t *testTicket) CurrentState() workflow.State      { return t.Status }
func (t *testTicket) SetState(s workflow.State)         { t.Status = s }
func (t *testTicket) OwnerEmployeeID() int64            { return t.Owner }

// mockAdapter keeps tickets in memory and counts persistence calls so specs
// can assert that failed transitions never reach a write.
type mockAdapter struct {
	tickets map[int64]*testTicket
	nextID  int64
	inserts int
	updates int
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{tickets: make(map[int64]*testTicket), nextID: 1}
}

func (m *mockAdapter) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	t, ok := m.tickets[id]
	if !ok {
		return nil, internal.NewNotFoundError("ticket not found", internal.ErrCodeEntityNotFound)
	}
	copied := *t
	return &copied, nil
}

func (m *mockAdapter) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	t := e.(*testTicket)
	t.ID = m.nextID
	m.nextID++
	stored := *t
	m.tickets[t.ID] = &stored
	m.inserts++
	return nil
}

func (m *mockAdapter) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	t := e.(*testTicket)
	stored := *t
	m.tickets[t.ID] = &stored
	m.updates++
	return nil
}

type recordingSink struct {
	events []*audit.Event
	err    error
}

func (s *recordingSink) Record(ctx context.Context, tx *gorm.DB, ev *audit.Event) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type recordingDispatcher struct {
	messages []notification.Message
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msgs []notification.Message) {
	d.messages = append(d.messages, msgs...)
}

var _ = Describe("Executor", func() {
	var (
		db         *gorm.DB
		adapter    *mockAdapter
		sink       *recordingSink
		dispatcher *recordingDispatcher
		executor   *workflow.Executor
		ctx        context.Context

		manager workflow.Actor
		owner   workflow.Actor
	)

	rules := func() []workflow.Rule {
		return []workflow.Rule{
			{
				From:       workflow.StateNone,
				Action:     "open",
				Capability: "manage_tickets",
				Next:       "open",
				Notify: func(e workflow.Entity, input map[string]string) []notification.Message {
					return []notification.Message{{EmployeeID: e.OwnerEmployeeID(), Subject: "ticket opened"}}
				},
			},
			{
				From:      "open",
				Action:    "acknowledge",
				OwnerOnly: true,
				Next:      "acknowledged",
			},
			{
				From:   "open",
				Action: "close",
				Guard: func(gc workflow.GuardContext) error {
					if gc.Input["resolution"] == "" {
						return internal.NewGuardFailedError(internal.ReasonReasonRequired, "resolution is required")
					}
					return nil
				},
				Next: "closed",
			},
			{
				From:   "acknowledged",
				Action: "close",
				Apply: func(gc workflow.GuardContext) error {
					// apply funcs may refine the landing state
					if gc.Entity.(*testTicket).Escalate {
						gc.Entity.SetState("escalated")
					}
					return nil
				},
				Next: "closed",
			},
		}
	}

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		adapter = newMockAdapter()
		sink = &recordingSink{}
		dispatcher = &recordingDispatcher{}
		ctx = context.Background()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		executor = workflow.NewExecutor(db, nil, sink, dispatcher, nil, logger)
		executor.Register(workflow.NewDefinition(testType, rules()), adapter)

		manager = workflow.Actor{UserID: 1, EmployeeID: 10, Capabilities: []string{"manage_tickets"}}
		owner = workflow.Actor{UserID: 2, EmployeeID: 20}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	openTicket := func() *testTicket {
		t := &testTicket{Owner: owner.EmployeeID}
		_, err := executor.Execute(ctx, workflow.Request{
			Type: testType, Action: "open", Actor: manager, New: t,
		})
		Expect(err).NotTo(HaveOccurred())
		return adapter.tickets[t.ID]
	}

	Describe("create-style transitions", func() {
		It("inserts the entity in the rule's next state and audits it", func() {
			t := openTicket()
			Expect(t.Status).To(Equal(workflow.State("open")))
			Expect(adapter.inserts).To(Equal(1))

			Expect(sink.events).To(HaveLen(1))
			Expect(sink.events[0].EntityType).To(Equal("ticket"))
			Expect(sink.events[0].EventType).To(Equal("ticket.open"))
			Expect(sink.events[0].ActorUserID).To(Equal(manager.UserID))
			Expect(sink.events[0].Meta["from_status"]).To(Equal("(none)"))
			Expect(sink.events[0].Meta["to_status"]).To(Equal("open"))
		})

		It("dispatches the rule's notifications after the write", func() {
			openTicket()
			Expect(dispatcher.messages).To(HaveLen(1))
			Expect(dispatcher.messages[0].EmployeeID).To(Equal(owner.EmployeeID))
		})

		It("denies the action when the actor lacks the capability", func() {
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, Action: "open", Actor: owner, New: &testTicket{Owner: owner.EmployeeID},
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingCapability))
			Expect(adapter.inserts).To(BeZero())
			Expect(sink.events).To(BeEmpty())
		})

		It("grants any capability to an admin actor", func() {
			admin := workflow.Actor{UserID: 9, Capabilities: []string{"admin"}}
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, Action: "open", Actor: admin, New: &testTicket{Owner: owner.EmployeeID},
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("undefined transitions", func() {
		It("rejects an action not defined for the current state", func() {
			t := openTicket()
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "open", Actor: manager,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidTransition))
		})

		It("rejects a replay of an already-applied action", func() {
			t := openTicket()
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "acknowledge", Actor: owner,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "acknowledge", Actor: owner,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidTransition))
			Expect(adapter.updates).To(Equal(1))
		})
	})

	Describe("owner-only transitions", func() {
		It("rejects an actor whose employee id is not the owner", func() {
			t := openTicket()
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "acknowledge", Actor: manager,
			})
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonNotOwner))
			Expect(adapter.tickets[t.ID].Status).To(Equal(workflow.State("open")))
		})
	})

	Describe("guards", func() {
		It("blocks the transition and leaves the entity untouched", func() {
			t := openTicket()
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "close", Actor: manager,
			})
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonReasonRequired))
			Expect(adapter.tickets[t.ID].Status).To(Equal(workflow.State("open")))
			Expect(adapter.updates).To(BeZero())
			Expect(sink.events).To(HaveLen(1)) // only the create
		})

		It("passes the request input through to the guard and the audit meta", func() {
			t := openTicket()
			state, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "close", Actor: manager,
				Input: map[string]string{"resolution": "done"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State("closed")))
			Expect(sink.events).To(HaveLen(2))
			Expect(sink.events[1].Meta["resolution"]).To(Equal("done"))
		})
	})

	Describe("apply-refined landing state", func() {
		It("reports the state the apply func actually left the entity in", func() {
			t := openTicket()
			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "acknowledge", Actor: owner,
			})
			Expect(err).NotTo(HaveOccurred())

			adapter.tickets[t.ID].Escalate = true
			state, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "close", Actor: manager,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State("escalated")))
			Expect(adapter.tickets[t.ID].Status).To(Equal(workflow.State("escalated")))

			last := sink.events[len(sink.events)-1]
			Expect(last.Meta["to_status"]).To(Equal("escalated"))
		})
	})

	Describe("audit failures", func() {
		It("fails the transition when the audit write fails", func() {
			t := openTicket()
			sink.err = internal.NewPersistenceError("sink down", nil)

			_, err := executor.Execute(ctx, workflow.Request{
				Type: testType, ID: t.ID, Action: "acknowledge", Actor: owner,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypePersistence))
		})
	})
})

var _ = Describe("AllGuards", func() {
	pass := func(gc workflow.GuardContext) error { return nil }
	fail := func(reason internal.GuardReason) workflow.Guard {
		return func(gc workflow.GuardContext) error {
			return internal.NewGuardFailedError(reason, string(reason))
		}
	}

	It("passes when every guard passes", func() {
		Expect(workflow.AllGuards(pass, pass)(workflow.GuardContext{})).To(Succeed())
	})

	It("returns the first failure", func() {
		err := workflow.AllGuards(pass, fail(internal.ReasonNotOwner), fail(internal.ReasonAlreadyActive))(workflow.GuardContext{})
		Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonNotOwner))
	})
})
