package resignation_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/resignation"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

func TestResignationWorkflow(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Resignation Workflow Suite")
}

type memoryStore struct {
	resignations map[int64]*resignation.Resignation
	nextID       int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{resignations: make(map[int64]*resignation.Resignation), nextID: 1}
}

func (s *memoryStore) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	r, ok := s.resignations[id]
	if !ok {
		return nil, resignation.ErrResignationNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *memoryStore) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	r := e.(*resignation.Resignation)
	r.ID = s.nextID
	s.nextID++
	stored := *r
	s.resignations[r.ID] = &stored
	return nil
}

func (s *memoryStore) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	r := e.(*resignation.Resignation)
	stored := *r
	s.resignations[r.ID] = &stored
	return nil
}

var _ = Describe("Resignation workflow", func() {
	var (
		db       *gorm.DB
		store    *memoryStore
		executor *workflow.Executor
		ctx      context.Context

		employee workflow.Actor
		manager  workflow.Actor
		hr       workflow.Actor
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		store = newMemoryStore()
		ctx = context.Background()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		executor = workflow.NewExecutor(db, nil, audit.NoopSink{}, nil, nil, logger)
		executor.Register(resignation.Definition(resignation.DefinitionDeps{
			Chain: []string{auth.CapManageTeam, auth.CapHRManage},
		}), store)

		employee = workflow.Actor{UserID: 2, EmployeeID: 20}
		manager = workflow.Actor{UserID: 3, EmployeeID: 30, Capabilities: []string{auth.CapManageTeam}}
		hr = workflow.Actor{UserID: 4, EmployeeID: 40, Capabilities: []string{auth.CapHRManage}}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	submit := func() *resignation.Resignation {
		r := resignation.NewResignation(employee.EmployeeID, "relocating abroad",
			time.Now(), time.Now().AddDate(0, 1, 0))
		_, err := executor.Execute(ctx, workflow.Request{
			Type: workflow.TypeResignation, Action: resignation.ActionSubmit, Actor: employee, New: r,
		})
		Expect(err).NotTo(HaveOccurred())
		return store.resignations[r.ID]
	}

	act := func(id int64, action workflow.Action, actor workflow.Actor, input map[string]string) (workflow.State, error) {
		return executor.Execute(ctx, workflow.Request{
			Type: workflow.TypeResignation, ID: id, Action: action, Actor: actor, Input: input,
		})
	}

	Describe("submit", func() {
		It("opens pending at approval level 1", func() {
			r := submit()
			Expect(r.Status).To(Equal(resignation.StatusPending))
			Expect(r.ApprovalLevel).To(Equal(1))
		})

		It("lets HR submit on behalf of an employee", func() {
			r := resignation.NewResignation(employee.EmployeeID, "health", time.Now(), time.Now().AddDate(0, 1, 0))
			_, err := executor.Execute(ctx, workflow.Request{
				Type: workflow.TypeResignation, Action: resignation.ActionSubmit, Actor: hr, New: r,
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("the approval chain", func() {
		It("stays pending after the first of two stages and advances the level", func() {
			r := submit()
			state, err := act(r.ID, resignation.ActionApprove, manager, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(resignation.StatusPending)))

			stored := store.resignations[r.ID]
			Expect(stored.Status).To(Equal(resignation.StatusPending))
			Expect(stored.ApprovalLevel).To(Equal(2))
		})

		It("approves once the final stage signs", func() {
			r := submit()
			_, err := act(r.ID, resignation.ActionApprove, manager, nil)
			Expect(err).NotTo(HaveOccurred())

			state, err := act(r.ID, resignation.ActionApprove, hr, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(resignation.StatusApproved)))
		})

		It("rejects an approval from the wrong stage's approver", func() {
			r := submit()
			// HR holds the level 2 capability, but the chain is at level 1
			_, err := act(r.ID, resignation.ActionApprove, hr, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonNotApprover))
			Expect(store.resignations[r.ID].ApprovalLevel).To(Equal(1))
		})

		It("rejects a second sign-off from an earlier stage", func() {
			r := submit()
			_, err := act(r.ID, resignation.ActionApprove, manager, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = act(r.ID, resignation.ActionApprove, manager, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonNotApprover))
		})

		It("rejects any further approval once fully approved", func() {
			r := submit()
			_, err := act(r.ID, resignation.ActionApprove, manager, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = act(r.ID, resignation.ActionApprove, hr, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = act(r.ID, resignation.ActionApprove, hr, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidTransition))
		})
	})

	Describe("reject", func() {
		It("requires the current stage's approver and a reason", func() {
			r := submit()
			_, err := act(r.ID, resignation.ActionReject, manager, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonReasonRequired))

			state, err := act(r.ID, resignation.ActionReject, manager, map[string]string{"reason": "critical project"})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(resignation.StatusRejected)))
			Expect(store.resignations[r.ID].RejectReason).To(HaveValue(Equal("critical project")))
		})
	})

	Describe("cancel", func() {
		It("lets the submitting employee withdraw with a reason", func() {
			r := submit()
			state, err := act(r.ID, resignation.ActionCancel, employee, map[string]string{"reason": "changed my mind"})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(resignation.StatusCancelled)))
			Expect(store.resignations[r.ID].CancelReason).To(HaveValue(Equal("changed my mind")))
		})

		It("blocks a third party from cancelling", func() {
			r := submit()
			_, err := act(r.ID, resignation.ActionCancel, manager, map[string]string{"reason": "no"})
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonNotOwner))
		})

		It("remains possible between approval stages", func() {
			r := submit()
			_, err := act(r.ID, resignation.ActionApprove, manager, nil)
			Expect(err).NotTo(HaveOccurred())

			state, err := act(r.ID, resignation.ActionCancel, employee, map[string]string{"reason": "retracting"})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(resignation.StatusCancelled)))
		})
	})
})
