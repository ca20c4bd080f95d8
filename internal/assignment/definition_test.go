package assignment_test

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
	"github.com/peoplehub/hr-backoffice/internal/assignment"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

func TestAssignmentWorkflow(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Assignment Workflow Suite")
}

// memoryStore backs both the executor adapter and the conflict checker, so
// the guard's open-assignment read sees what the adapter has written.
type memoryStore struct {
	assignments map[int64]*assignment.Assignment
	nextID      int64
	lockedAsset int64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{assignments: make(map[int64]*assignment.Assignment), nextID: 1}
}

func (s *memoryStore) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	a, ok := s.assignments[id]
	if !ok {
		return nil, assignment.ErrAssignmentNotFound
	}
	copied := *a
	return &copied, nil
}

func (s *memoryStore) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	a := e.(*assignment.Assignment)
	a.ID = s.nextID
	s.nextID++
	stored := *a
	s.assignments[a.ID] = &stored
	return nil
}

func (s *memoryStore) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	a := e.(*assignment.Assignment)
	stored := *a
	s.assignments[a.ID] = &stored
	return nil
}

func (s *memoryStore) LockAssetRow(ctx context.Context, tx *gorm.DB, assetID int64) error {
	s.lockedAsset = assetID
	return nil
}

func (s *memoryStore) HasOpenAssignment(ctx context.Context, tx *gorm.DB, assetID, excludeID int64) (bool, error) {
	for _, a := range s.assignments {
		if a.AssetID != assetID || a.ID == excludeID {
			continue
		}
		for _, status := range assignment.NonTerminalStatuses() {
			if a.Status == status {
				return true, nil
			}
		}
	}
	return false, nil
}

var _ = Describe("Assignment workflow", func() {
	var (
		db       *gorm.DB
		store    *memoryStore
		executor *workflow.Executor
		ctx      context.Context

		itops    workflow.Actor
		employee workflow.Actor
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		store = newMemoryStore()
		ctx = context.Background()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		executor = workflow.NewExecutor(db, nil, audit.NoopSink{}, nil, nil, logger)
		executor.Register(assignment.Definition(assignment.DefinitionDeps{
			Conflicts:      store,
			EvidencePhotos: true,
		}), store)

		itops = workflow.Actor{UserID: 1, EmployeeID: 10, Capabilities: []string{auth.CapManageAssets}}
		employee = workflow.Actor{UserID: 2, EmployeeID: 20}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	create := func(assetID int64) *assignment.Assignment {
		a := assignment.NewAssignment(assetID, employee.EmployeeID, itops.EmployeeID, time.Now())
		_, err := executor.Execute(ctx, workflow.Request{
			Type: workflow.TypeAssignment, Action: assignment.ActionCreate, Actor: itops, New: a,
		})
		Expect(err).NotTo(HaveOccurred())
		return store.assignments[a.ID]
	}

	act := func(id int64, action workflow.Action, actor workflow.Actor, input map[string]string) (workflow.State, error) {
		return executor.Execute(ctx, workflow.Request{
			Type: workflow.TypeAssignment, ID: id, Action: action, Actor: actor, Input: input,
		})
	}

	Describe("create", func() {
		It("locks the asset row before checking for open assignments", func() {
			create(7)
			Expect(store.lockedAsset).To(Equal(int64(7)))
		})

		It("blocks a second assignment while one is pending", func() {
			create(7)
			second := assignment.NewAssignment(7, 30, itops.EmployeeID, time.Now())
			_, err := executor.Execute(ctx, workflow.Request{
				Type: workflow.TypeAssignment, Action: assignment.ActionCreate, Actor: itops, New: second,
			})
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonAlreadyActive))
			Expect(store.assignments).To(HaveLen(1))
		})

		It("allows a new assignment once the previous one is returned", func() {
			first := create(7)
			_, err := act(first.ID, assignment.ActionEmployeeApprove, employee, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = act(first.ID, assignment.ActionManagerRequestReturn, itops, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = act(first.ID, assignment.ActionEmployeeConfirmReturn, employee, nil)
			Expect(err).NotTo(HaveOccurred())

			second := create(7)
			Expect(second.Status).To(Equal(assignment.StatusPendingEmployeeApproval))
		})

		It("allows a new assignment after a rejection", func() {
			first := create(7)
			_, err := act(first.ID, assignment.ActionEmployeeReject, employee, map[string]string{"reason": "wrong model"})
			Expect(err).NotTo(HaveOccurred())

			second := create(7)
			Expect(second.Status).To(Equal(assignment.StatusPendingEmployeeApproval))
		})
	})

	Describe("employee_approve", func() {
		It("only the assigned employee may approve", func() {
			a := create(7)
			_, err := act(a.ID, assignment.ActionEmployeeApprove, itops, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonNotOwner))
		})

		It("stores the receipt evidence references", func() {
			a := create(7)
			state, err := act(a.ID, assignment.ActionEmployeeApprove, employee, map[string]string{
				"receipt_selfie_id": "att-1",
				"receipt_photo_id":  "att-2",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(assignment.StatusActive)))

			stored := store.assignments[a.ID]
			Expect(stored.ReceiptSelfieID).NotTo(BeNil())
			Expect(*stored.ReceiptSelfieID).To(Equal("att-1"))
			Expect(*stored.ReceiptPhotoID).To(Equal("att-2"))
		})
	})

	Describe("employee_reject", func() {
		It("requires a reason", func() {
			a := create(7)
			_, err := act(a.ID, assignment.ActionEmployeeReject, employee, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonReasonRequired))
			Expect(store.assignments[a.ID].Status).To(Equal(assignment.StatusPendingEmployeeApproval))
		})
	})

	Describe("return flow", func() {
		It("sets the end date and return evidence on confirm", func() {
			a := create(7)
			_, err := act(a.ID, assignment.ActionEmployeeApprove, employee, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = act(a.ID, assignment.ActionManagerRequestReturn, itops, nil)
			Expect(err).NotTo(HaveOccurred())

			state, err := act(a.ID, assignment.ActionEmployeeConfirmReturn, employee, map[string]string{
				"return_selfie_id": "att-3",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(workflow.State(assignment.StatusReturned)))

			stored := store.assignments[a.ID]
			Expect(stored.EndDate).NotTo(BeNil())
			Expect(*stored.ReturnSelfieID).To(Equal("att-3"))
		})

		It("rejects a return confirmation before a return is requested", func() {
			a := create(7)
			_, err := act(a.ID, assignment.ActionEmployeeConfirmReturn, employee, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInvalidTransition))
		})
	})
})
