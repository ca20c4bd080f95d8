package settlement_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/clearance"
	"github.com/peoplehub/hr-backoffice/internal/core/events"
	"github.com/peoplehub/hr-backoffice/internal/employee"
	"github.com/peoplehub/hr-backoffice/internal/resignation"
	"github.com/peoplehub/hr-backoffice/internal/settlement"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// settlement.Repository over the same map the adapter writes to.

func (s *settlementStore) GetSettlement(ctx context.Context, id int64) (*settlement.Settlement, error) {
	st, ok := s.settlements[id]
	if !ok {
		return nil, settlement.ErrSettlementNotFound
	}
	copied := *st
	return &copied, nil
}

func (s *settlementStore) GetByResignation(ctx context.Context, resignationID int64) (*settlement.Settlement, error) {
	for _, st := range s.settlements {
		if st.ResignationID != nil && *st.ResignationID == resignationID {
			copied := *st
			return &copied, nil
		}
	}
	return nil, settlement.ErrSettlementNotFound
}

func (s *settlementStore) ListByEmployee(ctx context.Context, employeeID int64) ([]settlement.Settlement, error) {
	var out []settlement.Settlement
	for _, st := range s.settlements {
		if st.EmployeeID == employeeID {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (s *settlementStore) ListByStatus(ctx context.Context, status string) ([]settlement.Settlement, error) {
	var out []settlement.Settlement
	for _, st := range s.settlements {
		if st.Status == status {
			out = append(out, *st)
		}
	}
	return out, nil
}

type stubEmployees struct {
	emp *employee.Employee
}

func (s stubEmployees) GetEmployee(ctx context.Context, id int64) (*employee.Employee, error) {
	return s.emp, nil
}

type stubResignations struct {
	res *resignation.Resignation
}

func (s stubResignations) GetResignation(ctx context.Context, id int64) (*resignation.Resignation, error) {
	return s.res, nil
}

var _ = Describe("Settlement EventHandler", func() {
	var (
		db      *gorm.DB
		store   *settlementStore
		handler *settlement.EventHandler
		ctx     context.Context
	)

	const (
		employeeID    = int64(20)
		resignationID = int64(5)
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		store = newSettlementStore()
		ctx = context.Background()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		obl := &obligations{loanBalance: decimal.Zero}
		agg := clearance.NewAggregator(obl, obl, logger)

		executor := workflow.NewExecutor(db, nil, nil, nil, nil, logger)
		executor.Register(settlement.Definition(settlement.DefinitionDeps{Clearance: agg}), store)

		employees := stubEmployees{emp: &employee.Employee{
			ID:          employeeID,
			HireDate:    time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			BasicSalary: decimal.RequireFromString("3000"),
		}}
		resignations := stubResignations{res: &resignation.Resignation{
			ID:             resignationID,
			EmployeeID:     employeeID,
			Status:         resignation.StatusApproved,
			LastWorkingDay: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}}

		service := settlement.NewService(store, employees, resignations, agg, executor, logger)
		handler = settlement.NewEventHandler(service, logger)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	approvedEvent := func() events.Event {
		return events.NewWorkflowTransitionedEvent(
			"resignation", resignationID, "approve", "pending", "approved", 4, employeeID)
	}

	It("drafts a settlement when a resignation reaches approved", func() {
		Expect(handler.HandleResignationApproved(ctx, approvedEvent())).To(Succeed())

		draft, err := store.GetByResignation(ctx, resignationID)
		Expect(err).NotTo(HaveOccurred())
		Expect(draft.EmployeeID).To(Equal(employeeID))
		Expect(draft.Status).To(Equal(settlement.StatusPending))
		// tenure runs from hire to the resignation's last working day
		Expect(draft.YearsOfService.StringFixed(4)).To(Equal("6.0014"))
		Expect(draft.GratuityAmount.IsPositive()).To(BeTrue())
	})

	It("ignores intermediate chain approvals that stay pending", func() {
		ev := events.NewWorkflowTransitionedEvent(
			"resignation", resignationID, "approve", "pending", "pending", 3, employeeID)
		Expect(handler.HandleResignationApproved(ctx, ev)).To(Succeed())
		Expect(store.settlements).To(BeEmpty())
	})

	It("does not draft twice for the same resignation", func() {
		Expect(handler.HandleResignationApproved(ctx, approvedEvent())).To(Succeed())
		Expect(handler.HandleResignationApproved(ctx, approvedEvent())).To(Succeed())
		Expect(store.settlements).To(HaveLen(1))
	})

	It("runs when the transition event goes over the bus", func() {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		bus := events.NewEventBus(logger)
		handler.RegisterEventHandlers(bus)

		Expect(bus.PublishSync(ctx, approvedEvent())).To(Succeed())
		_, err := store.GetByResignation(ctx, resignationID)
		Expect(err).NotTo(HaveOccurred())
	})
})
