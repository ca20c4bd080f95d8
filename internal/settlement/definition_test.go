package settlement_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/audit"
	"github.com/peoplehub/hr-backoffice/internal/auth"
	"github.com/peoplehub/hr-backoffice/internal/clearance"
	"github.com/peoplehub/hr-backoffice/internal/settlement"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// obligations is the mutable clearance state behind the aggregator's readers,
// so specs can settle loans or return assets between transitions.
type obligations struct {
	loanBalance     decimal.Decimal
	unreturnedCount int64
}

func (o *obligations) OutstandingBalance(ctx context.Context, tx *gorm.DB, employeeID int64) (decimal.Decimal, error) {
	return o.loanBalance, nil
}

func (o *obligations) CountUnreturned(ctx context.Context, tx *gorm.DB, employeeID int64) (int64, error) {
	return o.unreturnedCount, nil
}

type settlementStore struct {
	settlements map[int64]*settlement.Settlement
	nextID      int64
}

func newSettlementStore() *settlementStore {
	return &settlementStore{settlements: make(map[int64]*settlement.Settlement), nextID: 1}
}

func (s *settlementStore) Load(ctx context.Context, tx *gorm.DB, id int64) (workflow.Entity, error) {
	st, ok := s.settlements[id]
	if !ok {
		return nil, settlement.ErrSettlementNotFound
	}
	copied := *st
	return &copied, nil
}

func (s *settlementStore) Insert(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	st := e.(*settlement.Settlement)
	st.ID = s.nextID
	s.nextID++
	stored := *st
	s.settlements[st.ID] = &stored
	return nil
}

func (s *settlementStore) Update(ctx context.Context, tx *gorm.DB, e workflow.Entity) error {
	st := e.(*settlement.Settlement)
	stored := *st
	s.settlements[st.ID] = &stored
	return nil
}

type memorySink struct {
	events []*audit.Event
}

func (s *memorySink) Record(ctx context.Context, tx *gorm.DB, ev *audit.Event) error {
	s.events = append(s.events, ev)
	return nil
}

var _ = Describe("Settlement workflow", func() {
	var (
		db       *gorm.DB
		store    *settlementStore
		state    *obligations
		sink     *memorySink
		executor *workflow.Executor
		ctx      context.Context

		hr      workflow.Actor
		finance workflow.Actor
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		store = newSettlementStore()
		state = &obligations{loanBalance: decimal.Zero}
		sink = &memorySink{}
		ctx = context.Background()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		executor = workflow.NewExecutor(db, nil, sink, nil, nil, logger)
		executor.Register(settlement.Definition(settlement.DefinitionDeps{
			Clearance: clearance.NewAggregator(state, state, logger),
		}), store)

		hr = workflow.Actor{UserID: 4, EmployeeID: 40, Capabilities: []string{auth.CapHRManage}}
		finance = workflow.Actor{UserID: 5, EmployeeID: 50, Capabilities: []string{auth.CapFinanceManage}}
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	create := func() *settlement.Settlement {
		in := settlement.Inputs{
			YearsOfService: decimal.RequireFromString("6"),
			BasicSalary:    decimal.RequireFromString("3000"),
			FinalSalary:    decimal.RequireFromString("3000"),
		}
		s := settlement.NewSettlement(20, nil, in, settlement.Calculate(in))
		_, err := executor.Execute(ctx, workflow.Request{
			Type: workflow.TypeSettlement, Action: settlement.ActionCreate, Actor: hr, New: s,
		})
		Expect(err).NotTo(HaveOccurred())
		return store.settlements[s.ID]
	}

	act := func(id int64, action workflow.Action, actor workflow.Actor, input map[string]string) (workflow.State, error) {
		return executor.Execute(ctx, workflow.Request{
			Type: workflow.TypeSettlement, ID: id, Action: action, Actor: actor, Input: input,
		})
	}

	Describe("create", func() {
		It("freezes the calculator output on the record", func() {
			s := create()
			Expect(s.Status).To(Equal(settlement.StatusPending))
			Expect(s.GratuityAmount.StringFixed(2)).To(Equal("13500.00"))
			Expect(s.TotalSettlement.StringFixed(2)).To(Equal("16500.00"))
		})
	})

	Describe("approve", func() {
		It("succeeds with outstanding obligations and records them in the audit meta", func() {
			s := create()
			state.loanBalance = decimal.RequireFromString("450.00")
			state.unreturnedCount = 1

			st, err := act(s.ID, settlement.ActionApprove, hr, map[string]string{})
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(workflow.State(settlement.StatusApproved)))

			last := sink.events[len(sink.events)-1]
			Expect(last.Meta["loan_cleared"]).To(Equal("false"))
			Expect(last.Meta["outstanding_loan_balance"]).To(Equal("450.00"))
			Expect(last.Meta["asset_cleared"]).To(Equal("false"))
			Expect(last.Meta["unreturned_asset_count"]).To(Equal("1"))
		})

		It("is reserved to HR", func() {
			s := create()
			_, err := act(s.ID, settlement.ActionApprove, finance, map[string]string{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingCapability))
		})
	})

	Describe("mark_paid", func() {
		approved := func() *settlement.Settlement {
			s := create()
			_, err := act(s.ID, settlement.ActionApprove, hr, map[string]string{})
			Expect(err).NotTo(HaveOccurred())
			return store.settlements[s.ID]
		}

		It("is blocked while a loan balance is outstanding, with the amount attached", func() {
			s := approved()
			state.loanBalance = decimal.RequireFromString("450.00")

			_, err := act(s.ID, settlement.ActionMarkPaid, finance, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeGuardFailed))

			failures := appErr.Details.(internal.GuardFailures).Failures
			Expect(failures).To(HaveLen(1))
			Expect(failures[0].Reason).To(Equal(internal.ReasonOutstandingLoan))
			Expect(failures[0].Meta["outstanding_loan_balance"]).To(Equal("450.00"))
			Expect(store.settlements[s.ID].Status).To(Equal(settlement.StatusApproved))
		})

		It("reports every blocking obligation at once", func() {
			s := approved()
			state.loanBalance = decimal.RequireFromString("100")
			state.unreturnedCount = 2

			_, err := act(s.ID, settlement.ActionMarkPaid, finance, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(
				internal.ReasonOutstandingLoan, internal.ReasonUnreturnedAssets))
		})

		It("succeeds on a later attempt once the obligations are settled", func() {
			s := approved()
			state.loanBalance = decimal.RequireFromString("450.00")
			_, err := act(s.ID, settlement.ActionMarkPaid, finance, nil)
			Expect(err).To(HaveOccurred())

			state.loanBalance = decimal.Zero
			st, err := act(s.ID, settlement.ActionMarkPaid, finance, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(workflow.State(settlement.StatusPaid)))
			Expect(store.settlements[s.ID].PaidAt).NotTo(BeNil())
		})

		It("is reserved to Finance", func() {
			s := approved()
			_, err := act(s.ID, settlement.ActionMarkPaid, hr, nil)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingCapability))
		})
	})

	Describe("reject", func() {
		It("requires a reason", func() {
			s := create()
			_, err := act(s.ID, settlement.ActionReject, hr, nil)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonReasonRequired))

			st, err := act(s.ID, settlement.ActionReject, hr, map[string]string{"reason": "figures disputed"})
			Expect(err).NotTo(HaveOccurred())
			Expect(st).To(Equal(workflow.State(settlement.StatusRejected)))
		})
	})
})
