package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/assignment"
)

func TestAssignmentRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Assignment Repository Suite")
}

var _ = Describe("AssignmentRepository", func() {
	var (
		db   *gorm.DB
		repo *AssignmentRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&assignment.Assignment{})
		Expect(err).NotTo(HaveOccurred())

		// same partial unique index the production schema carries
		err = db.Exec(`CREATE UNIQUE INDEX uq_asset_assignments_open_asset
			ON asset_assignments (asset_id)
			WHERE status IN ('pending_employee_approval', 'active', 'return_requested')`).Error
		Expect(err).NotTo(HaveOccurred())

		repo = NewAssignmentRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	insert := func(assetID, employeeID int64, status string) *assignment.Assignment {
		a := assignment.NewAssignment(assetID, employeeID, 1, time.Now())
		a.Status = status
		Expect(repo.Insert(ctx, db, a)).To(Succeed())
		return a
	}

	Describe("Insert", func() {
		It("translates the open-assignment index violation into a guard failure", func() {
			insert(7, 20, assignment.StatusActive)

			second := assignment.NewAssignment(7, 30, 1, time.Now())
			err := repo.Insert(ctx, db, second)
			Expect(internal.GuardReasons(err)).To(ConsistOf(internal.ReasonAlreadyActive))
		})

		It("allows a second row once the first is terminal", func() {
			insert(7, 20, assignment.StatusReturned)
			second := assignment.NewAssignment(7, 30, 1, time.Now())
			Expect(repo.Insert(ctx, db, second)).To(Succeed())
		})
	})

	Describe("GetAssignment", func() {
		It("returns a stored assignment", func() {
			a := insert(7, 20, assignment.StatusActive)
			got, err := repo.GetAssignment(ctx, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.AssetID).To(Equal(int64(7)))
			Expect(got.EmployeeID).To(Equal(int64(20)))
		})

		It("maps a missing row to not found", func() {
			_, err := repo.GetAssignment(ctx, 999)
			Expect(err).To(Equal(assignment.ErrAssignmentNotFound))
		})
	})

	Describe("HasOpenAssignment", func() {
		It("sees pending and active rows but not terminal ones", func() {
			insert(7, 20, assignment.StatusReturned)
			open, err := repo.HasOpenAssignment(ctx, db, 7, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(BeFalse())

			insert(7, 30, assignment.StatusPendingEmployeeApproval)
			open, err = repo.HasOpenAssignment(ctx, db, 7, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(BeTrue())
		})

		It("excludes the transitioning row itself", func() {
			a := insert(7, 20, assignment.StatusPendingEmployeeApproval)
			open, err := repo.HasOpenAssignment(ctx, db, 7, a.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(open).To(BeFalse())
		})
	})

	Describe("CountUnreturned", func() {
		It("counts an employee's non-terminal assignments", func() {
			insert(7, 20, assignment.StatusActive)
			insert(8, 20, assignment.StatusReturnRequested)
			insert(9, 20, assignment.StatusReturned)
			insert(10, 30, assignment.StatusActive)

			count, err := repo.CountUnreturned(ctx, nil, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})
	})

	Describe("ListByEmployee", func() {
		It("returns only the employee's assignments", func() {
			insert(7, 20, assignment.StatusActive)
			insert(8, 30, assignment.StatusActive)

			list, err := repo.ListByEmployee(ctx, 20)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].AssetID).To(Equal(int64(7)))
		})
	})
})
