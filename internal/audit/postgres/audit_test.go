package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peoplehub/hr-backoffice/internal/audit"
)

func TestAuditRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Repository Suite")
}

var _ = Describe("AuditRepository", func() {
	var (
		db   *gorm.DB
		repo *AuditRepository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&audit.Event{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewAuditRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	record := func(entityID int64, eventType string, at time.Time) {
		err := repo.Record(ctx, db, &audit.Event{
			EntityType:  "loan",
			EntityID:    entityID,
			EventType:   eventType,
			ActorUserID: 1,
			OccurredAt:  at,
			Meta:        map[string]string{"from_status": "pending_gm"},
		})
		Expect(err).NotTo(HaveOccurred())
	}

	It("returns an entity's trail in chronological order", func() {
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		record(7, "loan.gm_approve", base.Add(time.Minute))
		record(7, "loan.submit", base)
		record(7, "loan.finance_approve", base.Add(2*time.Minute))

		events, err := repo.ListByEntity(ctx, "loan", 7, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(3))
		Expect(events[0].EventType).To(Equal("loan.submit"))
		Expect(events[1].EventType).To(Equal("loan.gm_approve"))
		Expect(events[2].EventType).To(Equal("loan.finance_approve"))
	})

	It("scopes the trail to one entity", func() {
		now := time.Now().UTC()
		record(7, "loan.submit", now)
		record(8, "loan.submit", now)

		events, err := repo.ListByEntity(ctx, "loan", 7, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].EntityID).To(Equal(int64(7)))
	})

	It("round-trips the transition meta", func() {
		record(9, "loan.submit", time.Now().UTC())

		events, err := repo.ListByEntity(ctx, "loan", 9, 10, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(events[0].Meta["from_status"]).To(Equal("pending_gm"))
	})

	It("paginates with limit and offset", func() {
		base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		for i := 0; i < 5; i++ {
			record(7, "loan.submit", base.Add(time.Duration(i)*time.Minute))
		}

		page, err := repo.ListByEntity(ctx, "loan", 7, 2, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(page).To(HaveLen(2))
		Expect(page[0].OccurredAt.Equal(base.Add(2 * time.Minute))).To(BeTrue())
	})
})
