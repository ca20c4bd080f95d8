package settlement_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/peoplehub/hr-backoffice/internal/settlement"
)

func TestSettlement(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Settlement Suite")
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	Expect(err).NotTo(HaveOccurred())
	return d
}

var _ = Describe("Calculate", func() {
	Context("six years of service on a 3000 basic salary", func() {
		var out settlement.Breakdown

		BeforeEach(func() {
			out = settlement.Calculate(settlement.Inputs{
				YearsOfService: dec("6"),
				BasicSalary:    dec("3000"),
			})
		})

		It("derives a daily rate of basic/30", func() {
			Expect(out.DailyRate.StringFixed(2)).To(Equal("100.00"))
		})

		It("pays 21 days/year for the first five years and 30 beyond", func() {
			// 100 * 21 * 5 + 100 * 30 * 1
			Expect(out.Gratuity.StringFixed(2)).To(Equal("13500.00"))
		})
	})

	It("computes gratuity linearly below the tier boundary", func() {
		out := settlement.Calculate(settlement.Inputs{
			YearsOfService: dec("3"),
			BasicSalary:    dec("3000"),
		})
		// 100 * 21 * 3
		Expect(out.Gratuity.StringFixed(2)).To(Equal("6300.00"))
	})

	It("agrees in both tier branches at exactly five years", func() {
		low := settlement.Calculate(settlement.Inputs{
			YearsOfService: dec("5"),
			BasicSalary:    dec("3000"),
		})
		high := settlement.Calculate(settlement.Inputs{
			YearsOfService: dec("5.0001"),
			BasicSalary:    dec("3000"),
		})
		Expect(low.Gratuity.StringFixed(2)).To(Equal("10500.00"))
		Expect(high.Gratuity.GreaterThan(low.Gratuity)).To(BeTrue())
		Expect(high.Gratuity.Sub(low.Gratuity).LessThan(dec("1"))).To(BeTrue())
	})

	It("encashes unused leave at the daily rate", func() {
		out := settlement.Calculate(settlement.Inputs{
			YearsOfService:  dec("2"),
			BasicSalary:     dec("4500"),
			UnusedLeaveDays: dec("10"),
		})
		Expect(out.DailyRate.StringFixed(2)).To(Equal("150.00"))
		Expect(out.LeaveEncashment.StringFixed(2)).To(Equal("1500.00"))
	})

	It("totals gratuity plus encashment plus final pay minus deductions", func() {
		out := settlement.Calculate(settlement.Inputs{
			YearsOfService:  dec("2"),
			BasicSalary:     dec("3000"),
			UnusedLeaveDays: dec("5"),
			FinalSalary:     dec("3000"),
			OtherAllowances: dec("200"),
			Deductions:      dec("150"),
		})
		// gratuity 4200 + leave 500 + final 3000 + allowances 200 - deductions 150
		Expect(out.Total.StringFixed(2)).To(Equal("7750.00"))
	})

	It("derives years of service from dates when not supplied", func() {
		hire := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		out := settlement.Calculate(settlement.Inputs{
			HireDate:       hire,
			LastWorkingDay: last,
			BasicSalary:    dec("3000"),
		})
		// 2192 days / 365.25
		Expect(out.YearsOfService.StringFixed(4)).To(Equal("6.0014"))
	})

	It("is deterministic for identical inputs", func() {
		in := settlement.Inputs{
			YearsOfService:  dec("7.3333"),
			BasicSalary:     dec("5432.10"),
			UnusedLeaveDays: dec("12.5"),
			FinalSalary:     dec("5432.10"),
			OtherAllowances: dec("321.99"),
			Deductions:      dec("88.01"),
		}
		a := settlement.Calculate(in)
		b := settlement.Calculate(in)
		Expect(a.Gratuity.String()).To(Equal(b.Gratuity.String()))
		Expect(a.LeaveEncashment.String()).To(Equal(b.LeaveEncashment.String()))
		Expect(a.Total.String()).To(Equal(b.Total.String()))
	})
})

var _ = Describe("YearsOfService", func() {
	It("returns zero when the last working day precedes the hire date", func() {
		hire := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		Expect(settlement.YearsOfService(hire, last).IsZero()).To(BeTrue())
	})

	It("rounds to four decimal places", func() {
		hire := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		// 365 / 365.25
		Expect(settlement.YearsOfService(hire, last).StringFixed(4)).To(Equal("0.9993"))
	})
})
