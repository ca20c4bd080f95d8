package settlement

import (
	"time"

	"github.com/shopspring/decimal"
)

// Inputs feed the settlement calculator. YearsOfService may be supplied
// directly; when zero it is derived from HireDate and LastWorkingDay.
type Inputs struct {
	HireDate        time.Time
	LastWorkingDay  time.Time
	YearsOfService  decimal.Decimal
	BasicSalary     decimal.Decimal
	UnusedLeaveDays decimal.Decimal
	FinalSalary     decimal.Decimal
	OtherAllowances decimal.Decimal
	Deductions      decimal.Decimal
}

// Breakdown is the calculator's output, every amount rounded to 2 places and
// years to 4.
type Breakdown struct {
	YearsOfService  decimal.Decimal `json:"years_of_service"`
	DailyRate       decimal.Decimal `json:"daily_rate"`
	Gratuity        decimal.Decimal `json:"gratuity"`
	LeaveEncashment decimal.Decimal `json:"leave_encashment"`
	Total           decimal.Decimal `json:"total"`
}

var (
	daysPerMonth      = decimal.NewFromInt(30)
	daysPerYear       = decimal.NewFromFloat(365.25)
	gratuityDaysLow   = decimal.NewFromInt(21) // per year of service up to the tier boundary
	gratuityDaysHigh  = decimal.NewFromInt(30) // per year beyond the boundary
	gratuityTierYears = decimal.NewFromInt(5)
)

// YearsOfService converts a tenure span to decimal years, rounded to 4 places.
func YearsOfService(hireDate, lastWorkingDay time.Time) decimal.Decimal {
	if lastWorkingDay.Before(hireDate) {
		return decimal.Zero
	}
	days := decimal.NewFromFloat(lastWorkingDay.Sub(hireDate).Hours() / 24)
	return days.Div(daysPerYear).Round(4)
}

// Calculate is pure and deterministic: identical inputs produce byte-identical
// decimal outputs. The gratuity is a two-tier piecewise-linear function of
// tenure; both branches agree exactly at the tier boundary.
func Calculate(in Inputs) Breakdown {
	years := in.YearsOfService
	if years.IsZero() && !in.LastWorkingDay.IsZero() {
		years = YearsOfService(in.HireDate, in.LastWorkingDay)
	}

	dailyRate := in.BasicSalary.Div(daysPerMonth)

	var gratuity decimal.Decimal
	if years.LessThanOrEqual(gratuityTierYears) {
		gratuity = dailyRate.Mul(gratuityDaysLow).Mul(years)
	} else {
		base := dailyRate.Mul(gratuityDaysLow).Mul(gratuityTierYears)
		extra := dailyRate.Mul(gratuityDaysHigh).Mul(years.Sub(gratuityTierYears))
		gratuity = base.Add(extra)
	}

	leaveEncashment := dailyRate.Mul(in.UnusedLeaveDays)
	total := gratuity.Add(leaveEncashment).Add(in.FinalSalary).Add(in.OtherAllowances).Sub(in.Deductions)

	return Breakdown{
		YearsOfService:  years.Round(4),
		DailyRate:       dailyRate.Round(2),
		Gratuity:        gratuity.Round(2),
		LeaveEncashment: leaveEncashment.Round(2),
		Total:           total.Round(2),
	}
}
