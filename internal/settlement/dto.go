package settlement

import (
	"github.com/shopspring/decimal"

	"github.com/peoplehub/hr-backoffice/internal"
)

// CreateSettlementDTO opens a settlement draft manually (the usual path is
// the resignation-approved event). Monetary fields are decimal strings.
type CreateSettlementDTO struct {
	EmployeeID      int64  `json:"employee_id"`
	ResignationID   *int64 `json:"resignation_id,omitempty"`
	UnusedLeaveDays string `json:"unused_leave_days,omitempty"`
	FinalSalary     string `json:"final_salary,omitempty"`
	OtherAllowances string `json:"other_allowances,omitempty"`
	Deductions      string `json:"deductions,omitempty"`
}

func (dto CreateSettlementDTO) Validate() (unusedLeave, finalSalary, allowances, deductions decimal.Decimal, err error) {
	if dto.EmployeeID <= 0 {
		err = internal.NewValidationFieldError("employee_id", "employee_id is required", internal.ErrCodeValidationFailed)
		return
	}
	if unusedLeave, err = optionalAmount("unused_leave_days", dto.UnusedLeaveDays); err != nil {
		return
	}
	if finalSalary, err = optionalAmount("final_salary", dto.FinalSalary); err != nil {
		return
	}
	if allowances, err = optionalAmount("other_allowances", dto.OtherAllowances); err != nil {
		return
	}
	deductions, err = optionalAmount("deductions", dto.Deductions)
	return
}

func optionalAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, internal.NewValidationFieldError(field, field+" must be a decimal number", internal.ErrCodeInvalidAmount)
	}
	if d.IsNegative() {
		return decimal.Zero, internal.NewValidationFieldError(field, field+" must not be negative", internal.ErrCodeInvalidAmount)
	}
	return d, nil
}

type RejectSettlementDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectSettlementDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required when rejecting a settlement", internal.ErrCodeValidationFailed)
	}
	return nil
}
