package loan

import (
	"github.com/shopspring/decimal"

	"github.com/peoplehub/hr-backoffice/internal"
)

// ApplyLoanDTO is the payload for requesting a cash advance. EmployeeID may
// be left zero to mean "the calling employee"; setting it to someone else
// requires the HR capability.
type ApplyLoanDTO struct {
	EmployeeID        int64  `json:"employee_id,omitempty"`
	Purpose           string `json:"purpose"`
	PrincipalAmount   string `json:"principal_amount"`
	InstallmentsCount int    `json:"installments_count"`
}

func (dto ApplyLoanDTO) Validate() (decimal.Decimal, error) {
	if dto.PrincipalAmount == "" {
		return decimal.Zero, internal.NewValidationFieldError("principal_amount", "principal_amount is required", internal.ErrCodeValidationFailed)
	}
	principal, err := decimal.NewFromString(dto.PrincipalAmount)
	if err != nil {
		return decimal.Zero, internal.NewValidationFieldError("principal_amount", "principal_amount must be a decimal number", internal.ErrCodeInvalidAmount)
	}
	if !principal.IsPositive() {
		return decimal.Zero, internal.NewValidationFieldError("principal_amount", "principal_amount must be greater than zero", internal.ErrCodeInvalidAmount)
	}
	if dto.InstallmentsCount <= 0 {
		return decimal.Zero, internal.NewValidationFieldError("installments_count", "installments_count must be at least 1", internal.ErrCodeValidationFailed)
	}
	return principal, nil
}

type RejectLoanDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectLoanDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required when rejecting a loan", internal.ErrCodeValidationFailed)
	}
	return nil
}

// RecordPaymentDTO posts one installment against the schedule.
type RecordPaymentDTO struct {
	InstallmentNo int    `json:"installment_no"`
	Amount        string `json:"amount"`
}

func (dto RecordPaymentDTO) Validate() (decimal.Decimal, error) {
	if dto.InstallmentNo <= 0 {
		return decimal.Zero, internal.NewValidationFieldError("installment_no", "installment_no must be at least 1", internal.ErrCodeValidationFailed)
	}
	amount, err := decimal.NewFromString(dto.Amount)
	if err != nil {
		return decimal.Zero, internal.NewValidationFieldError("amount", "amount must be a decimal number", internal.ErrCodeInvalidAmount)
	}
	if !amount.IsPositive() {
		return decimal.Zero, internal.NewValidationFieldError("amount", "amount must be greater than zero", internal.ErrCodeInvalidAmount)
	}
	return amount, nil
}

type SkipInstallmentDTO struct {
	InstallmentNo int `json:"installment_no"`
}

func (dto SkipInstallmentDTO) Validate() error {
	if dto.InstallmentNo <= 0 {
		return internal.NewValidationFieldError("installment_no", "installment_no must be at least 1", internal.ErrCodeValidationFailed)
	}
	return nil
}
