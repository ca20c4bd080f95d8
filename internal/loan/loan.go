package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Loan is a cash advance repaid in installments. RemainingBalance only moves
// through the payment schedule (RecordPayment / SkipInstallment), never by
// direct edit.
type Loan struct {
	ID                int64           `json:"id" gorm:"primaryKey"`
	EmployeeID        int64           `json:"employee_id" gorm:"column:employee_id;not null"`
	Purpose           string          `json:"purpose" gorm:"column:purpose"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" gorm:"column:principal_amount;type:numeric(12,2)"`
	InstallmentsCount int             `json:"installments_count" gorm:"column:installments_count;not null"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance" gorm:"column:remaining_balance;type:numeric(12,2)"`
	Status            string          `json:"status" gorm:"column:status;default:pending_gm"`
	GMApprovedBy      *int64          `json:"gm_approved_by,omitempty" gorm:"column:gm_approved_by"`
	FinanceApprovedBy *int64          `json:"finance_approved_by,omitempty" gorm:"column:finance_approved_by"`
	RejectionReason   *string         `json:"rejection_reason,omitempty" gorm:"column:rejection_reason"`
	CreatedAt         time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt         time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Loan) TableName() string {
	return "loans"
}

const (
	StatusPendingGM      = "pending_gm"
	StatusPendingFinance = "pending_finance"
	StatusActive         = "active"
	StatusPaidOff        = "paid_off"
	StatusRejected       = "rejected"
	StatusCancelled      = "cancelled"
)

const (
	ActionSubmit         workflow.Action = "submit"
	ActionGMApprove      workflow.Action = "gm_approve"
	ActionGMReject       workflow.Action = "gm_reject"
	ActionFinanceApprove workflow.Action = "finance_approve"
	ActionFinanceReject  workflow.Action = "finance_reject"
	ActionCancel         workflow.Action = "cancel"
	ActionMarkPaidOff    workflow.Action = "mark_paid_off"
)

// Payment is one ledger line of the repayment schedule. A skip carries a zero
// amount and leaves the balance untouched.
type Payment struct {
	ID            int64           `json:"id" gorm:"primaryKey"`
	LoanID        int64           `json:"loan_id" gorm:"column:loan_id;not null"`
	InstallmentNo int             `json:"installment_no" gorm:"column:installment_no;not null"`
	Amount        decimal.Decimal `json:"amount" gorm:"column:amount;type:numeric(12,2)"`
	Kind          string          `json:"kind" gorm:"column:kind;not null"`
	RecordedBy    int64           `json:"recorded_by" gorm:"column:recorded_by;not null"`
	RecordedAt    time.Time       `json:"recorded_at" gorm:"column:recorded_at;default:now()"`
}

func (Payment) TableName() string {
	return "loan_payments"
}

const (
	PaymentKindPayment = "payment"
	PaymentKindSkip    = "skip"
)

// workflow.Entity implementation

func (l *Loan) WorkflowType() workflow.EntityType { return workflow.TypeLoan }
func (l *Loan) WorkflowID() int64                 { return l.ID }
func (l *Loan) CurrentState() workflow.State      { return workflow.State(l.Status) }
func (l *Loan) OwnerEmployeeID() int64            { return l.EmployeeID }

func (l *Loan) SetState(s workflow.State) {
	l.Status = string(s)
	l.UpdatedAt = time.Now()
}

func NewLoan(employeeID int64, purpose string, principal decimal.Decimal, installments int) *Loan {
	now := time.Now()
	return &Loan{
		EmployeeID:        employeeID,
		Purpose:           purpose,
		PrincipalAmount:   principal,
		InstallmentsCount: installments,
		RemainingBalance:  principal,
		Status:            StatusPendingGM,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

var ErrLoanNotFound = internal.NewNotFoundError("loan not found", internal.ErrCodeEntityNotFound)
