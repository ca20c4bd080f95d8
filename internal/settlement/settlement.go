package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Settlement is an end-of-service payout. The monetary fields are calculator
// outputs frozen at creation time; mark_paid is gated on the employee having
// no outstanding loans or unreturned assets.
type Settlement struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	EmployeeID      int64           `json:"employee_id" gorm:"column:employee_id;not null"`
	ResignationID   *int64          `json:"resignation_id,omitempty" gorm:"column:resignation_id"`
	YearsOfService  decimal.Decimal `json:"years_of_service" gorm:"column:years_of_service;type:numeric(8,4)"`
	BasicSalary     decimal.Decimal `json:"basic_salary" gorm:"column:basic_salary;type:numeric(12,2)"`
	UnusedLeaveDays decimal.Decimal `json:"unused_leave_days" gorm:"column:unused_leave_days;type:numeric(6,2)"`
	FinalSalary     decimal.Decimal `json:"final_salary" gorm:"column:final_salary;type:numeric(12,2)"`
	OtherAllowances decimal.Decimal `json:"other_allowances" gorm:"column:other_allowances;type:numeric(12,2)"`
	Deductions      decimal.Decimal `json:"deductions" gorm:"column:deductions;type:numeric(12,2)"`
	GratuityAmount  decimal.Decimal `json:"gratuity_amount" gorm:"column:gratuity_amount;type:numeric(12,2)"`
	LeaveEncashment decimal.Decimal `json:"leave_encashment" gorm:"column:leave_encashment;type:numeric(12,2)"`
	TotalSettlement decimal.Decimal `json:"total_settlement" gorm:"column:total_settlement;type:numeric(12,2)"`
	Status          string          `json:"status" gorm:"column:status;default:pending"`
	PaidAt          *time.Time      `json:"paid_at,omitempty" gorm:"column:paid_at"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Settlement) TableName() string {
	return "settlements"
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
)

const (
	ActionCreate   workflow.Action = "create"
	ActionApprove  workflow.Action = "approve"
	ActionReject   workflow.Action = "reject"
	ActionMarkPaid workflow.Action = "mark_paid"
)

// workflow.Entity implementation

func (s *Settlement) WorkflowType() workflow.EntityType { return workflow.TypeSettlement }
func (s *Settlement) WorkflowID() int64                 { return s.ID }
func (s *Settlement) CurrentState() workflow.State      { return workflow.State(s.Status) }
func (s *Settlement) OwnerEmployeeID() int64            { return s.EmployeeID }

func (s *Settlement) SetState(state workflow.State) {
	s.Status = string(state)
	s.UpdatedAt = time.Now()
}

// NewSettlement freezes the calculator's breakdown into a pending draft.
func NewSettlement(employeeID int64, resignationID *int64, in Inputs, out Breakdown) *Settlement {
	now := time.Now()
	return &Settlement{
		EmployeeID:      employeeID,
		ResignationID:   resignationID,
		YearsOfService:  out.YearsOfService,
		BasicSalary:     in.BasicSalary,
		UnusedLeaveDays: in.UnusedLeaveDays,
		FinalSalary:     in.FinalSalary,
		OtherAllowances: in.OtherAllowances,
		Deductions:      in.Deductions,
		GratuityAmount:  out.Gratuity,
		LeaveEncashment: out.LeaveEncashment,
		TotalSettlement: out.Total,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

var ErrSettlementNotFound = internal.NewNotFoundError("settlement not found", internal.ErrCodeEntityNotFound)
