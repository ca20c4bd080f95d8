package resignation

import (
	"time"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Resignation walks a configurable approval chain. ApprovalLevel is the index
// (1-based) of the stage currently holding the request; it advances one stage
// per approval and the request is approved once the last stage signs off.
type Resignation struct {
	ID             int64      `json:"id" gorm:"primaryKey"`
	EmployeeID     int64      `json:"employee_id" gorm:"column:employee_id;not null"`
	Reason         string     `json:"reason" gorm:"column:reason"`
	ResignationDate time.Time `json:"resignation_date" gorm:"column:resignation_date;type:date"`
	LastWorkingDay time.Time  `json:"last_working_day" gorm:"column:last_working_day;type:date"`
	ApprovalLevel  int        `json:"approval_level" gorm:"column:approval_level;default:1"`
	Status         string     `json:"status" gorm:"column:status;default:pending"`
	CancelReason   *string    `json:"cancel_reason,omitempty" gorm:"column:cancel_reason"`
	RejectReason   *string    `json:"reject_reason,omitempty" gorm:"column:reject_reason"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Resignation) TableName() string {
	return "resignations"
}

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

const (
	ActionSubmit  workflow.Action = "submit"
	ActionApprove workflow.Action = "approve"
	ActionReject  workflow.Action = "reject"
	ActionCancel  workflow.Action = "cancel"
)

// workflow.Entity implementation

func (r *Resignation) WorkflowType() workflow.EntityType { return workflow.TypeResignation }
func (r *Resignation) WorkflowID() int64                 { return r.ID }
func (r *Resignation) CurrentState() workflow.State      { return workflow.State(r.Status) }
func (r *Resignation) OwnerEmployeeID() int64            { return r.EmployeeID }

func (r *Resignation) SetState(s workflow.State) {
	r.Status = string(s)
	r.UpdatedAt = time.Now()
}

func NewResignation(employeeID int64, reason string, resignationDate, lastWorkingDay time.Time) *Resignation {
	now := time.Now()
	return &Resignation{
		EmployeeID:      employeeID,
		Reason:          reason,
		ResignationDate: resignationDate,
		LastWorkingDay:  lastWorkingDay,
		ApprovalLevel:   1,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

var ErrResignationNotFound = internal.NewNotFoundError("resignation not found", internal.ErrCodeEntityNotFound)
