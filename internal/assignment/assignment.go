package assignment

import (
	"time"

	"github.com/peoplehub/hr-backoffice/internal"
	"github.com/peoplehub/hr-backoffice/internal/workflow"
)

// Assignment binds one asset to one employee. At most one assignment per
// asset may sit in a non-terminal status at any time; the partial unique
// index on asset_id enforces this below the guard.
type Assignment struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	AssetID    int64      `json:"asset_id" gorm:"column:asset_id;not null"`
	EmployeeID int64      `json:"employee_id" gorm:"column:employee_id;not null"`
	AssignedBy int64      `json:"assigned_by" gorm:"column:assigned_by;not null"`
	Status     string     `json:"status" gorm:"column:status;default:pending_employee_approval"`
	StartDate  time.Time  `json:"start_date" gorm:"column:start_date;type:date"`
	EndDate    *time.Time `json:"end_date,omitempty" gorm:"column:end_date;type:date"`

	// Evidence attachment references, populated when the deployment schema
	// carries the photo columns.
	ReceiptSelfieID *string `json:"receipt_selfie_id,omitempty" gorm:"column:receipt_selfie_id"`
	ReceiptPhotoID  *string `json:"receipt_photo_id,omitempty" gorm:"column:receipt_photo_id"`
	ReturnSelfieID  *string `json:"return_selfie_id,omitempty" gorm:"column:return_selfie_id"`
	ReturnPhotoID   *string `json:"return_photo_id,omitempty" gorm:"column:return_photo_id"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Assignment) TableName() string {
	return "asset_assignments"
}

const (
	StatusPendingEmployeeApproval = "pending_employee_approval"
	StatusActive                  = "active"
	StatusReturnRequested         = "return_requested"
	StatusReturned                = "returned"
	StatusRejected                = "rejected"
)

// NonTerminalStatuses are the statuses that count as "the asset is out".
func NonTerminalStatuses() []string {
	return []string{StatusPendingEmployeeApproval, StatusActive, StatusReturnRequested}
}

const (
	ActionCreate                workflow.Action = "create"
	ActionEmployeeApprove       workflow.Action = "employee_approve"
	ActionEmployeeReject        workflow.Action = "employee_reject"
	ActionManagerRequestReturn  workflow.Action = "manager_request_return"
	ActionEmployeeConfirmReturn workflow.Action = "employee_confirm_return"
)

// workflow.Entity implementation

func (a *Assignment) WorkflowType() workflow.EntityType { return workflow.TypeAssignment }
func (a *Assignment) WorkflowID() int64                 { return a.ID }
func (a *Assignment) CurrentState() workflow.State      { return workflow.State(a.Status) }
func (a *Assignment) OwnerEmployeeID() int64            { return a.EmployeeID }

func (a *Assignment) SetState(s workflow.State) {
	a.Status = string(s)
	a.UpdatedAt = time.Now()
}

func NewAssignment(assetID, employeeID, assignedBy int64, startDate time.Time) *Assignment {
	now := time.Now()
	return &Assignment{
		AssetID:    assetID,
		EmployeeID: employeeID,
		AssignedBy: assignedBy,
		Status:     StatusPendingEmployeeApproval,
		StartDate:  startDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

var ErrAssignmentNotFound = internal.NewNotFoundError("assignment not found", internal.ErrCodeEntityNotFound)
