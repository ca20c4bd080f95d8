package assignment

import (
	"time"

	"github.com/peoplehub/hr-backoffice/internal"
)

// CreateAssignmentDTO is the payload for handing an asset to an employee.
type CreateAssignmentDTO struct {
	AssetID    int64  `json:"asset_id"`
	EmployeeID int64  `json:"employee_id"`
	StartDate  string `json:"start_date"` // ISO-8601 date
}

func (dto CreateAssignmentDTO) Validate() (time.Time, error) {
	if dto.AssetID <= 0 {
		return time.Time{}, internal.NewValidationFieldError("asset_id", "asset_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.EmployeeID <= 0 {
		return time.Time{}, internal.NewValidationFieldError("employee_id", "employee_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.StartDate == "" {
		return time.Time{}, internal.NewValidationFieldError("start_date", "start_date is required", internal.ErrCodeValidationFailed)
	}
	startDate, err := time.Parse("2006-01-02", dto.StartDate)
	if err != nil {
		return time.Time{}, internal.NewValidationFieldError("start_date", "start_date must be an ISO-8601 date", internal.ErrCodeInvalidDate)
	}
	return startDate, nil
}

// EvidenceDTO carries the attachment references captured at hand-over or
// return time.
type EvidenceDTO struct {
	SelfieID string `json:"selfie_id,omitempty"`
	PhotoID  string `json:"photo_id,omitempty"`
}

type RejectAssignmentDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectAssignmentDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required when rejecting an assignment", internal.ErrCodeValidationFailed)
	}
	return nil
}
