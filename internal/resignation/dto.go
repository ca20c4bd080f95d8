package resignation

import (
	"time"

	"github.com/peoplehub/hr-backoffice/internal"
)

// SubmitResignationDTO opens a resignation request. EmployeeID may be zero to
// mean "the calling employee"; HR may set it to submit on someone's behalf.
type SubmitResignationDTO struct {
	EmployeeID      int64  `json:"employee_id,omitempty"`
	Reason          string `json:"reason"`
	ResignationDate string `json:"resignation_date"` // ISO-8601 date
	LastWorkingDay  string `json:"last_working_day"` // ISO-8601 date
}

func (dto SubmitResignationDTO) Validate() (resignationDate, lastWorkingDay time.Time, err error) {
	if dto.ResignationDate == "" {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("resignation_date", "resignation_date is required", internal.ErrCodeValidationFailed)
	}
	resignationDate, err = time.Parse("2006-01-02", dto.ResignationDate)
	if err != nil {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("resignation_date", "resignation_date must be an ISO-8601 date", internal.ErrCodeInvalidDate)
	}
	if dto.LastWorkingDay == "" {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("last_working_day", "last_working_day is required", internal.ErrCodeValidationFailed)
	}
	lastWorkingDay, err = time.Parse("2006-01-02", dto.LastWorkingDay)
	if err != nil {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("last_working_day", "last_working_day must be an ISO-8601 date", internal.ErrCodeInvalidDate)
	}
	if lastWorkingDay.Before(resignationDate) {
		return time.Time{}, time.Time{}, internal.NewValidationFieldError("last_working_day", "last_working_day must not precede resignation_date", internal.ErrCodeInvalidDate)
	}
	return resignationDate, lastWorkingDay, nil
}

type RejectResignationDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectResignationDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required when rejecting a resignation", internal.ErrCodeValidationFailed)
	}
	return nil
}

type CancelResignationDTO struct {
	Reason string `json:"reason"`
}

func (dto CancelResignationDTO) Validate() error {
	if dto.Reason == "" {
		return internal.NewValidationFieldError("reason", "reason is required when cancelling a resignation", internal.ErrCodeValidationFailed)
	}
	return nil
}
