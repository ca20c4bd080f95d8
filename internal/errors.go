package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation        ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound          ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized      ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden         ErrorType = "FORBIDDEN"
	ErrorTypeConflict          ErrorType = "CONFLICT"
	ErrorTypeInvalidTransition ErrorType = "INVALID_TRANSITION"
	ErrorTypeGuardFailed       ErrorType = "GUARD_FAILED"
	ErrorTypePersistence       ErrorType = "PERSISTENCE_ERROR"
	ErrorTypeInternal          ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidDate      ErrorCode = "INVALID_DATE"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"

	ErrCodeEntityNotFound      ErrorCode = "ENTITY_NOT_FOUND"
	ErrCodeEmployeeNotFound    ErrorCode = "EMPLOYEE_NOT_FOUND"
	ErrCodeAssetNotFound       ErrorCode = "ASSET_NOT_FOUND"
	ErrCodeUnauthorizedAccess  ErrorCode = "UNAUTHORIZED_ACCESS"
	ErrCodeMissingCapability   ErrorCode = "MISSING_CAPABILITY"
	ErrCodeNotConfiguredActor  ErrorCode = "NOT_CONFIGURED_APPROVER"
	ErrCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"
	ErrCodeGuardFailed         ErrorCode = "GUARD_FAILED"
	ErrCodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeUserInactive        ErrorCode = "USER_INACTIVE"
	ErrCodeInvalidToken        ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired        ErrorCode = "TOKEN_EXPIRED"
	ErrCodeNotificationFailure ErrorCode = "NOTIFICATION_FAILURE"
)

// GuardReason is the machine-readable reason attached to a failed guard.
// Callers route remediation off these values, so they are part of the API.
type GuardReason string

const (
	ReasonAlreadyActive       GuardReason = "already_active"
	ReasonNotOwner            GuardReason = "not_owner"
	ReasonOutstandingLoan     GuardReason = "outstanding_loan_balance"
	ReasonUnreturnedAssets    GuardReason = "unreturned_assets"
	ReasonNotAwaitingApproval GuardReason = "not_awaiting_approval"
	ReasonReasonRequired      GuardReason = "reason_required"
	ReasonBalanceOutstanding  GuardReason = "balance_outstanding"
	ReasonNotApprover         GuardReason = "not_in_approver_set"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// GuardFailure reports one blocked guard condition. A single transition can
// surface several at once (settlement clearance reports loans and assets
// together).
type GuardFailure struct {
	Reason  GuardReason       `json:"reason"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

type GuardFailures struct {
	Failures []GuardFailure `json:"failures"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewInvalidTransitionError reports an action that is not defined for the
// entity's current state. Replays of already-applied actions land here too,
// because the state has advanced past the originating row.
func NewInvalidTransitionError(entityType, state, action string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidTransition,
		Code:       ErrCodeInvalidTransition,
		Message:    fmt.Sprintf("action %q is not allowed for %s in state %q", action, entityType, state),
		StatusCode: http.StatusConflict,
	}
}

// NewGuardFailedError reports a defined transition whose precondition does not
// hold. No mutation has happened.
func NewGuardFailedError(reason GuardReason, message string) *AppError {
	return &AppError{
		Type:       ErrorTypeGuardFailed,
		Code:       ErrCodeGuardFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Details: GuardFailures{
			Failures: []GuardFailure{{Reason: reason, Message: message}},
		},
	}
}

// NewGuardFailuresError reports several blocked conditions at once.
func NewGuardFailuresError(message string, failures []GuardFailure) *AppError {
	return &AppError{
		Type:       ErrorTypeGuardFailed,
		Code:       ErrCodeGuardFailed,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Details:    GuardFailures{Failures: failures},
	}
}

// NewPersistenceError wraps a failed durable write. This is the only class the
// caller may retry: the action has definitely not taken effect.
func NewPersistenceError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistence,
		Code:       ErrCodePersistenceFailed,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrUnauthorizedAccess = NewForbiddenError("actor lacks access to this record", ErrCodeUnauthorizedAccess)
	ErrMissingCapability  = NewForbiddenError("actor lacks the required capability", ErrCodeMissingCapability)

	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrUserInactive       = NewForbiddenError("User account is inactive", ErrCodeUserInactive)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

// GuardReasons extracts the failed guard reasons from err, or nil if err is
// not a guard failure.
func GuardReasons(err error) []GuardReason {
	appErr, ok := IsAppError(err)
	if !ok || appErr.Type != ErrorTypeGuardFailed {
		return nil
	}
	failures, ok := appErr.Details.(GuardFailures)
	if !ok {
		return nil
	}
	reasons := make([]GuardReason, len(failures.Failures))
	for i, f := range failures.Failures {
		reasons[i] = f.Reason
	}
	return reasons
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
