// Package errors provides standardized error handling for the intake service.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Form validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Draft persistence
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	ErrCodeDraftCorrupt       ErrorCode = "DRAFT_CORRUPT"

	// Attachment intake
	ErrCodeFileTypeRejected  ErrorCode = "FILE_TYPE_REJECTED"
	ErrCodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrCodeFileDuplicate     ErrorCode = "FILE_DUPLICATE"
	ErrCodeFileLimitExceeded ErrorCode = "FILE_LIMIT_EXCEEDED"

	// Monday.com submission
	ErrCodeMondayCreateFailed ErrorCode = "MONDAY_CREATE_FAILED"
	ErrCodeMondayUpdateFailed ErrorCode = "MONDAY_UPDATE_FAILED"
	ErrCodeMondayUploadFailed ErrorCode = "MONDAY_UPLOAD_FAILED"

	// Submission guarding
	ErrCodeSubmissionInFlight     ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeDraftAlreadySubmitted  ErrorCode = "DRAFT_ALREADY_SUBMITTED"
	ErrCodeSubmissionNotComplete  ErrorCode = "SUBMISSION_NOT_COMPLETE"
	ErrCodeCatalogLoadFailed      ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is lets errors.Is match two StandardErrors by code.
func (e *StandardError) Is(target error) bool {
	var se *StandardError
	if errors.As(target, &se) {
		return e.Code == se.Code
	}
	return false
}

// CodeOf extracts the ErrorCode from err, or "" when err is not a StandardError.
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// ==========================
// Error Constructors
// ==========================

// NewValidationError creates a user-fixable validation error.
func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStorageError wraps a draft persistence failure. Storage errors are
// always treated as retryable: the draft survives in memory for the session.
func NewStorageError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageUnavailable,
		Message:   "draft storage unavailable",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFileRejectedError creates a per-file intake rejection with a
// reason-specific code.
func NewFileRejectedError(code ErrorCode, fileName, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Metadata:  map[string]interface{}{"fileName": fileName},
		Timestamp: time.Now().UTC(),
	}
}

// NewMondayError wraps a failure from the Monday.com API. Create failures
// are retryable (the whole submission can be re-attempted); update and
// upload failures are not, since the item already exists.
func NewMondayError(code ErrorCode, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   "Monday.com request failed",
		Details:   details,
		Retryable: code == ErrCodeMondayCreateFailed,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionGuardError signals a refused submission attempt
// (already running or already submitted).
func NewSubmissionGuardError(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
