package errors

import "fmt"

// ─────────────────────────────────────────────────────────────────────────────
// Tracker taxonomy
// ─────────────────────────────────────────────────────────────────────────────

// UnknownJurisdiction is returned whenever a jurisdiction code has no rule
// table entry.  It is never defaulted.
func UnknownJurisdiction(code string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownJurisdiction,
		Message: "unknown jurisdiction",
		Detail:  fmt.Sprintf("jurisdiction=%q", code),
		Stack:   captureStack(1),
	}
}

// InvalidFilingDate reports a filing date the tracker cannot accept.
func InvalidFilingDate(reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidFilingDate,
		Message: "invalid filing date",
		Detail:  reason,
		Stack:   captureStack(1),
	}
}

// InvalidTransition carries the current and attempted status.
func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidTransition,
		Message: "invalid status transition",
		Detail:  fmt.Sprintf("current=%s attempted=%s", from, to),
		Stack:   captureStack(1),
	}
}

// NotAppealable carries the status that blocked appeal generation.
func NotAppealable(status string) *AppError {
	return &AppError{
		Code:    ErrCodeNotAppealable,
		Message: "request is not appealable",
		Detail:  fmt.Sprintf("status=%s", status),
		Stack:   captureStack(1),
	}
}

// RecordClosed is returned for any mutation except note-appending on a
// Resolved or Closed record.
func RecordClosed(id, status string) *AppError {
	return &AppError{
		Code:    ErrCodeRecordClosed,
		Message: "request is closed",
		Detail:  fmt.Sprintf("id=%s status=%s", id, status),
		Stack:   captureStack(1),
	}
}

// ConcurrentModification reports a version mismatch on write.  Callers retry
// after re-reading; the tracker never retries on their behalf.
func ConcurrentModification(id string, expected int) *AppError {
	return &AppError{
		Code:    ErrCodeConcurrentModification,
		Message: "request was modified concurrently",
		Detail:  fmt.Sprintf("id=%s expected_version=%d", id, expected),
		Stack:   captureStack(1),
	}
}

// ExtensionNotAvailable is returned when the jurisdiction defines no extension.
func ExtensionNotAvailable(code string) *AppError {
	return &AppError{
		Code:    ErrCodeExtensionNotAvailable,
		Message: "jurisdiction has no extension rule",
		Detail:  fmt.Sprintf("jurisdiction=%s", code),
		Stack:   captureStack(1),
	}
}

// RequestNotFound is the not-found error for request records.
func RequestNotFound(id string) *AppError {
	return &AppError{
		Code:    ErrCodeRequestNotFound,
		Message: "request not found",
		Detail:  fmt.Sprintf("id=%s", id),
		Stack:   captureStack(1),
	}
}

// AppealNotFound is the not-found error for appeal records.
func AppealNotFound(id string) *AppError {
	return &AppError{
		Code:    ErrCodeAppealNotFound,
		Message: "appeal not found",
		Detail:  fmt.Sprintf("id=%s", id),
		Stack:   captureStack(1),
	}
}

//Personal.AI order the ending
