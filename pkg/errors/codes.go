package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeNotFound           ErrorCode = "COMMON_002"
	ErrCodeBadRequest         ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_005"
	ErrCodeTimeout            ErrorCode = "COMMON_006"
	ErrCodeValidation         ErrorCode = "COMMON_007"
	ErrCodeSerialization      ErrorCode = "COMMON_008"
	ErrCodeDatabaseError      ErrorCode = "COMMON_009"
	ErrCodeCacheError         ErrorCode = "COMMON_010"
	ErrCodeMessagingError     ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeLockNotAcquired    ErrorCode = "COMMON_013"
)

const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Tracker Module Error Codes
const (
	ErrCodeUnknownJurisdiction    ErrorCode = "TRK_001"
	ErrCodeInvalidFilingDate      ErrorCode = "TRK_002"
	ErrCodeInvalidTransition      ErrorCode = "TRK_003"
	ErrCodeNotAppealable          ErrorCode = "TRK_004"
	ErrCodeRecordClosed           ErrorCode = "TRK_005"
	ErrCodeConcurrentModification ErrorCode = "TRK_006"
	ErrCodeExtensionNotAvailable  ErrorCode = "TRK_007"
	ErrCodeRequestNotFound        ErrorCode = "TRK_008"
	ErrCodeFilingFailed           ErrorCode = "TRK_009"
)

// Appeal Module Error Codes
const (
	ErrCodeAppealNotFound          ErrorCode = "APL_001"
	ErrCodeAppealInvalidTransition ErrorCode = "APL_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeLockNotAcquired:    http.StatusConflict,

	ErrCodeUnknownJurisdiction:    http.StatusBadRequest,
	ErrCodeInvalidFilingDate:      http.StatusBadRequest,
	ErrCodeInvalidTransition:      http.StatusConflict,
	ErrCodeNotAppealable:          http.StatusConflict,
	ErrCodeRecordClosed:           http.StatusConflict,
	ErrCodeConcurrentModification: http.StatusConflict,
	ErrCodeExtensionNotAvailable:  http.StatusUnprocessableEntity,
	ErrCodeRequestNotFound:        http.StatusNotFound,
	ErrCodeFilingFailed:           http.StatusBadGateway,

	ErrCodeAppealNotFound:          http.StatusNotFound,
	ErrCodeAppealInvalidTransition: http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeNotFound:           "resource not found",
	ErrCodeBadRequest:         "bad request",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeMessagingError:     "messaging error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeLockNotAcquired:    "lock held by another owner",

	ErrCodeUnknownJurisdiction:    "unknown jurisdiction",
	ErrCodeInvalidFilingDate:      "invalid filing date",
	ErrCodeInvalidTransition:      "invalid status transition",
	ErrCodeNotAppealable:          "request is not appealable",
	ErrCodeRecordClosed:           "request is closed",
	ErrCodeConcurrentModification: "request was modified concurrently",
	ErrCodeExtensionNotAvailable:  "jurisdiction has no extension rule",
	ErrCodeRequestNotFound:        "request not found",
	ErrCodeFilingFailed:           "filing transport reported failure",

	ErrCodeAppealNotFound:          "appeal not found",
	ErrCodeAppealInvalidTransition: "invalid appeal status transition",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
