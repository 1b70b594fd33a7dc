package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Discovery errors
	ErrCodeTranscriptUnreadable ErrorCode = "TRANSCRIPT_UNREADABLE"
	ErrCodeSnapshotFailed       ErrorCode = "SNAPSHOT_FAILED"

	// Enrichment channel errors
	ErrCodeSettingsCorrupt   ErrorCode = "SETTINGS_CORRUPT"
	ErrCodeHookScriptMissing ErrorCode = "HOOK_SCRIPT_MISSING"
	ErrCodeStatusWriteFailed ErrorCode = "STATUS_WRITE_FAILED"

	// Process control errors
	ErrCodeProcessNotFound ErrorCode = "PROCESS_NOT_FOUND"

	// Command execution errors
	ErrCodeCommandTimeout  ErrorCode = "COMMAND_TIMEOUT"
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// Server errors
	ErrCodeServerSocket      ErrorCode = "SERVER_SOCKET"
	ErrCodeServerUnavailable ErrorCode = "SERVER_UNAVAILABLE"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// FleetError represents a structured error with context
type FleetError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *FleetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *FleetError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *FleetError) WithDetail(key string, value interface{}) *FleetError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *FleetError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new FleetError
func New(code ErrorCode, message string) *FleetError {
	return &FleetError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a FleetError
func Wrap(err error, code ErrorCode, message string) *FleetError {
	return &FleetError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error is a specific FleetError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	fleetErr, ok := err.(*FleetError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	return fleetErr.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	fleetErr, ok := err.(*FleetError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return fleetErr.Code
}
