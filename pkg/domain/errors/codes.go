package errors

// Code represents an error code
type Code string

// Error codes for the command execution pipeline
const (
	CodeNotFound        Code = "NOT_FOUND"        // Input file not found
	CodeFileTooLarge    Code = "FILE_TOO_LARGE"   // Input file exceeds the configured size limit
	CodeTimeout         Code = "TIMEOUT"          // External command exceeded its deadline
	CodeExecutionFailed Code = "EXECUTION_FAILED" // External command exited non-zero or failed to start
	CodeInternalError   Code = "INTERNAL_ERROR"   // Unexpected fault during validation or staging
	CodeToolNotFound    Code = "TOOL_NOT_FOUND"   // Requested tool is not registered
	CodeConfigInvalid   Code = "CONFIG_INVALID"   // Configuration failed validation
)

// HTTPStatus maps an error code to the numeric status surfaced on the wire.
// The numeric codes are the observable compatibility surface and must not
// change: 404 missing input, 413 oversized input, 504 timeout, 500 all else.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return 404
	case CodeFileTooLarge:
		return 413
	case CodeTimeout:
		return 504
	default:
		return 500
	}
}
