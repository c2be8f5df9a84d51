package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Routing errors
// 12000-12999: Dispatch errors
// 13000-13999: Completion errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	ServiceUnavailable  ErrorCode = 10005
	Timeout             ErrorCode = 10006

	// Store errors (10100-10199)
	StoreError      ErrorCode = 10100
	StoreKeyMissing ErrorCode = 10101

	// Validation errors (10200-10299)
	ValidationFailed     ErrorCode = 10200
	RequiredFieldMissing ErrorCode = 10201

	// ========== Routing Errors (11000-11999) ==========

	RecordDecodeFailed ErrorCode = 11000
	SubmissionInvalid  ErrorCode = 11001
	PublishFailed      ErrorCode = 11002

	// ========== Dispatch Errors (12000-12999) ==========

	// Destination config (12000-12099)
	ConfigNotFound     ErrorCode = 12000
	ConfigLoadFailed   ErrorCode = 12001
	ConfigDecodeFailed ErrorCode = 12002

	// Task launch (12100-12199)
	LaunchFailed   ErrorCode = 12100
	LaunchRejected ErrorCode = 12101

	// ========== Completion Errors (13000-13999) ==========

	// Correlation (13000-13099)
	EventDecodeFailed          ErrorCode = 13000
	CorrelationIdentityMissing ErrorCode = 13001

	// Status update (13100-13199)
	StatusUpdateFailed ErrorCode = 13100
	TokenUnavailable   ErrorCode = 13101
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",

	// Store
	StoreError:      "Config store operation failed",
	StoreKeyMissing: "Config store key not found",

	// Validation
	ValidationFailed:     "Validation failed",
	RequiredFieldMissing: "Required field is missing",

	// Routing
	RecordDecodeFailed: "Stream record decode failed",
	SubmissionInvalid:  "Submission message is invalid",
	PublishFailed:      "Publish to fan-out topic failed",

	// Dispatch
	ConfigNotFound:     "Destination config not found",
	ConfigLoadFailed:   "Destination config load failed",
	ConfigDecodeFailed: "Destination config decode failed",
	LaunchFailed:       "Task launch failed",
	LaunchRejected:     "Task launch rejected by execution agent",

	// Completion
	EventDecodeFailed:          "Task lifecycle event decode failed",
	CorrelationIdentityMissing: "Completion event carries no submission identity",
	StatusUpdateFailed:         "Submission status update failed",
	TokenUnavailable:           "API auth token unavailable",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}
