package observability

import "fmt"

// Domain errors for observability operations
var (
	// Trace errors
	ErrTraceNotFound      = fmt.Errorf("trace not found")
	ErrTraceAlreadyExists = fmt.Errorf("trace already exists")
	ErrInvalidTraceID     = fmt.Errorf("invalid trace id")
	ErrTraceIdentityMismatch = fmt.Errorf("project and workspace do not match the existing trace")

	// Span errors
	ErrSpanNotFound          = fmt.Errorf("span not found")
	ErrSpanAlreadyExists     = fmt.Errorf("span already exists")
	ErrInvalidSpanID         = fmt.Errorf("invalid span id")
	ErrSpanTraceNotFound     = fmt.Errorf("span trace not found")
	ErrInvalidSpanType       = fmt.Errorf("invalid span type")
	ErrSpanTraceMismatch     = fmt.Errorf("trace_id does not match the existing span")
	ErrSpanParentMismatch    = fmt.Errorf("parent_span_id does not match the existing span")
	ErrSpanIdentityMismatch  = fmt.Errorf("project and workspace do not match the existing span")

	// Feedback score errors
	ErrScoreNotFound       = fmt.Errorf("feedback score not found")
	ErrInvalidScoreID      = fmt.Errorf("invalid feedback score id")
	ErrInvalidScoreValue   = fmt.Errorf("invalid score value")
	ErrInvalidScoreDataType = fmt.Errorf("invalid score data type")
	ErrDuplicateScore      = fmt.Errorf("duplicate feedback score for the same entity and name")

	// Comment and attachment errors
	ErrCommentNotFound    = fmt.Errorf("comment not found")
	ErrAttachmentNotFound = fmt.Errorf("attachment not found")
	ErrAttachmentTooLarge = fmt.Errorf("attachment exceeds maximum size")

	// General validation errors
	ErrValidationFailed        = fmt.Errorf("validation failed")
	ErrInvalidProjectID        = fmt.Errorf("invalid project id")
	ErrInvalidUserID           = fmt.Errorf("invalid user id")
	ErrInvalidSessionID        = fmt.Errorf("invalid session id")
	ErrInvalidIdentifierVersion = fmt.Errorf("identifier is not a version 7 UUID")
	ErrUnauthorizedAccess      = fmt.Errorf("unauthorized access")
	ErrInsufficientPermissions = fmt.Errorf("insufficient permissions")

	// Operation errors
	ErrBatchOperationFailed   = fmt.Errorf("batch operation failed")
	ErrBatchTooLarge          = fmt.Errorf("batch exceeds maximum allowed size")
	ErrConcurrentModification = fmt.Errorf("concurrent modification detected")
	ErrResourceLimitExceeded  = fmt.Errorf("resource limit exceeded")
	ErrUsageLimitExceeded     = fmt.Errorf("usage limit exceeded")
	ErrInvalidFilter          = fmt.Errorf("invalid filter parameters")
	ErrInvalidPagination      = fmt.Errorf("invalid pagination parameters")
	ErrDeserializationFailed  = fmt.Errorf("failed to deserialize request body")
)

// ObservabilityError represents a structured error for observability operations.
type ObservabilityError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface.
func (e *ObservabilityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ObservabilityError) Unwrap() error {
	return e.Cause
}

// NewObservabilityError creates a new observability error.
func NewObservabilityError(code, message string) *ObservabilityError {
	return &ObservabilityError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// NewObservabilityErrorWithCause creates a new observability error with a cause.
func NewObservabilityErrorWithCause(code, message string, cause error) *ObservabilityError {
	return &ObservabilityError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Cause:   cause,
	}
}

// WithDetail adds a detail to the error.
func (e *ObservabilityError) WithDetail(key string, value interface{}) *ObservabilityError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Error codes for different types of errors.
const (
	// Trace error codes
	ErrCodeTraceNotFound         = "TRACE_NOT_FOUND"
	ErrCodeTraceAlreadyExists    = "TRACE_ALREADY_EXISTS"
	ErrCodeInvalidTraceID        = "INVALID_TRACE_ID"
	ErrCodeTraceIdentityMismatch = "TRACE_IDENTITY_MISMATCH"

	// Span error codes
	ErrCodeSpanNotFound         = "SPAN_NOT_FOUND"
	ErrCodeSpanAlreadyExists    = "SPAN_ALREADY_EXISTS"
	ErrCodeInvalidSpanID        = "INVALID_SPAN_ID"
	ErrCodeSpanTraceNotFound    = "SPAN_TRACE_NOT_FOUND"
	ErrCodeInvalidSpanType      = "INVALID_SPAN_TYPE"
	ErrCodeSpanTraceMismatch    = "SPAN_TRACE_MISMATCH"
	ErrCodeSpanParentMismatch   = "SPAN_PARENT_MISMATCH"
	ErrCodeSpanIdentityMismatch = "SPAN_IDENTITY_MISMATCH"
	ErrCodeValidation           = "VALIDATION_ERROR"

	// Feedback score error codes
	ErrCodeScoreNotFound      = "SCORE_NOT_FOUND"
	ErrCodeInvalidScoreID     = "INVALID_SCORE_ID"
	ErrCodeInvalidScoreValue  = "INVALID_SCORE_VALUE"
	ErrCodeInvalidScoreDataType = "INVALID_SCORE_DATA_TYPE"
	ErrCodeDuplicateScore     = "DUPLICATE_SCORE"

	// Comment and attachment error codes
	ErrCodeCommentNotFound    = "COMMENT_NOT_FOUND"
	ErrCodeAttachmentNotFound = "ATTACHMENT_NOT_FOUND"
	ErrCodeAttachmentTooLarge = "ATTACHMENT_TOO_LARGE"

	// General validation error codes
	ErrCodeValidationFailed         = "VALIDATION_FAILED"
	ErrCodeInvalidProjectID         = "INVALID_PROJECT_ID"
	ErrCodeInvalidUserID            = "INVALID_USER_ID"
	ErrCodeInvalidSessionID         = "INVALID_SESSION_ID"
	ErrCodeInvalidIdentifierVersion = "INVALID_IDENTIFIER_VERSION"
	ErrCodeUnauthorizedAccess       = "UNAUTHORIZED_ACCESS"
	ErrCodeInsufficientPermissions  = "INSUFFICIENT_PERMISSIONS"

	// Operation error codes
	ErrCodeBatchOperationFailed   = "BATCH_OPERATION_FAILED"
	ErrCodeBatchTooLarge          = "BATCH_TOO_LARGE"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeResourceLimitExceeded  = "RESOURCE_LIMIT_EXCEEDED"
	ErrCodeUsageLimitExceeded     = "USAGE_LIMIT_EXCEEDED"
	ErrCodeInvalidFilter          = "INVALID_FILTER"
	ErrCodeInvalidPagination      = "INVALID_PAGINATION"
	ErrCodeDeserializationFailed  = "DESERIALIZATION_FAILED"
)

// Convenience functions for creating common errors.

// NewTraceNotFoundError creates a trace not found error.
func NewTraceNotFoundError(traceID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeTraceNotFound, "trace not found").
		WithDetail("trace_id", traceID)
}

// NewSpanNotFoundError creates a span not found error.
func NewSpanNotFoundError(spanID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeSpanNotFound, "span not found").
		WithDetail("span_id", spanID)
}

// NewTraceIdentityMismatchError reports a 409 when the (project, workspace)
// pair on an incoming span does not match the trace it is attached to.
func NewTraceIdentityMismatchError(traceID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeTraceIdentityMismatch,
		"Project name and workspace name do not match the existing span/trace").
		WithDetail("trace_id", traceID)
}

// NewSpanTraceMismatchError reports a 409 when a span is resubmitted under a
// different trace_id than the one it was first recorded with.
func NewSpanTraceMismatchError(spanID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeSpanTraceMismatch, "trace_id does not match the existing span").
		WithDetail("span_id", spanID)
}

// NewSpanParentMismatchError reports a 409 when a span is resubmitted with a
// different parent_span_id than the one it was first recorded with.
func NewSpanParentMismatchError(spanID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeSpanParentMismatch, "parent_span_id does not match the existing span").
		WithDetail("span_id", spanID)
}

// NewDuplicateSpanIDError reports a 409 for a span id collision across
// distinct traces within the same project.
func NewDuplicateSpanIDError(spanID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeSpanAlreadyExists, fmt.Sprintf("Duplicate span id '%s'", spanID)).
		WithDetail("span_id", spanID)
}

// NewInvalidIdentifierVersionError reports a 400 when a client-supplied id is
// not a version 7 UUID.
func NewInvalidIdentifierVersionError(field, value string) *ObservabilityError {
	return NewObservabilityError(ErrCodeInvalidIdentifierVersion, "identifier must be a version 7 UUID").
		WithDetail("field", field).
		WithDetail("value", value)
}

// NewUsageLimitExceededError reports a 402 when a workspace has exhausted its
// ingestion quota.
func NewUsageLimitExceededError(workspaceID string) *ObservabilityError {
	return NewObservabilityError(ErrCodeUsageLimitExceeded, "Usage limit exceeded").
		WithDetail("workspace_id", workspaceID)
}

// NewValidationError creates a validation error with field details.
func NewValidationError(field, message string) *ObservabilityError {
	return NewObservabilityError(ErrCodeValidationFailed, "validation failed").
		WithDetail("field", field).
		WithDetail("message", message)
}

// NewValidationErrors creates a validation error with multiple field errors.
func NewValidationErrors(fieldErrors []ValidationError) *ObservabilityError {
	err := NewObservabilityError(ErrCodeValidationFailed, "validation failed")

	fields := make(map[string]string)
	for _, fieldErr := range fieldErrors {
		fields[fieldErr.Field] = fieldErr.Message
	}

	return err.WithDetail("field_errors", fields)
}

// NewUnauthorizedError creates an unauthorized access error.
func NewUnauthorizedError(resource string) *ObservabilityError {
	return NewObservabilityError(ErrCodeUnauthorizedAccess, "unauthorized access").
		WithDetail("resource", resource)
}

// NewInsufficientPermissionsError creates an insufficient permissions error.
func NewInsufficientPermissionsError(operation string) *ObservabilityError {
	return NewObservabilityError(ErrCodeInsufficientPermissions, "insufficient permissions").
		WithDetail("operation", operation)
}

// NewBatchOperationError creates a batch operation error.
func NewBatchOperationError(operation string, cause error) *ObservabilityError {
	return NewObservabilityErrorWithCause(ErrCodeBatchOperationFailed, "batch operation failed", cause).
		WithDetail("operation", operation)
}

// NewBatchTooLargeError reports a 422 when a submitted batch exceeds the
// configured maximum item count.
func NewBatchTooLargeError(itemCount, maxItems int) *ObservabilityError {
	return NewObservabilityError(ErrCodeBatchTooLarge, "batch exceeds maximum allowed size").
		WithDetail("item_count", itemCount).
		WithDetail("max_items", maxItems)
}

// NewResourceLimitError creates a resource limit exceeded error.
func NewResourceLimitError(resource string, limit int) *ObservabilityError {
	return NewObservabilityError(ErrCodeResourceLimitExceeded, "resource limit exceeded").
		WithDetail("resource", resource).
		WithDetail("limit", limit)
}

// NewDeserializationError reports a 400 for a request body that could not be
// parsed into the expected shape.
func NewDeserializationError(cause error) *ObservabilityError {
	return NewObservabilityErrorWithCause(ErrCodeDeserializationFailed, "failed to deserialize request body", cause)
}

// IsNotFoundError checks if the error is a not found error.
func IsNotFoundError(err error) bool {
	if obsErr, ok := err.(*ObservabilityError); ok {
		return obsErr.Code == ErrCodeTraceNotFound ||
			obsErr.Code == ErrCodeSpanNotFound ||
			obsErr.Code == ErrCodeScoreNotFound ||
			obsErr.Code == ErrCodeCommentNotFound ||
			obsErr.Code == ErrCodeAttachmentNotFound
	}
	return false
}

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	if obsErr, ok := err.(*ObservabilityError); ok {
		return obsErr.Code == ErrCodeValidationFailed ||
			obsErr.Code == ErrCodeInvalidTraceID ||
			obsErr.Code == ErrCodeInvalidSpanID ||
			obsErr.Code == ErrCodeInvalidScoreID ||
			obsErr.Code == ErrCodeInvalidSpanType ||
			obsErr.Code == ErrCodeInvalidScoreValue ||
			obsErr.Code == ErrCodeInvalidScoreDataType ||
			obsErr.Code == ErrCodeInvalidIdentifierVersion ||
			obsErr.Code == ErrCodeDeserializationFailed
	}
	return false
}

// IsUnauthorizedError checks if the error is an authorization error.
func IsUnauthorizedError(err error) bool {
	if obsErr, ok := err.(*ObservabilityError); ok {
		return obsErr.Code == ErrCodeUnauthorizedAccess ||
			obsErr.Code == ErrCodeInsufficientPermissions
	}
	return false
}

// IsConflictError checks if the error is a conflict error.
func IsConflictError(err error) bool {
	if obsErr, ok := err.(*ObservabilityError); ok {
		return obsErr.Code == ErrCodeTraceAlreadyExists ||
			obsErr.Code == ErrCodeSpanAlreadyExists ||
			obsErr.Code == ErrCodeTraceIdentityMismatch ||
			obsErr.Code == ErrCodeSpanTraceMismatch ||
			obsErr.Code == ErrCodeSpanParentMismatch ||
			obsErr.Code == ErrCodeSpanIdentityMismatch ||
			obsErr.Code == ErrCodeDuplicateScore ||
			obsErr.Code == ErrCodeConcurrentModification
	}
	return false
}

// IsQuotaError checks if the error represents an exhausted usage quota.
func IsQuotaError(err error) bool {
	if obsErr, ok := err.(*ObservabilityError); ok {
		return obsErr.Code == ErrCodeUsageLimitExceeded
	}
	return false
}
