package apperror

// ErrorCode is the general system-level category of an AppError.
type ErrorCode string

const (
	CodeBadRequest       ErrorCode = "BAD_REQUEST"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeConflict         ErrorCode = "CONFLICT"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInternalError    ErrorCode = "INTERNAL_ERROR"
)

// BusinessCode is the specific business reason behind an AppError.
type BusinessCode string

const (
	BusinessCodeGeneral            BusinessCode = "GENERAL"
	BusinessCodeInvalidRole        BusinessCode = "INVALID_ROLE"
	BusinessCodeInvalidGrant       BusinessCode = "INVALID_GRANT"
	BusinessCodePermissionDenied   BusinessCode = "PERMISSION_DENIED"
	BusinessCodeScopeUnresolved    BusinessCode = "SCOPE_UNRESOLVED"
	BusinessCodeResolverFailure    BusinessCode = "RESOLVER_FAILURE"
	BusinessCodeTransientLookupErr BusinessCode = "TRANSIENT_LOOKUP_FAILED"
)
