package errors

// ErrorCode identifies a failure category. Codes are grouped per subsystem so
// that log aggregation and CLI output can distinguish, say, a malformed model
// file from a BV-BRC outage without string matching on messages.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTimeout            ErrorCode = "COMMON_005"
	ErrCodeValidation         ErrorCode = "COMMON_006"
	ErrCodeSerialization      ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeNotImplemented     ErrorCode = "COMMON_009"
)

// Biochemistry / model standardization error codes. Ambiguity during matching
// is never an error; these cover genuinely invalid inputs only.
const (
	ErrCodeModelInvalid      ErrorCode = "BIO_001"
	ErrCodeCompoundNotFound  ErrorCode = "BIO_002"
	ErrCodeReactionNotFound  ErrorCode = "BIO_003"
	ErrCodeDatabaseLoad      ErrorCode = "BIO_004"
	ErrCodeTemplateNotFound  ErrorCode = "BIO_005"
	ErrCodeTranslationFailed ErrorCode = "BIO_006"
)

// Infrastructure error codes.
const (
	ErrCodeDatabaseError   ErrorCode = "DB_001"
	ErrCodeCacheError      ErrorCode = "DB_002"
	ErrCodeGraphError      ErrorCode = "DB_003"
	ErrCodeVectorError     ErrorCode = "DB_004"
	ErrCodeBlobError       ErrorCode = "DB_005"
	ErrCodeMigrationError  ErrorCode = "DB_006"
	ErrCodeExternalService ErrorCode = "SVC_001"
	ErrCodeWorkspaceError  ErrorCode = "SVC_002"
)

// Tool and LLM error codes.
const (
	ErrCodeToolNotFound   ErrorCode = "TOOL_001"
	ErrCodeToolFailed     ErrorCode = "TOOL_002"
	ErrCodeToolParse      ErrorCode = "TOOL_003"
	ErrCodeLLMUnavailable ErrorCode = "LLM_001"
	ErrCodeLLMBadResponse ErrorCode = "LLM_002"
)
