// Package errors provides structured error handling for appledocs-mcp.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Storage errors (index, disk)
//   - 3XX: Network errors (fetch, sync)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryStorage indicates index and disk I/O errors.
	CategoryStorage Category = "STORAGE"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Storage errors (200-299)
	ErrCodeIndexOpen       = "ERR_201_INDEX_OPEN"
	ErrCodeIndexCorrupt    = "ERR_202_INDEX_CORRUPT"
	ErrCodeIndexWrite      = "ERR_203_INDEX_WRITE"
	ErrCodeSchemaMismatch  = "ERR_204_SCHEMA_MISMATCH"
	ErrCodeIndexLocked     = "ERR_205_INDEX_LOCKED"
	ErrCodeCheckpointWrite = "ERR_206_CHECKPOINT_WRITE"

	// Network errors (300-399)
	ErrCodeFetchTimeout   = "ERR_301_FETCH_TIMEOUT"
	ErrCodeFetchNotFound  = "ERR_302_FETCH_NOT_FOUND"
	ErrCodeFetchRateLimit = "ERR_303_FETCH_RATE_LIMIT"
	ErrCodeFetchServer    = "ERR_304_FETCH_SERVER"

	// Validation errors (400-499)
	ErrCodeInvalidDocument = "ERR_401_INVALID_DOCUMENT"
	ErrCodeInvalidQuery    = "ERR_402_INVALID_QUERY"
	ErrCodeInvalidVersion  = "ERR_403_INVALID_VERSION"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode derives the category from the numeric range of a code.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryStorage
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode derives the default severity for a code.
// Storage and schema errors abort the enclosing operation; everything
// else is recoverable at a higher level.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeIndexCorrupt, ErrCodeSchemaMismatch, ErrCodeCheckpointWrite,
		ErrCodeIndexOpen, ErrCodeIndexWrite:
		return SeverityFatal
	case ErrCodeFetchRateLimit:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// isRetryableCode reports whether operations failing with this code
// may be retried with backoff.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeFetchTimeout, ErrCodeFetchRateLimit, ErrCodeFetchServer:
		return true
	default:
		return false
	}
}
