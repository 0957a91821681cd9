// Package errors provides structured error handling for docdex.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Cache/storage errors
//   - 3XX: Embedding errors
//   - 4XX: Index errors
//   - 5XX: Service errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCache indicates embedding cache storage errors.
	CategoryCache Category = "CACHE"
	// CategoryEmbedding indicates external embedding call errors.
	CategoryEmbedding Category = "EMBEDDING"
	// CategoryIndex indicates vector index errors.
	CategoryIndex Category = "INDEX"
	// CategoryService indicates service-boundary errors.
	CategoryService Category = "SERVICE"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Cache errors (200-299)
	ErrCodeCacheUnavailable = "ERR_201_CACHE_UNAVAILABLE"

	// Embedding errors (300-399)
	ErrCodeEmbeddingFailure = "ERR_301_EMBEDDING_FAILURE"

	// Index errors (400-499)
	ErrCodeDimensionMismatch = "ERR_401_DIMENSION_MISMATCH"
	ErrCodeCorruptIndex      = "ERR_402_CORRUPT_INDEX"

	// Service errors (500-599)
	ErrCodeServiceNotReady = "ERR_501_SERVICE_NOT_READY"
	ErrCodeInternal        = "ERR_502_INTERNAL"
)

// categoryFromCode derives the category from an error code prefix.
func categoryFromCode(code string) Category {
	if len(code) < 5 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCache
	case '3':
		return CategoryEmbedding
	case '4':
		return CategoryIndex
	case '5':
		return CategoryService
	default:
		return CategoryInternal
	}
}

// isRetryableCode reports whether an operation failing with this code may
// succeed on retry without operator intervention. Only ServiceNotReady
// qualifies: it clears once an index has been built or loaded.
func isRetryableCode(code string) bool {
	return code == ErrCodeServiceNotReady
}
