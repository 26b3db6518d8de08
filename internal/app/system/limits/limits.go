// internal/app/system/limits/limits.go
package limits

// Request body size limits for the JSON and form endpoints.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxSubmissionSize caps an intake submission (four members and their
	// restrictions fit comfortably).
	MaxSubmissionSize = 1 << 20 // 1 MB

	// MaxLoginSize caps a login request body.
	MaxLoginSize = 16 << 10 // 16 KB
)
