// internal/app/system/limits/limits.go
package limits

// Request body size limits.
const (
	// MaxJSONBody caps every JSON request body.
	MaxJSONBody = 1 << 20 // 1 MB

	// MaxCodeSize caps a program's source. It stays under MaxJSONBody so a
	// full buffer still fits in one PUT /code with its JSON escaping.
	MaxCodeSize = 512 << 10 // 512 KB
)
