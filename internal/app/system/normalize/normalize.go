// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/codeprephub/internal/domain/models"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name, group name, folder name or program title. Case is kept.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// InviteCode trims an invite code. Matching is exact after trimming.
func InviteCode(s string) string {
	return strings.TrimSpace(s)
}

// Language trims and lowercases a language tag.
func Language(s string) models.Language {
	return models.Language(strings.ToLower(strings.TrimSpace(s)))
}

// QueryParam trims a raw query or form value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
