package comments

import (
	"strings"
	"unicode/utf8"

	"github.com/example/fritter/services/freets/internal/domain"
)

// MaxContentLength is counted in characters after trimming.
const MaxContentLength = 140

// NormalizeContent trims raw and enforces the length rules.
func NormalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", domain.Invalid(domain.CodeEmptyContent, "content",
			"comment content must be at least one character long")
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return "", domain.Invalid(domain.CodeContentTooLong, "content",
			"comment content must be no more than %d characters", MaxContentLength)
	}
	return content, nil
}
