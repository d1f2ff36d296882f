package security

import (
	"strings"
	"unicode"

	domainErrors "scanpay/internal/errors"
)

// Encoding happens after control-character stripping; callers must not
// re-encode already-encoded text.
var entityReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeScanText strips control characters, trims whitespace and
// HTML-entity-encodes the characters & < > " ' /. Empty input is a
// caller contract violation and returns an error.
func SanitizeScanText(text string) (string, error) {
	if text == "" {
		return "", &domainErrors.DomainError{
			Code:    "INVALID_SCAN_TEXT",
			Message: "scan text must be a non-empty string",
		}
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	return entityReplacer.Replace(strings.TrimSpace(stripped)), nil
}

func sanitizeDetailString(s string) string {
	out, err := SanitizeScanText(s)
	if err != nil {
		return ""
	}
	return out
}
