package aligo

import (
	"regexp"
	"strings"
)

var mobilePattern = regexp.MustCompile(`^01[016789]\d{7,8}$`)

// FormatPhoneNumber strips every non-digit and rewrites a leading 82 country
// code to the local leading zero.
func FormatPhoneNumber(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if strings.HasPrefix(cleaned, "82") {
		return "0" + cleaned[2:]
	}
	return cleaned
}

// IsValidPhoneNumber checks the normalized number against Korean mobile prefixes.
func IsValidPhoneNumber(phone string) bool {
	return mobilePattern.MatchString(FormatPhoneNumber(phone))
}
