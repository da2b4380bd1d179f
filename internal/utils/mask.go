package utils

import "strings"

// MaskEmail hides most of the local part of an address so it can be echoed
// back in error messages without disclosing the full identity. "alice@x.io"
// becomes "al***@x.io". Strings without an "@" are masked wholesale.
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	local := email[:at]
	domain := email[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:2] + "***" + domain
}
