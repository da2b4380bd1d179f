package repository

import (
	"strings"
	"time"
)

// dbTimeLayout is the canonical format for DATETIME columns. All repository
// writes format timestamps explicitly rather than relying on driver
// conversion, so values round-trip identically across engines.
const dbTimeLayout = "2006-01-02 15:04:05"

// formatDBTime renders a timestamp for storage. Times are always stored in UTC.
func formatDBTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}

// parseDBTime converts a DATETIME column value back into a time.Time. The
// driver may hand back either the stored layout or an RFC3339 rendering
// (mysql with parseTime scans time.Time into string as RFC3339), so both
// are accepted. Zero or unparseable values yield the zero time.
func parseDBTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || s == "0001-01-01 00:00:00" {
		return time.Time{}
	}
	for _, layout := range []string{dbTimeLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// isDuplicateErr reports whether a write failed on a unique constraint.
// MySQL surfaces duplicate keys as error 1062; other engines mention the
// constraint kind in the message.
func isDuplicateErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "1062") || strings.Contains(msg, "unique")
}
