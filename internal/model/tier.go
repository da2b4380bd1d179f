package model

import "strings"

// tierLimits maps a normalized subscription tier name to its default QR-code
// limit. The limit is how many product identifiers a business may mint; a
// per-user override on the users row takes precedence over this table.
var tierLimits = map[string]int{
	"free":                10,
	"essential":           500,
	"scale":               2500,
	"enterprise":          10000,
	"pharma_starter":      1000,
	"pharma_professional": 5000,
	"pharma_enterprise":   50000,
}

// TierLimit returns the default QR-code limit for a subscription tier.
// Tier names are matched case-insensitively with spaces and dashes treated
// as underscores. Unknown tiers fall back to the free limit.
func TierLimit(tier string) int {
	key := strings.ToLower(strings.TrimSpace(tier))
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, "-", "_")
	if n, ok := tierLimits[key]; ok {
		return n
	}
	return tierLimits["free"]
}
