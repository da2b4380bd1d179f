package model

import (
	"strings"
	"time"
)

// PromoCode mirrors the `promo_codes` table. A code grants a one-time
// additive bonus to a user's QR-code limit. Codes are stored upper-case;
// NormalizePromoCode must be applied to user input before lookups so the
// per-user uniqueness check is case-insensitive.
type PromoCode struct {
	ID        uint64     // promo_codes.id
	Code      string     // promo_codes.code (unique, upper-case)
	Bonus     int        // promo_codes.bonus (added to qr_codes_limit)
	MaxUses   *int       // promo_codes.max_uses (nil = unlimited)
	UseCount  int        // promo_codes.use_count
	ExpiresAt *time.Time // promo_codes.expires_at (nil = never)
	Active    bool       // promo_codes.active
	CreatedAt time.Time  // promo_codes.created_at
}

// Expired reports whether the code's expiry has passed at the given time.
func (p *PromoCode) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// Exhausted reports whether the code has reached its global use cap.
func (p *PromoCode) Exhausted() bool {
	return p.MaxUses != nil && p.UseCount >= *p.MaxUses
}

// NormalizePromoCode trims and upper-cases a user-supplied code.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
