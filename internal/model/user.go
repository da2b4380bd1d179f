package model

import "time"

// User represents a business account as stored in the `users` table.
// Registration, login and billing are handled by a separate service; this
// application only reads the columns the core needs (tier and usage
// accounting, rewards configuration) and adjusts the usage counters.
//
// Fields:
//  ID               – primary key identifier of the user.
//  Email            – unique email address.
//  BusinessName     – display name shown on public scan pages.
//  SubscriptionTier – plan name (free, essential, scale, ...); maps to a
//                     default QR limit when QRCodesLimit is nil.
//  QRCodesUsed      – count of product identifiers minted so far.
//  QRCodesLimit     – per-user limit override; nil means "use tier default".
//  PointsPerClaim   – configured reward points per claim; nil means default.
//  RewardsEnabled   – whether the loyalty-points program is active.
//  IsActive         – whether the account is active.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               uint64    // users.id
	Email            string    // users.email
	BusinessName     string    // users.business_name
	SubscriptionTier string    // users.subscription_tier
	QRCodesUsed      int       // users.qr_codes_used
	QRCodesLimit     *int      // users.qr_codes_limit (nullable override)
	PointsPerClaim   *int      // users.points_per_claim (nullable)
	RewardsEnabled   bool      // users.rewards_enabled
	IsActive         bool      // users.is_active
	CreatedAt        time.Time // users.created_at
	UpdatedAt        time.Time // users.updated_at
}

// EffectiveLimit resolves the user's QR-code limit: the per-user override
// when set, otherwise the default for the subscription tier.
func (u *User) EffectiveLimit() int {
	if u.QRCodesLimit != nil {
		return *u.QRCodesLimit
	}
	return TierLimit(u.SubscriptionTier)
}
