package model

import "time"

// Claim types recorded on points_claims rows.
const (
	ClaimTypeBatch   = "batch"
	ClaimTypeProduct = "product"
)

// Claim key prefixes. Keys are namespaced so a standalone product_id can
// never collide with another batch's batch_group_id even if the upstream ID
// generation schemes overlap.
const (
	claimKeyBatchPrefix   = "batch:"
	claimKeyProductPrefix = "product:"
)

// ClaimKeyFor resolves the deduplication key for a rewards claim: the batch
// group when the product belongs to one, otherwise the product itself. The
// returned claim type matches the key namespace.
func ClaimKeyFor(productID, batchGroupID string) (key, claimType string) {
	if batchGroupID != "" {
		return claimKeyBatchPrefix + batchGroupID, ClaimTypeBatch
	}
	return claimKeyProductPrefix + productID, ClaimTypeProduct
}

// DefaultPointsPerClaim is awarded when neither the product metadata nor the
// business configuration specifies a value.
const DefaultPointsPerClaim = 10

// PointsClaim mirrors the `points_claims` table: one at-most-once loyalty
// redemption keyed by ClaimKey (unique, first claim wins).
type PointsClaim struct {
	ID            uint64    // points_claims.id
	ClaimKey      string    // points_claims.claim_key (unique)
	ProductID     string    // points_claims.product_id (external id)
	BatchGroupID  string    // points_claims.batch_group_id ("" for standalone)
	CustomerEmail string    // points_claims.customer_email
	PointsAwarded int       // points_claims.points_awarded
	BusinessID    uint64    // points_claims.business_id
	ClaimType     string    // points_claims.claim_type
	ClaimedAt     time.Time // points_claims.claimed_at
}

// CustomerPoints mirrors the `customer_points` table: the running balance
// for one (customer, business) pair, incremented by each successful claim.
type CustomerPoints struct {
	ID            uint64    // customer_points.id
	CustomerEmail string    // customer_points.customer_email
	BusinessID    uint64    // customer_points.business_id
	TotalPoints   int       // customer_points.total_points
	CreatedAt     time.Time // customer_points.created_at
	UpdatedAt     time.Time // customer_points.updated_at
}
