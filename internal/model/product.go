package model

import "time"

// Product modes. A product is created in production mode, accumulates
// checkpoints, and moves to live exactly once when finalized.
const (
	ModeProduction = "production"
	ModeLive       = "live"
)

// Product is one manufactured item or one member of a batch, as stored in
// the `products` table. ProductID is the opaque external identifier encoded
// in the tracking QR code; ID is the internal surrogate key referenced by
// production_scans.
//
// Batch semantics: rows sharing a non-empty BatchGroupID form a batch.
// Exactly one member of a non-empty batch has IsBatchGroup set; that leader
// row's BatchQuantity holds the authoritative member count. Member rows keep
// BatchQuantity at 1 and it carries no meaning there.
type Product struct {
	ID           uint64     // products.id (internal surrogate key)
	ProductID    string     // products.product_id (external identifier)
	UserID       uint64     // products.user_id (owner)
	Name         string     // products.name
	SKU          string     // products.sku
	BatchNumber  string     // products.batch_number
	Mode         string     // products.mode ('production' or 'live')
	IsFinalized  bool       // products.is_finalized
	FinalizedAt  *time.Time // products.finalized_at (nullable)
	Metadata     Metadata   // products.metadata (JSON pass-through bag)
	PhotoHashes  string     // products.photo_hashes (JSON array, copied verbatim)
	LocationData string     // products.location_data (JSON, copied verbatim)
	QRURL        string     // products.qr_url (pinned QR artifact)
	IsBatchGroup bool       // products.is_batch_group (batch leader flag)
	BatchGroupID string     // products.batch_group_id ("" when standalone)
	BatchQuantity int       // products.batch_quantity (meaningful on leader only)
	CreatedAt    time.Time  // products.created_at
	UpdatedAt    time.Time  // products.updated_at
}

// InBatch reports whether the product belongs to a batch.
func (p *Product) InBatch() bool { return p.BatchGroupID != "" }

// CanMutate reports whether the product still accepts checkpoint changes,
// i.e. it is in production mode and has not been finalized.
func (p *Product) CanMutate() bool {
	return p.Mode == ModeProduction && !p.IsFinalized
}
