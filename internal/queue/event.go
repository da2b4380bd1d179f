// Package queue defines message payloads exchanged over the message broker.
package queue

// ProductFinalizedEvent is published when a production item or batch leader
// is sealed. It carries enough context for downstream consumers to log or
// trigger notifications without querying the primary database.
type ProductFinalizedEvent struct {
	ProductID   string `json:"product_id"`
	UserID      uint64 `json:"user_id"`
	Name        string `json:"name"`
	SKU         string `json:"sku"`
	BatchNumber string `json:"batch_number"`
	BatchGroup  string `json:"batch_group,omitempty"`
	FinalizedAt string `json:"finalized_at"`
}

// CheckpointLoggedEvent is published when a supply-chain checkpoint is
// recorded against a production item.
type CheckpointLoggedEvent struct {
	ProductID    string `json:"product_id"`
	ScanID       uint64 `json:"scan_id"`
	LocationName string `json:"location_name"`
	ReporterRole string `json:"reporter_role"`
	ScannedAt    string `json:"scanned_at"`
}
