package model

import "time"

// Scan is one custody/location checkpoint recorded against a product during
// its production phase, as stored in the `production_scans` table. Scans are
// append-only: once the owning product is finalized they can neither be
// added nor removed.
//
// ProductID references products.id (the internal key), not the external
// product_id string.
type Scan struct {
	ID           uint64    // production_scans.id
	ProductID    uint64    // production_scans.product_id (internal FK)
	ScannedAt    time.Time // production_scans.scanned_at
	Latitude     *float64  // production_scans.latitude (nullable)
	Longitude    *float64  // production_scans.longitude (nullable)
	LocationName string    // production_scans.location_name
	Notes        string    // production_scans.notes
	PhotoURLs    []string  // production_scans.photo_urls (JSON array)
	ReporterName string    // production_scans.reporter_name
	ReporterRole string    // production_scans.reporter_role
	IPAddress    *string   // production_scans.ip_address (nullable, best effort)
	CreatedAt    time.Time // production_scans.created_at
}
