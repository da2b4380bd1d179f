// Package testutil provides the shared database fixture for package tests:
// an in-memory SQLite schema mirroring the production tables, plus seed
// helpers. The repositories stick to portable SQL, so the same queries run
// against MySQL in production and SQLite here.
package testutil

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/utils"
)

const dbTimeLayout = "2006-01-02 15:04:05"

var schema = []string{
	`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		business_name TEXT NOT NULL DEFAULT '',
		subscription_tier TEXT NOT NULL DEFAULT 'free',
		qr_codes_used INTEGER NOT NULL DEFAULT 0,
		qr_codes_limit INTEGER NULL,
		points_per_claim INTEGER NULL,
		rewards_enabled INTEGER NOT NULL DEFAULT 1,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL UNIQUE,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		sku TEXT NOT NULL DEFAULT '',
		batch_number TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT 'production',
		is_finalized INTEGER NOT NULL DEFAULT 0,
		finalized_at TEXT NULL,
		metadata TEXT NULL,
		photo_hashes TEXT NULL,
		location_data TEXT NULL,
		qr_url TEXT NULL,
		is_batch_group INTEGER NOT NULL DEFAULT 0,
		batch_group_id TEXT NULL,
		batch_quantity INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE production_scans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL,
		scanned_at TEXT NOT NULL,
		latitude REAL NULL,
		longitude REAL NULL,
		location_name TEXT NOT NULL DEFAULT '',
		notes TEXT NULL,
		photo_urls TEXT NULL,
		reporter_name TEXT NOT NULL DEFAULT '',
		reporter_role TEXT NOT NULL DEFAULT '',
		ip_address TEXT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE points_claims (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		claim_key TEXT NOT NULL UNIQUE,
		product_id TEXT NOT NULL,
		batch_group_id TEXT NULL,
		customer_email TEXT NOT NULL,
		points_awarded INTEGER NOT NULL,
		business_id INTEGER NOT NULL,
		claim_type TEXT NOT NULL,
		claimed_at TEXT NOT NULL
	)`,
	`CREATE TABLE customer_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_email TEXT NOT NULL,
		business_id INTEGER NOT NULL,
		total_points INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (customer_email, business_id)
	)`,
	`CREATE TABLE promo_codes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		code TEXT NOT NULL UNIQUE,
		bonus INTEGER NOT NULL,
		max_uses INTEGER NULL,
		use_count INTEGER NOT NULL DEFAULT 0,
		expires_at TEXT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE promo_redemptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		code TEXT NOT NULL,
		redeemed_at TEXT NOT NULL,
		UNIQUE (user_id, code)
	)`,
}

// OpenTestDB returns an in-memory database with the full schema applied.
// A single connection keeps every statement on the same in-memory instance.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func fmtTime(ts time.Time) string {
	return ts.UTC().Format(dbTimeLayout)
}

// SeedUser inserts a user row and returns its id. Zero-value fields get
// sensible defaults: free tier, rewards enabled, active.
func SeedUser(t *testing.T, db *sql.DB, u model.User) uint64 {
	t.Helper()
	if u.Email == "" {
		u.Email = "owner@example.com"
	}
	if u.SubscriptionTier == "" {
		u.SubscriptionTier = "free"
	}
	var limit any
	if u.QRCodesLimit != nil {
		limit = *u.QRCodesLimit
	}
	var points any
	if u.PointsPerClaim != nil {
		points = *u.PointsPerClaim
	}
	res, err := db.Exec(`INSERT INTO users
		(email, business_name, subscription_tier, qr_codes_used, qr_codes_limit,
		 points_per_claim, rewards_enabled, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		u.Email, u.BusinessName, u.SubscriptionTier, u.QRCodesUsed, limit,
		points, u.RewardsEnabled)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

// SeedProduct inserts a product row and populates its internal id.
func SeedProduct(t *testing.T, db *sql.DB, p *model.Product) {
	t.Helper()
	if p.Mode == "" {
		p.Mode = model.ModeProduction
	}
	if p.BatchQuantity == 0 {
		p.BatchQuantity = 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	var batchGroup any
	if p.BatchGroupID != "" {
		batchGroup = p.BatchGroupID
	}
	var finalizedAt any
	if p.FinalizedAt != nil {
		finalizedAt = fmtTime(*p.FinalizedAt)
	}
	res, err := db.Exec(`INSERT INTO products
		(product_id, user_id, name, sku, batch_number, mode, is_finalized,
		 finalized_at, metadata, photo_hashes, location_data, qr_url,
		 is_batch_group, batch_group_id, batch_quantity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ProductID, p.UserID, p.Name, p.SKU, p.BatchNumber, p.Mode, p.IsFinalized,
		finalizedAt, p.Metadata.Encode(), p.PhotoHashes, p.LocationData, p.QRURL,
		p.IsBatchGroup, batchGroup, p.BatchQuantity, fmtTime(p.CreatedAt), fmtTime(p.CreatedAt))
	if err != nil {
		t.Fatalf("seed product: %v", err)
	}
	id, _ := res.LastInsertId()
	p.ID = uint64(id)
}

// SeedScan inserts one checkpoint row for a product and populates its id.
func SeedScan(t *testing.T, db *sql.DB, s *model.Scan) {
	t.Helper()
	if s.ScannedAt.IsZero() {
		s.ScannedAt = time.Now().UTC()
	}
	res, err := db.Exec(`INSERT INTO production_scans
		(product_id, scanned_at, latitude, longitude, location_name, notes,
		 photo_urls, reporter_name, reporter_role, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, '[]', ?, ?, NULL, ?)`,
		s.ProductID, fmtTime(s.ScannedAt), s.Latitude, s.Longitude,
		s.LocationName, s.Notes, s.ReporterName, s.ReporterRole, fmtTime(s.ScannedAt))
	if err != nil {
		t.Fatalf("seed scan: %v", err)
	}
	id, _ := res.LastInsertId()
	s.ID = uint64(id)
}

// SeedPromo inserts a promo code and returns its id.
func SeedPromo(t *testing.T, db *sql.DB, p model.PromoCode) uint64 {
	t.Helper()
	var maxUses any
	if p.MaxUses != nil {
		maxUses = *p.MaxUses
	}
	var expiresAt any
	if p.ExpiresAt != nil {
		expiresAt = fmtTime(*p.ExpiresAt)
	}
	res, err := db.Exec(`INSERT INTO promo_codes
		(code, bonus, max_uses, use_count, expires_at, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.Code, p.Bonus, maxUses, p.UseCount, expiresAt, p.Active)
	if err != nil {
		t.Fatalf("seed promo: %v", err)
	}
	id, _ := res.LastInsertId()
	return uint64(id)
}

// AuthHeader mints a short-lived bearer token for the given user.
func AuthHeader(t *testing.T, secret string, userID uint64) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, userID, 5)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + tok.Token
}
