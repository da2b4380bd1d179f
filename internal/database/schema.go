package database

import "database/sql"

// EnsureSchema creates all tables this service reads and writes. Statements
// are idempotent so the call is safe on every startup. The users table is
// shared with the auth/billing service, which owns columns like
// password_hash; they are declared here so a fresh environment boots
// without a separate migration step.
func EnsureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			business_name VARCHAR(255) NOT NULL DEFAULT '',
			subscription_tier VARCHAR(40) NOT NULL DEFAULT 'free',
			qr_codes_used INT NOT NULL DEFAULT 0,
			qr_codes_limit INT NULL,
			points_per_claim INT NULL,
			rewards_enabled TINYINT(1) NOT NULL DEFAULT 1,
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			product_id VARCHAR(64) NOT NULL UNIQUE,
			user_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			sku VARCHAR(120) NOT NULL DEFAULT '',
			batch_number VARCHAR(120) NOT NULL DEFAULT '',
			mode VARCHAR(16) NOT NULL DEFAULT 'production',
			is_finalized TINYINT(1) NOT NULL DEFAULT 0,
			finalized_at DATETIME NULL,
			metadata TEXT NULL,
			photo_hashes TEXT NULL,
			location_data TEXT NULL,
			qr_url TEXT NULL,
			is_batch_group TINYINT(1) NOT NULL DEFAULT 0,
			batch_group_id VARCHAR(64) NULL,
			batch_quantity INT NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_products_user (user_id),
			KEY idx_products_batch_group (batch_group_id)
		)`,
		`CREATE TABLE IF NOT EXISTS production_scans (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			product_id BIGINT UNSIGNED NOT NULL,
			scanned_at DATETIME NOT NULL,
			latitude DOUBLE NULL,
			longitude DOUBLE NULL,
			location_name VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT NULL,
			photo_urls TEXT NULL,
			reporter_name VARCHAR(255) NOT NULL DEFAULT '',
			reporter_role VARCHAR(120) NOT NULL DEFAULT '',
			ip_address VARCHAR(45) NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_scans_product (product_id)
		)`,
		`CREATE TABLE IF NOT EXISTS points_claims (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			claim_key VARCHAR(80) NOT NULL UNIQUE,
			product_id VARCHAR(64) NOT NULL,
			batch_group_id VARCHAR(64) NULL,
			customer_email VARCHAR(255) NOT NULL,
			points_awarded INT NOT NULL,
			business_id BIGINT UNSIGNED NOT NULL,
			claim_type VARCHAR(16) NOT NULL,
			claimed_at DATETIME NOT NULL,
			KEY idx_claims_business (business_id)
		)`,
		`CREATE TABLE IF NOT EXISTS customer_points (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			customer_email VARCHAR(255) NOT NULL,
			business_id BIGINT UNSIGNED NOT NULL,
			total_points INT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_customer_business (customer_email, business_id)
		)`,
		`CREATE TABLE IF NOT EXISTS promo_codes (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			code VARCHAR(32) NOT NULL UNIQUE,
			bonus INT NOT NULL,
			max_uses INT NULL,
			use_count INT NOT NULL DEFAULT 0,
			expires_at DATETIME NULL,
			active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS promo_redemptions (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			code VARCHAR(32) NOT NULL,
			redeemed_at DATETIME NOT NULL,
			UNIQUE KEY uq_user_code (user_id, code)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
