package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
)

// ScanRepo provides data access to the `production_scans` table: the
// append-only checkpoint ledger. Rows reference products.id (internal key).
// Deletion happens only pre-finalization, individually by an owner or en
// masse when the owning product is removed; cloning copies a leader's whole
// history onto a newly added batch member.
type ScanRepo struct {
	db *sql.DB
}

// NewScanRepo returns a new ScanRepo bound to the given database.
func NewScanRepo(db *sql.DB) *ScanRepo { return &ScanRepo{db: db} }

func encodePhotoURLs(urls []string) string {
	if len(urls) == 0 {
		return "[]"
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func decodePhotoURLs(raw string) []string {
	urls := []string{}
	if raw == "" {
		return urls
	}
	if err := json.Unmarshal([]byte(raw), &urls); err != nil {
		return []string{}
	}
	return urls
}

// Insert appends one checkpoint and populates the generated id. The insert
// itself is guarded on the product still being an unfinalized production
// row, so a finalize that commits between the handler's read and this write
// cannot grow a sealed history. Zero rows inserted resolves to
// ErrProductNotFound, ErrAlreadyFinalized or ErrNotProduction.
func (r *ScanRepo) Insert(ctx context.Context, s *model.Scan) error {
	const q = `INSERT INTO production_scans
	           (product_id, scanned_at, latitude, longitude, location_name, notes,
	            photo_urls, reporter_name, reporter_role, ip_address, created_at)
	           SELECT id, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
	           FROM products
	           WHERE id = ? AND mode = ? AND is_finalized = 0`
	res, err := r.db.ExecContext(ctx, q,
		formatDBTime(s.ScannedAt), s.Latitude, s.Longitude,
		s.LocationName, s.Notes, encodePhotoURLs(s.PhotoURLs),
		s.ReporterName, s.ReporterRole, s.IPAddress, formatDBTime(s.CreatedAt),
		s.ProductID, model.ModeProduction,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.classifyRejectedAppend(ctx, s.ProductID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// classifyRejectedAppend explains why the guarded insert matched no product
// row, so the handler can tell 404 from 400 apart.
func (r *ScanRepo) classifyRejectedAppend(ctx context.Context, productID uint64) error {
	var (
		mode        string
		isFinalized bool
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT mode, is_finalized FROM products WHERE id = ?`, productID).
		Scan(&mode, &isFinalized)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	if isFinalized {
		return ErrAlreadyFinalized
	}
	if mode != model.ModeProduction {
		return ErrNotProduction
	}
	return ErrProductNotFound
}

// CountByProduct returns the number of checkpoints recorded for a product.
func (r *ScanRepo) CountByProduct(ctx context.Context, productID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, productID).Scan(&n)
	return n, err
}

// CountByProductTx is CountByProduct within an existing transaction.
func (r *ScanRepo) CountByProductTx(ctx context.Context, tx *sql.Tx, productID uint64) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, productID).Scan(&n)
	return n, err
}

// ListByProduct returns a product's checkpoints, oldest first.
func (r *ScanRepo) ListByProduct(ctx context.Context, productID uint64) ([]model.Scan, error) {
	const q = `SELECT id, product_id, scanned_at, latitude, longitude, location_name,
	                  notes, photo_urls, reporter_name, reporter_role, ip_address, created_at
	           FROM production_scans
	           WHERE product_id = ?
	           ORDER BY scanned_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	scans := make([]model.Scan, 0)
	for rows.Next() {
		var (
			s         model.Scan
			scannedAt sql.NullString
			photoURLs sql.NullString
			ip        sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.ProductID, &scannedAt, &s.Latitude, &s.Longitude,
			&s.LocationName, &s.Notes, &photoURLs, &s.ReporterName, &s.ReporterRole,
			&ip, &createdAt); err != nil {
			return nil, err
		}
		s.ScannedAt = parseDBTime(scannedAt.String)
		s.PhotoURLs = decodePhotoURLs(photoURLs.String)
		if ip.Valid && ip.String != "" {
			addr := ip.String
			s.IPAddress = &addr
		}
		s.CreatedAt = parseDBTime(createdAt.String)
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scans, nil
}

// CopyAllTx clones every checkpoint of one product onto another, preserving
// scanned_at and all descriptive fields. This is how a new batch member
// inherits the batch's prior journey. Returns the number of rows copied.
func (r *ScanRepo) CopyAllTx(ctx context.Context, tx *sql.Tx, fromProductID, toProductID uint64) (int, error) {
	const q = `INSERT INTO production_scans
	           (product_id, scanned_at, latitude, longitude, location_name, notes,
	            photo_urls, reporter_name, reporter_role, ip_address, created_at)
	           SELECT ?, scanned_at, latitude, longitude, location_name, notes,
	                  photo_urls, reporter_name, reporter_role, ip_address, created_at
	           FROM production_scans WHERE product_id = ?`
	res, err := tx.ExecContext(ctx, q, toProductID, fromProductID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// DeleteByProductTx removes all checkpoints belonging to a product. Must be
// called before the product row itself is deleted.
func (r *ScanRepo) DeleteByProductTx(ctx context.Context, tx *sql.Tx, productID uint64) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM production_scans WHERE product_id = ?`, productID)
	return err
}

// DeleteByIDForOwner removes a single checkpoint on behalf of the product
// owner. Ownership is verified by joining checkpoint -> product -> user.
// Returns ErrScanNotFound when the id is unknown, ErrForbidden when the
// product belongs to someone else, and ErrAlreadyFinalized when the
// product's history has been sealed.
func (r *ScanRepo) DeleteByIDForOwner(ctx context.Context, scanID, ownerID uint64) error {
	const checkQ = `SELECT p.user_id, p.is_finalized
	                FROM production_scans s
	                JOIN products p ON p.id = s.product_id
	                WHERE s.id = ?`
	var (
		actualOwnerID uint64
		isFinalized   bool
	)
	err := r.db.QueryRowContext(ctx, checkQ, scanID).Scan(&actualOwnerID, &isFinalized)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrScanNotFound
	}
	if err != nil {
		return err
	}
	if actualOwnerID != ownerID {
		return ErrForbidden
	}
	if isFinalized {
		return ErrAlreadyFinalized
	}
	// The delete carries the same guard so a finalize committing between
	// the read above and this statement cannot shrink a sealed history.
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM production_scans
		 WHERE id = ? AND product_id IN (SELECT id FROM products WHERE is_finalized = 0)`,
		scanID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyFinalized
	}
	return nil
}
