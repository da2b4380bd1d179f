package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
)

// ClaimRepo provides data access to the rewards ledger: `points_claims`
// (at-most-once redemptions, claim_key unique) and `customer_points` (the
// running per-customer, per-business balance). The two writes always happen
// together inside one transaction so a claim is never recorded without its
// credit or vice versa; the unique index on claim_key is what makes
// concurrent claims first-wins.
type ClaimRepo struct {
	db *sql.DB
}

// NewClaimRepo returns a new ClaimRepo bound to the given database.
func NewClaimRepo(db *sql.DB) *ClaimRepo { return &ClaimRepo{db: db} }

// DB exposes the underlying handle so handlers can open the claim
// transaction.
func (r *ClaimRepo) DB() *sql.DB { return r.db }

func scanClaim(row rowScanner) (*model.PointsClaim, error) {
	var (
		c            model.PointsClaim
		batchGroupID sql.NullString
		claimedAt    sql.NullString
	)
	err := row.Scan(&c.ID, &c.ClaimKey, &c.ProductID, &batchGroupID,
		&c.CustomerEmail, &c.PointsAwarded, &c.BusinessID, &c.ClaimType, &claimedAt)
	if err != nil {
		return nil, err
	}
	c.BatchGroupID = batchGroupID.String
	c.ClaimedAt = parseDBTime(claimedAt.String)
	return &c, nil
}

const claimColumns = `id, claim_key, product_id, batch_group_id, customer_email,
       points_awarded, business_id, claim_type, claimed_at`

// GetByKey fetches the existing claim for a claim key, if any. Returns
// nil, nil when the key has never been claimed.
func (r *ClaimRepo) GetByKey(ctx context.Context, claimKey string) (*model.PointsClaim, error) {
	const q = `SELECT ` + claimColumns + ` FROM points_claims WHERE claim_key = ?`
	c, err := scanClaim(r.db.QueryRowContext(ctx, q, claimKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// GetByKeyTx is GetByKey within an existing transaction.
func (r *ClaimRepo) GetByKeyTx(ctx context.Context, tx *sql.Tx, claimKey string) (*model.PointsClaim, error) {
	const q = `SELECT ` + claimColumns + ` FROM points_claims WHERE claim_key = ?`
	c, err := scanClaim(tx.QueryRowContext(ctx, q, claimKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// InsertTx records a claim. A duplicate claim_key, meaning a concurrent
// request won the race after our in-transaction check, surfaces as
// ErrConflict so the handler can report "already claimed".
func (r *ClaimRepo) InsertTx(ctx context.Context, tx *sql.Tx, c *model.PointsClaim) error {
	const q = `INSERT INTO points_claims
	           (claim_key, product_id, batch_group_id, customer_email,
	            points_awarded, business_id, claim_type, claimed_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var batchGroupID any
	if c.BatchGroupID != "" {
		batchGroupID = c.BatchGroupID
	}
	res, err := tx.ExecContext(ctx, q,
		c.ClaimKey, c.ProductID, batchGroupID, c.CustomerEmail,
		c.PointsAwarded, c.BusinessID, c.ClaimType, formatDBTime(c.ClaimedAt))
	if err != nil {
		if isDuplicateErr(err) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// CreditTx adds points to the (customer, business) balance, creating the
// row on first claim. Runs inside the claim transaction; the unique
// (customer_email, business_id) index backs the select-then-write.
// Returns the new total.
func (r *ClaimRepo) CreditTx(ctx context.Context, tx *sql.Tx, email string, businessID uint64, points int, now time.Time) (int, error) {
	var (
		id    uint64
		total int
	)
	err := tx.QueryRowContext(ctx,
		`SELECT id, total_points FROM customer_points WHERE customer_email = ? AND business_id = ?`,
		email, businessID).Scan(&id, &total)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO customer_points (customer_email, business_id, total_points, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			email, businessID, points, formatDBTime(now), formatDBTime(now))
		if err != nil {
			if isDuplicateErr(err) {
				return 0, ErrConflict
			}
			return 0, err
		}
		return points, nil
	case err != nil:
		return 0, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE customer_points SET total_points = total_points + ?, updated_at = ? WHERE id = ?`,
		points, formatDBTime(now), id)
	if err != nil {
		return 0, err
	}
	return total + points, nil
}

// TotalFor returns the current balance for a (customer, business) pair,
// zero when no claims have been made.
func (r *ClaimRepo) TotalFor(ctx context.Context, email string, businessID uint64) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT total_points FROM customer_points WHERE customer_email = ? AND business_id = ?`,
		email, businessID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return total, err
}
