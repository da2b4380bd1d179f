package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
)

// BatchRepo provides data access for batch-wide product operations: looking
// up the leader row, inserting members, transferring leadership and keeping
// the leader's batch_quantity equal to the live member count.
//
// Two invariants are maintained here and must hold after every add/delete:
// a non-empty batch has exactly one row with is_batch_group set, and that
// row's batch_quantity equals COUNT(*) of the batch's rows. All mutating
// methods therefore run inside a caller-provided transaction.
type BatchRepo struct {
	db *sql.DB
}

// NewBatchRepo returns a new BatchRepo bound to the given database.
func NewBatchRepo(db *sql.DB) *BatchRepo { return &BatchRepo{db: db} }

// Leader fetches the leader row of a batch owned by the given user.
// Returns ErrBatchNotFound when the batch has no leader under this owner.
func (r *BatchRepo) Leader(ctx context.Context, batchGroupID string, ownerID uint64) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products
	           WHERE batch_group_id = ? AND user_id = ? AND is_batch_group = 1`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, batchGroupID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	return p, err
}

// MemberTx fetches one batch member by external product_id, restricted to
// the batch and owner. Returns ErrProductNotFound when no row matches.
func (r *BatchRepo) MemberTx(ctx context.Context, tx *sql.Tx, productID, batchGroupID string, ownerID uint64) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products
	           WHERE product_id = ? AND batch_group_id = ? AND user_id = ?`
	p, err := scanProduct(tx.QueryRowContext(ctx, q, productID, batchGroupID, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// BatchItem is one member row plus its checkpoint count, as returned to the
// dashboard's batch view. The leader sorts first.
type BatchItem struct {
	ProductID     string     `json:"productId"`
	Name          string     `json:"name"`
	SKU           string     `json:"sku"`
	Mode          string     `json:"mode"`
	IsFinalized   bool       `json:"isFinalized"`
	IsBatchLeader bool       `json:"isBatchLeader"`
	BatchQuantity int        `json:"batchQuantity"`
	QRURL         string     `json:"qrUrl"`
	Checkpoints   int        `json:"checkpoints"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

// ListItems returns all members of a batch owned by the user, leader first
// then oldest first, each with its checkpoint count.
func (r *BatchRepo) ListItems(ctx context.Context, batchGroupID string, ownerID uint64) ([]BatchItem, error) {
	const q = `SELECT p.product_id, p.name, p.sku, p.mode, p.is_finalized,
	                  p.is_batch_group, p.batch_quantity, p.qr_url, p.created_at,
	                  (SELECT COUNT(*) FROM production_scans s WHERE s.product_id = p.id)
	           FROM products p
	           WHERE p.batch_group_id = ? AND p.user_id = ?
	           ORDER BY p.is_batch_group DESC, p.created_at ASC, p.id ASC`
	rows, err := r.db.QueryContext(ctx, q, batchGroupID, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]BatchItem, 0)
	for rows.Next() {
		var (
			it        BatchItem
			qrURL     sql.NullString
			createdAt sql.NullString
		)
		if err := rows.Scan(&it.ProductID, &it.Name, &it.SKU, &it.Mode, &it.IsFinalized,
			&it.IsBatchLeader, &it.BatchQuantity, &qrURL, &createdAt, &it.Checkpoints); err != nil {
			return nil, err
		}
		it.QRURL = qrURL.String
		if t := parseDBTime(createdAt.String); !t.IsZero() {
			it.CreatedAt = &t
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// InsertMemberTx creates one member row and populates the generated internal
// id on the provided product. The caller supplies all descriptive fields
// (metadata, photo hashes, location data are copied verbatim from the
// leader) and is responsible for refreshing the leader's quantity afterward.
func (r *BatchRepo) InsertMemberTx(ctx context.Context, tx *sql.Tx, p *model.Product) error {
	const q = `INSERT INTO products
	           (product_id, user_id, name, sku, batch_number, mode, is_finalized,
	            metadata, photo_hashes, location_data, qr_url,
	            is_batch_group, batch_group_id, batch_quantity, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := formatDBTime(p.CreatedAt)
	res, err := tx.ExecContext(ctx, q,
		p.ProductID, p.UserID, p.Name, p.SKU, p.BatchNumber, p.Mode, p.IsFinalized,
		p.Metadata.Encode(), p.PhotoHashes, p.LocationData, p.QRURL,
		p.IsBatchGroup, p.BatchGroupID, p.BatchQuantity, now, now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// CountMembersTx returns the live member count of a batch.
func (r *BatchRepo) CountMembersTx(ctx context.Context, tx *sql.Tx, batchGroupID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE batch_group_id = ?`, batchGroupID).Scan(&n)
	return n, err
}

// PromoteEarliestTx transfers batch leadership in a single statement: the
// earliest-created member other than excludeID becomes the leader with the
// given quantity. The derived table keeps the statement legal on engines
// that reject reading the updated table in a subquery.
func (r *BatchRepo) PromoteEarliestTx(ctx context.Context, tx *sql.Tx, batchGroupID string, excludeID uint64, quantity int) error {
	const q = `UPDATE products SET is_batch_group = 1, batch_quantity = ?
	           WHERE id = (SELECT id FROM (
	                   SELECT id FROM products
	                   WHERE batch_group_id = ? AND id <> ?
	                   ORDER BY created_at ASC, id ASC LIMIT 1) pick)`
	res, err := tx.ExecContext(ctx, q, quantity, batchGroupID, excludeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBatchNotFound
	}
	return nil
}

// RefreshLeaderQuantityTx recomputes the leader's batch_quantity from the
// live member count. The count is taken through a derived table for the
// same engine restriction as PromoteEarliestTx.
func (r *BatchRepo) RefreshLeaderQuantityTx(ctx context.Context, tx *sql.Tx, batchGroupID string) error {
	const q = `UPDATE products
	           SET batch_quantity = (SELECT c FROM (
	                   SELECT COUNT(*) AS c FROM products WHERE batch_group_id = ?) cnt)
	           WHERE batch_group_id = ? AND is_batch_group = 1`
	_, err := tx.ExecContext(ctx, q, batchGroupID, batchGroupID)
	return err
}
