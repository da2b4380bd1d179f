package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
)

// ProductRepo provides data access to the `products` table. Batch-wide
// operations (leadership, quantity accounting) live in BatchRepo; this
// repository covers single-row lookups and the finalization state machine.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span repositories.
func (r *ProductRepo) DB() *sql.DB { return r.db }

const productColumns = `id, product_id, user_id, name, sku, batch_number, mode,
       is_finalized, finalized_at, metadata, photo_hashes, location_data, qr_url,
       is_batch_group, batch_group_id, batch_quantity, created_at, updated_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct reads one products row in productColumns order.
func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p            model.Product
		finalizedAt  sql.NullString
		metadata     sql.NullString
		photoHashes  sql.NullString
		locationData sql.NullString
		qrURL        sql.NullString
		batchGroupID sql.NullString
		createdAt    sql.NullString
		updatedAt    sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.ProductID, &p.UserID, &p.Name, &p.SKU, &p.BatchNumber, &p.Mode,
		&p.IsFinalized, &finalizedAt, &metadata, &photoHashes, &locationData, &qrURL,
		&p.IsBatchGroup, &batchGroupID, &p.BatchQuantity, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if finalizedAt.Valid {
		if t := parseDBTime(finalizedAt.String); !t.IsZero() {
			p.FinalizedAt = &t
		}
	}
	p.Metadata = model.ParseMetadata(metadata.String)
	p.PhotoHashes = photoHashes.String
	p.LocationData = locationData.String
	p.QRURL = qrURL.String
	p.BatchGroupID = batchGroupID.String
	p.CreatedAt = parseDBTime(createdAt.String)
	p.UpdatedAt = parseDBTime(updatedAt.String)
	return &p, nil
}

// GetByExternalID fetches a product by its external product_id string.
// Returns ErrProductNotFound when no row matches.
func (r *ProductRepo) GetByExternalID(ctx context.Context, productID string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE product_id = ?`
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// GetByExternalIDTx is GetByExternalID within an existing transaction.
func (r *ProductRepo) GetByExternalIDTx(ctx context.Context, tx *sql.Tx, productID string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE product_id = ?`
	p, err := scanProduct(tx.QueryRowContext(ctx, q, productID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// FinalizeTx performs the one-way production -> live transition for the
// given internal id. The statement guards on the current state so a product
// can never be finalized twice even under concurrent requests; zero rows
// affected means the product was not in a finalizable state.
func (r *ProductRepo) FinalizeTx(ctx context.Context, tx *sql.Tx, id uint64, now time.Time) error {
	const q = `UPDATE products
	           SET mode = 'live', is_finalized = 1, finalized_at = ?, updated_at = ?
	           WHERE id = ? AND mode = 'production' AND is_finalized = 0`
	res, err := tx.ExecContext(ctx, q, formatDBTime(now), formatDBTime(now), id)
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

// DeleteTx removes a product row by internal id. Callers must delete the
// product's checkpoints first to avoid dangling foreign references.
func (r *ProductRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	return err
}
