package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
)

// PromoRepo provides data access to `promo_codes` and `promo_redemptions`.
// A promo code grants a one-time additive bonus to a user's QR-code limit.
// Per-user at-most-once redemption is enforced by the unique
// (user_id, code) index on promo_redemptions rather than a list of used
// codes on the user row, so the check-and-increment can run as one
// transaction with no read-then-write race.
type PromoRepo struct {
	db *sql.DB
}

// NewPromoRepo returns a new PromoRepo bound to the given database.
func NewPromoRepo(db *sql.DB) *PromoRepo { return &PromoRepo{db: db} }

// DB exposes the underlying handle so handlers can open the redemption
// transaction.
func (r *PromoRepo) DB() *sql.DB { return r.db }

// GetByCodeTx fetches a redeemable promo code by its normalized form.
// Returns ErrPromoNotFound for unknown or deactivated codes and
// ErrPromoExpired once the code's expiry has passed.
func (r *PromoRepo) GetByCodeTx(ctx context.Context, tx *sql.Tx, code string, now time.Time) (*model.PromoCode, error) {
	const q = `SELECT id, code, bonus, max_uses, use_count, expires_at, active, created_at
	           FROM promo_codes WHERE code = ?`
	var (
		p         model.PromoCode
		maxUses   sql.NullInt64
		expiresAt sql.NullString
		createdAt sql.NullString
	)
	err := tx.QueryRowContext(ctx, q, code).Scan(
		&p.ID, &p.Code, &p.Bonus, &maxUses, &p.UseCount, &expiresAt, &p.Active, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPromoNotFound
	}
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrPromoNotFound
	}
	if maxUses.Valid {
		n := int(maxUses.Int64)
		p.MaxUses = &n
	}
	if expiresAt.Valid {
		if t := parseDBTime(expiresAt.String); !t.IsZero() {
			p.ExpiresAt = &t
		}
	}
	if p.Expired(now) {
		return nil, ErrPromoExpired
	}
	p.CreatedAt = parseDBTime(createdAt.String)
	return &p, nil
}

// InsertRedemptionTx records that the user redeemed the code. A duplicate
// (user_id, code) pair, including two requests in flight for the same user,
// surfaces as ErrPromoUsed.
func (r *PromoRepo) InsertRedemptionTx(ctx context.Context, tx *sql.Tx, userID uint64, code string, now time.Time) error {
	const q = `INSERT INTO promo_redemptions (user_id, code, redeemed_at) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, q, userID, code, formatDBTime(now)); err != nil {
		if isDuplicateErr(err) {
			return ErrPromoUsed
		}
		return err
	}
	return nil
}

// ConsumeUseTx increments the code's global use counter, guarded by the
// max_uses cap so concurrent redemptions cannot push a code past its limit.
// Returns ErrPromoExhausted when the cap has been reached.
func (r *PromoRepo) ConsumeUseTx(ctx context.Context, tx *sql.Tx, codeID uint64) error {
	const q = `UPDATE promo_codes SET use_count = use_count + 1
	           WHERE id = ? AND (max_uses IS NULL OR use_count < max_uses)`
	res, err := tx.ExecContext(ctx, q, codeID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPromoExhausted
	}
	return nil
}
