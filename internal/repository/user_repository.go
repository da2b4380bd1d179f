package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
)

// UserRepo provides read access to the `users` table and the usage-ledger
// mutations the core performs: refund-on-delete and limit bumps from promo
// redemption. Account creation and password management belong to the
// external auth service.
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = `id, email, business_name, subscription_tier, qr_codes_used,
       qr_codes_limit, points_per_claim, rewards_enabled, is_active, created_at, updated_at`

func scanUser(row rowScanner) (*model.User, error) {
	var (
		u              model.User
		qrCodesLimit   sql.NullInt64
		pointsPerClaim sql.NullInt64
		createdAt      sql.NullString
		updatedAt      sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.BusinessName, &u.SubscriptionTier, &u.QRCodesUsed,
		&qrCodesLimit, &pointsPerClaim, &u.RewardsEnabled, &u.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if qrCodesLimit.Valid {
		n := int(qrCodesLimit.Int64)
		u.QRCodesLimit = &n
	}
	if pointsPerClaim.Valid {
		n := int(pointsPerClaim.Int64)
		u.PointsPerClaim = &n
	}
	u.CreatedAt = parseDBTime(createdAt.String)
	u.UpdatedAt = parseDBTime(updatedAt.String)
	return &u, nil
}

// ErrUserNotFound is returned when a user id has no row, typically a token
// for an account the auth service has since removed.
var ErrUserNotFound = errors.New("user not found")

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// GetByIDTx is GetByID within an existing transaction.
func (r *UserRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	u, err := scanUser(tx.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// ConsumeUsageTx charges one minted identifier against the user's metered
// allowance. The guard enforces the cap in the same statement, so two
// concurrent mints can never push usage past the limit; zero rows affected
// means the allowance is spent.
func (r *UserRepo) ConsumeUsageTx(ctx context.Context, tx *sql.Tx, userID uint64, limit int) error {
	const q = `UPDATE users SET qr_codes_used = qr_codes_used + 1
	           WHERE id = ? AND qr_codes_used < ?`
	res, err := tx.ExecContext(ctx, q, userID, limit)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLimitReached
	}
	return nil
}

// RefundUsageTx gives one minted identifier back to the user after a
// production product is deleted. The guard keeps qr_codes_used from ever
// going negative; refunding a user already at zero is a no-op.
func (r *UserRepo) RefundUsageTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	const q = `UPDATE users SET qr_codes_used = qr_codes_used - 1
	           WHERE id = ? AND qr_codes_used > 0`
	_, err := tx.ExecContext(ctx, q, userID)
	return err
}

// SetLimitTx pins the user's qr_codes_limit override to an explicit value.
// Used by promo redemption, which computes the new value from the effective
// limit inside the same transaction.
func (r *UserRepo) SetLimitTx(ctx context.Context, tx *sql.Tx, userID uint64, limit int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET qr_codes_limit = ? WHERE id = ?`, limit, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
