// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by
// someone else, while ErrAlreadyFinalized signals that a product's
// history has been sealed and can no longer be changed.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert collides with existing state,
// such as a duplicate points claim or promo redemption racing past the
// in-transaction check and hitting the unique constraint.
var ErrConflict = errors.New("conflict")

// ErrLimitReached is returned when a usage charge would push the user
// past their QR-code allowance. Handlers should translate this into an
// HTTP 402 response.
var ErrLimitReached = errors.New("qr code limit reached")

// ErrProductNotFound is returned when no product row matches the
// requested external product_id.
var ErrProductNotFound = errors.New("product not found")

// ErrBatchNotFound is returned when a batch_group_id has no leader row
// owned by the caller.
var ErrBatchNotFound = errors.New("batch not found")

// ErrScanNotFound is returned when a checkpoint id does not exist.
var ErrScanNotFound = errors.New("checkpoint not found")

// ErrAlreadyFinalized is returned when an operation requires a mutable
// product but the product has been finalized. Handlers should translate
// this into an HTTP 400 response.
var ErrAlreadyFinalized = errors.New("already finalized")

// ErrNotProduction is returned when an operation requires production mode
// but the product is live.
var ErrNotProduction = errors.New("product not in production mode")

// ErrPromoNotFound is returned for unknown or inactive promo codes.
var ErrPromoNotFound = errors.New("promo code not found")

// ErrPromoExpired is returned when a promo code's expiry has passed.
var ErrPromoExpired = errors.New("promo code expired")

// ErrPromoExhausted is returned when a promo code has reached its
// global max_uses cap.
var ErrPromoExhausted = errors.New("promo code exhausted")

// ErrPromoUsed is returned when the user has already redeemed the code.
var ErrPromoUsed = errors.New("promo code already redeemed")
