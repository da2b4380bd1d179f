package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/qr"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
)

// newProductID mints the opaque external identifier encoded into a QR code.
func newProductID() string {
	return "BTX-" + uuid.NewString()
}

// deriveSKU builds a fallback SKU from the product name and the current
// time, used when the client does not supply one.
func deriveSKU(name string, now time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= 6 {
				break
			}
		}
	}
	prefix := b.String()
	if prefix == "" {
		prefix = "ITEM"
	}
	return prefix + "-" + now.UTC().Format("20060102150405")
}

// AddBatchItem handles POST /v1/batch/items. It creates one new member in an
// existing batch owned by the caller: a fresh product identifier is minted
// and charged against the usage ledger, a tracking QR code is generated and
// pinned, the leader's descriptive data is copied onto the member, every
// checkpoint of the leader is cloned so the member inherits the batch's
// journey so far, and the leader's batch_quantity is recomputed.
func (h *OwnerHandler) AddBatchItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	var body struct {
		BatchGroupID string `json:"batchGroupId"`
		ProductName  string `json:"productName"`
		SKU          string `json:"sku"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	body.BatchGroupID = strings.TrimSpace(body.BatchGroupID)
	body.ProductName = strings.TrimSpace(body.ProductName)
	if body.BatchGroupID == "" || body.ProductName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "batchGroupId and productName are required"})
	}

	ctx := c.Request().Context()
	leader, err := h.BatchRepo.Leader(ctx, body.BatchGroupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrBatchNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "batch not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	user, err := h.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}

	now := time.Now().UTC()
	productID := newProductID()
	sku := body.SKU
	if strings.TrimSpace(sku) == "" {
		sku = deriveSKU(body.ProductName, now)
	}

	// Pin the tracking QR before touching the database so a pinning outage
	// leaves no local writes behind.
	scanURL := qr.ScanURL(h.ScanBaseURL, productID)
	png, err := qr.Build(scanURL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to generate qr code"})
	}
	qrURL, err := h.Pinner.PinBytes(ctx, productID+".png", png)
	if err != nil {
		c.Logger().Errorf("batch: pin qr for %s failed: %v", productID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to pin qr code"})
	}

	tx, err := h.ProductRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := h.UserRepo.ConsumeUsageTx(ctx, tx, userID, user.EffectiveLimit()); err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			return c.JSON(http.StatusPaymentRequired, echo.Map{"success": false, "error": "qr code limit reached"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to charge usage"})
	}

	member := &model.Product{
		ProductID:     productID,
		UserID:        userID,
		Name:          body.ProductName,
		SKU:           sku,
		BatchNumber:   leader.BatchNumber,
		Mode:          model.ModeProduction,
		IsFinalized:   false,
		Metadata:      leader.Metadata,
		PhotoHashes:   leader.PhotoHashes,
		LocationData:  leader.LocationData,
		QRURL:         qrURL,
		IsBatchGroup:  false,
		BatchGroupID:  body.BatchGroupID,
		BatchQuantity: 1,
		CreatedAt:     now,
	}
	if err := h.BatchRepo.InsertMemberTx(ctx, tx, member); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to create batch item"})
	}

	cloned, err := h.ScanRepo.CopyAllTx(ctx, tx, leader.ID, member.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to clone checkpoints"})
	}

	if err := h.BatchRepo.RefreshLeaderQuantityTx(ctx, tx, body.BatchGroupID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to update batch quantity"})
	}
	quantity, err := h.BatchRepo.CountMembersTx(ctx, tx, body.BatchGroupID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"item": echo.Map{
			"productId":         member.ProductID,
			"name":              member.Name,
			"sku":               member.SKU,
			"batchNumber":       member.BatchNumber,
			"mode":              member.Mode,
			"batchGroupId":      member.BatchGroupID,
			"qrUrl":             member.QRURL,
			"scanUrl":           scanURL,
			"checkpointsCloned": cloned,
		},
		"batchQuantity": quantity,
	})
}

// DeleteBatchItem handles POST /v1/batch/items/delete. It removes one member
// from a batch owned by the caller. When the removed row is the leader and
// other members remain, leadership is transferred to the earliest remaining
// member before the delete so a non-empty batch never loses its leader. The
// member's checkpoints go first, then the row, then the surviving leader's
// quantity is refreshed. Deleting from an already-empty batch is a no-op
// success.
func (h *OwnerHandler) DeleteBatchItem(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	var body struct {
		ProductID    string `json:"productId"`
		BatchGroupID string `json:"batchGroupId"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	body.ProductID = strings.TrimSpace(body.ProductID)
	body.BatchGroupID = strings.TrimSpace(body.BatchGroupID)
	if body.ProductID == "" || body.BatchGroupID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "productId and batchGroupId are required"})
	}

	ctx := c.Request().Context()
	tx, err := h.ProductRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	member, err := h.BatchRepo.MemberTx(ctx, tx, body.ProductID, body.BatchGroupID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			count, cntErr := h.BatchRepo.CountMembersTx(ctx, tx, body.BatchGroupID)
			if cntErr == nil && count == 0 {
				return c.JSON(http.StatusOK, echo.Map{"success": true, "deleted": false, "remaining": 0})
			}
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}

	count, err := h.BatchRepo.CountMembersTx(ctx, tx, body.BatchGroupID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}

	if member.IsBatchGroup && count > 1 {
		if err := h.BatchRepo.PromoteEarliestTx(ctx, tx, body.BatchGroupID, member.ID, count-1); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to transfer batch leadership"})
		}
	}

	if err := h.ScanRepo.DeleteByProductTx(ctx, tx, member.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to delete checkpoints"})
	}
	if err := h.ProductRepo.DeleteTx(ctx, tx, member.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to delete item"})
	}
	if !member.IsBatchGroup {
		if err := h.BatchRepo.RefreshLeaderQuantityTx(ctx, tx, body.BatchGroupID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to update batch quantity"})
		}
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"deleted":   true,
		"remaining": count - 1,
	})
}

// GetBatchItems handles GET /v1/batch/items. It lists all members of a batch
// owned by the caller, leader first, each with its checkpoint count.
func (h *OwnerHandler) GetBatchItems(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	batchGroupID := strings.TrimSpace(c.QueryParam("batchGroupId"))
	if batchGroupID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "batchGroupId is required"})
	}
	items, err := h.BatchRepo.ListItems(c.Request().Context(), batchGroupID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to load batch items"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"items":   items,
		"count":   len(items),
	})
}
