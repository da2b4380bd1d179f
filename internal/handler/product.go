package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/queue"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
	queue_publisher "github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/service"
)

// FinalizeProduct handles POST /v1/products/:id/finalize. It seals a product:
// mode flips from production to live, is_finalized is set and finalized_at is
// stamped. The transition is one-shot and irreversible; a second call fails.
// After the commit a product.finalized event is published best-effort.
func (h *OwnerHandler) FinalizeProduct(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	productID := strings.TrimSpace(c.Param("id"))
	if productID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product id is required"})
	}

	ctx := c.Request().Context()
	product, err := h.ProductRepo.GetByExternalID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	if product.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
	}
	if product.IsFinalized {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "already finalized"})
	}
	if product.Mode != model.ModeProduction {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product not in production mode"})
	}

	now := time.Now().UTC()
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

	if err := h.ProductRepo.FinalizeTx(ctx, tx, product.ID, now); err != nil {
		if errors.Is(err, repository.ErrAlreadyFinalized) {
			// Lost the race against a concurrent finalize.
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "already finalized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to finalize product"})
	}
	count, err := h.ScanRepo.CountByProductTx(ctx, tx, product.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to commit transaction"})
	}
	committed = true

	ev := queue.ProductFinalizedEvent{
		ProductID:   product.ProductID,
		UserID:      product.UserID,
		Name:        product.Name,
		SKU:         product.SKU,
		BatchNumber: product.BatchNumber,
		BatchGroup:  product.BatchGroupID,
		FinalizedAt: now.Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishProductFinalized(context.Background(), ev) }()

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"productId":   product.ProductID,
		"mode":        model.ModeLive,
		"finalizedAt": now.Format(time.RFC3339),
		"checkpoints": count,
	})
}

// DeleteProduct handles POST /v1/products/:id/delete. It removes a product
// that is still in production and not finalized, together with all of its
// checkpoints, and refunds one unit to the owner's usage ledger. When the
// product belongs to a batch, leadership and quantity are repaired in the
// same transaction so the batch invariants hold for any surviving members.
func (h *OwnerHandler) DeleteProduct(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	productID := strings.TrimSpace(c.Param("id"))
	if productID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product id is required"})
	}

	ctx := c.Request().Context()
	product, err := h.ProductRepo.GetByExternalID(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	if product.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
	}
	if product.IsFinalized {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "already finalized"})
	}
	if product.Mode != model.ModeProduction {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product not in production mode"})
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

	if product.InBatch() {
		count, err := h.BatchRepo.CountMembersTx(ctx, tx, product.BatchGroupID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
		}
		if product.IsBatchGroup && count > 1 {
			if err := h.BatchRepo.PromoteEarliestTx(ctx, tx, product.BatchGroupID, product.ID, count-1); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to transfer batch leadership"})
			}
		}
	}

	if err := h.ScanRepo.DeleteByProductTx(ctx, tx, product.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to delete checkpoints"})
	}
	if err := h.ProductRepo.DeleteTx(ctx, tx, product.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to delete product"})
	}
	if product.InBatch() && !product.IsBatchGroup {
		if err := h.BatchRepo.RefreshLeaderQuantityTx(ctx, tx, product.BatchGroupID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to update batch quantity"})
		}
	}
	if err := h.UserRepo.RefundUsageTx(ctx, tx, userID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to refund usage"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"deleted":  true,
		"refunded": true,
	})
}
