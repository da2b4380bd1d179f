package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
)

// VerifyProduct handles GET /v1/verify/:productId, the read side of the scan
// page: a product summary with its full checkpoint history and the state of
// the rewards offer. This endpoint takes most of the public traffic and sits
// behind the Redis response cache.
func (h *PublicHandler) VerifyProduct(c echo.Context) error {
	productID := strings.TrimSpace(c.Param("productId"))
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
	business, err := h.UserRepo.GetByID(ctx, product.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	scans, err := h.ScanRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to load checkpoints"})
	}

	checkpoints := make([]checkpointView, 0, len(scans))
	for i := range scans {
		checkpoints = append(checkpoints, newCheckpointView(&scans[i]))
	}

	points := model.DefaultPointsPerClaim
	if business.PointsPerClaim != nil {
		points = *business.PointsPerClaim
	}
	if override, ok := product.Metadata.RewardPoints(); ok {
		points = override
	}
	rewards := echo.Map{
		"enabled": business.RewardsEnabled,
		"points":  points,
		"claimed": false,
	}
	if business.RewardsEnabled {
		claimKey, _ := model.ClaimKeyFor(product.ProductID, product.BatchGroupID)
		if claim, claimErr := h.ClaimRepo.GetByKey(ctx, claimKey); claimErr == nil && claim != nil {
			rewards["claimed"] = true
			rewards["claimedAt"] = claim.ClaimedAt.Format(time.RFC3339)
		}
	}

	summary := echo.Map{
		"productId":   product.ProductID,
		"name":        product.Name,
		"sku":         product.SKU,
		"batchNumber": product.BatchNumber,
		"mode":        product.Mode,
		"isFinalized": product.IsFinalized,
		"qrUrl":       product.QRURL,
		"business":    business.BusinessName,
	}
	if product.FinalizedAt != nil {
		summary["finalizedAt"] = product.FinalizedAt.Format(time.RFC3339)
	}
	if product.InBatch() {
		summary["batchGroupId"] = product.BatchGroupID
		if product.IsBatchGroup {
			summary["batchQuantity"] = product.BatchQuantity
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"product":     summary,
		"checkpoints": checkpoints,
		"rewards":     rewards,
	})
}
