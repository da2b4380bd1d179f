package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/utils"
)

// ClaimPoints handles POST /v1/claim. A customer scanning a product claims
// the loyalty points it offers. Claims are deduplicated per batch when the
// product belongs to one, otherwise per product: the first claim wins and
// every later attempt is rejected with the (masked) first claimant. The
// claim row and the customer's balance credit commit in one transaction so
// there is never a credit without a recorded claim or vice versa.
func (h *PublicHandler) ClaimPoints(c echo.Context) error {
	var body struct {
		ProductID string `json:"productId"`
		Email     string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	body.ProductID = strings.TrimSpace(body.ProductID)
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if body.ProductID == "" || email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "productId and email are required"})
	}
	if !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid email"})
	}

	ctx := c.Request().Context()
	product, err := h.ProductRepo.GetByExternalID(ctx, body.ProductID)
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
	if !business.RewardsEnabled {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "rewards disabled"})
	}

	points := model.DefaultPointsPerClaim
	if business.PointsPerClaim != nil {
		points = *business.PointsPerClaim
	}
	if override, ok := product.Metadata.RewardPoints(); ok {
		points = override
	}

	claimKey, claimType := model.ClaimKeyFor(product.ProductID, product.BatchGroupID)
	now := time.Now().UTC()

	tx, err := h.ClaimRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	existing, err := h.ClaimRepo.GetByKeyTx(ctx, tx, claimKey)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	if existing != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"success":   false,
			"error":     "points already claimed",
			"claimedBy": utils.MaskEmail(existing.CustomerEmail),
			"claimedAt": existing.ClaimedAt.Format(time.RFC3339),
		})
	}

	claim := &model.PointsClaim{
		ClaimKey:      claimKey,
		ProductID:     product.ProductID,
		BatchGroupID:  product.BatchGroupID,
		CustomerEmail: email,
		PointsAwarded: points,
		BusinessID:    business.ID,
		ClaimType:     claimType,
		ClaimedAt:     now,
	}
	if err := h.ClaimRepo.InsertTx(ctx, tx, claim); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// A concurrent claim beat us to the unique key.
			if winner, lookupErr := h.ClaimRepo.GetByKey(ctx, claimKey); lookupErr == nil && winner != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{
					"success":   false,
					"error":     "points already claimed",
					"claimedBy": utils.MaskEmail(winner.CustomerEmail),
					"claimedAt": winner.ClaimedAt.Format(time.RFC3339),
				})
			}
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "points already claimed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to record claim"})
	}

	total, err := h.ClaimRepo.CreditTx(ctx, tx, email, business.ID, points, now)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to credit points"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"pointsAwarded": points,
		"totalPoints":   total,
		"claimType":     claimType,
		"business":      business.BusinessName,
	})
}
