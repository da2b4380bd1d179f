package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
)

// CheckLimits handles GET /v1/limits. It reports the caller's usage ledger:
// subscription tier, consumed and allowed QR codes, what remains, and the
// rewards settings. The batch-size ceiling is whatever quota remains rather
// than a fixed per-tier cap.
func (h *OwnerHandler) CheckLimits(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	user, err := h.UserRepo.GetByID(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}

	limit := user.EffectiveLimit()
	remaining := limit - user.QRCodesUsed
	if remaining < 0 {
		remaining = 0
	}
	points := model.DefaultPointsPerClaim
	if user.PointsPerClaim != nil {
		points = *user.PointsPerClaim
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":        true,
		"tier":           user.SubscriptionTier,
		"qrCodesUsed":    user.QRCodesUsed,
		"qrLimit":        limit,
		"remaining":      remaining,
		"maxBatchSize":   remaining,
		"rewardsEnabled": user.RewardsEnabled,
		"pointsPerClaim": points,
	})
}

// RedeemPromo handles POST /v1/promo/redeem. A promo code grants a one-time
// additive bonus to the caller's QR-code limit. The per-user uniqueness
// check, the global use-count cap and the limit bump all run in a single
// transaction; the promo_redemptions unique key makes a concurrent double
// redemption by the same user impossible.
func (h *OwnerHandler) RedeemPromo(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	var body struct {
		Code string `json:"code"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	code := model.NormalizePromoCode(body.Code)
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "code is required"})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()
	tx, err := h.PromoRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	promo, err := h.PromoRepo.GetByCodeTx(ctx, tx, code, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPromoNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid promo code"})
		case errors.Is(err, repository.ErrPromoExpired):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "promo code expired"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	if err := h.PromoRepo.InsertRedemptionTx(ctx, tx, userID, code, now); err != nil {
		if errors.Is(err, repository.ErrPromoUsed) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "promo code already redeemed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to record redemption"})
	}
	if err := h.PromoRepo.ConsumeUseTx(ctx, tx, promo.ID); err != nil {
		if errors.Is(err, repository.ErrPromoExhausted) {
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "promo code exhausted"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to update promo code"})
	}

	user, err := h.UserRepo.GetByIDTx(ctx, tx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}
	newLimit := user.EffectiveLimit() + promo.Bonus
	if err := h.UserRepo.SetLimitTx(ctx, tx, userID, newLimit); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to update limit"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"code":    promo.Code,
		"bonus":   promo.Bonus,
		"qrLimit": newLimit,
	})
}
