package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/testutil"
)

func TestCheckLimits(t *testing.T) {
	env := newTestEnv(t)
	limit := 500
	uid := testutil.SeedUser(t, env.db, model.User{
		Email:            "shop@example.com",
		SubscriptionTier: "essential",
		QRCodesUsed:      480,
		QRCodesLimit:     &limit,
		RewardsEnabled:   true,
	})

	code, resp := env.call(t, env.owner.CheckLimits, http.MethodGet, "/v1/limits", nil, uid, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, resp = %v", code, resp)
	}
	if resp["qrLimit"].(float64) != 500 || resp["qrCodesUsed"].(float64) != 480 {
		t.Fatalf("usage = %v/%v", resp["qrCodesUsed"], resp["qrLimit"])
	}
	if resp["remaining"].(float64) != 20 {
		t.Fatalf("remaining = %v, want 20", resp["remaining"])
	}
	// The batch ceiling is the remaining quota, nothing else.
	if resp["maxBatchSize"].(float64) != 20 {
		t.Fatalf("maxBatchSize = %v, want 20", resp["maxBatchSize"])
	}
	if resp["pointsPerClaim"].(float64) != float64(model.DefaultPointsPerClaim) {
		t.Fatalf("pointsPerClaim = %v, want default", resp["pointsPerClaim"])
	}
}

func TestCheckLimitsTierDefaultAndClamp(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{
		Email:            "big@example.com",
		SubscriptionTier: "pharma_professional",
		QRCodesUsed:      6000, // over the 5000 default after a downgrade
	})

	code, resp := env.call(t, env.owner.CheckLimits, http.MethodGet, "/v1/limits", nil, uid, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if resp["qrLimit"].(float64) != 5000 {
		t.Fatalf("qrLimit = %v, want tier default 5000", resp["qrLimit"])
	}
	if resp["remaining"].(float64) != 0 || resp["maxBatchSize"].(float64) != 0 {
		t.Fatalf("remaining/maxBatchSize = %v/%v, want clamped 0", resp["remaining"], resp["maxBatchSize"])
	}
}

func TestRedeemPromo(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "shop@example.com"}) // free tier, limit 10
	testutil.SeedPromo(t, env.db, model.PromoCode{Code: "SUMMER50", Bonus: 50, Active: true})

	// Normalization: surrounding space and case are ignored.
	code, resp := env.call(t, env.owner.RedeemPromo, http.MethodPost, "/v1/promo/redeem",
		map[string]string{"code": "  summer50 "}, uid, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, resp = %v", code, resp)
	}
	if resp["qrLimit"].(float64) != 60 {
		t.Fatalf("qrLimit = %v, want 10 + 50", resp["qrLimit"])
	}
	if n := env.queryInt(t, `SELECT qr_codes_limit FROM users WHERE id = ?`, uid); n != 60 {
		t.Fatalf("stored limit = %d, want 60", n)
	}
	if n := env.queryInt(t, `SELECT use_count FROM promo_codes WHERE code = 'SUMMER50'`); n != 1 {
		t.Fatalf("use_count = %d, want 1", n)
	}

	// Same user, same code: rejected and the limit stays put.
	code, resp = env.call(t, env.owner.RedeemPromo, http.MethodPost, "/v1/promo/redeem",
		map[string]string{"code": "SUMMER50"}, uid, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("second redeem status = %d, resp = %v, want 400", code, resp)
	}
	if resp["error"] != "promo code already redeemed" {
		t.Fatalf("second redeem error = %v", resp["error"])
	}
	if n := env.queryInt(t, `SELECT qr_codes_limit FROM users WHERE id = ?`, uid); n != 60 {
		t.Fatalf("limit after rejected redeem = %d, want unchanged 60", n)
	}
	if n := env.queryInt(t, `SELECT use_count FROM promo_codes WHERE code = 'SUMMER50'`); n != 1 {
		t.Fatalf("use_count after rejected redeem = %d, want unchanged 1", n)
	}
}

func TestRedeemPromoRejections(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "shop@example.com"})

	past := time.Now().UTC().Add(-time.Hour)
	testutil.SeedPromo(t, env.db, model.PromoCode{Code: "EXPIRED10", Bonus: 10, Active: true, ExpiresAt: &past})
	one := 1
	testutil.SeedPromo(t, env.db, model.PromoCode{Code: "GONE10", Bonus: 10, Active: true, MaxUses: &one, UseCount: 1})
	testutil.SeedPromo(t, env.db, model.PromoCode{Code: "DARK10", Bonus: 10, Active: false})

	cases := []struct {
		name string
		code string
		want string
	}{
		{"unknown", "NOPE", "invalid promo code"},
		{"inactive", "DARK10", "invalid promo code"},
		{"expired", "EXPIRED10", "promo code expired"},
		{"exhausted", "GONE10", "promo code exhausted"},
		{"empty", "   ", "code is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, resp := env.call(t, env.owner.RedeemPromo, http.MethodPost, "/v1/promo/redeem",
				map[string]string{"code": tc.code}, uid, nil)
			if code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", code)
			}
			if resp["error"] != tc.want {
				t.Fatalf("error = %v, want %q", resp["error"], tc.want)
			}
		})
	}

	// None of the rejections may touch the user's limit.
	var limit any
	if err := env.db.QueryRow(`SELECT qr_codes_limit FROM users WHERE id = ?`, uid).Scan(&limit); err != nil {
		t.Fatalf("limit: %v", err)
	}
	if limit != nil {
		t.Fatalf("limit = %v, want untouched NULL", limit)
	}
}
