package handler

import (
	"net/http"
	"testing"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/testutil"
)

func TestClaimPointsFirstClaimWins(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{
		Email:          "shop@example.com",
		BusinessName:   "Cretan Goods",
		RewardsEnabled: true,
	})
	product := &model.Product{ProductID: "BTX-P1", UserID: uid, Name: "Honey Jar"}
	testutil.SeedProduct(t, env.db, product)

	code, resp := env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim",
		map[string]string{"productId": "BTX-P1", "email": "Customer@Example.com"}, 0, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, resp = %v", code, resp)
	}
	if resp["pointsAwarded"].(float64) != float64(model.DefaultPointsPerClaim) {
		t.Fatalf("pointsAwarded = %v, want default", resp["pointsAwarded"])
	}
	if resp["totalPoints"].(float64) != float64(model.DefaultPointsPerClaim) {
		t.Fatalf("totalPoints = %v", resp["totalPoints"])
	}
	if resp["claimType"] != model.ClaimTypeProduct {
		t.Fatalf("claimType = %v", resp["claimType"])
	}
	// Exactly one claim row under the namespaced key, email lower-cased.
	if n := env.queryInt(t, `SELECT COUNT(*) FROM points_claims WHERE claim_key = 'product:BTX-P1'`); n != 1 {
		t.Fatalf("claim rows = %d, want 1", n)
	}
	if n := env.queryInt(t, `SELECT total_points FROM customer_points
		WHERE customer_email = 'customer@example.com' AND business_id = ?`, uid); n != model.DefaultPointsPerClaim {
		t.Fatalf("balance = %d", n)
	}

	// Second claim, different customer: rejected, first claimant masked.
	code, resp = env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim",
		map[string]string{"productId": "BTX-P1", "email": "rival@example.com"}, 0, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("second claim status = %d, resp = %v, want 400", code, resp)
	}
	if resp["error"] != "points already claimed" {
		t.Fatalf("error = %v", resp["error"])
	}
	if resp["claimedBy"] != "cu***@example.com" {
		t.Fatalf("claimedBy = %v, want masked first claimant", resp["claimedBy"])
	}
	if resp["claimedAt"] == nil {
		t.Fatal("claimedAt missing on conflict")
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM points_claims`); n != 1 {
		t.Fatalf("claim rows after conflict = %d, want still 1", n)
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM customer_points WHERE customer_email = 'rival@example.com'`); n != 0 {
		t.Fatal("rejected claim must not credit points")
	}
}

func TestClaimPointsAwardResolution(t *testing.T) {
	env := newTestEnv(t)
	perClaim := 15
	uid := testutil.SeedUser(t, env.db, model.User{
		Email:          "shop@example.com",
		RewardsEnabled: true,
		PointsPerClaim: &perClaim,
	})
	configured := &model.Product{ProductID: "BTX-CONF", UserID: uid, Name: "A"}
	testutil.SeedProduct(t, env.db, configured)
	overridden := &model.Product{
		ProductID: "BTX-OVER",
		UserID:    uid,
		Name:      "B",
		Metadata:  model.Metadata{"rewardPoints": float64(25)},
	}
	testutil.SeedProduct(t, env.db, overridden)

	code, resp := env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim",
		map[string]string{"productId": "BTX-CONF", "email": "a@example.com"}, 0, nil)
	if code != http.StatusOK || resp["pointsAwarded"].(float64) != 15 {
		t.Fatalf("configured award: status = %d, points = %v, want 15", code, resp["pointsAwarded"])
	}

	// Product metadata beats the business configuration.
	code, resp = env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim",
		map[string]string{"productId": "BTX-OVER", "email": "a@example.com"}, 0, nil)
	if code != http.StatusOK || resp["pointsAwarded"].(float64) != 25 {
		t.Fatalf("override award: status = %d, points = %v, want 25", code, resp["pointsAwarded"])
	}

	// Balances accumulate across claims for the same (customer, business).
	if n := env.queryInt(t, `SELECT total_points FROM customer_points
		WHERE customer_email = 'a@example.com' AND business_id = ?`, uid); n != 40 {
		t.Fatalf("balance = %d, want 40", n)
	}
}

func TestClaimPointsBatchScope(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "shop@example.com", RewardsEnabled: true})
	leader := seedBatchLeader(t, env, uid, "GRP-1", 0)
	member := &model.Product{ProductID: "GRP-1-M1", UserID: uid, Name: "m1", BatchGroupID: "GRP-1"}
	testutil.SeedProduct(t, env.db, member)

	// Claiming through any member locks the whole batch.
	code, resp := env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim",
		map[string]string{"productId": member.ProductID, "email": "a@example.com"}, 0, nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d, resp = %v", code, resp)
	}
	if resp["claimType"] != model.ClaimTypeBatch {
		t.Fatalf("claimType = %v, want batch", resp["claimType"])
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM points_claims WHERE claim_key = 'batch:GRP-1'`); n != 1 {
		t.Fatal("expected the batch-scoped claim key")
	}

	code, _ = env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim",
		map[string]string{"productId": leader.ProductID, "email": "b@example.com"}, 0, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("leader claim after member claim: status = %d, want 400", code)
	}
}

func TestClaimPointsRejections(t *testing.T) {
	env := newTestEnv(t)
	disabled := testutil.SeedUser(t, env.db, model.User{Email: "nodice@example.com", RewardsEnabled: false})
	product := &model.Product{ProductID: "BTX-P1", UserID: disabled, Name: "Honey Jar"}
	testutil.SeedProduct(t, env.db, product)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"rewards disabled", map[string]string{"productId": "BTX-P1", "email": "a@example.com"}, http.StatusBadRequest},
		{"unknown product", map[string]string{"productId": "NOPE", "email": "a@example.com"}, http.StatusNotFound},
		{"missing email", map[string]string{"productId": "BTX-P1"}, http.StatusBadRequest},
		{"bad email", map[string]string{"productId": "BTX-P1", "email": "not-an-email"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, _ := env.call(t, env.public.ClaimPoints, http.MethodPost, "/v1/claim", tc.body, 0, nil)
			if code != tc.want {
				t.Fatalf("status = %d, want %d", code, tc.want)
			}
		})
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM points_claims`); n != 0 {
		t.Fatal("no claim may be recorded by a rejected request")
	}
}
