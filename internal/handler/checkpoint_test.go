package handler

import (
	"context"
	"database/sql"
	"encoding/base64"
	"net/http"
	"testing"
	"time"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/testutil"
)

func TestLogCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "maker@example.com"})
	product := &model.Product{ProductID: "BTX-P1", UserID: uid, Name: "Honey Jar"}
	testutil.SeedProduct(t, env.db, product)

	lat, lng := 35.24, 24.81
	code, resp := env.call(t, env.public.LogCheckpoint, http.MethodPost, "/v1/scan/BTX-P1/checkpoints",
		map[string]any{
			"reporterName": "Maria",
			"reporterRole": "distributor",
			"latitude":     lat,
			"longitude":    lng,
			"locationName": "Heraklion warehouse",
			"notes":        "pallet intact",
		}, 0, map[string]string{"productId": "BTX-P1"})
	if code != http.StatusOK {
		t.Fatalf("status = %d, resp = %v", code, resp)
	}
	if resp["totalCheckpoints"].(float64) != 1 {
		t.Fatalf("totalCheckpoints = %v, want 1", resp["totalCheckpoints"])
	}
	cp := asMap(t, resp["checkpoint"])
	if cp["reporterName"] != "Maria" || cp["reporterRole"] != "distributor" {
		t.Fatalf("checkpoint = %v", cp)
	}
	if cp["latitude"].(float64) != lat {
		t.Fatalf("latitude = %v, want %v", cp["latitude"], lat)
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, product.ID); n != 1 {
		t.Fatalf("stored checkpoints = %d, want 1", n)
	}
	// Best-effort source address from the test request.
	var ip any
	if err := env.db.QueryRow(`SELECT ip_address FROM production_scans WHERE product_id = ?`, product.ID).Scan(&ip); err != nil {
		t.Fatalf("ip: %v", err)
	}
	if ip == nil {
		t.Fatal("expected a recorded ip address")
	}
}

func TestLogCheckpointSkipsBadPhotos(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "maker@example.com"})
	product := &model.Product{ProductID: "BTX-P1", UserID: uid, Name: "Honey Jar"}
	testutil.SeedProduct(t, env.db, product)

	code, resp := env.call(t, env.public.LogCheckpoint, http.MethodPost, "/v1/scan/BTX-P1/checkpoints",
		map[string]any{
			"reporterName": "Maria",
			"reporterRole": "distributor",
			"photos":       []string{"%%% not base64 %%%"},
		}, 0, map[string]string{"productId": "BTX-P1"})
	if code != http.StatusOK {
		t.Fatalf("status = %d, resp = %v; one bad photo must not fail the checkpoint", code, resp)
	}
	cp := asMap(t, resp["checkpoint"])
	if urls, ok := cp["photoUrls"]; ok && urls != nil {
		if arr, isArr := urls.([]any); isArr && len(arr) > 0 {
			t.Fatalf("photoUrls = %v, want none recorded", urls)
		}
	}
}

func TestLogCheckpointGating(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "maker@example.com"})
	finalizedAt := time.Now().UTC()
	sealed := &model.Product{
		ProductID:   "BTX-SEALED",
		UserID:      uid,
		Name:        "Sealed",
		Mode:        model.ModeLive,
		IsFinalized: true,
		FinalizedAt: &finalizedAt,
	}
	testutil.SeedProduct(t, env.db, sealed)
	open := &model.Product{ProductID: "BTX-OPEN", UserID: uid, Name: "Open"}
	testutil.SeedProduct(t, env.db, open)

	body := map[string]any{"reporterName": "Maria", "reporterRole": "distributor"}

	// Finalized history is sealed, retries included.
	for i := 0; i < 2; i++ {
		code, resp := env.call(t, env.public.LogCheckpoint, http.MethodPost, "/v1/scan/BTX-SEALED/checkpoints",
			body, 0, map[string]string{"productId": "BTX-SEALED"})
		if code != http.StatusBadRequest {
			t.Fatalf("attempt %d: status = %d, resp = %v, want 400", i+1, code, resp)
		}
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, sealed.ID); n != 0 {
		t.Fatalf("sealed product gained %d checkpoints", n)
	}

	code, _ := env.call(t, env.public.LogCheckpoint, http.MethodPost, "/v1/scan/NOPE/checkpoints",
		body, 0, map[string]string{"productId": "NOPE"})
	if code != http.StatusNotFound {
		t.Fatalf("unknown product status = %d, want 404", code)
	}

	code, _ = env.call(t, env.public.LogCheckpoint, http.MethodPost, "/v1/scan/BTX-OPEN/checkpoints",
		map[string]any{"reporterRole": "distributor"}, 0, map[string]string{"productId": "BTX-OPEN"})
	if code != http.StatusBadRequest {
		t.Fatalf("missing reporterName status = %d, want 400", code)
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "maker@example.com"})
	other := testutil.SeedUser(t, env.db, model.User{Email: "intruder@example.com"})
	product := &model.Product{ProductID: "BTX-P1", UserID: uid, Name: "Honey Jar"}
	testutil.SeedProduct(t, env.db, product)
	scan := &model.Scan{ProductID: product.ID, ReporterName: "w", ReporterRole: "producer"}
	testutil.SeedScan(t, env.db, scan)

	code, _ := env.call(t, env.owner.DeleteCheckpoint, http.MethodPost, "/v1/checkpoints/999/delete",
		nil, uid, map[string]string{"id": "999"})
	if code != http.StatusNotFound {
		t.Fatalf("unknown checkpoint status = %d, want 404", code)
	}

	code, _ = env.call(t, env.owner.DeleteCheckpoint, http.MethodPost, "/v1/checkpoints/1/delete",
		nil, other, map[string]string{"id": "1"})
	if code != http.StatusForbidden {
		t.Fatalf("foreign checkpoint status = %d, want 403", code)
	}

	code, _ = env.call(t, env.owner.DeleteCheckpoint, http.MethodPost, "/v1/checkpoints/1/delete",
		nil, uid, map[string]string{"id": "1"})
	if code != http.StatusOK {
		t.Fatalf("owner delete status = %d, want 200", code)
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, product.ID); n != 0 {
		t.Fatal("checkpoint must be removed")
	}
}

func TestDeleteCheckpointRejectedAfterFinalize(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "maker@example.com"})
	finalizedAt := time.Now().UTC()
	product := &model.Product{
		ProductID:   "BTX-P1",
		UserID:      uid,
		Name:        "Honey Jar",
		Mode:        model.ModeLive,
		IsFinalized: true,
		FinalizedAt: &finalizedAt,
	}
	testutil.SeedProduct(t, env.db, product)
	scan := &model.Scan{ProductID: product.ID, ReporterName: "w", ReporterRole: "producer"}
	testutil.SeedScan(t, env.db, scan)

	code, resp := env.call(t, env.owner.DeleteCheckpoint, http.MethodPost, "/v1/checkpoints/1/delete",
		nil, uid, map[string]string{"id": "1"})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, resp = %v, want 400", code, resp)
	}
	if n := env.queryInt(t, `SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, product.ID); n != 1 {
		t.Fatal("sealed checkpoint must survive")
	}
}

// sealingPinner finalizes the product while its photo is being uploaded,
// standing in for a finalize request that commits mid-pin.
type sealingPinner struct {
	db        *sql.DB
	productID uint64
}

func (p sealingPinner) PinBytes(_ context.Context, _ string, _ []byte) (string, error) {
	_, err := p.db.Exec(`UPDATE products SET is_finalized = 1, mode = 'live', finalized_at = ?
		WHERE id = ?`, time.Now().UTC().Format("2006-01-02 15:04:05"), p.productID)
	return "https://gateway.example.com/ipfs/QmSealed", err
}

func TestLogCheckpointRejectsFinalizeDuringPhotoUpload(t *testing.T) {
	env := newTestEnv(t)
	uid := testutil.SeedUser(t, env.db, model.User{Email: "maker@example.com"})
	product := &model.Product{ProductID: "BTX-P1", UserID: uid, Name: "Honey Jar"}
	testutil.SeedProduct(t, env.db, product)

	public := NewPublicHandler(
		repository.NewUserRepo(env.db),
		repository.NewProductRepo(env.db),
		repository.NewScanRepo(env.db),
		repository.NewClaimRepo(env.db),
		sealingPinner{db: env.db, productID: product.ID},
	)

	code, resp := env.call(t, public.LogCheckpoint, http.MethodPost, "/v1/scan/BTX-P1/checkpoints",
		map[string]any{
			"reporterName": "Inspector",
			"reporterRole": "distributor",
			"photos":       []string{base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))},
		}, 0, map[string]string{"productId": "BTX-P1"})
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 once the product finalized mid-request", code)
	}
	if resp["error"] != "product already finalized" {
		t.Fatalf("error = %v", resp["error"])
	}

	var n int
	if err := env.db.QueryRow(`SELECT COUNT(*) FROM production_scans WHERE product_id = ?`, product.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("sealed product gained %d checkpoints", n)
	}
}
