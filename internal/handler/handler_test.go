package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/pin"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/testutil"
)

type testEnv struct {
	e      *echo.Echo
	db     *sql.DB
	owner  *OwnerHandler
	public *PublicHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenTestDB(t)
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	scanRepo := repository.NewScanRepo(db)
	claimRepo := repository.NewClaimRepo(db)
	promoRepo := repository.NewPromoRepo(db)
	return &testEnv{
		e:      echo.New(),
		db:     db,
		owner:  NewOwnerHandler(userRepo, productRepo, batchRepo, scanRepo, promoRepo, pin.Disabled{}, "https://track.example.com/scan"),
		public: NewPublicHandler(userRepo, productRepo, scanRepo, claimRepo, pin.Disabled{}),
	}
}

// call drives one handler directly: builds a JSON request, binds path
// params, optionally injects the authenticated user and decodes the JSON
// reply into a generic map.
func (env *testEnv) call(t *testing.T, h echo.HandlerFunc, method, target string, body any, userID uint64, params map[string]string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	if userID != 0 {
		c.Set("user_id", userID)
	}
	if err := h(c); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (env *testEnv) queryInt(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := env.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return n
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T", v)
	}
	return m
}
