package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/utils"
)

const testSecret = "test-secret"

func protectedEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/v1/limits", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "sub": c.Get("user_id")})
	}, JWTAuth(testSecret))
	return e
}

func TestJWTAuth(t *testing.T) {
	e := protectedEcho(t)

	tok, err := utils.NewAccessToken(testSecret, 42, 5)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	wrongSecret, err := utils.NewAccessToken("other-secret", 42, 5)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + wrongSecret.Token, http.StatusUnauthorized},
		{"valid", "Bearer " + tok.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/limits", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}
}

func TestJWTAuthRejectsExpiredAndUnsigned(t *testing.T) {
	e := protectedEcho(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": 42,
		"exp": time.Now().UTC().Add(-time.Minute).Unix(),
	})
	signed, err := expired.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": 42}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("build unsigned token: %v", err)
	}

	for name, header := range map[string]string{
		"expired":  "Bearer " + signed,
		"alg none": "Bearer " + unsigned,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/limits", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}
