package handler // handler defines http handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/pin"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
)

// OwnerHandler bundles the repositories and collaborators behind the
// authenticated dashboard endpoints: batch membership, finalization,
// checkpoint removal, usage limits and promo redemption.
type OwnerHandler struct {
	UserRepo    *repository.UserRepo
	ProductRepo *repository.ProductRepo
	BatchRepo   *repository.BatchRepo
	ScanRepo    *repository.ScanRepo
	PromoRepo   *repository.PromoRepo
	Pinner      pin.Pinner
	ScanBaseURL string // public scan-page URL prefix encoded into QR codes
}

// NewOwnerHandler constructs a new OwnerHandler and panics if any dependency is nil.
func NewOwnerHandler(userRepo *repository.UserRepo, productRepo *repository.ProductRepo, batchRepo *repository.BatchRepo, scanRepo *repository.ScanRepo, promoRepo *repository.PromoRepo, pinner pin.Pinner, scanBaseURL string) *OwnerHandler {
	if userRepo == nil || productRepo == nil || batchRepo == nil || scanRepo == nil || promoRepo == nil || pinner == nil {
		panic("nil dependency passed to NewOwnerHandler")
	}
	return &OwnerHandler{
		UserRepo:    userRepo,
		ProductRepo: productRepo,
		BatchRepo:   batchRepo,
		ScanRepo:    scanRepo,
		PromoRepo:   promoRepo,
		Pinner:      pinner,
		ScanBaseURL: scanBaseURL,
	}
}

// PublicHandler bundles the repositories behind the unauthenticated scan-page
// endpoints: verification, checkpoint logging and points claims.
type PublicHandler struct {
	UserRepo    *repository.UserRepo
	ProductRepo *repository.ProductRepo
	ScanRepo    *repository.ScanRepo
	ClaimRepo   *repository.ClaimRepo
	Pinner      pin.Pinner
}

// NewPublicHandler constructs a new PublicHandler and panics if any dependency is nil.
func NewPublicHandler(userRepo *repository.UserRepo, productRepo *repository.ProductRepo, scanRepo *repository.ScanRepo, claimRepo *repository.ClaimRepo, pinner pin.Pinner) *PublicHandler {
	if userRepo == nil || productRepo == nil || scanRepo == nil || claimRepo == nil || pinner == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{
		UserRepo:    userRepo,
		ProductRepo: productRepo,
		ScanRepo:    scanRepo,
		ClaimRepo:   claimRepo,
		Pinner:      pinner,
	}
}

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims arrive as float64; tokens minted by other tooling may
// carry the subject as a string.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}
