package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/model"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/queue"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
	queue_publisher "github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/service"
)

// checkpointView is the wire form of one checkpoint.
type checkpointView struct {
	ID           uint64   `json:"id"`
	ScannedAt    string   `json:"scannedAt"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	LocationName string   `json:"locationName,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	PhotoURLs    []string `json:"photoUrls,omitempty"`
	ReporterName string   `json:"reporterName"`
	ReporterRole string   `json:"reporterRole"`
}

func newCheckpointView(s *model.Scan) checkpointView {
	return checkpointView{
		ID:           s.ID,
		ScannedAt:    s.ScannedAt.Format(time.RFC3339),
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		LocationName: s.LocationName,
		Notes:        s.Notes,
		PhotoURLs:    s.PhotoURLs,
		ReporterName: s.ReporterName,
		ReporterRole: s.ReporterRole,
	}
}

// LogCheckpoint handles POST /v1/scan/:productId/checkpoints. It is the
// unauthenticated endpoint behind the QR scan page: anyone in the supply
// chain can append one custody event to a product that is still in
// production. Photos arrive base64-encoded and are pinned individually;
// a failed upload is logged and skipped so the other photos and the
// checkpoint itself still go through.
func (h *PublicHandler) LogCheckpoint(c echo.Context) error {
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
	if product.IsFinalized {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product already finalized"})
	}
	if product.Mode != model.ModeProduction {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product not in production mode"})
	}

	var body struct {
		ReporterName string   `json:"reporterName"`
		ReporterRole string   `json:"reporterRole"`
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		LocationName string   `json:"locationName"`
		Notes        string   `json:"notes"`
		Photos       []string `json:"photos"` // base64-encoded images
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid request body"})
	}
	body.ReporterName = strings.TrimSpace(body.ReporterName)
	body.ReporterRole = strings.TrimSpace(body.ReporterRole)
	if body.ReporterName == "" || body.ReporterRole == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "reporterName and reporterRole are required"})
	}

	now := time.Now().UTC()
	photoURLs := make([]string, 0, len(body.Photos))
	for i, encoded := range body.Photos {
		data, decErr := base64.StdEncoding.DecodeString(encoded)
		if decErr != nil {
			c.Logger().Warnf("checkpoint: photo %d for %s is not valid base64, skipping", i, productID)
			continue
		}
		name := fmt.Sprintf("%s-checkpoint-%d-%d.jpg", productID, now.Unix(), i)
		url, pinErr := h.Pinner.PinBytes(ctx, name, data)
		if pinErr != nil {
			c.Logger().Warnf("checkpoint: pin photo %d for %s failed: %v", i, productID, pinErr)
			continue
		}
		if url != "" {
			photoURLs = append(photoURLs, url)
		}
	}

	var ip *string
	if addr := c.RealIP(); addr != "" {
		ip = &addr
	}

	scan := &model.Scan{
		ProductID:    product.ID,
		ScannedAt:    now,
		Latitude:     body.Latitude,
		Longitude:    body.Longitude,
		LocationName: body.LocationName,
		Notes:        body.Notes,
		PhotoURLs:    photoURLs,
		ReporterName: body.ReporterName,
		ReporterRole: body.ReporterRole,
		IPAddress:    ip,
		CreatedAt:    now,
	}
	// Photo pinning above is slow external I/O; the product may have been
	// finalized in the meantime, so the insert re-checks its state.
	if err := h.ScanRepo.Insert(ctx, scan); err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "product not found"})
		case errors.Is(err, repository.ErrAlreadyFinalized):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product already finalized"})
		case errors.Is(err, repository.ErrNotProduction):
			return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product not in production mode"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to record checkpoint"})
	}
	total, err := h.ScanRepo.CountByProduct(ctx, product.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "database error"})
	}

	ev := queue.CheckpointLoggedEvent{
		ProductID:    product.ProductID,
		ScanID:       scan.ID,
		LocationName: scan.LocationName,
		ReporterRole: scan.ReporterRole,
		ScannedAt:    now.Format(time.RFC3339),
	}
	go func() { _ = queue_publisher.PublishCheckpointLogged(context.Background(), ev) }()

	return c.JSON(http.StatusOK, echo.Map{
		"success":          true,
		"checkpoint":       newCheckpointView(scan),
		"totalCheckpoints": total,
	})
}

// DeleteCheckpoint handles POST /v1/checkpoints/:id/delete. The owner may
// remove an individual checkpoint while the owning product is still mutable;
// once the product is finalized its history is sealed.
func (h *OwnerHandler) DeleteCheckpoint(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthorized"})
	}
	scanID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || scanID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "invalid checkpoint id"})
	}

	switch err := h.ScanRepo.DeleteByIDForOwner(c.Request().Context(), scanID, userID); {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"success": true, "deleted": true})
	case errors.Is(err, repository.ErrScanNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"success": false, "error": "checkpoint not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
	case errors.Is(err, repository.ErrAlreadyFinalized):
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "product already finalized"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "failed to delete checkpoint"})
	}
}
