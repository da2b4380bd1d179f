package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/handler"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterOwner registers the authenticated dashboard endpoints under /v1.
// All routes require a valid JWT; ownership of the touched rows is enforced
// in the handlers.
func RegisterOwner(e *echo.Echo, o *handler.OwnerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
	)

	// ---- Batches ----
	g.POST("/batch/items", o.AddBatchItem)
	g.POST("/batch/items/delete", o.DeleteBatchItem)
	g.GET("/batch/items", o.GetBatchItems)

	// ---- Products ----
	g.POST("/products/:id/finalize", o.FinalizeProduct)
	g.POST("/products/:id/delete", o.DeleteProduct)

	// ---- Checkpoints ----
	g.POST("/checkpoints/:id/delete", o.DeleteCheckpoint)

	// ---- Usage ledger ----
	g.GET("/limits", o.CheckLimits)
	g.POST("/promo/redeem", o.RedeemPromo)
}

// RegisterPublic registers the unauthenticated scan-page endpoints. CORS is
// permissive because these are called from arbitrary origins (the scan page
// is opened straight from a QR code). The rate limiter guards the write
// endpoints and the response cache fronts verification; both are no-ops when
// Redis is not configured.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, rateLimit echo.MiddlewareFunc, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", echomw.CORS())
	if rateLimit != nil {
		g.Use(rateLimit)
	}

	if cache != nil {
		g.GET("/verify/:productId", p.VerifyProduct, cache)
	} else {
		g.GET("/verify/:productId", p.VerifyProduct)
	}
	g.POST("/scan/:productId/checkpoints", p.LogCheckpoint)
	g.POST("/claim", p.ClaimPoints)
}
