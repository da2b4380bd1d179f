package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/config"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/database"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/handler"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/middleware"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/pin"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/queue"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/repository"
	"github.com/BizTrackxrp/Biztrack.xrp-sub000/internal/router"
)

const defaultPinEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(db); err != nil {
		log.Fatalf("database: ensure schema: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis: not configured, rate limiting and response caching disabled")
	}

	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	scanRepo := repository.NewScanRepo(db)
	claimRepo := repository.NewClaimRepo(db)
	promoRepo := repository.NewPromoRepo(db)

	var pinner pin.Pinner = pin.Disabled{}
	if cfg.PinAPIKey != "" {
		apiURL := cfg.PinAPIURL
		if apiURL == "" {
			apiURL = defaultPinEndpoint
		}
		pinner = pin.NewHTTPPinner(apiURL, cfg.PinAPIKey, cfg.PinGateway)
	} else {
		log.Printf("pin: no PIN_API_KEY set, qr codes will not be pinned")
	}

	owner := handler.NewOwnerHandler(userRepo, productRepo, batchRepo, scanRepo, promoRepo, pinner, cfg.ScanBaseURL)
	public := handler.NewPublicHandler(userRepo, productRepo, scanRepo, claimRepo, pinner)

	e := echo.New()
	e.HideBanner = true

	router.RegisterRoutes(e)
	router.RegisterOwner(e, owner, cfg.JWTSecret)
	router.RegisterPublic(e, public,
		middleware.NewRateLimiter(config.LoadRateLimitConfig(), rdb),
		middleware.NewResponseCache(config.LoadCacheConfig(), rdb),
	)

	// Audit consumer for finalized products; runs its own reconnect loop.
	go func() {
		if err := queue.StartFinalizedConsumer(); err != nil {
			log.Printf("finalized-consumer: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
