package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"basketReco/app/echo-server/metrics"
	"basketReco/app/echo-server/router"
	"basketReco/business/experiment"
	"basketReco/business/reco"
	"basketReco/internal/middleware"
	"basketReco/internal/repository/memory"
	psqlRepo "basketReco/internal/repository/postgres"
	redisRepo "basketReco/internal/repository/redis"
	"basketReco/internal/repository/resilient"
	"basketReco/internal/repository/storefront"
	"basketReco/internal/rest"
	"basketReco/pkg/config"
	"basketReco/pkg/database"
	redisClient "basketReco/pkg/database/redis"
	"basketReco/pkg/logger"
	"basketReco/pkg/utils"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment)
	defer logger.Sync()
	logger.Info("Starting Basket Reco", "version", cfg.App.Version)

	utils.SetJWTSecret(cfg.JWT.SecretKey)
	metrics.Init()

	db, err := database.InitPostgres(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}

	logger.Info("Database connected successfully")

	breakerSettings := resilient.Settings{
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}

	// Init repo
	settingsRepo := psqlRepo.NewSettingsRepository(db)
	ordersRepo := psqlRepo.NewOrdersRepository(db)
	productRepo := psqlRepo.NewProductRepository(db)
	eventRepo := psqlRepo.NewEventRepository(db)
	experimentRepo := psqlRepo.NewExperimentRepository(db)

	var availability reco.AvailabilityRepository = productRepo
	if cfg.Storefront.AvailabilityBackend == config.AvailabilityStorefront {
		availability = storefront.NewStorefrontRepository(storefront.StorefrontConfig{
			BaseURL:     cfg.Storefront.BaseURL,
			AccessToken: cfg.Storefront.AccessToken,
			APIKey:      cfg.Storefront.APIKey,
			APIVersion:  cfg.Storefront.APIVersion,
			Timeout:     cfg.Reco.UpstreamTimeout,
		})
	}

	var cache reco.ResultCache
	switch cfg.Reco.CacheBackend {
	case config.CacheBackendRedis:
		rdb, err := redisClient.NewRedisClient(context.Background(), cfg)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer func() {
			if err := redisClient.CloseRedisClient(rdb); err != nil {
				logger.Error("Redis close error", "error", err)
			}
		}()
		cache = redisRepo.NewResultCacheRepository(rdb)
	default:
		cache = memory.NewResultCache(0, nil)
	}

	// Init service
	experimentService := experiment.NewService(experimentRepo, experimentRepo, cfg.Reco.HashSeed, nil)

	defaults := reco.DefaultSettings()
	defaults.OrderWindow = cfg.Reco.OrderWindow
	defaults.HalfLifeDays = cfg.Reco.HalfLifeDays

	recoService := reco.NewRecommendationService(
		settingsRepo,
		resilient.NewOrderHistory(ordersRepo, breakerSettings),
		resilient.NewAvailability(availability, breakerSettings),
		eventRepo,
		productRepo,
		experimentService,
		cache,
		reco.Options{
			CacheTTL:             cfg.Reco.CacheTTL,
			UpstreamTimeout:      cfg.Reco.UpstreamTimeout,
			AnalysisHalfLifeDays: cfg.Reco.AnalysisHalfLifeDays,
			Defaults:             defaults,
		},
	)

	// Init handler
	recoHandler := rest.NewRecommendationHandler(recoService)
	eventHandler := rest.NewEventHandler(eventRepo, cfg.Reco.UpstreamTimeout)
	experimentHandler := rest.NewExperimentHandler(experimentService)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.TraceID())
	e.Use(echomiddleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	limiter := echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStore(rate.Limit(cfg.Server.RateLimitPerIP)))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetRecommendationRoutes(api, recoHandler, limiter)
	router.SetEventRoutes(api, eventHandler)
	router.SetExperimentRoutes(api, experimentHandler)
	router.SetAdminRoutes(api, recoHandler, experimentHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}
