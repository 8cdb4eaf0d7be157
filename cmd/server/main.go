package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealtrail/internal/config"
	"dealtrail/internal/handlers"
	"dealtrail/internal/middleware"
	"dealtrail/internal/repositories/mongodb"
	"dealtrail/internal/services"
	"dealtrail/internal/utils"
	"dealtrail/pkg/cache"
	"dealtrail/pkg/database"
	"dealtrail/pkg/logger"
	"dealtrail/pkg/maps"
	"dealtrail/pkg/storage"
	"dealtrail/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&logger.Config{
		Level:  logger.LogLevel(cfg.App.LogLevel),
		Format: cfg.App.LogFormat,
		Output: "stdout",
		Colors: config.IsDevelopment(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewMongoDB(&database.DatabaseConfig{
		URI:            cfg.Database.URI,
		Database:       cfg.Database.Database,
		MaxPoolSize:    cfg.Database.MaxPoolSize,
		MinPoolSize:    cfg.Database.MinPoolSize,
		ConnectTimeout: cfg.Database.ConnectTimeout,
		SocketTimeout:  cfg.Database.SocketTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer db.Close()

	if err := database.NewMigrator(db.Database).Up(); err != nil {
		log.WithError(err).Fatal("Failed to run database migrations")
	}

	redisCache, err := cache.NewRedisCache(&cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisCache.Close()

	store := storage.NewRedisStore(redisCache.Client(), cfg.Redis.KeyPrefix)

	// Repositories
	dealRepo := mongodb.NewDealRepository(db.Database)
	vendorRepo := mongodb.NewVendorRepository(db.Database)

	// Directions provider
	var directions maps.DirectionsProvider
	if cfg.Maps.Provider == "google_maps" && cfg.Maps.GoogleMaps.APIKey != "" {
		directions, err = maps.NewGoogleMapsProvider(cfg.Maps.GoogleMaps.APIKey)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Google Maps provider")
		}
	} else {
		directions = maps.NewStraightLineProvider(cfg.Engine.AverageSpeedMph, cfg.Engine.LegTrafficBuffer)
	}

	// Services
	dealCache := services.NewDealCacheService(dealRepo, store, log, cfg.Engine.DealCacheExpiration)
	redemptions := services.NewRedemptionService(store, dealCache, log)
	routePlanner := services.NewRouteService(
		vendorRepo,
		redemptions,
		directions,
		log,
		cfg.Engine.DefaultMaxVendors,
		cfg.Engine.MaxVendorsLimit,
		cfg.Engine.AverageSpeedMph,
	)
	journeys := services.NewJourneyService(store, redemptions, log, cfg.Engine.JourneyTTL, cfg.Engine.JourneyHistoryLimit)
	locationProvider := services.NewStoredLocationProvider(store)
	locations := services.NewLocationService(locationProvider, log, cfg.Engine.LocationFetchTimeout)

	// Warm the deal cache and recover any in-flight journey before serving.
	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if ok := dealCache.Load(startupCtx, false); !ok {
		log.Warn("Deal cache did not load at startup, queries will retry on demand")
	}
	if _, err := journeys.Load(startupCtx); err != nil {
		log.WithError(err).Warn("Failed to restore persisted journey")
	}
	cancel()

	// Handlers
	dealHandler := handlers.NewDealHandler(dealCache)
	routeHandler := handlers.NewRouteHandler(routePlanner, locations)
	journeyHandler := handlers.NewJourneyHandler(journeys, routePlanner, locations)
	redemptionHandler := handlers.NewRedemptionHandler(redemptions)
	locationHandler := handlers.NewLocationHandler(locations, locationProvider)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(log))

	v1 := router.Group("/api/v1")
	{
		routes.SetupDealRoutes(v1, dealHandler)
		routes.SetupRouteRoutes(v1, routeHandler)
		routes.SetupJourneyRoutes(v1, journeyHandler)
		routes.SetupRedemptionRoutes(v1, redemptionHandler)
		routes.SetupLocationRoutes(v1, locationHandler)
	}

	router.GET("/health", func(c *gin.Context) {
		status := "healthy"
		code := http.StatusOK
		if err := db.Ping(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := redisCache.Ping(c.Request.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":       status,
			"version":      utils.AppVersion,
			"cache_loaded": dealCache.IsLoaded(),
		})
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.App.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Forced server shutdown")
	}
}
