package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sushant9818/SmartScheduling/internal/api"
	"github.com/Sushant9818/SmartScheduling/internal/cache"
	"github.com/Sushant9818/SmartScheduling/internal/config"
	"github.com/Sushant9818/SmartScheduling/internal/logging"
	"github.com/Sushant9818/SmartScheduling/internal/repository/mongo"
	"github.com/Sushant9818/SmartScheduling/internal/service"
	"github.com/Sushant9818/SmartScheduling/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @title Smart Scheduling API
// @version 1.0
// @description API for therapist availability, slot discovery and session booking.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		// Logger is not up yet.
		panic("could not load config: " + err.Error())
	}

	logging.Init(cfg.Production)
	defer logging.Sync()
	logger := logging.Get()
	logger.Info("starting scheduling server", zap.String("address", cfg.Server.Address))

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		logger.Fatal("could not connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongo.DisconnectDB(dbClient); err != nil {
			logger.Error("failed to disconnect MongoDB", zap.Error(err))
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	logger.Info("database connection established", zap.String("database", cfg.Database.Name))

	// --- Ensure Indexes ---
	// The partial unique index on sessions is the last line of defense against
	// double booking, so index bootstrap failures are logged loudly.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
			logger.Error("failed to ensure user indexes", zap.Error(err))
		}
		if err := mongo.EnsureTherapistIndexes(ctx, appDB.Collection("therapist_profiles")); err != nil {
			logger.Error("failed to ensure therapist indexes", zap.Error(err))
		}
		if err := mongo.EnsureClientIndexes(ctx, appDB.Collection("client_profiles")); err != nil {
			logger.Error("failed to ensure client indexes", zap.Error(err))
		}
		if err := mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions")); err != nil {
			logger.Error("failed to ensure session indexes", zap.Error(err))
		}
		logger.Info("index bootstrap completed")
	}()

	// --- Slot Cache (optional) ---
	var slotCache *cache.SlotCache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, slot listing will skip the cache", zap.Error(err))
		} else {
			slotCache = cache.NewSlotCache(redisClient, cfg.Redis.SlotTTL)
			defer redisClient.Close()
			logger.Info("slot cache connected", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// --- File Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	therapistRepo := mongo.NewMongoTherapistRepository(appDB)
	clientRepo := mongo.NewMongoClientRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)

	// --- Services ---
	authService := service.NewAuthService(userRepo, therapistRepo, clientRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	therapistService := service.NewTherapistService(therapistRepo)
	clientService := service.NewClientService(clientRepo)
	schedulingService := service.NewSchedulingService(therapistRepo, clientRepo, sessionRepo, slotCache, cfg.Scheduling)
	bookingService := service.NewBookingService(userRepo, therapistRepo, clientRepo, sessionRepo, fileStorage, slotCache)

	// --- Gin Engine ---
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(router, cfg.JWT.Secret, authService, therapistService, clientService, schedulingService, bookingService)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen and serve error", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("address", cfg.Server.Address))

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exiting")
}
