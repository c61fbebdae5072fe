package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thamerkt/contract-service/config"
	"github.com/thamerkt/contract-service/handler"
	"github.com/thamerkt/contract-service/middleware"
	"github.com/thamerkt/contract-service/pkg/logger"
	"github.com/thamerkt/contract-service/service"
	"github.com/thamerkt/contract-service/worker"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	store := service.NewContractStore(&cfg.Store)
	aggregator := service.NewProfileAggregator(&cfg.Profile, &cfg.Equipment)
	gemini := service.NewGeminiService(&cfg.Gemini)
	signer := service.NewSigningService()

	var images service.ImageStore
	switch cfg.Media.Backend {
	case "minio":
		minioStore, err := service.NewMinioImageStore(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize MINIO image store", "error", err)
			os.Exit(1)
		}
		if err := minioStore.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure MINIO bucket", "error", err)
			os.Exit(1)
		}
		images = minioStore
	default:
		images = service.NewLocalImageStore(&cfg.Media)
	}

	// Start the contract generation worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	consumer := worker.New(&cfg.Broker, aggregator, gemini, store)
	if err := consumer.Start(workerCtx); err != nil {
		slog.Error("failed to start consumer", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	signHandler := handler.NewSignHandler(store, signer, images)
	contractHandler := handler.NewContractHandler(store)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Serve stored signature images when using local media storage
	if cfg.Media.Backend == "local" {
		router.Static(cfg.Media.BaseURL, cfg.Media.Root)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/contracts/sign", signHandler.Sign)
		api.GET("/contracts", contractHandler.List)
		api.GET("/contracts/find", contractHandler.Find)
		api.GET("/contracts/:id", contractHandler.Get)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down...")

	stopWorker()
	consumer.Stop()
	select {
	case <-consumer.Done():
	case <-time.After(5 * time.Second):
		slog.Warn("consumer did not drain in time")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
