package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/vibe-storefront/config"
	"github.com/ikkim/vibe-storefront/internal/app/controller"
	"github.com/ikkim/vibe-storefront/internal/app/repository"
	"github.com/ikkim/vibe-storefront/internal/app/service"
	"github.com/ikkim/vibe-storefront/internal/db"
	"github.com/ikkim/vibe-storefront/internal/middleware"
	"github.com/ikkim/vibe-storefront/internal/router"
	"github.com/ikkim/vibe-storefront/internal/scheduler"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/redis"
	"github.com/ikkim/vibe-storefront/pkg/util"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	format := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		format = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      format,
		EnableColor: true,
	})

	logger.Info("Starting Vibe Commerce backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	database, err := db.Initialize(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(database); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(database); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	passwords := util.NewPasswordHasher(cfg.Password.BcryptCost)

	if cfg.Server.Environment == "development" {
		if err := db.Seed(database, passwords); err != nil {
			logger.Warn("Failed to seed database", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Revoked sessions live in Redis when configured
	blacklist := redis.NewTokenBlacklist(&cfg.Redis)
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize repositories
	userRepo := repository.NewUserRepository(database)
	productRepo := repository.NewProductRepository(database)
	cartRepo := repository.NewCartRepository(database)
	orderRepo := repository.NewOrderRepository(database)

	// Initialize services
	authService := service.NewAuthService(userRepo, blacklist, passwords, cfg.JWT.Secret, cfg.JWT.SessionExpiry)
	productService := service.NewProductService(productRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	checkoutService := service.NewCheckoutService(cartRepo, orderRepo, database)

	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.Session.CookieName)

	// Initialize controllers
	authController := controller.NewAuthController(authService, authMiddleware, controller.SessionCookie{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	})
	productController := controller.NewProductController(productService)
	cartController := controller.NewCartController(cartService, checkoutService)

	cleanup := scheduler.NewCartCleanupScheduler(cartService, cfg.Scheduler.CartCleanupSchedule, cfg.Scheduler.CartTTL)
	if err := cleanup.Start(); err != nil {
		logger.Fatal("Failed to start cart cleanup scheduler", err)
	}
	defer cleanup.Stop()

	r := router.NewRouter(authController, productController, cartController, authMiddleware, cfg)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shut down", err)
	}
	logger.Info("Server stopped successfully")
}
