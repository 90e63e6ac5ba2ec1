package main

import (
	"log"
	"time"

	"restaurant_orders/internal/config"
	"restaurant_orders/internal/database"
	"restaurant_orders/internal/handlers"
	"restaurant_orders/internal/redis"
	"restaurant_orders/internal/repository"
	"restaurant_orders/internal/services"
	"restaurant_orders/pkg/pix"
	"restaurant_orders/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}

	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		logger.Fatalw("failed to connect to Redis", "error", err)
	}
	defer redisClient.Close()

	pixClient := pix.NewClient(
		cfg.PixAPIURL, cfg.PixAPIKey, cfg.PixKey,
		cfg.PixMerchantName, cfg.PixMerchantCity,
		time.Duration(cfg.PixExpirationMinutes)*time.Minute,
		time.Duration(cfg.PixTimeoutSeconds)*time.Second,
	)

	// The notifier is either configured or a no-op, decided once here.
	var notifier services.Notifier = services.NoopNotifier{}
	if cfg.WhatsAppEnabled && cfg.WhatsAppAPIURL != "" {
		whatsappClient := whatsapp.NewClient(cfg.WhatsAppAPIURL, cfg.WhatsAppUsername, cfg.WhatsAppPassword, cfg.WhatsAppPath)
		notifier = services.NewWhatsAppNotifier(whatsappClient, cfg.RestaurantWhatsApp, cfg.RestaurantName, logger)
		logger.Info("whatsapp notifications enabled")
	} else {
		logger.Info("whatsapp notifications disabled")
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	plateRepo := repository.NewPlateRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	loyaltyRepo := repository.NewLoyaltyRepository(db)
	orderRepo := repository.NewOrderRepository(db, couponRepo, loyaltyRepo)

	// Services
	userService := services.NewUserService(userRepo)
	addressService := services.NewAddressService(addressRepo)
	couponService := services.NewCouponService(couponRepo, redisClient, time.Duration(cfg.CouponCacheTTL)*time.Second, logger)
	loyaltyService := services.NewLoyaltyService(loyaltyRepo, logger)
	orderService := services.NewOrderService(orderRepo, plateRepo, addressRepo, userRepo, couponService, pixClient, notifier, cfg, logger)
	paymentService := services.NewPaymentService(orderRepo, pixClient, notifier, logger)

	// Handlers
	userHandler := handlers.NewUserHandler(userService, logger)
	addressHandler := handlers.NewAddressHandler(addressService, logger)
	orderHandler := handlers.NewOrderHandler(orderService, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, logger)
	couponHandler := handlers.NewCouponHandler(couponService, logger)
	loyaltyHandler := handlers.NewLoyaltyHandler(loyaltyService, logger)

	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/users", userHandler.Register)
		api.POST("/users/login", userHandler.Login)
		api.GET("/users/me", userHandler.Me)
		api.PUT("/users/me", userHandler.UpdateMe)

		api.POST("/addresses", addressHandler.Create)
		api.GET("/addresses", addressHandler.List)
		api.DELETE("/addresses/:id", addressHandler.Delete)

		api.POST("/orders", orderHandler.Create)
		api.GET("/orders", orderHandler.List)
		api.GET("/orders/:id", orderHandler.Show)
		api.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
		api.DELETE("/orders/:id", orderHandler.Cancel)
		api.GET("/orders/payment-status/:status", paymentHandler.ListByStatus)

		api.POST("/payments/confirm/:id", paymentHandler.Confirm)
		api.PATCH("/payments/reject/:id", paymentHandler.Reject)
		api.GET("/payments/pending", paymentHandler.ListPending)
		api.GET("/payments/history", paymentHandler.History)

		api.POST("/coupons", couponHandler.Create)
		api.GET("/coupons", couponHandler.List)
		api.GET("/coupons/:id", couponHandler.Show)
		api.POST("/coupons/validate", couponHandler.Validate)
		api.PUT("/coupons/:id", couponHandler.Update)
		api.DELETE("/coupons/:id", couponHandler.Deactivate)
		api.GET("/coupons/:id/statistics", couponHandler.Statistics)

		api.GET("/loyalty", loyaltyHandler.Balance)
		api.POST("/loyalty/redeem", loyaltyHandler.Redeem)
		api.POST("/loyalty/add", loyaltyHandler.AdminAdjust)
		api.GET("/loyalty/accounts", loyaltyHandler.ListAccounts)
	}

	logger.Infow("server starting", "port", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logger.Fatalw("failed to start server", "error", err)
	}
}
