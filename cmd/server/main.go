package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"charter_backoffice/internal/config"
	"charter_backoffice/internal/handlers"
	authMiddleware "charter_backoffice/internal/middleware"
	"charter_backoffice/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using system environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	authClient, err := services.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
	if err != nil {
		logrus.Warnf("Firebase initialization failed: %v", err)
		logrus.Warn("Auth features will not work until valid credentials are provided")
	}

	if cfg.DatabaseURL == "" {
		logrus.Fatal("DATABASE_URL is required")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		logrus.Fatalf("Failed to run database migrations: %v", err)
	}

	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			logrus.Warnf("Redis initialization failed, read caching disabled: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	var provider services.PaymentProvider
	if stripeSvc := services.NewStripeService(cfg); stripeSvc != nil {
		provider = stripeSvc
	} else {
		logrus.Warn("STRIPE_SECRET_KEY not set, payment link issuing disabled")
	}

	emailSvc := services.NewEmailService(cfg)
	if !emailSvc.Configured() {
		logrus.Warn("SMTP not configured, confirmation emails will fail")
	}

	bookingSvc := services.NewBookingService(db)
	linkSvc := services.NewPaymentLinkService(services.NewGormLinkStore(db), provider, bookingSvc)
	confirmationSvc := services.NewConfirmationService(services.NewGormConfirmationStore(db), emailSvc)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = authMiddleware.CustomErrorHandler
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	linkHandler := handlers.NewPaymentLinkHandler(db, cache, linkSvc, cfg)
	bookingHandler := handlers.NewBookingHandler(db, bookingSvc, confirmationSvc)
	webhookHandler := handlers.NewWebhookHandler(db, linkSvc, cfg)

	// Webhook ingress authenticates by signature, not by session.
	e.POST("/webhooks/stripe", webhookHandler.StripeWebhook)

	api := e.Group("/api")
	api.Use(authMiddleware.RequireAuth(authClient))

	api.GET("/bookings", bookingHandler.ListBookings)
	api.GET("/bookings/:id", bookingHandler.GetBooking)
	api.GET("/payment-links/:id", linkHandler.GetPaymentLink)

	staff := api.Group("")
	staff.Use(authMiddleware.RequireRole("staff", "admin"))

	staff.POST("/bookings", bookingHandler.CreateBooking)
	staff.PUT("/bookings/:id/payments", bookingHandler.UpdateBookingPayments)
	staff.POST("/bookings/:id/confirmation", bookingHandler.SendConfirmation)
	staff.POST("/payment-links", linkHandler.CreatePaymentLink)

	logrus.Infof("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
