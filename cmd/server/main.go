package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hopefoundation/backend/internal/config"
	"github.com/hopefoundation/backend/internal/database"
	"github.com/hopefoundation/backend/internal/handlers"
	mW "github.com/hopefoundation/backend/internal/middleware"
	"github.com/hopefoundation/backend/internal/services"
	"github.com/spf13/viper"
)

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env
	viper.ReadInConfig()        // read .env file

	// Set environment variable prefix
	viper.SetEnvPrefix("")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize services
	db := database.InitDatabase()
	defer db.Close()

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	donationCfg := config.LoadDonationConfig()
	financeCfg := config.LoadFinanceConfig()
	notifyCfg := config.LoadNotifyConfig()

	donationService := services.NewDonationService(db, redisClient, donationCfg, notifyCfg)
	feeService := services.NewFeeService(db, redisClient, donationCfg, notifyCfg)
	financeService := services.NewFinanceService(db, financeCfg)
	walletService := services.NewWalletService(donationCfg)
	remittanceService := services.NewRemittanceService(db)
	authService := services.NewAuthService(db, redisClient)
	communityService := services.NewCommunityService(db, redisClient, donationCfg)
	communityHandler := handlers.NewCommunityHandler(communityService)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Static file server for campaign images
	r.Handle("/static/campaign-images/*", http.StripPrefix("/static/campaign-images/",
		mW.StaticFileServer("./static/campaign-images")))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/donations", donationService.SubmitDonation)
		r.Get("/donations/{reference}", donationService.GetDonation)

		r.Post("/fees", feeService.SubmitFee)
		r.Get("/fees/verify/{receiptCode}", feeService.VerifyFee)

		r.Get("/financial/overview", financeService.GetOverview)
		r.Get("/financial/transparency", financeService.GetTransparency)
		r.Get("/financial/campaigns", financeService.GetCampaigns)
		r.Post("/financial/impact-calculator", financeService.CalculateImpact)

		r.Get("/payment-methods", walletService.GetPaymentMethods)
		r.Get("/payment-methods/{method}/qr", walletService.GetWalletQR)

		r.Post("/contact", communityHandler.SubmitContact)
		r.Post("/newsletter/subscribe", communityHandler.Subscribe)
		r.Get("/newsletter/unsubscribe/{token}", communityHandler.Unsubscribe)

		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/account", authService.GetUserAccount)

			// Staff-only endpoints (admin role required)
			r.Group(func(r chi.Router) {
				r.Use(mW.AdminOnly)

				r.Get("/donations", donationService.ListDonations)
				r.Get("/fees", feeService.ListFees)
				r.Get("/remittance/{reference}", remittanceService.ExportRemittance)
			})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
