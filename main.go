package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"streak-challenge-system/config"
	"streak-challenge-system/handlers"
	"streak-challenge-system/middleware"
	"streak-challenge-system/models"
	"streak-challenge-system/services"
	"streak-challenge-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	app := fiber.New()

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Split the comma-separated origins and trim spaces from each
	allowedOriginsList := strings.Split(cfg.AllowedOrigins, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		dialector = postgres.Open(cfg.DatabaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Challenge{},
		&models.ChallengeReward{},
		&models.Bet{},
		&models.BetChallengeLink{},
		&models.Payout{},
		&models.UserBalance{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	paymentClient := services.NewPaymentClient(cfg.PaymentServiceURL, cfg.PaymentServiceToken)

	challengeService := services.NewChallengeService(db, paymentClient)
	betService := services.NewBetService(db)
	settlementService := services.NewSettlementService(db)
	ledgerService := services.NewLedgerService(db)
	payoutService := services.NewPayoutService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Payout progress comes back from the payment rails as a polled event feed
	railsClient := workers.NewPayoutRailsClient(cfg.PaymentServiceURL, cfg.PaymentServiceToken, payoutService)
	go workers.PollPayoutEvents(ctx, railsClient, cfg.PayoutPollInterval)

	challengeService.StartExpiryScheduler()

	// ✅ Setup routes — now with enforced Gateway auth
	handlers.SetupChallengeRoutes(app, challengeService)
	handlers.SetupBetRoutes(app, betService, settlementService)
	handlers.SetupRewardRoutes(app, ledgerService)
	handlers.SetupPayoutRoutes(app, payoutService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Payout event polling running (every %s)", cfg.PayoutPollInterval)
	log.Println("✅ Challenge expiry scheduler running (hourly)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
