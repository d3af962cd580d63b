package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"eco-challenge-system/handlers"
	"eco-challenge-system/middleware"
	"eco-challenge-system/models"
	"eco-challenge-system/services"
	"eco-challenge-system/utils"
	"eco-challenge-system/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB — evidence photos only
	})

	// 🔐❗ GLOBAL: Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	// Load allowed origins from environment variable
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-User-ID, X-User-Roles, X-Service-Token",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	// R2 is optional: without it, evidence photos land under ./uploads
	if os.Getenv("R2_ACCESS_KEY_ID") != "" {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
	} else {
		log.Println("⚠️  R2 not configured — storing evidence photos locally")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Challenge{},
		&models.ChallengeCompletion{},
		&models.EvidenceSubmission{},
		&models.EcoProfile{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.ChatExchange{},
		&models.LearningModule{},
		&models.LessonProgress{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDir(); err != nil {
		log.Fatal("failed to ensure upload dir:", err)
	}

	// --- External collaborators ---
	verifierURL := os.Getenv("VERIFIER_SERVICE_URL")
	if verifierURL == "" {
		log.Fatal("VERIFIER_SERVICE_URL environment variable not set")
	}
	assistantURL := os.Getenv("ASSISTANT_SERVICE_URL")
	if assistantURL == "" {
		log.Fatal("ASSISTANT_SERVICE_URL environment variable not set")
	}
	profileServiceURL := os.Getenv("PROFILE_SYNC_URL")
	if profileServiceURL == "" {
		log.Fatal("PROFILE_SYNC_URL environment variable not set")
	}
	ecoServiceToken := os.Getenv("ECO_SERVICE_TOKEN")
	if ecoServiceToken == "" {
		log.Fatal("ECO_SERVICE_TOKEN environment variable not set")
	}

	verifierClient := services.NewVerifierClient(verifierURL, os.Getenv("VERIFIER_SERVICE_TOKEN"))
	assistantClient := services.NewAssistantClient(assistantURL, os.Getenv("ASSISTANT_SERVICE_TOKEN"))
	profileClient := services.NewProfileServiceClient(profileServiceURL, ecoServiceToken)

	catalogService := services.NewCatalogService(db)
	ledgerService := services.NewLedgerService(db, verifierClient, utils.StoreEvidence)
	badgeService := services.NewBadgeService(db)
	chatService := services.NewChatService(db, assistantClient)
	leaderboardService := services.NewLeaderboardService(db)
	learningService := services.NewLearningService(db, ledgerService)

	if err := catalogService.SeedChallenges(); err != nil {
		log.Fatal("failed to seed challenge catalog:", err)
	}
	if err := badgeService.SeedBadgeTypes(); err != nil {
		log.Fatal("failed to seed badge types:", err)
	}
	if err := learningService.SeedModules(); err != nil {
		log.Fatal("failed to seed learning modules:", err)
	}

	syncWorker := workers.NewProfileSyncWorker(db, profileServiceURL, "/api/v1/public/profiles", ecoServiceToken)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("Starting Profile Sync Worker...")
		syncWorker.Start(ctx)
	}()

	services.StartRefreshScheduler(db)

	// ✅ Setup routes — enforced Gateway auth on everything
	handlers.SetupChallengeRoutes(app, catalogService, ledgerService)
	handlers.SetupChatRoutes(app, chatService)
	handlers.SetupProfileRoutes(app, ledgerService, badgeService, leaderboardService, profileClient)
	handlers.SetupLearningRoutes(app, learningService)

	app.Static("/uploads", "./uploads")

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Server running on http://localhost:5300")
	log.Println("✅ Profile Sync Worker running")
	log.Println("✅ Refresh scheduler running (participant counts + ranks, every 1m)")
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
