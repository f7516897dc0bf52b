package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"council/internal/auth"
	"council/internal/config"
	"council/internal/database"
	"council/internal/handlers"
	"council/internal/jobs"
	"council/internal/notify"
	"council/internal/repository"
	"council/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repository
	repo := repository.NewRepository(database.GetDB())

	// Build the outcome notifier stack from config
	notifiers := []notify.Notifier{notify.NewLogNotifier()}
	if cfg.Notify.RedisURL != "" {
		rdb := notify.MustRedis(cfg.Notify.RedisURL)
		notifiers = append(notifiers, notify.NewRedisNotifier(rdb))
		log.Println("Redis outcome notifier enabled")
	}
	if cfg.Notify.DiscordToken != "" {
		discordNotifier, err := notify.NewDiscordNotifier(cfg.Notify.DiscordToken, cfg.Notify.DiscordChannelID)
		if err != nil {
			log.Fatalf("Failed to start Discord notifier: %v", err)
		}
		defer discordNotifier.Close()
		notifiers = append(notifiers, discordNotifier)
		log.Println("Discord outcome notifier enabled")
	}
	notifier := notify.NewFanout(notifiers...)

	// Initialize services
	initialPool, err := decimal.NewFromString(cfg.App.InitialPoolBalance)
	if err != nil {
		log.Fatalf("Invalid INITIAL_POOL_BALANCE: %v", err)
	}
	treasuryService := services.NewTreasuryService(repo)
	tenantService := services.NewTenantService(repo, initialPool)
	resolver := services.NewSnapshotResolver(services.NewDBRoleDirectory(repo))
	votingService := services.NewVotingService(
		repo,
		resolver,
		notifier,
		treasuryService,
		cfg.Voting.MaxActiveProposals,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.App.TokenIssuerKey)
	tenantHandler := handlers.NewTenantHandler(tenantService)
	proposalHandler := handlers.NewProposalHandler(votingService)

	// Start background jobs
	expiryJob := jobs.NewExpiryJob(votingService, cfg.Voting.ExpiryInterval)
	go expiryJob.Start()

	reminderJob := jobs.NewReminderJob(votingService, cfg.Voting.ReminderInterval, cfg.Voting.ReminderLead)
	go reminderJob.Start()

	// Set up Gin router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/auth/token", authHandler.IssueToken)
		api.POST("/tenants", tenantHandler.RegisterTenant)
		api.GET("/tenants/:id", tenantHandler.GetTenant)
		api.GET("/tenants/:id/proposals", proposalHandler.ListTenantProposals)

		protected := api.Group("")
		protected.Use(auth.AuthMiddleware())
		{
			protected.POST("/tenants/:id/roles", tenantHandler.AddRoleMember)
			protected.DELETE("/tenants/:id/roles", tenantHandler.RemoveRoleMember)
			protected.POST("/proposals", proposalHandler.CreateProposal)
			protected.GET("/proposals/:id", proposalHandler.GetProposal)
			protected.POST("/proposals/:id/votes", proposalHandler.CastVote)
			protected.POST("/proposals/:id/cancel", proposalHandler.CancelProposal)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	expiryJob.Stop()
	reminderJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Forced shutdown: %v", err)
	}

	log.Println("Server stopped")
}
