package main

import (
	"database/sql"
	"flag"
	"log"
	"net/http"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	httpapi "clubhub-backend/internal/api/http"
	"clubhub-backend/internal/config"
	"clubhub-backend/internal/email"
	"clubhub-backend/internal/events"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/ratelimit"
	"clubhub-backend/internal/repository/postgres"
	"clubhub-backend/internal/security"
	"clubhub-backend/internal/service"
	"clubhub-backend/internal/storage"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ClubHub API server...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)

	// Rate limiter. Redis being down fails open in the middleware.
	var limiter *ratelimit.Limiter
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		limiter = ratelimit.NewLimiter(redisClient, cfg.RateLimit.WindowSeconds, cfg.RateLimit.MaxRequests)
		logger.Info("Rate limiter enabled", "window_seconds", cfg.RateLimit.WindowSeconds, "max_requests", cfg.RateLimit.MaxRequests)
	} else {
		logger.Warn("Redis not configured, rate limiting disabled")
	}

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.MembershipTopic)
	defer producer.Close()

	var emailSender service.EmailSender = email.NoopSender{}
	if cfg.Email.APIKey != "" {
		emailSender = email.NewSender(cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromEmail)
		logger.Info("Email notifications enabled", "from", cfg.Email.FromEmail)
	} else {
		logger.Warn("SendGrid not configured, email notifications disabled")
	}

	var receiptStore storage.ReceiptStore
	if cfg.Storage.ReceiptsDir != "" {
		receiptStore, err = storage.NewLocalStore(cfg.Storage.BaseURL, cfg.Storage.ReceiptsDir)
		if err != nil {
			logger.Error("Failed to initialize receipt storage", "error", err)
			log.Fatalf("Failed to initialize receipt storage: %v", err)
		}
		logger.Info("Receipt storage enabled", "dir", cfg.Storage.ReceiptsDir)
	} else {
		logger.Warn("Receipt storage not configured, receipt uploads disabled")
	}

	auditor := service.NewAuditor(store.AuditLogRepository)
	guard := service.NewEligibilityService(
		store.EventRepository,
		store.UserRepository,
		store.RSVPRepository,
		store.OrderRepository,
		store.MembershipRepository,
	)
	admissionSvc := service.NewAdmissionService(
		guard,
		store.EventRepository,
		store.RSVPRepository,
		store.OrderRepository,
		store.TicketRepository,
		store.MembershipRepository,
		store.UserRepository,
		producer,
		emailSender,
		auditor,
	)
	approvalSvc := service.NewApprovalService(
		store.ApprovalRequestRepository,
		store.ClubRepository,
		store.UserRepository,
		auditor,
	)
	clubSvc := service.NewClubService(
		store.ClubRepository,
		store.MembershipRepository,
		producer,
		auditor,
	)
	membershipSvc := service.NewMembershipService(
		store.MembershipRepository,
		store.ClubRepository,
		store.UserRepository,
		producer,
		emailSender,
		auditor,
	)
	eventSvc := service.NewEventService(
		store.EventRepository,
		store.ClubRepository,
		store.MembershipRepository,
		store.UserRepository,
		auditor,
	)
	authSvc := service.NewAuthService(
		store.UserRepository,
		store.ClaimsRepository,
		tokenManager,
		auditor,
	)

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Tokens:     tokenManager,
		Limiter:    limiter,
		Receipts:   receiptStore,
		Auth:       authSvc,
		Guard:      guard,
		Admission:  admissionSvc,
		Clubs:      clubSvc,
		Membership: membershipSvc,
		Approvals:  approvalSvc,
		Events:     eventSvc,
	})

	logger.Info("HTTP server listening", "address", cfg.GetServerAddress())
	if err := http.ListenAndServe(cfg.GetServerAddress(), router); err != nil {
		logger.Error("HTTP server error", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
}
