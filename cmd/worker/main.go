// The worker consumes the trigger bus (order transitions, membership
// changes) and runs the scheduled maintenance jobs. It shares the
// service layer with the API server; the issuance and claims-sync
// steps it drives are idempotent, so redelivery is safe.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/lib/pq"

	"clubhub-backend/internal/claims"
	"clubhub-backend/internal/config"
	"clubhub-backend/internal/email"
	"clubhub-backend/internal/events"
	"clubhub-backend/internal/jobs"
	"clubhub-backend/internal/logger"
	"clubhub-backend/internal/repository/postgres"
	"clubhub-backend/internal/scheduler"
	"clubhub-backend/internal/service"
)

func main() {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'expire-stale-orders', 'all')")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting ClubHub worker...", "log_level", cfg.Log.Level)

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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
	auditor := service.NewAuditor(store.AuditLogRepository)

	var emailSender service.EmailSender = email.NoopSender{}
	if cfg.Email.APIKey != "" {
		emailSender = email.NewSender(cfg.Email.APIKey, cfg.Email.FromName, cfg.Email.FromEmail)
	}

	var claimsPublisher claims.Publisher
	if cfg.Firebase.CredentialsFile != "" {
		claimsPublisher, err = claims.NewFirebasePublisher(context.Background(), cfg.Firebase.CredentialsFile, cfg.Firebase.ProjectID)
		if err != nil {
			logger.Error("Failed to initialize firebase claims publisher", "error", err)
			log.Fatalf("Failed to initialize firebase claims publisher: %v", err)
		}
		logger.Info("Firebase claims mirroring enabled", "project_id", cfg.Firebase.ProjectID)
	} else {
		logger.Warn("Firebase not configured, claims stay database-only")
	}

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.MembershipTopic)
	defer producer.Close()

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
	claimsSyncSvc := service.NewClaimsSyncService(
		store.MembershipRepository,
		store.UserRepository,
		store.ClaimsRepository,
		claimsPublisher,
		auditor,
	)

	jobRunner := jobs.NewJobRunner(
		store.OrderRepository,
		store.RSVPRepository,
		claimsSyncSvc,
		auditor,
		cfg,
	)

	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	cronScheduler := scheduler.NewScheduler(jobRunner)
	cronScheduler.Start()

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.MembershipTopic, cfg.Kafka.ConsumerGroup)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		consumer.RunOrders(ctx, admissionSvc.HandleOrderStatusChanged)
	}()
	go func() {
		defer wg.Done()
		consumer.RunMemberships(ctx, claimsSyncSvc.HandleMembershipChanged)
	}()
	logger.Info("Worker is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down worker...")
	cancel()
	if err := consumer.Close(); err != nil {
		logger.Error("Failed to close consumer", "error", err)
	}
	wg.Wait()
	cronScheduler.Stop()
	logger.Info("Worker stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits.
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "expire-stale-orders":
		jobRunner.ExpireStaleOrders()
	case "reconcile-rsvps":
		jobRunner.ReconcileRSVPs()
	case "resync-claims":
		jobRunner.ResyncClaims()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		log.Printf("Available jobs:\n")
		log.Printf("  - expire-stale-orders\n")
		log.Printf("  - reconcile-rsvps\n")
		log.Printf("  - resync-claims\n")
		log.Printf("  - all\n")
		os.Exit(1)
	}
}
