package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kodisha/kodisha-api/internal/application/service"
	"github.com/kodisha/kodisha-api/internal/config"
	"github.com/kodisha/kodisha-api/internal/infrastructure/database"
	"github.com/kodisha/kodisha-api/internal/infrastructure/event"
	"github.com/kodisha/kodisha-api/internal/infrastructure/repository"
	"github.com/kodisha/kodisha-api/internal/presentation/http/handler"
	"github.com/kodisha/kodisha-api/internal/presentation/http/routes"
	"github.com/kodisha/kodisha-api/pkg/email"
	"github.com/kodisha/kodisha-api/pkg/mpesa"
	"github.com/kodisha/kodisha-api/pkg/utils"
	"github.com/rs/zerolog"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Structured logging
	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", cfg.App.Name).
		Logger()
	if cfg.App.Debug {
		logger = logger.Level(zerolog.DebugLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Seed default data
	if err := database.SeedDefaultData(db); err != nil {
		logger.Warn().Err(err).Msg("failed to seed default data")
	}

	// Initialize JWT manager
	jwtManager := utils.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.ExpiryHours,
		cfg.JWT.RefreshExpiryHours,
	)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	leaseRepo := repository.NewLeaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)
	txManager := repository.NewTxManager(db)

	// Post-commit billing events
	publisher := event.NewLogPublisher(logger)

	// Email is optional: without an SMTP host receipts are simply not sent
	var mailer *email.EmailService
	if cfg.Email.SMTPHost != "" {
		mailer = email.NewEmailService(email.EmailConfig{
			SMTPHost:     cfg.Email.SMTPHost,
			SMTPPort:     cfg.Email.SMTPPort,
			SMTPUsername: cfg.Email.SMTPUsername,
			SMTPPassword: cfg.Email.SMTPPassword,
			FromName:     cfg.Email.FromName,
			FromEmail:    cfg.Email.FromEmail,
			FrontendURL:  cfg.Email.FrontendURL,
		})
	}

	// M-Pesa transaction verification is optional as well
	var verifier mpesa.Verifier
	if cfg.Mpesa.ConsumerKey != "" && cfg.Mpesa.ConsumerSecret != "" {
		verifier = mpesa.NewClient(context.Background(), mpesa.Config{
			ConsumerKey:    cfg.Mpesa.ConsumerKey,
			ConsumerSecret: cfg.Mpesa.ConsumerSecret,
			BaseURL:        cfg.Mpesa.BaseURL,
			ShortCode:      cfg.Mpesa.ShortCode,
		})
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, roleRepo, jwtManager)
	companyService := service.NewCompanyService(companyRepo, userRepo, txManager)
	propertyService := service.NewPropertyService(propertyRepo, unitRepo)
	tenantService := service.NewTenantService(tenantRepo, leaseRepo)
	leaseService := service.NewLeaseService(leaseRepo, tenantRepo, unitRepo, txManager)
	numberingService := service.NewNumberingService(sequenceRepo, companyRepo)
	reconciliationService := service.NewReconciliationService(invoiceRepo, paymentRepo, txManager, publisher, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, tenantRepo, companyRepo, numberingService, txManager, publisher)
	paymentService := service.NewPaymentService(paymentRepo, tenantRepo, companyRepo, numberingService, reconciliationService, txManager, publisher, mailer, verifier, logger)
	sweepService := service.NewSweepService(invoiceRepo, reconciliationService, publisher, logger)
	userService := service.NewUserService(userRepo, roleRepo, permissionRepo)

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Company:  handler.NewCompanyHandler(companyService),
		Property: handler.NewPropertyHandler(propertyService),
		Tenant:   handler.NewTenantHandler(tenantService),
		Lease:    handler.NewLeaseHandler(leaseService),
		Invoice:  handler.NewInvoiceHandler(invoiceService, paymentService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Sweep:    handler.NewSweepHandler(sweepService),
		User:     handler.NewUserHandler(userService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		Logger:          logger,
		CompanyRepo:     companyRepo,
		IdempotencyRepo: idempotencyRepo,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	logger.Info().
		Str("port", port).
		Str("env", cfg.App.Env).
		Msg("starting server")

	if err := router.Run(":" + port); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}
}
