package router

import (
	"context"
	"fmt"
	"net/http"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the full v1 API: database pool, schema migration, S3
// client, optional Pub/Sub publisher, services and handlers.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open the connection pool and migrate the schema.
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.Environment == "development" {
		dsn += "?sslmode=disable"
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("ping db: %w", err)
	}
	logger.Info().Msg("Database connection successful")

	if err := repository.Migrate(ctx, pool); err != nil {
		return nil, nil, fmt.Errorf("migrate schema: %w", err)
	}

	// 2. Initialize S3 client for listing images.
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load S3 config: %w", err)
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher. Events are optional; without a
	// project ID the services run with publishing disabled.
	var events *service.Events
	if cfg.GCPProjectID != "" {
		publisher, err := pubsub.NewPublisher(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, nil, fmt.Errorf("create pub/sub publisher: %w", err)
		}
		events = service.NewEvents(publisher, cfg.ListingEventsTopic, cfg.RewardEventsTopic, logger)
	}

	// 5. Secret Manager backs the payment gateway key in deployed
	// environments.
	var secrets service.SecretManagerService
	if cfg.Environment != "development" && cfg.GatewayKeySecret == "" {
		secrets, err = service.NewSecretManagerService(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("create secret manager service: %w", err)
		}
	}

	// 6. Initialize repositories & services & handlers
	accountRepo := repository.NewAccountRepo(pool)
	listingRepo := repository.NewListingRepo(pool)
	paymentRepo := repository.NewPaymentRepo(pool)

	accountSvc := service.NewAccountService(accountRepo, events, logger)
	walletSvc := service.NewWalletService(accountRepo, logger)
	referralSvc := service.NewReferralService(accountRepo, listingRepo, events, logger)
	planSvc := service.NewPlanService(accountRepo, referralSvc, logger)
	listingSvc := service.NewListingService(listingRepo, accountRepo, referralSvc, events, s3Client, cfg.S3Bucket, logger)
	paymentSvc, err := service.NewPaymentService(ctx, cfg, paymentRepo, planSvc, secrets, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create payment service: %w", err)
	}

	accountHandler := handler.NewAccountHandler(accountSvc, validate)
	listingHandler := handler.NewListingHandler(listingSvc, validate, logger)
	planHandler := handler.NewPlanHandler(planSvc, validate, logger)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, cfg.GatewayKeyID, validate, logger)
	adminHandler := handler.NewAdminHandler(walletSvc, listingSvc, accountRepo, validate, logger)

	// 7. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	adminMiddleware := func(next http.Handler) http.Handler {
		return authMiddleware(middleware.AdminOnly(next))
	}

	// 8. Create ServeMux router with the API mounted under /v1
	mux := http.NewServeMux()
	apiV1Mux := http.NewServeMux()
	accountHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	listingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	planHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	paymentHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	adminHandler.RegisterRoutes(apiV1Mux, adminMiddleware)
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
