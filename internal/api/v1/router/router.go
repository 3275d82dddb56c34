package router

import (
	"context"
	"net/http"
	"strings"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/pgmq"
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

func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	// 1. Open DB connection pool
	dsn := cfg.DBConnectionString
	// In a development environment, ensure SSL is disabled for local
	// testing. In production the connection string carries its own SSL
	// settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		dsn = appendDSNParam(dsn, "sslmode=disable")
	}
	// For non-development environments behind a transaction pooler like
	// pgbouncer, use the simple query protocol to avoid issues with
	// server-side prepared statements.
	if cfg.Environment != "development" && !strings.Contains(dsn, "default_query_exec_mode") {
		dsn = appendDSNParam(dsn, "default_query_exec_mode=simple_protocol")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create DB pool")
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	// 2. Resolve machine secrets from Secret Manager when not set directly
	if err := resolveSharedSecrets(ctx, cfg, logger); err != nil {
		return nil, nil, err
	}

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize repositories & services
	queueClient := pgmq.New(pool)
	usageRepo := repository.NewUsageRepo(pool)
	costRepo := repository.NewCostRepo(pool)

	usageSvc := service.NewUsageService(usageRepo, logger)
	resetSvc := service.NewResetService(usageRepo, logger)
	costSvc := service.NewCostService(costRepo, queueClient, cfg.CostRetryQueueName, logger)

	var reportSvc service.ReportService
	if cfg.S3Bucket != "" {
		s3Client, err := newS3Client(ctx, cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize S3 client")
			return nil, nil, err
		}
		reportSvc = service.NewReportService(costSvc, s3Client, cfg.S3Bucket, cfg.S3ReportPrefix, logger)
	} else {
		logger.Warn().Msg("S3 bucket not configured; cost report export disabled")
	}

	// 5. Admin predicate, built here so no service embeds an admin list
	isAdmin := newAdminChecker(cfg.AdminUserIDs)

	// 6. Handlers
	usageHandler := handler.NewUsageHandler(usageSvc, logger)
	costHandler := handler.NewCostHandler(costSvc, reportSvc, isAdmin, validate, logger)
	cronHandler := handler.NewCronHandler(resetSvc, logger)
	meterHandler := handler.NewMeterHandler(usageSvc, costSvc, validate, logger)

	// 7. Middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTKeyMaterial, logger)
	cronMiddleware := middleware.SharedSecretMiddleware(cfg.CronSecret, logger)
	internalMiddleware := middleware.SharedSecretMiddleware(cfg.InternalAPISecret, logger)

	// 8. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	usageHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	costHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	cronHandler.RegisterRoutes(apiV1Mux, cronMiddleware)
	meterHandler.RegisterRoutes(apiV1Mux, internalMiddleware)
	apiV1Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}

func appendDSNParam(dsn, param string) string {
	separator := " "
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		separator = "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
	}
	return dsn + separator + param
}

// resolveSharedSecrets fills CronSecret and InternalAPISecret from Secret
// Manager when only the secret names are configured.
func resolveSharedSecrets(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	needsCron := cfg.CronSecret == "" && cfg.CronSecretName != ""
	needsInternal := cfg.InternalAPISecret == "" && cfg.InternalAPISecretName != ""
	if !needsCron && !needsInternal {
		return nil
	}

	resolver, err := service.NewSecretResolver(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create secret resolver")
		return err
	}
	if needsCron {
		if cfg.CronSecret, err = resolver.Resolve(ctx, cfg.CronSecretName); err != nil {
			logger.Error().Err(err).Str("secret", cfg.CronSecretName).Msg("Failed to resolve cron secret")
			return err
		}
	}
	if needsInternal {
		if cfg.InternalAPISecret, err = resolver.Resolve(ctx, cfg.InternalAPISecretName); err != nil {
			logger.Error().Err(err).Str("secret", cfg.InternalAPISecretName).Msg("Failed to resolve internal API secret")
			return err
		}
	}
	return nil
}

func newAdminChecker(adminIDs []string) handler.IsAdminFunc {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}
	return func(userID string) bool {
		_, ok := admins[userID]
		return ok
	}
}

func newS3Client(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(s3Config, func(o *s3.Options) {
		if cfg.S3URL != "" {
			o.BaseEndpoint = aws.String(cfg.S3URL)
			o.UsePathStyle = true
		}
	}), nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
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
