package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/whop"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the full HTTP surface and returns the handler together with
// the database pool so the caller can close it on shutdown.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection pool
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		dsn += "?sslmode=disable"
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create DB pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	logger.Info().Msg("Database connection successful")

	// 2. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 3. Resolve the webhook secret, optionally from Secret Manager
	webhookSecret := cfg.WhopWebhookSecret
	if webhookSecret == "" && cfg.WebhookSecretName != "" {
		sm, err := service.NewSecretManagerService(context.Background(), cfg)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to create secret manager client: %w", err)
		}
		webhookSecret, err = sm.AccessSecret(context.Background(), cfg.WebhookSecretName)
		sm.Close()
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to fetch webhook secret: %w", err)
		}
		logger.Info().Str("secret", cfg.WebhookSecretName).Msg("Webhook secret loaded from Secret Manager")
	}

	// 4. Whop platform client
	whopClient := whop.NewClient(cfg, logger)

	// 5. Repositories, services, handlers
	pollRepo := repository.NewPollRepo(pool)
	voteRepo := repository.NewVoteRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	notifRepo := repository.NewNotificationRepo(pool)

	usageSvc := service.NewUsageService(pollRepo, subRepo, cfg.MaxFreePolls, logger)
	pollSvc := service.NewPollService(pollRepo, usageSvc, whopClient, logger)
	voteSvc := service.NewVoteService(voteRepo, pollRepo, logger)
	subSvc := service.NewSubscriptionService(subRepo, logger)
	notifSvc := service.NewNotificationService(notifRepo, whopClient, cfg.ExcludeCreatorFromNotification, logger)
	webhookSvc := service.NewWebhookService(webhookSecret, subSvc, logger)

	pollHandler := handler.NewPollHandler(pollSvc, voteSvc, notifSvc, validate, logger)
	subHandler := handler.NewSubscriptionHandler(usageSvc, logger)
	webhookHandler := handler.NewWebhookHandler(webhookSvc)

	// 6. Middleware
	authMiddleware := middleware.AuthMiddleware(whopClient)

	// 7. ServeMux with the API mounted under /v1
	apiV1Mux := http.NewServeMux()
	pollHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	subHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	webhookHandler.RegisterRoutes(apiV1Mux)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// 8. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}
