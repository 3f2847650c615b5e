package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"app/internal/config"
	"app/internal/logger"
	"app/internal/model"
	"app/internal/pubsub"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/whop"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// lifecycleEvent is published to Pub/Sub for every poll a sweep flips.
type lifecycleEvent struct {
	Action    string    `json:"action"`
	PollID    string    `json:"poll_id"`
	Question  string    `json:"question"`
	CompanyID string    `json:"company_id"`
	ExpiresAt time.Time `json:"expires_at"`
	SweptAt   time.Time `json:"swept_at"`
}

func main() {
	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if cfg.Environment == "development" {
		dsn += "?sslmode=disable"
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Fatal().Msgf("Failed to create DB pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal().Msgf("Failed to ping DB: %v", err)
	}
	logger.Info().Msg("Database connection established")

	pollRepo := repository.NewPollRepo(pool)
	subRepo := repository.NewSubscriptionRepo(pool)
	notifRepo := repository.NewNotificationRepo(pool)

	whopClient := whop.NewClient(cfg, logger)
	usageSvc := service.NewUsageService(pollRepo, subRepo, cfg.MaxFreePolls, logger)
	pollSvc := service.NewPollService(pollRepo, usageSvc, whopClient, logger)
	notifSvc := service.NewNotificationService(notifRepo, whopClient, cfg.ExcludeCreatorFromNotification, logger)

	var publisher pubsub.Publisher
	if cfg.PublishSweepEvents && cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Fatal().Msgf("Failed to create Pub/Sub publisher: %v", err)
		}
		publisher = p
		logger.Info().Str("topic", cfg.PollEventsTopic).Msg("Lifecycle event publishing enabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	interval := time.Duration(cfg.SweepIntervalSec) * time.Second
	logger.Info().Dur("interval", interval).Msg("Sweeper started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run one sweep immediately so a restart does not wait a full interval.
	sweep(ctx, logger, pollSvc, notifSvc, publisher, cfg.PollEventsTopic)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutdown signal received, exiting...")
			return
		case <-ticker.C:
			sweep(ctx, logger, pollSvc, notifSvc, publisher, cfg.PollEventsTopic)
		}
	}
}

func sweep(ctx context.Context, log zerolog.Logger, polls service.PollService, notifier service.NotificationService, publisher pubsub.Publisher, topic string) {
	now := time.Now()

	activated, err := polls.ActivateDue(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to activate scheduled polls")
	} else if len(activated) > 0 {
		log.Info().Int("count", len(activated)).Msg("Activated scheduled polls")
		for i := range activated {
			if err := notifier.NotifyPollLaunched(ctx, activated[i]); err != nil {
				log.Error().Err(err).Str("poll_id", activated[i].ID).Msg("Failed to send launch notification")
			}
			publishEvent(ctx, log, publisher, topic, "poll.activated", activated[i], now)
		}
	}

	expired, err := polls.ExpireDue(ctx, now)
	if err != nil {
		log.Error().Err(err).Msg("Failed to expire polls")
	} else if len(expired) > 0 {
		log.Info().Int("count", len(expired)).Msg("Expired polls")
		for i := range expired {
			publishEvent(ctx, log, publisher, topic, "poll.expired", expired[i], now)
		}
	}
}

func publishEvent(ctx context.Context, log zerolog.Logger, publisher pubsub.Publisher, topic, action string, poll model.Poll, now time.Time) {
	if publisher == nil {
		return
	}
	payload, err := json.Marshal(lifecycleEvent{
		Action:    action,
		PollID:    poll.ID,
		Question:  poll.Question,
		CompanyID: poll.CompanyID,
		ExpiresAt: poll.ExpiresAt,
		SweptAt:   now,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode lifecycle event")
		return
	}
	if _, err := publisher.Publish(ctx, topic, payload); err != nil {
		log.Error().Err(err).Str("action", action).Str("poll_id", poll.ID).Msg("Failed to publish lifecycle event")
	}
}
