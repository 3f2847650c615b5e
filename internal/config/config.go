package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	DBHost      string `envconfig:"DB_HOST" required:"true"`
	DBPort      int    `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" required:"true"`
	DBPassword  string `envconfig:"DB_PASSWORD" required:"true"`
	DBName      string `envconfig:"DB_NAME" required:"true"`

	// Whop platform settings
	WhopAPIBaseURL    string `envconfig:"WHOP_API_BASE_URL" default:"https://api.whop.com/v5"`
	WhopAPIKey        string `envconfig:"WHOP_API_KEY" required:"true"`
	WhopAppID         string `envconfig:"WHOP_APP_ID" required:"true"`
	WhopJWTPublicKey  string `envconfig:"WHOP_JWT_PUBLIC_KEY" required:"true"`
	WhopWebhookSecret string `envconfig:"WHOP_WEBHOOK_SECRET"`

	// Optional Secret Manager fallback for the webhook secret. When
	// WHOP_WEBHOOK_SECRET is empty the secret is fetched from
	// projects/<project>/secrets/<name>/versions/latest at startup.
	WebhookSecretName string `envconfig:"WHOP_WEBHOOK_SECRET_NAME"`
	GCPProjectID      string `envconfig:"GCP_PROJECT_ID"`

	// Freemium settings
	MaxFreePolls int `envconfig:"MAX_FREE_POLLS" default:"3"`

	// Notification settings
	ExcludeCreatorFromNotification bool `envconfig:"EXCLUDE_CREATOR_FROM_NOTIFICATION" default:"false"`

	// Sweeper settings
	SweepIntervalSec   int    `envconfig:"SWEEP_INTERVAL_SEC" default:"60"`
	PollEventsTopic    string `envconfig:"POLL_EVENTS_TOPIC" default:"poll_lifecycle_events"`
	PublishSweepEvents bool   `envconfig:"PUBLISH_SWEEP_EVENTS" default:"true"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
